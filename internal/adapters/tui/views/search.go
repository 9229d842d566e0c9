package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"bonsai/internal/adapters/tui/styles"
	"bonsai/internal/application"
	"bonsai/internal/domain"
)

// SearchKeyMap defines key bindings for the search view
type SearchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

var SearchKeys = SearchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy URL"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

const maxSearchResults = 10

// SearchModel filters every visited URL by substring
type SearchModel struct {
	ViewState
	input   textinput.Model
	snap    *application.Snapshot
	results []domain.Node
	cursor  int
}

// NewSearchModel creates a new search view model
func NewSearchModel() *SearchModel {
	input := textinput.New()
	input.Placeholder = "Filter visited URLs..."
	input.Focus()
	return &SearchModel{input: input}
}

// Init initializes the search view
func (m *SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

// Reset clears the query
func (m *SearchModel) Reset() {
	m.input.SetValue("")
	m.results = nil
	m.cursor = 0
	m.input.Focus()
}

// SearchSelectMsg is sent when a result is picked
type SearchSelectMsg struct {
	Node domain.Node
}

// Update handles messages for the search view
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.filter()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, SearchKeys.Cancel):
			return m, func() tea.Msg { return SwitchToHistoryMsg{} }

		case key.Matches(msg, SearchKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, SearchKeys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, SearchKeys.Select):
			if m.cursor >= 0 && m.cursor < len(m.results) {
				node := m.results[m.cursor]
				clipboard.WriteAll(node.Data.URL)
				return m, func() tea.Msg { return SearchSelectMsg{Node: node} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filter()
	return m, cmd
}

// filter recomputes matches, most recent visit first
func (m *SearchModel) filter() {
	query := strings.ToLower(strings.TrimSpace(m.input.Value()))
	m.results = nil
	if query == "" || m.snap == nil {
		m.cursor = 0
		return
	}
	for _, e := range m.snap.Outline() {
		if strings.Contains(strings.ToLower(e.Node.Data.URL), query) {
			m.results = append(m.results, e.Node)
		}
	}
	for i, j := 0, len(m.results)-1; i < j; i, j = i+1, j-1 {
		m.results[i], m.results[j] = m.results[j], m.results[i]
	}
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

// View renders the search view
func (m *SearchModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Search history"))
	b.WriteString("\n\n")
	b.WriteString(styles.InputFocused.Render(m.input.View()))
	b.WriteString("\n\n")

	query := strings.TrimSpace(m.input.Value())
	switch {
	case query == "":
		b.WriteString(styles.MutedText.Render("Type to filter"))
	case len(m.results) == 0:
		b.WriteString(styles.MutedText.Render("No results found"))
	default:
		b.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d results", len(m.results))))
		b.WriteString("\n\n")
		width := max(m.Width-8, 20)
		for i := 0; i < min(len(m.results), maxSearchResults); i++ {
			b.WriteString(m.renderResult(m.results[i], query, i == m.cursor, width))
			b.WriteString("\n")
		}
		if len(m.results) > maxSearchResults {
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("... and %d more", len(m.results)-maxSearchResults)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(RenderHelpLine(SearchKeys.Up, SearchKeys.Down, SearchKeys.Select, SearchKeys.Cancel))
	return styles.App.Render(b.String())
}

func (m *SearchModel) renderResult(node domain.Node, query string, selected bool, width int) string {
	url := FitURL(node.Data.URL, width)
	if selected {
		return styles.NodeSelected.Render(url)
	}
	lower := strings.ToLower(url)
	i := strings.Index(lower, strings.ToLower(query))
	if i < 0 || len(lower) != len(url) || i+len(query) > len(url) {
		return url
	}
	return url[:i] + styles.SearchMatch.Render(url[i:i+len(query)]) + url[i+len(query):]
}
