package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bonsai/internal/adapters/tui/styles"
	"bonsai/internal/application"
)

// TreeKeyMap defines key bindings for the tree view
type TreeKeyMap struct {
	Close key.Binding
	Top   key.Binding
}

var TreeKeys = TreeKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "t"),
		key.WithHelp("esc/t", "close"),
	),
	Top: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "top"),
	),
}

// TreeModel shows the whole history forest in a scrollable pane
type TreeModel struct {
	ViewState
	pane  viewport.Model
	snap  *application.Snapshot
	ready bool
}

// NewTreeModel creates the tree view
func NewTreeModel() *TreeModel {
	return &TreeModel{}
}

// Init initializes the tree view
func (m *TreeModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the view dimensions and the scroll pane
func (m *TreeModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	w, h := max(width-4, 10), max(height-7, 3)
	if !m.ready {
		m.pane = viewport.New(w, h)
		m.ready = true
	} else {
		m.pane.Width = w
		m.pane.Height = h
	}
	m.render()
}

// Update handles messages for the tree view
func (m *TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.render()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, TreeKeys.Close):
			return m, func() tea.Msg { return SwitchToHistoryMsg{} }
		case key.Matches(msg, TreeKeys.Top):
			m.pane.GotoTop()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.pane, cmd = m.pane.Update(msg)
	return m, cmd
}

func (m *TreeModel) render() {
	if !m.ready {
		m.pane = viewport.New(76, 20)
		m.ready = true
	}
	if m.snap == nil {
		m.pane.SetContent("Loading...")
		return
	}
	m.pane.SetContent(RenderOutline(m.snap, m.pane.Width))
}

// RenderOutline draws the forest one node per line with viewport tags
func RenderOutline(snap *application.Snapshot, width int) string {
	outline := snap.Outline()
	if len(outline) == 0 {
		return styles.MutedText.Render("History is empty.")
	}

	active := snap.ActiveViewport()
	var b strings.Builder
	for i, e := range outline {
		prefix := ""
		if e.Depth > 0 {
			prefix = strings.Repeat(styles.TreeIndent, e.Depth-1) + styles.TreeNode
		}
		tags := RenderViewports(e.Heads, active)
		room := width - lipgloss.Width(prefix) - 1
		if tags != "" {
			room -= lipgloss.Width(tags) + 1
		}
		url := FitURL(e.Node.Data.URL, max(room, 8))
		if len(e.Heads) > 0 {
			url = styles.NodeOccupied.Render(url)
		} else {
			url = styles.NodeURL.Render(url)
		}
		b.WriteString(styles.TreeBranch.Render(prefix))
		b.WriteString(url)
		if tags != "" {
			b.WriteString(" ")
			b.WriteString(tags)
		}
		if i < len(outline)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View renders the tree view
func (m *TreeModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("History tree"))
	b.WriteString("\n")
	if !m.ready {
		m.render()
	}
	b.WriteString(m.pane.View())
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%3.f%%", m.pane.ScrollPercent()*100)))
	b.WriteString("  ")
	b.WriteString(RenderHelpLine(TreeKeys.Close, TreeKeys.Top))
	return styles.App.Render(b.String())
}
