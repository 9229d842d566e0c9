package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bonsai/internal/adapters/tui/styles"
	"bonsai/internal/application"
	"bonsai/internal/application/commands"
	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// HistoryKeyMap defines key bindings for the history view
type HistoryKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	Go       key.Binding
	Back     key.Binding
	Viewport key.Binding
	Follow   key.Binding
	Copy     key.Binding
	Open     key.Binding
	Forget   key.Binding
	Tree     key.Binding
	Search   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var HistoryKeys = HistoryKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "back/forward panel"),
	),
	Go: key.NewBinding(
		key.WithKeys("enter", "l", "right"),
		key.WithHelp("enter", "go"),
	),
	Back: key.NewBinding(
		key.WithKeys("h", "left", "backspace"),
		key.WithHelp("h/←", "back"),
	),
	Viewport: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "next viewport"),
	),
	Follow: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "follow active"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy URL"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open externally"),
	),
	Forget: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "forget"),
	),
	Tree: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tree"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type panel int

const (
	panelBack panel = iota
	panelForward
)

// HistoryModel shows one viewport's position with the places it can go
type HistoryModel struct {
	ViewState
	nav    commands.Navigator
	dir    ports.WorkspaceDirectory
	opener ports.URLOpener

	snap     *application.Snapshot
	viewport domain.ViewportID
	pinned   bool // true when the user picked a viewport other than the active one
	focus    panel

	leaves []domain.Node
	cursor *Paginator

	backlinks    []domain.WorkspaceRef
	backlinksFor string
}

// NewHistoryModel creates the history view. dir and opener may be nil.
func NewHistoryModel(nav commands.Navigator, dir ports.WorkspaceDirectory, opener ports.URLOpener) *HistoryModel {
	return &HistoryModel{
		nav:    nav,
		dir:    dir,
		opener: opener,
		focus:  panelForward,
		cursor: NewPaginator(8),
	}
}

// Init loads the first snapshot
func (m *HistoryModel) Init() tea.Cmd {
	return LoadSnapshot(m.nav)
}

type navigatedMsg struct {
	message string
}

// openedMsg reports an external open; local state is unchanged
type openedMsg struct {
	message string
}

type backlinksMsg struct {
	url  string
	refs []domain.WorkspaceRef
}

// Update handles messages for the history view
func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case SnapshotMsg:
		return m, m.setSnapshot(msg.Snapshot)

	case backlinksMsg:
		if msg.url == m.backlinksFor {
			m.backlinks = msg.refs
		}
		return m, nil

	case navigatedMsg:
		m.SetMessage(msg.message, false)
		return m, LoadSnapshot(m.nav)

	case openedMsg:
		m.SetMessage(msg.message, false)
		return m, nil

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, HistoryKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, HistoryKeys.Up):
			if m.focus == panelForward {
				m.cursor.CursorUp()
			}
			return m, nil

		case key.Matches(msg, HistoryKeys.Down):
			if m.focus == panelForward {
				m.cursor.CursorDown()
			}
			return m, nil

		case key.Matches(msg, HistoryKeys.Switch):
			if m.focus == panelBack {
				m.focus = panelForward
			} else {
				m.focus = panelBack
			}
			return m, nil

		case key.Matches(msg, HistoryKeys.Go):
			if m.focus == panelBack {
				return m, m.goBack()
			}
			if leaf, ok := m.selectedLeaf(); ok {
				return m, m.goForward(leaf)
			}
			return m, nil

		case key.Matches(msg, HistoryKeys.Back):
			return m, m.goBack()

		case key.Matches(msg, HistoryKeys.Viewport):
			m.nextViewport()
			return m, m.refreshDerived()

		case key.Matches(msg, HistoryKeys.Follow):
			m.pinned = false
			if m.snap != nil {
				m.viewport = m.snap.ActiveViewport()
			}
			return m, m.refreshDerived()

		case key.Matches(msg, HistoryKeys.Copy):
			return m, m.copyURL()

		case key.Matches(msg, HistoryKeys.Open):
			return m, m.openURL()

		case key.Matches(msg, HistoryKeys.Forget):
			if leaf, ok := m.selectedLeaf(); ok && m.focus == panelForward {
				return m, m.forget(leaf)
			}
			return m, nil

		case key.Matches(msg, HistoryKeys.Tree):
			return m, func() tea.Msg { return SwitchToTreeMsg{} }

		case key.Matches(msg, HistoryKeys.Search):
			return m, func() tea.Msg { return SwitchToSearchMsg{} }

		case key.Matches(msg, HistoryKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *HistoryModel) setSnapshot(snap *application.Snapshot) tea.Cmd {
	m.snap = snap
	if _, ok := snap.HeadOf(m.viewport); !ok || !m.pinned {
		m.pinned = false
		m.viewport = snap.ActiveViewport()
		if _, ok := snap.HeadOf(m.viewport); !ok {
			// no active viewport yet; show the first open one
			if entries := snap.Heads.Entries(); len(entries) > 0 {
				m.viewport = entries[0].Viewport
			}
		}
	}
	return m.refreshDerived()
}

// refreshDerived recomputes the leaves and, when the head URL changed, the backlinks
func (m *HistoryModel) refreshDerived() tea.Cmd {
	m.leaves = nil
	head, ok := m.head()
	if !ok {
		m.cursor.SetTotal(0)
		return nil
	}
	if leaves, err := m.snap.DescendantLeaves(head.ID); err == nil {
		m.leaves = leaves
	}
	m.cursor.SetTotal(len(m.leaves))

	if m.dir == nil || domain.BaseURL(head.Data.URL) == m.backlinksFor {
		return nil
	}
	url := domain.BaseURL(head.Data.URL)
	m.backlinksFor = url
	m.backlinks = nil
	dir := m.dir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		refs, err := commands.NewBacklinksCommand(dir, url).Execute(ctx)
		if err != nil {
			return errMsg{err}
		}
		return backlinksMsg{url: url, refs: refs}
	}
}

func (m *HistoryModel) head() (domain.Node, bool) {
	if m.snap == nil {
		return domain.Node{}, false
	}
	return m.snap.HeadOf(m.viewport)
}

func (m *HistoryModel) selectedLeaf() (domain.Node, bool) {
	i := m.cursor.Cursor()
	if i >= 0 && i < len(m.leaves) {
		return m.leaves[i], true
	}
	return domain.Node{}, false
}

func (m *HistoryModel) nextViewport() {
	if m.snap == nil {
		return
	}
	entries := m.snap.Heads.Entries()
	if len(entries) == 0 {
		return
	}
	next := 0
	for i, e := range entries {
		if e.Viewport == m.viewport {
			next = (i + 1) % len(entries)
			break
		}
	}
	m.viewport = entries[next].Viewport
	m.pinned = m.viewport != m.snap.ActiveViewport()
}

func (m *HistoryModel) goBack() tea.Cmd {
	nav, viewport := m.nav, m.viewport
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		result, err := commands.NewBackCommand(nav, viewport).Execute(ctx)
		if err != nil {
			return errMsg{err}
		}
		return navigatedMsg{result.Message}
	}
}

func (m *HistoryModel) goForward(target domain.Node) tea.Cmd {
	nav, viewport := m.nav, m.viewport
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		result, err := commands.NewForwardCommand(nav, viewport, target.ID).Execute(ctx)
		if err != nil {
			return errMsg{err}
		}
		return navigatedMsg{result.Message}
	}
}

func (m *HistoryModel) forget(target domain.Node) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		result, err := commands.NewForgetCommand(nav, target.ID).Execute(ctx)
		if err != nil {
			return errMsg{err}
		}
		return navigatedMsg{result.Message}
	}
}

// selectedURL is the highlighted forward leaf, or the head when the back
// panel has focus
func (m *HistoryModel) selectedURL() string {
	if leaf, ok := m.selectedLeaf(); ok && m.focus == panelForward {
		return leaf.Data.URL
	}
	if head, ok := m.head(); ok {
		return head.Data.URL
	}
	return ""
}

func (m *HistoryModel) copyURL() tea.Cmd {
	url := m.selectedURL()
	if url == "" {
		return nil
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(url); err != nil {
			return errMsg{fmt.Errorf("copy failed: %w", err)}
		}
		return navigatedMsg{"Copied " + url}
	}
}

func (m *HistoryModel) openURL() tea.Cmd {
	url := m.selectedURL()
	if url == "" || m.opener == nil {
		return nil
	}
	opener := m.opener
	return func() tea.Msg {
		if err := opener.Open(url); err != nil {
			return errMsg{fmt.Errorf("open failed: %w", err)}
		}
		return openedMsg{"Opened " + url}
	}
}

// View renders the history view
func (m *HistoryModel) View() string {
	if m.snap == nil {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("bonsai"))
	b.WriteString("\n")

	head, ok := m.head()
	if !ok {
		b.WriteString(styles.Subtitle.Render("No open viewports. Waiting for the browser..."))
		b.WriteString("\n\n")
		b.WriteString(RenderHelpLine(HistoryKeys.Tree, HistoryKeys.Help, HistoryKeys.Quit))
		return styles.App.Render(b.String())
	}

	width := m.contentWidth()
	b.WriteString(m.renderCurrent(head, width))
	b.WriteString("\n\n")

	back := m.renderBack(head, width)
	forward := m.renderForward(width)
	if m.Width >= 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, back, " ", forward))
	} else {
		b.WriteString(back)
		b.WriteString("\n")
		b.WriteString(forward)
	}
	b.WriteString("\n")

	if len(m.backlinks) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.PanelTitle.Render("Pinned in"))
		b.WriteString("\n")
		for _, r := range m.backlinks {
			b.WriteString(WrapText(fmt.Sprintf("  %s / %s", r.WorkspaceName, r.GroupName), width))
			b.WriteString("\n")
		}
	}

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(RenderMessage(WrapText(m.Message, width), m.MessageErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(RenderHelpLine(
		HistoryKeys.Switch, HistoryKeys.Go, HistoryKeys.Back, HistoryKeys.Viewport,
		HistoryKeys.Copy, HistoryKeys.Tree, HistoryKeys.Search, HistoryKeys.Help, HistoryKeys.Quit,
	))

	return styles.App.Render(b.String())
}

func (m *HistoryModel) contentWidth() int {
	if m.Width <= 0 {
		return 80
	}
	return max(m.Width-6, 20)
}

func (m *HistoryModel) renderCurrent(head domain.Node, width int) string {
	var b strings.Builder
	label := "viewport " + string(m.viewport)
	if m.viewport == m.snap.ActiveViewport() {
		label += " (active)"
	} else if m.pinned {
		label += " (inspecting)"
	}
	b.WriteString(styles.Subtitle.Render(label))
	b.WriteString("\n")
	b.WriteString(styles.NodeCurrent.Render(WrapURL(head.Data.URL, width)))

	if others := viewportsOf(m.snap.HeadsOnNode(head.ID)); len(others) > 1 {
		b.WriteString("\n")
		b.WriteString(RenderViewports(others, m.snap.ActiveViewport()))
	}
	if p, ok := m.snap.PendingFor(m.viewport); ok {
		b.WriteString("\n")
		b.WriteString(styles.Pending.Render(fmt.Sprintf("waiting for %s to %s", p.Kind, FitURL(p.URL, width-20))))
	}
	return b.String()
}

func (m *HistoryModel) panelWidth(width int) int {
	if m.Width >= 100 {
		return width/2 - 2
	}
	return width - 2
}

func (m *HistoryModel) renderBack(head domain.Node, width int) string {
	inner := m.panelWidth(width) - 4
	var b strings.Builder
	b.WriteString(styles.PanelTitle.Render("Back"))
	b.WriteString("\n")

	parent, ok := m.snap.Parent(head.ID)
	if !ok {
		b.WriteString(styles.MutedText.Render("start of history"))
	} else {
		line := FitURL(parent.Data.URL, inner)
		if m.focus == panelBack {
			line = styles.NodeSelected.Render(line)
		} else {
			line = styles.NodeURL.Render(line)
		}
		b.WriteString(line)
		if vs := viewportsOf(m.snap.HeadsOnNode(parent.ID)); len(vs) > 0 {
			b.WriteString("\n")
			b.WriteString(RenderViewports(vs, m.snap.ActiveViewport()))
		}
	}
	return styles.PanelStyle(m.focus == panelBack).Width(m.panelWidth(width)).Render(b.String())
}

func (m *HistoryModel) renderForward(width int) string {
	inner := m.panelWidth(width) - 4
	var b strings.Builder
	b.WriteString(styles.PanelTitle.Render(fmt.Sprintf("Forward (%d)", len(m.leaves))))
	b.WriteString("\n")

	if len(m.leaves) == 0 {
		b.WriteString(styles.MutedText.Render("nothing ahead"))
		return styles.PanelStyle(m.focus == panelForward).Width(m.panelWidth(width)).Render(b.String())
	}

	if m.Height > 0 {
		m.cursor.SetPageSize(max(m.Height-18, 3))
	}
	above, below := m.cursor.Hidden()
	if above > 0 {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("↑ %d more", above)))
		b.WriteString("\n")
	}
	start, end := m.cursor.VisibleRange()
	for i := start; i < end; i++ {
		leaf := m.leaves[i]
		occupants := viewportsOf(m.snap.HeadsOnNode(leaf.ID))
		tags := RenderViewports(occupants, m.snap.ActiveViewport())
		line := FitURL(leaf.Data.URL, inner-lipgloss.Width(tags)-1)
		switch {
		case i == m.cursor.Cursor() && m.focus == panelForward:
			line = styles.NodeSelected.Render(line)
		case len(occupants) > 0:
			line = styles.NodeOccupied.Render(line)
		default:
			line = styles.NodeURL.Render(line)
		}
		b.WriteString(line)
		if tags != "" {
			b.WriteString(" ")
			b.WriteString(tags)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if below > 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("↓ %d more", below)))
	}
	return styles.PanelStyle(m.focus == panelForward).Width(m.panelWidth(width)).Render(b.String())
}
