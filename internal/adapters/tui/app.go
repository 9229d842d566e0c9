package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"bonsai/internal/adapters/tui/views"
	"bonsai/internal/application/commands"
	"bonsai/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewHistory ViewState = iota
	ViewTree
	ViewSearch
	ViewHelp
)

// App is the main TUI application model
type App struct {
	nav commands.Navigator

	state   ViewState
	history *views.HistoryModel
	tree    *views.TreeModel
	search  *views.SearchModel
	help    *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application. dir may be nil when no workspace
// directory is configured, opener when pages should not be opened externally.
func NewApp(nav commands.Navigator, dir ports.WorkspaceDirectory, opener ports.URLOpener) *App {
	return &App{
		nav:     nav,
		state:   ViewHistory,
		history: views.NewHistoryModel(nav, dir, opener),
		tree:    views.NewTreeModel(),
		search:  views.NewSearchModel(),
		help:    views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.history.Init(), views.Tick())
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.history.SetSize(msg.Width, msg.Height)
		a.tree.SetSize(msg.Width, msg.Height)
		a.search.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SnapshotMsg:
		// every view keeps its own copy so switching never shows stale state
		_, cmd := a.history.Update(msg)
		a.tree.Update(msg)
		a.search.Update(msg)
		return a, cmd

	// View switching messages
	case views.SwitchToTreeMsg:
		a.state = ViewTree
		return a, views.LoadSnapshot(a.nav)

	case views.SwitchToSearchMsg:
		a.state = ViewSearch
		a.search.Reset()
		return a, tea.Batch(a.search.Init(), views.LoadSnapshot(a.nav))

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToHistoryMsg:
		a.state = ViewHistory
		return a, views.LoadSnapshot(a.nav)

	case views.SearchSelectMsg:
		a.state = ViewHistory
		a.history.SetMessage("Copied "+msg.Node.Data.URL, false)
		return a, nil
	}

	if views.IsTick(msg) {
		return a, tea.Batch(views.LoadSnapshot(a.nav), views.Tick())
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewHistory:
		_, cmd = a.history.Update(msg)
	case ViewTree:
		_, cmd = a.tree.Update(msg)
	case ViewSearch:
		_, cmd = a.search.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewTree:
		return a.tree.View()
	case ViewSearch:
		return a.search.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.history.View()
	}
}
