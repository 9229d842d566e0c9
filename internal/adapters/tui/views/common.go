package views

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bonsai/internal/application"
	"bonsai/internal/application/commands"
)

// refreshInterval is how often views poll the engine for a new snapshot
const refreshInterval = 500 * time.Millisecond

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// SnapshotMsg carries fresh engine state to every view
type SnapshotMsg struct {
	Snapshot *application.Snapshot
}

type errMsg struct {
	err error
}

type tickMsg struct{}

// LoadSnapshot fetches engine state
func LoadSnapshot(nav commands.Navigator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		snap, err := nav.Snapshot(ctx)
		if err != nil {
			return errMsg{err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// Tick schedules the next refresh
func Tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// IsTick reports whether msg is a refresh tick
func IsTick(msg tea.Msg) bool {
	_, ok := msg.(tickMsg)
	return ok
}

// Messages for view switching
type SwitchToTreeMsg struct{}

type SwitchToSearchMsg struct{}

type SwitchToHelpMsg struct{}

type SwitchToHistoryMsg struct{}
