package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Link      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Panels
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	PanelFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	PanelTitle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// History nodes
	NodeURL = lipgloss.NewStyle().
		Foreground(Link)

	NodeCurrent = lipgloss.NewStyle().
			Bold(true).
			Foreground(White)

	NodeSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	NodeOccupied = lipgloss.NewStyle().
			Foreground(Secondary)

	// Viewport markers
	ViewportTag = lipgloss.NewStyle().
			Foreground(Black).
			Background(Secondary).
			Padding(0, 1)

	ViewportActive = lipgloss.NewStyle().
			Foreground(White).
			Background(Primary).
			Padding(0, 1)

	Pending = lipgloss.NewStyle().
		Foreground(Warning).
		Italic(true)

	// Tree indicators
	TreeBranch = lipgloss.NewStyle().Foreground(Muted)
	TreeIndent = "│ "
	TreeNode   = "├ "

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	InputFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	SearchMatch = lipgloss.NewStyle().
			Background(Warning).
			Foreground(Black)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// PanelStyle returns the border style for a panel
func PanelStyle(focused bool) lipgloss.Style {
	if focused {
		return PanelFocused
	}
	return Panel
}
