package application

import "github.com/charmbracelet/lipgloss"

// Color palette for the picker.
var (
	Primary     = lipgloss.Color("#7C3AED") // Purple
	Secondary   = lipgloss.Color("#06B6D4") // Cyan
	Success     = lipgloss.Color("#10B981") // Green
	Error       = lipgloss.Color("#EF4444") // Red
	Muted       = lipgloss.Color("#6B7280") // Gray
	Foreground  = lipgloss.Color("#F9FAFB") // White
	BorderColor = lipgloss.Color("#374151") // Border Gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Background(Primary).
			Bold(true).
			Padding(0, 1)

	counterStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// focusedPaneStyle highlights the pane that receives space/enter.
	focusedPaneStyle = paneStyle.
				BorderForeground(Primary)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Foreground)

	cursorStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(Foreground)

	emptyStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(Muted)

	statusStyle = lipgloss.NewStyle().
			Foreground(Success)

	errorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)
