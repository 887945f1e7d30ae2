package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

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

	// Task row styles
	TaskTodo = lipgloss.NewStyle()

	TaskRolled = lipgloss.NewStyle().
			Foreground(Warning)

	TaskDue = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	TaskSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	TaskLocation = lipgloss.NewStyle().
			Foreground(Muted)

	PriorityBadge = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusBar = lipgloss.NewStyle().
			Foreground(Muted)

	Message = lipgloss.NewStyle().
		Foreground(Secondary)

	MessageErr = lipgloss.NewStyle().
			Foreground(Error)
)
