// Package styles holds the lipgloss palette and styles used by the dashboard.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Task state colors
	StateRunning = lipgloss.Color("#10B981") // Green
	StateReady   = lipgloss.Color("#60A5FA") // Blue
	StateBlocked = lipgloss.Color("#9CA3AF") // Gray
	StateDeleted = lipgloss.Color("#F87171") // Red

	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Error   = lipgloss.NewStyle().Foreground(ErrorColor)
	Warning = lipgloss.NewStyle().Foreground(WarningColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1)

	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(MutedColor).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Padding(0, 1)

	Section = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)

	SectionTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(MutedColor)

	LiveBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(SurfaceColor).
			Background(SecondaryColor).
			Padding(0, 1)

	StalledBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(ErrorColor).
			Padding(0, 1)

	PendingBadge = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)
)

// StateStyle returns the style for a task scheduling state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return lipgloss.NewStyle().Foreground(StateRunning)
	case "ready":
		return lipgloss.NewStyle().Foreground(StateReady)
	case "blocked":
		return lipgloss.NewStyle().Foreground(StateBlocked)
	case "deleted":
		return lipgloss.NewStyle().Foreground(StateDeleted)
	default:
		return Muted
	}
}
