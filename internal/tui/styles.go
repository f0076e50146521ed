package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent   = lipgloss.Color("#14B8A6") // teal
	green    = lipgloss.Color("#22C55E")
	yellow   = lipgloss.Color("#F59E0B")
	red      = lipgloss.Color("#EF4444")
	blue     = lipgloss.Color("#38BDF8")
	slate    = lipgloss.Color("#94A3B8")
	slateDim = lipgloss.Color("#64748B")
	panelBg  = lipgloss.Color("#111827")
	bgDark   = lipgloss.Color("#0B1220")
	line     = lipgloss.Color("#1F2937")
	ink      = lipgloss.Color("#E5E7EB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ink).
			Background(bgDark).
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderTop(false).
			BorderRight(false).
			BorderBottom(false).
			BorderForeground(accent).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(line).
			Background(panelBg).
			Padding(1, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(line).
			Background(panelBg).
			Padding(1, 1)

	panelHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ink)

	keycapStyle = lipgloss.NewStyle().
			Foreground(ink).
			Background(lipgloss.Color("#1E293B")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(line).
			Padding(0, 1)

	receivedStyle = lipgloss.NewStyle().Bold(true).Foreground(blue)
	messagesStyle = lipgloss.NewStyle().Bold(true).Foreground(green)
	ignoredStyle  = lipgloss.NewStyle().Foreground(slate)
	failureStyle  = lipgloss.NewStyle().Bold(true).Foreground(red)
	errorStyle    = lipgloss.NewStyle().Foreground(red)

	dimStyle = lipgloss.NewStyle().Foreground(slateDim)
)

// eventBadge colours an SSE event type.
func eventBadge(eventType string) string {
	bg := slate
	switch eventType {
	case "webhook.handled":
		bg = green
	case "webhook.failed":
		bg = red
	case "directory.reloaded":
		bg = blue
	case "connected", "gateway.started":
		bg = yellow
	}
	return lipgloss.NewStyle().Foreground(bgDark).Background(bg).Padding(0, 1).Render(eventType)
}
