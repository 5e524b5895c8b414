package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"threatwatch/internal/threat"
)

// Common color palette for consistent styling
var (
	ColorPrimary = lipgloss.Color("#00ffff") // Cyan
	ColorSuccess = lipgloss.Color("#00ff00") // Green
	ColorError   = lipgloss.Color("#ff0000") // Red
	ColorMuted   = lipgloss.Color("#666666") // Gray
	ColorBorder  = lipgloss.Color("#3d5a80") // Medium blue
)

// Severity badge palette. Matching is case-insensitive; anything outside
// the four known levels falls back to gray.
var (
	ColorRed    = lipgloss.Color("#ff0000")
	ColorOrange = lipgloss.Color("#ff8700")
	ColorAmber  = lipgloss.Color("#ffbf00")
	ColorOlive  = lipgloss.Color("#808000")
	ColorGray   = lipgloss.Color("#666666")
)

var severityColors = map[threat.Severity]lipgloss.Color{
	threat.SeverityCritical: ColorRed,
	threat.SeverityHigh:     ColorOrange,
	threat.SeverityMedium:   ColorAmber,
	threat.SeverityLow:      ColorOlive,
}

// SeverityColor maps a severity to its badge color.
func SeverityColor(s threat.Severity) lipgloss.Color {
	if c, ok := severityColors[s.Normalized()]; ok {
		return c
	}
	return ColorGray
}

// Styles provides consistent styling across the dashboard views.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Panel    lipgloss.Style
	Card     lipgloss.Style
	Primary  lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Footer   lipgloss.Style
}

// NewStyles creates the dashboard style set.
func NewStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1).
			MarginBottom(1),

		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1),

		Primary: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Footer: lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1),
	}
}

// SeverityBadge renders the colored badge for a threat severity.
func (s Styles) SeverityBadge(sev threat.Severity) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(SeverityColor(sev)).
		Render(sev.Label())
}

// MetricCard renders one summary counter.
func (s Styles) MetricCard(title string, value uint64) string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		s.Muted.Render(title),
		s.Primary.Render(formatCount(value)),
	)
	return s.Card.Render(content)
}
