package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/danielolaszy/slacheck/internal/sla"
)

var (
	colorFg       = lipgloss.Color("#c0caf5")
	colorMuted    = lipgloss.Color("#565f89")
	colorMet      = lipgloss.Color("#9ece6a")
	colorBreached = lipgloss.Color("#f7768e")
	colorAtRisk   = lipgloss.Color("#e0af68")
	colorProgress = lipgloss.Color("#7aa2f7")
	colorAccent   = lipgloss.Color("#d4a373")
)

// statusColor returns the color used for an SLA status.
func statusColor(status sla.Status) lipgloss.Color {
	switch status {
	case sla.StatusMet:
		return colorMet
	case sla.StatusBreached:
		return colorBreached
	case sla.StatusAtRisk:
		return colorAtRisk
	case sla.StatusInProgress:
		return colorProgress
	default:
		return colorMuted
	}
}

// complianceColor grades a compliance percentage.
func complianceColor(rate float64) lipgloss.Color {
	switch {
	case rate >= 95:
		return colorMet
	case rate >= 80:
		return colorAtRisk
	default:
		return colorBreached
	}
}

type styles struct {
	title  lipgloss.Style
	box    lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Foreground(colorFg).Bold(true),
		box:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 2),
		label:  r.NewStyle().Foreground(colorMuted).Width(18),
		value:  r.NewStyle().Foreground(colorFg),
		muted:  r.NewStyle().Foreground(colorMuted),
		header: r.NewStyle().Foreground(colorMuted).Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Foreground(colorFg).Padding(0, 1),
		border: r.NewStyle().Foreground(colorMuted),
	}
}
