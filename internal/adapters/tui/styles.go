// Package tui renders receiving screens for terminals and hosts the
// extra-quantity confirmation dialog.
package tui

import (
	"fmt"
	"strings"

	"garage-portal/internal/core"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	toneStyles = map[string]lipgloss.Style{
		core.ToneInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		core.ToneWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")).Bold(true),
		core.ToneDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		core.ToneMuted:   mutedStyle,
	}
)

// Tone renders s in the colour of a display tone. Unknown tones render muted.
func Tone(tone, s string) string {
	style, ok := toneStyles[tone]
	if !ok {
		style = mutedStyle
	}
	return style.Render(s)
}

// ProgressBar draws a width-cell bar filled to p.BarWidth, followed by the
// rounded percentage. Over-delivery fills the bar and shows the true percentage.
func ProgressBar(p core.Progress, width int) string {
	if width < 1 {
		width = 1
	}
	filled := int(p.BarWidth / 100 * float64(width))
	if filled > width {
		filled = width
	}
	style := toneStyles[core.ToneInfo]
	switch {
	case p.Remaining < 0:
		style = toneStyles[core.ToneWarning]
	case p.Remaining == 0 && p.Ordered > 0:
		style = doneStyle
	}
	bar := strings.Repeat("█", filled)
	return fmt.Sprintf("%s%s %d%%", style.Render(bar), mutedStyle.Render(strings.Repeat("░", width-filled)), p.Percent)
}

// Title renders a heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Muted renders secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
