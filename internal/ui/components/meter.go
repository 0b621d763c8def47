package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cli-senpei/Lerni-sub000/internal/ui/theme"
)

// Meter renders a value between 0 and Max as a filled bar followed by
// the numeric value.
type Meter struct {
	Value  float64
	Max    float64
	Width  int
	Format string // fmt verb for the trailing value, e.g. "%.1f"
}

// View renders the meter.
func (m Meter) View() string {
	width := m.Width
	if width < 4 {
		width = 4
	}
	frac := 0.0
	if m.Max > 0 {
		frac = m.Value / m.Max
	}
	filled := int(float64(width)*frac + 0.5)
	filled = max(0, min(width, filled))

	bar := lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", width-filled))

	format := m.Format
	if format == "" {
		format = "%.2f"
	}
	return bar + "  " + theme.Value.Render(fmt.Sprintf(format, m.Value))
}
