package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values as a one-line chart. Samples at or
// above zero use the theme's positive color, the rest its negative color.
// NaN samples show as blanks.
func Sparkline(values []float64, width int, th Theme) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	rng := hi - lo
	if rng <= 0 || math.IsInf(rng, 0) || math.IsNaN(rng) {
		rng = 1
	}

	pos := lipgloss.NewStyle().Foreground(th.Positive)
	neg := lipgloss.NewStyle().Foreground(th.Negative)

	var b strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			b.WriteByte(' ')
			continue
		}
		idx := int((v - lo) / rng * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		c := string(sparkChars[idx])
		if v >= 0 {
			b.WriteString(pos.Render(c))
		} else {
			b.WriteString(neg.Render(c))
		}
	}
	return b.String()
}
