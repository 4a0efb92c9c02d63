package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	sparkBlocks = []rune("▁▂▃▄▅▆▇█")
	sparkASCII  = []rune("_.-:=+*#")
)

type segment struct {
	frac  float64
	style lipgloss.Style
}

// bar draws stacked segments left to right. Segment edges are rounded on
// the running total so the filled length never drifts from the sum.
func bar(width int, ascii bool, empty lipgloss.Style, segs ...segment) string {
	if width <= 0 {
		return ""
	}
	fill, blank := "█", "░"
	if ascii {
		fill, blank = "#", "."
	}
	var b strings.Builder
	cum, drawn := 0.0, 0
	for _, s := range segs {
		cum += clamp01(s.frac)
		end := min(int(math.Round(cum*float64(width))), width)
		if end > drawn {
			b.WriteString(s.style.Render(strings.Repeat(fill, end-drawn)))
			drawn = end
		}
	}
	if drawn < width {
		b.WriteString(empty.Render(strings.Repeat(blank, width-drawn)))
	}
	return b.String()
}

// sparkline plots the last width samples against top. Missing history is
// left blank on the left.
func sparkline(values []float64, top float64, width int, ascii bool) string {
	if width <= 0 {
		return ""
	}
	levels := sparkBlocks
	if ascii {
		levels = sparkASCII
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(values)))
	for _, v := range values {
		f := 0.0
		if top > 0 {
			f = clamp01(v / top)
		}
		b.WriteRune(levels[int(math.Round(f*float64(len(levels)-1)))])
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
