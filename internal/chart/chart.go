// Package chart draws the price history as a text line plot.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kjannette/pi-tracker/internal/models"
)

const (
	Title  = "Pi Coin Price Chart"
	XLabel = "Data Points"
	YLabel = "Price (USD)"

	Marker = '●'
	line   = '·'
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"})
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"})
)

type Options struct {
	Width     int
	Height    int
	SMAPeriod int
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Width < 10 {
		opts.Width = 60
	}
	if opts.Height < 3 {
		opts.Height = 12
	}
	if opts.SMAPeriod < 2 {
		opts.SMAPeriod = 5
	}
	return &Renderer{opts: opts}
}

// Render redraws the whole chart from samples: one marker per sample, in
// order, joined by a dotted line. X is the sample index, Y the price. When
// there are more samples than the configured width the plot widens instead of
// dropping points.
func (r *Renderer) Render(samples []models.PriceSample) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(Title))
	b.WriteString("\n")
	b.WriteString(axisStyle.Render(YLabel))
	b.WriteString("\n")

	if len(samples) == 0 {
		b.WriteString(noteStyle.Render("(no data)"))
		b.WriteString("\n")
		return b.String()
	}

	width := r.opts.Width
	if len(samples) > width {
		width = len(samples)
	}
	height := r.opts.Height

	lo, hi := bounds(samples)
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	rowOf := func(price float64) int {
		if hi == lo {
			return height / 2
		}
		frac := (price - lo) / (hi - lo)
		return height - 1 - int(math.Round(frac*float64(height-1)))
	}
	colOf := func(i int) int {
		if len(samples) == 1 {
			return 0
		}
		return i * (width - 1) / (len(samples) - 1)
	}

	for i := 1; i < len(samples); i++ {
		c0, c1 := colOf(i-1), colOf(i)
		r0, r1 := rowOf(samples[i-1].Price), rowOf(samples[i].Price)
		for c := c0 + 1; c < c1; c++ {
			frac := float64(c-c0) / float64(c1-c0)
			row := r0 + int(math.Round(frac*float64(r1-r0)))
			grid[row][c] = line
		}
	}
	for i, s := range samples {
		grid[rowOf(s.Price)][colOf(i)] = Marker
	}

	labelHi := fmt.Sprintf("%.6f", hi)
	labelLo := fmt.Sprintf("%.6f", lo)
	pad := len(labelHi)
	if len(labelLo) > pad {
		pad = len(labelLo)
	}

	for i, row := range grid {
		label := strings.Repeat(" ", pad)
		tick := "│"
		switch i {
		case 0:
			label, tick = fmt.Sprintf("%*s", pad, labelHi), "┤"
		case height - 1:
			label, tick = fmt.Sprintf("%*s", pad, labelLo), "┤"
		}
		b.WriteString(axisStyle.Render(label + " " + tick))
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	b.WriteString(axisStyle.Render(strings.Repeat(" ", pad+1) + "└" + strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(axisStyle.Render(fmt.Sprintf("%s %s (%d)", strings.Repeat(" ", pad+1), XLabel, len(samples))))
	b.WriteString("\n")

	sum := Summarize(samples, r.opts.SMAPeriod)
	b.WriteString(noteStyle.Render(sum.String()))
	b.WriteString("\n")
	return b.String()
}

func bounds(samples []models.PriceSample) (lo, hi float64) {
	lo, hi = samples[0].Price, samples[0].Price
	for _, s := range samples[1:] {
		lo = math.Min(lo, s.Price)
		hi = math.Max(hi, s.Price)
	}
	return lo, hi
}
