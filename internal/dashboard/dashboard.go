// Package dashboard redraws the tracker board and chart on a terminal.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/kjannette/pi-tracker/internal/tracker"
	"go.uber.org/zap"
)

const clearScreen = "\033[H\033[2J"

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}).
			Padding(0, 1)
)

type Source interface {
	Board() tracker.Board
	Chart() string
}

type Dashboard struct {
	src      Source
	out      io.Writer
	interval time.Duration
	logger   *zap.Logger
}

func New(src Source, out io.Writer, interval time.Duration, logger *zap.Logger) *Dashboard {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{src: src, out: out, interval: interval, logger: logger.Named("dashboard")}
}

// Render lays the earnings panel and the chart panel side by side.
func (d *Dashboard) Render() string {
	b := d.src.Board()

	var left strings.Builder
	left.WriteString(headerStyle.Render("Earnings Calculator"))
	left.WriteString("\n\n")
	for _, line := range []string{b.Daily, b.Weekly, b.Monthly, b.Yearly, b.Elapsed} {
		left.WriteString(line)
		left.WriteString("\n")
	}
	left.WriteString("\n")
	left.WriteString(totalStyle.Render(b.Total))
	left.WriteString("\n")
	left.WriteString(totalStyle.Render(b.Custom))
	left.WriteString("\n\n")
	left.WriteString(b.Locked)
	if !b.UpdatedAt.IsZero() {
		left.WriteString("\n")
		left.WriteString(fmt.Sprintf("updated %s", b.UpdatedAt.Format("15:04:05")))
	}

	var right strings.Builder
	right.WriteString(headerStyle.Render(b.CurrentPrice))
	right.WriteString("\n\n")
	right.WriteString(strings.TrimRight(d.src.Chart(), "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(left.String()),
		panelStyle.Render(right.String()),
	) + "\n"
}

// Run redraws every interval until ctx ends.
func (d *Dashboard) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.draw()
		}
	}
}

func (d *Dashboard) draw() {
	if _, err := io.WriteString(d.out, clearScreen+d.Render()); err != nil {
		d.logger.Warn("dashboard write failed", zap.Error(err))
	}
}
