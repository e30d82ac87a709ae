package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samples(prices ...float64) []models.PriceSample {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	out := make([]models.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = models.NewPriceSample(base.Add(time.Duration(i)*time.Minute), p)
	}
	return out
}

func TestRender_MarkerPerSample(t *testing.T) {
	r := NewRenderer(Options{Width: 20, Height: 6, SMAPeriod: 3})
	out := r.Render(samples(0.5, 0.52, 0.48, 0.51))

	assert.Contains(t, out, Title)
	assert.Contains(t, out, XLabel)
	assert.Contains(t, out, YLabel)
	assert.Equal(t, 4, strings.Count(out, string(Marker)))
	assert.Contains(t, out, "0.520000")
	assert.Contains(t, out, "0.480000")
}

func TestRender_WidensInsteadOfDropping(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = float64(i % 7)
	}
	r := NewRenderer(Options{Width: 10, Height: 5})
	out := r.Render(samples(prices...))
	assert.Equal(t, 50, strings.Count(out, string(Marker)))
}

func TestRender_FlatAndEmpty(t *testing.T) {
	r := NewRenderer(Options{})
	out := r.Render(samples(0, 0, 0))
	assert.Equal(t, 3, strings.Count(out, string(Marker)), "zero samples are still plotted")

	out = r.Render(nil)
	assert.Contains(t, out, Title)
	assert.Contains(t, out, "(no data)")
	assert.Zero(t, strings.Count(out, string(Marker)))
}

func TestRender_FullRedraw(t *testing.T) {
	r := NewRenderer(Options{Width: 20, Height: 6})
	first := r.Render(samples(1, 2, 3))
	second := r.Render(samples(1, 2, 3))
	assert.Equal(t, first, second)
}

func TestSummarize(t *testing.T) {
	s := Summarize(samples(1, 2, 3, 4, 5), 3)
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 5.0, s.Last)
	require.NotNil(t, s.SMA)
	assert.InDelta(t, 4.0, *s.SMA, 1e-9)
	assert.Contains(t, s.String(), "sma(3) 4.000000")

	short := Summarize(samples(1, 2), 3)
	assert.Nil(t, short.SMA)
	assert.Contains(t, short.String(), "n/a")

	assert.Equal(t, "no samples", Summarize(nil, 3).String())
}
