package chart

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/kjannette/pi-tracker/internal/models"
)

// Summary describes a price history in a few numbers. SMA is nil until the
// history holds at least Period samples.
type Summary struct {
	Count  int      `json:"count"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Last   float64  `json:"last"`
	Period int      `json:"sma_period"`
	SMA    *float64 `json:"sma,omitempty"`
}

func Summarize(samples []models.PriceSample, period int) Summary {
	s := Summary{Count: len(samples), Period: period}
	if len(samples) == 0 {
		return s
	}
	s.Min, s.Max = bounds(samples)
	s.Last = samples[len(samples)-1].Price

	if period < 2 || len(samples) < period {
		return s
	}
	prices := make([]float64, len(samples))
	for i, p := range samples {
		prices[i] = p.Price
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	if len(out) > 0 {
		last := out[len(out)-1]
		s.SMA = &last
	}
	return s
}

func (s Summary) String() string {
	if s.Count == 0 {
		return "no samples"
	}
	sma := "n/a"
	if s.SMA != nil {
		sma = fmt.Sprintf("%.6f", *s.SMA)
	}
	return fmt.Sprintf("min %.6f  max %.6f  last %.6f  sma(%d) %s",
		s.Min, s.Max, s.Last, s.Period, sma)
}
