// Package earnings turns an hourly Pi rate into projected and accrued figures.
package earnings

import (
	"strings"
	"time"

	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrInvalidHourlyRate = errors.New("please enter a valid hourly earning")

var (
	hoursPerDay   = decimal.NewFromInt(24)
	daysPerWeek   = decimal.NewFromInt(7)
	daysPerMonth  = decimal.NewFromInt(30)
	monthsPerYear = decimal.NewFromInt(12)
	minutesPerHr  = decimal.NewFromInt(60)
)

// Input carries everything a calculation needs. Rates of zero mean
// "not fetched yet or failed".
type Input struct {
	HourlyRate  decimal.Decimal
	PiPrice     float64
	USDToLocal  float64
	USDToCustom float64
	CustomCode  string
	Elapsed     time.Duration
}

// ParseHourlyRate parses user input for the hourly rate.
func ParseHourlyRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrInvalidHourlyRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidHourlyRate, "%q", raw)
	}
	if rate.IsNegative() {
		return decimal.Zero, errors.Wrapf(ErrInvalidHourlyRate, "%q is negative", raw)
	}
	return rate, nil
}

// Calculate is pure. Projections are always produced; TotalLocal only when
// both the Pi price and the local rate are non-zero, TotalCustom only when
// additionally a custom code and a non-zero custom rate are present.
func Calculate(in Input) models.Projection {
	daily := in.HourlyRate.Mul(hoursPerDay)
	monthly := daily.Mul(daysPerMonth)

	elapsed := ElapsedMinutes(in.Elapsed)
	totalPi := elapsed.Div(minutesPerHr).Mul(in.HourlyRate)

	p := models.Projection{
		Daily:          daily,
		Weekly:         daily.Mul(daysPerWeek),
		Monthly:        monthly,
		Yearly:         monthly.Mul(monthsPerYear),
		ElapsedMinutes: elapsed,
		TotalPi:        totalPi,
	}

	if !(models.ExchangeRates{PiUSD: in.PiPrice, USDToLocal: in.USDToLocal}).Ready() {
		return p
	}
	piPrice := decimal.NewFromFloat(in.PiPrice)
	local := totalPi.Mul(piPrice).Mul(decimal.NewFromFloat(in.USDToLocal))
	p.TotalLocal = &local

	if strings.TrimSpace(in.CustomCode) != "" && in.USDToCustom != 0 {
		custom := totalPi.Mul(piPrice).Mul(decimal.NewFromFloat(in.USDToCustom))
		p.TotalCustom = &custom
	}
	return p
}

// ElapsedMinutes converts a duration to fractional minutes at microsecond
// resolution.
func ElapsedMinutes(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Microseconds()).Div(decimal.NewFromInt(int64(time.Minute / time.Microsecond)))
}
