package state

import (
	"testing"
	"time"

	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_StaleRatesDiscarded(t *testing.T) {
	s := NewStore(time.Now(), "TRY")
	assert.Equal(t, "try", s.Snapshot().Rates.LocalCode)

	older := s.Begin(KindRates)
	newer := s.Begin(KindRates)

	require.True(t, s.ApplyRates(RatesResult{Generation: newer, Rates: models.ExchangeRates{PiUSD: 2, USDToLocal: 30}}))
	assert.False(t, s.ApplyRates(RatesResult{Generation: older, Rates: models.ExchangeRates{PiUSD: 1, USDToLocal: 29}}))

	assert.Equal(t, 2.0, s.Snapshot().Rates.PiUSD)
}

func TestStore_InOrderRatesApplied(t *testing.T) {
	s := NewStore(time.Now(), "try")
	first := s.Begin(KindRates)
	require.True(t, s.ApplyRates(RatesResult{Generation: first, Rates: models.ExchangeRates{PiUSD: 1}}))
	second := s.Begin(KindRates)
	require.True(t, s.ApplyRates(RatesResult{Generation: second, Rates: models.ExchangeRates{PiUSD: 3}}))
	assert.Equal(t, 3.0, s.Snapshot().Rates.PiUSD)
}

func TestStore_GenerationsArePerKind(t *testing.T) {
	s := NewStore(time.Now(), "try")
	s.Begin(KindRates)
	s.Begin(KindRates)
	gen := s.Begin(KindLocked)
	assert.Equal(t, uint64(1), gen)
	require.True(t, s.ApplyLocked(LockedResult{Generation: gen, Locked: models.LockedBalance{Amount: 12}}))
	require.NotNil(t, s.Snapshot().Locked)
	assert.Equal(t, 12.0, s.Snapshot().Locked.Amount)
}

func TestStore_PriceAppendsHistory(t *testing.T) {
	s := NewStore(time.Now(), "try")
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local)
	s.SetHistory([]models.PriceSample{models.NewPriceSample(ts, 1)})

	s.AppendPrice(models.NewPriceSample(ts.Add(time.Hour), 2))
	s.AppendPrice(models.NewPriceSample(ts.Add(2*time.Hour), 0))

	history := s.History()
	require.Len(t, history, 3, "zero samples are kept too")
	assert.Equal(t, 2.0, history[1].Price)
	assert.Equal(t, 0.0, history[2].Price)
	require.NotNil(t, s.Snapshot().CurrentPrice)
	assert.Equal(t, 0.0, *s.Snapshot().CurrentPrice)

	// callers get a copy
	history[0].Price = 100
	assert.Equal(t, 1.0, s.History()[0].Price)
}

func TestStore_CustomCurrencyChangeClearsRate(t *testing.T) {
	s := NewStore(time.Now(), "try")
	s.SetCustomCurrency(" EUR ", " € ")
	gen := s.Begin(KindRates)
	s.ApplyRates(RatesResult{Generation: gen, Rates: models.ExchangeRates{USDToCustom: 0.9, CustomCode: "eur"}})

	snap := s.Snapshot()
	assert.Equal(t, "eur", snap.CustomCode)
	assert.Equal(t, "€", snap.CustomSymbol)
	assert.Equal(t, 0.9, snap.Rates.USDToCustom)

	s.SetCustomCurrency("eur", "EUR")
	assert.Equal(t, 0.9, s.Snapshot().Rates.USDToCustom, "same code keeps the rate")

	s.SetCustomCurrency("gbp", "£")
	assert.Zero(t, s.Snapshot().Rates.USDToCustom)
}
