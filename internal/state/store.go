// Package state holds the tracker's shared mutable state behind one lock.
// Fetch workers never write fields directly: they hand back immutable
// results tagged with the generation they were started under, and results
// older than the newest applied generation are dropped. Price samples are
// append-only and bypass the generation check.
package state

import (
	"strings"
	"sync"
	"time"

	"github.com/kjannette/pi-tracker/internal/models"
)

type Kind int

const (
	KindRates Kind = iota
	KindLocked
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindRates:
		return "rates"
	case KindLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// RatesResult is the outcome of one rates refresh.
type RatesResult struct {
	Generation uint64
	Rates      models.ExchangeRates
}

type LockedResult struct {
	Generation uint64
	Locked     models.LockedBalance
}

// Snapshot is a copy of the state at one instant.
type Snapshot struct {
	HourlyInput  string
	CustomCode   string
	CustomSymbol string
	StartTime    time.Time
	Rates        models.ExchangeRates
	Locked       *models.LockedBalance
	CurrentPrice *float64
}

type Store struct {
	mu sync.RWMutex

	hourlyInput  string
	customCode   string
	customSymbol string
	startTime    time.Time

	rates        models.ExchangeRates
	locked       *models.LockedBalance
	currentPrice *float64
	history      []models.PriceSample

	issued  [kindCount]uint64
	applied [kindCount]uint64
}

func NewStore(startTime time.Time, localCode string) *Store {
	return &Store{
		startTime: startTime,
		rates:     models.ExchangeRates{LocalCode: strings.ToLower(localCode)},
	}
}

// Begin issues the next generation number for a refresh of kind k.
func (s *Store) Begin(k Kind) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[k]++
	return s.issued[k]
}

// accept reports whether gen is newer than anything applied for k, and
// records it as applied when it is. Callers hold the write lock.
func (s *Store) accept(k Kind, gen uint64) bool {
	if gen <= s.applied[k] {
		return false
	}
	s.applied[k] = gen
	return true
}

// ApplyRates replaces the rates wholesale. It returns false when the result
// is stale.
func (s *Store) ApplyRates(r RatesResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accept(KindRates, r.Generation) {
		return false
	}
	s.rates = r.Rates
	return true
}

func (s *Store) ApplyLocked(r LockedResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accept(KindLocked, r.Generation) {
		return false
	}
	locked := r.Locked
	s.locked = &locked
	return true
}

// AppendPrice appends the sample to the history and makes it the current
// price. Every sample is kept; callers stamp it when appending so history
// stays in time order.
func (s *Store) AppendPrice(sample models.PriceSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price := sample.Price
	s.currentPrice = &price
	s.history = append(s.history, sample)
}

func (s *Store) SetHistory(samples []models.PriceSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]models.PriceSample(nil), samples...)
}

// History returns a copy of the price history.
func (s *Store) History() []models.PriceSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PriceSample, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) SetHourlyInput(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hourlyInput = raw
}

// SetCustomCurrency stores the custom code (lower-cased) and symbol. A new
// code invalidates the previous custom rate.
func (s *Store) SetCustomCurrency(code, symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.ToLower(strings.TrimSpace(code))
	if code != s.customCode {
		s.rates.USDToCustom = 0
		s.rates.CustomCode = ""
	}
	s.customCode = code
	s.customSymbol = strings.TrimSpace(symbol)
}

func (s *Store) CustomCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customCode
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		HourlyInput:  s.hourlyInput,
		CustomCode:   s.customCode,
		CustomSymbol: s.customSymbol,
		StartTime:    s.startTime,
		Rates:        s.rates,
	}
	if s.locked != nil {
		locked := *s.locked
		snap.Locked = &locked
	}
	if s.currentPrice != nil {
		price := *s.currentPrice
		snap.CurrentPrice = &price
	}
	return snap
}
