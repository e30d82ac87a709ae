// Package tracker ties the earnings calculator, the price feed, the history
// store and the chart together behind one service driven by the scheduler.
package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kjannette/pi-tracker/internal/chart"
	"github.com/kjannette/pi-tracker/internal/earnings"
	"github.com/kjannette/pi-tracker/internal/feed"
	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/kjannette/pi-tracker/internal/repository"
	"github.com/kjannette/pi-tracker/internal/scheduler"
	"github.com/kjannette/pi-tracker/internal/state"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	TaskEarnings = "earnings"
	TaskRates    = "rates"
	TaskLocked   = "locked"
)

// PriceFeed is the fetch boundary: failures come back as zero.
type PriceFeed interface {
	Fetch(ctx context.Context, pair feed.Pair) float64
	LockedBalance(ctx context.Context) float64
}

type Options struct {
	PiCoinID       string
	LocalCurrency  string
	LocalSymbol    string
	HourlyRate     string
	CustomCurrency string
	CustomSymbol   string

	EarningsInterval time.Duration
	RatesInterval    time.Duration
	LockedInterval   time.Duration

	Chart chart.Options
}

type Service struct {
	feed    PriceFeed
	history repository.HistoryStore
	notify  feed.Notifier
	logger  *zap.Logger
	opts    Options

	store    *state.Store
	loop     *scheduler.Loop
	renderer *chart.Renderer
	now      func() time.Time

	mu      sync.RWMutex
	board   Board
	chart   string
	lastBad string

	saveMu sync.Mutex
}

func NewService(pf PriceFeed, history repository.HistoryStore, notify feed.Notifier, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PiCoinID == "" {
		opts.PiCoinID = "pi-network"
	}
	if opts.LocalCurrency == "" {
		opts.LocalCurrency = "try"
	}
	if opts.EarningsInterval <= 0 {
		opts.EarningsInterval = time.Second
	}
	if opts.RatesInterval <= 0 {
		opts.RatesInterval = time.Hour
	}
	if opts.LockedInterval <= 0 {
		opts.LockedInterval = time.Hour
	}

	s := &Service{
		feed:     pf,
		history:  history,
		notify:   notify,
		logger:   logger.Named("tracker"),
		opts:     opts,
		renderer: chart.NewRenderer(opts.Chart),
		now:      time.Now,
		board:    initialBoard(opts.LocalSymbol),
	}
	s.store = state.NewStore(s.now(), opts.LocalCurrency)
	s.store.SetHourlyInput(opts.HourlyRate)
	s.store.SetCustomCurrency(opts.CustomCurrency, opts.CustomSymbol)
	s.chart = s.renderer.Render(nil)

	s.loop = scheduler.New([]scheduler.Task{
		{Name: TaskEarnings, Interval: opts.EarningsInterval, RunOnStart: true, Run: s.tick},
		{Name: TaskRates, Interval: opts.RatesInterval, Async: true, RunOnStart: true, Run: s.refreshRatesTask},
		{Name: TaskLocked, Interval: opts.LockedInterval, Async: true, RunOnStart: true, Run: s.refreshLockedTask},
	}, s.logger)
	return s
}

// Start loads the saved history, draws the chart and starts the loop.
func (s *Service) Start(ctx context.Context) error {
	samples, err := s.history.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load price history")
	}
	s.store.SetHistory(samples)
	s.redraw(samples)
	s.logger.Info("price history loaded", zap.Int("samples", len(samples)))

	s.loop.Start(ctx)
	return nil
}

func (s *Service) Stop() {
	s.loop.Stop()
}

func (s *Service) Running() bool {
	return s.loop.Running()
}

// SetHourlyRate replaces the hourly rate input and recomputes. Invalid input
// is rejected and the previous rate kept.
func (s *Service) SetHourlyRate(raw string) (models.Projection, error) {
	if _, err := earnings.ParseHourlyRate(raw); err != nil {
		return models.Projection{}, err
	}
	s.store.SetHourlyInput(strings.TrimSpace(raw))
	return s.Recompute()
}

// SetCustomCurrency changes the custom currency. A new code clears the old
// custom rate, so the custom total shows N/A until the next rates refresh.
func (s *Service) SetCustomCurrency(code, symbol string) {
	s.store.SetCustomCurrency(code, symbol)
	s.logger.Info("custom currency set",
		zap.String("code", s.store.CustomCode()),
		zap.String("symbol", strings.TrimSpace(symbol)))
}

// Recompute runs the calculator on the current state and updates the board.
// An unparsable hourly rate is alerted once per distinct input and blocks the
// calculation.
func (s *Service) Recompute() (models.Projection, error) {
	snap := s.store.Snapshot()
	rate, err := earnings.ParseHourlyRate(snap.HourlyInput)
	if err != nil {
		s.mu.Lock()
		repeat := s.lastBad == snap.HourlyInput
		s.lastBad = snap.HourlyInput
		s.mu.Unlock()
		if !repeat && s.notify != nil {
			s.notify.Alert("Error", "Please enter a valid hourly earning!")
		}
		return models.Projection{}, err
	}

	in := earnings.Input{
		HourlyRate: rate,
		PiPrice:    snap.Rates.PiUSD,
		USDToLocal: snap.Rates.USDToLocal,
		CustomCode: snap.CustomCode,
		Elapsed:    s.now().Sub(snap.StartTime),
	}
	// a late result fetched for a previous custom code must not be used
	if snap.Rates.CustomCode == snap.CustomCode {
		in.USDToCustom = snap.Rates.USDToCustom
	}
	p := earnings.Calculate(in)
	lines := earnings.Format(p, s.opts.LocalSymbol, snap.CustomCode, snap.CustomSymbol)

	s.mu.Lock()
	s.lastBad = ""
	s.board.apply(lines, s.now())
	s.mu.Unlock()
	return p, nil
}

// RefreshRates fetches the Pi price, the local rate and, when a custom code
// is set, the custom rate concurrently, then applies them as one result.
func (s *Service) RefreshRates(ctx context.Context) models.ExchangeRates {
	gen := s.store.Begin(state.KindRates)
	code := s.store.CustomCode()

	rates := models.ExchangeRates{
		LocalCode:  s.opts.LocalCurrency,
		CustomCode: code,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rates.PiUSD = s.feed.Fetch(gctx, feed.Pair{Base: s.opts.PiCoinID, Quote: "usd"})
		return nil
	})
	g.Go(func() error {
		rates.USDToLocal = s.feed.Fetch(gctx, feed.Pair{Base: "usd", Quote: s.opts.LocalCurrency})
		return nil
	})
	if code != "" {
		g.Go(func() error {
			rates.USDToCustom = s.feed.Fetch(gctx, feed.Pair{Base: "usd", Quote: code})
			return nil
		})
	}
	_ = g.Wait()
	rates.FetchedAt = s.now()

	s.deliver(ctx, func() {
		if !s.store.ApplyRates(state.RatesResult{Generation: gen, Rates: rates}) {
			s.logger.Debug("stale rates discarded", zap.Uint64("generation", gen))
			return
		}
		s.logger.Info("rates updated",
			zap.Float64("pi_usd", rates.PiUSD),
			zap.Float64("usd_"+rates.LocalCode, rates.USDToLocal),
			zap.String("custom", code),
			zap.Float64("usd_custom", rates.USDToCustom))
	})
	return rates
}

func (s *Service) RefreshLockedBalance(ctx context.Context) models.LockedBalance {
	gen := s.store.Begin(state.KindLocked)
	locked := models.LockedBalance{Amount: s.feed.LockedBalance(ctx), FetchedAt: s.now()}

	s.deliver(ctx, func() {
		if !s.store.ApplyLocked(state.LockedResult{Generation: gen, Locked: locked}) {
			s.logger.Debug("stale locked balance discarded", zap.Uint64("generation", gen))
			return
		}
		s.mu.Lock()
		s.board.Locked = lockedLine(locked.Amount)
		s.mu.Unlock()
	})
	return locked
}

// ManualUpdate starts a rates refresh and recomputes straight away with the
// rates currently held.
func (s *Service) ManualUpdate(ctx context.Context) (models.Projection, error) {
	if err := s.loop.Trigger(TaskRates); err != nil {
		go s.RefreshRates(context.WithoutCancel(ctx))
	}
	return s.Recompute()
}

// RecordPrice fetches the current Pi price, appends it to the history, saves
// the history and redraws the chart. A failed fetch records a zero sample.
// Nothing is recorded when ctx ends during the fetch.
func (s *Service) RecordPrice(ctx context.Context) (models.PriceSample, error) {
	price := s.feed.Fetch(ctx, feed.Pair{Base: s.opts.PiCoinID, Quote: "usd"})
	if err := ctx.Err(); err != nil {
		s.logger.Debug("price refresh abandoned", zap.Error(err))
		return models.PriceSample{}, errors.Wrap(err, "fetch pi price")
	}

	// past the fetch the sample is kept even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	// stamped on append so history order is time order
	var sample models.PriceSample
	s.deliver(ctx, func() {
		sample = models.NewPriceSample(s.now(), price)
		s.store.AppendPrice(sample)
		s.mu.Lock()
		s.board.CurrentPrice = currentPriceLine(price)
		s.mu.Unlock()
		s.redraw(s.store.History())
	})

	if err := s.saveHistory(ctx); err != nil {
		return sample, err
	}
	return sample, nil
}

// saveHistory writes the whole current history. Saves are serialised so an
// older snapshot never lands after a newer one.
func (s *Service) saveHistory(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.history.Save(ctx, s.store.History()); err != nil {
		s.logger.Error("error saving history", zap.Error(err))
		return errors.Wrap(err, "save price history")
	}
	return nil
}

func (s *Service) Board() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

func (s *Service) Chart() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chart
}

func (s *Service) History() []models.PriceSample {
	return s.store.History()
}

func (s *Service) Summary() chart.Summary {
	return chart.Summarize(s.store.History(), s.opts.Chart.SMAPeriod)
}

func (s *Service) Rates() models.ExchangeRates {
	return s.store.Snapshot().Rates
}

// Locked returns the last locked balance, or nil before the first fetch.
func (s *Service) Locked() *models.LockedBalance {
	return s.store.Snapshot().Locked
}

// Earnings returns the calculator inputs as they stand. HourlyRate is zero
// when the current input does not parse.
func (s *Service) Earnings() models.EarningsState {
	snap := s.store.Snapshot()
	rate, _ := earnings.ParseHourlyRate(snap.HourlyInput)
	return models.EarningsState{
		HourlyRate: rate,
		StartTime:  snap.StartTime,
		PiPrice:    snap.Rates.PiUSD,
	}
}

// deliver runs fn on the loop goroutine when the loop is up, inline otherwise.
func (s *Service) deliver(ctx context.Context, fn func()) {
	err := s.loop.Do(ctx, fn)
	if errors.Is(err, scheduler.ErrNotRunning) {
		fn()
	} else if err != nil {
		s.logger.Warn("result delivery abandoned", zap.Error(err))
	}
}

func (s *Service) redraw(samples []models.PriceSample) {
	out := s.renderer.Render(samples)
	s.mu.Lock()
	s.chart = out
	s.mu.Unlock()
}

func (s *Service) tick(context.Context) {
	_, _ = s.Recompute()
}

func (s *Service) refreshRatesTask(ctx context.Context) {
	s.RefreshRates(ctx)
}

func (s *Service) refreshLockedTask(ctx context.Context) {
	s.RefreshLockedBalance(ctx)
}
