// Package feed is the fetch boundary between the remote price APIs and the
// rest of the tracker. Nothing past this point sees a transport or decode
// error: failures are reported to the user and degrade to zero.
package feed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Pair identifies a quote: the price of Base expressed in Quote.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string {
	return strings.ToUpper(p.Base) + "/" + strings.ToUpper(p.Quote)
}

type PriceSource interface {
	SimplePrice(ctx context.Context, id, vs string) (float64, error)
}

type LockedSource interface {
	LockedBalance(ctx context.Context) (float64, error)
}

// Notifier shows an error to the user.
type Notifier interface {
	Alert(title, msg string)
}

type Fetcher struct {
	prices PriceSource
	locked LockedSource
	notify Notifier
	logger *zap.Logger
}

func NewFetcher(prices PriceSource, locked LockedSource, notify Notifier, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{prices: prices, locked: locked, notify: notify, logger: logger}
}

// Fetch returns the quote for pair, or zero after alerting the user when the
// request or the response is bad. A zero return is indistinguishable from a
// genuine zero quote.
func (f *Fetcher) Fetch(ctx context.Context, pair Pair) float64 {
	base := strings.ToLower(strings.TrimSpace(pair.Base))
	quote := strings.ToLower(strings.TrimSpace(pair.Quote))

	price, err := f.prices.SimplePrice(ctx, base, quote)
	if err != nil {
		if ctx.Err() != nil {
			// shutting down, nobody to tell
			f.logger.Debug("price fetch cancelled", zap.Stringer("pair", pair))
			return 0
		}
		f.logger.Warn("price fetch failed", zap.Stringer("pair", pair), zap.Error(err))
		if f.notify != nil {
			f.notify.Alert("Error", fmt.Sprintf("Error fetching %s rate: %v", pair, err))
		}
		return 0
	}
	f.logger.Debug("price fetched", zap.Stringer("pair", pair), zap.Float64("price", price))
	return price
}

// LockedBalance returns the locked Pi balance or zero. Failures are logged
// only, never shown to the user.
func (f *Fetcher) LockedBalance(ctx context.Context) float64 {
	if f.locked == nil {
		return 0
	}
	amount, err := f.locked.LockedBalance(ctx)
	if err != nil {
		f.logger.Warn("locked balance fetch failed", zap.Error(err))
		return 0
	}
	return amount
}
