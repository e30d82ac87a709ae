package feed

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubPrices struct {
	quotes map[string]float64
	err    error
	calls  []string
}

func (s *stubPrices) SimplePrice(_ context.Context, id, vs string) (float64, error) {
	s.calls = append(s.calls, id+"/"+vs)
	if s.err != nil {
		return 0, s.err
	}
	return s.quotes[id+"/"+vs], nil
}

type stubLocked struct {
	amount float64
	err    error
}

func (s *stubLocked) LockedBalance(context.Context) (float64, error) {
	return s.amount, s.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *recordingNotifier) Alert(title, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, title+": "+msg)
}

func TestFetch_Success(t *testing.T) {
	prices := &stubPrices{quotes: map[string]float64{"pi-network/usd": 0.5}}
	notify := &recordingNotifier{}
	f := NewFetcher(prices, nil, notify, zap.NewNop())

	got := f.Fetch(context.Background(), Pair{Base: "Pi-Network", Quote: " USD"})
	assert.Equal(t, 0.5, got)
	assert.Equal(t, []string{"pi-network/usd"}, prices.calls)
	assert.Empty(t, notify.alerts)
}

func TestFetch_FailureAlertsAndReturnsZero(t *testing.T) {
	prices := &stubPrices{err: errors.New("dial tcp: timeout")}
	notify := &recordingNotifier{}
	f := NewFetcher(prices, nil, notify, zap.NewNop())

	got := f.Fetch(context.Background(), Pair{Base: "usd", Quote: "try"})
	assert.Zero(t, got)
	assert.Len(t, notify.alerts, 1)
	assert.Contains(t, notify.alerts[0], "USD/TRY")
	assert.Contains(t, notify.alerts[0], "timeout")
}

func TestLockedBalance_FailureIsSilent(t *testing.T) {
	notify := &recordingNotifier{}
	f := NewFetcher(&stubPrices{}, &stubLocked{err: errors.New("boom")}, notify, zap.NewNop())

	assert.Zero(t, f.LockedBalance(context.Background()))
	assert.Empty(t, notify.alerts)
}

func TestLockedBalance_Success(t *testing.T) {
	f := NewFetcher(&stubPrices{}, &stubLocked{amount: 42}, nil, nil)
	assert.Equal(t, 42.0, f.LockedBalance(context.Background()))
}
