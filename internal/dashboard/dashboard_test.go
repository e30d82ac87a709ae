package dashboard

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kjannette/pi-tracker/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct{}

func (staticSource) Board() tracker.Board {
	return tracker.Board{
		Daily:        "Daily Earnings: 48.000000 Pi",
		Total:        "Total Earnings: 60.00 ₺",
		Custom:       "Total Earnings in Custom Currency: N/A",
		Locked:       "Locked Pi: 12.5 Pi",
		CurrentPrice: "Current Pi Coin Price: $0.500000",
	}
}

func (staticSource) Chart() string { return "Pi Coin Price Chart\n●\n" }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRender(t *testing.T) {
	d := New(staticSource{}, nil, 0, zap.NewNop())
	out := d.Render()
	for _, want := range []string{
		"Daily Earnings: 48.000000 Pi",
		"Total Earnings: 60.00 ₺",
		"Locked Pi: 12.5 Pi",
		"Current Pi Coin Price: $0.500000",
		"Pi Coin Price Chart",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRun_RedrawsUntilCancelled(t *testing.T) {
	var buf syncBuffer
	d := New(staticSource{}, &buf, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Count(buf.String(), clearScreen) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
