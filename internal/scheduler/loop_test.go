package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kjannette/pi-tracker/internal/scheduler"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoop_RunOnStartAndPeriodic(t *testing.T) {
	var fast, slow atomic.Int32
	loop := scheduler.New([]scheduler.Task{
		{Name: "fast", Interval: 20 * time.Millisecond, Run: func(context.Context) { fast.Add(1) }},
		{Name: "slow", Interval: time.Hour, RunOnStart: true, Async: true, Run: func(context.Context) { slow.Add(1) }},
	}, zap.NewNop())

	loop.Start(context.Background())
	defer loop.Stop()

	require.Eventually(t, func() bool { return fast.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return slow.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), slow.Load(), "hourly task runs once at start only")
}

func TestLoop_PostRunsOnLoopGoroutine(t *testing.T) {
	// inline task and posted functions share one goroutine, so this
	// unguarded counter is never touched concurrently
	counter := 0
	loop := scheduler.New([]scheduler.Task{
		{Name: "tick", Interval: time.Millisecond, Run: func(context.Context) { counter++ }},
	}, zap.NewNop())
	loop.Start(context.Background())
	defer loop.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Post(func() { counter++ })
		}()
	}
	wg.Wait()

	got := make(chan int)
	require.True(t, loop.Post(func() { got <- counter }))
	select {
	case n := <-got:
		assert.GreaterOrEqual(t, n, 50)
	case <-time.After(2 * time.Second):
		t.Fatal("posted function never ran")
	}
}

func TestLoop_Trigger(t *testing.T) {
	ran := make(chan struct{}, 1)
	loop := scheduler.New([]scheduler.Task{
		{Name: "rates", Interval: time.Hour, Async: true, Run: func(context.Context) { ran <- struct{}{} }},
	}, zap.NewNop())
	loop.Start(context.Background())
	defer loop.Stop()

	require.NoError(t, loop.Trigger("rates"))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered task never ran")
	}

	err := loop.Trigger("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, scheduler.ErrUnknownTask))
}

func TestLoop_StopCancelsAsyncAndRejectsPost(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	loop := scheduler.New([]scheduler.Task{
		{Name: "slow", Interval: time.Hour, Async: true, RunOnStart: true, Run: func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
		}},
	}, zap.NewNop())

	loop.Start(context.Background())
	assert.True(t, loop.Running())
	<-started

	loop.Stop()
	assert.False(t, loop.Running())
	assert.True(t, cancelled.Load(), "Stop waits for async tasks after cancelling them")
	assert.False(t, loop.Post(func() { t.Error("posted after stop") }))
	assert.Error(t, loop.Trigger("slow"))

	// idempotent
	loop.Stop()
}

func TestLoop_PostBeforeStart(t *testing.T) {
	loop := scheduler.New(nil, zap.NewNop())
	assert.False(t, loop.Post(func() {}))
}

func TestLoop_Do(t *testing.T) {
	loop := scheduler.New(nil, zap.NewNop())
	err := loop.Do(context.Background(), func() { t.Error("ran while stopped") })
	assert.True(t, errors.Is(err, scheduler.ErrNotRunning))

	loop.Start(context.Background())
	defer loop.Stop()

	ran := false
	require.NoError(t, loop.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}
