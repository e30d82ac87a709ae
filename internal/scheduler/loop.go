// Package scheduler runs a fixed list of periodic tasks on a single event
// loop goroutine. Work that must touch loop-owned state from elsewhere is
// handed over with Post.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrNotRunning  = errors.New("loop not running")
)

// Task is one periodic job. Inline tasks run on the loop goroutine; Async
// tasks run on their own goroutine and must deliver results through Post.
type Task struct {
	Name       string
	Interval   time.Duration
	Async      bool
	RunOnStart bool
	Run        func(ctx context.Context)
}

type Loop struct {
	tasks  []Task
	logger *zap.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
	posts    chan func()
	triggers chan int

	workers sync.WaitGroup
}

func New(tasks []Task, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	for i := range tasks {
		if tasks[i].Interval <= 0 {
			tasks[i].Interval = time.Hour
		}
	}
	return &Loop{tasks: tasks, logger: logger.Named("scheduler")}
}

// Start launches the loop. The loop stops when ctx is cancelled or Stop is
// called; in-flight async tasks see their context cancelled either way.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Warn("already running")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	l.posts = make(chan func(), 64)
	l.triggers = make(chan int, len(l.tasks))
	stopCh, done := l.stopCh, l.done
	l.mu.Unlock()

	go l.run(ctx, stopCh, done)

	for _, t := range l.tasks {
		l.logger.Info("task scheduled",
			zap.String("task", t.Name),
			zap.Duration("every", t.Interval),
			zap.Bool("async", t.Async))
	}
}

// Stop ends the loop and waits for it and any async tasks to return.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	l.cancel()
	done := l.done
	l.mu.Unlock()

	<-done
	l.workers.Wait()
	l.logger.Info("stopped")
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Post queues fn to run on the loop goroutine. It returns false when the loop
// is not running, in which case fn is never called.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return false
	}
	posts, stopCh := l.posts, l.stopCh
	l.mu.Unlock()

	select {
	case posts <- fn:
		return true
	case <-stopCh:
		return false
	}
}

// Trigger runs the named task now, outside its period. Its next periodic run
// is not moved.
func (l *Loop) Trigger(name string) error {
	idx := -1
	for i, t := range l.tasks {
		if t.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrap(ErrUnknownTask, name)
	}

	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return errors.Wrapf(ErrNotRunning, "trigger %s", name)
	}
	triggers, stopCh := l.triggers, l.stopCh
	l.mu.Unlock()

	select {
	case triggers <- idx:
		return nil
	case <-stopCh:
		return errors.Wrapf(ErrNotRunning, "trigger %s", name)
	}
}

// Do runs fn on the loop goroutine and waits for it to return. It returns
// ErrNotRunning when fn was not (and will not be) run. When ctx ends first
// fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return ErrNotRunning
	}
	posts, stopCh, done := l.posts, l.stopCh, l.done
	l.mu.Unlock()

	finished := make(chan struct{})
	select {
	case posts <- func() { fn(); close(finished) }:
	case <-stopCh:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-done:
		select {
		case <-finished:
			return nil
		default:
			return ErrNotRunning
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	now := time.Now()
	next := make([]time.Time, len(l.tasks))
	for i, t := range l.tasks {
		if t.RunOnStart {
			l.dispatch(ctx, i)
		}
		next[i] = now.Add(t.Interval)
	}

	timer := time.NewTimer(time.Until(earliest(next)))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case fn := <-l.posts:
			fn()
		case idx := <-l.triggers:
			l.logger.Debug("task triggered", zap.String("task", l.tasks[idx].Name))
			l.dispatch(ctx, idx)
		case fired := <-timer.C:
			for i, t := range l.tasks {
				if fired.Before(next[i]) {
					continue
				}
				l.dispatch(ctx, i)
				next[i] = next[i].Add(t.Interval)
				// fell behind: skip the missed periods
				if !next[i].After(fired) {
					next[i] = fired.Add(t.Interval)
				}
			}
			timer.Reset(time.Until(earliest(next)))
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, idx int) {
	t := l.tasks[idx]
	if t.Run == nil {
		return
	}
	if !t.Async {
		t.Run(ctx)
		return
	}
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		t.Run(ctx)
	}()
}

func earliest(ts []time.Time) time.Time {
	if len(ts) == 0 {
		return time.Now().Add(24 * time.Hour)
	}
	first := ts[0]
	for _, t := range ts[1:] {
		if t.Before(first) {
			first = t
		}
	}
	return first
}
