// Package loop provides the single-goroutine scheduler the client components
// run on. Component state is only ever touched from inside a posted
// function, so none of it needs locking.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler is what components need from an event loop
type Scheduler interface {
	// Post queues fn to run on the loop
	Post(fn func())

	// AfterFunc runs fn on the loop once d has elapsed, unless stopped first
	AfterFunc(d time.Duration, fn func()) Timer

	// Go runs task off the loop and posts the continuation it returns.
	// A nil continuation is skipped.
	Go(task func() func())
}

// Timer is a pending AfterFunc call
type Timer interface {
	// Stop prevents the call from running. It returns false when the call
	// already ran or was already stopped.
	Stop() bool
}

// Loop is the production Scheduler backed by a goroutine and an unbounded
// FIFO queue
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	wg      sync.WaitGroup
}

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Run executes posted functions until ctx is cancelled, then waits for
// in-flight Go tasks to finish.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return
		case <-l.wake:
			l.drain(ctx)
		}
	}
}

// drain runs queued work, including work queued while draining
func (l *Loop) drain(ctx context.Context) {
	for ctx.Err() == nil {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for i, fn := range batch {
			if ctx.Err() != nil {
				l.requeue(batch[i:])
				return
			}
			l.invoke(fn)
		}
	}
}

func (l *Loop) requeue(rest []func()) {
	l.mu.Lock()
	l.pending = append(rest, l.pending...)
	l.mu.Unlock()
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered panic on client event loop")
		}
	}()
	fn()
}

// Post queues fn. It never blocks, so it is safe to call from the loop
// itself as well as from other goroutines.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc schedules fn on the loop after d
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// a Stop that raced with the timer firing still wins
			if t.fire() {
				fn()
			}
		})
	})
	return t
}

// Go runs task on its own goroutine
func (l *Loop) Go(task func() func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if next := task(); next != nil {
			l.Post(next)
		}
	}()
}

type loopTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

func (t *loopTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.timer.Stop()
	return true
}
