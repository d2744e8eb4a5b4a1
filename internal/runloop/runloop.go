// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runloop provides a single goroutine work loop that owns a
// presentation surface and its state.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/kortschak/goroutine"
)

// ErrClosed is returned when work is submitted to a loop that has
// stopped running.
var ErrClosed = errors.New("run loop closed")

// Loop runs posted functions sequentially on a single goroutine.
type Loop struct {
	log   *slog.Logger
	queue chan func()

	// goid is the goroutine id of the running loop
	// or zero if the loop is not running.
	goid atomic.Int64

	done chan struct{}
}

// New returns a new Loop with a queue of the given depth. A depth less
// than one is treated as one.
func New(depth int, log *slog.Logger) *Loop {
	return &Loop{
		log:   log,
		queue: make(chan func(), max(depth, 1)),
		done:  make(chan struct{}),
	}
}

// Run runs posted functions until ctx is cancelled. Functions remaining in
// the queue when ctx is cancelled are discarded. Run must only be called
// once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.goid.CompareAndSwap(0, goroutine.ID()) {
		return errors.New("run loop already running")
	}
	defer func() {
		l.goid.Store(-1)
		close(l.done)
	}()
	l.log.LogAttrs(ctx, slog.LevelDebug, "start")
	for {
		select {
		case <-ctx.Done():
			l.log.LogAttrs(ctx, slog.LevelDebug, "stop", slog.Int("discarded", len(l.queue)))
			return ctx.Err()
		case fn := <-l.queue:
			l.run(ctx, fn)
		}
	}
}

func (l *Loop) run(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.LogAttrs(ctx, slog.LevelError, "panic in posted function",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

// Post queues fn to be run on the loop. It never blocks and reports whether
// fn was queued. Post returns false if the queue is full or the loop has
// stopped. A function queued as the loop stops is discarded.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	default:
		return false
	}
}

// Do runs fn on the loop and waits for it to complete. If Do is called
// from the loop, fn is run immediately.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if l.OnLoop() {
		fn()
		return nil
	}
	done := make(chan struct{})
	select {
	case l.queue <- func() {
		defer close(done)
		fn()
	}:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
	return l.wait(ctx, done)
}

func (l *Loop) wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-done:
			return nil
		default:
			return fmt.Errorf("%w before work completed", ErrClosed)
		}
	}
}

// OnLoop returns whether the caller is running on the loop's goroutine.
func (l *Loop) OnLoop() bool {
	id := l.goid.Load()
	return id > 0 && id == goroutine.ID()
}

// Done returns a channel that is closed when the loop stops running.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
