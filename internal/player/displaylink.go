// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package player

import (
	"context"
	"sync"
	"time"
)

// TimingSource is a periodic source of ticks.
type TimingSource interface {
	// Start starts calling fn with the time of each tick on
	// a goroutine owned by the source. Start on a running
	// source is a no-op.
	Start(fn func(now time.Time))
	// Stop stops the source. No call to fn is made after
	// Stop returns.
	Stop()
}

// DefaultRefreshRate is the display refresh rate used when none is given.
const DefaultRefreshRate = 60

// DisplayLink is a TimingSource ticking at a display refresh rate.
type DisplayLink struct {
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDisplayLink returns a DisplayLink ticking at hz times per second. If hz
// is not positive, DefaultRefreshRate is used.
func NewDisplayLink(hz float64) *DisplayLink {
	if !(hz > 0) {
		hz = DefaultRefreshRate
	}
	return &DisplayLink{period: max(time.Duration(float64(time.Second)/hz), time.Millisecond)}
}

// Period returns the interval between ticks.
func (d *DisplayLink) Period() time.Duration { return d.period }

// Start implements TimingSource.
func (d *DisplayLink) Start(fn func(now time.Time)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.cancel, d.done = cancel, done
	go func() {
		defer close(done)
		ticker := time.NewTicker(d.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(now)
			}
		}
	}()
}

// Stop implements TimingSource. It waits for the ticking goroutine
// to exit.
func (d *DisplayLink) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel, d.done = nil, nil
}
