// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package player provides frame scheduling for animation playback driven
// by a display timing source.
//
// A Scheduler measures elapsed time on the timing source's goroutine and
// hands each due frame to the presentation loop, which owns the playback
// state and renders the frame. At most one frame is outstanding at a time;
// ticks that become due while a frame is outstanding are dropped.
package player

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Document is the playback metadata of an animation.
type Document interface {
	FrameCount() int
	FrameDuration() time.Duration
}

// Presenter shows frames. Show is called on the presentation loop.
type Presenter interface {
	Show(frame int) error
}

// Loop is a presentation loop.
type Loop interface {
	// Post queues fn to run on the loop without blocking
	// and reports whether it was queued.
	Post(fn func()) bool
}

// State is a snapshot of playback state.
type State struct {
	Frame    int
	LastTick time.Time
	Running  bool
}

// Scheduler drives playback of a document. Except where noted, methods
// must be called on the presentation loop.
type Scheduler struct {
	loop Loop
	doc  Document
	show Presenter
	link TimingSource
	log  *slog.Logger

	// now is the clock used to start the accumulator.
	now func() time.Time

	// Playback state owned by the loop.
	frame   int
	running bool
	closed  bool
	gen     uint64
	handle  Handle

	// lastTick is the time of the last accepted tick in
	// Unix nanoseconds. It is owned by the timing source
	// while playing.
	lastTick atomic.Int64
	inFlight atomic.Bool

	accepted atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

// New returns a stopped Scheduler at frame zero.
func New(loop Loop, doc Document, show Presenter, link TimingSource, log *slog.Logger) *Scheduler {
	return &Scheduler{
		loop: loop,
		doc:  doc,
		show: show,
		link: link,
		log:  log,
		now:  time.Now,
	}
}

// Play starts playback from the current frame. Play on a playing or
// closed Scheduler is a no-op.
func (s *Scheduler) Play() {
	if s.running || s.closed {
		return
	}
	s.running = true
	s.gen++
	s.inFlight.Store(false)
	now := s.now()
	s.lastTick.Store(now.UnixNano())
	s.handle = handles.register(s)
	h, gen := s.handle, s.gen
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "play",
		slog.Int("frame", s.frame),
		slog.Uint64("handle", uint64(h)),
		slog.Duration("frame_duration", s.doc.FrameDuration()),
	)
	s.link.Start(func(now time.Time) {
		// Resolve the handle on each tick; a stopped
		// scheduler is no longer registered.
		s, ok := handles.resolve(h)
		if !ok {
			return
		}
		s.tick(gen, now)
	})
}

// tick is called on the timing source's goroutine. It must not touch
// loop-owned state.
func (s *Scheduler) tick(gen uint64, now time.Time) {
	last := time.Unix(0, s.lastTick.Load())
	if now.Sub(last) < s.doc.FrameDuration() {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		return
	}
	s.lastTick.Store(now.UnixNano())
	if !s.loop.Post(func() { s.advance(gen) }) {
		s.inFlight.Store(false)
		s.dropped.Add(1)
		return
	}
	s.accepted.Add(1)
}

// advance moves to the next frame and shows it. It is run on the loop.
func (s *Scheduler) advance(gen uint64) {
	if !s.running || s.gen != gen {
		// Queued before a Stop.
		return
	}
	defer s.inFlight.Store(false)
	s.frame = (s.frame + 1) % s.doc.FrameCount()
	s.present()
}

func (s *Scheduler) present() {
	err := s.show.Show(s.frame)
	if err != nil {
		s.failed.Add(1)
		s.log.LogAttrs(context.Background(), slog.LevelDebug, "show frame", slog.Int("frame", s.frame), slog.Any("error", err))
	}
}

// Stop stops playback, retaining the current frame. No tick is accepted
// after Stop returns and advances already queued are discarded. Stop on a
// stopped Scheduler is a no-op.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.link.Stop()
	handles.release(s.handle)
	s.running = false
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "stop",
		slog.Int("frame", s.frame),
		slog.Int64("accepted", s.accepted.Load()),
		slog.Int64("dropped", s.dropped.Load()),
	)
}

// Close stops playback. A closed Scheduler cannot be restarted.
func (s *Scheduler) Close() error {
	s.Stop()
	s.closed = true
	return nil
}

// Seek sets the current frame, wrapping into range, and shows it.
func (s *Scheduler) Seek(frame int) {
	n := s.doc.FrameCount()
	s.frame = ((frame % n) + n) % n
	s.present()
}

// State returns the current playback state.
func (s *Scheduler) State() State {
	return State{
		Frame:    s.frame,
		LastTick: time.Unix(0, s.lastTick.Load()),
		Running:  s.running,
	}
}

// Stats returns the number of accepted ticks, dropped due ticks and failed
// frames. It is safe to call from any goroutine.
func (s *Scheduler) Stats() (accepted, dropped, failed int64) {
	return s.accepted.Load(), s.dropped.Load(), s.failed.Load()
}
