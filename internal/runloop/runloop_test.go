// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runloop

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newLoop(t *testing.T, depth int) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(depth, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() { l.Run(ctx) })
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return l, cancel
}

func TestOrder(t *testing.T) {
	l, _ := newLoop(t, 16)
	ctx := context.Background()

	var got []int
	for i := range 10 {
		err := l.Do(ctx, func() { got = append(got, i) })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if !cmp.Equal(want, got) {
		t.Errorf("unexpected order:\n--- want:\n+++ got:\n%s", cmp.Diff(want, got))
	}
}

func TestPostFull(t *testing.T) {
	// The loop is not running, so nothing is drained.
	l := New(1, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if !l.Post(func() {}) {
		t.Error("unexpected failure to post to empty queue")
	}
	if l.Post(func() {}) {
		t.Error("unexpected success posting to full queue")
	}
}

func TestOnLoop(t *testing.T) {
	l, _ := newLoop(t, 1)
	if l.OnLoop() {
		t.Error("unexpected on loop from test goroutine")
	}
	var on, nested bool
	err := l.Do(context.Background(), func() {
		on = l.OnLoop()
		// A nested Do must not deadlock.
		l.Do(context.Background(), func() { nested = true })
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !on {
		t.Error("expected posted function to be on loop")
	}
	if !nested {
		t.Error("nested Do not run")
	}
}

func TestPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	l := New(4, slog.New(slog.NewTextHandler(&buf, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	err := l.Do(ctx, func() { panic("bad frame") })
	if err != nil {
		t.Fatalf("unexpected error from panicking function: %v", err)
	}
	var ran bool
	err = l.Do(ctx, func() { ran = true })
	if err != nil {
		t.Fatalf("unexpected error after panic: %v", err)
	}
	if !ran {
		t.Error("loop did not survive panic")
	}
	cancel()
	<-l.Done()
	if !bytes.Contains(buf.Bytes(), []byte("bad frame")) {
		t.Errorf("panic not logged: %s", &buf)
	}
}

func TestClosed(t *testing.T) {
	l, cancel := newLoop(t, 1)
	cancel()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	if l.Post(func() {}) {
		t.Error("unexpected success posting to stopped loop")
	}
	err := l.Do(context.Background(), func() {})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrClosed)
	}
	err = l.Run(context.Background())
	if err == nil {
		t.Error("expected error restarting loop")
	}
}
