// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch provides notification of semantic changes to a file.
package watch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileDebounce is the default duration we wait for the contents to have
// stabilised to work around some editors writing an empty file and then the
// buffer.
const FileDebounce = 10 * time.Millisecond

// Sum is a SHA-1 sum of file contents.
type Sum [sha1.Size]byte

func (s Sum) String() string {
	return hex.EncodeToString(s[:])
}

// Change is a change to a watched file.
type Change struct {
	Event []fsnotify.Event
	// Sum is the sum of the new file contents.
	Sum Sum
	// Removed indicates the file no longer exists.
	Removed bool
	Err     error
}

// Op returns an aggregated fsnotify.Op for all elements of the receivers'
// Event field.
func (c Change) Op() fsnotify.Op {
	var op fsnotify.Op
	for _, e := range c.Event {
		op |= e.Op
	}
	return op
}

// Watcher watches a single file and reports changes to its contents.
// Writes that do not alter the contents are not reported.
type Watcher struct {
	path     string
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	changes  chan<- Change
	sum      Sum
	cancel   context.CancelFunc
	done     chan struct{}
	log      *slog.Logger
}

// New starts a Watcher for the file at path, sending changes on the changes
// channel. The file's directory is watched so that files replaced by
// rename are followed. The debounce parameter specifies how long to wait
// after an fsnotify.Event before reading the file. If it is less than zero,
// FileDebounce is used.
func New(ctx context.Context, path string, changes chan<- Change, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce < 0 {
		debounce = FileDebounce
	}
	w := &Watcher{
		path:     path,
		dir:      filepath.Dir(path),
		debounce: debounce,
		changes:  changes,
		done:     make(chan struct{}),
		log:      log.With(slog.String("component", "watch"), slog.String("path", path)),
	}
	w.sum, err = sum(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = w.watcher.Add(w.dir)
	if err != nil {
		w.watcher.Close()
		return nil, err
	}
	ctx, w.cancel = context.WithCancel(ctx)
	go func() {
		defer close(w.done)
		w.process(ctx)
	}()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return w.watcher.Close()
}

func (w *Watcher) process(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write | fsnotify.Create):
				w.log.LogAttrs(ctx, slog.LevelDebug, "write", slog.String("op", ev.Op.String()))
				time.Sleep(w.debounce)
				s, err := sum(w.path)
				if err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						// Removed during debounce. The
						// remove event will follow.
						continue
					}
					w.log.LogAttrs(ctx, slog.LevelError, "read file", slog.Any("error", err))
					w.send(ctx, Change{Event: []fsnotify.Event{ev}, Err: err})
					continue
				}
				if s == w.sum {
					w.log.LogAttrs(ctx, slog.LevelDebug, "no change", slog.String("sum", s.String()))
					continue
				}
				w.log.LogAttrs(ctx, slog.LevelDebug, "set sum", slog.String("sum", s.String()), slog.String("previous", w.sum.String()))
				w.sum = s
				w.send(ctx, Change{Event: []fsnotify.Event{ev}, Sum: s})

			// Renames over the file are seen as a create, so
			// the old sum is kept to filter out unchanged
			// replacements.
			case ev.Has(fsnotify.Remove | fsnotify.Rename):
				w.log.LogAttrs(ctx, slog.LevelDebug, "remove", slog.String("op", ev.Op.String()))
				w.send(ctx, Change{Event: []fsnotify.Event{ev}, Sum: w.sum, Removed: true})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(ctx, Change{Err: err})
		}
	}
}

func (w *Watcher) send(ctx context.Context, c Change) {
	select {
	case w.changes <- c:
	case <-ctx.Done():
	}
}

func sum(path string) (Sum, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Sum{}, err
	}
	return sha1.Sum(b), nil
}
