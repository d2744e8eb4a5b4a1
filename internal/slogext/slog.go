// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slogext provides slog helpers.
package slogext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/kortschak/goroutine"
)

// GoIDKey is the key used by GoID for the goroutine id.
const GoIDKey = "goid"

// GoID is a slog.Handler that adds the calling goroutine's id so that
// records from the presentation loop, timing sources and background loads
// can be distinguished.
type GoID struct {
	slog.Handler
}

func (h GoID) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.Int64(GoIDKey, goroutine.ID()))
	return h.Handler.Handle(ctx, r)
}

func (h GoID) WithAttrs(attrs []slog.Attr) slog.Handler {
	return GoID{h.Handler.WithAttrs(attrs)}
}

func (h GoID) WithGroup(name string) slog.Handler {
	return GoID{h.Handler.WithGroup(name)}
}

// Stringer implements slog.LogValuer for [fmt.Stringer].
type Stringer struct {
	fmt.Stringer
}

func (v Stringer) LogValue() slog.Value {
	if v.Stringer == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(v.String())
}

// Error implements slog.LogValuer for error trees. Errors wrapping more
// than one error are logged with their causes.
type Error struct {
	Err error
}

func (v Error) LogValue() slog.Value {
	if v.Err == nil {
		return slog.StringValue("<nil>")
	}
	var causes []error
	switch err := v.Err.(type) {
	case interface{ Unwrap() []error }:
		causes = err.Unwrap()
	default:
		return slog.StringValue(v.Err.Error())
	}
	attrs := make([]slog.Attr, 0, len(causes)+1)
	attrs = append(attrs, slog.String("msg", v.Err.Error()))
	for i, c := range causes {
		attrs = append(attrs, slog.Any(strconv.Itoa(i), Error{Err: c}))
	}
	return slog.GroupValue(attrs...)
}

// NewJSONHandler returns a slog.JSONHandler that writes to w, using the
// given options. Unlike a handler constructed directly, the inclusion of
// source positions follows opts.AddSource at the time each record is
// handled. If opts is nil, the default options are used.
func NewJSONHandler(w io.Writer, opts *HandlerOptions) *slog.JSONHandler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	addSource := opts.AddSource
	if addSource == nil {
		addSource = &atomic.Bool{}
	}
	replace := opts.ReplaceAttr
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     opts.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.SourceKey && !addSource.Load() {
				return slog.Attr{}
			}
			if replace != nil {
				return replace(groups, a)
			}
			return a
		},
	})
}

// HandlerOptions are options for NewJSONHandler. It is derived from
// [slog.HandlerOptions] with an AddSource field that may be changed
// while the handler is in use.
type HandlerOptions struct {
	// AddSource causes the handler to add the source code position
	// of the log statement as a SourceKey attribute. A nil AddSource
	// is false.
	AddSource *atomic.Bool

	// Level reports the minimum record level that will be logged.
	Level slog.Leveler

	// ReplaceAttr is called to rewrite each non-group attribute before
	// it is logged.
	ReplaceAttr func(groups []string, a slog.Attr) slog.Attr
}

// NewAtomicBool returns an atomic.Bool holding t.
func NewAtomicBool(t bool) *atomic.Bool {
	var x atomic.Bool
	x.Store(t)
	return &x
}
