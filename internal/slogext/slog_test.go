// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slogext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONHandlerAddSource(t *testing.T) {
	var buf bytes.Buffer
	addSource := NewAtomicBool(false)
	log := slog.New(GoID{NewJSONHandler(&buf, &HandlerOptions{AddSource: addSource})})

	log.Info("without")
	addSource.Store(true)
	log.Info("with")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected number of lines: got:%d want:2\n%s", len(lines), &buf)
	}
	for i, want := range []bool{false, true} {
		var m map[string]any
		err := json.Unmarshal([]byte(lines[i]), &m)
		if err != nil {
			t.Fatalf("unexpected error unmarshaling line %d: %v", i, err)
		}
		if _, ok := m["goid"]; !ok {
			t.Errorf("missing goid in line %d: %s", i, lines[i])
		}
		if _, got := m[slog.SourceKey]; got != want {
			t.Errorf("unexpected source presence in line %d: got:%t want:%t", i, got, want)
		}
	}
}

func TestJSONHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewJSONHandler(&buf, &HandlerOptions{Level: slog.LevelWarn}))
	log.Info("dropped")
	log.With(slog.String("component", "test")).WithGroup("g").Warn("kept", slog.Int("n", 1))

	var got map[string]any
	err := json.Unmarshal(buf.Bytes(), &got)
	if err != nil {
		t.Fatalf("unexpected error unmarshaling log: %v\n%s", err, &buf)
	}
	delete(got, slog.TimeKey)
	want := map[string]any{
		"level":     "WARN",
		"msg":       "kept",
		"component": "test",
		"g":         map[string]any{"n": 1.0},
	}
	if !cmp.Equal(want, got) {
		t.Errorf("unexpected log:\n--- want:\n+++ got:\n%s", cmp.Diff(want, got))
	}
}

type name string

func (n name) String() string { return string(n) }

var errKind = errors.New("kind")

var logValueTests = []struct {
	name string
	val  slog.LogValuer
	want any
}{
	{
		name: "stringer",
		val:  Stringer{Stringer: name("thing")},
		want: "thing",
	},
	{
		name: "nil_stringer",
		val:  Stringer{},
		want: "<nil>",
	},
	{
		name: "simple_error",
		val:  Error{Err: fmt.Errorf("wrapped: %w", errKind)},
		want: "wrapped: kind",
	},
	{
		name: "joined_error",
		val:  Error{Err: errors.Join(errKind, errors.New("cause"))},
		want: map[string]any{
			"msg": "kind\ncause",
			"0":   "kind",
			"1":   "cause",
		},
	},
}

func TestLogValue(t *testing.T) {
	for _, test := range logValueTests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			slog.New(slog.NewJSONHandler(&buf, nil)).Info("", slog.Any("v", test.val))
			var m map[string]any
			err := json.Unmarshal(buf.Bytes(), &m)
			if err != nil {
				t.Fatalf("unexpected error unmarshaling log: %v\n%s", err, &buf)
			}
			if !cmp.Equal(test.want, m["v"]) {
				t.Errorf("unexpected value:\n--- want:\n+++ got:\n%s", cmp.Diff(test.want, m["v"]))
			}
		})
	}
}
