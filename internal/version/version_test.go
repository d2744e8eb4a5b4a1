// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"runtime/debug"
	"testing"
)

var stringTests = []struct {
	name     string
	settings []debug.BuildSetting
	want     string
}{
	{
		name: "no_vcs",
		want: "v1.0.0",
	},
	{
		name: "clean",
		settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: "false"},
		},
		want: "v1.0.0 abc123",
	},
	{
		name: "modified",
		settings: []debug.BuildSetting{
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.revision", Value: "abc123"},
		},
		want: "v1.0.0 abc123 (modified)",
	},
	{
		name: "unknown_modified",
		settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: "maybe"},
		},
		want: "v1.0.0 abc123 maybe",
	},
}

func TestString(t *testing.T) {
	for _, test := range stringTests {
		t.Run(test.name, func(t *testing.T) {
			bi := &debug.BuildInfo{Main: debug.Module{Version: "v1.0.0"}, Settings: test.settings}
			got := String(bi)
			if got != test.want {
				t.Errorf("unexpected version: got:%q want:%q", got, test.want)
			}
		})
	}
}
