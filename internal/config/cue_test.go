// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var uniqueTests = []struct {
	name  string
	paths [][]string
	want  [][]string
}{
	{
		name: "nil",
	},
	{
		name:  "nil_elements",
		paths: [][]string{nil, {"a"}, nil},
		want:  [][]string{{"a"}},
	},
	{
		name:  "repeated",
		paths: [][]string{{"preview", "width"}, {"log_level"}, {"preview", "width"}, {"preview"}},
		want:  [][]string{{"log_level"}, {"preview"}, {"preview", "width"}},
	},
	{
		name:  "prefix_order",
		paths: [][]string{{"thumbnail", "width"}, {"thumbnail"}, {"preview", "queue"}},
		want:  [][]string{{"preview", "queue"}, {"thumbnail"}, {"thumbnail", "width"}},
	},
}

func TestUnique(t *testing.T) {
	for _, test := range uniqueTests {
		t.Run(test.name, func(t *testing.T) {
			got := unique(test.paths)
			if !cmp.Equal(test.want, got) {
				t.Errorf("unexpected paths:\n--- want:\n+++ got:\n%s", cmp.Diff(test.want, got))
			}
		})
	}
}

func TestValidateSchema(t *testing.T) {
	_, err := NewValidator(`{width: `)
	if err == nil {
		t.Error("expected error for invalid schema")
	}
	v, err := NewValidator(Schema)
	if err != nil {
		t.Fatalf("unexpected error compiling schema: %v", err)
	}
	paths, err := v.Validate(Default())
	if err != nil {
		t.Errorf("unexpected error validating default: %v", err)
	}
	if paths != nil {
		t.Errorf("unexpected paths for default: %v", paths)
	}
}

var limitsTests = []struct {
	name    string
	edit    func(*Config)
	wantErr bool
}{
	{name: "max_extent", edit: func(c *Config) { c.Preview.Width = MaxExtent }},
	{name: "over_extent", edit: func(c *Config) { c.Thumbnail.Height = MaxExtent + 1 }, wantErr: true},
	{name: "max_scale", edit: func(c *Config) { c.Preview.DeviceScale = MaxScale }},
	{name: "over_scale", edit: func(c *Config) { c.Thumbnail.DeviceScale = MaxScale + 0.5 }, wantErr: true},
}

func TestLimits(t *testing.T) {
	v, err := NewValidator(Schema)
	if err != nil {
		t.Fatalf("unexpected error compiling schema: %v", err)
	}
	for _, test := range limitsTests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.edit(cfg)
			_, err := v.Validate(cfg)
			if (err != nil) != test.wantErr {
				t.Errorf("unexpected error: got:%v want error:%t", err, test.wantErr)
			}
		})
	}
}
