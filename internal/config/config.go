// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides the previewer configuration, its schema and
// loading from TOML files.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/kortschak/lottieview/internal/lottie"
)

// Config is a complete previewer configuration.
type Config struct {
	LogLevel  string `json:"log_level,omitempty" toml:"log_level"`
	AddSource bool   `json:"log_add_source" toml:"log_add_source"`

	Thumbnail Thumbnail `json:"thumbnail" toml:"thumbnail"`
	Preview   Preview   `json:"preview" toml:"preview"`
}

// Thumbnail is the thumbnail provider configuration.
type Thumbnail struct {
	// Width and Height are the maximum thumbnail
	// size in points.
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`

	DeviceScale float64 `json:"device_scale" toml:"device_scale"`

	// Background is the web colour drawn behind
	// the first frame.
	Background string `json:"background" toml:"background"`
}

// Size returns the maximum thumbnail size.
func (t Thumbnail) Size() lottie.Size {
	return lottie.Size{Width: t.Width, Height: t.Height}
}

// BackgroundColor returns the parsed background colour.
func (t Thumbnail) BackgroundColor() (color.Color, error) {
	c, err := colorful.Hex(t.Background)
	if err != nil {
		return nil, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Preview is the live preview configuration.
type Preview struct {
	// Width and Height are the size of the
	// preview box in points.
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`

	DeviceScale float64 `json:"device_scale" toml:"device_scale"`

	// RefreshRate is the display refresh rate
	// in Hz.
	RefreshRate float64 `json:"refresh_rate" toml:"refresh_rate"`

	// Queue is the depth of the presentation
	// loop's work queue.
	Queue int `json:"queue" toml:"queue"`
}

// Box returns the preview box size.
func (p Preview) Box() lottie.Size {
	return lottie.Size{Width: p.Width, Height: p.Height}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Thumbnail: Thumbnail{
			Width:       256,
			Height:      256,
			DeviceScale: 1,
			Background:  "#ffffff",
		},
		Preview: Preview{
			Width:       800,
			Height:      600,
			DeviceScale: 2,
			RefreshRate: 60,
			Queue:       4,
		},
	}
}

// Level returns the configured log level. An empty level is info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return l, nil
	}
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("log_level", c.LogLevel),
		slog.Bool("log_add_source", c.AddSource),
		slog.Group("thumbnail",
			slog.String("size", c.Thumbnail.Size().String()),
			slog.Float64("device_scale", c.Thumbnail.DeviceScale),
			slog.String("background", c.Thumbnail.Background),
		),
		slog.Group("preview",
			slog.String("box", c.Preview.Box().String()),
			slog.Float64("device_scale", c.Preview.DeviceScale),
			slog.Float64("refresh_rate", c.Preview.RefreshRate),
			slog.Int("queue", c.Preview.Queue),
		),
	)
}

// Load reads the TOML configuration at path over the default configuration
// and validates the result against Schema. If path does not exist, the
// default configuration is returned. On validation failure, the invalid
// field paths are returned with the error.
func Load(path string) (cfg *Config, paths [][]string, err error) {
	cfg = Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil, nil
		}
		return nil, nil, err
	}
	return Decode(b, cfg)
}

// Decode decodes the TOML data in b into cfg and validates the result.
func Decode(b []byte, cfg *Config) (_ *Config, paths [][]string, err error) {
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
			paths = append(paths, []string(k))
		}
		return nil, paths, fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	v, err := defaultValidator()
	if err != nil {
		return nil, nil, err
	}
	paths, err = v.Validate(cfg)
	if err != nil {
		return nil, paths, err
	}
	return cfg, nil, nil
}

// Limits on sizes and scales. They match the bounds in Schema.
const (
	MaxExtent = 16384
	MaxScale  = 8
)

// Schema is the CUE schema for a valid configuration.
const Schema = `
{
	log_level?:      _#log_level
	log_add_source?: bool
	thumbnail:       _#thumbnail
	preview:         _#preview
}

_#thumbnail: {
	width:        _#extent
	height:       _#extent
	device_scale: _#scale
	background:   _#web_color
}

_#preview: {
	width:        _#extent
	height:       _#extent
	device_scale: _#scale
	refresh_rate: number & >0 & <=1000
	queue:        int & >=1 & <=64
}

_#extent:    number & >0 & <=16384
_#scale:     number & >0 & <=8
_#web_color: =~"^#[0-9a-fA-F]{6}$"
_#log_level: =~"(?i)^(?:debug|info|warn|error)$"
`
