// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"

	"github.com/kortschak/lottieview/internal/lottie"
	"github.com/kortschak/lottieview/internal/render"
)

// steps is a Frames that fills frame n with the nth colour.
type steps struct {
	colors   []color.RGBA
	duration time.Duration
	fail     int
}

func (s steps) FrameCount() int              { return len(s.colors) }
func (s steps) FrameDuration() time.Duration { return s.duration }

func (s steps) Render(frame int, dst *lottie.Target, content image.Rectangle) error {
	if frame == s.fail {
		return errors.New("engine failure")
	}
	w := dst.Format.Pack(s.colors[frame])
	for y := content.Min.Y; y < content.Max.Y; y++ {
		for x := content.Min.X; x < content.Max.X; x++ {
			dst.Pix[y*dst.Stride+x] = w
		}
	}
	return nil
}

var gifDelayTests = []struct {
	name     string
	frames   int
	duration time.Duration
	want     int
}{
	{name: "24fps", frames: 24, duration: time.Second / 24, want: 100},
	{name: "30fps", frames: 90, duration: time.Second / 30, want: 300},
	{name: "60fps", frames: 7, duration: time.Second / 60, want: 12},
}

func TestGIFDelay(t *testing.T) {
	for _, test := range gifDelayTests {
		t.Run(test.name, func(t *testing.T) {
			src := steps{colors: make([]color.RGBA, test.frames), duration: test.duration, fail: -1}
			g, err := GIF(context.Background(), src, image.Pt(2, 2), nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(g.Image) != test.frames {
				t.Errorf("unexpected frame count: got:%d want:%d", len(g.Image), test.frames)
			}
			var total int
			for _, d := range g.Delay {
				total += d
			}
			if total != test.want {
				t.Errorf("unexpected total delay: got:%d want:%d", total, test.want)
			}
		})
	}
}

func TestEncodeGIF(t *testing.T) {
	src := steps{
		colors: []color.RGBA{
			{A: 0xff},
			{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
			{A: 0xff},
		},
		duration: 100 * time.Millisecond,
		fail:     -1,
	}
	var buf bytes.Buffer
	err := EncodeGIF(context.Background(), &buf, src, image.Pt(8, 4), color.Black)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding GIF: %v", err)
	}
	if len(g.Image) != len(src.colors) {
		t.Fatalf("unexpected frame count: got:%d want:%d", len(g.Image), len(src.colors))
	}
	if g.Config.Width != 8 || g.Config.Height != 4 {
		t.Errorf("unexpected size: got:%dx%d want:8x4", g.Config.Width, g.Config.Height)
	}
	for i, img := range g.Image {
		// Black and white are in the Plan 9 palette.
		r, gr, b, _ := img.At(4, 2).RGBA()
		got := color.RGBA{R: uint8(r >> 8), G: uint8(gr >> 8), B: uint8(b >> 8), A: 0xff}
		if got != src.colors[i] {
			t.Errorf("unexpected colour for frame %d: got:%v want:%v", i, got, src.colors[i])
		}
		if g.Delay[i] != 10 {
			t.Errorf("unexpected delay for frame %d: got:%d want:10", i, g.Delay[i])
		}
	}
}

func TestGIFErrors(t *testing.T) {
	src := steps{colors: make([]color.RGBA, 4), duration: time.Second, fail: 2}
	var rendered []int
	_, err := GIF(context.Background(), src, image.Pt(2, 2), nil, func(frame int) {
		rendered = append(rendered, frame)
	})
	var rerr *render.RenderError
	if !errors.As(err, &rerr) || rerr.Frame != 2 {
		t.Errorf("unexpected error: got:%v want render error for frame 2", err)
	}
	if len(rendered) != 2 {
		t.Errorf("unexpected rendered frames: got:%v want:[0 1]", rendered)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src.fail = -1
	_, err = GIF(ctx, src, image.Pt(2, 2), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error for cancelled context: got:%v want:%v", err, context.Canceled)
	}
}
