// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"time"

	"golang.org/x/image/draw"

	"github.com/kortschak/lottieview/internal/render"
)

// gifTick is the unit of GIF frame delays.
const gifTick = 10 * time.Millisecond

// GIF renders every frame of src at the given pixel size over background
// and returns the frames as an infinitely looping animated GIF. Frames are
// quantised to the Plan 9 palette with Floyd-Steinberg dithering. Frame
// delays are rounded to the GIF delay unit with the rounding error carried
// to following frames so that the total duration is preserved. If fn is
// not nil it is called after each frame is rendered.
func GIF(ctx context.Context, src Frames, size image.Point, background color.Color, fn func(frame int)) (*gif.GIF, error) {
	n := src.FrameCount()
	g := &gif.GIF{
		Image:    make([]*image.Paletted, 0, n),
		Delay:    make([]int, 0, n),
		Disposal: make([]byte, 0, n),
		Config: image.Config{
			ColorModel: color.Palette(palette.Plan9),
			Width:      size.X,
			Height:     size.Y,
		},
	}
	if background == nil {
		background = color.White
	}
	bounds := image.Rectangle{Max: size}
	flat := image.NewRGBA(bounds)
	var (
		elapsed time.Duration
		ticks   int
	)
	for frame := range n {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		img, err := render.RenderFrame(src, frame, size)
		if err != nil {
			return nil, err
		}
		draw.Draw(flat, bounds, image.NewUniform(background), image.Point{}, draw.Src)
		draw.Draw(flat, bounds, img, image.Point{}, draw.Over)
		p := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(p, bounds, flat, image.Point{})

		elapsed += src.FrameDuration()
		delay := int((elapsed+gifTick/2)/gifTick) - ticks
		ticks += delay

		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
		if fn != nil {
			fn(frame)
		}
	}
	return g, nil
}

// EncodeGIF renders src as an animated GIF and writes it to w.
func EncodeGIF(ctx context.Context, w io.Writer, src Frames, size image.Point, background color.Color) error {
	g, err := GIF(ctx, src, size, background, nil)
	if err != nil {
		return err
	}
	return gif.EncodeAll(w, g)
}
