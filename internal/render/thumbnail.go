// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/kortschak/lottieview/internal/lottie"
	"github.com/kortschak/lottieview/internal/text"
)

// Sized is a renderable animation with a natural size.
type Sized interface {
	Source
	FrameSize() lottie.Size
}

// Reply is a thumbnail reply.
type Reply struct {
	// ContextSize is the size of the thumbnail in
	// display points.
	ContextSize image.Point

	// Image is the first frame of the animation
	// at the requested device scale.
	Image *Image

	// Background is drawn behind the frame by Draw.
	// If nil, white is used.
	Background color.Color
}

// Thumbnail renders the first frame of src fitted within maxSize at the
// given device scale. It holds no state and may be called concurrently.
func Thumbnail(src Sized, maxSize lottie.Size, deviceScale float64) (*Reply, error) {
	frame := src.FrameSize()
	img, err := RenderFrame(src, 0, PixelSize(frame, maxSize, deviceScale))
	if err != nil {
		return nil, err
	}
	return &Reply{
		ContextSize: PointSize(frame, maxSize),
		Image:       img,
		Background:  color.White,
	}, nil
}

// Draw fills dst with the reply's background and draws the frame over it,
// scaling the frame to fit dst if their sizes differ.
func (r *Reply) Draw(dst draw.Image) {
	bg := r.Background
	if bg == nil {
		bg = color.White
	}
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(bg), image.Point{}, draw.Src)
	src := r.Image.Bounds()
	if src.Size() == b.Size() {
		draw.Draw(dst, b, r.Image, src.Min, draw.Over)
		return
	}
	draw.BiLinear.Scale(dst, text.Fit(b, src), r.Image, src, draw.Over, nil)
}

// Flatten returns the frame drawn over the reply's background at the
// frame's pixel size.
func (r *Reply) Flatten() *image.RGBA {
	dst := image.NewRGBA(r.Image.Bounds())
	r.Draw(dst)
	return dst
}
