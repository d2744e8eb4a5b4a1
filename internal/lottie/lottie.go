// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottie

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"time"
)

var (
	// ErrSyntax is returned when a document is not well-formed JSON.
	ErrSyntax = errors.New("malformed animation document")

	// ErrInvalid is returned when a document is well-formed JSON but
	// does not describe a usable animation.
	ErrInvalid = errors.New("invalid animation document")

	// ErrFrameRange is returned by Render for frames outside the
	// animation.
	ErrFrameRange = errors.New("frame out of range")

	// ErrTarget is returned by Render for unusable render targets.
	ErrTarget = errors.New("invalid render target")
)

// Size is a width and height in composition units.
type Size struct {
	Width, Height float64
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// Animation is a parsed Lottie animation.
type Animation struct {
	version string
	rate    float64
	in, out float64
	size    Size
	layers  []layer

	// byIndex maps layer ind values to layers
	// for parenting.
	byIndex map[int]*layer
}

// Open reads and parses the Lottie document at path. File system errors
// are returned unwrapped.
func Open(path string) (*Animation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode parses a Lottie document. Errors wrap ErrSyntax for malformed
// JSON and ErrInvalid for JSON that is not a usable animation.
func Decode(data []byte) (*Animation, error) {
	var c composition
	err := json.Unmarshal(data, &c)
	if err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	err = c.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	a := &Animation{
		version: c.Version,
		rate:    *c.Rate,
		in:      *c.In,
		out:     *c.Out,
		size:    Size{Width: *c.Width, Height: *c.Height},
		layers:  c.Layers,
		byIndex: make(map[int]*layer),
	}
	for i := range a.layers {
		l := &a.layers[i]
		if l.Index != nil {
			a.byIndex[*l.Index] = l
		}
	}
	err = checkParents(a.layers, a.byIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return a, nil
}

// Version returns the document's format version. It may be empty.
func (a *Animation) Version() string { return a.version }

// Size returns the composition size.
func (a *Animation) Size() Size { return a.size }

// FrameRate returns the number of frames per second.
func (a *Animation) FrameRate() float64 { return a.rate }

// FrameCount returns the number of frames in the animation. It is always
// at least one.
func (a *Animation) FrameCount() int {
	return max(1, int(math.Round(a.out-a.in)))
}

// FrameDuration returns the display duration of a single frame.
func (a *Animation) FrameDuration() time.Duration {
	return max(1, time.Duration(float64(time.Second)/a.rate))
}

// Duration returns the total duration of the animation.
func (a *Animation) Duration() time.Duration {
	return time.Duration(a.FrameCount()) * a.FrameDuration()
}

// PixelFormat is the packing of a pixel in a 32 bit word.
type PixelFormat int

const (
	// ARGB8888 is 0xAARRGGBB with premultiplied alpha.
	ARGB8888 PixelFormat = iota
	// ABGR8888 is 0xAABBGGRR with premultiplied alpha.
	ABGR8888
)

func (f PixelFormat) String() string {
	switch f {
	case ARGB8888:
		return "ARGB8888"
	case ABGR8888:
		return "ABGR8888"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Target is a pixel buffer to render into. Pixel (x, y) is held in
// Pix[y*Stride+x].
type Target struct {
	Pix    []uint32
	Stride int
	Width  int
	Height int
	Format PixelFormat
}

// NewTarget returns a zeroed Target of the given size with a stride equal
// to its width.
func NewTarget(width, height int, format PixelFormat) *Target {
	return &Target{
		Pix:    make([]uint32, width*height),
		Stride: width,
		Width:  width,
		Height: height,
		Format: format,
	}
}

// Bounds returns the rectangle covered by the target.
func (t *Target) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.Width, t.Height)
}

func (t *Target) validate(content image.Rectangle) error {
	switch {
	case t == nil:
		return fmt.Errorf("%w: nil target", ErrTarget)
	case t.Width <= 0 || t.Height <= 0:
		return fmt.Errorf("%w: empty target %dx%d", ErrTarget, t.Width, t.Height)
	case t.Stride < t.Width:
		return fmt.Errorf("%w: stride %d less than width %d", ErrTarget, t.Stride, t.Width)
	case len(t.Pix) < t.Stride*(t.Height-1)+t.Width:
		return fmt.Errorf("%w: short pixel buffer", ErrTarget)
	case t.Format != ARGB8888 && t.Format != ABGR8888:
		return fmt.Errorf("%w: unknown format %v", ErrTarget, t.Format)
	case content.Empty():
		return fmt.Errorf("%w: empty content rectangle", ErrTarget)
	case !content.In(t.Bounds()):
		return fmt.Errorf("%w: content %v outside target %v", ErrTarget, content, t.Bounds())
	}
	return nil
}

// Render renders frame into the content rectangle of dst, scaling the
// composition to fill the rectangle. Pixels outside content are not
// altered. Pixels within content are overwritten.
func (a *Animation) Render(frame int, dst *Target, content image.Rectangle) error {
	if frame < 0 || frame >= a.FrameCount() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrFrameRange, frame, a.FrameCount())
	}
	err := dst.validate(content)
	if err != nil {
		return err
	}
	img := a.rasterize(a.in+float64(frame), content.Dx(), content.Dy())
	pack(dst, content, img)
	return nil
}
