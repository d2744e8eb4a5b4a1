// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render provides conversion of rendered animation frames into
// presentable images for live and single-shot surfaces.
package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/kortschak/lottieview/internal/lottie"
)

// Source is a renderable animation.
type Source interface {
	// Render renders frame into the content rectangle of dst.
	Render(frame int, dst *lottie.Target, content image.Rectangle) error
}

// Format is the pixel format requested from sources.
const Format = lottie.ARGB8888

// RenderError is returned when a source fails to render a frame.
type RenderError struct {
	Frame int
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render frame %d: %v", e.Frame, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ErrEmptySize is returned when a render is requested at an empty size.
var ErrEmptySize = errors.New("empty render size")

// RenderFrame renders frame of src at the given pixel size into a fresh
// target and returns it as an Image. Failures from src are returned as a
// *RenderError.
func RenderFrame(src Source, frame int, size image.Point) (*Image, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, &RenderError{Frame: frame, Err: fmt.Errorf("%w: %v", ErrEmptySize, size)}
	}
	dst := lottie.NewTarget(size.X, size.Y, Format)
	err := src.Render(frame, dst, dst.Bounds())
	if err != nil {
		return nil, &RenderError{Frame: frame, Err: err}
	}
	return NewImage(dst), nil
}

// PixelSize returns the pixel size of a frame of the given natural size
// fitted within box at the given device scale. The aspect ratio of frame
// is retained. A non-positive deviceScale is treated as one.
func PixelSize(frame, box lottie.Size, deviceScale float64) image.Point {
	if !(deviceScale > 0) {
		deviceScale = 1
	}
	scale := fitScale(frame, box)
	return image.Point{
		X: ceil(frame.Width * scale * deviceScale),
		Y: ceil(frame.Height * scale * deviceScale),
	}
}

// PointSize returns the size in display points of a frame of the given
// natural size fitted within box.
func PointSize(frame, box lottie.Size) image.Point {
	return PixelSize(frame, box, 1)
}

func fitScale(frame, box lottie.Size) float64 {
	if frame.Width <= 0 || frame.Height <= 0 {
		return 0
	}
	return math.Min(box.Width/frame.Width, box.Height/frame.Height)
}

// ceil returns the ceiling of v as a positive int, ignoring floating point
// error in the last places of exact values. This is deliberately not a
// strict ceiling: values within a relative 1e-9 above an integer, such as
// 100.00000005, round down to that integer.
func ceil(v float64) int {
	const tol = 1e-9
	if math.IsNaN(v) || v <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(v-tol*math.Max(1, v))))
}
