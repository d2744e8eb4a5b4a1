// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package text provides rendering of short [basicfont.Face] messages into
// images and fitting of images into one another.
package text

import (
	"image"
	"image/color"
	"strings"

	"github.com/bbrks/wrap/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face is the font used for messages.
var Face = basicfont.Face7x13

// Size returns the size, in font rows and columns, of the bounding rectangle.
func Size(bound image.Rectangle, fnt *basicfont.Face) (rows, cols int) {
	rows = bound.Dy() / fnt.Height
	cols = bound.Dx() / (fnt.Width + 1)
	return rows, cols
}

// Fit returns the largest rectangle with the aspect ratio of src that fits
// centred within dst. It can be used in a call to a draw.Scaler to
// maintain the src aspect ratio in the dst image.
//
//	draw.BiLinear.Scale(dst, Fit(dst.Bounds(), src.Bounds()), src, src.Bounds(), op, opts)
func Fit(dst, src image.Rectangle) image.Rectangle {
	dx, dy := src.Dx(), src.Dy()
	if dx <= 0 || dy <= 0 || dst.Empty() {
		return image.Rectangle{Min: dst.Min, Max: dst.Min}
	}
	switch {
	case dx*dst.Dy() < dy*dst.Dx():
		dx, dy = dx*dst.Dy()/dy, dst.Dy()
	case dx*dst.Dy() > dy*dst.Dx():
		dx, dy = dst.Dx(), dy*dst.Dx()/dx
	default:
		return dst
	}
	offset := image.Point{X: (dst.Dx() - dx) / 2, Y: (dst.Dy() - dy) / 2}
	return image.Rectangle{Max: image.Point{X: dx, Y: dy}}.Add(dst.Min).Add(offset)
}

// Message returns an image of the given size with msg drawn in fg over bg,
// centred and wrapped at word boundaries within a margin of one sixteenth
// of the shorter side.
func Message(size image.Point, msg string, fg, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	margin := min(size.X, size.Y) / 16
	r := dst.Bounds().Inset(margin)
	rows, cols := Size(r, Face)
	Draw(dst, r, Lines(msg, rows, cols), fg, Face)
	return dst
}

const ellipsis = "..."

// Lines wraps text at word boundaries into at most rows lines of at most
// cols characters. Text that does not fit is truncated with an ellipsis
// when there is room for one. Lines returns nil if rows or cols is not
// positive.
func Lines(text string, rows, cols int) []string {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	wrapper := wrap.NewWrapper()
	wrapper.StripTrailingNewline = true
	wrapper.CutLongWords = true
	lines := strings.Split(wrapper.Wrap(text, cols), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	if len(lines) <= rows {
		return lines
	}
	lines = lines[:rows]
	if cols > len(ellipsis) {
		last := []rune(lines[rows-1])
		if len(last) > cols-len(ellipsis) {
			last = last[:cols-len(ellipsis)]
		}
		lines[rows-1] = string(last) + ellipsis
	}
	return lines
}

// Draw draws lines in col within r of dst. Each line is centred
// horizontally and the block of lines is centred vertically.
func Draw(dst draw.Image, r image.Rectangle, lines []string, col color.Color, fnt *basicfont.Face) {
	if len(lines) == 0 {
		return
	}
	d := font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: fnt}
	top := r.Min.Y + (r.Dy()-len(lines)*fnt.Height)/2
	for i, l := range lines {
		w := d.MeasureString(l).Ceil()
		d.Dot = fixed.P(r.Min.X+(r.Dx()-w)/2, top+fnt.Ascent+fnt.Height*i)
		d.DrawString(l)
	}
}
