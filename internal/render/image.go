// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/kortschak/lottieview/internal/lottie"
)

// Image is a read-only presentable image. Pixels are held with 8 bits per
// channel and premultiplied alpha in B, G, R, A byte order, the little
// endian form of 0xAARRGGBB words.
type Image struct {
	// Pix holds the image's pixels. The pixel at (x, y)
	// starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*4].
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewImage returns a copy of the pixels of t as an Image.
func NewImage(t *lottie.Target) *Image {
	img := &Image{
		Pix:    make([]byte, t.Width*t.Height*4),
		Stride: t.Width * 4,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	}
	for y := 0; y < t.Height; y++ {
		src := t.Pix[y*t.Stride : y*t.Stride+t.Width]
		dst := img.Pix[y*img.Stride : (y+1)*img.Stride]
		for x, w := range src {
			c := t.Format.Unpack(w)
			dst[x*4+0] = c.B
			dst[x*4+1] = c.G
			dst[x*4+2] = c.R
			dst[x*4+3] = c.A
		}
	}
	return img
}

// FromImage returns a copy of src as an Image with its origin at zero.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(rgba, rgba.Rect, src, b.Min, draw.Src)
	img := &Image{
		Pix:    rgba.Pix,
		Stride: rgba.Stride,
		Rect:   rgba.Rect,
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0], img.Pix[i+2] = img.Pix[i+2], img.Pix[i+0]
	}
	return img
}

func (img *Image) ColorModel() color.Model { return color.RGBAModel }

func (img *Image) Bounds() image.Rectangle { return img.Rect }

func (img *Image) At(x, y int) color.Color {
	return img.RGBAAt(x, y)
}

// RGBAAt returns the premultiplied colour of the pixel at (x, y).
func (img *Image) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}.In(img.Rect)) {
		return color.RGBA{}
	}
	i := (y-img.Rect.Min.Y)*img.Stride + (x-img.Rect.Min.X)*4
	s := img.Pix[i : i+4 : i+4]
	return color.RGBA{R: s[2], G: s[1], B: s[0], A: s[3]}
}

// Opaque scans the image and reports whether it is fully opaque.
func (img *Image) Opaque() bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return false
		}
	}
	return true
}

// ToRGBA returns a copy of the image in the standard library's RGBA layout.
func (img *Image) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(img.Rect)
	for i := 0; i < len(img.Pix); i += 4 {
		dst.Pix[i+0] = img.Pix[i+2]
		dst.Pix[i+1] = img.Pix[i+1]
		dst.Pix[i+2] = img.Pix[i+0]
		dst.Pix[i+3] = img.Pix[i+3]
	}
	return dst
}
