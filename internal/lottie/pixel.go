// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottie

import (
	"image"
	"image/color"
)

// pack writes the premultiplied pixels of src into the content rectangle
// of dst. Content pixels not covered by src are cleared.
func pack(dst *Target, content image.Rectangle, src *image.RGBA) {
	sb := src.Bounds()
	for y := 0; y < content.Dy(); y++ {
		row := dst.Pix[(content.Min.Y+y)*dst.Stride+content.Min.X:]
		for x := 0; x < content.Dx(); x++ {
			p := image.Pt(sb.Min.X+x, sb.Min.Y+y)
			if !p.In(sb) {
				row[x] = 0
				continue
			}
			row[x] = dst.Format.Pack(src.RGBAAt(p.X, p.Y))
		}
	}
}

// Pack returns the 32 bit word holding the premultiplied colour c.
func (f PixelFormat) Pack(c color.RGBA) uint32 {
	switch f {
	case ABGR8888:
		return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
	default:
		return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	}
}

// Unpack returns the premultiplied colour held in the 32 bit word w.
func (f PixelFormat) Unpack(w uint32) color.RGBA {
	a, hi, mid, lo := uint8(w>>24), uint8(w>>16), uint8(w>>8), uint8(w)
	switch f {
	case ABGR8888:
		return color.RGBA{R: lo, G: mid, B: hi, A: a}
	default:
		return color.RGBA{R: hi, G: mid, B: lo, A: a}
	}
}
