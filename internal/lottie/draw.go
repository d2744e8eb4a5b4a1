// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottie

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// rasterize renders the composition at time t into a w×h image.
func (a *Animation) rasterize(t float64, w, h int) *image.RGBA {
	c := canvas.New(float64(w), float64(h))
	ctx := canvas.NewContext(c)

	// Lottie space has y increasing downwards from the top left.
	view := canvas.Identity.
		Translate(0, float64(h)).
		Scale(float64(w)/a.size.Width, -float64(h)/a.size.Height)

	// Layers are listed top first.
	for i := len(a.layers) - 1; i >= 0; i-- {
		l := &a.layers[i]
		if !l.visible(t) || l.Type == nullLayer {
			continue
		}
		m := view.Mul(a.layerMatrix(l, t))
		opacity := l.Transform.opacity(l.local(t))
		if opacity <= 0 {
			continue
		}
		switch l.Type {
		case solidLayer:
			drawSolid(ctx, l, m, opacity)
		case shapeLayer:
			_, ops := group(l.Shapes, l.local(t), m, opacity)
			for j := len(ops) - 1; j >= 0; j-- {
				ops[j].draw(ctx)
			}
		}
	}

	return rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
}

// layerMatrix returns the transform from layer space to composition
// space including all parent transforms. Parent chains are known to be
// acyclic.
func (a *Animation) layerMatrix(l *layer, t float64) canvas.Matrix {
	m := l.Transform.matrix(l.local(t))
	for p := l; p.Parent != nil; {
		parent, ok := a.byIndex[*p.Parent]
		if !ok {
			break
		}
		m = parent.Transform.matrix(parent.local(t)).Mul(m)
		p = parent
	}
	return m
}

func (tr *transform) matrix(t float64) canvas.Matrix {
	if tr == nil {
		return canvas.Identity
	}
	return transformMatrix(tr.Anchor, tr.Position, tr.Scale, tr.Rotation, t)
}

func transformMatrix(anchor, position, scale, rotation *value, t float64) canvas.Matrix {
	ax, ay := anchor.vec2(t, 0)
	px, py := position.vec2(t, 0)
	sx, sy := scale.vec2(t, 100)
	r := rotation.scalar(t, 0)
	return canvas.Identity.
		Translate(px, py).
		Rotate(r).
		Scale(sx/100, sy/100).
		Translate(-ax, -ay)
}

// opacity returns the transform's opacity in [0, 1].
func (tr *transform) opacity(t float64) float64 {
	if tr == nil {
		return 1
	}
	return clamp01(tr.Opacity.scalar(t, 100) / 100)
}

func drawSolid(ctx *canvas.Context, l *layer, m canvas.Matrix, opacity float64) {
	if l.SolidWidth <= 0 || l.SolidHeight <= 0 {
		return
	}
	c, err := colorful.Hex(l.SolidColor)
	if err != nil {
		// Malformed colours are rendered black as other
		// players do.
		c = colorful.Color{}
	}
	p := canvas.Rectangle(l.SolidWidth, l.SolidHeight).Transform(m)
	ctx.SetFillColor(nrgba(c, opacity))
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(0, 0, p)
}

// paint is a deferred fill or stroke of accumulated geometry.
type paint struct {
	item    *shape
	geom    *canvas.Path
	t       float64
	opacity float64
	scale   float64
}

func (p paint) draw(ctx *canvas.Context) {
	if p.geom == nil || p.geom.Empty() {
		return
	}
	col, alpha := p.item.Color.color(p.t)
	alpha *= p.opacity * clamp01(p.item.Opacity.scalar(p.t, 100)/100)
	if alpha <= 0 {
		return
	}
	switch p.item.Type {
	case fillShape:
		ctx.SetFillColor(nrgba(col, alpha))
		ctx.SetStrokeColor(canvas.Transparent)
		if p.item.FillRule == 2 {
			ctx.SetFillRule(canvas.EvenOdd)
		} else {
			ctx.SetFillRule(canvas.NonZero)
		}
	case strokeShape:
		w := p.item.Width.scalar(p.t, 0) * p.scale
		if w <= 0 {
			return
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(nrgba(col, alpha))
		ctx.SetStrokeWidth(w)
		ctx.SetStrokeCapper(capper(p.item.Cap))
		ctx.SetStrokeJoiner(joiner(p.item.Join))
	}
	ctx.DrawPath(0, 0, p.geom)
}

func capper(lc int) canvas.Capper {
	switch lc {
	case 2:
		return canvas.RoundCap
	case 3:
		return canvas.SquareCap
	default:
		return canvas.ButtCap
	}
}

func joiner(lj int) canvas.Joiner {
	switch lj {
	case 2:
		return canvas.RoundJoin
	case 3:
		return canvas.BevelJoin
	default:
		return canvas.MiterJoin
	}
}

// group collects the geometry of items, transformed by m and the group's
// own transform, and the paint operations of the group in stacking order
// with the topmost first. Fills and strokes apply to all geometry that
// precedes them within the group, including that of nested groups.
func group(items []shape, t float64, m canvas.Matrix, opacity float64) (*canvas.Path, []paint) {
	for i := range items {
		it := &items[i]
		if it.Type == transformShape {
			m = m.Mul(transformMatrix(it.Anchor, it.Position, it.Scale, it.Rotation, t))
			opacity *= clamp01(it.Opacity.scalar(t, 100) / 100)
			break
		}
	}
	scale := math.Sqrt(math.Abs(m.Det()))

	geom := &canvas.Path{}
	var ops []paint
	for i := range items {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch it.Type {
		case rectShape, ellipseShape, pathShape:
			p := outline(it, t)
			if p != nil {
				geom = geom.Append(p.Transform(m))
			}
		case groupShape:
			g, sub := group(it.Items, t, m, opacity)
			geom = geom.Append(g)
			ops = append(ops, sub...)
		case fillShape, strokeShape:
			ops = append(ops, paint{
				item:    it,
				geom:    geom.Copy(),
				t:       t,
				opacity: opacity,
				scale:   scale,
			})
		}
	}
	return geom, ops
}

// outline returns the untransformed path of a geometry item.
func outline(s *shape, t float64) *canvas.Path {
	switch s.Type {
	case rectShape:
		w, h := s.Size.vec2(t, 0)
		if w <= 0 || h <= 0 {
			return nil
		}
		x, y := s.Position.vec2(t, 0)
		r := math.Min(s.Roundness.scalar(t, 0), math.Min(w, h)/2)
		var p *canvas.Path
		if r > 0 {
			p = canvas.RoundedRectangle(w, h, r)
		} else {
			p = canvas.Rectangle(w, h)
		}
		return p.Transform(canvas.Identity.Translate(x-w/2, y-h/2))
	case ellipseShape:
		w, h := s.Size.vec2(t, 0)
		if w <= 0 || h <= 0 {
			return nil
		}
		x, y := s.Position.vec2(t, 0)
		return canvas.Ellipse(w/2, h/2).Transform(canvas.Identity.Translate(x, y))
	case pathShape:
		return bezierPath(s.Path.at(t))
	}
	return nil
}

// bezierPath returns the path described by b. Tangents are relative to
// their vertex.
func bezierPath(b bezier) *canvas.Path {
	n := len(b.Vertices)
	if n == 0 {
		return nil
	}
	tangent := func(tan [][2]float64, i int) [2]float64 {
		if i < len(tan) {
			return tan[i]
		}
		return [2]float64{}
	}
	segment := func(p *canvas.Path, from, to int) {
		v0, v1 := b.Vertices[from], b.Vertices[to]
		o, in := tangent(b.Out, from), tangent(b.In, to)
		p.CubeTo(v0[0]+o[0], v0[1]+o[1], v1[0]+in[0], v1[1]+in[1], v1[0], v1[1])
	}
	p := &canvas.Path{}
	p.MoveTo(b.Vertices[0][0], b.Vertices[0][1])
	for i := 1; i < n; i++ {
		segment(p, i-1, i)
	}
	if b.Closed {
		segment(p, n-1, 0)
		p.Close()
	}
	return p
}

// nrgba returns c with the given alpha as a non-premultiplied colour.
func nrgba(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(clamp01(alpha) * 255))}
}
