// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottie

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// floats is a JSON number or array of numbers.
type floats []float64

func (f *floats) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) != 0 && b[0] == '[' {
		return json.Unmarshal(b, (*[]float64)(f))
	}
	var n float64
	err := json.Unmarshal(b, &n)
	if err != nil {
		return err
	}
	*f = floats{n}
	return nil
}

// handle is a keyframe easing tangent.
type handle struct {
	X floats `json:"x"`
	Y floats `json:"y"`
}

func (h *handle) point() (x, y float64, ok bool) {
	if h == nil || len(h.X) == 0 || len(h.Y) == 0 {
		return 0, 0, false
	}
	return h.X[0], h.Y[0], true
}

// keyframe is a single keyframe of an animated property holding values
// of type T.
type keyframe[T any] struct {
	Time float64

	Start    T
	hasStart bool
	End      T
	hasEnd   bool

	Hold bool

	// Easing is a cubic bezier from (0,0) to (1,1)
	// with the control points out and in.
	eased      bool
	outX, outY float64
	inX, inY   float64
}

// rawKeyframe is the JSON form of a keyframe.
type rawKeyframe struct {
	T float64         `json:"t"`
	S json.RawMessage `json:"s"`
	E json.RawMessage `json:"e"`
	H int             `json:"h"`
	I *handle         `json:"i"`
	O *handle         `json:"o"`
}

func decodeKeyframes[T any](b []byte, dec func([]byte) (T, error)) ([]keyframe[T], error) {
	var raw []rawKeyframe
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("empty keyframe list")
	}
	keys := make([]keyframe[T], len(raw))
	for i, r := range raw {
		k := &keys[i]
		k.Time = r.T
		k.Hold = r.H == 1
		if len(r.S) != 0 {
			k.Start, err = dec(r.S)
			if err != nil {
				return nil, err
			}
			k.hasStart = true
		}
		if len(r.E) != 0 {
			k.End, err = dec(r.E)
			if err != nil {
				return nil, err
			}
			k.hasEnd = true
		}
		ox, oy, okOut := r.O.point()
		ix, iy, okIn := r.I.point()
		if okOut && okIn {
			k.eased = true
			k.outX, k.outY = clamp01(ox), oy
			k.inX, k.inY = clamp01(ix), iy
		}
	}
	if !keys[0].hasStart {
		return nil, errors.New("first keyframe has no value")
	}
	return keys, nil
}

// sample returns the values bounding time t and the eased progress
// between them.
func sample[T any](keys []keyframe[T], t float64) (from, to T, p float64) {
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Start, keys[0].Start, 0
	}
	for i, k := range keys[:len(keys)-1] {
		next := keys[i+1]
		if t >= next.Time {
			continue
		}
		if k.Hold || next.Time <= k.Time {
			return k.Start, k.Start, 0
		}
		end := k.End
		if !k.hasEnd {
			end = next.Start
			if !next.hasStart {
				end = k.Start
			}
		}
		return k.Start, end, k.ease((t - k.Time) / (next.Time - k.Time))
	}
	last := keys[len(keys)-1]
	if last.hasStart {
		return last.Start, last.Start, 0
	}
	prev := keys[len(keys)-2]
	if prev.hasEnd {
		return prev.End, prev.End, 0
	}
	return prev.Start, prev.Start, 0
}

func (k keyframe[T]) ease(p float64) float64 {
	if !k.eased {
		return p
	}
	return cubicBezier(k.outX, k.outY, k.inX, k.inY, p)
}

// cubicBezier returns the y value of the unit cubic bezier with control
// points (x1, y1) and (x2, y2) at the given x.
func cubicBezier(x1, y1, x2, y2, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lo, hi := 0.0, 1.0
	t := x
	for range 32 {
		bx := bezier1D(x1, x2, t)
		if math.Abs(bx-x) < 1e-7 {
			break
		}
		if bx < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return bezier1D(y1, y2, t)
}

func bezier1D(p1, p2, t float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// value is a possibly animated numeric property.
type value struct {
	static []float64
	keys   []keyframe[[]float64]

	// split holds separately animated x and y
	// components of a position.
	split *[2]value
}

func (v *value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty property")
	}
	if b[0] != '{' {
		var f floats
		err := f.UnmarshalJSON(b)
		v.static = f
		return err
	}
	var raw struct {
		K     json.RawMessage `json:"k"`
		Split bool            `json:"s"`
		X     *value          `json:"x"`
		Y     *value          `json:"y"`
	}
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}
	if raw.Split {
		if raw.X == nil || raw.Y == nil {
			return errors.New("split property missing component")
		}
		v.split = &[2]value{*raw.X, *raw.Y}
		return nil
	}
	if len(raw.K) == 0 {
		return errors.New("property missing value")
	}
	var f floats
	if f.UnmarshalJSON(raw.K) == nil {
		v.static = f
		return nil
	}
	v.keys, err = decodeKeyframes(raw.K, func(b []byte) ([]float64, error) {
		var f floats
		err := f.UnmarshalJSON(b)
		return f, err
	})
	return err
}

// at returns the value of the property at time t. A nil property
// has a nil value.
func (v *value) at(t float64) []float64 {
	switch {
	case v == nil:
		return nil
	case v.split != nil:
		return []float64{
			first(v.split[0].at(t), 0),
			first(v.split[1].at(t), 0),
		}
	case len(v.keys) == 0:
		return v.static
	}
	from, to, p := sample(v.keys, t)
	if p == 0 || len(from) != len(to) {
		return from
	}
	dst := make([]float64, len(from))
	for i := range from {
		dst[i] = from[i] + (to[i]-from[i])*p
	}
	return dst
}

// scalar returns the first element of the value at t or def if the
// property is absent.
func (v *value) scalar(t, def float64) float64 {
	return first(v.at(t), def)
}

// vec2 returns the first two elements of the value at t or def for
// absent elements.
func (v *value) vec2(t, def float64) (x, y float64) {
	val := v.at(t)
	switch len(val) {
	case 0:
		return def, def
	case 1:
		return val[0], val[0]
	default:
		return val[0], val[1]
	}
}

// color returns the colour and alpha of the value at t. Keyframed colours
// are blended in RGB.
func (v *value) color(t float64) (colorful.Color, float64) {
	if v == nil {
		return colorful.Color{}, 0
	}
	if len(v.keys) == 0 || v.split != nil {
		return rgba(v.at(t))
	}
	from, to, p := sample(v.keys, t)
	c0, a0 := rgba(from)
	c1, a1 := rgba(to)
	return c0.BlendRgb(c1, p), a0 + (a1-a0)*p
}

func rgba(v []float64) (colorful.Color, float64) {
	var c colorful.Color
	a := 1.0
	switch {
	case len(v) >= 4:
		a = v[3]
		fallthrough
	case len(v) == 3:
		c = colorful.Color{R: v[0], G: v[1], B: v[2]}
	default:
		return c, 0
	}
	return c, clamp01(a)
}

func first(v []float64, def float64) float64 {
	if len(v) == 0 {
		return def
	}
	return v[0]
}

// bezier is a Lottie shape path.
type bezier struct {
	Closed   bool         `json:"c"`
	In       [][2]float64 `json:"i"`
	Out      [][2]float64 `json:"o"`
	Vertices [][2]float64 `json:"v"`
}

// pathValue is a possibly animated shape path property.
type pathValue struct {
	static *bezier
	keys   []keyframe[bezier]
}

func (v *pathValue) UnmarshalJSON(b []byte) error {
	var raw struct {
		K json.RawMessage `json:"k"`
	}
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}
	k := bytes.TrimSpace(raw.K)
	if len(k) == 0 {
		return errors.New("path missing value")
	}
	if k[0] == '{' {
		v.static = &bezier{}
		return json.Unmarshal(k, v.static)
	}
	v.keys, err = decodeKeyframes(k, func(b []byte) (bezier, error) {
		// Keyframed shapes are wrapped in a single element array.
		var s []bezier
		err := json.Unmarshal(b, &s)
		if err != nil {
			return bezier{}, err
		}
		if len(s) == 0 {
			return bezier{}, errors.New("empty shape keyframe")
		}
		return s[0], nil
	})
	return err
}

func (v *pathValue) at(t float64) bezier {
	switch {
	case v == nil:
		return bezier{}
	case v.static != nil:
		return *v.static
	}
	from, to, p := sample(v.keys, t)
	if p == 0 || len(from.Vertices) != len(to.Vertices) ||
		len(from.In) != len(to.In) || len(from.Out) != len(to.Out) {
		return from
	}
	return bezier{
		Closed:   from.Closed,
		In:       lerpPoints(from.In, to.In, p),
		Out:      lerpPoints(from.Out, to.Out, p),
		Vertices: lerpPoints(from.Vertices, to.Vertices, p),
	}
}

func lerpPoints(a, b [][2]float64, p float64) [][2]float64 {
	dst := make([][2]float64, len(a))
	for i := range a {
		dst[i][0] = a[i][0] + (b[i][0]-a[i][0])*p
		dst[i][1] = a[i][1] + (b[i][1]-a[i][1])*p
	}
	return dst
}
