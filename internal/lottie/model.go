// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottie

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// composition is the top level Lottie object.
type composition struct {
	Version string   `json:"v"`
	Rate    *float64 `json:"fr"`
	In      *float64 `json:"ip"`
	Out     *float64 `json:"op"`
	Width   *float64 `json:"w"`
	Height  *float64 `json:"h"`
	Layers  []layer  `json:"layers"`

	hasLayers bool
}

func (c *composition) UnmarshalJSON(b []byte) error {
	type plain composition
	var raw struct {
		plain
		Layers *json.RawMessage `json:"layers"`
	}
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}
	*c = composition(raw.plain)
	if raw.Layers == nil {
		return nil
	}
	c.hasLayers = true
	return json.Unmarshal(*raw.Layers, &c.Layers)
}

// validate checks that the composition has the metadata needed to play it.
func (c *composition) validate() error {
	var missing []string
	for _, f := range []struct {
		name string
		val  *float64
	}{
		{"fr", c.Rate},
		{"ip", c.In},
		{"op", c.Out},
		{"w", c.Width},
		{"h", c.Height},
	} {
		if f.val == nil {
			missing = append(missing, f.name)
		}
	}
	if !c.hasLayers {
		missing = append(missing, "layers")
	}
	if missing != nil {
		return fmt.Errorf("missing fields: %q", missing)
	}
	switch {
	case !(*c.Rate > 0) || math.IsInf(*c.Rate, 0):
		return fmt.Errorf("invalid frame rate: %v", *c.Rate)
	case !(*c.Out > *c.In) || math.IsInf(*c.Out-*c.In, 0):
		return fmt.Errorf("invalid frame range: [%v, %v)", *c.In, *c.Out)
	case !(*c.Width > 0) || !(*c.Height > 0) || math.IsInf(*c.Width, 0) || math.IsInf(*c.Height, 0):
		return fmt.Errorf("invalid size: %vx%v", *c.Width, *c.Height)
	}
	return nil
}

// Layer types.
const (
	solidLayer = 1
	nullLayer  = 3
	shapeLayer = 4
)

type layer struct {
	Index   *int    `json:"ind"`
	Parent  *int    `json:"parent"`
	Type    int     `json:"ty"`
	Name    string  `json:"nm"`
	Hidden  bool    `json:"hd"`
	In      float64 `json:"ip"`
	Out     float64 `json:"op"`
	Start   float64 `json:"st"`
	Stretch float64 `json:"sr"`

	Transform *transform `json:"ks"`

	// Shape layers.
	Shapes []shape `json:"shapes"`

	// Solid layers.
	SolidColor  string  `json:"sc"`
	SolidWidth  float64 `json:"sw"`
	SolidHeight float64 `json:"sh"`
}

func (l *layer) UnmarshalJSON(b []byte) error {
	var ty struct {
		Type int `json:"ty"`
	}
	err := json.Unmarshal(b, &ty)
	if err != nil {
		return err
	}
	type plain layer
	switch ty.Type {
	case solidLayer, nullLayer, shapeLayer:
		err = json.Unmarshal(b, (*plain)(l))
	default:
		// Keep the parts needed for parenting only.
		var other struct {
			Index     *int       `json:"ind"`
			Parent    *int       `json:"parent"`
			Transform *transform `json:"ks"`
		}
		err = json.Unmarshal(b, &other)
		*l = layer{
			Index:     other.Index,
			Parent:    other.Parent,
			Type:      ty.Type,
			Hidden:    true,
			Transform: other.Transform,
		}
	}
	if err != nil {
		return fmt.Errorf("layer type %d: %w", ty.Type, err)
	}
	return nil
}

// visible returns whether the layer is drawn at composition time t.
func (l *layer) visible(t float64) bool {
	return !l.Hidden && l.In <= t && t < l.Out
}

// local returns the layer's local time for composition time t.
func (l *layer) local(t float64) float64 {
	sr := l.Stretch
	if sr == 0 {
		sr = 1
	}
	return (t - l.Start) / sr
}

type transform struct {
	Anchor   *value `json:"a"`
	Position *value `json:"p"`
	Scale    *value `json:"s"`
	Rotation *value `json:"r"`
	Opacity  *value `json:"o"`
}

// Shape item types.
const (
	groupShape     = "gr"
	rectShape      = "rc"
	ellipseShape   = "el"
	pathShape      = "sh"
	fillShape      = "fl"
	strokeShape    = "st"
	transformShape = "tr"
)

// shape is a shape item. The fields are shared between the supported
// item types and are populated according to Type.
type shape struct {
	Type   string
	Name   string
	Hidden bool

	// Groups.
	Items []shape

	// Rectangles, ellipses and transforms.
	Position  *value
	Size      *value
	Roundness *value

	// Paths.
	Path *pathValue

	// Fills and strokes.
	Color    *value
	Opacity  *value
	Width    *value
	FillRule int
	Cap      int
	Join     int

	// Transforms.
	Anchor   *value
	Scale    *value
	Rotation *value
}

func (s *shape) UnmarshalJSON(b []byte) error {
	var ty struct {
		Type   string `json:"ty"`
		Name   string `json:"nm"`
		Hidden bool   `json:"hd"`
	}
	err := json.Unmarshal(b, &ty)
	if err != nil {
		return err
	}
	*s = shape{Type: ty.Type, Name: ty.Name, Hidden: ty.Hidden}
	switch ty.Type {
	case groupShape:
		var v struct {
			Items []shape `json:"it"`
		}
		err = json.Unmarshal(b, &v)
		s.Items = v.Items
	case rectShape, ellipseShape:
		var v struct {
			Position  *value `json:"p"`
			Size      *value `json:"s"`
			Roundness *value `json:"r"`
		}
		err = json.Unmarshal(b, &v)
		s.Position, s.Size, s.Roundness = v.Position, v.Size, v.Roundness
	case pathShape:
		var v struct {
			Path *pathValue `json:"ks"`
		}
		err = json.Unmarshal(b, &v)
		s.Path = v.Path
	case fillShape, strokeShape:
		var v struct {
			Color    *value `json:"c"`
			Opacity  *value `json:"o"`
			Width    *value `json:"w"`
			FillRule int    `json:"r"`
			Cap      int    `json:"lc"`
			Join     int    `json:"lj"`
		}
		err = json.Unmarshal(b, &v)
		s.Color, s.Opacity, s.Width = v.Color, v.Opacity, v.Width
		s.FillRule, s.Cap, s.Join = v.FillRule, v.Cap, v.Join
	case transformShape:
		var v transform
		err = json.Unmarshal(b, &v)
		s.Anchor, s.Position, s.Scale = v.Anchor, v.Position, v.Scale
		s.Rotation, s.Opacity = v.Rotation, v.Opacity
	default:
		// Unsupported items are kept so that group
		// structure is retained, but are not drawn.
		s.Hidden = true
	}
	if err != nil {
		return fmt.Errorf("shape %q: %w", ty.Type, err)
	}
	return nil
}

// checkParents returns an error if any layer has a cyclic parent chain.
func checkParents(layers []layer, byIndex map[int]*layer) error {
	for i := range layers {
		l := &layers[i]
		seen := make(map[*layer]bool)
		for l != nil {
			if seen[l] {
				return errors.New("cyclic layer parenting")
			}
			seen[l] = true
			if l.Parent == nil {
				break
			}
			l = byIndex[*l.Parent]
		}
	}
	return nil
}
