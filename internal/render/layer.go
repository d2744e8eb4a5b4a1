// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"
)

// Layer is a live presentation surface. Its contents are replaced whole
// by Publish and read by a compositor.
type Layer struct {
	contents  atomic.Pointer[Image]
	published atomic.Int64
	changed   chan struct{}
}

// NewLayer returns an empty Layer.
func NewLayer() *Layer {
	return &Layer{changed: make(chan struct{}, 1)}
}

// Publish replaces the layer's contents with img and signals Changed.
// Readers never observe a partially written image.
func (l *Layer) Publish(img *Image) {
	l.contents.Store(img)
	l.published.Add(1)
	select {
	case l.changed <- struct{}{}:
	default:
		// A composite is already pending.
	}
}

// Contents returns the most recently published image or nil if nothing
// has been published.
func (l *Layer) Contents() *Image {
	return l.contents.Load()
}

// Changed returns a channel that receives after each Publish. Multiple
// publications between receives are coalesced.
func (l *Layer) Changed() <-chan struct{} {
	return l.changed
}

// Published returns the number of publications to the layer.
func (l *Layer) Published() int64 {
	return l.published.Load()
}

// Publisher renders frames of a source at a fixed pixel size and publishes
// them to a Layer.
type Publisher struct {
	src   Source
	layer *Layer
	size  atomic.Pointer[image.Point]
	log   *slog.Logger

	failures atomic.Int64
}

// NewPublisher returns a Publisher rendering src at size into layer.
func NewPublisher(src Source, layer *Layer, size image.Point, log *slog.Logger) *Publisher {
	p := &Publisher{src: src, layer: layer, log: log}
	p.SetSize(size)
	return p
}

// SetSize sets the pixel size of subsequent renders.
func (p *Publisher) SetSize(size image.Point) {
	p.size.Store(&size)
}

// Size returns the current render pixel size.
func (p *Publisher) Size() image.Point {
	return *p.size.Load()
}

// Show renders frame and publishes it to the layer. If the render fails,
// the failure is logged and counted, the layer retains its previous
// contents and the *RenderError is returned.
func (p *Publisher) Show(frame int) error {
	img, err := RenderFrame(p.src, frame, p.Size())
	if err != nil {
		p.failures.Add(1)
		p.log.LogAttrs(context.Background(), slog.LevelWarn, "render failed",
			slog.Int("frame", frame),
			slog.Any("error", err),
		)
		return err
	}
	p.layer.Publish(img)
	return nil
}

// Failures returns the number of failed renders.
func (p *Publisher) Failures() int64 {
	return p.failures.Load()
}
