// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package document provides detection and loading of Lottie animation
// documents.
package document

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kortschak/lottieview/internal/lottie"
)

var (
	// ErrUnsupportedExtension is the error kind for files whose
	// extension is not a Lottie document extension.
	ErrUnsupportedExtension = errors.New("unsupported extension")

	// ErrNotThisFormat is the error kind for files that are not usable
	// Lottie documents. The cause distinguishes malformed JSON,
	// lottie.ErrSyntax, from JSON that is not an animation,
	// lottie.ErrInvalid.
	ErrNotThisFormat = errors.New("not a lottie document")

	// ErrLoadFailed is the error kind for files that could not be read.
	ErrLoadFailed = errors.New("load failed")

	// ErrClosed is returned when rendering a closed document.
	ErrClosed = errors.New("document closed")
)

// LoadError is the error returned by Load. It wraps both its error kind
// and the underlying cause.
type LoadError struct {
	Path string
	Kind error
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Document is a loaded animation. Its metadata is fixed at load time.
type Document struct {
	path string
	anim atomic.Pointer[lottie.Animation]

	size     lottie.Size
	rate     float64
	count    int
	duration time.Duration
}

// Load opens the Lottie document at path. Errors are returned as a
// *LoadError with a Kind of ErrUnsupportedExtension, ErrNotThisFormat or
// ErrLoadFailed.
func Load(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case Extension, GenericExtension:
	default:
		return nil, &LoadError{Path: path, Kind: ErrUnsupportedExtension}
	}
	a, err := lottie.Open(path)
	if err != nil {
		kind := ErrLoadFailed
		if errors.Is(err, lottie.ErrSyntax) || errors.Is(err, lottie.ErrInvalid) {
			kind = ErrNotThisFormat
		}
		return nil, &LoadError{Path: path, Kind: kind, Err: err}
	}
	d := &Document{
		path:     path,
		size:     a.Size(),
		rate:     a.FrameRate(),
		count:    a.FrameCount(),
		duration: a.FrameDuration(),
	}
	d.anim.Store(a)
	return d, nil
}

// Path returns the path the document was loaded from.
func (d *Document) Path() string { return d.path }

// FrameSize returns the natural size of the animation.
func (d *Document) FrameSize() lottie.Size { return d.size }

// FrameRate returns the frame rate of the animation in frames per second.
func (d *Document) FrameRate() float64 { return d.rate }

// FrameCount returns the number of frames in the animation.
func (d *Document) FrameCount() int { return d.count }

// FrameDuration returns the display duration of each frame.
func (d *Document) FrameDuration() time.Duration { return d.duration }

// Render renders frame into the content rectangle of dst.
func (d *Document) Render(frame int, dst *lottie.Target, content image.Rectangle) error {
	a := d.anim.Load()
	if a == nil {
		return ErrClosed
	}
	return a.Render(frame, dst, content)
}

// Close releases the document. Subsequent renders fail with ErrClosed.
func (d *Document) Close() error {
	d.anim.Store(nil)
	return nil
}
