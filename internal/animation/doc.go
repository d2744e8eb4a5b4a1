// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package animation provides export of rendered animations to animated
// image formats.
package animation

import (
	"time"

	"github.com/kortschak/lottieview/internal/render"
)

// Frames is a renderable sequence of frames.
type Frames interface {
	render.Source
	FrameCount() int
	FrameDuration() time.Duration
}
