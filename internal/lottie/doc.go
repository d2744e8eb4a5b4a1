// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lottie provides a rasteriser for a subset of the Lottie vector
// animation format.
//
// Supported features are solid, null and shape layers with parenting, layer
// and group transforms, rectangles, ellipses, bezier paths, solid fills and
// strokes. Properties may be static or keyframed with hold or cubic bezier
// easing. Other layer and shape types are ignored during rendering.
//
// An [Animation] is immutable once opened and may be rendered from multiple
// goroutines concurrently, each into its own [Target].
package lottie
