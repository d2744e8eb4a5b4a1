// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package preview provides the live preview and thumbnail entry points
// used by a file browser host.
package preview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/kortschak/lottieview/internal/document"
	"github.com/kortschak/lottieview/internal/lottie"
	"github.com/kortschak/lottieview/internal/player"
	"github.com/kortschak/lottieview/internal/render"
	"github.com/kortschak/lottieview/internal/runloop"
	"github.com/kortschak/lottieview/internal/slogext"
	"github.com/kortschak/lottieview/internal/text"
)

// LoadFailedMessage is the message shown in place of an animation that
// could not be loaded.
const LoadFailedMessage = "Failed to load animation"

// ErrSuperseded is passed to a Prepare handler when a later Prepare or a
// Close replaced the request before it completed.
var ErrSuperseded = errors.New("preview superseded")

// Options holds optional Controller parameters.
type Options struct {
	// RefreshRate is the display refresh rate used by the
	// default timing source. If zero, player.DefaultRefreshRate
	// is used.
	RefreshRate float64

	// NewTimingSource returns the timing source for a new
	// view. If nil, a player.DisplayLink at RefreshRate is
	// used.
	NewTimingSource func() player.TimingSource

	// Foreground and Background are the error message colours.
	// If nil, light grey on transparent is used.
	Foreground, Background color.Color
}

// Controller manages a live preview of one document at a time. Its view
// state is owned by the presentation loop.
type Controller struct {
	loop  *runloop.Loop
	layer *render.Layer
	opts  Options
	log   *slog.Logger

	// seq identifies the most recent Prepare.
	seq atomic.Uint64

	// View state owned by the loop.
	box   lottie.Size
	scale float64
	doc   *document.Document
	pub   *render.Publisher
	sched *player.Scheduler
}

// New returns a Controller presenting into layer within a box of the given
// point size at the given device scale.
func New(loop *runloop.Loop, layer *render.Layer, box lottie.Size, deviceScale float64, opts Options, log *slog.Logger) *Controller {
	if opts.NewTimingSource == nil {
		hz := opts.RefreshRate
		if hz <= 0 {
			hz = player.DefaultRefreshRate
		}
		opts.NewTimingSource = func() player.TimingSource {
			return player.NewDisplayLink(hz)
		}
	}
	if opts.Foreground == nil {
		opts.Foreground = color.Gray{Y: 0x99}
	}
	if opts.Background == nil {
		opts.Background = color.Transparent
	}
	return &Controller{
		loop:  loop,
		layer: layer,
		opts:  opts,
		log:   log,
		box:   box,
		scale: deviceScale,
	}
}

// Prepare loads the document at path in the background and starts playing
// it. Prepare does not block. The handler is called exactly once, on the
// presentation loop unless the loop has stopped.
//
// A generic JSON file that is not an animation results in a *LoadError of
// kind document.ErrNotThisFormat with nothing shown, so that the host can
// fall back to another previewer. Other load failures show an error
// message before the handler is called with the error.
func (c *Controller) Prepare(ctx context.Context, path string, handler func(error)) {
	seq := c.seq.Add(1)
	log := c.log.With(slog.String("path", path), slog.Uint64("seq", seq))
	go func() {
		doc, err := load(path)
		log.LogAttrs(ctx, slog.LevelDebug, "loaded", slog.Any("error", err))
		// claimed is set by whichever of the loop completion and
		// the abandon path below takes ownership of doc and handler.
		var claimed atomic.Bool
		loopErr := c.loop.Do(ctx, func() {
			if !claimed.CompareAndSwap(false, true) {
				return
			}
			if c.seq.Load() != seq {
				if doc != nil {
					doc.Close()
				}
				handler(ErrSuperseded)
				return
			}
			handler(c.finish(ctx, doc, err))
		})
		if loopErr != nil && claimed.CompareAndSwap(false, true) {
			if doc != nil {
				doc.Close()
			}
			log.LogAttrs(ctx, slog.LevelWarn, "prepare abandoned", slog.Any("error", loopErr))
			handler(loopErr)
		}
	}()
}

// load detects and loads the document at path.
func load(path string) (*document.Document, error) {
	if isGeneric(path) && !document.IsLikelyMatch(path) {
		return nil, &document.LoadError{Path: path, Kind: document.ErrNotThisFormat}
	}
	return document.Load(path)
}

func isGeneric(path string) bool {
	return strings.EqualFold(filepath.Ext(path), document.GenericExtension)
}

// finish installs the result of a load. It is run on the loop.
func (c *Controller) finish(ctx context.Context, doc *document.Document, err error) error {
	if err != nil {
		if errors.Is(err, document.ErrNotThisFormat) {
			return err
		}
		c.teardown()
		c.showError(ctx, err)
		return err
	}
	c.teardown()
	c.doc = doc
	c.pub = render.NewPublisher(doc, c.layer, render.PixelSize(doc.FrameSize(), c.box, c.scale), c.log)
	c.sched = player.New(c.loop, doc, c.pub, c.opts.NewTimingSource(), c.log)
	c.sched.Seek(0)
	c.sched.Play()
	c.log.LogAttrs(ctx, slog.LevelInfo, "preview",
		slog.String("path", doc.Path()),
		slog.Any("frame_size", slogext.Stringer{Stringer: doc.FrameSize()}),
		slog.Float64("frame_rate", doc.FrameRate()),
		slog.Int("frames", doc.FrameCount()),
		slog.Duration("frame_duration", doc.FrameDuration()),
	)
	return nil
}

func (c *Controller) showError(ctx context.Context, err error) {
	c.log.LogAttrs(ctx, slog.LevelWarn, "load failed", slog.Any("error", slogext.Error{Err: err}))
	img := text.Message(c.boxPixels(), LoadFailedMessage, c.opts.Foreground, c.opts.Background)
	c.layer.Publish(render.FromImage(img))
}

// boxPixels returns the pixel size of the whole preview box.
func (c *Controller) boxPixels() image.Point {
	return render.PixelSize(c.box, c.box, c.scale)
}

// teardown stops and releases the current view. It is run on the loop.
func (c *Controller) teardown() {
	if c.sched != nil {
		c.sched.Close()
		c.sched = nil
	}
	if c.doc != nil {
		c.doc.Close()
		c.doc = nil
	}
	c.pub = nil
}

// Layout changes the preview box and device scale and redraws the
// current frame at the new size.
func (c *Controller) Layout(ctx context.Context, box lottie.Size, deviceScale float64) error {
	return c.loop.Do(ctx, func() {
		c.box, c.scale = box, deviceScale
		if c.pub == nil {
			return
		}
		c.pub.SetSize(render.PixelSize(c.doc.FrameSize(), box, deviceScale))
		c.sched.Seek(c.sched.State().Frame)
	})
}

// Disappear stops playback when the preview is hidden. The current frame
// is retained.
func (c *Controller) Disappear(ctx context.Context) error {
	return c.loop.Do(ctx, func() {
		if c.sched != nil {
			c.sched.Stop()
		}
	})
}

// Resume restarts playback after Disappear.
func (c *Controller) Resume(ctx context.Context) error {
	return c.loop.Do(ctx, func() {
		if c.sched != nil {
			c.sched.Play()
		}
	})
}

// State returns the playback state of the current view and whether there
// is one.
func (c *Controller) State(ctx context.Context) (state player.State, ok bool, err error) {
	err = c.loop.Do(ctx, func() {
		if c.sched == nil {
			return
		}
		state, ok = c.sched.State(), true
	})
	return state, ok, err
}

// Stats returns the scheduler counters of the current view.
func (c *Controller) Stats(ctx context.Context) (accepted, dropped, failed int64, err error) {
	err = c.loop.Do(ctx, func() {
		if c.sched == nil {
			return
		}
		accepted, dropped, failed = c.sched.Stats()
	})
	return accepted, dropped, failed, err
}

// Close stops playback and releases the document. Pending Prepare calls
// are superseded.
func (c *Controller) Close() error {
	c.seq.Add(1)
	select {
	case <-c.loop.Done():
		c.teardown()
		return nil
	default:
	}
	err := c.loop.Do(context.Background(), c.teardown)
	if errors.Is(err, runloop.ErrClosed) {
		c.teardown()
		return nil
	}
	return err
}

// Open loads the document at path for offline rendering. It returns a nil
// document and nil error for generic JSON files that are not animations.
// The caller must close a returned document.
func Open(path string) (*document.Document, error) {
	if isGeneric(path) && !document.IsLikelyMatch(path) {
		return nil, nil
	}
	return document.Load(path)
}

// Thumbnail renders the first frame of the document at path for a
// thumbnail of at most maxSize points at deviceScale, drawn over
// background. It returns a nil reply and nil error for generic JSON files
// that are not animations, so that the host uses its default icon.
func Thumbnail(path string, maxSize lottie.Size, deviceScale float64, background color.Color) (*render.Reply, error) {
	doc, err := Open(path)
	if doc == nil {
		return nil, err
	}
	defer doc.Close()
	r, err := render.Thumbnail(doc, maxSize, deviceScale)
	if err != nil {
		return nil, err
	}
	if background != nil {
		r.Background = background
	}
	return r, nil
}
