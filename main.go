// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The lottieview command previews Lottie animations. It renders thumbnails
// to PNG files and plays live previews to iTerm2-compatible terminals.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/gif"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/kortschak/lottieview/internal/animation"
	"github.com/kortschak/lottieview/internal/config"
	"github.com/kortschak/lottieview/internal/document"
	"github.com/kortschak/lottieview/internal/iterm2"
	"github.com/kortschak/lottieview/internal/lottie"
	"github.com/kortschak/lottieview/internal/preview"
	"github.com/kortschak/lottieview/internal/render"
	"github.com/kortschak/lottieview/internal/runloop"
	"github.com/kortschak/lottieview/internal/slogext"
	"github.com/kortschak/lottieview/internal/version"
	"github.com/kortschak/lottieview/internal/watch"
	"github.com/kortschak/lottieview/internal/xdg"
)

// Exit status codes.
const (
	success       = 0
	internalError = 1 << (iota - 1)
	invocationError
	noImage
)

func main() { os.Exit(Main()) }

func Main() int {
	var maxSize, box sizeFlag
	cfgPath := flag.String("config", "", "configuration file (default user config lottieview/config.toml)")
	thumb := flag.String("thumb", "", "write a thumbnail PNG to this path")
	gifOut := flag.String("gif", "", "write an animated GIF to this path")
	flag.Var(&maxSize, "max", "maximum thumbnail or GIF size in points (WxH)")
	flag.Var(&box, "box", "preview box size in points (WxH)")
	scale := flag.Float64("scale", 0, "device scale (default from config)")
	dur := flag.Duration("for", 0, "preview duration (0 is until interrupted)")
	watchFile := flag.Bool("watch", false, "reload the preview when the file changes")
	logging := flag.String("log", "", "logging level (debug, info, warn or error; default from config)")
	lines := flag.Bool("lines", false, "display source line details in logs")
	v := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options] <file.lot|file.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *v {
		err := version.Print(os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		return success
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return invocationError
	}
	path := flag.Arg(0)

	if *scale > config.MaxScale {
		fmt.Fprintf(os.Stderr, "invalid scale %v: must not exceed %d\n", *scale, config.MaxScale)
		return invocationError
	}

	if *cfgPath == "" {
		p, err := xdg.Config("lottieview", "config.toml")
		if err == nil {
			*cfgPath = p
		}
	}
	cfg := config.Default()
	if *cfgPath != "" {
		var (
			paths [][]string
			err   error
		)
		cfg, paths, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration %s: %v\n", *cfgPath, err)
			for _, p := range paths {
				fmt.Fprintf(os.Stderr, "\t%s\n", strings.Join(p, "."))
			}
			return invocationError
		}
	}

	var level slog.LevelVar
	if *logging == "" {
		l, err := cfg.Level()
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration log level: %v\n", err)
			return invocationError
		}
		level.Set(l)
	} else {
		err := level.UnmarshalText([]byte(*logging))
		if err != nil {
			flag.Usage()
			return invocationError
		}
	}
	addSource := slogext.NewAtomicBool(*lines || cfg.AddSource)

	// log is the root logger.
	log := slog.New(slogext.GoID{Handler: slogext.NewJSONHandler(os.Stderr, &slogext.HandlerOptions{
		Level:     &level,
		AddSource: addSource,
	})})
	// mlog is the logger for main.
	mlog := log.With(slog.String("component", "main"))
	mlog.LogAttrs(context.Background(), slog.LevelDebug, "config", slog.String("path", *cfgPath), slog.Any("config", cfg))

	if *thumb != "" || *gifOut != "" {
		if !maxSize.set {
			maxSize.Size = cfg.Thumbnail.Size()
		}
		if *scale <= 0 {
			*scale = cfg.Thumbnail.DeviceScale
		}
		if *gifOut != "" {
			return export(path, *gifOut, maxSize.Size, *scale, cfg.Thumbnail, mlog)
		}
		return thumbnail(path, *thumb, maxSize.Size, *scale, cfg.Thumbnail, mlog)
	}

	if !box.set {
		box.Size = cfg.Preview.Box()
		if r, ok := terminalResolution(mlog); ok {
			var termScale float64
			box.Size, termScale = terminalBox(r)
			if *scale <= 0 {
				*scale = termScale
			}
		}
	}
	if *scale <= 0 {
		*scale = cfg.Preview.DeviceScale
	}
	return play(path, box.Size, *scale, *dur, *watchFile, cfg.Preview, log)
}

// thumbnail writes a thumbnail of the animation at path to dst.
func thumbnail(path, dst string, maxSize lottie.Size, scale float64, cfg config.Thumbnail, log *slog.Logger) int {
	ctx := context.Background()
	bg, err := cfg.BackgroundColor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid background: %v\n", err)
		return invocationError
	}
	r, err := preview.Thumbnail(path, maxSize, scale, bg)
	if r == nil {
		log.LogAttrs(ctx, slog.LevelInfo, "no thumbnail", slog.String("path", path), slog.Any("error", slogext.Error{Err: err}))
		return noImage
	}
	f, err := os.Create(dst)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	err = png.Encode(f, r.Flatten())
	err = errors.Join(err, f.Close())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write thumbnail: %v\n", err)
		return internalError
	}
	log.LogAttrs(ctx, slog.LevelInfo, "thumbnail",
		slog.String("path", path),
		slog.String("dst", dst),
		slog.Any("context_size", r.ContextSize),
		slog.Any("pixel_size", r.Image.Bounds().Size()),
	)
	return success
}

// export writes all frames of the animation at path to dst as an animated
// GIF fitted within maxSize points.
func export(path, dst string, maxSize lottie.Size, scale float64, cfg config.Thumbnail, log *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bg, err := cfg.BackgroundColor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid background: %v\n", err)
		return invocationError
	}
	doc, err := preview.Open(path)
	if doc == nil {
		log.LogAttrs(ctx, slog.LevelInfo, "no animation", slog.String("path", path), slog.Any("error", slogext.Error{Err: err}))
		return noImage
	}
	defer doc.Close()

	size := render.PixelSize(doc.FrameSize(), maxSize, scale)
	g, err := animation.GIF(ctx, doc, size, bg, func(frame int) {
		log.LogAttrs(ctx, slog.LevelDebug, "gif frame", slog.Int("frame", frame))
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render animation: %v\n", err)
		return internalError
	}
	f, err := os.Create(dst)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	err = gif.EncodeAll(f, g)
	err = errors.Join(err, f.Close())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write animation: %v\n", err)
		return internalError
	}
	log.LogAttrs(ctx, slog.LevelInfo, "gif",
		slog.String("path", path),
		slog.String("dst", dst),
		slog.Any("pixel_size", size),
		slog.Int("frames", len(g.Image)),
	)
	return success
}

// play runs a live preview of the animation at path.
func play(path string, box lottie.Size, scale float64, dur time.Duration, watchFile bool, cfg config.Preview, log *slog.Logger) int {
	mlog := log.With(slog.String("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if dur > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dur)
		defer cancel()
	}

	loop := runloop.New(cfg.Queue, log.With(slog.String("component", "loop")))
	layer := render.NewLayer()
	ctrl := preview.New(loop, layer, box, scale, preview.Options{RefreshRate: cfg.RefreshRate}, log.With(slog.String("component", "preview")))

	loopCtx, stopLoop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() { loop.Run(loopCtx) })
	defer func() {
		stopLoop()
		wg.Wait()
		ctrl.Close()
	}()

	wg.Go(func() { composite(loopCtx, layer, mlog) })

	prepared := make(chan error, 1)
	ctrl.Prepare(ctx, path, func(err error) { prepared <- err })
	select {
	case err := <-prepared:
		switch {
		case err == nil:
		case errors.Is(err, document.ErrNotThisFormat):
			mlog.LogAttrs(ctx, slog.LevelInfo, "not an animation", slog.String("path", path), slog.Any("error", slogext.Error{Err: err}))
			return noImage
		default:
			fmt.Fprintf(os.Stderr, "failed to load animation: %v\n", err)
			return internalError
		}
	case <-ctx.Done():
		return success
	}

	var changes chan watch.Change
	if watchFile {
		changes = make(chan watch.Change)
		w, err := watch.New(ctx, path, changes, -1, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", path, err)
			return internalError
		}
		defer w.Close()
	}

	for {
		select {
		case <-ctx.Done():
			accepted, dropped, failed, err := ctrl.Stats(loopCtx)
			state, _, _ := ctrl.State(loopCtx)
			mlog.LogAttrs(context.Background(), slog.LevelInfo, "playback",
				slog.Int("frame", state.Frame),
				slog.Int64("accepted", accepted),
				slog.Int64("dropped", dropped),
				slog.Int64("failed", failed),
				slog.Any("error", err),
			)
			return success
		case c := <-changes:
			if c.Err != nil {
				mlog.LogAttrs(ctx, slog.LevelWarn, "watch error", slog.Any("error", c.Err))
				continue
			}
			if c.Removed {
				mlog.LogAttrs(ctx, slog.LevelInfo, "file removed", slog.String("path", path), slog.String("op", c.Op().String()))
				continue
			}
			mlog.LogAttrs(ctx, slog.LevelInfo, "reload",
				slog.String("path", path),
				slog.String("op", c.Op().String()),
				slog.String("sum", c.Sum.String()),
			)
			ctrl.Prepare(ctx, path, func(err error) {
				if err != nil {
					mlog.LogAttrs(ctx, slog.LevelWarn, "reload failed", slog.Any("error", slogext.Error{Err: err}))
				}
			})
		}
	}
}

// terminalResolution returns the pixel resolution of an iTerm2-compatible
// terminal attached to stdin and stdout.
func terminalResolution(log *slog.Logger) (iterm2.Resolution, bool) {
	if !iterm2.IsCompatible(nil) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return iterm2.Resolution{}, false
	}
	r, err := iterm2.PixelResolution(os.Stdin)
	if err != nil {
		log.LogAttrs(context.Background(), slog.LevelDebug, "terminal resolution", slog.Any("error", err))
		return iterm2.Resolution{}, false
	}
	log.LogAttrs(context.Background(), slog.LevelDebug, "terminal resolution",
		slog.Int("width", r.Width),
		slog.Int("height", r.Height),
		slog.Float64("scale", r.Scale),
	)
	return r, r.Width > 0 && r.Height > 0
}

// terminalBox returns the preview box in points and the device scale for
// a terminal of resolution r.
func terminalBox(r iterm2.Resolution) (lottie.Size, float64) {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	box := lottie.Size{Width: float64(r.Width) / scale, Height: float64(r.Height) / scale}
	return clampSize(box), scale
}

// composite displays published layer contents until ctx is done. Contents
// are drawn to the terminal if it is iTerm2 compatible and otherwise only
// logged.
func composite(ctx context.Context, layer *render.Layer, log *slog.Logger) {
	var anim *iterm2.Animator
	if iterm2.IsCompatible(nil) && term.IsTerminal(int(os.Stdout.Fd())) {
		anim = iterm2.NewAnimator(os.Stdout)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-layer.Changed():
			img := layer.Contents()
			if img == nil {
				continue
			}
			if anim == nil {
				log.LogAttrs(ctx, slog.LevelDebug, "composite",
					slog.Any("size", img.Bounds().Size()),
					slog.Int64("published", layer.Published()),
				)
				continue
			}
			err := anim.Frame(img)
			if err != nil {
				log.LogAttrs(ctx, slog.LevelWarn, "terminal write", slog.Any("error", err))
			}
		}
	}
}

// clampSize limits both extents of sz to config.MaxExtent.
func clampSize(sz lottie.Size) lottie.Size {
	return lottie.Size{Width: min(sz.Width, config.MaxExtent), Height: min(sz.Height, config.MaxExtent)}
}

// sizeFlag is a flag.Value holding a size in the form WxH.
type sizeFlag struct {
	lottie.Size
	set bool
}

func (f *sizeFlag) String() string {
	if !f.set {
		return ""
	}
	return f.Size.String()
}

func (f *sizeFlag) Set(s string) error {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return fmt.Errorf("invalid size %q: want WxH", s)
	}
	var err error
	f.Width, err = strconv.ParseFloat(w, 64)
	if err != nil {
		return fmt.Errorf("invalid width: %w", err)
	}
	f.Height, err = strconv.ParseFloat(h, 64)
	if err != nil {
		return fmt.Errorf("invalid height: %w", err)
	}
	if !(f.Width > 0 && f.Height > 0) {
		return fmt.Errorf("invalid size %q: must be positive", s)
	}
	if f.Width > config.MaxExtent || f.Height > config.MaxExtent {
		return fmt.Errorf("invalid size %q: must not exceed %d", s, config.MaxExtent)
	}
	f.set = true
	return nil
}
