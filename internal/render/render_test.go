// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kortschak/lottieview/internal/document"
	"github.com/kortschak/lottieview/internal/lottie"
)

var pixelSizeTests = []struct {
	name        string
	frame, box  lottie.Size
	deviceScale float64
	wantPixel   image.Point
	wantPoint   image.Point
}{
	{
		name:        "square_retina",
		frame:       lottie.Size{Width: 512, Height: 512},
		box:         lottie.Size{Width: 800, Height: 800},
		deviceScale: 2,
		wantPixel:   image.Pt(1600, 1600),
		wantPoint:   image.Pt(800, 800),
	},
	{
		name:        "landscape_in_square",
		frame:       lottie.Size{Width: 400, Height: 300},
		box:         lottie.Size{Width: 800, Height: 800},
		deviceScale: 1.5,
		wantPixel:   image.Pt(1200, 900),
		wantPoint:   image.Pt(800, 600),
	},
	{
		name:        "portrait_in_landscape",
		frame:       lottie.Size{Width: 300, Height: 600},
		box:         lottie.Size{Width: 800, Height: 600},
		deviceScale: 1,
		wantPixel:   image.Pt(300, 600),
		wantPoint:   image.Pt(300, 600),
	},
	{
		name:        "inexact",
		frame:       lottie.Size{Width: 3, Height: 7},
		box:         lottie.Size{Width: 10, Height: 10},
		deviceScale: 1,
		wantPixel:   image.Pt(5, 10),
		wantPoint:   image.Pt(5, 10),
	},
	{
		name:        "non_positive_scale",
		frame:       lottie.Size{Width: 100, Height: 50},
		box:         lottie.Size{Width: 200, Height: 200},
		deviceScale: 0,
		wantPixel:   image.Pt(200, 100),
		wantPoint:   image.Pt(200, 100),
	},
	{
		name:        "thumbnail_icon",
		frame:       lottie.Size{Width: 512, Height: 512},
		box:         lottie.Size{Width: 256, Height: 256},
		deviceScale: 1,
		wantPixel:   image.Pt(256, 256),
		wantPoint:   image.Pt(256, 256),
	},
}

var ceilTests = []struct {
	v    float64
	want int
}{
	{v: 100, want: 100},
	{v: 100.00000005, want: 100},
	{v: 100.000001, want: 101},
	{v: 99.5, want: 100},
	{v: 0, want: 1},
	{v: -3, want: 1},
}

func TestCeil(t *testing.T) {
	for _, test := range ceilTests {
		got := ceil(test.v)
		if got != test.want {
			t.Errorf("unexpected ceiling of %v: got:%d want:%d", test.v, got, test.want)
		}
	}
}

func TestPixelSize(t *testing.T) {
	for _, test := range pixelSizeTests {
		t.Run(test.name, func(t *testing.T) {
			got := PixelSize(test.frame, test.box, test.deviceScale)
			if got != test.wantPixel {
				t.Errorf("unexpected pixel size: got:%v want:%v", got, test.wantPixel)
			}
			got = PointSize(test.frame, test.box)
			if got != test.wantPoint {
				t.Errorf("unexpected point size: got:%v want:%v", got, test.wantPoint)
			}
		})
	}
}

// fill is a Source that fills its content rectangle, or the left half of
// it, with a single colour.
type fill struct {
	size     lottie.Size
	color    color.RGBA
	leftHalf bool
	fail     map[int]bool
	calls    int
}

func (f *fill) FrameSize() lottie.Size { return f.size }

func (f *fill) Render(frame int, dst *lottie.Target, content image.Rectangle) error {
	f.calls++
	if f.fail[frame] {
		return errors.New("engine failure")
	}
	w := dst.Format.Pack(f.color)
	for y := content.Min.Y; y < content.Max.Y; y++ {
		for x := content.Min.X; x < content.Max.X; x++ {
			if f.leftHalf && x >= content.Min.X+content.Dx()/2 {
				continue
			}
			dst.Pix[y*dst.Stride+x] = w
		}
	}
	return nil
}

func TestRenderFrame(t *testing.T) {
	src := &fill{color: color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}}
	img, err := RenderFrame(src, 0, image.Pt(3, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("unexpected number of render calls: got:%d want:1", src.calls)
	}
	if got := len(img.Pix); got != 3*2*4 {
		t.Errorf("unexpected buffer length: got:%d want:%d", got, 3*2*4)
	}
	want := bytes.Repeat([]byte{0x30, 0x20, 0x10, 0xff}, 6)
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("unexpected pixel bytes:\n--- want:\n+++ got:\n%s", cmp.Diff(want, img.Pix))
	}
	if got := img.RGBAAt(2, 1); got != src.color {
		t.Errorf("unexpected colour: got:%v want:%v", got, src.color)
	}
	if !img.Opaque() {
		t.Error("expected opaque image")
	}
	if got := img.ToRGBA().RGBAAt(1, 1); got != src.color {
		t.Errorf("unexpected converted colour: got:%v want:%v", got, src.color)
	}
}

func TestRenderFrameErrors(t *testing.T) {
	src := &fill{fail: map[int]bool{7: true}}
	_, err := RenderFrame(src, 7, image.Pt(4, 4))
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RenderError: got:%T %[1]v", err)
	}
	if rerr.Frame != 7 {
		t.Errorf("unexpected frame in error: got:%d want:7", rerr.Frame)
	}

	_, err = RenderFrame(src, 0, image.Pt(0, 4))
	if !errors.As(err, &rerr) || !errors.Is(err, ErrEmptySize) {
		t.Errorf("unexpected error for empty size: %v", err)
	}
}

func TestLayer(t *testing.T) {
	l := NewLayer()
	if l.Contents() != nil {
		t.Error("unexpected contents of new layer")
	}
	first := &Image{Rect: image.Rect(0, 0, 1, 1), Pix: make([]byte, 4), Stride: 4}
	second := &Image{Rect: image.Rect(0, 0, 1, 1), Pix: make([]byte, 4), Stride: 4}
	l.Publish(first)
	l.Publish(second)
	select {
	case <-l.Changed():
	default:
		t.Fatal("no change signalled")
	}
	select {
	case <-l.Changed():
		t.Error("publications not coalesced")
	default:
	}
	if l.Contents() != second {
		t.Error("unexpected contents after publish")
	}
	if got := l.Published(); got != 2 {
		t.Errorf("unexpected publication count: got:%d want:2", got)
	}
}

func TestPublisherRetainsOnFailure(t *testing.T) {
	src := &fill{color: color.RGBA{B: 0xff, A: 0xff}, fail: map[int]bool{1: true}}
	l := NewLayer()
	p := NewPublisher(src, l, image.Pt(4, 4), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	err := p.Show(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	good := l.Contents()
	err = p.Show(1)
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Errorf("expected *RenderError: got:%v", err)
	}
	if l.Contents() != good {
		t.Error("failed render replaced layer contents")
	}
	if got := p.Failures(); got != 1 {
		t.Errorf("unexpected failure count: got:%d want:1", got)
	}

	p.SetSize(image.Pt(8, 2))
	err = p.Show(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Contents().Bounds(); got != image.Rect(0, 0, 8, 2) {
		t.Errorf("unexpected bounds after resize: got:%v", got)
	}
}

func TestThumbnail(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	src := &fill{size: lottie.Size{Width: 512, Height: 512}, color: red, leftHalf: true}
	r, err := Thumbnail(src, lottie.Size{Width: 256, Height: 256}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ContextSize != image.Pt(256, 256) {
		t.Errorf("unexpected context size: got:%v want:%v", r.ContextSize, image.Pt(256, 256))
	}
	if got := r.Image.Bounds(); got != image.Rect(0, 0, 512, 512) {
		t.Errorf("unexpected image bounds: got:%v", got)
	}

	flat := r.Flatten()
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for _, test := range []struct {
		p    image.Point
		want color.RGBA
	}{
		{p: image.Pt(10, 10), want: red},
		{p: image.Pt(500, 10), want: white},
	} {
		if got := flat.RGBAAt(test.p.X, test.p.Y); got != test.want {
			t.Errorf("unexpected flattened colour at %v: got:%v want:%v", test.p, got, test.want)
		}
	}

	// Drawing to a differently shaped destination letterboxes.
	dst := image.NewRGBA(image.Rect(0, 0, 100, 50))
	r.Background = color.Black
	r.Draw(dst)
	if got := dst.RGBAAt(5, 25); got != (color.RGBA{A: 0xff}) {
		t.Errorf("unexpected letterbox colour: got:%v", got)
	}
	if got := dst.RGBAAt(35, 25); got != red {
		t.Errorf("unexpected frame colour: got:%v want:%v", got, red)
	}
}

func TestThumbnailError(t *testing.T) {
	src := &fill{size: lottie.Size{Width: 10, Height: 10}, fail: map[int]bool{0: true}}
	r, err := Thumbnail(src, lottie.Size{Width: 10, Height: 10}, 1)
	if r != nil {
		t.Error("unexpected reply for failed render")
	}
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Errorf("expected *RenderError: got:%v", err)
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	c := color.RGBA{R: 1, G: 2, B: 3, A: 4}
	src.SetRGBA(6, 5, c)
	img := FromImage(src)
	if got := img.Bounds(); got != image.Rect(0, 0, 2, 1) {
		t.Errorf("unexpected bounds: got:%v", got)
	}
	if got := img.RGBAAt(1, 0); got != c {
		t.Errorf("unexpected colour: got:%v want:%v", got, c)
	}
	if want := []byte{0, 0, 0, 0, 3, 2, 1, 4}; !bytes.Equal(img.Pix, want) {
		t.Errorf("unexpected pixel bytes: got:%v want:%v", img.Pix, want)
	}
}

const anim = `{"v":"5.7.4","fr":24,"ip":0,"op":100,"w":512,"h":512,"layers":[
	{"ty":1,"ind":1,"ip":0,"op":100,"st":0,"sc":"#0000ff","sw":512,"sh":512,"ks":{}}
]}`

func TestThumbnailDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.json")
	err := os.WriteFile(path, []byte(anim), 0o644)
	if err != nil {
		t.Fatalf("unexpected error writing document: %v", err)
	}
	d, err := document.Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading document: %v", err)
	}
	defer d.Close()

	r, err := Thumbnail(d, lottie.Size{Width: 800, Height: 800}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := r.Image.Bounds()
	if b.Dx() != 1600 || b.Dy() != 1600 {
		t.Errorf("unexpected image size: got:%v want:1600x1600", b.Size())
	}
	if len(r.Image.Pix) != b.Dx()*b.Dy()*4 {
		t.Errorf("unexpected buffer length: got:%d want:%d", len(r.Image.Pix), b.Dx()*b.Dy()*4)
	}
	want := color.RGBA{B: 0xff, A: 0xff}
	if got := r.Image.RGBAAt(800, 800); got != want {
		t.Errorf("unexpected centre colour: got:%v want:%v", got, want)
	}
}
