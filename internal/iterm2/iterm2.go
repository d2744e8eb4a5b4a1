// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iterm2 provides image output using the iTerm2 inline image
// protocol.
package iterm2

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// IsCompatible returns whether the terminal described by the environment
// accepts inline images. If getenv is nil, os.Getenv is used.
func IsCompatible(getenv func(string) string) bool {
	if getenv == nil {
		getenv = os.Getenv
	}
	switch getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm":
		return true
	}
	return getenv("LC_TERMINAL") == "iTerm2"
}

// Image writes m to w as an inline image.
func Image(w io.Writer, m image.Image) error {
	var buf bytes.Buffer
	err := png.Encode(&buf, m)
	if err != nil {
		return err
	}
	b := m.Bounds()
	_, err = fmt.Fprintf(w, "\x1b]1337;File=inline=1;size=%d;width=%dpx;height=%dpx;preserveAspectRatio=1:", buf.Len(), b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, w)
	_, err = enc.Write(buf.Bytes())
	if err != nil {
		return err
	}
	err = enc.Close()
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("\a"))
	return err
}

// Animator writes successive frames to the same position of a terminal.
type Animator struct {
	w     io.Writer
	shown bool
}

// NewAnimator returns an Animator writing to w.
func NewAnimator(w io.Writer) *Animator {
	return &Animator{w: w}
}

// Frame writes m over the previous frame.
func (a *Animator) Frame(m image.Image) error {
	var buf bytes.Buffer
	if a.shown {
		// Restore cursor.
		buf.WriteString("\x1b8")
	} else {
		// Save cursor.
		buf.WriteString("\x1b7")
	}
	err := Image(&buf, m)
	if err != nil {
		return err
	}
	buf.WriteString("\n")
	_, err = a.w.Write(buf.Bytes())
	if err != nil {
		return err
	}
	a.shown = true
	return nil
}

// CellSize is the size of a terminal cell in points and the scale from
// points to pixels.
type CellSize struct {
	Width  float64
	Height float64
	Scale  float64
}

// ReportCellSize queries the terminal on f for its cell size.
func ReportCellSize(f *os.File) (sz CellSize, err error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return CellSize{}, err
	}
	defer func() {
		err = errors.Join(err, term.Restore(fd, state))
	}()

	_, err = f.Write([]byte("\x1b]1337;ReportCellSize\a"))
	if err != nil {
		return CellSize{}, err
	}
	b := make([]byte, 64)
	n, err := f.Read(b)
	if err != nil {
		return CellSize{}, err
	}
	return ParseCellSize(b[:n])
}

// ErrNoCellSize is returned when a cell size report cannot be parsed.
var ErrNoCellSize = errors.New("no cell size report")

// ParseCellSize parses a cell size report. The report has the form
//
//	ESC ] 1337 ; ReportCellSize = height ; width [ ; scale ] ESC \
func ParseCellSize(b []byte) (CellSize, error) {
	const prefix = "ReportCellSize="
	s := string(b)
	start := strings.Index(s, prefix)
	if start < 0 {
		return CellSize{}, ErrNoCellSize
	}
	s = s[start+len(prefix):]
	end := strings.Index(s, "\x1b\\")
	if end < 0 {
		return CellSize{}, ErrNoCellSize
	}
	parts := strings.Split(s[:end], ";")
	if len(parts) < 2 || len(parts) > 3 {
		return CellSize{}, fmt.Errorf("%w: %q", ErrNoCellSize, s[:end])
	}
	sz := CellSize{Scale: 1}
	var err error
	for i, dst := range []*float64{&sz.Height, &sz.Width, &sz.Scale}[:len(parts)] {
		*dst, err = strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return CellSize{}, fmt.Errorf("%w: %v", ErrNoCellSize, err)
		}
	}
	return sz, nil
}

// Resolution is the pixel size of a terminal window.
type Resolution struct {
	Width, Height int
	Scale         float64
}

// PixelResolution returns the pixel size of the terminal on f.
func PixelResolution(f *os.File) (Resolution, error) {
	if !term.IsTerminal(int(f.Fd())) {
		return Resolution{}, errors.New("not a terminal")
	}
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return Resolution{}, err
	}
	sz, err := ReportCellSize(f)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Width:  int(float64(cols) * sz.Width * sz.Scale),
		Height: int(float64(rows) * sz.Height * sz.Scale),
		Scale:  sz.Scale,
	}, nil
}
