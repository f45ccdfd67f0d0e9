// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termscreen implements a display.Drawer that renders the panel
// frame to a terminal using ANSI color codes.
//
// Useful to develop screens on a workstation while the OLED hardware is
// still in the mail. Each frame repaints in place by homing the cursor
// before the rows are written.
package termscreen

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	Width   int
	Height  int
	Palette *ansi256.Palette

	// Out overrides the output, mainly for tests. Defaults to a colorable
	// stdout.
	Out io.Writer
}

var (
	onColor  = color.NRGBA{255, 255, 255, 255}
	offColor = color.NRGBA{20, 20, 20, 255}
)

// Dev is a terminal emulation of the panel OLED.
type Dev struct {
	w       io.Writer
	bounds  image.Rectangle
	palette ansi256.Palette

	pixels []bool
	buf    bytes.Buffer
}

// New returns a Dev that paints frames at the terminal.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		bounds:  image.Rect(0, 0, opts.Width, opts.Height),
		palette: *p,
		pixels:  make([]bool, opts.Width*opts.Height),
	}
}

func (d *Dev) String() string {
	return "TermScreen"
}

// Halt implements conn.Resource.
//
// It resets the attributes and moves past the frame so the shell prompt is
// not drawn over it.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.bounds
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.bounds)
	w := d.bounds.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)
			luma, _, _, _ := color.GrayModel.Convert(c).RGBA()
			d.pixels[y*w+x] = luma >= 0x8000
		}
	}
	return d.refresh()
}

// refresh repaints the whole frame.
//
// This code is designed to minimize the amount of memory allocated per call.
func (d *Dev) refresh() error {
	w := d.bounds.Dx()
	h := d.bounds.Dy()
	d.buf.Reset()
	d.buf.WriteString("\033[H")
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := offColor
			if d.pixels[y*w+x] {
				c = onColor
			}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
