// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package websink provides a display driver implementing an HTTP request
// handler. Client requests get an initial snapshot of the panel frame and
// are updated further on every change.
//
// The primary use case is developing panel screens on a host machine and
// keeping an eye on a headless printer from a browser. OLED pixels are tiny;
// the sink magnifies each one into a square and can label the image with a
// caption, so the stream stays legible at desk distance.
//
// The protocol used is "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG)
// carrying PNG parts, which suit computer-drawn 1-bit graphics better than
// JPEG.
package websink

import (
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
)

// Opts configures a Display.
type Opts struct {
	// Width and Height of the emulated panel in pixels.
	Width, Height int

	// Scale is the pixel magnification factor. Defaults to 4.
	Scale int

	// Caption is drawn beneath the frame. Empty disables the caption bar.
	Caption string
}

const captionBarHeight = 24

// Display implements display.Drawer and http.Handler.
type Display struct {
	bounds  image.Rectangle
	scale   int
	caption string
	face    font.Face

	mu       sync.Mutex
	pixels   []bool
	rendered image.Image
	encoded  []byte
	clients  map[*client]struct{}
}

// New creates a new websink display instance.
func New(opts *Opts) (*Display, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 4
	}
	d := &Display{
		bounds:  image.Rect(0, 0, opts.Width, opts.Height),
		scale:   scale,
		caption: opts.Caption,
		pixels:  make([]bool, opts.Width*opts.Height),
		clients: map[*client]struct{}{},
	}
	if opts.Caption != "" {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, err
		}
		d.face = truetype.NewFace(f, &truetype.Options{Size: 14})
	}
	return d, nil
}

// String returns the name of the device.
func (d *Display) String() string {
	return "WebSink"
}

// Halt implements conn.Resource and terminates all running client requests
// asynchronously.
func (d *Display) Halt() error {
	d.mu.Lock()
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements display.Drawer. It reports the emulated panel size, not
// the magnified output size.
func (d *Display) Bounds() image.Rectangle {
	return d.bounds
}

// Draw implements display.Drawer.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	dstRect = dstRect.Intersect(d.bounds)
	w := d.bounds.Dx()

	d.mu.Lock()
	for y := dstRect.Min.Y; y < dstRect.Max.Y; y++ {
		for x := dstRect.Min.X; x < dstRect.Max.X; x++ {
			c := src.At(srcPts.X+x-dstRect.Min.X, srcPts.Y+y-dstRect.Min.Y)
			luma, _, _, _ := color.GrayModel.Convert(c).RGBA()
			d.pixels[y*w+x] = luma >= 0x8000
		}
	}
	d.rendered = d.renderLocked()
	d.encoded = nil
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()
	return nil
}

// renderLocked magnifies the 1-bit frame and draws the caption bar.
func (d *Display) renderLocked() image.Image {
	w := d.bounds.Dx()
	h := d.bounds.Dy()
	outH := h * d.scale
	if d.caption != "" {
		outH += captionBarHeight
	}
	dc := gg.NewContext(w*d.scale, outH)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !d.pixels[y*w+x] {
				continue
			}
			dc.DrawRectangle(float64(x*d.scale), float64(y*d.scale), float64(d.scale), float64(d.scale))
		}
	}
	dc.Fill()
	if d.caption != "" {
		dc.SetFontFace(d.face)
		dc.SetRGB(0.7, 0.7, 0.7)
		dc.DrawString(d.caption, 4, float64(h*d.scale+captionBarHeight-7))
	}
	return dc.Image()
}

var _ display.Drawer = (*Display)(nil)
