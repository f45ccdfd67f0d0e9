// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render builds display frames for the panel.
//
// A frame is split into two regions: the top region holds the content of the
// active screen and the bottom band persistently reports the printer status.
// Frame construction is deterministic and free of side effects; a fresh
// buffer is produced on every call so no incremental state can leak between
// frames.
package render

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/synman/OctoPrint-DisplayPanel/panel"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	mib = 1 << 20
	gib = 1 << 30

	// rowPitch is the vertical distance between text lines in the top
	// region.
	rowPitch = 9

	// barMargin keeps the filled part of the progress bar inside the
	// outline: 2px inset on the left, outline and inset on the right.
	barMargin = 5
)

// FinishEstimator supplies the estimated wall clock finish time shown next
// to the progress bar. Implementations return ok == false when no estimate
// is available, in which case nothing is drawn.
type FinishEstimator interface {
	FinishTime(print panel.PrintSnapshot) (string, bool)
}

// Opts configures a Renderer.
type Opts struct {
	// Width and Height of the display in pixels.
	Width  int
	Height int
	// BottomHeight is the height of the persistent status band.
	BottomHeight int
	// Face is the text face. Defaults to basicfont.Face7x13.
	Face font.Face
	// Estimator provides the finish time text. Optional.
	Estimator FinishEstimator
}

// DefaultOpts matches a 128x64 SSD1306 with a 22px status band.
var DefaultOpts = Opts{
	Width:        128,
	Height:       64,
	BottomHeight: 22,
}

// Renderer builds frames. It is safe for concurrent use; all fields are
// set at construction time and never mutated.
type Renderer struct {
	width  int
	height int
	bottom int
	face   font.Face
	ascent int
	est    FinishEstimator
}

// New returns a Renderer for the given geometry.
func New(opts *Opts) *Renderer {
	face := opts.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	return &Renderer{
		width:  opts.Width,
		height: opts.Height,
		bottom: opts.BottomHeight,
		face:   face,
		ascent: face.Metrics().Ascent.Ceil(),
		est:    opts.Estimator,
	}
}

// Bounds returns the frame dimensions.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// Frame renders the full frame: the active screen in the top region and the
// printer status band at the bottom.
func (r *Renderer) Frame(mode panel.ScreenMode, sys panel.SystemSnapshot, print panel.PrintSnapshot, status panel.PrinterStatus) image.Image {
	img := image1bit.NewVerticalLSB(r.Bounds())
	r.drawTop(img, mode, sys, print)
	r.drawBottom(img, status, print)
	return img
}

func (r *Renderer) drawTop(img *image1bit.VerticalLSB, mode panel.ScreenMode, sys panel.SystemSnapshot, print panel.PrintSnapshot) {
	switch mode {
	case panel.ScreenSystem:
		if sys.When.IsZero() {
			r.text(img, 0, rowPitch, "Gathering System Stats")
			return
		}
		r.text(img, 0, 0, "IP: "+sys.IP)
		if sys.HasLoad {
			r.text(img, 0, rowPitch, fmt.Sprintf("Load: %.2f %.2f %.2f", sys.Load[0], sys.Load[1], sys.Load[2]))
		}
		r.text(img, 0, 2*rowPitch, fmt.Sprintf("Mem: %d/%d MB %.1f%%", sys.MemUsed/mib, sys.MemTotal/mib, sys.MemPercent))
		r.text(img, 0, 3*rowPitch, fmt.Sprintf("Disk: %d/%d GB %s%%", sys.DiskUsed/gib, sys.DiskTotal/gib, diskPercent(sys.DiskUsed, sys.DiskFree)))
	case panel.ScreenPrinter:
		r.text(img, 0, rowPitch, "Mode: Printer")
	case panel.ScreenPrint:
		r.text(img, 0, 0, "File: "+print.FileName)
	}
}

func (r *Renderer) drawBottom(img *image1bit.VerticalLSB, status panel.PrinterStatus, print panel.PrintSnapshot) {
	top := r.height - r.bottom
	switch {
	case !status.Connected:
		r.centered(img, top+6, "Printer Not Connected")
	case !status.Printing:
		r.centered(img, top+6, "Waiting For Job")
	default:
		outline(img, image.Rect(0, top+2, r.width, top+11))
		if w := barWidth(r.width, print.Progress); w > 0 {
			fill(img, image.Rect(2, top+4, 2+w, top+9))
		}
		r.text(img, 0, top+12, fmt.Sprintf("%d%%", int(print.Progress)))
		if r.est != nil {
			if eta, ok := r.est.FinishTime(print); ok {
				r.text(img, r.width-r.textWidth(eta), top+12, eta)
			}
		}
	}
}

// barWidth is the filled width of the progress bar in pixels, truncated.
func barWidth(width int, progress float64) int {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	return int(float64(width-barMargin) * progress / 100)
}

// diskPercent renders 100*used/(used+free) truncated to two decimals using
// integer arithmetic only.
func diskPercent(used, free uint64) string {
	total := used + free
	if total == 0 {
		return "0.00"
	}
	p := 10000 * used / total
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}

// text draws s with its top-left corner at (x, y).
func (r *Renderer) text(img *image1bit.VerticalLSB, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: r.face,
		Dot:  fixed.P(x, y+r.ascent),
	}
	d.DrawString(s)
}

// centered draws s horizontally centered. Strings wider than the frame are
// pinned to the left edge and clipped on the right.
func (r *Renderer) centered(img *image1bit.VerticalLSB, y int, s string) {
	x := r.width/2 - r.textWidth(s)/2
	if x < 0 {
		x = 0
	}
	r.text(img, x, y, s)
}

func (r *Renderer) textWidth(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

func fill(img *image1bit.VerticalLSB, rect image.Rectangle) {
	draw.Draw(img, rect, &image.Uniform{image1bit.On}, image.Point{}, draw.Src)
}

func outline(img *image1bit.VerticalLSB, rect image.Rectangle) {
	fill(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1))
	fill(img, image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y))
	fill(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y))
	fill(img, image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y))
}
