// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termscreen

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestDrawPaintsFrame(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{Width: 8, Height: 4, Out: &buf})

	frame := image1bit.NewVerticalLSB(d.Bounds())
	frame.SetBit(0, 0, image1bit.On)
	if err := d.Draw(d.Bounds(), frame, image.Point{}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\033[H") {
		t.Error("frame does not home the cursor")
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Errorf("frame has %d rows, want 4", got)
	}
	if !strings.Contains(out, "\033[") {
		t.Error("no color escape codes emitted")
	}
}

func TestHaltResetsAttributes(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{Width: 8, Height: 4, Out: &buf})
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\033[0m") {
		t.Error("attributes not reset")
	}
}

func TestBounds(t *testing.T) {
	d := New(&Opts{Width: 128, Height: 64})
	if got := d.Bounds(); got != image.Rect(0, 0, 128, 64) {
		t.Errorf("Bounds() = %v", got)
	}
}
