// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

// fakeDisplay records every presented frame.
type fakeDisplay struct {
	mu     sync.Mutex
	frames []image.Image
}

func (d *fakeDisplay) String() string          { return "fake" }
func (d *fakeDisplay) Halt() error             { return nil }
func (d *fakeDisplay) ColorModel() color.Model { return color.GrayModel }
func (d *fakeDisplay) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (d *fakeDisplay) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, src)
	return nil
}

func (d *fakeDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

// blank reports whether the most recent frame has no lit pixel.
func (d *fakeDisplay) lastBlank() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := d.frames[len(d.frames)-1]
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			luma, _, _, _ := color.GrayModel.Convert(img.At(x, y)).RGBA()
			if luma >= 0x8000 {
				return false
			}
		}
	}
	return true
}

// renderCall captures the arguments of one Frame invocation.
type renderCall struct {
	mode   ScreenMode
	sys    SystemSnapshot
	print  PrintSnapshot
	status PrinterStatus
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *fakeRenderer) Frame(mode ScreenMode, sys SystemSnapshot, print PrintSnapshot, status PrinterStatus) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{mode, sys, print, status})
	img := image.NewGray(image.Rect(0, 0, 128, 64))
	img.SetGray(0, 0, color.Gray{Y: 255})
	return img
}

func (r *fakeRenderer) last(t *testing.T) renderCall {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		t.Fatal("no render happened")
	}
	return r.calls[len(r.calls)-1]
}

func (r *fakeRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeStats struct {
	snap SystemSnapshot
	err  error
}

func (s *fakeStats) Collect(ctx context.Context) (SystemSnapshot, error) {
	return s.snap, s.err
}

type fakePrinter struct {
	connected bool
	printing  bool
}

func (p *fakePrinter) Connected() bool { return p.connected }
func (p *fakePrinter) Printing() bool  { return p.printing }

type fakeInputs struct {
	attachErr error
	attached  bool
	closed    bool
}

func (i *fakeInputs) Attach(fn PressFunc) error {
	if i.attachErr != nil {
		return i.attachErr
	}
	i.attached = true
	return nil
}

func (i *fakeInputs) Close() error {
	i.closed = true
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestController(t *testing.T, opts *Opts) (*Controller, *fakeDisplay, *fakeRenderer) {
	t.Helper()
	d := &fakeDisplay{}
	r := &fakeRenderer{}
	if opts == nil {
		opts = &Opts{}
	}
	opts.Display = d
	opts.Renderer = r
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return c, d, r
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(&Opts{Renderer: &fakeRenderer{}}); err == nil {
		t.Error("New without display did not fail")
	}
	if _, err := New(&Opts{Display: &fakeDisplay{}}); err == nil {
		t.Error("New without renderer did not fail")
	}
}

func TestStartPresentsSystemScreen(t *testing.T) {
	snap := SystemSnapshot{When: time.Now(), IP: "192.168.1.5"}
	c, d, r := newTestController(t, &Opts{
		Stats:   &fakeStats{snap: snap},
		Printer: &fakePrinter{connected: true},
	})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	// Clear plus the initial frame.
	if got := d.count(); got != 2 {
		t.Errorf("presented %d frames at startup, want 2", got)
	}
	call := r.last(t)
	if call.mode != ScreenSystem {
		t.Errorf("initial mode = %s, want %s", call.mode, ScreenSystem)
	}
	if call.sys.IP != "192.168.1.5" {
		t.Errorf("initial snapshot IP = %q, want %q", call.sys.IP, "192.168.1.5")
	}
	if !call.status.Connected {
		t.Error("printer status not read live at render time")
	}
}

func TestStartInputFailureDegrades(t *testing.T) {
	c, _, _ := newTestController(t, &Opts{
		Inputs: &fakeInputs{attachErr: errors.New("no gpio")},
	})
	if err := c.Start(); err != nil {
		t.Fatalf("input setup failure must not fail Start: %v", err)
	}
	c.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	c, _, _ := newTestController(t, nil)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err == nil {
		t.Error("second Start did not fail")
	}
	c.Stop()
}

func TestStopIsIdempotentAndClears(t *testing.T) {
	inputs := &fakeInputs{}
	c, d, _ := newTestController(t, &Opts{Inputs: inputs})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	c.Stop()
	c.Stop()
	if !inputs.closed {
		t.Error("inputs not detached on Stop")
	}
	if !d.lastBlank() {
		t.Error("display not cleared on Stop")
	}
}

func TestPrintStartedForcesPrintScreen(t *testing.T) {
	for _, start := range []ScreenMode{ScreenSystem, ScreenPrinter, ScreenPrint} {
		c, _, r := newTestController(t, nil)
		c.mode = start
		c.handleEvent(Event{Kind: EventPrintStarted, FileName: "part.gcode"})
		call := r.last(t)
		if call.mode != ScreenPrint {
			t.Errorf("mode after print-started from %s = %s, want %s", start, call.mode, ScreenPrint)
		}
		if call.print.FileName != "part.gcode" {
			t.Errorf("file name = %q, want %q", call.print.FileName, "part.gcode")
		}
	}
}

func TestProgressUpdatesWithoutModeChange(t *testing.T) {
	c, _, r := newTestController(t, nil)
	c.mode = ScreenSystem
	c.handleEvent(Event{Kind: EventPrintProgress, Progress: 42})
	call := r.last(t)
	if call.mode != ScreenSystem {
		t.Errorf("progress event changed mode to %s", call.mode)
	}
	if call.print.Progress != 42 {
		t.Errorf("progress = %v, want 42", call.print.Progress)
	}
}

func TestConnectionEventsOnlyRerender(t *testing.T) {
	c, _, r := newTestController(t, nil)
	c.mode = ScreenPrinter
	for _, kind := range []EventKind{
		EventConnected, EventConnecting, EventDisconnected,
		EventDisconnecting, EventConnectivityChanged,
	} {
		before := r.count()
		c.handleEvent(Event{Kind: kind})
		if r.count() != before+1 {
			t.Errorf("%s event did not re-render", kind)
		}
		if got := r.last(t).mode; got != ScreenPrinter {
			t.Errorf("%s event changed mode to %s", kind, got)
		}
	}
}

func TestModeButtonAdvances(t *testing.T) {
	c, _, r := newTestController(t, nil)
	want := []ScreenMode{ScreenPrinter, ScreenPrint, ScreenSystem}
	for _, m := range want {
		c.handlePress(ChannelMode)
		if got := r.last(t).mode; got != m {
			t.Errorf("mode after press = %s, want %s", got, m)
		}
	}
}

func TestTickRendersOnlyOnSystemScreen(t *testing.T) {
	stats := &fakeStats{snap: SystemSnapshot{When: time.Now()}}
	c, _, r := newTestController(t, &Opts{Stats: stats})

	c.mode = ScreenPrint
	before := r.count()
	c.tick()
	if r.count() != before {
		t.Error("tick re-rendered while print screen active")
	}

	c.mode = ScreenSystem
	c.tick()
	if r.count() != before+1 {
		t.Error("tick did not re-render on system screen")
	}
}

func TestTickSurvivesCollectionFailure(t *testing.T) {
	stats := &fakeStats{err: errors.New("no route")}
	c, _, r := newTestController(t, &Opts{Stats: stats})
	c.mode = ScreenSystem
	c.tick()
	if got := r.last(t).sys; !got.When.IsZero() {
		t.Error("failed collection produced a snapshot")
	}

	// Recovery on a later tick replaces the snapshot wholesale.
	stats.err = nil
	stats.snap = SystemSnapshot{When: time.Now(), IP: "10.0.0.2"}
	c.tick()
	if got := r.last(t).sys.IP; got != "10.0.0.2" {
		t.Errorf("snapshot after recovery = %q, want %q", got, "10.0.0.2")
	}
}

type recordingControl struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingControl) record(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
	return nil
}

func (r *recordingControl) CancelPrint(ctx context.Context) error { return r.record("cancel") }
func (r *recordingControl) PausePrint(ctx context.Context) error  { return r.record("pause") }
func (r *recordingControl) ResumePrint(ctx context.Context) error { return r.record("resume") }

func TestPassThroughButtons(t *testing.T) {
	control := &recordingControl{}
	c, _, _ := newTestController(t, &Opts{Control: control})
	c.handlePress(ChannelCancel)
	c.handlePress(ChannelPause)
	c.handlePress(ChannelPlay)
	want := []string{"cancel", "pause", "resume"}
	control.mu.Lock()
	defer control.mu.Unlock()
	if len(control.calls) != len(want) {
		t.Fatalf("control calls = %v, want %v", control.calls, want)
	}
	for i := range want {
		if control.calls[i] != want[i] {
			t.Errorf("control call %d = %q, want %q", i, control.calls[i], want[i])
		}
	}
}
