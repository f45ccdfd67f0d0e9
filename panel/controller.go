// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// StatsProvider supplies periodic host statistics. Collect may return a
// partial snapshot together with a non-nil error; the snapshot is usable
// whenever When is set.
type StatsProvider interface {
	Collect(ctx context.Context) (SystemSnapshot, error)
}

// PrinterState reports the live printer connection status.
type PrinterState interface {
	Connected() bool
	Printing() bool
}

// PrinterControl issues job commands for the pass-through buttons.
type PrinterControl interface {
	CancelPrint(ctx context.Context) error
	PausePrint(ctx context.Context) error
	ResumePrint(ctx context.Context) error
}

// InputSource delivers debounced button presses. Attach registers the press
// callback and wires the physical inputs; Close detaches them.
type InputSource interface {
	Attach(fn PressFunc) error
	Close() error
}

// FrameRenderer builds a full display frame from the panel state. It must be
// free of side effects; the controller calls it from its mailbox goroutine.
type FrameRenderer interface {
	Frame(mode ScreenMode, sys SystemSnapshot, print PrintSnapshot, status PrinterStatus) image.Image
}

// Opts configures a Controller. Display and Renderer are required; every
// other collaborator is optional and its absence degrades the matching
// feature.
type Opts struct {
	Display  display.Drawer
	Renderer FrameRenderer
	Stats    StatsProvider
	Printer  PrinterState
	Control  PrinterControl
	Inputs   InputSource

	// StatsInterval is the period of the statistics refresh. Defaults to
	// 5 seconds.
	StatsInterval time.Duration
	// StatsTimeout bounds a single collection so a stalled probe cannot
	// block the mailbox. Defaults to StatsInterval - 1s.
	StatsTimeout time.Duration

	Logger *log.Logger
}

type lifecycle uint8

const (
	lifecycleIdle lifecycle = iota
	lifecycleRunning
	lifecycleStopped
)

// message is a single mailbox entry: either a host event or a button press.
type message struct {
	event *Event
	press Channel
}

// Controller owns the panel state and serializes every mutation and render
// through a single goroutine.
type Controller struct {
	display  display.Drawer
	renderer FrameRenderer
	stats    StatsProvider
	printer  PrinterState
	control  PrinterControl
	inputs   InputSource

	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger

	mu    sync.Mutex
	state lifecycle

	mailbox chan message
	done    chan struct{}
	wg      sync.WaitGroup

	// Owned by the mailbox goroutine after Start returns.
	mode   ScreenMode
	system SystemSnapshot
	print  PrintSnapshot
}

// New returns an unstarted Controller.
func New(opts *Opts) (*Controller, error) {
	if opts.Display == nil {
		return nil, errors.New("panel: display is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("panel: renderer is required")
	}
	interval := opts.StatsInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := opts.StatsTimeout
	if timeout <= 0 {
		timeout = interval - time.Second
		if timeout <= 0 {
			timeout = interval
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		display:  opts.Display,
		renderer: opts.Renderer,
		stats:    opts.Stats,
		printer:  opts.Printer,
		control:  opts.Control,
		inputs:   opts.Inputs,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		mailbox:  make(chan message, 16),
		done:     make(chan struct{}),
		mode:     ScreenSystem,
	}, nil
}

// Start wires the inputs, clears the display, performs the first statistics
// collection and presents the initial frame, then launches the mailbox
// goroutine. A failed input setup is logged and the panel continues without
// physical buttons.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.state != lifecycleIdle {
		c.mu.Unlock()
		return errors.New("panel: controller already started")
	}
	c.state = lifecycleRunning
	c.mu.Unlock()

	if c.inputs != nil {
		if err := c.inputs.Attach(c.onPress); err != nil {
			c.logger.Printf("panel: input setup failed, buttons disabled: %v", err)
		}
	}
	c.clearDisplay()
	c.collectStats()
	c.mode = ScreenSystem
	c.renderAndPresent()

	c.wg.Add(1)
	go c.run()
	return nil
}

// Stop halts the mailbox goroutine, detaches the inputs and blanks the
// display. It is idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != lifecycleRunning {
		c.state = lifecycleStopped
		c.mu.Unlock()
		return
	}
	c.state = lifecycleStopped
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()
	if c.inputs != nil {
		if err := c.inputs.Close(); err != nil {
			c.logger.Printf("panel: input teardown: %v", err)
		}
	}
	c.clearDisplay()
}

// HandleEvent posts a host event to the mailbox. Events arriving after Stop
// are dropped.
func (c *Controller) HandleEvent(e Event) {
	c.post(message{event: &e})
}

// onPress is invoked from the input callback context. It only posts to the
// mailbox; the mailbox goroutine performs the actual state change.
func (c *Controller) onPress(ch Channel, at time.Time) {
	c.post(message{press: ch})
}

func (c *Controller) post(m message) {
	select {
	case c.mailbox <- m:
	case <-c.done:
	default:
		c.logger.Printf("panel: mailbox full, dropping message")
	}
}

func (c *Controller) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.tick()
		case m := <-c.mailbox:
			c.dispatch(m)
		}
	}
}

// tick refreshes the statistics snapshot and re-renders when the system
// screen is showing. Any other screen picks the fresh snapshot up on its
// next render.
func (c *Controller) tick() {
	c.collectStats()
	if c.mode == ScreenSystem {
		c.renderAndPresent()
	}
}

func (c *Controller) collectStats() {
	if c.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	snap, err := c.stats.Collect(ctx)
	if err != nil {
		c.logger.Printf("panel: stats collection: %v", err)
	}
	if !snap.When.IsZero() {
		c.system = snap
	}
}

func (c *Controller) dispatch(m message) {
	if m.event != nil {
		c.handleEvent(*m.event)
		return
	}
	c.handlePress(m.press)
}

func (c *Controller) handleEvent(e Event) {
	switch e.Kind {
	case EventPrintStarted:
		c.print.FileName = e.FileName
		c.mode = ScreenPrint
	case EventPrintProgress:
		c.print.Progress = e.Progress
	}
	// Connection and print lifecycle events carry no payload; the render
	// below picks the new printer status up live.
	c.renderAndPresent()
}

func (c *Controller) handlePress(ch Channel) {
	switch ch {
	case ChannelMode:
		c.mode = c.mode.Next()
		c.renderAndPresent()
	case ChannelCancel:
		c.controlCall(ch, PrinterControl.CancelPrint)
	case ChannelPause:
		c.controlCall(ch, PrinterControl.PausePrint)
	case ChannelPlay:
		c.controlCall(ch, PrinterControl.ResumePrint)
	}
}

func (c *Controller) controlCall(ch Channel, fn func(PrinterControl, context.Context) error) {
	if c.control == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := fn(c.control, ctx); err != nil {
		c.logger.Printf("panel: %s button: %v", ch, err)
	}
}

func (c *Controller) status() PrinterStatus {
	if c.printer == nil {
		return PrinterStatus{}
	}
	return PrinterStatus{Connected: c.printer.Connected(), Printing: c.printer.Printing()}
}

func (c *Controller) renderAndPresent() {
	frame := c.renderer.Frame(c.mode, c.system, c.print, c.status())
	if err := c.display.Draw(c.display.Bounds(), frame, image.Point{}); err != nil {
		c.logger.Printf("panel: present: %v", err)
	}
}

func (c *Controller) clearDisplay() {
	blank := image1bit.NewVerticalLSB(c.display.Bounds())
	if err := c.display.Draw(c.display.Bounds(), blank, image.Point{}); err != nil {
		c.logger.Printf("panel: clear: %v", err)
	}
}
