// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package buttons reads the panel push buttons through GPIO.
//
// Each configured channel gets a pull-up input with rising edge detection
// and a goroutine blocked in WaitForEdge. Edges pass a per-channel debounce
// filter before reaching the controller, so switch chatter inside the window
// collapses into a single logical press.
//
// Pin setup is tolerant: a channel whose pin cannot be resolved or
// configured is logged and skipped, and the remaining channels keep working.
// Only when no channel at all could be wired does Attach return an error.
package buttons

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/synman/OctoPrint-DisplayPanel/debounce"
	"github.com/synman/OctoPrint-DisplayPanel/panel"
)

// Opts configures a Source.
type Opts struct {
	// Pins maps a channel to a pin name resolvable by gpioreg: "GPIO4",
	// "4" and header names all work. Channels missing from the map are
	// not wired.
	Pins map[panel.Channel]string
	// DebounceWindow is applied per channel. Defaults to
	// debounce.DefaultWindow.
	DebounceWindow time.Duration

	Logger *log.Logger
}

// DefaultOpts matches the reference panel wiring (BCM numbering).
var DefaultOpts = Opts{
	Pins: map[panel.Channel]string{
		panel.ChannelMode:   "GPIO4",
		panel.ChannelCancel: "GPIO22",
		panel.ChannelPlay:   "GPIO17",
		panel.ChannelPause:  "GPIO27",
	},
}

// edgePollInterval bounds WaitForEdge so watch goroutines notice Close.
const edgePollInterval = time.Second

type watch struct {
	ch     panel.Channel
	pin    gpio.PinIO
	filter *debounce.Press
}

// Source implements panel.InputSource on top of periph GPIO.
type Source struct {
	opts   Opts
	logger *log.Logger

	mu      sync.Mutex
	watches []watch
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New returns an unattached Source.
func New(opts *Opts) *Source {
	o := *opts
	if o.Pins == nil {
		o.Pins = DefaultOpts.Pins
	}
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = debounce.DefaultWindow
	}
	logger := o.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Source{opts: o, logger: logger}
}

// Attach configures the pins and starts the edge watchers. fn is called
// from the watcher goroutines with debounced presses.
func (s *Source) Attach(fn panel.PressFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return fmt.Errorf("buttons: already attached")
	}

	var watches []watch
	for _, ch := range panel.Channels {
		name, found := s.opts.Pins[ch]
		if !found {
			continue
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			s.logger.Printf("buttons: no pin %q for %s channel, skipping", name, ch)
			continue
		}
		if err := pin.In(gpio.PullUp, gpio.RisingEdge); err != nil {
			s.logger.Printf("buttons: pin %s for %s channel: %v", pin, ch, err)
			continue
		}
		watches = append(watches, watch{
			ch:     ch,
			pin:    pin,
			filter: debounce.New(s.opts.DebounceWindow),
		})
	}
	if len(watches) == 0 {
		return fmt.Errorf("buttons: no usable input pins out of %d configured", len(s.opts.Pins))
	}

	s.watches = watches
	s.stop = make(chan struct{})
	for _, w := range watches {
		s.wg.Add(1)
		go s.watchPin(w, fn)
	}
	return nil
}

// Close stops the watchers and releases edge detection on every pin.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.wg.Wait()
	var err error
	for _, w := range s.watches {
		if e := w.pin.Halt(); e != nil && err == nil {
			err = e
		}
	}
	s.watches = nil
	s.stop = nil
	return err
}

func (s *Source) watchPin(w watch, fn panel.PressFunc) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		if !w.pin.WaitForEdge(edgePollInterval) {
			continue
		}
		now := time.Now()
		if !w.filter.Accept(now) {
			continue
		}
		fn(w.ch, now)
	}
}

var _ panel.InputSource = &Source{}
