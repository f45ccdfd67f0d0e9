// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package octoprint

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/synman/OctoPrint-DisplayPanel/panel"
)

// PollerOpts configures a Poller.
type PollerOpts struct {
	// Interval between polls. Defaults to 2 seconds.
	Interval time.Duration
	// Events receives the synthesized event stream. Typically
	// (*panel.Controller).HandleEvent.
	Events func(panel.Event)

	Logger *log.Logger
}

// pollState is the condensed printer state a single poll produces.
type pollState struct {
	valid     bool
	connected bool
	printing  bool
	paused    bool
	fileName  string
	progress  float64
	timeLeft  time.Duration
	hasLeft   bool
}

// Poller periodically reads the printer state and turns transitions into
// panel events. It also serves as the live PrinterState which the renderer
// consults, answering from the most recent poll.
type Poller struct {
	client   *Client
	interval time.Duration
	events   func(panel.Event)
	logger   *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	cur  pollState
	seen time.Time
}

// NewPoller returns an unstarted Poller.
func NewPoller(client *Client, opts *PollerOpts) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		client:   client,
		interval: interval,
		events:   opts.Events,
		logger:   logger,
	}
}

// SetEvents installs the event receiver. It must be called before Start;
// it exists because the controller consuming the events is usually built
// after the poller it reads printer state from.
func (p *Poller) SetEvents(fn func(panel.Event)) {
	p.events = fn
}

// Start launches the poll loop.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop halts the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.cancel = nil
}

// Connected implements panel.PrinterState from the latest poll.
func (p *Poller) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur.connected
}

// Printing implements panel.PrinterState from the latest poll.
func (p *Poller) Printing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur.printing
}

// FinishTime implements the renderer's finish estimator from the remaining
// print time OctoPrint reports. The estimate disappears while the printer
// is idle or OctoPrint has not computed a remaining time yet.
func (p *Poller) FinishTime(_ panel.PrintSnapshot) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cur.printing || !p.cur.hasLeft {
		return "", false
	}
	return p.seen.Add(p.cur.timeLeft).Format("15:04"), true
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	next, err := p.fetch(ctx)
	if err != nil {
		p.logger.Printf("octoprint: poll: %v", err)
		return
	}
	p.mu.Lock()
	prev := p.cur
	p.cur = next
	p.seen = time.Now()
	p.mu.Unlock()

	if p.events != nil {
		for _, e := range diff(prev, next) {
			p.events(e)
		}
	}
}

func (p *Poller) fetch(ctx context.Context) (pollState, error) {
	conn, err := p.client.Connection(ctx)
	if err != nil {
		return pollState{}, err
	}
	job, err := p.client.Job(ctx)
	if err != nil {
		return pollState{}, err
	}
	s := pollState{
		valid:     true,
		connected: conn.Connected(),
		printing:  job.Printing(),
		paused:    job.Paused(),
		fileName:  job.Job.File.Name,
	}
	if job.Progress.Completion != nil {
		s.progress = *job.Progress.Completion
	}
	if job.Progress.PrintTimeLeft != nil {
		s.timeLeft = time.Duration(*job.Progress.PrintTimeLeft * float64(time.Second))
		s.hasLeft = true
	}
	return s, nil
}

// diff converts a state transition into the events the panel understands.
func diff(prev, next pollState) []panel.Event {
	var out []panel.Event
	if next.connected != prev.connected {
		kind := panel.EventDisconnected
		if next.connected {
			kind = panel.EventConnected
		}
		out = append(out, panel.Event{Kind: kind})
	}
	switch {
	case next.printing && !prev.printing && !prev.paused:
		out = append(out, panel.Event{Kind: panel.EventPrintStarted, FileName: next.fileName})
	case !prev.valid && next.paused:
		// First poll after a restart with the job already paused: without a
		// synthesized start the file name never reaches the panel.
		out = append(out,
			panel.Event{Kind: panel.EventPrintStarted, FileName: next.fileName},
			panel.Event{Kind: panel.EventPrintPaused})
	case next.printing && prev.paused:
		out = append(out, panel.Event{Kind: panel.EventPrintResumed})
	case next.paused && prev.printing:
		out = append(out, panel.Event{Kind: panel.EventPrintPaused})
	case prev.valid && !next.printing && !next.paused && (prev.printing || prev.paused):
		out = append(out, panel.Event{Kind: panel.EventPrintDone})
	}
	if next.printing && next.progress != prev.progress {
		out = append(out, panel.Event{Kind: panel.EventPrintProgress, Progress: next.progress})
	}
	return out
}

var _ panel.PrinterState = (*Poller)(nil)
