// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package debounce suppresses duplicate logical events caused by switch
// chatter within a fixed time window.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow matches the bounce time of the panel push buttons.
const DefaultWindow = 200 * time.Millisecond

// Press filters raw rising edges on a single input channel. Each physical
// channel gets its own Press so channels never suppress each other.
//
// Press has its own lock because edges arrive from the GPIO wait goroutine,
// a context separate from the controller mailbox.
type Press struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
}

// New returns a Press with the given window. A non-positive window falls
// back to DefaultWindow.
func New(window time.Duration) *Press {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Press{window: window}
}

// Accept reports whether the edge at t is a distinct logical press. The
// first edge is always accepted; later edges are accepted when at least the
// window has elapsed since the last accepted edge, boundary inclusive.
func (p *Press) Accept(t time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.last.IsZero() && t.Sub(p.last) < p.window {
		return false
	}
	p.last = t
	return true
}
