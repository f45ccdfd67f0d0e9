// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package octoprint

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/synman/OctoPrint-DisplayPanel/panel"
)

func TestDiff(t *testing.T) {
	idle := pollState{valid: true, connected: true}
	printing := pollState{valid: true, connected: true, printing: true, fileName: "part.gcode", progress: 1}

	for _, tc := range []struct {
		name string
		prev pollState
		next pollState
		want []panel.Event
	}{
		{
			name: "nothing changed",
			prev: idle,
			next: idle,
		},
		{
			name: "first poll connected",
			prev: pollState{},
			next: idle,
			want: []panel.Event{{Kind: panel.EventConnected}},
		},
		{
			name: "disconnect",
			prev: idle,
			next: pollState{valid: true},
			want: []panel.Event{{Kind: panel.EventDisconnected}},
		},
		{
			name: "print starts",
			prev: idle,
			next: printing,
			want: []panel.Event{
				{Kind: panel.EventPrintStarted, FileName: "part.gcode"},
				{Kind: panel.EventPrintProgress, Progress: 1},
			},
		},
		{
			name: "progress advances",
			prev: printing,
			next: pollState{valid: true, connected: true, printing: true, fileName: "part.gcode", progress: 2},
			want: []panel.Event{{Kind: panel.EventPrintProgress, Progress: 2}},
		},
		{
			name: "pause",
			prev: printing,
			next: pollState{valid: true, connected: true, paused: true, fileName: "part.gcode", progress: 1},
			want: []panel.Event{{Kind: panel.EventPrintPaused}},
		},
		{
			name: "resume",
			prev: pollState{valid: true, connected: true, paused: true, fileName: "part.gcode", progress: 1},
			next: printing,
			want: []panel.Event{{Kind: panel.EventPrintResumed}},
		},
		{
			name: "print finishes",
			prev: printing,
			next: idle,
			want: []panel.Event{{Kind: panel.EventPrintDone}},
		},
		{
			name: "idle first poll emits nothing for job",
			prev: pollState{},
			next: pollState{valid: true},
		},
		{
			name: "first poll mid print",
			prev: pollState{},
			next: printing,
			want: []panel.Event{
				{Kind: panel.EventConnected},
				{Kind: panel.EventPrintStarted, FileName: "part.gcode"},
				{Kind: panel.EventPrintProgress, Progress: 1},
			},
		},
		{
			name: "first poll mid pause",
			prev: pollState{},
			next: pollState{valid: true, connected: true, paused: true, fileName: "part.gcode", progress: 40},
			want: []panel.Event{
				{Kind: panel.EventConnected},
				{Kind: panel.EventPrintStarted, FileName: "part.gcode"},
				{Kind: panel.EventPrintPaused},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := diff(tc.prev, tc.next)
			if d := cmp.Diff(got, tc.want, cmpopts.EquateEmpty()); d != "" {
				t.Errorf("diff() difference (-got +want):\n%s", d)
			}
		})
	}
}

func TestPollerState(t *testing.T) {
	c, _ := testServer(t, `{"current": {"state": "Operational"}}`, printingJob)
	var events []panel.Event
	p := NewPoller(c, &PollerOpts{Events: func(e panel.Event) { events = append(events, e) }})

	p.poll(context.Background())

	if !p.Connected() {
		t.Error("Connected() = false after poll")
	}
	if !p.Printing() {
		t.Error("Printing() = false after poll")
	}
	if eta, ok := p.FinishTime(panel.PrintSnapshot{}); !ok || eta == "" {
		t.Errorf("FinishTime = %q, %v; want an estimate", eta, ok)
	}

	want := []panel.Event{
		{Kind: panel.EventConnected},
		{Kind: panel.EventPrintStarted, FileName: "part.gcode"},
		{Kind: panel.EventPrintProgress, Progress: 54.2},
	}
	if d := cmp.Diff(events, want); d != "" {
		t.Errorf("events difference (-got +want):\n%s", d)
	}
}
