// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import "time"

// EventKind enumerates the host events the controller reacts to.
type EventKind int

const (
	EventConnected EventKind = iota
	EventConnecting
	EventDisconnected
	EventDisconnecting
	EventConnectivityChanged
	EventPrintStarted
	EventPrintPaused
	EventPrintResumed
	EventPrintFailed
	EventPrintDone
	EventPrintCancelled
	EventPrintProgress
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventConnecting:
		return "connecting"
	case EventDisconnected:
		return "disconnected"
	case EventDisconnecting:
		return "disconnecting"
	case EventConnectivityChanged:
		return "connectivity-changed"
	case EventPrintStarted:
		return "print-started"
	case EventPrintPaused:
		return "print-paused"
	case EventPrintResumed:
		return "print-resumed"
	case EventPrintFailed:
		return "print-failed"
	case EventPrintDone:
		return "print-done"
	case EventPrintCancelled:
		return "print-cancelled"
	case EventPrintProgress:
		return "print-progress"
	}
	return "unknown"
}

// Event is a typed notification from the host. FileName is meaningful for
// EventPrintStarted, Progress for EventPrintProgress.
type Event struct {
	Kind     EventKind
	FileName string
	Progress float64
}

// Channel identifies a physical input button.
type Channel string

// The four input channels of the panel. Only ChannelMode affects the screen
// cycle; the other three are forwarded to the printer control collaborator.
const (
	ChannelMode   Channel = "mode"
	ChannelCancel Channel = "cancel"
	ChannelPlay   Channel = "play"
	ChannelPause  Channel = "pause"
)

// Channels lists every valid input channel.
var Channels = []Channel{ChannelMode, ChannelCancel, ChannelPlay, ChannelPause}

// PressFunc receives a debounced button press with the edge timestamp.
type PressFunc func(ch Channel, at time.Time)
