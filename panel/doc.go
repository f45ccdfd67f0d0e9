// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel drives a small monochrome status display for a 3D printer
// host.
//
// The Controller owns the panel state: the active screen, the most recent
// system statistics snapshot and the state of the current print job. It
// renders the state into a full frame through a FrameRenderer and presents
// the frame on a display.Drawer, typically an SSD1306 OLED.
//
// Three asynchronous sources feed the controller: a periodic statistics
// refresh, host events (connection changes, print lifecycle, progress) and
// physical button presses. All of them are serialized through a single
// mailbox goroutine so at most one render is in flight at any time.
//
// Collaborator failures never cross the controller boundary. A failed
// statistics collection or a broken GPIO setup is logged and the panel keeps
// running in a degraded state; the next tick or event is the retry.
package panel
