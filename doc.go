// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package displaypanel drives a small status panel for an OctoPrint host.
//
// The panel shows rotating status screens on an SSD1306 OLED and reacts to
// four push buttons. See cmd/displaypanel for the daemon wiring the parts
// together.
package displaypanel
