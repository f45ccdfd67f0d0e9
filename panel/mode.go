// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

// ScreenMode selects which content is drawn in the top region of the frame.
type ScreenMode uint8

// Screen modes in cycle order.
const (
	ScreenSystem ScreenMode = iota
	ScreenPrinter
	ScreenPrint
)

// screenOrder is the explicit cycle the mode button walks through.
var screenOrder = [...]ScreenMode{ScreenSystem, ScreenPrinter, ScreenPrint}

// Next returns the screen mode following m, wrapping past the last member
// back to the first. It is defined for every value; an out of range mode
// restarts the cycle.
func (m ScreenMode) Next() ScreenMode {
	for i, s := range screenOrder {
		if s == m {
			return screenOrder[(i+1)%len(screenOrder)]
		}
	}
	return screenOrder[0]
}

func (m ScreenMode) String() string {
	switch m {
	case ScreenSystem:
		return "system"
	case ScreenPrinter:
		return "printer"
	case ScreenPrint:
		return "print"
	}
	return "unknown"
}
