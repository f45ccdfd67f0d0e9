// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panel

import "time"

// SystemSnapshot is a point in time copy of host statistics. A provider
// replaces it wholesale on every collection; individual fields are never
// updated in place.
//
// The zero value means no collection has succeeded yet. When marks the
// collection time and doubles as the presence flag.
type SystemSnapshot struct {
	When time.Time

	// IP is the primary outbound IPv4 address, empty when unknown.
	IP string

	// Load holds the 1, 5 and 15 minute load averages.
	Load    [3]float64
	HasLoad bool

	// Memory usage in bytes plus the used percentage as reported by the
	// kernel.
	MemUsed    uint64
	MemTotal   uint64
	MemPercent float64

	// Disk usage of the root filesystem in bytes. Free excludes reserved
	// blocks, matching statvfs semantics.
	DiskUsed  uint64
	DiskFree  uint64
	DiskTotal uint64
}

// PrintSnapshot describes the current print job. FileName is set when a
// print starts and Progress advances with progress events. Neither is
// cleared when a print ends; the next started print overwrites both.
type PrintSnapshot struct {
	FileName string
	// Progress is a percentage in [0, 100].
	Progress float64
}

// PrinterStatus is the live printer connection state, read from the
// PrinterState collaborator at render time rather than cached.
type PrinterStatus struct {
	Connected bool
	Printing  bool
}
