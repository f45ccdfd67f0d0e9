// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysstats collects the host statistics shown on the system screen.
//
// Collection is best effort: each field fails independently and a partial
// snapshot is still returned. Only when every field fails is the snapshot
// withheld, leaving the panel on its placeholder text.
package sysstats

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/synman/OctoPrint-DisplayPanel/panel"
)

// Opts configures a Provider.
type Opts struct {
	// ProbeAddr is the UDP address dialed to learn the outbound IP. No
	// packet is sent; the kernel just picks a route. Defaults to
	// DefaultOpts.ProbeAddr.
	ProbeAddr string
	// ProbeTimeout bounds the route lookup.
	ProbeTimeout time.Duration
	// DiskPath is the mount point reported on the disk line.
	DiskPath string
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{
	ProbeAddr:    "8.8.8.8:80",
	ProbeTimeout: 2 * time.Second,
	DiskPath:     "/",
}

// Provider implements panel.StatsProvider with gopsutil and an outbound
// route probe.
type Provider struct {
	probeAddr    string
	probeTimeout time.Duration
	diskPath     string
}

// New returns a Provider. Zero fields in opts fall back to DefaultOpts.
func New(opts *Opts) *Provider {
	p := &Provider{
		probeAddr:    opts.ProbeAddr,
		probeTimeout: opts.ProbeTimeout,
		diskPath:     opts.DiskPath,
	}
	if p.probeAddr == "" {
		p.probeAddr = DefaultOpts.ProbeAddr
	}
	if p.probeTimeout <= 0 {
		p.probeTimeout = DefaultOpts.ProbeTimeout
	}
	if p.diskPath == "" {
		p.diskPath = DefaultOpts.DiskPath
	}
	return p
}

// Collect gathers a snapshot. The returned error joins the per-field
// failures; the snapshot is valid (When set) as long as at least one field
// was collected.
func (p *Provider) Collect(ctx context.Context) (panel.SystemSnapshot, error) {
	var snap panel.SystemSnapshot
	var errs []error
	ok := false

	if ip, err := p.outboundIP(ctx); err != nil {
		errs = append(errs, fmt.Errorf("ip: %w", err))
	} else {
		snap.IP = ip
		ok = true
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("load: %w", err))
	} else {
		snap.Load = [3]float64{avg.Load1, avg.Load5, avg.Load15}
		snap.HasLoad = true
		ok = true
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		snap.MemUsed = vm.Used
		snap.MemTotal = vm.Total
		snap.MemPercent = vm.UsedPercent
		ok = true
	}

	if du, err := disk.UsageWithContext(ctx, p.diskPath); err != nil {
		errs = append(errs, fmt.Errorf("disk: %w", err))
	} else {
		snap.DiskUsed = du.Used
		snap.DiskFree = du.Free
		snap.DiskTotal = du.Total
		ok = true
	}

	if ok {
		snap.When = time.Now()
	}
	return snap, errors.Join(errs...)
}

// outboundIP reports the local address the kernel would use to reach the
// probe address. Being UDP, dialing is purely a routing table lookup.
func (p *Provider) outboundIP(ctx context.Context) (string, error) {
	d := net.Dialer{Timeout: p.probeTimeout}
	conn, err := d.DialContext(ctx, "udp4", p.probeAddr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}

var _ panel.StatsProvider = &Provider{}
