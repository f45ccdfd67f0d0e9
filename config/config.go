// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the panel configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete panel configuration.
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	Buttons   ButtonsConfig   `yaml:"buttons"`
	Stats     StatsConfig     `yaml:"stats"`
	OctoPrint OctoPrintConfig `yaml:"octoprint"`
	Web       WebConfig       `yaml:"web"`
}

// DisplayConfig selects and parameterizes the display sink.
type DisplayConfig struct {
	// Driver is one of "ssd1306", "term" or "web".
	Driver string `yaml:"driver"`
	// Bus is the I2C bus name for the ssd1306 driver; empty picks the
	// first available bus.
	Bus string `yaml:"bus"`
	// Rotated flips the display by 180 degrees.
	Rotated bool `yaml:"rotated"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	// BottomHeight is the height of the persistent status band.
	BottomHeight int `yaml:"bottom_height"`
}

// ButtonsConfig wires the physical input channels.
type ButtonsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Pins maps channel name (mode, cancel, play, pause) to a GPIO pin
	// name.
	Pins map[string]string `yaml:"pins"`
	// DebounceMillis is the per-channel debounce window.
	DebounceMillis int `yaml:"debounce_millis"`
}

// StatsConfig controls the system statistics collection.
type StatsConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	ProbeAddr       string `yaml:"probe_addr"`
	DiskPath        string `yaml:"disk_path"`
}

// OctoPrintConfig points at the OctoPrint server.
type OctoPrintConfig struct {
	URL             string `yaml:"url"`
	APIKey          string `yaml:"api_key"`
	PollSeconds     int    `yaml:"poll_seconds"`
	RequestTimeoutS int    `yaml:"request_timeout_seconds"`
}

// WebConfig controls the browser preview of the panel.
type WebConfig struct {
	// Listen is the HTTP listen address, e.g. ":8081". Empty disables
	// the preview unless the web display driver is selected.
	Listen  string `yaml:"listen"`
	Scale   int    `yaml:"scale"`
	Caption string `yaml:"caption"`
}

// Default returns the configuration for a stock panel: 128x64 SSD1306 on the
// first I2C bus, reference button wiring, 5 second statistics refresh.
func Default() Config {
	return Config{
		Display: DisplayConfig{
			Driver:       "ssd1306",
			Width:        128,
			Height:       64,
			BottomHeight: 22,
		},
		Buttons: ButtonsConfig{
			Enabled: true,
			Pins: map[string]string{
				"mode":   "GPIO4",
				"cancel": "GPIO22",
				"play":   "GPIO17",
				"pause":  "GPIO27",
			},
			DebounceMillis: 200,
		},
		Stats: StatsConfig{
			IntervalSeconds: 5,
			ProbeAddr:       "8.8.8.8:80",
			DiskPath:        "/",
		},
		OctoPrint: OctoPrintConfig{
			URL:         "http://localhost:5000",
			PollSeconds: 2,
		},
		Web: WebConfig{
			Scale:   4,
			Caption: "OctoPrint display panel",
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error;
// the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Display.Driver {
	case "ssd1306", "term":
	case "web":
		// The web driver has no other output; an unserved websink would
		// render frames nobody can reach.
		if c.Web.Listen == "" {
			return fmt.Errorf("web display driver needs a web.listen address")
		}
	default:
		return fmt.Errorf("unknown display driver %q", c.Display.Driver)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.BottomHeight <= 0 || c.Display.BottomHeight >= c.Display.Height {
		return fmt.Errorf("invalid bottom band height %d", c.Display.BottomHeight)
	}
	for name := range c.Buttons.Pins {
		switch name {
		case "mode", "cancel", "play", "pause":
		default:
			return fmt.Errorf("unknown button channel %q", name)
		}
	}
	if c.Stats.IntervalSeconds <= 0 {
		return fmt.Errorf("stats interval must be positive")
	}
	return nil
}
