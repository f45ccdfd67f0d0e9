// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// displaypanel drives a button-and-OLED status panel for an OctoPrint
// server.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/synman/OctoPrint-DisplayPanel/buttons"
	"github.com/synman/OctoPrint-DisplayPanel/config"
	"github.com/synman/OctoPrint-DisplayPanel/octoprint"
	"github.com/synman/OctoPrint-DisplayPanel/panel"
	"github.com/synman/OctoPrint-DisplayPanel/render"
	"github.com/synman/OctoPrint-DisplayPanel/sysstats"
	"github.com/synman/OctoPrint-DisplayPanel/termscreen"
	"github.com/synman/OctoPrint-DisplayPanel/websink"
)

func mainImpl() error {
	configPath := flag.String("config", "displaypanel.yaml", "path to the configuration file")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Arg(0))
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// GPIO and I2C drivers; harmless on hosts without either.
	if _, err := host.Init(); err != nil {
		logger.Printf("host init: %v", err)
	}

	sink, web, err := buildDisplay(cfg, logger)
	if err != nil {
		return err
	}

	client, err := octoprint.NewClient(&octoprint.Opts{
		BaseURL: cfg.OctoPrint.URL,
		APIKey:  cfg.OctoPrint.APIKey,
		Timeout: time.Duration(cfg.OctoPrint.RequestTimeoutS) * time.Second,
	})
	if err != nil {
		return err
	}

	var inputs panel.InputSource
	if cfg.Buttons.Enabled {
		pins := make(map[panel.Channel]string, len(cfg.Buttons.Pins))
		for name, pin := range cfg.Buttons.Pins {
			pins[panel.Channel(name)] = pin
		}
		inputs = buttons.New(&buttons.Opts{
			Pins:           pins,
			DebounceWindow: time.Duration(cfg.Buttons.DebounceMillis) * time.Millisecond,
			Logger:         logger,
		})
	}

	poller := octoprint.NewPoller(client, &octoprint.PollerOpts{
		Interval: time.Duration(cfg.OctoPrint.PollSeconds) * time.Second,
		Logger:   logger,
	})
	renderer := render.New(&render.Opts{
		Width:        cfg.Display.Width,
		Height:       cfg.Display.Height,
		BottomHeight: cfg.Display.BottomHeight,
		Estimator:    poller,
	})

	stats := sysstats.New(&sysstats.Opts{
		ProbeAddr: cfg.Stats.ProbeAddr,
		DiskPath:  cfg.Stats.DiskPath,
	})

	ctrl, err := panel.New(&panel.Opts{
		Display:       sink,
		Renderer:      renderer,
		Stats:         stats,
		Printer:       poller,
		Control:       client,
		Inputs:        inputs,
		StatsInterval: time.Duration(cfg.Stats.IntervalSeconds) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if err := ctrl.Start(); err != nil {
		return err
	}
	defer ctrl.Stop()

	// Events flow only after the controller is live.
	poller.SetEvents(ctrl.HandleEvent)
	poller.Start()
	defer poller.Stop()

	if web != nil && cfg.Web.Listen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/panel", web)
			logger.Printf("panel preview on http://%s/panel", cfg.Web.Listen)
			if err := http.ListenAndServe(cfg.Web.Listen, mux); err != nil {
				logger.Printf("web preview: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Printf("shutting down")
	return nil
}

// buildDisplay constructs the configured sink. The web preview is returned
// separately so main can serve it even when it is not the primary display.
func buildDisplay(cfg config.Config, logger *log.Logger) (display.Drawer, *websink.Display, error) {
	var web *websink.Display
	if cfg.Display.Driver == "web" || cfg.Web.Listen != "" {
		var err error
		web, err = websink.New(&websink.Opts{
			Width:   cfg.Display.Width,
			Height:  cfg.Display.Height,
			Scale:   cfg.Web.Scale,
			Caption: cfg.Web.Caption,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var primary display.Drawer
	switch cfg.Display.Driver {
	case "ssd1306":
		bus, err := i2creg.Open(cfg.Display.Bus)
		if err != nil {
			return nil, nil, fmt.Errorf("opening I2C bus: %w", err)
		}
		opts := ssd1306.DefaultOpts
		opts.W = cfg.Display.Width
		opts.H = cfg.Display.Height
		opts.Rotated = cfg.Display.Rotated
		dev, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing display: %w", err)
		}
		primary = dev
	case "term":
		primary = termscreen.New(&termscreen.Opts{
			Width:  cfg.Display.Width,
			Height: cfg.Display.Height,
		})
	case "web":
		primary = web
	}

	if web != nil && cfg.Display.Driver != "web" {
		return teeDrawer{primary, web}, web, nil
	}
	return primary, web, nil
}

// teeDrawer fans a frame out to every sink. The first sink defines the
// geometry; errors from secondary sinks are not fatal to the frame.
type teeDrawer []display.Drawer

func (t teeDrawer) String() string { return "Tee" }

func (t teeDrawer) Halt() error {
	var err error
	for _, d := range t {
		if e := d.Halt(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (t teeDrawer) ColorModel() color.Model { return t[0].ColorModel() }

func (t teeDrawer) Bounds() image.Rectangle { return t[0].Bounds() }

func (t teeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	err := t[0].Draw(r, src, sp)
	for _, d := range t[1:] {
		_ = d.Draw(r, src, sp)
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "displaypanel: %s.\n", err)
		os.Exit(1)
	}
}
