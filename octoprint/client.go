// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package octoprint sources printer state from the OctoPrint REST API.
//
// The original panel ran inside the host process and received events through
// plugin hooks. Running standalone, the panel polls the connection and job
// endpoints instead and synthesizes the same event stream from state
// transitions.
package octoprint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/synman/OctoPrint-DisplayPanel/panel"
)

// Opts configures a Client.
type Opts struct {
	// BaseURL is the OctoPrint server root, e.g. "http://localhost:5000".
	BaseURL string
	// APIKey is sent in the X-Api-Key header.
	APIKey string
	// Timeout bounds a single API request. Defaults to 5 seconds.
	Timeout time.Duration
}

// Client is a minimal OctoPrint REST API client covering the connection and
// job endpoints the panel needs.
type Client struct {
	base   *url.URL
	apiKey string
	httpc  *http.Client
}

// NewClient validates the base URL and returns a Client.
func NewClient(opts *Opts) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("octoprint: base url: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base:   base,
		apiKey: opts.APIKey,
		httpc:  &http.Client{Timeout: timeout},
	}, nil
}

// ConnectionState is the payload of GET /api/connection.
type ConnectionState struct {
	Current struct {
		State string `json:"state"`
		Port  string `json:"port"`
	} `json:"current"`
}

// Connected reports whether the serial connection to the printer is open.
func (s *ConnectionState) Connected() bool {
	switch s.Current.State {
	case "", "Closed", "Offline", "Error":
		return false
	}
	return true
}

// JobState is the payload of GET /api/job.
type JobState struct {
	State string `json:"state"`
	Job   struct {
		File struct {
			Name string `json:"name"`
		} `json:"file"`
	} `json:"job"`
	Progress struct {
		Completion    *float64 `json:"completion"`
		PrintTimeLeft *float64 `json:"printTimeLeft"`
	} `json:"progress"`
}

// Printing reports whether a print is actively running.
func (s *JobState) Printing() bool {
	return s.State == "Printing"
}

// Paused reports whether a print is paused.
func (s *JobState) Paused() bool {
	return s.State == "Paused" || s.State == "Pausing"
}

// Connection fetches the current serial connection state.
func (c *Client) Connection(ctx context.Context) (ConnectionState, error) {
	var out ConnectionState
	err := c.get(ctx, "/api/connection", &out)
	return out, err
}

// Job fetches the current job state and progress.
func (c *Client) Job(ctx context.Context) (JobState, error) {
	var out JobState
	err := c.get(ctx, "/api/job", &out)
	return out, err
}

// CancelPrint implements panel.PrinterControl.
func (c *Client) CancelPrint(ctx context.Context) error {
	return c.jobCommand(ctx, "cancel", "")
}

// PausePrint implements panel.PrinterControl.
func (c *Client) PausePrint(ctx context.Context) error {
	return c.jobCommand(ctx, "pause", "pause")
}

// ResumePrint implements panel.PrinterControl.
func (c *Client) ResumePrint(ctx context.Context) error {
	return c.jobCommand(ctx, "pause", "resume")
}

func (c *Client) jobCommand(ctx context.Context, command, action string) error {
	body := map[string]string{"command": command}
	if action != "" {
		body["action"] = action
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/job", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("octoprint: %s %s: %s", command, action, resp.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("octoprint: GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
	}
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	return req, nil
}

var _ panel.PrinterControl = (*Client)(nil)
