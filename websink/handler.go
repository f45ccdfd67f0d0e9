// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package websink

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image/png"
	"io"
	"log"
	"mime"
	"net/http"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// snapshot returns the current frame as encoded PNG, encoding at most once
// per frame change.
func (d *Display) snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.encoded == nil {
		img := d.rendered
		if img == nil {
			img = d.renderLocked()
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			// The frame is an in-memory RGBA image; failing to encode it
			// is a programming error.
			panic(err)
		}
		d.encoded = buf.Bytes()
	}
	return d.encoded
}

// streamBoundary generates a MIME multipart boundary compatible with RFC
// 2046 (section 5.1.1).
func streamBoundary() string {
	var buf [16]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", buf[:])
}

// writeFrame sends one PNG frame as a part of the multipart entity. The
// part-ending boundary line goes out together with the frame so the client
// displays it immediately; "mime/multipart".Writer withholds the boundary
// until the entity ends, which a stream of frames never does.
func writeFrame(w io.Writer, boundary string, first bool, frame []byte) error {
	var buf bytes.Buffer
	if first {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
	}
	fmt.Fprintf(&buf, "Content-Type: image/png\r\nContent-Length: %d\r\n\r\n", len(frame))
	buf.Write(frame)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", boundary)
	_, err := buf.WriteTo(w)
	return err
}

// ServeHTTP handles HTTP GET requests. The default response is a stream of
// PNG images in a multipart/x-mixed-replace entity, one part per frame
// change. With "?still=1" a single PNG of the current frame is returned
// instead.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		log.Printf("websink: closing request body: %v", err)
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("still") != "" {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(d.snapshot())
		return
	}

	boundary := streamBoundary()
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	for first := true; ; first = false {
		if err := writeFrame(w, boundary, first, d.snapshot()); err != nil {
			// Errors terminate the request silently; there is no good way
			// to deliver an error message within an image stream.
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

var _ http.Handler = (*Display)(nil)
