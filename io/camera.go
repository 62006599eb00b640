// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package io

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/blackjack/webcam"
)

var formatMJPG = fourcc("MJPG")

func fourcc(s string) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
}

// Camera captures MJPEG frames from a V4L2 device and streams them
// to any number of HTTP clients.
type Camera struct {
	Device  string
	Width   uint32
	Height  uint32
	dev     *webcam.Webcam
	mu      sync.Mutex
	clients map[chan []byte]bool
	done    chan struct{}
	frames  int
}

// NewCamera opens the device and starts capturing.
func NewCamera(device string, width, height uint32) (*Camera, error) {
	dev, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", device, err)
	}
	if _, ok := dev.GetSupportedFormats()[formatMJPG]; !ok {
		dev.Close()
		return nil, fmt.Errorf("%s: MJPEG not supported", device)
	}
	_, w, h, err := dev.SetImageFormat(formatMJPG, width, height)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("%s: %w", device, err)
	}
	if err := dev.StartStreaming(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%s: %w", device, err)
	}
	c := &Camera{
		Device:  device,
		Width:   w,
		Height:  h,
		dev:     dev,
		clients: make(map[chan []byte]bool),
		done:    make(chan struct{}),
	}
	go c.capture()
	return c, nil
}

// capture reads frames and hands each one to the attached clients.
// Slow clients miss frames rather than stalling the capture.
func (c *Camera) capture() {
	for {
		select {
		case <-c.done:
			return
		default:
		}
		err := c.dev.WaitForFrame(1)
		var timeout *webcam.Timeout
		if errors.As(err, &timeout) {
			continue
		}
		if err != nil {
			return
		}
		buf, err := c.dev.ReadFrame()
		if err != nil || len(buf) == 0 {
			continue
		}
		frame := make([]byte, len(buf))
		copy(frame, buf)
		c.publish(frame)
	}
}

func (c *Camera) publish(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	for ch := range c.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

// clientCount returns the number of attached clients.
func (c *Camera) clientCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// Frames returns the number of frames captured.
func (c *Camera) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Close stops capturing and releases the device.
func (c *Camera) Close() error {
	close(c.done)
	return c.dev.Close()
}

// ServeHTTP streams the frames as multipart MJPEG until the client goes away.
func (c *Camera) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not supported", http.StatusMethodNotAllowed)
		return
	}
	f, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ch := make(chan []byte, 1)
	c.mu.Lock()
	c.clients[ch] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.clients, ch)
		c.mu.Unlock()
	}()

	w.Header().Set("Cache-Control", "no-cache, private")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	f.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case frame := <-ch:
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame))
			if _, err := w.Write(frame); err != nil {
				return
			}
			w.Write([]byte("\r\n"))
			f.Flush()
		}
	}
}
