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
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Edge
const (
	NONE    = iota // Default
	RISING  = iota
	FALLING = iota
	BOTH    = iota
)

var initOnce struct {
	sync.Once
	err error
}

// Init loads the host GPIO drivers. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		_, initOnce.err = host.Init()
	})
	return initOnce.err
}

// Gpio represents one GPIO pin, looked up by name (e.g "GPIO17").
type Gpio struct {
	name string
	pin  gpio.PinIO
	out  bool
	edge int
}

// OutputPin opens a GPIO pin and sets it as an output, driven low.
func OutputPin(name string) (*Gpio, error) {
	g, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := g.pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	g.out = true
	return g, nil
}

// InputPin opens a GPIO pin as an input with the pull-up enabled,
// which suits open-collector sensors such as a hall-effect switch.
func InputPin(name string) (*Gpio, error) {
	g, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := g.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return g, nil
}

func lookup(name string) (*Gpio, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%s: no such pin", name)
	}
	return &Gpio{name: name, pin: p}, nil
}

// Edge sets the edge detection on an input pin. When edge detection
// is enabled, Get blocks until the edge is seen.
func (g *Gpio) Edge(e int) error {
	if g.out {
		return fmt.Errorf("%s: not set as an input pin", g.name)
	}
	var edge gpio.Edge
	switch e {
	case NONE:
		edge = gpio.NoEdge
	case RISING:
		edge = gpio.RisingEdge
	case FALLING:
		edge = gpio.FallingEdge
	case BOTH:
		edge = gpio.BothEdges
	default:
		return fmt.Errorf("%s: unknown edge", g.name)
	}
	if err := g.pin.In(gpio.PullUp, edge); err != nil {
		return err
	}
	g.edge = e
	return nil
}

// Set the output of the GPIO pin (only valid for OUTPUT pins)
func (g *Gpio) Set(v int) error {
	if !g.out {
		return fmt.Errorf("%s: is not output", g.name)
	}
	switch v {
	case 0:
		return g.pin.Out(gpio.Low)
	case 1:
		return g.pin.Out(gpio.High)
	}
	return fmt.Errorf("%s: illegal value", g.name)
}

// Get returns the current value of the GPIO pin.
func (g *Gpio) Get() (int, error) {
	if g.edge != NONE {
		g.pin.WaitForEdge(-1)
	}
	return g.Level(), nil
}

// Level returns the current value of the pin without waiting for an edge.
func (g *Gpio) Level() int {
	if g.pin.Read() == gpio.High {
		return 1
	}
	return 0
}

// Wait blocks until an edge is seen or the timeout expires, returning
// true if an edge was seen.
func (g *Gpio) Wait(timeout time.Duration) bool {
	return g.pin.WaitForEdge(timeout)
}

// Close halts the pin.
func (g *Gpio) Close() error {
	return g.pin.Halt()
}
