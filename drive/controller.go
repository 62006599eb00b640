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

// Package drive implements the drivetrain: PWM motor controllers,
// controller groups, tank drive shaping and the motor safety watchdog.
package drive

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/aamcrae/gryphon/io"
)

// SpeedController is a motor controller accepting a power in [-1, 1].
type SpeedController interface {
	Set(power float64) error
	Get() float64
	Close() error
}

// Bounds are the servo pulse widths a motor controller understands.
// Pulses between DeadbandMin and DeadbandMax are treated as neutral by the controller.
type Bounds struct {
	Name        string
	Period      time.Duration
	Max         time.Duration
	DeadbandMax time.Duration
	Center      time.Duration
	DeadbandMin time.Duration
	Min         time.Duration
}

var (
	// Victor 888 controllers, driven at half the base PWM rate.
	Victor = Bounds{"victor", 10100 * time.Microsecond, 2027 * time.Microsecond, 1525 * time.Microsecond,
		1507 * time.Microsecond, 1490 * time.Microsecond, 1026 * time.Microsecond}
	// REV Spark controllers.
	Spark = Bounds{"spark", 5050 * time.Microsecond, 2003 * time.Microsecond, 1550 * time.Microsecond,
		1500 * time.Microsecond, 1460 * time.Microsecond, 999 * time.Microsecond}
)

// BoundsByName returns the controller bounds for a controller type name.
func BoundsByName(name string) (Bounds, error) {
	switch strings.ToLower(name) {
	case Victor.Name:
		return Victor, nil
	case Spark.Name:
		return Spark, nil
	}
	return Bounds{}, fmt.Errorf("%s: unknown motor controller type", name)
}

// Pulse converts a power to a pulse width. A zero power is the center pulse, and
// any other power is scaled across the range outside the controller's deadband.
func (b Bounds) Pulse(power float64) time.Duration {
	power = clamp(power)
	var us float64
	switch {
	case power > 0:
		us = micros(b.DeadbandMax) + power*(micros(b.Max)-micros(b.DeadbandMax))
	case power < 0:
		us = micros(b.DeadbandMin) + power*(micros(b.DeadbandMin)-micros(b.Min))
	default:
		us = micros(b.Center)
	}
	return time.Duration(math.Round(us * float64(time.Microsecond)))
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// PWMController drives a motor controller through a PWM output.
type PWMController struct {
	Name     string
	Inverted bool
	bounds   Bounds
	out      io.PWM
	mu       sync.Mutex
	power    float64
}

// NewPWMController creates a controller. The controller is left in neutral.
func NewPWMController(name string, b Bounds, out io.PWM) (*PWMController, error) {
	c := &PWMController{Name: name, bounds: b, out: out}
	if err := c.Set(0); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Set sets the power, clamped to [-1, 1].
func (c *PWMController) Set(power float64) error {
	power = clamp(power)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.power = power
	if c.Inverted {
		power = -power
	}
	return c.out.SetPulse(c.bounds.Period, c.bounds.Pulse(power))
}

// Get returns the last power set.
func (c *PWMController) Get() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.power
}

// Disable stops sending pulses, which the controller treats as a loss of signal.
func (c *PWMController) Disable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.power = 0
	return c.out.SetPulse(c.bounds.Period, 0)
}

// Close disables the controller and closes the output.
func (c *PWMController) Close() error {
	return multierr.Combine(c.Disable(), c.out.Close())
}

// Group drives several controllers with the same power, such as the
// front and rear motors on one side of the drivetrain.
type Group []SpeedController

// Set sets the power on every controller in the group.
func (g Group) Set(power float64) error {
	var err error
	for _, c := range g {
		err = multierr.Append(err, c.Set(power))
	}
	return err
}

// Get returns the power of the first controller.
func (g Group) Get() float64 {
	if len(g) == 0 {
		return 0
	}
	return g[0].Get()
}

// Close closes every controller in the group.
func (g Group) Close() error {
	var err error
	for _, c := range g {
		err = multierr.Append(err, c.Close())
	}
	return err
}
