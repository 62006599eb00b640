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

package drive

import (
	"math"

	"go.uber.org/multierr"
)

// DefaultDeadband is the input deadband applied to tank drive inputs.
const DefaultDeadband = 0.02

// Differential is a tank drive: the left and right sides are driven independently.
// The right side is mounted mirrored, so its power is inverted.
type Differential struct {
	left      SpeedController
	right     SpeedController
	Deadband  float64
	MaxOutput float64
	Squared   bool // Square inputs (preserving sign) for finer low speed control
	Safety    *Safety
}

// NewDifferential creates a tank drive with the default shaping.
func NewDifferential(left, right SpeedController) *Differential {
	return &Differential{
		left:      left,
		right:     right,
		Deadband:  DefaultDeadband,
		MaxOutput: 1.0,
		Squared:   true,
	}
}

// Tank drives each side at the power given, after shaping, and feeds the safety watchdog.
func (d *Differential) Tank(left, right float64) error {
	left = d.shape(left)
	right = d.shape(right)
	err := multierr.Combine(
		d.left.Set(left*d.MaxOutput),
		d.right.Set(-right*d.MaxOutput),
	)
	if d.Safety != nil {
		d.Safety.Feed()
	}
	return err
}

// Set drives each side controller at exactly the power given. Unlike Tank,
// there is no shaping and the right side is not inverted.
func (d *Differential) Set(left, right float64) error {
	err := multierr.Combine(d.left.Set(left), d.right.Set(right))
	if d.Safety != nil {
		d.Safety.Feed()
	}
	return err
}

// Sides returns the power of the left and right side controllers.
func (d *Differential) Sides() (float64, float64) {
	return d.left.Get(), d.right.Get()
}

// Powers returns the current left and right side powers, as commanded
// before the right side inversion.
func (d *Differential) Powers() (float64, float64) {
	return d.left.Get(), -d.right.Get()
}

// Stop drives both sides at zero power. Unlike StopMotor, this counts as an update.
func (d *Differential) Stop() error {
	return d.Tank(0, 0)
}

// StopMotor sets both sides to zero. It does not feed the watchdog.
func (d *Differential) StopMotor() error {
	return multierr.Combine(d.left.Set(0), d.right.Set(0))
}

// Close closes both sides.
func (d *Differential) Close() error {
	return multierr.Combine(d.left.Close(), d.right.Close())
}

func (d *Differential) shape(v float64) float64 {
	v = applyDeadband(clamp(v), d.Deadband)
	if d.Squared {
		v = math.Copysign(v*v, v)
	}
	return v
}

// applyDeadband zeroes small inputs and rescales the rest so that
// the output still covers the full range.
func applyDeadband(v, deadband float64) float64 {
	if math.Abs(v) <= deadband {
		return 0
	}
	if v > 0 {
		return (v - deadband) / (1 - deadband)
	}
	return (v + deadband) / (1 - deadband)
}
