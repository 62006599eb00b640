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

// Package auto implements the timed autonomous sequencer.
package auto

import (
	"fmt"
	"strings"
)

// Actuator identifies a mechanism that can be driven by a command.
type Actuator int

const (
	Drivetrain Actuator = iota
	Intake
	Lift
)

// Actuators lists every actuator, in the order they are applied.
var Actuators = []Actuator{Drivetrain, Intake, Lift}

func (a Actuator) String() string {
	switch a {
	case Drivetrain:
		return "drivetrain"
	case Intake:
		return "intake"
	case Lift:
		return "lift"
	}
	return fmt.Sprintf("actuator(%d)", int(a))
}

// Output is a power setting for one actuator. Power values are in the range [-1, 1].
// Single channel actuators (the lift) only use Left.
type Output struct {
	Actuator Actuator
	Left     float64
	Right    float64
}

// Command is a named open-loop motion primitive, applied for the duration of one tick.
// Any actuator that does not have an Output in the command is driven to zero power.
type Command struct {
	Name    string
	Outputs []Output
}

// Output returns the output for the actuator, and whether the command sets it.
func (c Command) Output(a Actuator) (Output, bool) {
	for _, o := range c.Outputs {
		if o.Actuator == a {
			return o, true
		}
	}
	return Output{Actuator: a}, false
}

// IsStop returns true if the command drives every actuator to zero.
func (c Command) IsStop() bool {
	for _, o := range c.Outputs {
		if o.Left != 0 || o.Right != 0 {
			return false
		}
	}
	return true
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, o := range c.Outputs {
		if o.Actuator == Lift {
			fmt.Fprintf(&b, " %s=%.2f", o.Actuator, o.Left)
		} else {
			fmt.Fprintf(&b, " %s=%.2f/%.2f", o.Actuator, o.Left, o.Right)
		}
	}
	return b.String()
}

func drive(l, r float64) Output { return Output{Actuator: Drivetrain, Left: l, Right: r} }
func intake(l, r float64) Output { return Output{Actuator: Intake, Left: l, Right: r} }
func lift(v float64) Output { return Output{Actuator: Lift, Left: v} }

// Intake hold power applied while driving so that a cube is not dropped.
const holdPower = 0.1

// The fixed menu of motion primitives.
var (
	Stop         = Command{Name: "stop"}
	Straight     = Command{Name: "straight", Outputs: []Output{drive(0.75, 0.80), intake(-holdPower, holdPower)}}
	StraightSlow = Command{Name: "straight-slow", Outputs: []Output{drive(0.5, 0.55)}}
	Reverse      = Command{Name: "reverse", Outputs: []Output{drive(-0.75, -0.75)}}
	ReverseSlow  = Command{Name: "reverse-slow", Outputs: []Output{drive(-0.5, -0.5)}}
	TurnLeft     = Command{Name: "turn-left", Outputs: []Output{drive(-0.5, 0.5), intake(-holdPower, holdPower)}}
	TurnRight    = Command{Name: "turn-right", Outputs: []Output{drive(0.5, -0.5), intake(-holdPower, holdPower)}}
	RaiseLift    = Command{Name: "raise-lift", Outputs: []Output{lift(0.75)}}
	LowerLift    = Command{Name: "lower-lift", Outputs: []Output{lift(0.1)}}
	Grip         = Command{Name: "grip", Outputs: []Output{intake(-0.5, 0.5)}}
	Dispense     = Command{Name: "dispense", Outputs: []Output{intake(0.5, -0.5)}}
)
