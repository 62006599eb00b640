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

package auto

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Forever marks an interval that never ends.
const Forever = time.Duration(math.MaxInt64)

// ErrInvalidRoutine is returned when a routine's steps are not ordered or overlap.
var ErrInvalidRoutine = errors.New("invalid routine")

// Interval is a half-open time range [Start, End) measured from the
// start of the autonomous period.
type Interval struct {
	Start time.Duration
	End   time.Duration
}

// Contains returns true if t is within the interval.
func (i Interval) Contains(t time.Duration) bool {
	return t >= i.Start && t < i.End
}

func (i Interval) String() string {
	if i.End == Forever {
		return fmt.Sprintf("[%s, ...)", i.Start)
	}
	return fmt.Sprintf("[%s, %s)", i.Start, i.End)
}

// Step is a command that is applied while the elapsed time is within its interval.
type Step struct {
	Interval
	Command Command
}

// RoutineID enumerates the compiled-in routines.
type RoutineID int

const (
	CrossLine RoutineID = iota
	CenterStraight
	LeftSwitch
	RightSwitch
	LeftScale
	RightScale
)

// Routine is a fixed, ordered list of timed steps.
type Routine struct {
	ID    RoutineID
	Name  string
	Steps []Step
}

// At returns the command for the elapsed time t.
// Steps are evaluated in ascending order and the first step containing t
// wins, so a time exactly on a boundary belongs to the later step.
// If no step contains t, the Stop command is returned.
func (r *Routine) At(t time.Duration) Command {
	if t < 0 {
		t = 0
	}
	for _, s := range r.Steps {
		if s.Contains(t) {
			return s.Command
		}
	}
	return Stop
}

// Last returns the end of the last bounded step, after which the routine
// only ever returns Stop.
func (r *Routine) Last() time.Duration {
	var last time.Duration
	for _, s := range r.Steps {
		if s.End != Forever && s.End > last {
			last = s.End
		}
	}
	return last
}

// Boundaries returns every distinct step start and end time, in order.
func (r *Routine) Boundaries() []time.Duration {
	var b []time.Duration
	add := func(d time.Duration) {
		if d == Forever {
			return
		}
		if len(b) == 0 || b[len(b)-1] != d {
			b = append(b, d)
		}
	}
	for _, s := range r.Steps {
		add(s.Start)
		add(s.End)
	}
	return b
}

// Validate checks that the steps are non-empty, ordered and do not overlap.
func (r *Routine) Validate() error {
	var prev time.Duration
	for i, s := range r.Steps {
		if s.Start < 0 || s.Start >= s.End {
			return fmt.Errorf("%s: step %d %s: %w", r.Name, i, s.Interval, ErrInvalidRoutine)
		}
		if s.Start < prev {
			return fmt.Errorf("%s: step %d %s overlaps previous step: %w", r.Name, i, s.Interval, ErrInvalidRoutine)
		}
		prev = s.End
	}
	return nil
}

// sec converts fractional seconds, as the routines are written, to a Duration.
func sec(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// step builds a step from fractional second start and end times.
func step(start, end float64, c Command) Step {
	return Step{Interval{sec(start), sec(end)}, c}
}
