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

// The compiled-in routines. All times are seconds from the start of autonomous.

var crossLine = Routine{
	ID:   CrossLine,
	Name: "cross-line",
	Steps: []Step{
		step(0, 3.5, StraightSlow),
	},
}

var centerStraight = Routine{
	ID:   CenterStraight,
	Name: "center-straight",
	Steps: []Step{
		step(0, 3.0, StraightSlow),
	},
}

// switchRoutine drives to the side of the near switch, turns to face it,
// grips and raises the cube and then dispenses it.
func switchRoutine(id RoutineID, name string, turn Command) Routine {
	return Routine{
		ID:   id,
		Name: name,
		Steps: []Step{
			step(0, 1.85, Straight),
			step(1.85, 2.6, turn),
			step(2.6, 2.7, RaiseLift),
			step(2.8, 3.1, LowerLift),
			step(3.1, 3.35, Grip),
			step(4.35, 5.0, RaiseLift),
			step(6.35, 6.85, Dispense),
			step(6.85, 7.85, LowerLift),
		},
	}
}

var leftSwitch = switchRoutine(LeftSwitch, "left-switch", TurnRight)
var rightSwitch = switchRoutine(RightSwitch, "right-switch", TurnLeft)

var leftScale = Routine{
	ID:   LeftScale,
	Name: "left-scale",
	Steps: []Step{
		step(0, 2.0, Straight),
		step(2.0, 3.0, TurnLeft),
	},
}

var rightScale = Routine{
	ID:   RightScale,
	Name: "right-scale",
	Steps: []Step{
		step(0, 1.0, StraightSlow),
		step(1.0, 4.3, Straight),
		step(4.3, 5.15, TurnLeft),
		step(5.15, 5.6, Reverse),
		step(5.6, 5.7, RaiseLift),
		step(5.8, 6.1, LowerLift),
		step(6.1, 6.35, Grip),
		step(6.35, 7.35, RaiseLift),
		step(7.35, 7.85, StraightSlow),
		step(7.85, 8.35, Dispense),
		step(8.35, 8.85, ReverseSlow),
		step(8.85, 9.85, LowerLift),
	},
}

// Routines holds every routine, indexed by RoutineID.
var Routines = []*Routine{
	CrossLine:      &crossLine,
	CenterStraight: &centerStraight,
	LeftSwitch:     &leftSwitch,
	RightSwitch:    &rightSwitch,
	LeftScale:      &leftScale,
	RightScale:     &rightScale,
}

// Default is the fallback routine used when the game configuration or
// start position cannot be mapped to a specific routine.
var Default = Routines[CrossLine]

// ByName returns the routine with the given name, or nil.
func ByName(name string) *Routine {
	for _, r := range Routines {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (id RoutineID) String() string {
	if int(id) >= 0 && int(id) < len(Routines) {
		return Routines[id].Name
	}
	return "unknown"
}
