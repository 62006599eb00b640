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
	"strings"
)

var (
	ErrInvalidGameConfig = errors.New("invalid game configuration")
	ErrInvalidPosition   = errors.New("invalid start position")
	ErrNoRoutine         = errors.New("no routine for game configuration and position")
)

// Side is the side of a field element that belongs to the alliance.
type Side byte

const (
	SideLeft  Side = 'L'
	SideRight Side = 'R'
)

// GameConfig is the validated 3 character game message. Each character
// is the alliance side of the near switch, the scale and the far switch,
// as seen from the alliance station.
type GameConfig [3]Side

// ParseGameConfig validates the game message.
func ParseGameConfig(s string) (GameConfig, error) {
	var g GameConfig
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != len(g) {
		return g, fmt.Errorf("%q: %w", s, ErrInvalidGameConfig)
	}
	for i := range g {
		switch Side(s[i]) {
		case SideLeft, SideRight:
			g[i] = Side(s[i])
		default:
			return GameConfig{}, fmt.Errorf("%q: %w", s, ErrInvalidGameConfig)
		}
	}
	return g, nil
}

// Switch returns the side of the near switch.
func (g GameConfig) Switch() Side { return g[0] }

// Scale returns the side of the scale.
func (g GameConfig) Scale() Side { return g[1] }

func (g GameConfig) String() string {
	return string([]byte{byte(g[0]), byte(g[1]), byte(g[2])})
}

// Position is the starting position of the robot in the alliance station.
type Position int

const (
	PositionLeft   Position = 1
	PositionCenter Position = 2
	PositionRight  Position = 3
)

// ParsePosition validates the driver station location.
func ParsePosition(n int) (Position, error) {
	p := Position(n)
	switch p {
	case PositionLeft, PositionCenter, PositionRight:
		return p, nil
	}
	return 0, fmt.Errorf("%d: %w", n, ErrInvalidPosition)
}

type key struct {
	game GameConfig
	pos  Position
}

// table maps every valid (game configuration, position) pair to a routine.
var table = buildTable()

func buildTable() map[key]RoutineID {
	t := make(map[key]RoutineID)
	sides := []Side{SideLeft, SideRight}
	for _, a := range sides {
		for _, b := range sides {
			for _, c := range sides {
				g := GameConfig{a, b, c}
				for _, p := range []Position{PositionLeft, PositionCenter, PositionRight} {
					t[key{g, p}] = choose(g, p)
				}
			}
		}
	}
	return t
}

// choose prefers the near switch when it is on the robot's side,
// then the scale, and otherwise just crosses the line.
func choose(g GameConfig, p Position) RoutineID {
	switch p {
	case PositionCenter:
		return CenterStraight
	case PositionLeft:
		if g.Switch() == SideLeft {
			return LeftSwitch
		}
		if g.Scale() == SideLeft {
			return LeftScale
		}
	case PositionRight:
		if g.Switch() == SideRight {
			return RightSwitch
		}
		if g.Scale() == SideRight {
			return RightScale
		}
	}
	return CrossLine
}

// Selection is the result of choosing a routine.
type Selection struct {
	Routine  *Routine
	Game     string
	Position int
	// Fallback is non-nil if the default routine was used because the
	// inputs could not be mapped.
	Fallback error
}

// Select maps the game message and driver station location to a routine.
// Select never fails; an unusable game message or location resolves to
// the Default routine, with the reason recorded in the Selection.
func Select(game string, position int) Selection {
	sel := Selection{Routine: Default, Game: game, Position: position}
	g, err := ParseGameConfig(game)
	if err != nil {
		sel.Fallback = err
		return sel
	}
	p, err := ParsePosition(position)
	if err != nil {
		sel.Fallback = err
		return sel
	}
	// Every valid pair is in the table, so this only falls back if an
	// entry is taken out of it.
	id, ok := table[key{g, p}]
	if !ok {
		sel.Fallback = fmt.Errorf("%s/%d: %w", g, p, ErrNoRoutine)
		return sel
	}
	sel.Routine = Routines[id]
	return sel
}
