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

package robot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Mode is the robot operating mode set by the driver station.
type Mode int

const (
	Disabled Mode = iota
	Autonomous
	Teleop
)

var modeNames = []string{"disabled", "autonomous", "teleop"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if s == n {
			return Mode(i), nil
		}
	}
	return Disabled, fmt.Errorf("%s: unknown mode", s)
}

// StickTimeout is how long joystick values are trusted without an update.
// After that, the sticks read as centered with no buttons pressed.
const StickTimeout = 500 * time.Millisecond

// Stick is a snapshot of one joystick or gamepad.
// Axes are numbered from 0, buttons from 1.
type Stick struct {
	Axes    []float64 `json:"axes"`
	Buttons []bool    `json:"buttons"`
}

// Axis returns the value of an axis, or 0 if the stick doesn't have it.
func (s Stick) Axis(n int) float64 {
	if n < 0 || n >= len(s.Axes) {
		return 0
	}
	return s.Axes[n]
}

// Button returns true if the button is pressed.
func (s Stick) Button(n int) bool {
	if n < 1 || n > len(s.Buttons) {
		return false
	}
	return s.Buttons[n-1]
}

// Packet is a driver station update. Fields left out are unchanged.
type Packet struct {
	Mode     string  `json:"mode,omitempty"`
	Game     *string `json:"game,omitempty"`
	Location *int    `json:"location,omitempty"`
	Sticks   []Stick `json:"sticks,omitempty"`
}

// StationState is a copy of the driver station state.
type StationState struct {
	Mode     string    `json:"mode"`
	Game     string    `json:"game"`
	Location int       `json:"location"`
	Sticks   []Stick   `json:"sticks"`
	Updated  time.Time `json:"updated"`
}

// Station holds the latest state sent by the driver station.
// It is updated by the HTTP handlers and read by the control loop.
type Station struct {
	clock    clock.Clock
	mu       sync.Mutex
	mode     Mode
	game     string
	location int
	sticks   []Stick
	updated  time.Time // Time of the last joystick update
}

// NewStation creates a disabled station with the initial match data.
func NewStation(clk clock.Clock, game string, location int) *Station {
	return &Station{clock: clk, game: game, location: location}
}

// Mode returns the current mode.
func (s *Station) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode sets the mode.
func (s *Station) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Match returns the game specific message and the driver station location.
func (s *Station) Match() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game, s.location
}

// SetMatch sets the game specific message and the driver station location.
func (s *Station) SetMatch(game string, location int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = game
	s.location = location
}

// SetSticks replaces the joystick snapshots.
func (s *Station) SetSticks(sticks []Stick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sticks = sticks
	s.updated = s.clock.Now()
}

// Stick returns the snapshot of joystick n, numbered from 0.
// A missing or stale stick is returned as centered.
func (s *Station) Stick(n int) Stick {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n >= len(s.sticks) || s.clock.Since(s.updated) > StickTimeout {
		return Stick{}
	}
	return s.sticks[n]
}

// Update applies a driver station packet.
func (s *Station) Update(p Packet) error {
	var mode Mode
	if p.Mode != "" {
		var err error
		if mode, err = ParseMode(p.Mode); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Mode != "" {
		s.mode = mode
	}
	if p.Game != nil {
		s.game = *p.Game
	}
	if p.Location != nil {
		s.location = *p.Location
	}
	if p.Sticks != nil {
		s.sticks = p.Sticks
		s.updated = s.clock.Now()
	}
	return nil
}

// State returns a copy of the station state.
func (s *Station) State() StationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StationState{
		Mode:     s.mode.String(),
		Game:     s.game,
		Location: s.location,
		Sticks:   append([]Stick(nil), s.sticks...),
		Updated:  s.updated,
	}
}
