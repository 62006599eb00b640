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
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Teleop")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldEqual, Teleop)
	test.That(t, Autonomous.String(), test.ShouldEqual, "autonomous")
	test.That(t, Mode(7).String(), test.ShouldEqual, "mode(7)")
	_, err = ParseMode("test")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStick(t *testing.T) {
	s := Stick{Axes: []float64{0.1, -0.5}, Buttons: []bool{true, false}}
	test.That(t, s.Axis(1), test.ShouldEqual, -0.5)
	test.That(t, s.Axis(5), test.ShouldEqual, 0.0)
	test.That(t, s.Axis(-1), test.ShouldEqual, 0.0)
	test.That(t, s.Button(1), test.ShouldBeTrue)
	test.That(t, s.Button(2), test.ShouldBeFalse)
	test.That(t, s.Button(0), test.ShouldBeFalse)
	test.That(t, s.Button(4), test.ShouldBeFalse)
}

func TestStationSticks(t *testing.T) {
	clk := clock.NewMock()
	st := NewStation(clk, "LRL", 2)
	test.That(t, st.Mode(), test.ShouldEqual, Disabled)
	game, loc := st.Match()
	test.That(t, game, test.ShouldEqual, "LRL")
	test.That(t, loc, test.ShouldEqual, 2)

	st.SetSticks([]Stick{{Axes: []float64{0, 1}}})
	test.That(t, st.Stick(0).Axis(1), test.ShouldEqual, 1.0)
	test.That(t, st.Stick(1).Axis(1), test.ShouldEqual, 0.0)
	clk.Add(StickTimeout)
	test.That(t, st.Stick(0).Axis(1), test.ShouldEqual, 1.0)
	// Stale sticks read as centered.
	clk.Add(time.Millisecond)
	test.That(t, st.Stick(0).Axis(1), test.ShouldEqual, 0.0)
}

func TestStationUpdate(t *testing.T) {
	clk := clock.NewMock()
	st := NewStation(clk, "", 1)
	game, loc := "RRL", 3
	err := st.Update(Packet{Mode: "autonomous", Game: &game, Location: &loc})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, st.Mode(), test.ShouldEqual, Autonomous)
	g, l := st.Match()
	test.That(t, g, test.ShouldEqual, "RRL")
	test.That(t, l, test.ShouldEqual, 3)

	// Fields left out are unchanged.
	test.That(t, st.Update(Packet{Sticks: []Stick{{Buttons: []bool{true}}}}), test.ShouldBeNil)
	test.That(t, st.Mode(), test.ShouldEqual, Autonomous)
	test.That(t, st.Stick(0).Button(1), test.ShouldBeTrue)

	err = st.Update(Packet{Mode: "practice", Game: &game})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, st.Mode(), test.ShouldEqual, Autonomous)

	state := st.State()
	test.That(t, state.Mode, test.ShouldEqual, "autonomous")
	test.That(t, state.Game, test.ShouldEqual, "RRL")
	test.That(t, len(state.Sticks), test.ShouldEqual, 1)
	test.That(t, state.Updated, test.ShouldEqual, clk.Now())
}
