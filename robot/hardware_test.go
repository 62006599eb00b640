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
	"errors"
	"testing"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/aamcrae/gryphon/auto"
	"github.com/aamcrae/gryphon/drive"
)

func newTestHardware(t *testing.T, conf string) *Hardware {
	t.Helper()
	cfg, err := ParseConfigString(conf)
	test.That(t, err, test.ShouldBeNil)
	hw, err := NewHardware(cfg, clock.NewMock(), zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)
	return hw
}

func TestHardwareApply(t *testing.T) {
	hw := newTestHardware(t, simConfig)
	defer hw.Close()

	test.That(t, hw.Apply(auto.Straight), test.ShouldBeNil)
	o := hw.Outputs()
	test.That(t, o.DriveLeft > 0, test.ShouldBeTrue)
	test.That(t, o.IntakeLeft < 0, test.ShouldBeTrue)
	test.That(t, o.Lift, test.ShouldEqual, 0.0)

	// Actuators the command leaves out are stopped.
	test.That(t, hw.Apply(auto.RaiseLift), test.ShouldBeNil)
	o = hw.Outputs()
	test.That(t, o.DriveLeft, test.ShouldEqual, 0.0)
	test.That(t, o.IntakeLeft, test.ShouldEqual, 0.0)
	test.That(t, o.Lift, test.ShouldEqual, 0.75)

	test.That(t, hw.SetWinch(0.5), test.ShouldBeNil)
	test.That(t, hw.StopAll(), test.ShouldBeNil)
	test.That(t, hw.Outputs(), test.ShouldResemble, Outputs{})

	hall, err := hw.HallEffect()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hall, test.ShouldBeFalse)
}

func TestHardwareApplyIntake(t *testing.T) {
	hw := newTestHardware(t, simConfig)
	defer hw.Close()

	tests := []struct {
		cmd         auto.Command
		left, right float64
	}{
		{auto.Grip, -0.5, 0.5},
		{auto.Dispense, 0.5, -0.5},
		{auto.Straight, -0.1, 0.1},
		{auto.TurnLeft, -0.1, 0.1},
		{auto.Reverse, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.cmd.Name, func(t *testing.T) {
			test.That(t, hw.Apply(tc.cmd), test.ShouldBeNil)
			left, right := hw.Intake.Sides()
			test.That(t, left, test.ShouldEqual, tc.left)
			test.That(t, right, test.ShouldEqual, tc.right)
		})
	}

	// The drivetrain is still shaped and mirrored.
	test.That(t, hw.Apply(auto.StraightSlow), test.ShouldBeNil)
	left, right := hw.Drive.Sides()
	test.That(t, left, test.ShouldBeLessThan, 0.5)
	test.That(t, right, test.ShouldBeLessThan, 0.0)
}

func TestHardwareDriveOnly(t *testing.T) {
	hw := newTestHardware(t, "[drive]\nleft=spark,sim:0\nright=spark,sim:1\n")
	defer hw.Close()
	test.That(t, hw.Intake, test.ShouldBeNil)
	test.That(t, hw.Apply(auto.Grip), test.ShouldBeNil)
	test.That(t, hw.IntakeTank(1, 1), test.ShouldBeNil)
	test.That(t, hw.SetLift(1), test.ShouldBeNil)
	test.That(t, hw.SetWinch(1), test.ShouldBeNil)
	test.That(t, hw.Outputs(), test.ShouldResemble, Outputs{})
}

type stuckController struct{}

func (stuckController) Set(float64) error { return errors.New("stuck") }
func (stuckController) Get() float64 { return 0 }
func (stuckController) Close() error { return nil }

func TestHardwareApplyErrors(t *testing.T) {
	hw := newTestHardware(t, simConfig)
	defer hw.Close()
	hw.Lift = drive.Group{stuckController{}}
	err := hw.Apply(auto.Straight)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "stuck")
	// The other actuators are still updated.
	test.That(t, hw.Outputs().DriveLeft > 0, test.ShouldBeTrue)
}

type hallPin int

func (h hallPin) Get() (int, error) { return int(h), nil }

func TestHallEffect(t *testing.T) {
	hw := newTestHardware(t, simConfig)
	defer hw.Close()
	hw.Hall = hallPin(0)
	hall, err := hw.HallEffect()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hall, test.ShouldBeTrue)
	hw.Hall = hallPin(1)
	hall, _ = hw.HallEffect()
	test.That(t, hall, test.ShouldBeFalse)
}

func TestHardwareClose(t *testing.T) {
	hw := newTestHardware(t, simConfig)
	test.That(t, len(hw.closer), test.ShouldEqual, 9)
	test.That(t, hw.Close(), test.ShouldBeNil)
	test.That(t, hw.closer, test.ShouldBeNil)
}
