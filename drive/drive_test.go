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
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/aamcrae/gryphon/io"
)

func TestPulse(t *testing.T) {
	us := time.Microsecond
	test.That(t, Spark.Pulse(0), test.ShouldEqual, 1500*us)
	test.That(t, Spark.Pulse(1), test.ShouldEqual, 2003*us)
	test.That(t, Spark.Pulse(-1), test.ShouldEqual, 999*us)
	test.That(t, Spark.Pulse(2), test.ShouldEqual, 2003*us)
	test.That(t, Victor.Pulse(0), test.ShouldEqual, 1507*us)
	test.That(t, Victor.Pulse(1), test.ShouldEqual, 2027*us)
	test.That(t, Victor.Pulse(-1), test.ShouldEqual, 1026*us)
	// Half power is half way between the deadband edge and the limit.
	test.That(t, Victor.Pulse(0.5), test.ShouldEqual, 1776*us)
	test.That(t, Spark.Pulse(-0.5), test.ShouldEqual, 1229500*time.Nanosecond)
}

func TestBoundsByName(t *testing.T) {
	b, err := BoundsByName("Victor")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b, test.ShouldResemble, Victor)
	_, err = BoundsByName("talon")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestController(t *testing.T) {
	out := &io.SimPWM{}
	c, err := NewPWMController("left", Spark, out)
	test.That(t, err, test.ShouldBeNil)
	period, width, writes := out.Pulse()
	test.That(t, period, test.ShouldEqual, Spark.Period)
	test.That(t, width, test.ShouldEqual, Spark.Center)
	test.That(t, writes, test.ShouldEqual, 1)

	test.That(t, c.Set(1.5), test.ShouldBeNil)
	test.That(t, c.Get(), test.ShouldEqual, 1.0)
	_, width, _ = out.Pulse()
	test.That(t, width, test.ShouldEqual, Spark.Max)

	c.Inverted = true
	test.That(t, c.Set(1), test.ShouldBeNil)
	test.That(t, c.Get(), test.ShouldEqual, 1.0)
	_, width, _ = out.Pulse()
	test.That(t, width, test.ShouldEqual, Spark.Min)

	test.That(t, c.Close(), test.ShouldBeNil)
	_, width, _ = out.Pulse()
	test.That(t, width, test.ShouldEqual, time.Duration(0))
	test.That(t, out.Closed(), test.ShouldBeTrue)
}

type fakeController struct {
	power float64
	err   error
}

func (f *fakeController) Set(p float64) error { f.power = p; return f.err }
func (f *fakeController) Get() float64 { return f.power }
func (f *fakeController) Close() error { return f.err }

func TestGroup(t *testing.T) {
	a, b := &fakeController{}, &fakeController{err: errors.New("stalled")}
	g := Group{a, b}
	err := g.Set(0.75)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "stalled")
	test.That(t, a.power, test.ShouldEqual, 0.75)
	test.That(t, b.power, test.ShouldEqual, 0.75)
	test.That(t, g.Get(), test.ShouldEqual, 0.75)
	test.That(t, Group{}.Get(), test.ShouldEqual, 0.0)
}

func TestTank(t *testing.T) {
	l, r := &fakeController{}, &fakeController{}
	d := NewDifferential(l, r)

	test.That(t, d.Tank(1, 1), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldEqual, 1.0)
	test.That(t, r.power, test.ShouldEqual, -1.0)

	// Inside the deadband.
	test.That(t, d.Tank(0.01, -0.02), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldEqual, 0.0)
	test.That(t, r.power, test.ShouldEqual, 0.0)

	// Rescaled past the deadband, then squared keeping the sign.
	test.That(t, d.Tank(0.51, -0.51), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldAlmostEqual, 0.25, 1e-9)
	test.That(t, r.power, test.ShouldAlmostEqual, 0.25, 1e-9)
	left, right := d.Powers()
	test.That(t, left, test.ShouldAlmostEqual, 0.25, 1e-9)
	test.That(t, right, test.ShouldAlmostEqual, -0.25, 1e-9)

	d.Squared = false
	d.MaxOutput = 0.5
	test.That(t, d.Tank(-2, 0.51), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldEqual, -0.5)
	test.That(t, r.power, test.ShouldAlmostEqual, -0.25, 1e-9)

	test.That(t, d.StopMotor(), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldEqual, 0.0)
	test.That(t, r.power, test.ShouldEqual, 0.0)
}

func TestDifferentialSet(t *testing.T) {
	l, r := &fakeController{}, &fakeController{}
	d := NewDifferential(l, r)
	test.That(t, d.Set(-0.5, 0.5), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldEqual, -0.5)
	test.That(t, r.power, test.ShouldEqual, 0.5)
	left, right := d.Sides()
	test.That(t, left, test.ShouldEqual, -0.5)
	test.That(t, right, test.ShouldEqual, 0.5)

	// Small powers are not lost in the deadband.
	test.That(t, d.Set(0.01, -0.1), test.ShouldBeNil)
	test.That(t, l.power, test.ShouldEqual, 0.01)
	test.That(t, r.power, test.ShouldEqual, -0.1)
}

func TestDeadband(t *testing.T) {
	test.That(t, applyDeadband(0.02, 0.02), test.ShouldEqual, 0.0)
	test.That(t, applyDeadband(1, 0.02), test.ShouldEqual, 1.0)
	test.That(t, applyDeadband(-1, 0.02), test.ShouldEqual, -1.0)
	test.That(t, math.Abs(applyDeadband(-0.51, 0.02)+0.5) < 1e-9, test.ShouldBeTrue)
}

func newTestSafety() (*Differential, *fakeController, *clock.Mock, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	clk := clock.NewMock()
	l, r := &fakeController{}, &fakeController{}
	d := NewDifferential(l, r)
	d.Safety = NewSafety("drive", clk, DefaultExpiration, d, zap.New(core).Sugar())
	return d, l, clk, logs
}

func TestSafety(t *testing.T) {
	d, l, clk, logs := newTestSafety()
	test.That(t, d.Tank(1, 1), test.ShouldBeNil)

	// Disabled watchdog never trips.
	clk.Add(time.Second)
	test.That(t, d.Safety.Check(), test.ShouldBeFalse)
	test.That(t, l.power, test.ShouldEqual, 1.0)

	d.Safety.SetEnabled(true)
	test.That(t, d.Safety.Enabled(), test.ShouldBeTrue)
	clk.Add(50 * time.Millisecond)
	test.That(t, d.Safety.Check(), test.ShouldBeFalse)
	test.That(t, d.Tank(1, 1), test.ShouldBeNil)
	clk.Add(90 * time.Millisecond)
	test.That(t, d.Safety.Check(), test.ShouldBeFalse)
	test.That(t, l.power, test.ShouldEqual, 1.0)

	clk.Add(20 * time.Millisecond)
	test.That(t, d.Safety.Check(), test.ShouldBeTrue)
	test.That(t, l.power, test.ShouldEqual, 0.0)
	test.That(t, d.Safety.Trips(), test.ShouldEqual, 1)

	// Stays tripped, but only counts and logs once until fed.
	clk.Add(20 * time.Millisecond)
	test.That(t, d.Safety.Check(), test.ShouldBeTrue)
	test.That(t, d.Safety.Trips(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("output not updated often enough, stopping motors").Len(), test.ShouldEqual, 1)

	test.That(t, d.Tank(0.5, 0.5), test.ShouldBeNil)
	test.That(t, d.Safety.Check(), test.ShouldBeFalse)
	clk.Add(200 * time.Millisecond)
	test.That(t, d.Safety.Check(), test.ShouldBeTrue)
	test.That(t, d.Safety.Trips(), test.ShouldEqual, 2)
}

func TestSafetyRun(t *testing.T) {
	d, l, clk, _ := newTestSafety()
	d.Safety.SetEnabled(true)
	test.That(t, d.Tank(1, 1), test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Safety.Run(ctx)
		close(done)
	}()
	// Give the goroutine time to create its ticker.
	time.Sleep(10 * time.Millisecond)
	clk.Add(200 * time.Millisecond)
	for i := 0; i < 100 && d.Safety.Trips() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	test.That(t, d.Safety.Trips(), test.ShouldEqual, 1)
	test.That(t, l.power, test.ShouldEqual, 0.0)
}
