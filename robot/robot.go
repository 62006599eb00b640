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
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/aamcrae/gryphon/auto"
)

// Teleop control profiles.
const (
	ProfilePowerUp = "powerup" // Two drive sticks plus an attachment pad
	ProfileBasic   = "basic"   // Single pad tank drive
)

const (
	slowDivisor   = 2.0
	fastDivisor   = 1.25
	intakeDivisor = 1.25
	basicDivisor  = 1.5
	winchPower    = 0.75
)

var profiles = map[string]func(*Robot) error{
	ProfilePowerUp: (*Robot).powerUp,
	ProfileBasic:   (*Robot).basic,
}

// Robot runs the mode lifecycle. On each tick it checks the driver station
// mode, runs the mode's init once on entry, then the mode's periodic update.
// All methods except Close must be called from the control loop goroutine.
type Robot struct {
	Name      string
	hw        *Hardware
	station   *Station
	seq       *auto.Sequencer
	clock     clock.Clock
	logger    *zap.SugaredLogger
	metrics   *Metrics
	telemetry *Telemetry
	teleop    func(*Robot) error
	mode      Mode
	entered   bool
	routine   string
	command   auto.Command
	divisor   float64 // Drive speed divisor in the powerup profile
	held      bool    // Speed toggle button state on the last tick
	trips     int
	lastErr   string
	overruns  int
}

// New creates a robot from its configuration and opened hardware.
func New(cfg *Config, hw *Hardware, st *Station, clk clock.Clock, logger *zap.SugaredLogger, m *Metrics, t *Telemetry) *Robot {
	teleop, ok := profiles[cfg.Profile]
	if !ok {
		teleop = (*Robot).powerUp
	}
	return &Robot{
		Name:      cfg.Name,
		hw:        hw,
		station:   st,
		seq:       auto.NewSequencer(clk, logger.Named("auto")),
		clock:     clk,
		logger:    logger,
		metrics:   m,
		telemetry: t,
		teleop:    teleop,
		divisor:   slowDivisor,
		command:   auto.Stop,
	}
}

// Tick runs one iteration of the control loop and returns the resulting record.
func (r *Robot) Tick() Record {
	start := r.clock.Now()
	mode := r.station.Mode()
	if !r.entered || mode != r.mode {
		r.enter(mode)
	}
	rec := Record{Time: start, Mode: mode.String()}
	var err error
	switch mode {
	case Autonomous:
		r.command, err = r.seq.Tick(r.hw)
		rec.Routine = r.routine
		rec.Elapsed = r.seq.Elapsed()
		rec.Command = r.command.String()
	case Teleop:
		err = r.teleop(r)
	}
	hall, herr := r.hw.HallEffect()
	rec.Hall = hall
	err = multierr.Append(err, herr)
	r.checkError(mode, err)
	if err != nil {
		rec.Error = err.Error()
	}
	if n := r.hw.Drive.Safety.Trips(); n != r.trips {
		r.metrics.Trips.Add(float64(n - r.trips))
		r.trips = n
	}
	rec.Outputs = r.hw.Outputs()
	rec.Duration = r.clock.Since(start)
	r.metrics.Ticks.WithLabelValues(mode.String()).Inc()
	r.metrics.TickTime.Observe(rec.Duration.Seconds())
	r.telemetry.Add(rec)
	return rec
}

// checkError counts actuator errors. Only a change of error is logged,
// so a failed output does not flood the log at the loop rate.
func (r *Robot) checkError(mode Mode, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
		r.metrics.Errors.WithLabelValues(mode.String()).Inc()
	}
	if msg != r.lastErr {
		if err != nil {
			r.logger.Errorw("actuator update failed", "mode", mode, "error", err)
		} else {
			r.logger.Infow("actuator updates recovered", "mode", mode)
		}
		r.lastErr = msg
	}
}

// enter runs the init for a new mode.
func (r *Robot) enter(mode Mode) {
	r.logger.Infow("mode change", "from", r.mode, "to", mode)
	r.mode = mode
	r.entered = true
	switch mode {
	case Autonomous:
		r.hw.Drive.Safety.SetEnabled(false)
		game, location := r.station.Match()
		sel := r.seq.Start(game, location)
		r.routine = sel.Routine.Name
		r.metrics.Selections.WithLabelValues(sel.Routine.Name, fallbackReason(sel.Fallback)).Inc()
	case Teleop:
		r.hw.Drive.Safety.SetEnabled(true)
		r.divisor = slowDivisor
		r.held = false
	default:
		r.hw.Drive.Safety.SetEnabled(false)
		if err := r.hw.StopAll(); err != nil {
			r.logger.Errorw("stopping actuators", "error", err)
		}
	}
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, auto.ErrInvalidGameConfig):
		return "game"
	case errors.Is(err, auto.ErrInvalidPosition):
		return "position"
	case errors.Is(err, auto.ErrNoRoutine):
		return "unmapped"
	}
	return "unknown"
}

// powerUp is the competition control profile.
// Stick 0 and 1 drive the left and right sides, and the button 1 trigger on
// stick 0 toggles between slow and fast drive speeds. The attachment pad on
// stick 2 runs the intake from its two Y axes, the lift from its triggers,
// and the winch from buttons 4 (wind) and 1 (unwind).
func (r *Robot) powerUp() error {
	left, right, pad := r.station.Stick(0), r.station.Stick(1), r.station.Stick(2)
	pressed := left.Button(1)
	if pressed && !r.held {
		if r.divisor == slowDivisor {
			r.divisor = fastDivisor
		} else {
			r.divisor = slowDivisor
		}
		r.logger.Debugw("speed toggled", "divisor", r.divisor)
	}
	r.held = pressed

	var lift float64
	if v := pad.Axis(3); v != 0 {
		lift = v
	} else if v := pad.Axis(2); v != 0 {
		lift = -v
	}
	var winch float64
	if pad.Button(4) {
		winch = winchPower
	} else if pad.Button(1) {
		winch = -winchPower
	}
	// Pushing a stick forward gives a negative axis value.
	return multierr.Combine(
		r.hw.SetLift(lift),
		r.hw.SetWinch(winch),
		r.hw.IntakeTank(-pad.Axis(1)/intakeDivisor, -pad.Axis(5)/intakeDivisor),
		r.hw.Tank(-left.Axis(1)/r.divisor, -right.Axis(1)/r.divisor),
	)
}

// basic drives from the two Y axes of a single pad on stick 0.
func (r *Robot) basic() error {
	pad := r.station.Stick(0)
	return r.hw.Tank(-pad.Axis(1)/basicDivisor, -pad.Axis(5)/basicDivisor)
}

// Divisor returns the current drive speed divisor.
func (r *Robot) Divisor() float64 {
	return r.divisor
}

// Run ticks the robot every period until the context is cancelled,
// then stops all the actuators. The drive safety watchdog runs alongside.
func (r *Robot) Run(ctx context.Context, period time.Duration) error {
	r.logger.Infow("starting control loop", "name", r.Name, "period", period)
	go r.hw.Drive.Safety.Run(ctx)
	ticker := r.clock.Ticker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Infow("stopping control loop", "overruns", r.overruns)
			r.hw.Drive.Safety.SetEnabled(false)
			return r.hw.StopAll()
		case <-ticker.C:
			rec := r.Tick()
			if rec.Duration > period {
				r.overruns++
				r.metrics.Overruns.Inc()
				r.logger.Warnw("loop overrun", "duration", rec.Duration, "period", period)
			}
		}
	}
}
