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
	"strconv"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/aamcrae/gryphon/auto"
	"github.com/aamcrae/gryphon/drive"
	"github.com/aamcrae/gryphon/io"
)

// Hardware holds every actuator and sensor on the robot.
// Mechanisms that are not configured are nil.
type Hardware struct {
	Drive  *drive.Differential
	Intake *drive.Differential
	Lift   drive.SpeedController
	Winch  drive.SpeedController
	Hall   io.Getter
	Camera *io.Camera
	logger *zap.SugaredLogger
	closer []func() error
}

// NewHardware opens the outputs and inputs described by the configuration.
// If any fails to open, those already opened are closed again.
func NewHardware(cfg *Config, clk clock.Clock, logger *zap.SugaredLogger) (h *Hardware, err error) {
	h = &Hardware{logger: logger}
	defer func() {
		if err != nil {
			err = multierr.Append(err, h.Close())
			h = nil
		}
	}()
	if h.Drive, err = h.differential("drive", &cfg.Drive, cfg.PWMChip); err != nil {
		return
	}
	h.Drive.Safety = drive.NewSafety("drive", clk, cfg.Drive.Expiration, h.Drive, logger)
	if cfg.Intake != nil {
		if h.Intake, err = h.differential("intake", cfg.Intake, cfg.PWMChip); err != nil {
			return
		}
	}
	if cfg.Lift != nil {
		if h.Lift, err = h.group("lift", cfg.Lift, cfg.PWMChip); err != nil {
			return
		}
	}
	if cfg.Winch != nil {
		if h.Winch, err = h.group("winch", cfg.Winch, cfg.PWMChip); err != nil {
			return
		}
	}
	if cfg.Hall != "" {
		var pin *io.Gpio
		if pin, err = io.InputPin(cfg.Hall); err != nil {
			err = fmt.Errorf("hall sensor: %w", err)
			return
		}
		h.Hall = pin
		h.closer = append(h.closer, pin.Close)
	}
	if cfg.Camera != nil {
		// The robot runs without a camera rather than not at all.
		cam, cerr := io.NewCamera(cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height)
		if cerr != nil {
			logger.Warnw("camera unavailable", "device", cfg.Camera.Device, "error", cerr)
		} else {
			logger.Infow("camera started", "device", cam.Device, "width", cam.Width, "height", cam.Height)
			h.Camera = cam
			h.closer = append(h.closer, cam.Close)
		}
	}
	return h, nil
}

func (h *Hardware) differential(name string, d *DriveConfig, chip int) (*drive.Differential, error) {
	left, err := h.group(name+"-left", d.Left, chip)
	if err != nil {
		return nil, err
	}
	right, err := h.group(name+"-right", d.Right, chip)
	if err != nil {
		return nil, err
	}
	diff := drive.NewDifferential(left, right)
	diff.Deadband = d.Deadband
	diff.MaxOutput = d.MaxOutput
	diff.Squared = d.Squared
	return diff, nil
}

func (h *Hardware) group(name string, chans []Channel, chip int) (drive.SpeedController, error) {
	var g drive.Group
	for i, ch := range chans {
		out, err := openOutput(ch, chip)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", name, ch, err)
		}
		c, err := drive.NewPWMController(fmt.Sprintf("%s-%d", name, i), ch.Bounds, out)
		if err != nil {
			return nil, multierr.Append(err, out.Close())
		}
		c.Inverted = ch.Inverted
		h.closer = append(h.closer, c.Close)
		h.logger.Debugw("opened motor controller", "name", c.Name, "channel", ch.String())
		g = append(g, c)
	}
	return g, nil
}

// openOutput opens the PWM output for a channel.
func openOutput(ch Channel, chip int) (io.PWM, error) {
	switch ch.Backend {
	case BackendPWM:
		unit, err := strconv.Atoi(ch.Unit)
		if err != nil {
			return nil, err
		}
		p, err := io.NewHwPWM(chip, unit)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendGPIO:
		pin, err := io.OutputPin(ch.Unit)
		if err != nil {
			return nil, err
		}
		return io.NewSwPWM(pin), nil
	case BackendSim:
		unit, err := strconv.Atoi(ch.Unit)
		if err != nil {
			return nil, err
		}
		return &io.SimPWM{Unit: unit}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", ch.Backend)
}

// Apply sets every actuator from the command. Actuators the command does
// not mention are set to zero, so nothing keeps running from an earlier command.
// Intake outputs are the powers of the individual intake motors, so they
// bypass the tank drive shaping.
func (h *Hardware) Apply(c auto.Command) error {
	var err error
	for _, a := range auto.Actuators {
		o, _ := c.Output(a)
		switch a {
		case auto.Drivetrain:
			err = multierr.Append(err, h.Drive.Tank(o.Left, o.Right))
		case auto.Intake:
			if h.Intake != nil {
				err = multierr.Append(err, h.Intake.Set(o.Left, o.Right))
			}
		case auto.Lift:
			if h.Lift != nil {
				err = multierr.Append(err, h.Lift.Set(o.Left))
			}
		}
	}
	return err
}

// Tank drives the drivetrain.
func (h *Hardware) Tank(left, right float64) error {
	return h.Drive.Tank(left, right)
}

// IntakeTank drives the intake wheels, if fitted.
func (h *Hardware) IntakeTank(left, right float64) error {
	if h.Intake == nil {
		return nil
	}
	return h.Intake.Tank(left, right)
}

// SetLift sets the lift power, if fitted.
func (h *Hardware) SetLift(power float64) error {
	if h.Lift == nil {
		return nil
	}
	return h.Lift.Set(power)
}

// SetWinch sets the winch power, if fitted.
func (h *Hardware) SetWinch(power float64) error {
	if h.Winch == nil {
		return nil
	}
	return h.Winch.Set(power)
}

// StopAll sets every actuator to zero.
func (h *Hardware) StopAll() error {
	return multierr.Combine(
		h.Apply(auto.Stop),
		h.SetWinch(0),
	)
}

// HallEffect returns true when the hall-effect sensor sees a magnet.
// The sensor pulls the input low when active.
func (h *Hardware) HallEffect() (bool, error) {
	if h.Hall == nil {
		return false, nil
	}
	v, err := h.Hall.Get()
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// Outputs returns the current power of each mechanism.
func (h *Hardware) Outputs() Outputs {
	var o Outputs
	o.DriveLeft, o.DriveRight = h.Drive.Powers()
	if h.Intake != nil {
		o.IntakeLeft, o.IntakeRight = h.Intake.Powers()
	}
	if h.Lift != nil {
		o.Lift = h.Lift.Get()
	}
	if h.Winch != nil {
		o.Winch = h.Winch.Get()
	}
	return o
}

// Outputs is a snapshot of the actuator powers.
type Outputs struct {
	DriveLeft   float64 `json:"drive_left"`
	DriveRight  float64 `json:"drive_right"`
	IntakeLeft  float64 `json:"intake_left"`
	IntakeRight float64 `json:"intake_right"`
	Lift        float64 `json:"lift"`
	Winch       float64 `json:"winch"`
}

// Close stops and releases all the hardware, most recently opened first.
func (h *Hardware) Close() error {
	var err error
	for i := len(h.closer) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.closer[i]())
	}
	h.closer = nil
	return err
}
