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

// Package robot ties the hardware, driver station and autonomous
// sequencer together into the robot control loop.
package robot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aamcrae/config"

	"github.com/aamcrae/gryphon/drive"
)

// Defaults for optional configuration values.
const (
	DefaultPeriod    = 20 * time.Millisecond
	DefaultTelemetry = 500
	DefaultAddr      = ":8080"
)

// Channel is one motor controller output, written as type,backend:unit
// e.g victor,pwm:2 or spark,gpio:GPIO17 or spark,sim:4
// A leading '-' on the type inverts the controller.
type Channel struct {
	Bounds   drive.Bounds
	Inverted bool
	Backend  string
	Unit     string
}

func (c Channel) String() string {
	inv := ""
	if c.Inverted {
		inv = "-"
	}
	return fmt.Sprintf("%s%s,%s:%s", inv, c.Bounds.Name, c.Backend, c.Unit)
}

// Backends for motor controller outputs.
const (
	BackendPWM  = "pwm"  // Hardware PWM, unit is the channel number on the PWM chip
	BackendGPIO = "gpio" // Software PWM on a GPIO pin, unit is the pin name
	BackendSim  = "sim"  // Simulated output
)

// ParseChannel parses a single channel description.
func ParseChannel(s string) (Channel, error) {
	var c Channel
	t, out, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return c, fmt.Errorf("%s: expected type,backend:unit", s)
	}
	if strings.HasPrefix(t, "-") {
		c.Inverted = true
		t = t[1:]
	}
	b, err := drive.BoundsByName(t)
	if err != nil {
		return c, err
	}
	c.Bounds = b
	c.Backend, c.Unit, ok = strings.Cut(out, ":")
	if !ok || c.Unit == "" {
		return c, fmt.Errorf("%s: expected backend:unit", s)
	}
	switch c.Backend {
	case BackendPWM, BackendSim:
		if _, err := strconv.Atoi(c.Unit); err != nil {
			return c, fmt.Errorf("%s: unit must be a number", s)
		}
	case BackendGPIO:
	default:
		return c, fmt.Errorf("%s: unknown backend %q", s, c.Backend)
	}
	return c, nil
}

// DriveConfig configures a tank drive mechanism.
type DriveConfig struct {
	Left       []Channel
	Right      []Channel
	Deadband   float64
	MaxOutput  float64
	Squared    bool
	Expiration time.Duration
}

// CameraConfig configures the driver camera.
type CameraConfig struct {
	Device string
	Width  uint32
	Height uint32
}

// Config is the robot configuration, read from a configuration file.
// Only [drive] is required; a missing section disables that mechanism.
type Config struct {
	Name      string
	Period    time.Duration
	Profile   string
	Telemetry int
	Addr      string
	PWMChip   int
	Drive     DriveConfig
	Intake    *DriveConfig
	Lift      []Channel
	Winch     []Channel
	Hall      string
	Camera    *CameraConfig
	Game      string // Initial game message, normally set by the driver station
	Location  int    // Initial driver station location
}

// ParseConfig reads and validates a configuration file.
// A mechanism driven by more than one controller repeats the keyword.
// Sample config:
//
//	[robot]
//	name=gryphon
//	# Control loop period
//	period=20ms
//	# Teleop control profile, powerup or basic
//	profile=powerup
//	# Number of tick records kept
//	telemetry=500
//	http=:8080
//	# sysfs PWM chip for pwm channels
//	pwmchip=0
//	[drive]
//	left=victor,pwm:0
//	left=victor,pwm:1
//	right=victor,pwm:2
//	right=victor,pwm:3
//	deadband=0.02
//	max=1.0
//	squared=true
//	expiration=100ms
//	[intake]
//	left=spark,gpio:GPIO5
//	right=spark,gpio:GPIO6
//	[lift]
//	motor=spark,gpio:GPIO13
//	[winch]
//	motor=victor,gpio:GPIO19
//	motor=victor,gpio:GPIO26
//	[sensor]
//	hall=GPIO21
//	[camera]
//	device=/dev/video0
//	size=320,240
//	[station]
//	game=LRL
//	location=2
func ParseConfig(file string) (*Config, error) {
	conf, err := config.ParseFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return newConfig(conf)
}

// ParseConfigString reads and validates a configuration held in a string.
func ParseConfigString(s string) (*Config, error) {
	conf, err := config.ParseString(s)
	if err != nil {
		return nil, err
	}
	return newConfig(conf)
}

func newConfig(conf *config.Config) (*Config, error) {
	c := &Config{
		Name:      "robot",
		Period:    DefaultPeriod,
		Profile:   ProfilePowerUp,
		Telemetry: DefaultTelemetry,
		Addr:      DefaultAddr,
		Location:  1,
	}
	if s := conf.GetSection("robot"); s != nil {
		var err error
		if c.Name, err = optString(s, "name", c.Name); err != nil {
			return nil, err
		}
		if c.Period, err = optDuration(s, "period", c.Period); err != nil {
			return nil, err
		}
		if c.Profile, err = optString(s, "profile", c.Profile); err != nil {
			return nil, err
		}
		if _, ok := profiles[c.Profile]; !ok {
			return nil, fmt.Errorf("profile: unknown profile %q", c.Profile)
		}
		if c.Telemetry, err = optInt(s, "telemetry", c.Telemetry); err != nil {
			return nil, err
		}
		if c.Addr, err = optString(s, "http", c.Addr); err != nil {
			return nil, err
		}
		if c.PWMChip, err = optInt(s, "pwmchip", c.PWMChip); err != nil {
			return nil, err
		}
	}
	if c.Period <= 0 {
		return nil, fmt.Errorf("period: must be positive")
	}
	s := conf.GetSection("drive")
	if s == nil {
		return nil, fmt.Errorf("no config for drive")
	}
	d, err := driveConfig(s, "drive")
	if err != nil {
		return nil, err
	}
	c.Drive = *d
	if s := conf.GetSection("intake"); s != nil {
		if c.Intake, err = driveConfig(s, "intake"); err != nil {
			return nil, err
		}
	}
	if s := conf.GetSection("lift"); s != nil {
		if c.Lift, err = channels(s, "lift", "motor"); err != nil {
			return nil, err
		}
	}
	if s := conf.GetSection("winch"); s != nil {
		if c.Winch, err = channels(s, "winch", "motor"); err != nil {
			return nil, err
		}
	}
	if s := conf.GetSection("sensor"); s != nil {
		if c.Hall, err = optString(s, "hall", ""); err != nil {
			return nil, fmt.Errorf("sensor: %w", err)
		}
	}
	if s := conf.GetSection("camera"); s != nil {
		cam := &CameraConfig{Device: "/dev/video0", Width: 320, Height: 240}
		if cam.Device, err = optString(s, "device", cam.Device); err != nil {
			return nil, fmt.Errorf("camera: %w", err)
		}
		if s.Has("size") {
			n, err := s.Parse("size", "%d,%d", &cam.Width, &cam.Height)
			if err != nil {
				return nil, fmt.Errorf("camera: size: %w", err)
			}
			if n != 2 {
				return nil, fmt.Errorf("camera: size: argument count")
			}
		}
		c.Camera = cam
	}
	if s := conf.GetSection("station"); s != nil {
		if c.Game, err = optString(s, "game", ""); err != nil {
			return nil, fmt.Errorf("station: %w", err)
		}
		if c.Location, err = optInt(s, "location", c.Location); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func driveConfig(s *config.Section, name string) (*DriveConfig, error) {
	d := &DriveConfig{
		Deadband:   drive.DefaultDeadband,
		MaxOutput:  1.0,
		Squared:    true,
		Expiration: drive.DefaultExpiration,
	}
	var err error
	if d.Left, err = channels(s, name, "left"); err != nil {
		return nil, err
	}
	if d.Right, err = channels(s, name, "right"); err != nil {
		return nil, err
	}
	if d.Deadband, err = optFloat(s, "deadband", d.Deadband); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if d.Deadband < 0 || d.Deadband >= 1 {
		return nil, fmt.Errorf("%s: deadband out of range", name)
	}
	if d.MaxOutput, err = optFloat(s, "max", d.MaxOutput); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if d.Squared, err = optBool(s, "squared", d.Squared); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if d.Expiration, err = optDuration(s, "expiration", d.Expiration); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func channels(s *config.Section, name, key string) ([]Channel, error) {
	entries := s.Get(key)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: missing keyword: %s", name, key)
	}
	var chans []Channel
	for _, e := range entries {
		c, err := ParseChannel(e.Args)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, e.Lineno, err)
		}
		chans = append(chans, c)
	}
	return chans, nil
}

func optString(s *config.Section, key, def string) (string, error) {
	if !s.Has(key) {
		return def, nil
	}
	return s.GetArg(key)
}

func optInt(s *config.Section, key string, def int) (int, error) {
	a, err := optString(s, key, "")
	if err != nil || a == "" {
		return def, err
	}
	v, err := strconv.Atoi(a)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func optFloat(s *config.Section, key string, def float64) (float64, error) {
	a, err := optString(s, key, "")
	if err != nil || a == "" {
		return def, err
	}
	v, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func optBool(s *config.Section, key string, def bool) (bool, error) {
	a, err := optString(s, key, "")
	if err != nil || a == "" {
		return def, err
	}
	v, err := strconv.ParseBool(a)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func optDuration(s *config.Section, key string, def time.Duration) (time.Duration, error) {
	a, err := optString(s, key, "")
	if err != nil || a == "" {
		return def, err
	}
	v, err := time.ParseDuration(a)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
