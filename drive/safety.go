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
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultExpiration is the time the drive may go without an update
// before the safety watchdog stops it.
const DefaultExpiration = 100 * time.Millisecond

// Stopper stops the motors without counting as an update.
type Stopper interface {
	StopMotor() error
}

// Safety is a motor safety watchdog. While enabled, the motors must be fed
// at least once per expiration period, or they are stopped. This catches a
// stalled control loop leaving the robot driving at the last commanded power.
type Safety struct {
	name       string
	clock      clock.Clock
	logger     *zap.SugaredLogger
	stopper    Stopper
	expiration time.Duration
	mu         sync.Mutex
	enabled    bool
	deadline   time.Time
	tripped    bool
	trips      int
}

// NewSafety creates a disabled watchdog for the stopper.
func NewSafety(name string, clk clock.Clock, expiration time.Duration, stopper Stopper, logger *zap.SugaredLogger) *Safety {
	return &Safety{
		name:       name,
		clock:      clk,
		logger:     logger,
		stopper:    stopper,
		expiration: expiration,
		deadline:   clk.Now().Add(expiration),
	}
}

// Feed records that the motors have been updated.
func (s *Safety) Feed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline = s.clock.Now().Add(s.expiration)
	s.tripped = false
}

// SetEnabled enables or disables the watchdog. Enabling counts as a feed.
func (s *Safety) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	if enabled {
		s.Feed()
	}
}

// Enabled returns true if the watchdog is enabled.
func (s *Safety) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Trips returns the number of times the watchdog has stopped the motors.
func (s *Safety) Trips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips
}

// Check stops the motors if the watchdog is enabled and has expired,
// returning true if it did so.
func (s *Safety) Check() bool {
	s.mu.Lock()
	expired := s.enabled && s.clock.Now().After(s.deadline)
	first := expired && !s.tripped
	if first {
		s.tripped = true
		s.trips++
	}
	s.mu.Unlock()
	if !expired {
		return false
	}
	if first {
		s.logger.Warnw("output not updated often enough, stopping motors", "name", s.name, "expiration", s.expiration)
	}
	if err := s.stopper.StopMotor(); err != nil {
		s.logger.Errorw("stopping motors", "name", s.name, "error", err)
	}
	return true
}

// Run checks the watchdog at twice the expiration rate until the context is done.
func (s *Safety) Run(ctx context.Context) {
	ticker := s.clock.Ticker(s.expiration / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check()
		}
	}
}
