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
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Sink accepts the command resolved for each tick.
type Sink interface {
	Apply(Command) error
}

// Sequencer runs the selected routine for one autonomous period.
// It is owned by the control loop and is not safe for concurrent use.
type Sequencer struct {
	clock   clock.Clock
	logger  *zap.SugaredLogger
	sel     Selection
	start   time.Time
	last    string // Name of the last applied command
	started bool
}

// NewSequencer creates a sequencer using clk as the elapsed time source.
func NewSequencer(clk clock.Clock, logger *zap.SugaredLogger) *Sequencer {
	return &Sequencer{clock: clk, logger: logger, sel: Selection{Routine: Default}}
}

// Start selects the routine for this autonomous period and resets the timer.
// The game message and location are read once here, and not re-read during the period.
func (s *Sequencer) Start(game string, position int) Selection {
	s.sel = Select(game, position)
	if s.sel.Fallback != nil {
		s.logger.Warnw("using default routine", "routine", s.sel.Routine.Name, "game", game, "position", position, "reason", s.sel.Fallback)
	} else {
		s.logger.Infow("selected routine", "routine", s.sel.Routine.Name, "game", game, "position", position)
	}
	s.start = s.clock.Now()
	s.last = ""
	s.started = true
	return s.sel
}

// Selection returns the current routine selection.
func (s *Sequencer) Selection() Selection {
	return s.sel
}

// Routine returns the selected routine.
func (s *Sequencer) Routine() *Routine {
	return s.sel.Routine
}

// Elapsed returns the time since Start was called.
func (s *Sequencer) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	return s.clock.Since(s.start)
}

// Tick resolves the command for the current elapsed time and applies it to the sink.
// If Start has not been called, Stop is applied.
// The command is not retried; any error from the sink is returned for accounting only.
func (s *Sequencer) Tick(sink Sink) (Command, error) {
	c := Stop
	if s.started {
		c = s.sel.Routine.At(s.Elapsed())
	}
	if c.Name != s.last {
		s.logger.Debugw("command", "routine", s.sel.Routine.Name, "elapsed", s.Elapsed(), "command", c.String())
		s.last = c.Name
	}
	return c, sink.Apply(c)
}
