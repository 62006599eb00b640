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

package io

import (
	"sync"
	"time"
)

// SimPWM is a PWM output that only records the last pulse set.
// It stands in for real outputs in the simulator and on the bench.
type SimPWM struct {
	Unit   int
	mu     sync.Mutex
	period time.Duration
	width  time.Duration
	writes int
	closed bool
}

// SetPulse records the pulse.
func (p *SimPWM) SetPulse(period, width time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.period = period
	p.width = width
	p.writes++
	return nil
}

// Pulse returns the last period and pulse width set, and the number of writes.
func (p *SimPWM) Pulse() (time.Duration, time.Duration, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.period, p.width, p.writes
}

// Close marks the output closed.
func (p *SimPWM) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed returns true once Close has been called.
func (p *SimPWM) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
