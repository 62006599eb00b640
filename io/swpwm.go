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
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClosed is returned when a closed output is used.
var ErrClosed = errors.New("pwm closed")

type pulseMsg struct {
	period time.Duration
	width  time.Duration
}

// SwPwm generates a pulse train on a GPIO pin in software.
// Timing jitter is a few tens of microseconds, which is tolerable for
// the wide deadband of a hobby-style motor controller.
// SetPulse and Close may be called from different goroutines.
type SwPwm struct {
	pin    Setter
	mu     sync.Mutex
	closed bool
	c      chan pulseMsg
	stop   chan struct{}
	done   chan struct{}
}

// NewSwPWM creates a new s/w PWM controller. The pin is held low until
// SetPulse is called.
func NewSwPWM(pin Setter) *SwPwm {
	p := &SwPwm{
		pin:  pin,
		c:    make(chan pulseMsg, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.handler()
	return p
}

// Close stops the pulse train and leaves the pin low.
func (p *SwPwm) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.stop)
	<-p.done
	return p.pin.Set(0)
}

// SetPulse sets the PWM parameters. The changes take
// place at the end of the current period.
func (p *SwPwm) SetPulse(period, width time.Duration) error {
	if period <= 0 || width < 0 || width > period {
		return fmt.Errorf("invalid pulse %s/%s", width, period)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	// Replace any update that has not yet been picked up. Senders hold
	// the lock, so the send below never blocks.
	select {
	case <-p.c:
	default:
	}
	p.c <- pulseMsg{period: period, width: width}
	return nil
}

// goroutine handler
// Listens on message channel, and runs the pulse train.
func (p *SwPwm) handler() {
	defer close(p.done)
	var on, off time.Duration
	off = DefaultPeriod
	current := 0
	p.pin.Set(0)
	for {
		if on != 0 {
			if current != 1 {
				p.pin.Set(1)
				current = 1
			}
			time.Sleep(on)
		}
		if off != 0 {
			if current != 0 {
				p.pin.Set(0)
				current = 0
			}
			time.Sleep(off)
		}
		// Check for new parameters after each cycle.
		select {
		case <-p.stop:
			return
		case m := <-p.c:
			on = m.width
			off = m.period - m.width
		default:
		}
	}
}
