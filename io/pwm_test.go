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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"
)

// fakeChip creates the attribute files of an exported PWM unit.
func fakeChip(t *testing.T) sysfs {
	dir := t.TempDir()
	chip := sysfs(dir)
	test.That(t, os.MkdirAll(chip.path("pwm0"), 0755), test.ShouldBeNil)
	for _, f := range []string{"export", "unexport", "pwm0/period", "pwm0/duty_cycle", "pwm0/enable"} {
		test.That(t, os.WriteFile(filepath.Join(dir, f), nil, 0644), test.ShouldBeNil)
	}
	return chip
}

func readAttr(t *testing.T, chip sysfs, name string) string {
	b, err := os.ReadFile(chip.path(name))
	test.That(t, err, test.ShouldBeNil)
	return string(b)
}

func TestHwPWM(t *testing.T) {
	chip := fakeChip(t)
	p, err := newHwPWM(chip, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readAttr(t, chip, "pwm0/enable"), test.ShouldEqual, "1")
	test.That(t, readAttr(t, chip, "pwm0/period"), test.ShouldEqual, "5050000")
	test.That(t, readAttr(t, chip, "pwm0/duty_cycle"), test.ShouldEqual, "0")

	test.That(t, p.SetPulse(10100*time.Microsecond, 1500*time.Microsecond), test.ShouldBeNil)
	test.That(t, readAttr(t, chip, "pwm0/period"), test.ShouldEqual, "10100000")
	test.That(t, readAttr(t, chip, "pwm0/duty_cycle"), test.ShouldEqual, "1500000")

	test.That(t, p.SetPulse(time.Millisecond, 2*time.Millisecond), test.ShouldNotBeNil)
	test.That(t, p.SetPulse(0, 0), test.ShouldNotBeNil)

	test.That(t, p.Close(), test.ShouldBeNil)
	test.That(t, readAttr(t, chip, "pwm0/enable"), test.ShouldEqual, "0")
	test.That(t, readAttr(t, chip, "unexport"), test.ShouldEqual, "0")
}

func TestHwPWMMissing(t *testing.T) {
	chip := sysfs(t.TempDir())
	_, err := newHwPWM(chip, 3)
	test.That(t, err, test.ShouldNotBeNil)
}

type pinRecorder struct {
	mu    sync.Mutex
	value int
	highs int
}

func (p *pinRecorder) Set(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v == 1 && p.value == 0 {
		p.highs++
	}
	p.value = v
	return nil
}

func (p *pinRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highs
}

func TestSwPWM(t *testing.T) {
	var pin pinRecorder
	p := NewSwPWM(&pin)
	test.That(t, p.SetPulse(time.Millisecond, 3*time.Millisecond), test.ShouldNotBeNil)
	test.That(t, p.SetPulse(2*time.Millisecond, time.Millisecond), test.ShouldBeNil)
	time.Sleep(50 * time.Millisecond)
	test.That(t, pin.count(), test.ShouldBeGreaterThan, 2)
	test.That(t, p.Close(), test.ShouldBeNil)
	pin.mu.Lock()
	defer pin.mu.Unlock()
	test.That(t, pin.value, test.ShouldEqual, 0)
}

func TestSwPWMCloseWhileSetting(t *testing.T) {
	var pin pinRecorder
	p := NewSwPWM(&pin)
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := p.SetPulse(2*time.Millisecond, time.Millisecond); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	closed := make(chan error)
	go func() { closed <- p.Close() }()
	select {
	case err := <-closed:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		test.That(t, errors.Is(err, ErrClosed), test.ShouldBeTrue)
	}

	err := p.SetPulse(2*time.Millisecond, time.Millisecond)
	test.That(t, errors.Is(err, ErrClosed), test.ShouldBeTrue)
	test.That(t, p.Close(), test.ShouldBeNil)
}

func TestSimPWM(t *testing.T) {
	var p SimPWM
	p.SetPulse(DefaultPeriod, 1500*time.Microsecond)
	period, width, n := p.Pulse()
	test.That(t, period, test.ShouldEqual, DefaultPeriod)
	test.That(t, width, test.ShouldEqual, 1500*time.Microsecond)
	test.That(t, n, test.ShouldEqual, 1)
	test.That(t, p.Closed(), test.ShouldBeFalse)
	p.Close()
	test.That(t, p.Closed(), test.ShouldBeTrue)
}
