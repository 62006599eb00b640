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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

const (
	pwmClassDir = "/sys/class/pwm"
	periodFile  = "period"
	dutyFile    = "duty_cycle"
	enableFile  = "enable"
)

// DefaultPeriod is the PWM period used until the first pulse is set.
const DefaultPeriod = 5050 * time.Microsecond

// PWM is a pulse output driving a motor controller.
type PWM interface {
	// SetPulse sets the period and the high time of the pulse.
	SetPulse(period, width time.Duration) error
	Close() error
}

// HwPwm is a hardware PWM unit exported through sysfs.
type HwPwm struct {
	chip   sysfs
	unit   int
	dir    string
	pFile  *os.File
	dFile  *os.File
	period int64
	width  int64
}

// NewHwPWM opens and enables unit on a PWM chip. The output is
// held low until SetPulse is called.
func NewHwPWM(chip, unit int) (*HwPwm, error) {
	return newHwPWM(sysfs(filepath.Join(pwmClassDir, fmt.Sprintf("pwmchip%d", chip))), unit)
}

func newHwPWM(chip sysfs, unit int) (*HwPwm, error) {
	p := &HwPwm{chip: chip, unit: unit, dir: fmt.Sprintf("pwm%d", unit), period: -1, width: -1}
	err := chip.export(unit, filepath.Join(p.dir, periodFile))
	if err != nil {
		return nil, fmt.Errorf("pwm%d: export: %w", unit, err)
	}
	p.pFile, err = os.OpenFile(chip.path(p.dir, periodFile), os.O_RDWR, 0600)
	if err != nil {
		chip.unexport(unit)
		return nil, err
	}
	dName := chip.path(p.dir, dutyFile)
	if err = verifyFile(dName); err == nil {
		p.dFile, err = os.OpenFile(dName, os.O_RDWR, 0600)
	}
	if err != nil {
		p.pFile.Close()
		chip.unexport(unit)
		return nil, err
	}
	if err = p.SetPulse(DefaultPeriod, 0); err == nil {
		err = writeFile(chip.path(p.dir, enableFile), "1")
	}
	if err != nil {
		p.pFile.Close()
		p.dFile.Close()
		chip.unexport(unit)
		return nil, err
	}
	return p, nil
}

// Close disables the output and releases the unit.
func (p *HwPwm) Close() error {
	return multierr.Combine(
		writeFile(p.chip.path(p.dir, enableFile), "0"),
		p.pFile.Close(),
		p.dFile.Close(),
		p.chip.unexport(p.unit),
	)
}

// SetPulse sets the PWM period and pulse width.
func (p *HwPwm) SetPulse(period, width time.Duration) error {
	pNano := period.Nanoseconds()
	if pNano < 15 {
		return fmt.Errorf("pwm%d: invalid period %s", p.unit, period)
	}
	wNano := width.Nanoseconds()
	if wNano < 0 || wNano > pNano {
		return fmt.Errorf("pwm%d: invalid pulse width %s for period %s", p.unit, width, period)
	}
	// The kernel rejects a duty cycle longer than the current period,
	// so the order of the writes depends on which way the values move.
	if wNano > p.period {
		if err := p.write(p.pFile, pNano); err != nil {
			return err
		}
		if err := p.write(p.dFile, wNano); err != nil {
			return err
		}
	} else {
		if wNano != p.width {
			if err := p.write(p.dFile, wNano); err != nil {
				return err
			}
		}
		if pNano != p.period {
			if err := p.write(p.pFile, pNano); err != nil {
				return err
			}
		}
	}
	p.period = pNano
	p.width = wNano
	return nil
}

func (p *HwPwm) write(f *os.File, v int64) error {
	_, err := f.WriteAt([]byte(strconv.FormatInt(v, 10)), 0)
	return err
}
