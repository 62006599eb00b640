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

// Package io manages the robot's hardware interfaces: motor controller
// PWM outputs, GPIO sensor inputs and the driver camera.
package io

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Setter is an interface for setting an output value on a GPIO
type Setter interface {
	Set(int) error
}

// Getter is an interface for reading an input value from a GPIO
type Getter interface {
	Get() (int, error)
}

const verifyTimeout = 2 * time.Second

// Verify will enable waiting for exported attribute files to become writable.
// When not running as root, udev changes the group permissions on newly
// exported files some time after they appear, and accessing them before
// then fails with a permission error.
var Verify = false

func init() {
	u, err := user.Current()
	if err == nil && u.Uid != "0" {
		Verify = true
	}
}

// sysfs is a kernel class directory such as /sys/class/pwm/pwmchip0.
// Tests point it at a temporary directory.
type sysfs string

func (s sysfs) path(elem ...string) string {
	return filepath.Join(append([]string{string(s)}, elem...)...)
}

// export makes unit available by writing it to the export file,
// unless attr already exists and is accessible.
func (s sysfs) export(unit int, attr string) error {
	f := s.path(attr)
	if unix.Access(f, unix.W_OK|unix.R_OK) == nil {
		return nil
	}
	err := writeFile(s.path("export"), strconv.Itoa(unit))
	if err == nil && Verify {
		return verifyFile(f)
	}
	return err
}

func (s sysfs) unexport(unit int) error {
	return writeFile(s.path("unexport"), strconv.Itoa(unit))
}

// Write a string to an attribute file.
func writeFile(fname, s string) error {
	f, err := os.OpenFile(fname, os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(s))
	return err
}

// Wait for file to become writable.
func verifyFile(f string) error {
	sl := time.Millisecond
	for tout := time.Duration(0); tout < verifyTimeout; tout += sl {
		if unix.Access(f, unix.W_OK) == nil {
			return nil
		}
		time.Sleep(sl)
	}
	return fmt.Errorf("%s: not writable", f)
}
