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

// Program to sweep a motor controller through its power range

package main

import (
	"flag"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/aamcrae/gryphon/drive"
	"github.com/aamcrae/gryphon/io"
	"github.com/aamcrae/gryphon/logging"
)

var chip = flag.Int("chip", 0, "sysfs PWM chip")
var pwmUnit = flag.Int("pwm", 0, "PWM unit on the chip")
var pin = flag.String("gpio", "", "If set, use software PWM on this GPIO pin instead")
var controller = flag.String("type", "spark", "Motor controller type, spark or victor")
var limit = flag.Float64("limit", 0.5, "Maximum power")
var cycles = flag.Int("cycles", 3, "Number of sweeps")

func main() {
	flag.Parse()
	log := logging.NewLogger("pwm", false)
	b, err := drive.BoundsByName(*controller)
	if err != nil {
		log.Fatal(err)
	}
	var out io.PWM
	if *pin != "" {
		p, err := io.OutputPin(*pin)
		if err != nil {
			log.Fatalf("Pin %s: %v", *pin, err)
		}
		out = io.NewSwPWM(p)
	} else {
		p, err := io.NewHwPWM(*chip, *pwmUnit)
		if err != nil {
			log.Fatalf("PWM unit %d: %v", *pwmUnit, err)
		}
		out = p
	}
	c, err := drive.NewPWMController("sweep", b, out)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()
	log.Infow("sweeping", "type", b.Name, "limit", *limit, "cycles", *cycles)
	// Forward then reverse, as one sine wave per sweep.
	for i := 0; i < *cycles; i++ {
		for v := 0; v < 360; v += 2 {
			set(log, c, *limit*math.Sin(float64(v)*math.Pi/180))
		}
	}
	set(log, c, 0)
}

func set(log *zap.SugaredLogger, c *drive.PWMController, power float64) {
	if err := c.Set(power); err != nil {
		log.Fatalf("Set: power %.2f: %v", power, err)
	}
	time.Sleep(time.Millisecond * 20)
}
