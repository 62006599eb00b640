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

// Bench test utility: drive each mechanism by hand, and dump the autonomous routines.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benbjohnson/clock"
	"gopkg.in/yaml.v3"

	"github.com/aamcrae/gryphon/auto"
	"github.com/aamcrae/gryphon/logging"
	"github.com/aamcrae/gryphon/robot"
)

var configFile = flag.String("config", "robot.conf", "Configuration file")
var dump = flag.Bool("routines", false, "Print the routines and selection table as YAML and exit")

func main() {
	flag.Parse()
	log := logging.NewLogger("bench", false)
	if *dump {
		if err := dumpRoutines(os.Stdout); err != nil {
			log.Fatalw("dumping routines", "error", err)
		}
		return
	}
	cfg, err := robot.ParseConfig(*configFile)
	if err != nil {
		log.Fatalw("config", "error", err)
	}
	hw, err := robot.NewHardware(cfg, clock.New(), log)
	if err != nil {
		log.Fatalw("hardware", "error", err)
	}
	defer hw.Close()
	reader := bufio.NewReader(os.Stdin)
	for {
		o := hw.Outputs()
		fmt.Printf("drive (%.2f, %.2f) intake (%.2f, %.2f) lift %.2f winch %.2f\n",
			o.DriveLeft, o.DriveRight, o.IntakeLeft, o.IntakeRight, o.Lift, o.Winch)
		fmt.Print("Enter command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		f := strings.Fields(text)
		if len(f) == 0 {
			continue
		}
		var l, r float64
		switch f[0] {
		case "help":
			fmt.Println("  help - print help")
			fmt.Println("  drive L R - set drive power")
			fmt.Println("  intake L R - set intake power")
			fmt.Println("  lift P - set lift power")
			fmt.Println("  winch P - set winch power")
			fmt.Println("  run NAME - set the outputs to a routine command e.g grip")
			fmt.Println("  hall - read the hall-effect sensor")
			fmt.Println("  s - stop everything")
			fmt.Println("  q - quit")
		case "q":
			hw.StopAll()
			return
		case "s":
			err = hw.StopAll()
		case "drive", "intake":
			if _, err = fmt.Sscanf(strings.Join(f[1:], " "), "%f %f", &l, &r); err != nil {
				break
			}
			if f[0] == "drive" {
				err = hw.Tank(l, r)
			} else {
				err = hw.IntakeTank(l, r)
			}
		case "lift", "winch":
			if _, err = fmt.Sscanf(strings.Join(f[1:], " "), "%f", &l); err != nil {
				break
			}
			if f[0] == "lift" {
				err = hw.SetLift(l)
			} else {
				err = hw.SetWinch(l)
			}
		case "run":
			c, ok := command(strings.Join(f[1:], " "))
			if !ok {
				fmt.Printf("Unknown command\n")
				break
			}
			err = hw.Apply(c)
		case "hall":
			var on bool
			if on, err = hw.HallEffect(); err == nil {
				fmt.Printf("Hall-effect sensor: %v\n", on)
			}
		default:
			fmt.Printf("Unrecognised input\n")
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// command finds a routine command by name.
func command(name string) (auto.Command, bool) {
	for _, rt := range auto.Routines {
		for _, s := range rt.Steps {
			if s.Command.Name == name {
				return s.Command, true
			}
		}
	}
	return auto.Command{}, false
}

type stepDoc struct {
	Interval string               `yaml:"interval"`
	Command  string               `yaml:"command"`
	Outputs  map[string][]float64 `yaml:"outputs,omitempty"`
}

type routineDoc struct {
	Name  string    `yaml:"name"`
	Steps []stepDoc `yaml:"steps"`
}

type tableDoc struct {
	Routines  []routineDoc      `yaml:"routines"`
	Selection map[string]string `yaml:"selection"`
	Default   string            `yaml:"default"`
}

// dumpRoutines writes every routine and the routine selected for every
// game message and location.
func dumpRoutines(w io.Writer) error {
	doc := tableDoc{Selection: make(map[string]string), Default: auto.Default.Name}
	for _, rt := range auto.Routines {
		rd := routineDoc{Name: rt.Name}
		for _, s := range rt.Steps {
			sd := stepDoc{Interval: s.Interval.String(), Command: s.Command.Name}
			for _, o := range s.Command.Outputs {
				if sd.Outputs == nil {
					sd.Outputs = make(map[string][]float64)
				}
				if o.Actuator == auto.Lift {
					sd.Outputs[o.Actuator.String()] = []float64{o.Left}
				} else {
					sd.Outputs[o.Actuator.String()] = []float64{o.Left, o.Right}
				}
			}
			rd.Steps = append(rd.Steps, sd)
		}
		doc.Routines = append(doc.Routines, rd)
	}
	for _, g := range []string{"LLL", "LLR", "LRL", "LRR", "RLL", "RLR", "RRL", "RRR"} {
		for loc := 1; loc <= 3; loc++ {
			doc.Selection[fmt.Sprintf("%s/%d", g, loc)] = auto.Select(g, loc).Routine.Name
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}
