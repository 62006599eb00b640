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

// Simulator robot program

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/aamcrae/gryphon/auto"
	"github.com/aamcrae/gryphon/logging"
	"github.com/aamcrae/gryphon/robot"
)

// Same channel layout as the competition robot, on simulated outputs.
const simConfig = `
[robot]
name=simulator
[drive]
left=victor,sim:2
left=victor,sim:3
right=victor,sim:0
right=victor,sim:1
[intake]
left=spark,sim:7
right=spark,sim:8
[lift]
motor=spark,sim:4
[winch]
motor=spark,sim:5
motor=spark,sim:6
`

var game = flag.String("game", "LLR", "Game specific message")
var location = flag.Int("location", 1, "Driver station location")
var duration = flag.Duration("duration", 15*time.Second, "Length of the autonomous period")
var all = flag.Bool("all", false, "Simulate every game message and location")
var port = flag.Int("port", 0, "If set, serve the robot status on this port after the run")
var debug = flag.Bool("debug", false, "Enable debug logging")

func main() {
	flag.Parse()
	logger := logging.NewLogger("sim", *debug)
	defer logger.Sync()
	cfg, err := robot.ParseConfigString(simConfig)
	if err != nil {
		logger.Fatalw("config", "error", err)
	}
	clk := clock.NewMock()
	hw, err := robot.NewHardware(cfg, clk, logger)
	if err != nil {
		logger.Fatalw("hardware", "error", err)
	}
	defer hw.Close()
	station := robot.NewStation(clk, *game, *location)
	metrics := robot.NewMetrics()
	telemetry := robot.NewTelemetry(max(1, int(*duration/cfg.Period)))
	r := robot.New(cfg, hw, station, clk, logger, metrics, telemetry)
	if *all {
		for _, g := range games() {
			for loc := 1; loc <= 3; loc++ {
				station.SetMatch(g, loc)
				simulate(r, station, clk, cfg.Period)
			}
		}
	} else {
		simulate(r, station, clk, cfg.Period)
	}
	if *port != 0 {
		server := robot.NewServer(cfg.Name, station, telemetry, metrics, nil, logger)
		if err := server.ListenAndServe(context.Background(), fmt.Sprintf(":%d", *port)); err != nil {
			logger.Fatalw("server", "error", err)
		}
	}
}

// simulate runs one autonomous period, printing each change of command.
func simulate(r *robot.Robot, station *robot.Station, clk *clock.Mock, period time.Duration) {
	g, loc := station.Match()
	station.SetMode(robot.Autonomous)
	last := ""
	for t := time.Duration(0); t < *duration; t += period {
		rec := r.Tick()
		if t == 0 {
			fmt.Printf("%s/%d: %s\n", g, loc, rec.Routine)
		}
		if rec.Command != last {
			o := rec.Outputs
			fmt.Printf("  %6.2fs %-32s drive=(%5.2f,%5.2f) intake=(%5.2f,%5.2f) lift=%5.2f\n",
				rec.Elapsed.Seconds(), rec.Command, o.DriveLeft, o.DriveRight, o.IntakeLeft, o.IntakeRight, o.Lift)
			last = rec.Command
		}
		clk.Add(period)
	}
	station.SetMode(robot.Disabled)
	r.Tick()
}

// games returns every possible game message.
func games() []string {
	var g []string
	sides := []auto.Side{auto.SideLeft, auto.SideRight}
	for _, a := range sides {
		for _, b := range sides {
			for _, c := range sides {
				var s strings.Builder
				s.WriteByte(byte(a))
				s.WriteByte(byte(b))
				s.WriteByte(byte(c))
				g = append(g, s.String())
			}
		}
	}
	return g
}
