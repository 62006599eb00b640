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

// Robot control program

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aamcrae/gryphon/logging"
	"github.com/aamcrae/gryphon/robot"
)

func main() {
	app := &cli.App{
		Name:  "gryphon",
		Usage: "run the robot control loop",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "robot.conf",
				Usage:   "configuration file",
			},
			&cli.StringFlag{
				Name:  "http",
				Usage: "status server address, overriding the configuration",
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: "disabled",
				Usage: "initial mode, for running without a driver station",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := logging.NewLogger("robot", c.Bool("debug"))
	defer logger.Sync()
	cfg, err := robot.ParseConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("http") {
		cfg.Addr = c.String("http")
	}
	mode, err := robot.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	clk := clock.New()
	hw, err := robot.NewHardware(cfg, clk, logger.Named("hardware"))
	if err != nil {
		return err
	}
	defer hw.Close()
	station := robot.NewStation(clk, cfg.Game, cfg.Location)
	station.SetMode(mode)
	metrics := robot.NewMetrics()
	telemetry := robot.NewTelemetry(cfg.Telemetry)
	r := robot.New(cfg, hw, station, clk, logger, metrics, telemetry)
	server := robot.NewServer(cfg.Name, station, telemetry, metrics, hw.Camera, logger.Named("http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(ctx, cfg.Addr)
	})
	g.Go(func() error {
		return r.Run(ctx, cfg.Period)
	})
	return g.Wait()
}
