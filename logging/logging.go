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

// Package logging builds the loggers used by the robot programs.

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConfig returns the logger configuration: console output with
// ISO8601 timestamps and no stack traces.
func NewConfig(debug bool) zap.Config {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a named logger. If the configuration cannot be
// built, a no-op logger is returned so that the robot can still run.
func NewLogger(name string, debug bool) *zap.SugaredLogger {
	l, err := NewConfig(debug).Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Named(name).Sugar()
}
