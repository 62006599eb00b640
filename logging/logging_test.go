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

package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestNewConfig(t *testing.T) {
	c := NewConfig(false)
	test.That(t, c.Level.Level(), test.ShouldEqual, zapcore.InfoLevel)
	test.That(t, c.Encoding, test.ShouldEqual, "console")
	test.That(t, c.DisableStacktrace, test.ShouldBeTrue)
	test.That(t, NewConfig(true).Level.Level(), test.ShouldEqual, zapcore.DebugLevel)
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("test", true)
	test.That(t, l, test.ShouldNotBeNil)
	test.That(t, l.Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)
	test.That(t, NewLogger("test", false).Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeFalse)
}
