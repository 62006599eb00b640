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

package robot

import (
	"time"

	ring "github.com/zfjagann/golang-ring"
)

// Record is the state of the robot at the end of one tick.
type Record struct {
	Time     time.Time     `json:"time"`
	Mode     string        `json:"mode"`
	Routine  string        `json:"routine,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
	Command  string        `json:"command,omitempty"`
	Outputs  Outputs       `json:"outputs"`
	Hall     bool          `json:"hall"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Telemetry keeps the most recent tick records.
// The ring buffer does its own locking.
type Telemetry struct {
	ring ring.Ring
}

// NewTelemetry creates a telemetry buffer holding size records.
func NewTelemetry(size int) *Telemetry {
	t := new(Telemetry)
	t.ring.SetCapacity(size)
	return t
}

// Add appends a record, dropping the oldest if the buffer is full.
func (t *Telemetry) Add(r Record) {
	t.ring.Enqueue(r)
}

// Last returns the most recent record.
func (t *Telemetry) Last() (Record, bool) {
	v := t.ring.Values()
	if len(v) == 0 {
		return Record{}, false
	}
	return v[len(v)-1].(Record), true
}

// Records returns the records held, oldest first.
func (t *Telemetry) Records() []Record {
	v := t.ring.Values()
	recs := make([]Record, len(v))
	for i, r := range v {
		recs[i] = r.(Record)
	}
	return recs
}
