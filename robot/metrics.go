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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the control loop counters exported for scraping.
type Metrics struct {
	registry   *prometheus.Registry
	Ticks      *prometheus.CounterVec
	Overruns   prometheus.Counter
	TickTime   prometheus.Histogram
	Selections *prometheus.CounterVec
	Trips      prometheus.Counter
	Errors     *prometheus.CounterVec
}

// NewMetrics creates the metrics in their own registry, along with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robot_ticks_total",
			Help: "Control loop ticks, by mode.",
		}, []string{"mode"}),
		Overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robot_loop_overruns_total",
			Help: "Ticks that took longer than the loop period.",
		}),
		TickTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "robot_tick_seconds",
			Help:    "Time taken by each control loop tick.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robot_auto_selections_total",
			Help: "Autonomous routine selections, by routine and fallback reason.",
		}, []string{"routine", "fallback"}),
		Trips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robot_safety_trips_total",
			Help: "Times the motor safety watchdog stopped the drive.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robot_actuator_errors_total",
			Help: "Failed actuator updates, by mode.",
		}, []string{"mode"}),
	}
	m.registry.MustRegister(
		m.Ticks, m.Overruns, m.TickTime, m.Selections, m.Trips, m.Errors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
