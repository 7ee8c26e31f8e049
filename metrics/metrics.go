//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package metrics provides Prometheus instrumentation for evaluation sweeps.
//
// Metrics exposed:
//   - densityeval_query_seconds: Histogram of single query latency
//   - densityeval_mean_relative_error: Gauge of the mean relative error per epsilon
//   - densityeval_std_relative_error: Gauge of the relative error standard deviation per epsilon
//   - densityeval_avg_query_ms: Gauge of the average per-query latency of a sweep
//
// All metrics carry the backend label. Metrics are registered on a registry
// owned by the Metrics value, so a run can be exported to a node_exporter
// textfile without any global state.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/differential-privacy/densityeval/dpeval"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of an evaluation run.
type Metrics struct {
	Registry          *prometheus.Registry
	QuerySeconds      *prometheus.HistogramVec
	MeanRelativeError *prometheus.GaugeVec
	StdRelativeError  *prometheus.GaugeVec
	AvgQueryMillis    *prometheus.GaugeVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,

		QuerySeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "densityeval_query_seconds",
			Help:    "Time spent answering a single density query",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"backend"}),

		MeanRelativeError: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "densityeval_mean_relative_error",
			Help: "Mean relative error of the density estimates at a privacy budget",
		}, []string{"backend", "epsilon"}),

		StdRelativeError: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "densityeval_std_relative_error",
			Help: "Population standard deviation of the relative error at a privacy budget",
		}, []string{"backend", "epsilon"}),

		AvgQueryMillis: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "densityeval_avg_query_ms",
			Help: "Average per-query latency of a sweep in milliseconds",
		}, []string{"backend"}),
	}
}

// QueryObserver returns a function recording query durations for backend,
// suitable for dpeval.Options.OnQuery.
func (m *Metrics) QueryObserver(backend string) func(time.Duration) {
	h := m.QuerySeconds.WithLabelValues(backend)
	return func(d time.Duration) {
		h.Observe(d.Seconds())
	}
}

// RecordResults sets the error and latency gauges of backend from res.
func (m *Metrics) RecordResults(backend string, res *dpeval.ResultSet) {
	for _, r := range res.Records {
		eps := strconv.FormatFloat(r.Epsilon, 'g', -1, 64)
		m.MeanRelativeError.WithLabelValues(backend, eps).Set(r.Mean)
		m.StdRelativeError.WithLabelValues(backend, eps).Set(r.Std)
	}
	m.AvgQueryMillis.WithLabelValues(backend).Set(res.AvgQueryMillis)
}

// WriteTextfile writes all metrics to filename in the text exposition format.
func (m *Metrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.Registry); err != nil {
		return fmt.Errorf("couldn't write metrics to %q: %w", filename, err)
	}
	return nil
}
