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

package dpeval

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/differential-privacy/densityeval/adapter"
	"github.com/google/differential-privacy/densityeval/kmerelease"
	"github.com/google/differential-privacy/densityeval/stattestutils"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// mockSketch answers the i-th query of every epsilon with answer(i).
type mockSketch struct {
	answer   func(i int) float64
	n        int
	calls    int
	epsilons []float64
	failAt   int
}

func newMock(n int, answer func(i int) float64) *mockSketch {
	return &mockSketch{answer: answer, n: n, failAt: -1}
}

func (m *mockSketch) SetEpsilon(epsilon float64) error {
	m.epsilons = append(m.epsilons, epsilon)
	return nil
}

func (m *mockSketch) Query(point []float64) (float64, error) {
	if m.calls == m.failAt {
		return 0, errors.New("query failed")
	}
	i := m.calls % m.n
	m.calls++
	return m.answer(i), nil
}

var (
	testQueries = [][]float64{{0, 0}, {1, 0}, {0, 1}}
	testGTruth  = []float64{1.0, 2.0, 4.0}
)

func TestRelativeError(t *testing.T) {
	for _, tc := range []struct {
		estimate, truth, want float64
	}{
		{1, 1, 0},
		{1.5, 1, 0.5},
		{0.5, 1, 0.5},
		{0, 4, 1},
		{8, 4, 1},
	} {
		if got := RelativeError(tc.estimate, tc.truth); got != tc.want {
			t.Errorf("RelativeError(%f, %f) = %f, want %f", tc.estimate, tc.truth, got, tc.want)
		}
	}
}

func TestRunExactSketch(t *testing.T) {
	m := newMock(len(testGTruth), func(i int) float64 { return testGTruth[i] })
	res, err := Run(m, testQueries, testGTruth, []float64{0.1, 1.0}, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	want := []ErrorRecord{{Epsilon: 0.1}, {Epsilon: 1.0}}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("Run mismatch (-want +got):\n%s", diff)
	}
}

func TestRunConstantOverestimate(t *testing.T) {
	m := newMock(len(testGTruth), func(i int) float64 { return testGTruth[i] * 1.1 })
	res, err := Run(m, testQueries, testGTruth, []float64{0.5}, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	want := []ErrorRecord{{Epsilon: 0.5, Mean: 0.1, Std: 0}}
	if diff := cmp.Diff(want, res.Records, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Run mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMatchesReferenceStatistics(t *testing.T) {
	estimates := []float64{1.5, 1, 0, 4.4}
	gtruth := []float64{1, 2, 4, 4}
	queries := make([][]float64, len(gtruth))
	for i := range queries {
		queries[i] = []float64{float64(i)}
	}
	m := newMock(len(gtruth), func(i int) float64 { return estimates[i] })
	res, err := Run(m, queries, gtruth, []float64{1}, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	errs := stattestutils.RelativeErrors(estimates, gtruth)
	got := res.Records[0]
	if wantMean := stattestutils.SampleMean(errs); !stattestutils.NearEqual(got.Mean, wantMean, 1e-12) {
		t.Errorf("Run: mean = %f, want %f", got.Mean, wantMean)
	}
	if wantStd := stattestutils.PopulationStd(errs); !stattestutils.NearEqual(got.Std, wantStd, 1e-12) {
		t.Errorf("Run: std = %f, want %f", got.Std, wantStd)
	}
	if got.Std < 0 {
		t.Errorf("Run: std = %f, want nonnegative", got.Std)
	}
}

func TestRunPreservesEpsilonOrder(t *testing.T) {
	epsilons := []float64{2, 0.1, 1, 0.5, 10}
	m := newMock(len(testGTruth), func(i int) float64 { return testGTruth[i] })
	res, err := Run(m, testQueries, testGTruth, epsilons, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if len(res.Records) != len(epsilons) {
		t.Fatalf("Run: got %d records, want %d", len(res.Records), len(epsilons))
	}
	for k, r := range res.Records {
		if r.Epsilon != epsilons[k] {
			t.Errorf("Run: record %d has epsilon %f, want %f", k, r.Epsilon, epsilons[k])
		}
	}
	if diff := cmp.Diff(epsilons, m.epsilons); diff != "" {
		t.Errorf("SetEpsilon calls mismatch (-want +got):\n%s", diff)
	}
	if m.calls != len(epsilons)*len(testQueries) {
		t.Errorf("Run made %d queries, want %d", m.calls, len(epsilons)*len(testQueries))
	}
}

func TestRunLatency(t *testing.T) {
	m := newMock(len(testGTruth), func(i int) float64 { return testGTruth[i] })
	res, err := Run(m, testQueries, testGTruth, []float64{0.1, 1}, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if res.AvgQueryMillis <= 0 || math.IsInf(res.AvgQueryMillis, 0) || math.IsNaN(res.AvgQueryMillis) {
		t.Errorf("Run: AvgQueryMillis = %f, want strictly positive and finite", res.AvgQueryMillis)
	}

	// With a fake clock the average is the elapsed time over n * len(epsilons).
	clock := time.Unix(0, 0)
	now := func() time.Time {
		c := clock
		clock = clock.Add(600 * time.Millisecond)
		return c
	}
	res, err = Run(m, testQueries, testGTruth, []float64{0.1, 1}, &Options{Now: now})
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if want := 100.0; res.AvgQueryMillis != want {
		t.Errorf("Run with a fake clock: AvgQueryMillis = %f, want %f", res.AvgQueryMillis, want)
	}
}

func TestRunProgressCadence(t *testing.T) {
	const n = 1500
	queries := make([][]float64, n)
	gtruth := make([]float64, n)
	for i := range queries {
		queries[i] = []float64{float64(i)}
		gtruth[i] = 1
	}
	var ticks, totals []int
	opt := &Options{Progress: func(done, total int) {
		ticks = append(ticks, done)
		totals = append(totals, total)
	}}
	m := newMock(n, func(int) float64 { return 1 })
	if _, err := Run(m, queries, gtruth, []float64{0.5, 1}, opt); err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if diff := cmp.Diff([]int{0, 1000, 2000}, ticks); diff != "" {
		t.Errorf("progress ticks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3000, 3000, 3000}, totals); diff != "" {
		t.Errorf("progress totals mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateEpsilonProgressIsLocal(t *testing.T) {
	var ticks []int
	opt := &Options{ProgressEvery: 2, Progress: func(done, total int) { ticks = append(ticks, done) }}
	m := newMock(len(testGTruth), func(i int) float64 { return testGTruth[i] })
	r, err := EvaluateEpsilon(m, 0.3, testQueries, testGTruth, opt)
	if err != nil {
		t.Fatalf("EvaluateEpsilon: got err %v", err)
	}
	if r.Epsilon != 0.3 || r.Mean != 0 || r.Std != 0 {
		t.Errorf("EvaluateEpsilon = %+v, want epsilon 0.3 with zero error", r)
	}
	if diff := cmp.Diff([]int{0, 2}, ticks); diff != "" {
		t.Errorf("progress ticks mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterProgress(t *testing.T) {
	var buf bytes.Buffer
	p := WriterProgress(&buf)
	p(0, 3000)
	p(1000, 3000)
	want := "\rProgress: 0.0000 %\rProgress: 33.3333 %"
	if got := buf.String(); got != want {
		t.Errorf("WriterProgress wrote %q, want %q", got, want)
	}
}

func TestRunOnQuery(t *testing.T) {
	var count int
	opt := &Options{OnQuery: func(d time.Duration) {
		if d < 0 {
			t.Errorf("OnQuery got negative duration %v", d)
		}
		count++
	}}
	m := newMock(len(testGTruth), func(i int) float64 { return testGTruth[i] })
	if _, err := Run(m, testQueries, testGTruth, []float64{1, 2}, opt); err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if count != 6 {
		t.Errorf("OnQuery called %d times, want 6", count)
	}
}

func TestRunZeroGroundTruth(t *testing.T) {
	gtruth := []float64{1, 0, 4}
	m := newMock(len(gtruth), func(int) float64 { return 1 })
	res, err := Run(m, testQueries, gtruth, []float64{1}, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if got := res.Records[0].Mean; !math.IsInf(got, 0) && !math.IsNaN(got) {
		t.Errorf("Run with zero ground truth: mean = %f, want a non-finite value", got)
	}

	m = newMock(len(gtruth), func(int) float64 { return 1 })
	if _, err := Run(m, testQueries, gtruth, []float64{1}, &Options{ValidateGroundTruth: true}); err == nil {
		t.Errorf("Run with zero ground truth and validation: got nil error")
	}
	if m.calls != 0 {
		t.Errorf("Run with failed validation made %d queries, want 0", m.calls)
	}
}

func TestRunErrors(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		queries  [][]float64
		gtruth   []float64
		epsilons []float64
		failAt   int
	}{
		{"no queries", nil, nil, []float64{1}, -1},
		{"ground truth too short", testQueries, testGTruth[:2], []float64{1}, -1},
		{"no epsilons", testQueries, testGTruth, nil, -1},
		{"zero epsilon", testQueries, testGTruth, []float64{1, 0}, -1},
		{"failing query", testQueries, testGTruth, []float64{1, 2}, 4},
	} {
		m := newMock(3, func(int) float64 { return 1 })
		m.failAt = tc.failAt
		res, err := Run(m, tc.queries, tc.gtruth, tc.epsilons, nil)
		if err == nil {
			t.Errorf("Run with %s: got nil error", tc.desc)
		}
		if res != nil {
			t.Errorf("Run with %s: got a result set %+v, want none", tc.desc, res)
		}
	}
}

func TestUnsupportedKernelFailsBeforeQueries(t *testing.T) {
	rel, err := kmerelease.New(kmerelease.State{Dim: 2, Points: []float64{0, 0}, Weights: []float64{1}, N: 1, Delta: 1e-6}, nil)
	if err != nil {
		t.Fatalf("kmerelease.New: got err %v", err)
	}
	sk, err := adapter.NewKME(rel, 2, 1)
	if !errors.Is(err, adapter.ErrUnsupportedKernel) {
		t.Fatalf("NewKME with kernel 2: got err %v, want %v", err, adapter.ErrUnsupportedKernel)
	}
	if sk != nil {
		t.Errorf("NewKME with kernel 2 returned a sketch")
	}

	c := &adapter.Config{Backend: adapter.BackendRACE, File: "unused", KernelID: 2, Bandwidth: 1}
	if _, err := c.Open(2, 42); !errors.Is(err, adapter.ErrUnsupportedKernel) || strings.Contains(err.Error(), "unused") {
		t.Errorf("Open with kernel 2: got err %v, want %v without touching the file", err, adapter.ErrUnsupportedKernel)
	}
}

func TestRunWithAdapter(t *testing.T) {
	// A single reference point at the origin under the angular kernel answers
	// 0.5 for every nonzero query.
	rel, err := kmerelease.New(kmerelease.State{Dim: 2, Points: []float64{0, 0}, Weights: []float64{1}, N: 1, Delta: 1e-6}, nil)
	if err != nil {
		t.Fatalf("kmerelease.New: got err %v", err)
	}
	var sk adapter.Sketch
	sk, err = adapter.NewKME(rel, 1, 1)
	if err != nil {
		t.Fatalf("NewKME: got err %v", err)
	}
	res, err := Run(sk, [][]float64{{1, 0}, {0, 1}}, []float64{0.5, 0.5}, []float64{1}, nil)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if r := res.Records[0]; math.IsNaN(r.Mean) || r.Mean < 0 || r.Std < 0 {
		t.Errorf("Run through the adapter = %+v, want finite nonnegative statistics", r)
	}
}
