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

// Package race holds the private RACE (Repeated Array of Count Estimators)
// summary: one row of LSH bucket counts per repetition. A query hashes the
// point once per repetition and averages the counts of the buckets it lands
// in, which estimates the kernel density defined by the LSH collision
// probability.
package race

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/noise"
)

// State is the persisted content of a RACE summary.
type State struct {
	// Reps is the number of repetitions (rows).
	Reps int
	// Range is the number of buckets per row; hash values are reduced modulo Range.
	Range int
	// N is the number of points the counts were accumulated from.
	N float64
	// Counts holds Reps*Range counts in row-major order.
	Counts []float64
}

// Options configures a Sketch.
type Options struct {
	// Noise used to privatize the counts. Defaults to noise.Laplace().
	Noise noise.Noise
}

// Sketch answers density queries from a RACE State under a privacy budget.
// Each point of the summarized data set contributes to exactly one bucket per
// row, so the counts have L1 sensitivity Reps.
type Sketch struct {
	st      State
	noise   noise.Noise
	epsilon float64
	// released holds the noisy counts for the current epsilon; nil until
	// SetEpsilon is called, in which case raw counts are used.
	released []float64
}

// New returns a Sketch over st.
func New(st State, opt *Options) (*Sketch, error) {
	if err := checks.CheckPositiveInt(st.Reps, "Reps"); err != nil {
		return nil, err
	}
	if err := checks.CheckPositiveInt(st.Range, "Range"); err != nil {
		return nil, err
	}
	if len(st.Counts) != st.Reps*st.Range {
		return nil, fmt.Errorf("Counts has %d values, must have Reps*Range = %d", len(st.Counts), st.Reps*st.Range)
	}
	if st.N <= 0 || math.IsInf(st.N, 0) || math.IsNaN(st.N) {
		return nil, fmt.Errorf("N is %f, must be strictly positive and finite", st.N)
	}
	if opt == nil {
		opt = &Options{}
	}
	n := opt.Noise
	if n == nil {
		n = noise.Laplace()
	}
	return &Sketch{st: st, noise: n}, nil
}

// Reps returns the number of repetitions, i.e. the number of hash values a
// query needs.
func (s *Sketch) Reps() int {
	return s.st.Reps
}

// Epsilon returns the current privacy budget, or 0 if none was set.
func (s *Sketch) Epsilon() float64 {
	return s.epsilon
}

// SetEpsilon re-releases the counts with fresh noise calibrated to epsilon.
// Previous releases are discarded.
func (s *Sketch) SetEpsilon(epsilon float64) error {
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return err
	}
	released := make([]float64, len(s.st.Counts))
	l1Sensitivity := float64(s.st.Reps)
	for i, c := range s.st.Counts {
		v, err := s.noise.AddNoise(c, l1Sensitivity, epsilon, 0)
		if err != nil {
			return fmt.Errorf("couldn't add noise to count %d: %w", i, err)
		}
		released[i] = v
	}
	s.released, s.epsilon = released, epsilon
	log.V(1).Infof("race: released %d counts with %v at epsilon %f", len(released), s.noise, epsilon)
	return nil
}

// Query returns the density estimate for a point given its hash values, one
// per repetition.
func (s *Sketch) Query(hashes []int64) (float64, error) {
	if len(hashes) != s.st.Reps {
		return 0, fmt.Errorf("got %d hash values, must have one per repetition (%d)", len(hashes), s.st.Reps)
	}
	counts := s.st.Counts
	if s.released != nil {
		counts = s.released
	}
	var sum float64
	for r, h := range hashes {
		sum += counts[r*s.st.Range+bucket(h, s.st.Range)]
	}
	return sum / float64(s.st.Reps) / s.st.N, nil
}

// bucket reduces h into [0, n).
func bucket(h int64, n int) int {
	b := int(h % int64(n))
	if b < 0 {
		b += n
	}
	return b
}
