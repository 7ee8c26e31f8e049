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

// Package kmerelease holds the private kernel mean embedding (KME) release: a
// set of weighted reference points whose kernel expansion approximates the
// density of the private data set. The kernel is supplied at query time, so
// the same release can be evaluated under any kernel.Func.
package kmerelease

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/kernel"
	"github.com/google/differential-privacy/densityeval/noise"
)

// State is the persisted content of a KME release.
type State struct {
	// Dim is the dimension of the reference points.
	Dim int
	// Points holds len(Weights) reference points of dimension Dim, row-major.
	Points []float64
	// Weights holds one weight per reference point.
	Weights []float64
	// N is the number of points of the private data set.
	N float64
	// Delta is the δ of the (ε,δ) guarantee of the release.
	Delta float64
	// Sensitivity is the L2 sensitivity of Weights. If zero, sqrt(M)/N is
	// used for M reference points.
	Sensitivity float64
}

// Options configures a Release.
type Options struct {
	// Noise used to privatize the weights. Defaults to noise.Gaussian().
	Noise noise.Noise
}

// Release answers density queries from a KME State under a privacy budget.
type Release struct {
	st          State
	noise       noise.Noise
	sensitivity float64
	epsilon     float64
	points      [][]float64
	released    []float64
}

// New returns a Release over st.
func New(st State, opt *Options) (*Release, error) {
	if err := checks.CheckPositiveInt(st.Dim, "Dim"); err != nil {
		return nil, err
	}
	m := len(st.Weights)
	if err := checks.CheckPositiveInt(m, "Number of reference points"); err != nil {
		return nil, err
	}
	if len(st.Points) != m*st.Dim {
		return nil, fmt.Errorf("Points has %d values, must have len(Weights)*Dim = %d", len(st.Points), m*st.Dim)
	}
	if st.N <= 0 || math.IsInf(st.N, 0) || math.IsNaN(st.N) {
		return nil, fmt.Errorf("N is %f, must be strictly positive and finite", st.N)
	}
	if err := checks.CheckDeltaStrict(st.Delta); err != nil {
		return nil, err
	}
	sensitivity := st.Sensitivity
	if sensitivity == 0 {
		sensitivity = math.Sqrt(float64(m)) / st.N
	}
	if err := checks.CheckSensitivity(sensitivity, "L2Sensitivity"); err != nil {
		return nil, err
	}
	if opt == nil {
		opt = &Options{}
	}
	n := opt.Noise
	if n == nil {
		n = noise.Gaussian()
	}
	points := make([][]float64, m)
	for i := range points {
		points[i] = st.Points[i*st.Dim : (i+1)*st.Dim]
	}
	return &Release{st: st, noise: n, sensitivity: sensitivity, points: points}, nil
}

// Dim returns the dimension of the points the release answers for.
func (r *Release) Dim() int {
	return r.st.Dim
}

// Epsilon returns the current privacy budget, or 0 if none was set.
func (r *Release) Epsilon() float64 {
	return r.epsilon
}

// SetEpsilon re-releases the weights with fresh (ε,δ) noise.
func (r *Release) SetEpsilon(epsilon float64) error {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return err
	}
	delta := r.st.Delta
	if r.noise.Kind() == noise.LaplaceNoise {
		delta = 0
	}
	released := make([]float64, len(r.st.Weights))
	for i, w := range r.st.Weights {
		v, err := r.noise.AddNoise(w, r.sensitivity, epsilon, delta)
		if err != nil {
			return fmt.Errorf("couldn't add noise to weight %d: %w", i, err)
		}
		released[i] = v
	}
	r.released, r.epsilon = released, epsilon
	log.V(1).Infof("kmerelease: released %d weights with %v at epsilon %f", len(released), r.noise, epsilon)
	return nil
}

// Query returns Σᵢ wᵢ k(x, zᵢ) over the reference points zᵢ.
func (r *Release) Query(x []float64, k kernel.Func) (float64, error) {
	if err := checks.CheckDimension(len(x), r.st.Dim); err != nil {
		return 0, err
	}
	if k == nil {
		return 0, fmt.Errorf("kernel must not be nil")
	}
	weights := r.st.Weights
	if r.released != nil {
		weights = r.released
	}
	var sum float64
	for i, z := range r.points {
		sum += weights[i] * k(x, z)
	}
	return sum, nil
}
