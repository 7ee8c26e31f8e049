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

// Package bernstein holds the private Bernstein mechanism release: the kernel
// density evaluated on a regular lattice of the unit cube, privatized once per
// budget, and interpolated at query time with Bernstein basis polynomials.
//
// Queries must lie in [0, 1]^Dim; callers rescale their data into the cube
// (for instance by dividing by an integer scale factor) before querying.
package bernstein

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/noise"
	"gonum.org/v1/gonum/stat/combin"
)

// State is the persisted content of a Bernstein release.
type State struct {
	// Dim is the dimension of the unit cube.
	Dim int
	// Degree is the lattice degree K: each axis has K+1 nodes at 0, 1/K, ..., 1.
	Degree int
	// N is the number of points the coefficients were computed from.
	N float64
	// Kernel is the id of the kernel the coefficients were computed with.
	Kernel int
	// Coefficients holds (Degree+1)^Dim density values at the lattice nodes,
	// with the first axis varying fastest.
	Coefficients []float64
}

// Options configures a Release.
type Options struct {
	// Noise used to privatize the coefficients. Defaults to noise.Laplace().
	Noise noise.Noise
}

// Release answers density queries from a Bernstein State under a privacy budget.
type Release struct {
	st       State
	noise    noise.Noise
	epsilon  float64
	binom    []float64
	released []float64
}

// New returns a Release over st.
func New(st State, opt *Options) (*Release, error) {
	if err := checks.CheckPositiveInt(st.Dim, "Dim"); err != nil {
		return nil, err
	}
	if err := checks.CheckPositiveInt(st.Degree, "Degree"); err != nil {
		return nil, err
	}
	nodes := math.Pow(float64(st.Degree+1), float64(st.Dim))
	if nodes > math.MaxInt32 {
		return nil, fmt.Errorf("lattice of degree %d in dimension %d has %g nodes, too many", st.Degree, st.Dim, nodes)
	}
	if len(st.Coefficients) != int(nodes) {
		return nil, fmt.Errorf("Coefficients has %d values, must have (Degree+1)^Dim = %d", len(st.Coefficients), int(nodes))
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
	binom := make([]float64, st.Degree+1)
	for v := range binom {
		binom[v] = float64(combin.Binomial(st.Degree, v))
	}
	return &Release{st: st, noise: n, binom: binom}, nil
}

// Dim returns the dimension of the points the release answers for.
func (r *Release) Dim() int {
	return r.st.Dim
}

// Kernel returns the id of the kernel the release was computed with.
func (r *Release) Kernel() int {
	return r.st.Kernel
}

// Epsilon returns the current privacy budget, or 0 if none was set.
func (r *Release) Epsilon() float64 {
	return r.epsilon
}

// SetEpsilon re-releases the coefficients with fresh noise calibrated to
// epsilon. A single point moves every coefficient by at most 1/N, so the
// coefficients have L1 sensitivity (Degree+1)^Dim / N.
func (r *Release) SetEpsilon(epsilon float64) error {
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return err
	}
	l1Sensitivity := float64(len(r.st.Coefficients)) / r.st.N
	released := make([]float64, len(r.st.Coefficients))
	for i, c := range r.st.Coefficients {
		v, err := r.noise.AddNoise(c, l1Sensitivity, epsilon, 0)
		if err != nil {
			return fmt.Errorf("couldn't add noise to coefficient %d: %w", i, err)
		}
		released[i] = v
	}
	r.released, r.epsilon = released, epsilon
	log.V(1).Infof("bernstein: released %d coefficients with %v at epsilon %f", len(released), r.noise, epsilon)
	return nil
}

// Query returns the density estimate at x, a point of the unit cube.
// Coordinates outside of [0, 1] are clamped to the cube.
func (r *Release) Query(x []float64) (float64, error) {
	if err := checks.CheckDimension(len(x), r.st.Dim); err != nil {
		return 0, err
	}
	k := r.st.Degree
	// basis[j][v] is the v-th Bernstein basis polynomial of degree K at x_j.
	basis := make([][]float64, r.st.Dim)
	for j, xj := range x {
		if math.IsNaN(xj) {
			return 0, fmt.Errorf("coordinate %d is NaN", j)
		}
		xj = math.Max(0, math.Min(1, xj))
		basis[j] = make([]float64, k+1)
		for v := 0; v <= k; v++ {
			basis[j][v] = r.binom[v] * math.Pow(xj, float64(v)) * math.Pow(1-xj, float64(k-v))
		}
	}
	coefficients := r.st.Coefficients
	if r.released != nil {
		coefficients = r.released
	}
	var sum float64
	for idx, c := range coefficients {
		w := 1.0
		rest := idx
		for j := 0; j < r.st.Dim; j++ {
			w *= basis[j][rest%(k+1)]
			rest /= k + 1
		}
		sum += c * w
	}
	return sum, nil
}
