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

package bernstein

import (
	"math"
	"testing"

	"github.com/google/differential-privacy/densityeval/noise"
	"github.com/google/differential-privacy/densityeval/rand"
	"gonum.org/v1/gonum/floats"
)

func constantState(dim, degree int, value float64) State {
	nodes := int(math.Pow(float64(degree+1), float64(dim)))
	c := make([]float64, nodes)
	for i := range c {
		c[i] = value
	}
	return State{Dim: dim, Degree: degree, N: 100, Coefficients: c}
}

func TestQueryReproducesConstants(t *testing.T) {
	// Bernstein basis polynomials sum to 1, so constant coefficients are
	// interpolated exactly everywhere in the cube.
	r, err := New(constantState(2, 3, 0.7), nil)
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	for _, x := range [][]float64{{0, 0}, {0.5, 0.5}, {0.1, 0.9}, {1, 0.3}} {
		got, err := r.Query(x)
		if err != nil {
			t.Fatalf("Query(%v): got err %v", x, err)
		}
		if !floats.EqualWithinAbs(got, 0.7, 1e-12) {
			t.Errorf("Query(%v) = %f, want 0.7", x, got)
		}
	}
}

func TestQueryReproducesLinearFunctions(t *testing.T) {
	// In one dimension, coefficients f(v/K) of a linear f are interpolated exactly.
	const k = 4
	c := make([]float64, k+1)
	for v := range c {
		c[v] = 2*float64(v)/k + 1
	}
	r, err := New(State{Dim: 1, Degree: k, N: 10, Coefficients: c}, nil)
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	for _, x := range []float64{0, 0.25, 0.6, 1} {
		got, err := r.Query([]float64{x})
		if err != nil {
			t.Fatalf("Query(%f): got err %v", x, err)
		}
		if want := 2*x + 1; !floats.EqualWithinAbs(got, want, 1e-12) {
			t.Errorf("Query(%f) = %f, want %f", x, got, want)
		}
	}
}

func TestQueryAtLatticeCorners(t *testing.T) {
	// At the corners of the cube only the corner coefficient contributes.
	st := constantState(2, 2, 0)
	st.Coefficients[0] = 3                      // node (0, 0)
	st.Coefficients[len(st.Coefficients)-1] = 5 // node (1, 1)
	r, err := New(st, nil)
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	for _, tc := range []struct {
		x    []float64
		want float64
	}{
		{[]float64{0, 0}, 3},
		{[]float64{1, 1}, 5},
		{[]float64{1, 0}, 0},
		// Out of cube coordinates are clamped.
		{[]float64{-2, -0.1}, 3},
	} {
		got, err := r.Query(tc.x)
		if err != nil {
			t.Fatalf("Query(%v): got err %v", tc.x, err)
		}
		if !floats.EqualWithinAbs(got, tc.want, 1e-12) {
			t.Errorf("Query(%v) = %f, want %f", tc.x, got, tc.want)
		}
	}
}

func TestQueryRejectsWrongDimension(t *testing.T) {
	r, err := New(constantState(2, 2, 1), nil)
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	if _, err := r.Query([]float64{0.5}); err == nil {
		t.Errorf("Query with 1 coordinate in dimension 2: got nil error")
	}
}

func TestSetEpsilonAddsNoise(t *testing.T) {
	r, err := New(constantState(2, 2, 0.5), &Options{Noise: noise.LaplaceFrom(rand.NewSeeded(4))})
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	if err := r.SetEpsilon(1); err != nil {
		t.Fatalf("SetEpsilon: got err %v", err)
	}
	got, err := r.Query([]float64{0.3, 0.3})
	if err != nil {
		t.Fatalf("Query: got err %v", err)
	}
	if got == 0.5 || math.IsNaN(got) {
		t.Errorf("Query after SetEpsilon = %f, want a noisy finite value", got)
	}
	if err := r.SetEpsilon(0); err == nil {
		t.Errorf("SetEpsilon(0): got nil error")
	}
}

func TestNewRejectsInvalidState(t *testing.T) {
	for _, tc := range []struct {
		desc string
		st   State
	}{
		{"zero dim", State{Dim: 0, Degree: 1, N: 1}},
		{"zero degree", State{Dim: 1, Degree: 0, N: 1, Coefficients: []float64{1}}},
		{"coefficient count mismatch", State{Dim: 2, Degree: 1, N: 1, Coefficients: []float64{1, 2, 3}}},
		{"zero points", State{Dim: 1, Degree: 1, N: 0, Coefficients: []float64{1, 2}}},
	} {
		if _, err := New(tc.st, nil); err == nil {
			t.Errorf("New: when %s got nil error", tc.desc)
		}
	}
}
