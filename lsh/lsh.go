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

// Package lsh provides the locality-sensitive projection families that map a
// query point to one bucket per repetition of an LSH-bucketed summary.
//
// Families are built from an explicit seed: two families with equal
// parameters and seed hash every point identically, independently of any
// other randomness in the process.
package lsh

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/rand"
	"gonum.org/v1/gonum/mat"
)

// maxBits bounds the number of concatenated sign bits of an SRP repetition so
// that the combined hash fits an int64.
const maxBits = 62

// Family hashes a point into one integer per repetition.
type Family interface {
	// Hash returns Reps() hash values for x, which must have dimension Dim().
	Hash(x []float64) ([]int64, error)
	Reps() int
	Dim() int
}

// L2 is the p-stable LSH family for Euclidean distance: repetition r hashes x to
// ⌊(a_r·x + b_r) / w⌋ with a_r Gaussian and b_r uniform in [0, w).
type L2 struct {
	w       float64
	proj    *mat.Dense
	offsets []float64
}

// NewL2 returns an L2 family of reps repetitions over dim-dimensional points
// with bucket width w.
func NewL2(reps, dim int, w float64, seed int64) (*L2, error) {
	if err := checks.CheckPositiveInt(reps, "Reps"); err != nil {
		return nil, err
	}
	if err := checks.CheckPositiveInt(dim, "Dim"); err != nil {
		return nil, err
	}
	if err := checks.CheckBandwidth(w); err != nil {
		return nil, err
	}
	g := rand.NewSeeded(seed)
	proj := mat.NewDense(reps, dim, nil)
	for r := 0; r < reps; r++ {
		for j := 0; j < dim; j++ {
			proj.Set(r, j, g.Normal())
		}
	}
	offsets := make([]float64, reps)
	for r := range offsets {
		offsets[r] = g.Float64() * w
	}
	log.V(1).Infof("lsh: built L2 family (reps=%d, dim=%d, w=%f, seed=%d)", reps, dim, w, seed)
	return &L2{w: w, proj: proj, offsets: offsets}, nil
}

// Hash implements Family.
func (l *L2) Hash(x []float64) ([]int64, error) {
	p, err := project(l.proj, x)
	if err != nil {
		return nil, err
	}
	h := make([]int64, len(p))
	for r, v := range p {
		h[r] = int64(math.Floor((v + l.offsets[r]) / l.w))
	}
	return h, nil
}

// Reps implements Family.
func (l *L2) Reps() int {
	r, _ := l.proj.Dims()
	return r
}

// Dim implements Family.
func (l *L2) Dim() int {
	_, c := l.proj.Dims()
	return c
}

// SRP is the signed random projection family for angular distance. Each
// repetition concatenates bits sign bits into an integer in [0, 2^bits).
type SRP struct {
	reps, bits int
	proj       *mat.Dense
}

// NewSRP returns an SRP family of reps repetitions over dim-dimensional points,
// each repetition using bits hyperplanes.
func NewSRP(reps, dim, bits int, seed int64) (*SRP, error) {
	if err := checks.CheckPositiveInt(reps, "Reps"); err != nil {
		return nil, err
	}
	if err := checks.CheckPositiveInt(dim, "Dim"); err != nil {
		return nil, err
	}
	if err := checks.CheckExponent(bits); err != nil {
		return nil, err
	}
	if bits > maxBits {
		return nil, fmt.Errorf("Exponent is %d, must be at most %d", bits, maxBits)
	}
	g := rand.NewSeeded(seed)
	proj := mat.NewDense(reps*bits, dim, nil)
	for i := 0; i < reps*bits; i++ {
		for j := 0; j < dim; j++ {
			proj.Set(i, j, g.Normal())
		}
	}
	log.V(1).Infof("lsh: built SRP family (reps=%d, dim=%d, bits=%d, seed=%d)", reps, dim, bits, seed)
	return &SRP{reps: reps, bits: bits, proj: proj}, nil
}

// Hash implements Family.
func (s *SRP) Hash(x []float64) ([]int64, error) {
	p, err := project(s.proj, x)
	if err != nil {
		return nil, err
	}
	h := make([]int64, s.reps)
	for r := range h {
		var code int64
		for k := 0; k < s.bits; k++ {
			if p[r*s.bits+k] >= 0 {
				code |= 1 << k
			}
		}
		h[r] = code
	}
	return h, nil
}

// Reps implements Family.
func (s *SRP) Reps() int { return s.reps }

// Dim implements Family.
func (s *SRP) Dim() int {
	_, c := s.proj.Dims()
	return c
}

// project returns proj·x.
func project(proj *mat.Dense, x []float64) ([]float64, error) {
	rows, dim := proj.Dims()
	if err := checks.CheckDimension(len(x), dim); err != nil {
		return nil, err
	}
	var v mat.VecDense
	v.MulVec(proj, mat.NewVecDense(dim, x))
	out := make([]float64, rows)
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out, nil
}
