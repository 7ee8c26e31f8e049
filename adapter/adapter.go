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

// Package adapter exposes every private density summary behind one Sketch
// contract, so an evaluation never branches on the summary type.
//
// Each backend answers queries in its own way: RACE hashes the point with an
// LSH family matching the kernel, Bernstein rescales the point into the unit
// cube, and the KME release evaluates the kernel against its reference points.
package adapter

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/bernstein"
	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/kernel"
	"github.com/google/differential-privacy/densityeval/kmerelease"
	"github.com/google/differential-privacy/densityeval/lsh"
	"github.com/google/differential-privacy/densityeval/race"
)

// ErrUnsupportedKernel is returned when a sketch is configured with a kernel
// id other than 0 or 1.
var ErrUnsupportedKernel = kernel.ErrUnsupportedKernel

// Sketch is a private density summary that can be re-privatized at a given
// budget and queried for the density at a point.
type Sketch interface {
	// SetEpsilon privatizes the summary with budget epsilon. Later queries
	// answer from the privatized summary.
	SetEpsilon(epsilon float64) error
	// Query returns the estimated density at point.
	Query(point []float64) (float64, error)
	// Name identifies the backend in reports.
	Name() string
}

func checkKernelID(id int) error {
	if err := checks.CheckKernelID(id); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedKernel, err)
	}
	return nil
}

// RACE answers queries from a RACE sketch through an LSH family whose
// collision probability is the configured kernel.
type RACE struct {
	sketch *race.Sketch
	family lsh.Family
}

// NewRACE wraps sk. Kernel 0 hashes with an L2 family of width bandwidth;
// kernel 1 hashes with int(bandwidth) concatenated signed random projections
// per repetition. The family is drawn from seed over dim-dimensional points.
func NewRACE(sk *race.Sketch, kernelID int, bandwidth float64, dim int, seed int64) (*RACE, error) {
	if err := checkKernelID(kernelID); err != nil {
		return nil, err
	}
	var (
		family lsh.Family
		err    error
	)
	switch kernel.ID(kernelID) {
	case kernel.Euclidean:
		family, err = lsh.NewL2(sk.Reps(), dim, bandwidth, seed)
	default:
		family, err = lsh.NewSRP(sk.Reps(), dim, int(bandwidth), seed)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't build the %v projection family: %w", kernel.ID(kernelID), err)
	}
	return &RACE{sketch: sk, family: family}, nil
}

func (r *RACE) SetEpsilon(epsilon float64) error {
	return r.sketch.SetEpsilon(epsilon)
}

func (r *RACE) Query(point []float64) (float64, error) {
	h, err := r.family.Hash(point)
	if err != nil {
		return 0, err
	}
	return r.sketch.Query(h)
}

func (r *RACE) Name() string {
	return BackendRACE.Name()
}

// Bernstein answers queries from a Bernstein release after dividing the
// point by the integer scale factor that mapped the data into [0,1]^d.
type Bernstein struct {
	release *bernstein.Release
	scale   float64
}

// NewBernstein wraps rel. kernelID is only validated: the release already
// encodes its kernel, and a disagreement with the recorded one is logged.
func NewBernstein(rel *bernstein.Release, kernelID, scaleFactor int) (*Bernstein, error) {
	if err := checkKernelID(kernelID); err != nil {
		return nil, err
	}
	if err := checks.CheckScaleFactor(scaleFactor); err != nil {
		return nil, err
	}
	if rel.Kernel() != kernelID {
		log.Warningf("Bernstein release was built for kernel %v, configured kernel %v is ignored", kernel.ID(rel.Kernel()), kernel.ID(kernelID))
	}
	return &Bernstein{release: rel, scale: float64(scaleFactor)}, nil
}

func (b *Bernstein) SetEpsilon(epsilon float64) error {
	return b.release.SetEpsilon(epsilon)
}

func (b *Bernstein) Query(point []float64) (float64, error) {
	scaled := make([]float64, len(point))
	for i, v := range point {
		scaled[i] = v / b.scale
	}
	return b.release.Query(scaled)
}

func (b *Bernstein) Name() string {
	return BackendBernstein.Name()
}

// KME answers queries from a KME release under the configured kernel.
type KME struct {
	release *kmerelease.Release
	kernel  kernel.Func
}

// NewKME wraps rel with the kernel identified by kernelID and bandwidth.
func NewKME(rel *kmerelease.Release, kernelID int, bandwidth float64) (*KME, error) {
	k, err := kernel.New(kernelID, bandwidth)
	if err != nil {
		return nil, err
	}
	return &KME{release: rel, kernel: k}, nil
}

func (k *KME) SetEpsilon(epsilon float64) error {
	return k.release.SetEpsilon(epsilon)
}

func (k *KME) Query(point []float64) (float64, error) {
	return k.release.Query(point, k.kernel)
}

func (k *KME) Name() string {
	return BackendKME.Name()
}
