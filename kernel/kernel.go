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

// Package kernel provides the similarity functions that define the densities
// estimated by the private summaries.
//
// Both kernels are collision probabilities of locality-sensitive hash
// families, so that a summary built from those hashes estimates exactly the
// density they define:
//
//	kernel id 0: L2(‖x-y‖, bandwidth), the p-stable Euclidean LSH of width bandwidth.
//	kernel id 1: SRP(x, y)^p, p concatenated signed random projections, p = int(bandwidth).
package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/differential-privacy/densityeval/checks"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrUnsupportedKernel is returned when a kernel id other than Euclidean or
// Angular is requested.
var ErrUnsupportedKernel = errors.New("unsupported kernel")

// ID identifies a kernel.
type ID int

// Recognized kernels.
const (
	Euclidean ID = 0
	Angular   ID = 1
)

func (id ID) String() string {
	switch id {
	case Euclidean:
		return "euclidean"
	case Angular:
		return "angular"
	}
	return fmt.Sprintf("kernel(%d)", int(id))
}

// Func returns the similarity of x and y, a value in [0, 1]. x and y must have
// the same dimension.
type Func func(x, y []float64) float64

// L2 returns the probability that two points at Euclidean distance dist
// collide under a p-stable LSH of width w. It is 1 at distance 0 and decreases
// monotonically towards 0 as dist grows.
func L2(dist, w float64) float64 {
	if dist == 0 {
		return 1
	}
	r := w / dist
	p := 1 - 2*distuv.UnitNormal.CDF(-r) - 2/(math.Sqrt(2*math.Pi)*r)*(1-math.Exp(-r*r/2))
	// Guard against rounding slightly outside of [0, 1] far in the tails.
	return math.Max(0, math.Min(1, p))
}

// SRP returns the probability that x and y fall on the same side of a random
// hyperplane, 1 - θ(x, y)/π. The angle with a zero vector is taken to be π/2.
func SRP(x, y []float64) float64 {
	nx, ny := floats.Norm(x, 2), floats.Norm(y, 2)
	if nx == 0 || ny == 0 {
		return 0.5
	}
	cos := floats.Dot(x, y) / (nx * ny)
	cos = math.Max(-1, math.Min(1, cos))
	return 1 - math.Acos(cos)/math.Pi
}

// New returns the kernel identified by id. For the Euclidean kernel,
// bandwidth is the LSH width; for the angular kernel it is truncated to the
// integer exponent p. Any id other than 0 or 1 yields ErrUnsupportedKernel.
func New(id int, bandwidth float64) (Func, error) {
	if err := checks.CheckKernelID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKernel, err)
	}
	switch ID(id) {
	case Euclidean:
		if err := checks.CheckBandwidth(bandwidth); err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			return L2(floats.Distance(x, y, 2), bandwidth)
		}, nil
	default:
		p := int(bandwidth)
		if err := checks.CheckExponent(p); err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			return math.Pow(SRP(x, y), float64(p))
		}, nil
	}
}
