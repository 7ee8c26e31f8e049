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

// Package noise contains the mechanisms that private density summaries use to
// re-release their state under a new privacy budget.
package noise

import (
	"fmt"

	log "github.com/golang/glog"
)

// Kind is an enum type. Its values are the supported noise distributions types
// for differential privacy operations.
type Kind int

// Noise distributions used to achieve Differential Privacy.
const (
	GaussianNoise Kind = iota
	LaplaceNoise
	Unrecognised
)

func (k Kind) String() string {
	switch k {
	case GaussianNoise:
		return "gaussian"
	case LaplaceNoise:
		return "laplace"
	}
	return fmt.Sprintf("unrecognised(%d)", int(k))
}

// ToNoise converts a Kind into a Noise instance drawing from the secure
// generator.
func ToNoise(k Kind) Noise {
	switch k {
	case GaussianNoise:
		return Gaussian()
	case LaplaceNoise:
		return Laplace()
	case Unrecognised:
		log.Warningf("ToNoise: Unrecognised noise specified, returning nil")
	default:
		log.Warningf("ToNoise: unknown kind (%v) specified, returning nil", k)
	}
	return nil
}

// Noise is an interface for primitives that add noise to data to make it differentially private.
type Noise interface {
	// AddNoise adds noise to x so that the output is (ε,δ)-differentially
	// private for data with the given sensitivity. Laplace noise expects an
	// L1 sensitivity and δ = 0; Gaussian noise expects an L2 sensitivity and
	// δ in (0, 1).
	AddNoise(x, sensitivity, epsilon, delta float64) (float64, error)

	// Scale returns the scale parameter of the noise distribution that
	// AddNoise uses for the given parameters: λ for Laplace, σ for Gaussian.
	Scale(sensitivity, epsilon, delta float64) (float64, error)

	// Kind identifies the noise distribution.
	Kind() Kind
}
