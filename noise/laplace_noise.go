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

package noise

import (
	"fmt"
	"math"

	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/rand"
)

var (
	// granularityParam determines the resolution of the numerical noise that is
	// being generated relative to the L_1 sensitivity and privacy parameter epsilon.
	// Larger values result in more fine grained noise, but increase the chance of
	// sampling inaccuracies due to overflows. The probability of an overflow is less
	// than 2⁻¹⁰⁰⁰, if the granularity parameter is set to a value of 2⁴⁰ or less and
	// the epsilon passed to AddNoise is at least 2⁻⁵⁰.
	//
	// This parameter should be a power of 2.
	granularityParam = math.Exp2(40)

	// secureGenerator backs the Noise instances returned by Laplace and Gaussian.
	secureGenerator = rand.NewSecure()
)

type laplace struct {
	g *rand.Generator
}

// Laplace returns a Noise instance that adds Laplace noise to its input.
// Its AddNoise function will fail if called with a non-zero delta.
//
// The Laplace noise is based on a geometric sampling mechanism that is robust against
// unintentional privacy leaks due to artifacts of floating point arithmetic. See
// https://github.com/google/differential-privacy/blob/main/common_docs/Secure_Noise_Generation.pdf
// for more information.
func Laplace() Noise {
	return laplace{g: secureGenerator}
}

// LaplaceFrom returns Laplace noise drawing from g. Seeded generators make the
// noise reproducible, which is only appropriate for tests and experiments.
func LaplaceFrom(g *rand.Generator) Noise {
	return laplace{g: g}
}

// AddNoise adds Laplace noise to x so that the output is ε-differentially
// private given the L_1 sensitivity of the data.
func (l laplace) AddNoise(x, l1Sensitivity, epsilon, delta float64) (float64, error) {
	if err := checkArgsLaplace(l1Sensitivity, epsilon, delta); err != nil {
		return 0, err
	}
	granularity := ceilPowerOfTwo((l1Sensitivity / epsilon) / granularityParam)
	sample := l.twoSidedGeometric(granularity * epsilon / (l1Sensitivity + granularity))
	return roundToMultipleOfPowerOfTwo(x, granularity) + float64(sample)*granularity, nil
}

// Scale returns λ = l1Sensitivity / ε.
func (laplace) Scale(l1Sensitivity, epsilon, delta float64) (float64, error) {
	if err := checkArgsLaplace(l1Sensitivity, epsilon, delta); err != nil {
		return 0, err
	}
	return l1Sensitivity / epsilon, nil
}

func (laplace) Kind() Kind {
	return LaplaceNoise
}

func (laplace) String() string {
	return "Laplace Noise"
}

func checkArgsLaplace(l1Sensitivity, epsilon, delta float64) error {
	if err := checks.CheckSensitivity(l1Sensitivity, "L1Sensitivity"); err != nil {
		return err
	}
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return err
	}
	if delta != 0 {
		return fmt.Errorf("Delta is %e, must be 0 for Laplace noise", delta)
	}
	return nil
}

// geometric draws a sample drawn from a geometric distribution with parameter
//
//	p = 1 - e^-λ.
//
// More precisely, it returns the number of Bernoulli trials until the first success
// where the success probability is p = 1 - e^-λ. The returned sample is truncated
// to the max int64 value.
//
// Note that to ensure that a truncation happens with probability less than 10⁻⁶,
// λ must be greater than 2⁻⁵⁹.
func (l laplace) geometric(lambda float64) int64 {
	if l.g.Uniform() > -1.0*math.Expm1(-1.0*lambda*math.MaxInt64) {
		return math.MaxInt64
	}

	// Binary search over (left, right]: each step keeps the subinterval that
	// contains the sample, chosen with its conditional probability mass.
	var left int64 = 0
	var right int64 = math.MaxInt64
	for left+1 < right {
		// The midpoint splits the probability mass of (left, right] roughly in
		// half, which is at most the arithmetic mean of the interval.
		mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(lambda*float64(left-right))))/lambda))
		if mid <= left {
			mid = left + 1
		} else if mid >= right {
			mid = right - 1
		}
		// q = Pr[X ≤ mid | left < X ≤ right]
		q := math.Expm1(lambda*float64(left-mid)) / math.Expm1(lambda*float64(left-right))
		if l.g.Uniform() <= q {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// twoSidedGeometric draws a sample from a geometric distribution that is
// mirrored at 0. The non-negative part of the distribution's PDF matches
// the PDF of a geometric distribution of parameter p = 1 - e^-λ that is
// shifted to the left by 1 and scaled accordingly.
func (l laplace) twoSidedGeometric(lambda float64) int64 {
	var sample int64 = 0
	var sign int64 = -1
	// A 0 drawn with a negative sign is redrawn, otherwise 0 would be twice
	// as likely as it should be.
	for sample == 0 && sign == -1 {
		sample = l.geometric(lambda) - 1
		sign = int64(l.g.Sign())
	}
	return sample * sign
}
