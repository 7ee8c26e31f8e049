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
	"math"

	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/google/differential-privacy/densityeval/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// The square root of the maximum number n of Bernoulli trials from which a binomial
	// sample is drawn. Larger values result in more fine-grained noise, but increase the
	// chance of sampling inaccuracies due to overflows. The probability of such an event
	// will be roughly 2⁻⁴⁵ or less, if the square root is set to 2⁵⁷.
	binomialBound float64 = math.Exp2(57.0)
	// The absolute bound of the two-sided geometric samples k that are used for creating
	// a binomial sample is m + n / 2. m is obtained via rejection sampling, which sets
	//   m = (k + l) * (sqrt(2 * n) + 1),
	// where l is a uniform random sample between 0 and 1. Bounding k prevents m from
	// overflowing.
	geometricBound int64 = (math.MaxInt64 / int64(math.Round(math.Sqrt2*binomialBound+1.0))) - 1
	// gaussianSigmaAccuracy approximates the accuracy up to which the smallest sigma that
	// satisfies the given DP parameters is computed.
	gaussianSigmaAccuracy = 1e-3
)

type gaussian struct {
	g *rand.Generator
}

// Gaussian returns a Noise instance that adds Gaussian noise to its input,
// with σ calibrated by the analytic Gaussian mechanism.
func Gaussian() Noise {
	return gaussian{g: secureGenerator}
}

// GaussianFrom returns Gaussian noise drawing from g.
func GaussianFrom(g *rand.Generator) Noise {
	return gaussian{g: g}
}

// AddNoise adds Gaussian noise to x so that the output is (ε,δ)-differentially
// private given the L_2 sensitivity of the data. The noise is a scaled
// binomial sample and the output is a multiple of a power-of-two granularity,
// which is robust against artifacts of floating point arithmetic.
func (n gaussian) AddNoise(x, l2Sensitivity, epsilon, delta float64) (float64, error) {
	sigma, err := n.Scale(l2Sensitivity, epsilon, delta)
	if err != nil {
		return 0, err
	}
	if sigma == 0 {
		// exp(ε) overflows, so no noise is required.
		return x, nil
	}
	return n.addGaussian(x, sigma), nil
}

// Scale returns the smallest σ for which the Gaussian mechanism is
// (ε,δ)-differentially private, up to gaussianSigmaAccuracy.
func (gaussian) Scale(l2Sensitivity, epsilon, delta float64) (float64, error) {
	if err := checkArgsGaussian(l2Sensitivity, epsilon, delta); err != nil {
		return 0, err
	}
	return sigmaForGaussian(l2Sensitivity, epsilon, delta), nil
}

func (gaussian) Kind() Kind {
	return GaussianNoise
}

func (gaussian) String() string {
	return "Gaussian Noise"
}

func checkArgsGaussian(l2Sensitivity, epsilon, delta float64) error {
	if err := checks.CheckSensitivity(l2Sensitivity, "L2Sensitivity"); err != nil {
		return err
	}
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return err
	}
	return checks.CheckDeltaStrict(delta)
}

// addGaussian adds Gaussian noise of scale σ to x.
func (n gaussian) addGaussian(x, sigma float64) float64 {
	granularity := ceilPowerOfTwo(2.0 * sigma / binomialBound)
	// sqrtN lies between binomialBound / 2 and binomialBound, so that the
	// binomial distribution has enough trials to approximate a Gaussian.
	sqrtN := 2.0 * sigma / granularity
	sample := n.symmetricBinomial(sqrtN)
	return roundToMultipleOfPowerOfTwo(x, granularity) + float64(sample)*granularity
}

// symmetricBinomial returns a random sample m where the term m + n / 2 is drawn from
// a binomial distribution of n Bernoulli trials that have a success probability of
// 0.5 each. The sampling technique is based on Bringmann et al.'s rejection sampling
// approach proposed in "Internal DLA: Efficient Simulation of a Physical Growth Model"
// (https://people.mpi-inf.mpg.de/~kbringma/paper/2014ICALP.pdf).
func (n gaussian) symmetricBinomial(sqrtN float64) int64 {
	stepSize := int64(math.Round(math.Sqrt2*sqrtN + 1.0))
	for {
		// 1 is subtracted from the geometric sample to count the number of Bernoulli fails
		// rather than the number of trials until the first success.
		boundedGeometricSample := int64(math.Min(n.g.Geometric()-1.0, float64(geometricBound)))
		twoSidedGeometricSample := boundedGeometricSample
		if n.g.Boolean() {
			twoSidedGeometricSample = -twoSidedGeometricSample - 1
		}

		result := stepSize*twoSidedGeometricSample + n.g.Int64N(stepSize)
		resultProbability := binomialProbability(sqrtN, result)
		rejectProbability := n.g.Uniform()
		if resultProbability > 0.0 &&
			rejectProbability < resultProbability*float64(stepSize)*math.Pow(2.0, float64(boundedGeometricSample))/4.0 {
			return result
		}
	}
}

// binomialProbability approximates the probability of a random sample m + n / 2
// drawn from a binomial distribution of n Bernoulli trials that have a success
// probability of 1 / 2 each. The approximation is based on Lemma 7 of
// https://github.com/google/differential-privacy/blob/main/common_docs/Secure_Noise_Generation.pdf
func binomialProbability(sqrtN float64, m int64) float64 {
	if math.Abs(float64(m)) > sqrtN*math.Sqrt(math.Log(sqrtN)/2.0) {
		return 0.0
	}
	return (math.Sqrt(2.0/math.Pi) / sqrtN) *
		math.Exp((-2.0*float64(m)*float64(m))/(sqrtN*sqrtN)) *
		(1 - 0.4*math.Pow(2.0, 1.5)*math.Pow(math.Log(sqrtN), 1.5)/sqrtN)
}

// deltaForGaussian computes the smallest δ such that the Gaussian mechanism
// with fixed standard deviation σ is (ε,δ)-differentially private. The
// calculation is based on Theorem 8 of Balle and Wang's "Improving the Gaussian
// Mechanism for Differential Privacy: Analytical Calibration and Optimal
// Denoising" (https://arxiv.org/abs/1805.06530v2):
//
//	δ(σ,s,ε) = Φ(s/(2σ) - εσ/s) - exp(ε)Φ(-s/(2σ) - εσ/s)
func deltaForGaussian(sigma, l2Sensitivity, epsilon float64) float64 {
	a := l2Sensitivity / (2 * sigma)
	b := epsilon * sigma / l2Sensitivity
	c := math.Exp(epsilon)
	if math.IsInf(c, +1) || math.IsInf(b, +1) {
		return 0
	}
	return distuv.UnitNormal.CDF(a-b) - c*distuv.UnitNormal.CDF(-a-b)
}

// sigmaForGaussian calculates the standard deviation σ of Gaussian noise
// needed to achieve (ε,δ)-approximate differential privacy by binary search.
// The result deviates from the tight σ by at most gaussianSigmaAccuracy*σ.
func sigmaForGaussian(l2Sensitivity, epsilon, delta float64) float64 {
	// deltaForGaussian is decreasing in σ; double until upperBound is an
	// upper bound of the tight σ.
	upperBound := l2Sensitivity
	var lowerBound float64
	for deltaForGaussian(upperBound, l2Sensitivity, epsilon) > delta {
		lowerBound = upperBound
		upperBound = upperBound * 2
	}
	for upperBound-lowerBound > gaussianSigmaAccuracy*lowerBound {
		middle := lowerBound*0.5 + upperBound*0.5
		if deltaForGaussian(middle, l2Sensitivity, epsilon) > delta {
			lowerBound = middle
		} else {
			upperBound = middle
		}
	}
	return upperBound
}
