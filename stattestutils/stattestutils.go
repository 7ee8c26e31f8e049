//
// Copyright 2023 Google LLC
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

// Package stattestutils provides reference implementations of the error
// statistics reported by an evaluation, computed the slow and obvious way.
//
// This package is not optimized for performance or speed and is only intended
// to be used in tests.
package stattestutils

import "math"

// RelativeErrors returns |estimates[i] - truths[i]| / truths[i] for every i.
// Both slices must have the same length.
func RelativeErrors(estimates, truths []float64) []float64 {
	errs := make([]float64, len(estimates))
	for i := range estimates {
		errs[i] = math.Abs(estimates[i]-truths[i]) / truths[i]
	}
	return errs
}

// SampleMean returns the mean of a slice, calculated as the average over the
// values in the slice.
func SampleMean(values []float64) float64 {
	var sum float64 = 0.0
	for _, v := range values {
		sum += v
	}
	return sum / math.Max(1, float64(len(values)))
}

// SampleVariance returns the population variance of a slice, calculated as
// the sum of squares of the distance to the mean of each of the values,
// divided by the number of values.
func SampleVariance(values []float64) float64 {
	mean := SampleMean(values)
	var sumOfSquares float64 = 0.0
	for _, v := range values {
		sumOfSquares += math.Pow(v-mean, 2)
	}
	return sumOfSquares / math.Max(1, float64(len(values)))
}

// PopulationStd returns the square root of SampleVariance.
func PopulationStd(values []float64) float64 {
	return math.Sqrt(SampleVariance(values))
}

// NearEqual reports whether a and b differ by at most maxError.
func NearEqual(a, b, maxError float64) bool {
	return math.Abs(a-b) <= maxError
}
