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

// Package checks contains checks for the parameters of private density
// summaries and of the evaluation harness that queries them.
package checks

import (
	"fmt"
	"math"
)

const (
	epsilonName     = "Epsilon"
	deltaName       = "Delta"
	bandwidthName   = "Bandwidth"
	sensitivityName = "Sensitivity"
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("This should never happen. There should be 0 or 1 'name' parameter, got %d", len(nameSlice))
	}
	return name, nil
}

// CheckEpsilonVeryStrict returns an error if ε is +∞ or less than 2⁻⁵⁰.
func CheckEpsilonVeryStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon < math.Exp2(-50.0) || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s is %f, must be at least 2^-50 and finite", epsName, epsilon)
	}
	return nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive or +∞.
func CheckEpsilonStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", epsName, epsilon)
	}
	return nil
}

// CheckEpsilons returns an error if epsilons is empty or any of its values
// fails CheckEpsilonVeryStrict.
func CheckEpsilons(epsilons []float64) error {
	if len(epsilons) == 0 {
		return fmt.Errorf("at least one epsilon must be given")
	}
	for i, eps := range epsilons {
		if err := CheckEpsilonVeryStrict(eps, fmt.Sprintf("Epsilon[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// CheckDeltaStrict returns an error if δ is nonpositive or greater than or equal to 1.
func CheckDeltaStrict(delta float64, name ...string) error {
	delName, err := verifyName(deltaName, name)
	if err != nil {
		return err
	}
	if math.IsNaN(delta) {
		return fmt.Errorf("%s is %e, cannot be NaN", delName, delta)
	}
	if delta <= 0 {
		return fmt.Errorf("%s is %e, must be strictly positive", delName, delta)
	}
	if delta >= 1 {
		return fmt.Errorf("%s is %e, must be strictly less than 1", delName, delta)
	}
	return nil
}

// CheckKernelID returns an error if id is not one of the two recognized
// kernels: 0 (Euclidean distance) or 1 (angular).
func CheckKernelID(id int) error {
	if id != 0 && id != 1 {
		return fmt.Errorf("Kernel id is %d, must be 0 (euclidean) or 1 (angular)", id)
	}
	return nil
}

// CheckBandwidth returns an error if bandwidth is nonpositive or +∞.
func CheckBandwidth(bandwidth float64, name ...string) error {
	bwName, err := verifyName(bandwidthName, name)
	if err != nil {
		return err
	}
	if bandwidth <= 0 || math.IsInf(bandwidth, 0) || math.IsNaN(bandwidth) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", bwName, bandwidth)
	}
	return nil
}

// CheckExponent returns an error if the angular kernel exponent is less than 1.
func CheckExponent(exponent int) error {
	if exponent < 1 {
		return fmt.Errorf("Exponent is %d, must be at least 1", exponent)
	}
	return nil
}

// CheckScaleFactor returns an error if scaleFactor is nonpositive.
func CheckScaleFactor(scaleFactor int) error {
	if scaleFactor <= 0 {
		return fmt.Errorf("Scale factor is %d, must be strictly positive", scaleFactor)
	}
	return nil
}

// CheckSensitivity returns an error if sensitivity is nonpositive or +∞.
func CheckSensitivity(sensitivity float64, name ...string) error {
	sName, err := verifyName(sensitivityName, name)
	if err != nil {
		return err
	}
	if sensitivity <= 0 || math.IsInf(sensitivity, 0) || math.IsNaN(sensitivity) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", sName, sensitivity)
	}
	return nil
}

// CheckPositiveInt returns an error if v is nonpositive.
func CheckPositiveInt(v int, name string) error {
	if v <= 0 {
		return fmt.Errorf("%s is %d, must be strictly positive", name, v)
	}
	return nil
}

// CheckDimension returns an error if a vector of dimension got is used where
// dimension want is expected.
func CheckDimension(got, want int) error {
	if got != want {
		return fmt.Errorf("Dimension is %d, must be %d", got, want)
	}
	return nil
}

// CheckGroundTruth returns an error if the ground truth is not index-aligned
// with n queries, or if any value is not strictly positive and finite.
// Relative errors are undefined for such values.
func CheckGroundTruth(gtruth []float64, n int) error {
	if len(gtruth) != n {
		return fmt.Errorf("Ground truth has %d values, must have one per query (%d)", len(gtruth), n)
	}
	for i, v := range gtruth {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("Ground truth[%d] is %f, must be strictly positive and finite", i, v)
		}
	}
	return nil
}
