// Copyright 2023 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stattestutils

import (
	"math"
	"testing"
)

func TestSampleMean(t *testing.T) {
	for _, tc := range []struct {
		input    []float64
		wantMean float64
	}{
		{
			input:    []float64{},
			wantMean: 0,
		},
		{
			input:    []float64{100.123},
			wantMean: 100.123,
		},
		{
			input:    []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			wantMean: 5,
		},
	} {
		output := SampleMean(tc.input)
		if math.Abs(output-tc.wantMean) > 10e-10 {
			t.Errorf("got sampleMean(%v)=%f, want %f", tc.input, output, tc.wantMean)
		}
	}
}

func TestSampleVariance(t *testing.T) {
	for _, tc := range []struct {
		input        []float64
		wantVariance float64
	}{
		{
			input:        []float64{},
			wantVariance: 0,
		},
		{
			input:        []float64{100.123},
			wantVariance: 0,
		},
		{
			input:        []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			wantVariance: 10,
		},
	} {
		output := SampleVariance(tc.input)
		if math.Abs(output-tc.wantVariance) > 10e-10 {
			t.Errorf("got sampleVariance(%v)=%f, want %f", tc.input, output, tc.wantVariance)
		}
	}
}

func TestPopulationStd(t *testing.T) {
	for _, tc := range []struct {
		input   []float64
		wantStd float64
	}{
		{
			input:   []float64{},
			wantStd: 0,
		},
		{
			input:   []float64{0.1, 0.1, 0.1},
			wantStd: 0,
		},
		{
			input:   []float64{2, 4, 4, 4, 5, 5, 7, 9},
			wantStd: 2,
		},
	} {
		output := PopulationStd(tc.input)
		if !NearEqual(output, tc.wantStd, 10e-10) {
			t.Errorf("got PopulationStd(%v)=%f, want %f", tc.input, output, tc.wantStd)
		}
	}
}

func TestRelativeErrors(t *testing.T) {
	for _, tc := range []struct {
		estimates []float64
		truths    []float64
		want      []float64
	}{
		{
			estimates: []float64{1, 2, 4},
			truths:    []float64{1, 2, 4},
			want:      []float64{0, 0, 0},
		},
		{
			estimates: []float64{1.5, 1, 0},
			truths:    []float64{1, 2, 4},
			want:      []float64{0.5, 0.5, 1},
		},
	} {
		output := RelativeErrors(tc.estimates, tc.truths)
		for i := range tc.want {
			if !NearEqual(output[i], tc.want[i], 10e-10) {
				t.Errorf("got RelativeErrors(%v, %v)[%d]=%f, want %f", tc.estimates, tc.truths, i, output[i], tc.want[i])
			}
		}
	}
}
