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

// Package dpeval measures how the accuracy of a private density sketch
// degrades as its privacy budget is tightened.
//
// For each epsilon of a sweep, the sketch is re-privatized and queried at
// every query point; the relative errors |estimate - truth| / truth are
// reduced to their mean and population standard deviation. The sweep runs
// strictly sequentially: the sketch's budget is mutated in place between
// epsilons, progress is reported over the whole epsilon × query cross
// product, and latency is averaged over that single pass.
package dpeval

import (
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/checks"
	"gonum.org/v1/gonum/stat"
)

// DefaultProgressEvery is the number of queries between two progress reports.
const DefaultProgressEvery = 1000

// Sketch is the part of a private summary the evaluation drives.
type Sketch interface {
	SetEpsilon(epsilon float64) error
	Query(point []float64) (float64, error)
}

// ProgressFunc is called with the global index of the query about to run
// and the total number of queries of the sweep.
type ProgressFunc func(done, total int)

// Options configures an evaluation. The zero value reports no progress.
type Options struct {
	// Progress, if set, is called every ProgressEvery queries, counted over
	// the whole sweep, starting with the first query.
	Progress ProgressFunc
	// ProgressEvery defaults to DefaultProgressEvery.
	ProgressEvery int
	// OnQuery, if set, receives the duration of every query.
	OnQuery func(time.Duration)
	// ValidateGroundTruth rejects ground truth that is not strictly positive
	// and finite before any query runs. Without it, such values yield
	// non-finite relative errors.
	ValidateGroundTruth bool
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o *Options) progressEvery() int {
	if o.ProgressEvery <= 0 {
		return DefaultProgressEvery
	}
	return o.ProgressEvery
}

func (o *Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// ErrorRecord summarizes the relative errors of one epsilon.
type ErrorRecord struct {
	Epsilon float64
	Mean    float64
	Std     float64
}

func (r ErrorRecord) String() string {
	return fmt.Sprintf("(%v, %v)", r.Mean, r.Std)
}

// ResultSet is the outcome of a sweep. Records[k] belongs to the k-th epsilon.
type ResultSet struct {
	Records []ErrorRecord
	// AvgQueryMillis is the sweep's wall-clock time in milliseconds divided
	// by the number of queries run.
	AvgQueryMillis float64
	// Elapsed is the wall-clock time of the whole sweep.
	Elapsed time.Duration
}

// RelativeError returns |estimate - truth| / truth. truth must be nonzero.
func RelativeError(estimate, truth float64) float64 {
	return math.Abs(estimate-truth) / truth
}

// counter tracks the global query index of a sweep.
type counter struct {
	done, total, every int
	fn                 ProgressFunc
}

func (c *counter) tick() {
	if c.fn != nil && c.done%c.every == 0 {
		c.fn(c.done, c.total)
	}
	c.done++
}

func checkInputs(queries [][]float64, gtruth []float64, opt *Options) error {
	if len(queries) == 0 {
		return fmt.Errorf("no query points")
	}
	if len(gtruth) != len(queries) {
		return fmt.Errorf("got %d ground truth values for %d query points", len(gtruth), len(queries))
	}
	if opt.ValidateGroundTruth {
		return checks.CheckGroundTruth(gtruth, len(queries))
	}
	return nil
}

// EvaluateEpsilon sets the budget of s to epsilon, queries every point and
// returns the mean and population standard deviation of the relative errors.
func EvaluateEpsilon(s Sketch, epsilon float64, queries [][]float64, gtruth []float64, opt *Options) (ErrorRecord, error) {
	if opt == nil {
		opt = &Options{}
	}
	if err := checkInputs(queries, gtruth, opt); err != nil {
		return ErrorRecord{}, err
	}
	c := &counter{total: len(queries), every: opt.progressEvery(), fn: opt.Progress}
	return evaluate(s, epsilon, queries, gtruth, opt, c)
}

func evaluate(s Sketch, epsilon float64, queries [][]float64, gtruth []float64, opt *Options, c *counter) (ErrorRecord, error) {
	if err := s.SetEpsilon(epsilon); err != nil {
		return ErrorRecord{}, fmt.Errorf("couldn't set epsilon %f: %w", epsilon, err)
	}
	errs := make([]float64, len(queries))
	for i, q := range queries {
		c.tick()
		var start time.Time
		if opt.OnQuery != nil {
			start = time.Now()
		}
		est, err := s.Query(q)
		if err != nil {
			return ErrorRecord{}, fmt.Errorf("query %d at epsilon %f failed: %w", i, epsilon, err)
		}
		if opt.OnQuery != nil {
			opt.OnQuery(time.Since(start))
		}
		errs[i] = RelativeError(est, gtruth[i])
	}
	mean, std := stat.PopMeanStdDev(errs, nil)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		log.Warningf("Mean relative error at epsilon %f is %f; ground truth must be strictly positive", epsilon, mean)
	}
	log.V(1).Infof("dpeval: epsilon %f: mean relative error %f, std %f", epsilon, mean, std)
	return ErrorRecord{Epsilon: epsilon, Mean: mean, Std: std}, nil
}

// Run evaluates s at every epsilon, in order, against the same queries and
// ground truth. Any error aborts the sweep and no ResultSet is returned.
func Run(s Sketch, queries [][]float64, gtruth []float64, epsilons []float64, opt *Options) (*ResultSet, error) {
	if opt == nil {
		opt = &Options{}
	}
	if err := checkInputs(queries, gtruth, opt); err != nil {
		return nil, err
	}
	if err := checks.CheckEpsilons(epsilons); err != nil {
		return nil, err
	}
	total := len(queries) * len(epsilons)
	c := &counter{total: total, every: opt.progressEvery(), fn: opt.Progress}
	res := &ResultSet{Records: make([]ErrorRecord, 0, len(epsilons))}

	start := opt.now()
	for _, eps := range epsilons {
		r, err := evaluate(s, eps, queries, gtruth, opt, c)
		if err != nil {
			return nil, err
		}
		res.Records = append(res.Records, r)
	}
	res.Elapsed = opt.now().Sub(start)
	res.AvgQueryMillis = float64(res.Elapsed.Nanoseconds()) / 1e6 / float64(total)
	return res, nil
}
