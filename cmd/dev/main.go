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

// This is the Density Experiment Evaluation (DEV) tool: a command line utility
// which measures how the accuracy of private density summaries degrades as the
// privacy budget epsilon is tightened.
// Usage example:
// go run ./cmd/dev --race=race.sketch,0,4.0 --bernstein=data.bern,1,10 --kmerelease=data.kme,1,2 queries.npy queries.gtruth 0.1 0.5 1.0
//
// Each configured summary is evaluated in its own sequential sweep over all
// epsilons and queries. For every sweep the tool prints a progress line, the
// average query time in milliseconds and the list of (mean, std) relative
// errors, one pair per epsilon.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/adapter"
	"github.com/google/differential-privacy/densityeval/dataset"
	"github.com/google/differential-privacy/densityeval/dpeval"
	"github.com/google/differential-privacy/densityeval/metrics"
)

var (
	raceConfig       = adapter.NewConfig(adapter.BackendRACE)
	bernsteinConfig  = adapter.NewConfig(adapter.BackendBernstein)
	kmereleaseConfig = adapter.NewConfig(adapter.BackendKME)

	seed            = flag.Int64("seed", 42, "Seed of the LSH projections used to query RACE sketches.")
	validateGTruth  = flag.Bool("validate_gtruth", false, "Reject ground truth values that are not strictly positive before querying.")
	progress        = flag.String("progress", "stdout", "Progress reporting: stdout, log or none.")
	metricsTextfile = flag.String("metrics_textfile", "", "If set, write Prometheus metrics of the run to this file.")
)

func init() {
	flag.Var(raceConfig, "race", "RACE summary: file,kernel_id,bandwidth.")
	flag.Var(bernsteinConfig, "bernstein", "Bernstein summary: file,scale_factor or file,kernel_id,scale_factor.")
	flag.Var(kmereleaseConfig, "kmerelease", "KME summary: file,kernel_id,bandwidth.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] queries gtruth epsilon...\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func progressFunc(mode string) (dpeval.ProgressFunc, error) {
	switch mode {
	case "stdout":
		return dpeval.WriterProgress(os.Stdout), nil
	case "log":
		return dpeval.LogProgress(), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown progress mode %q, must be stdout, log or none", mode)
}

func parseEpsilons(args []string) ([]float64, error) {
	epsilons := make([]float64, len(args))
	for i, a := range args {
		eps, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't read epsilon = %s as float64, err = %v", a, err)
		}
		epsilons[i] = eps
	}
	return epsilons, nil
}

// sweepOptions returns the evaluation options of one backend. Query latencies
// are observed only if m is non-nil.
func sweepOptions(onProgress dpeval.ProgressFunc, m *metrics.Metrics, backend string, validate bool) *dpeval.Options {
	opt := &dpeval.Options{
		Progress:            onProgress,
		ValidateGroundTruth: validate,
	}
	if m != nil {
		opt.OnQuery = m.QueryObserver(backend)
	}
	return opt
}

func formatRecords(records []dpeval.ErrorRecord) string {
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func main() {
	flag.Parse()

	if flag.NArg() < 3 {
		flag.Usage()
		log.Exit("Expected a query file, a ground truth file and at least one epsilon")
	}
	queriesFile, gtruthFile := flag.Arg(0), flag.Arg(1)
	epsilons, err := parseEpsilons(flag.Args()[2:])
	if err != nil {
		log.Exit(err)
	}

	log.Infof("The DEV tool was run with arguments: queries = %q, gtruth = %q, epsilons = %v,"+
		" race = %q, bernstein = %q, kmerelease = %q, seed = %d",
		queriesFile,
		gtruthFile,
		epsilons,
		raceConfig.String(),
		bernsteinConfig.String(),
		kmereleaseConfig.String(),
		*seed,
	)

	var configs []*adapter.Config
	for _, c := range []*adapter.Config{raceConfig, bernsteinConfig, kmereleaseConfig} {
		if c.IsSet() {
			configs = append(configs, c)
		}
	}
	if len(configs) == 0 {
		log.Exit("No summary was chosen, set at least one of --race, --bernstein or --kmerelease")
	}

	onProgress, err := progressFunc(*progress)
	if err != nil {
		log.Exit(err)
	}

	ds, err := dataset.Load(queriesFile, gtruthFile)
	if err != nil {
		log.Exitf("Couldn't load the dataset, err = %v", err)
	}
	points := ds.Points()

	// Per-query latencies are only observed when metrics are exported.
	var m *metrics.Metrics
	if *metricsTextfile != "" {
		m = metrics.New()
	}
	for _, c := range configs {
		fmt.Printf("Querying %s %s\n", c.Backend.Name(), c.File)
		sk, err := c.Open(ds.Dim(), *seed)
		if err != nil {
			log.Exitf("Couldn't open %v summary %q, err = %v", c.Backend, c.File, err)
		}
		res, err := dpeval.Run(sk, points, ds.GroundTruth, epsilons, sweepOptions(onProgress, m, sk.Name(), *validateGTruth))
		if err != nil {
			log.Exitf("Couldn't evaluate %s summary %q, err = %v", sk.Name(), c.File, err)
		}
		if *progress == "stdout" {
			fmt.Println()
		}
		fmt.Printf("Query time: (avg, ms) %v\n", res.AvgQueryMillis)
		fmt.Println(formatRecords(res.Records))
		if m != nil {
			m.RecordResults(sk.Name(), res)
		}
	}

	if m != nil {
		if err := m.WriteTextfile(*metricsTextfile); err != nil {
			log.Exitf("Couldn't export metrics, err = %v", err)
		}
	}

	log.Infof("Successfully finished evaluating %d summaries", len(configs))
}
