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

package adapter

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/bernstein"
	"github.com/google/differential-privacy/densityeval/kmerelease"
	"github.com/google/differential-privacy/densityeval/race"
	"github.com/google/differential-privacy/densityeval/summary"
)

// Backend identifies a summary type.
type Backend int

const (
	BackendRACE Backend = iota
	BackendBernstein
	BackendKME
)

func (b Backend) String() string {
	switch b {
	case BackendRACE:
		return "race"
	case BackendBernstein:
		return "bernstein"
	case BackendKME:
		return "kmerelease"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// Name is the human-readable name of the backend, as reported by its Sketch.
func (b Backend) Name() string {
	switch b {
	case BackendRACE:
		return "RACE"
	case BackendBernstein:
		return "Bernstein"
	case BackendKME:
		return "KME Release"
	}
	return b.String()
}

// Config describes one sketch to evaluate: the summary file and the kernel
// parameters to query it with. It implements flag.Value, parsing
//
//	race:       file,kernel_id,bandwidth
//	bernstein:  file,scale_factor or file,kernel_id,scale_factor
//	kmerelease: file,kernel_id,bandwidth
type Config struct {
	Backend     Backend
	File        string
	KernelID    int
	Bandwidth   float64
	ScaleFactor int

	// kernelFromRelease is set when a Bernstein config names no kernel id, in
	// which case the kernel recorded in the release is used.
	kernelFromRelease bool
}

// NewConfig returns an unset Config for backend b.
func NewConfig(b Backend) *Config {
	return &Config{Backend: b}
}

// IsSet reports whether a summary file was configured.
func (c *Config) IsSet() bool {
	return c.File != ""
}

func (c *Config) String() string {
	if c == nil || !c.IsSet() {
		return ""
	}
	if c.Backend == BackendBernstein {
		if c.kernelFromRelease {
			return fmt.Sprintf("%s,%d", c.File, c.ScaleFactor)
		}
		return fmt.Sprintf("%s,%d,%d", c.File, c.KernelID, c.ScaleFactor)
	}
	return fmt.Sprintf("%s,%d,%s", c.File, c.KernelID, strconv.FormatFloat(c.Bandwidth, 'g', -1, 64))
}

// Set parses s into c.
func (c *Config) Set(s string) error {
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if c.Backend == BackendBernstein {
		return c.setBernstein(fields)
	}
	if len(fields) != 3 {
		return fmt.Errorf("%v config %q must be file,kernel_id,bandwidth", c.Backend, s)
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("couldn't read kernel_id = %s as int, err = %v", fields[1], err)
	}
	bw, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("couldn't read bandwidth = %s as float64, err = %v", fields[2], err)
	}
	if fields[0] == "" {
		return fmt.Errorf("%v config %q has no file", c.Backend, s)
	}
	c.File, c.KernelID, c.Bandwidth = fields[0], id, bw
	return nil
}

func (c *Config) setBernstein(fields []string) error {
	var idField, scaleField string
	switch len(fields) {
	case 2:
		scaleField = fields[1]
	case 3:
		idField, scaleField = fields[1], fields[2]
	default:
		return fmt.Errorf("bernstein config %q must be file,scale_factor or file,kernel_id,scale_factor", strings.Join(fields, ","))
	}
	id := 0
	if idField != "" {
		var err error
		if id, err = strconv.Atoi(idField); err != nil {
			return fmt.Errorf("couldn't read kernel_id = %s as int, err = %v", idField, err)
		}
	}
	scale, err := strconv.Atoi(scaleField)
	if err != nil {
		return fmt.Errorf("couldn't read scale_factor = %s as int, err = %v", scaleField, err)
	}
	if fields[0] == "" {
		return fmt.Errorf("bernstein config has no file")
	}
	c.File, c.KernelID, c.ScaleFactor = fields[0], id, scale
	c.kernelFromRelease = idField == ""
	return nil
}

// Open validates the kernel, reads the summary file and returns the Sketch
// answering dim-dimensional queries. The kernel id is checked before the file
// is touched, so an unsupported kernel fails without any I/O.
func (c *Config) Open(dim int, seed int64) (Sketch, error) {
	if !c.kernelFromRelease {
		if err := checkKernelID(c.KernelID); err != nil {
			return nil, err
		}
	}
	s, err := summary.ReadFile(c.File)
	if err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendRACE:
		st, err := s.AsRACE()
		if err != nil {
			return nil, err
		}
		sk, err := race.New(st, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid RACE sketch in %q: %w", c.File, err)
		}
		log.Infof("Loaded RACE sketch %q: %d repetitions of %d buckets over %g points", c.File, st.Reps, st.Range, st.N)
		return NewRACE(sk, c.KernelID, c.Bandwidth, dim, seed)
	case BackendBernstein:
		st, err := s.AsBernstein()
		if err != nil {
			return nil, err
		}
		rel, err := bernstein.New(st, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid Bernstein release in %q: %w", c.File, err)
		}
		if rel.Dim() != dim {
			return nil, fmt.Errorf("Bernstein release in %q has dimension %d, queries have dimension %d", c.File, rel.Dim(), dim)
		}
		id := c.KernelID
		if c.kernelFromRelease {
			id = rel.Kernel()
		}
		log.Infof("Loaded Bernstein release %q: degree %d in dimension %d", c.File, st.Degree, st.Dim)
		return NewBernstein(rel, id, c.ScaleFactor)
	case BackendKME:
		st, err := s.AsKMERelease()
		if err != nil {
			return nil, err
		}
		rel, err := kmerelease.New(st, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid KME release in %q: %w", c.File, err)
		}
		if rel.Dim() != dim {
			return nil, fmt.Errorf("KME release in %q has dimension %d, queries have dimension %d", c.File, rel.Dim(), dim)
		}
		log.Infof("Loaded KME release %q: %d reference points", c.File, len(st.Weights))
		return NewKME(rel, c.KernelID, c.Bandwidth)
	}
	return nil, fmt.Errorf("unknown backend %v", c.Backend)
}
