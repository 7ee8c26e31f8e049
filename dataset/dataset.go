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

// Package dataset loads the query points and ground-truth densities an
// evaluation runs against.
//
// Query points are read from NumPy .npy files holding a 2-D float array, from
// .csv files, or from whitespace-delimited text with one point per line.
// Ground truth is read as one value per line.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/densityeval/checks"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a set of query points together with their true densities.
type Dataset struct {
	// Queries is an n×d matrix, one query point per row.
	Queries *mat.Dense
	// GroundTruth holds the true density of each query point.
	GroundTruth []float64
}

// Len returns the number of query points.
func (d *Dataset) Len() int {
	if d.Queries == nil {
		return 0
	}
	n, _ := d.Queries.Dims()
	return n
}

// Dim returns the dimension of the query points.
func (d *Dataset) Dim() int {
	if d.Queries == nil {
		return 0
	}
	_, c := d.Queries.Dims()
	return c
}

// Points returns the query points as row slices. The slices alias the
// underlying matrix.
func (d *Dataset) Points() [][]float64 {
	points := make([][]float64, d.Len())
	for i := range points {
		points[i] = d.Queries.RawRowView(i)
	}
	return points
}

// Validate checks that every ground-truth value is strictly positive and
// finite, so that relative errors are well defined.
func (d *Dataset) Validate() error {
	return checks.CheckGroundTruth(d.GroundTruth, d.Len())
}

// Load reads the query file and the ground-truth file and checks that they
// describe the same number of points.
func Load(queriesFile, gtruthFile string) (*Dataset, error) {
	q, err := LoadQueries(queriesFile)
	if err != nil {
		return nil, err
	}
	gt, err := LoadGroundTruth(gtruthFile)
	if err != nil {
		return nil, err
	}
	n, d := q.Dims()
	if n != len(gt) {
		return nil, fmt.Errorf("query file %q has %d points but ground truth file %q has %d values", queriesFile, n, gtruthFile, len(gt))
	}
	log.V(1).Infof("dataset: loaded %d queries of dimension %d", n, d)
	return &Dataset{Queries: q, GroundTruth: gt}, nil
}

// LoadQueries reads an n×d matrix of query points from the named file.
func LoadQueries(name string) (*mat.Dense, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the query file = %q, err = %w", name, err)
	}
	defer f.Close()

	var m *mat.Dense
	switch strings.ToLower(filepath.Ext(name)) {
	case ".npy":
		m, err = ReadNPY(f)
	case ".csv":
		m, err = readCSV(f)
	default:
		m, err = readText(f)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't read the query file = %q, err = %w", name, err)
	}
	return m, nil
}

// ReadNPY decodes a 2-D float array stored in NumPy format.
func ReadNPY(r io.Reader) (*mat.Dense, error) {
	var m mat.Dense
	if err := npyio.Read(r, &m); err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("no query points")
	}
	return &m, nil
}

// WriteNPY encodes m in NumPy format.
func WriteNPY(w io.Writer, m mat.Matrix) error {
	return npyio.Write(w, m)
}

func readCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	var rows [][]float64
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRow(record, len(rows)+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return toDense(rows)
}

func readText(r io.Reader) (*mat.Dense, error) {
	var rows [][]float64
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		row, err := parseRow(fields, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return toDense(rows)
}

func parseRow(fields []string, line int) ([]float64, error) {
	row := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't read value %q on line %d as float64, err = %w", f, line, err)
		}
		row[i] = v
	}
	return row, nil
}

func toDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no query points")
	}
	d := len(rows[0])
	data := make([]float64, 0, len(rows)*d)
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("point %d has dimension %d, want %d", i, len(row), d)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), d, data), nil
}

// LoadGroundTruth reads one density value per line from the named file.
// Blank lines are skipped.
func LoadGroundTruth(name string) ([]float64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the ground truth file = %q, err = %w", name, err)
	}
	defer f.Close()
	gt, err := ReadGroundTruth(f)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the ground truth file = %q, err = %w", name, err)
	}
	return gt, nil
}

// ReadGroundTruth reads one density value per line from r.
func ReadGroundTruth(r io.Reader) ([]float64, error) {
	var gt []float64
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't read value %q on line %d as float64, err = %w", text, line, err)
		}
		gt = append(gt, v)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return gt, nil
}
