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

// Package summary persists the materialized state of private density
// summaries. A summary file is a snappy stream holding one gob-encoded
// envelope that records which kind of summary it carries.
package summary

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/google/differential-privacy/densityeval/bernstein"
	"github.com/google/differential-privacy/densityeval/kmerelease"
	"github.com/google/differential-privacy/densityeval/race"
)

// Version is the envelope format version written by this package.
const Version = 1

// Kind identifies the type of summary stored in a file.
type Kind int

const (
	Unknown Kind = iota
	RACE
	Bernstein
	KMERelease
)

func (k Kind) String() string {
	switch k {
	case RACE:
		return "RACE"
	case Bernstein:
		return "Bernstein"
	case KMERelease:
		return "KMERelease"
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// ErrKindMismatch is returned when a file holds a different kind of summary
// than the one requested.
var ErrKindMismatch = errors.New("summary kind mismatch")

// Summary is the decoded content of a summary file. Exactly one of the state
// fields is set, matching Kind.
type Summary struct {
	Kind       Kind
	Version    int
	RACE       *race.State
	Bernstein  *bernstein.State
	KMERelease *kmerelease.State
}

func (s *Summary) validate() error {
	if s.Version <= 0 || s.Version > Version {
		return fmt.Errorf("unsupported summary version %d, must be in [1, %d]", s.Version, Version)
	}
	var set Kind
	count := 0
	if s.RACE != nil {
		set, count = RACE, count+1
	}
	if s.Bernstein != nil {
		set, count = Bernstein, count+1
	}
	if s.KMERelease != nil {
		set, count = KMERelease, count+1
	}
	if count != 1 || set != s.Kind {
		return fmt.Errorf("summary of kind %v must carry exactly one %v state", s.Kind, s.Kind)
	}
	return nil
}

// FromRACE wraps a RACE state.
func FromRACE(st race.State) *Summary {
	return &Summary{Kind: RACE, Version: Version, RACE: &st}
}

// FromBernstein wraps a Bernstein state.
func FromBernstein(st bernstein.State) *Summary {
	return &Summary{Kind: Bernstein, Version: Version, Bernstein: &st}
}

// FromKMERelease wraps a KME state.
func FromKMERelease(st kmerelease.State) *Summary {
	return &Summary{Kind: KMERelease, Version: Version, KMERelease: &st}
}

// Write encodes s to w.
func Write(w io.Writer, s *Summary) error {
	if err := s.validate(); err != nil {
		return err
	}
	sw := snappy.NewBufferedWriter(w)
	if err := gob.NewEncoder(sw).Encode(s); err != nil {
		sw.Close()
		return fmt.Errorf("couldn't encode %v summary: %w", s.Kind, err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("couldn't flush %v summary: %w", s.Kind, err)
	}
	return nil
}

// WriteFile writes s to the named file, creating or truncating it.
func WriteFile(name string, s *Summary) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("couldn't create summary file %q: %w", name, err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return fmt.Errorf("couldn't write summary file %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("couldn't close summary file %q: %w", name, err)
	}
	return nil
}

// Read decodes a summary from r.
func Read(r io.Reader) (*Summary, error) {
	s := &Summary{}
	if err := gob.NewDecoder(snappy.NewReader(r)).Decode(s); err != nil {
		return nil, fmt.Errorf("couldn't decode summary: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadFile decodes the summary stored in the named file.
func ReadFile(name string) (*Summary, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("couldn't open summary file %q: %w", name, err)
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("couldn't read summary file %q: %w", name, err)
	}
	return s, nil
}

func (s *Summary) expect(k Kind) error {
	if s.Kind != k {
		return fmt.Errorf("%w: file holds %v, want %v", ErrKindMismatch, s.Kind, k)
	}
	return nil
}

// AsRACE returns the RACE state, or ErrKindMismatch.
func (s *Summary) AsRACE() (race.State, error) {
	if err := s.expect(RACE); err != nil {
		return race.State{}, err
	}
	return *s.RACE, nil
}

// AsBernstein returns the Bernstein state, or ErrKindMismatch.
func (s *Summary) AsBernstein() (bernstein.State, error) {
	if err := s.expect(Bernstein); err != nil {
		return bernstein.State{}, err
	}
	return *s.Bernstein, nil
}

// AsKMERelease returns the KME state, or ErrKindMismatch.
func (s *Summary) AsKMERelease() (kmerelease.State, error) {
	if err := s.expect(KMERelease); err != nil {
		return kmerelease.State{}, err
	}
	return *s.KMERelease, nil
}
