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

package rand

import (
	"testing"
)

// fixedSource returns the given values in order, then zeros.
type fixedSource struct {
	values []uint64
}

func (s *fixedSource) Uint64() uint64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v
}

func TestBooleanBufIsShifting(t *testing.T) {
	g := New(&fixedSource{values: []uint64{
		0b00100100,
		0b10010000,
	}})
	for pos, want := range []bool{
		// first byte
		false,
		false,
		true,
		false,
		false,
		true,
		false,
		false,
		// second byte
		false,
		false,
		false,
		false,
		true,
		false,
		false,
		true,
	} {
		if got := g.Boolean(); got != want {
			t.Errorf("Boolean: got %v, want %v in %v-th iteration", got, want, pos)
		}
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Normal(), b.Normal(); x != y {
			t.Fatalf("Normal: seeded generators diverged at draw %d: %f != %f", i, x, y)
		}
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("Float64: seeded generators diverged at draw %d: %f != %f", i, x, y)
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(43)
	same := 0
	for i := 0; i < 10; i++ {
		if a.U64() == b.U64() {
			same++
		}
	}
	if same == 10 {
		t.Errorf("U64: generators with different seeds produced identical sequences")
	}
}

func TestUniformRange(t *testing.T) {
	g := NewSecure()
	for i := 0; i < 10000; i++ {
		if u := g.Uniform(); u <= 0 || u > 1 {
			t.Fatalf("Uniform: got %f, want value in (0, 1]", u)
		}
	}
}

func TestGeometricIsAtLeastOne(t *testing.T) {
	g := NewSeeded(7)
	for i := 0; i < 1000; i++ {
		if got := g.Geometric(); got < 1 {
			t.Fatalf("Geometric: got %f, want >= 1", got)
		}
	}
}

func TestInt64NRange(t *testing.T) {
	g := NewSecure()
	for _, n := range []int64{1, 3, 1 << 40} {
		for i := 0; i < 1000; i++ {
			if got := g.Int64N(n); got < 0 || got >= n {
				t.Fatalf("Int64N(%d): got %d, want value in [0, %d)", n, got, n)
			}
		}
	}
}
