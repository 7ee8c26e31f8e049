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

// Package rand provides the random number generators used by the density
// summaries and the projection families.
//
// A Generator wraps a math/rand/v2 Source. NewSecure draws from crypto/rand and
// is what noise uses by default; NewSeeded is deterministic and is used where
// runs must be reproducible, e.g. for locality-sensitive projections.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	mathrand "math/rand/v2"
	"sync"

	log "github.com/golang/glog"
)

// secureSource is a math/rand/v2 Source reading from a buffered crypto/rand reader.
type secureSource struct {
	mu  sync.Mutex
	buf io.Reader
}

func (s *secureSource) Uint64() uint64 {
	var r [8]uint8
	s.mu.Lock()
	_, err := io.ReadFull(s.buf, r[:])
	s.mu.Unlock()
	if err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

var secure = &secureSource{buf: bufio.NewReaderSize(cryptorand.Reader, 65536)}

// Generator produces the samples needed by the noise mechanisms and the
// projection families. It is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	src    mathrand.Source
	r      *mathrand.Rand
	bitBuf uint8
	bitPos int8
}

// New returns a Generator drawing from src.
func New(src mathrand.Source) *Generator {
	return &Generator{src: src, r: mathrand.New(src), bitPos: math.MaxInt8}
}

// NewSecure returns a Generator backed by crypto/rand.
func NewSecure() *Generator {
	return New(secure)
}

// NewSeeded returns a deterministic Generator: two generators with the same
// seed produce the same sequence.
func NewSeeded(seed int64) *Generator {
	return New(mathrand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// U64 returns a uniformly random uint64.
func (g *Generator) U64() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Uint64()
}

// U8 returns a uniformly random uint8.
func (g *Generator) U8() uint8 {
	return uint8(g.U64())
}

// Boolean returns true or false with equal probability.
func (g *Generator) Boolean() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bitPos > 7 { // Out of random bits.
		g.bitBuf = uint8(g.src.Uint64())
		g.bitPos = 0
	}
	res := g.bitBuf&(1<<g.bitPos) > 0
	g.bitPos++
	return res
}

// Sign returns +1.0 or -1.0 with equal probabilities.
func (g *Generator) Sign() float64 {
	if g.Boolean() {
		return 1.0
	}
	return -1.0
}

// Uniform returns a float64 from the interval (0,1] such that each float
// in the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution on (0, 1].
func (g *Generator) Uniform() float64 {
	i := g.U64() % (1 << 53)
	r := (1 + float64(i)/(1<<53)) / math.Pow(2, g.Geometric())
	// Callers take the log of the output.
	if r == 0 {
		return 1
	}
	return r
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func (g *Generator) Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var r uint8
	for r == 0 {
		r = g.U8()
		b += bits.LeadingZeros8(r)
	}
	return float64(b)
}

// Int64N returns a uniformly random int64 in [0, n). It panics if n <= 0.
func (g *Generator) Int64N(n int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Int64N(n)
}

// Float64 returns a uniformly random float64 in [0, 1).
func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Float64()
}

// Normal returns a normally distributed float with mean 0 and standard deviation 1.
func (g *Generator) Normal() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.NormFloat64()
}
