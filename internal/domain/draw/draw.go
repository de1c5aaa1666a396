// Package draw provides the random source the allocation engine draws from.
//
// The engine never touches a process-wide generator: every component that
// needs randomness takes a Sampler, and tests seed one to get repeatable
// results.
package draw

import (
	"math/rand/v2"
)

// Sampler is the minimal randomness capability of the engine.
type Sampler interface {
	// Sample returns k entries of population chosen uniformly at random
	// without replacement, in draw order. Every k-subset is equally likely.
	// k is clamped to [0, len(population)]; population is not modified.
	Sample(population []string, k int) []string

	// Shuffle permutes n elements uniformly at random via swap.
	Shuffle(n int, swap func(i, j int))
}

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithSeed makes the source reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Source) {
		s.seed = seed
		s.seeded = true
	}
}

// Source implements Sampler on a PCG generator.
type Source struct {
	rng    *rand.Rand
	seed   uint64
	seeded bool
}

// New creates a Source. Without WithSeed the generator is seeded from the
// runtime's global source and results are not reproducible.
func New(opts ...Option) *Source {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}

	hi, lo := s.seed, s.seed^0x9e3779b97f4a7c15
	if !s.seeded {
		hi, lo = rand.Uint64(), rand.Uint64()
	}
	s.rng = rand.New(rand.NewPCG(hi, lo)) //nolint:gosec // fairness lottery, not key material
	return s
}

// Seed reports the configured seed, if any.
func (s *Source) Seed() (uint64, bool) {
	return s.seed, s.seeded
}

// Sample runs a partial Fisher-Yates shuffle over a copy of population.
func (s *Source) Sample(population []string, k int) []string {
	n := len(population)
	if k > n {
		k = n
	}
	if k <= 0 {
		return []string{}
	}

	pool := make([]string, n)
	copy(pool, population)
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}

// Shuffle permutes n elements uniformly at random.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}
