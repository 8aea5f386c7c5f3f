// rng hands out explicitly owned random sources. Nothing in this module reads
// a package-global generator; callers build a *rand.Rand here and thread it
// through the maze builder and the learner, so runs never couple through
// hidden shared state.
package rng

import (
	"time"

	"golang.org/x/exp/rand"
)

// Seeded returns a deterministic source: equal seeds yield equal streams.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Entropy returns a source seeded from the clock, for runs that need not be reproducible.
func Entropy() *rand.Rand {
	return rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
}

// FromOptional returns Seeded(*seed) when a seed is given, else Entropy().
func FromOptional(seed *uint64) *rand.Rand {
	if seed == nil {
		return Entropy()
	}
	return Seeded(*seed)
}
