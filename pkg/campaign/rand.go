package campaign

import "math/rand"

// Rand is the random source consumed by board generation and poll sampling.
// *rand.Rand satisfies it; pass a seeded one for reproducible games.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
