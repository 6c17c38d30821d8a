package engine

import (
	"math/rand"
)

// RandomSource yields uniform draws in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a deterministic source for the given seed
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// uniform draws from [lo, hi)
func uniform(rng RandomSource, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// chance succeeds with probability p
func chance(rng RandomSource, p float64) bool {
	return rng.Float64() < p
}

// pick draws an index in [0, n)
func pick(rng RandomSource, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
