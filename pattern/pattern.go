// Package pattern generates the deterministic, self-checking word pattern a
// benchmark run writes into its buffer, and the index permutations used for
// shuffled access. Every random draw of a run comes from one seeded source,
// so the seed alone reproduces the buffer contents and the access order.
package pattern

import (
	"math"
	mrand "math/rand"
)

// Generator produces fills and permutations from a single seeded source.
type Generator struct {
	seed int64
	rng  *mrand.Rand
}

// NewGenerator creates a Generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Fill writes random values into all but the last word and a checksum word
// into the last one, so that the wrapping sum of all words is zero. It
// returns the wrapping sum of the random words.
func (g *Generator) Fill(words []uint) uint {
	if len(words) == 0 {
		return 0
	}

	var sum uint

	last := len(words) - 1
	for i := 0; i < last; i++ {
		words[i] = uint(g.rng.Uint64())
		sum += words[i]
	}

	words[last] = math.MaxUint - sum + 1

	return sum
}

// Permutation returns a uniformly random ordering of 0..n-1 using a
// Fisher-Yates shuffle.
func (g *Generator) Permutation(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	for i := n - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	return perm
}

// Sum returns the wrapping sum of words.
func Sum(words []uint) uint {
	var sum uint
	for _, w := range words {
		sum += w
	}

	return sum
}

// SumPermuted returns the wrapping sum of words visited in perm order.
func SumPermuted(words []uint, perm []int) uint {
	var sum uint
	for _, i := range perm {
		sum += words[i]
	}

	return sum
}

// IsPermutation reports whether perm holds every index 0..len(perm)-1
// exactly once.
func IsPermutation(perm []int) bool {
	seen := make([]bool, len(perm))
	for _, i := range perm {
		if i < 0 || i >= len(perm) || seen[i] {
			return false
		}

		seen[i] = true
	}

	return true
}
