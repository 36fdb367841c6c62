package pattern

import (
	"slices"
	"testing"
)

func TestFillSumsToZero(t *testing.T) {
	for _, n := range []int{1, 2, 3, 128, 1000, 1 << 14} {
		for _, seed := range []int64{1, 42, -7, 1700000000123456789} {
			words := make([]uint, n)
			NewGenerator(seed).Fill(words)

			if got := Sum(words); got != 0 {
				t.Errorf("n=%d seed=%d: sum = %d, want 0", n, seed, got)
			}
		}
	}
}

func TestFillChecksumWord(t *testing.T) {
	words := make([]uint, 16)
	sum := NewGenerator(42).Fill(words)

	if got := words[len(words)-1] + sum; got != 0 {
		t.Errorf("checksum word + running sum = %d, want 0", got)
	}
	if got := Sum(words[:len(words)-1]); got != sum {
		t.Errorf("returned sum = %d, want %d", sum, got)
	}
}

func TestFillEmpty(t *testing.T) {
	if got := NewGenerator(1).Fill(nil); got != 0 {
		t.Errorf("Fill(nil) = %d, want 0", got)
	}
}

func TestFillDeterministic(t *testing.T) {
	a := make([]uint, 256)
	b := make([]uint, 256)

	NewGenerator(42).Fill(a)
	NewGenerator(42).Fill(b)

	if !slices.Equal(a, b) {
		t.Error("fills are not deterministic for same seed")
	}

	c := make([]uint, 256)
	NewGenerator(43).Fill(c)

	if slices.Equal(a, c) {
		t.Error("different seeds produced identical fills")
	}
}

func TestPermutationIsBijection(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10, 997, 4096} {
		perm := NewGenerator(int64(n) + 1).Permutation(n)

		if len(perm) != n {
			t.Fatalf("len = %d, want %d", len(perm), n)
		}
		if !IsPermutation(perm) {
			t.Errorf("n=%d: output is not a permutation", n)
		}
	}
}

func TestPermutationDeterministic(t *testing.T) {
	a := NewGenerator(42).Permutation(1000)
	b := NewGenerator(42).Permutation(1000)

	if !slices.Equal(a, b) {
		t.Error("permutations are not deterministic for same seed")
	}

	identity := make([]int, 1000)
	for i := range identity {
		identity[i] = i
	}

	if slices.Equal(a, identity) {
		t.Error("permutation of 1000 elements left every index in place")
	}
}

func TestSumPermutedAfterFill(t *testing.T) {
	g := NewGenerator(42)

	words := make([]uint, 512)
	g.Fill(words)

	perm := g.Permutation(len(words))
	if got := SumPermuted(words, perm); got != 0 {
		t.Errorf("permuted sum = %d, want 0", got)
	}
}

func TestIsPermutation(t *testing.T) {
	tests := []struct {
		perm []int
		want bool
	}{
		{nil, true},
		{[]int{0}, true},
		{[]int{2, 0, 1}, true},
		{[]int{0, 0, 1}, false},
		{[]int{0, 3, 1}, false},
		{[]int{-1, 0}, false},
	}

	for _, tt := range tests {
		if got := IsPermutation(tt.perm); got != tt.want {
			t.Errorf("IsPermutation(%v) = %v, want %v", tt.perm, got, tt.want)
		}
	}
}
