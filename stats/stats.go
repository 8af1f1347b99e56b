// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats provides the correlation statistics used downstream to
// score relationships between clusters (spec.md §4.6): Pearson
// correlation, Spearman rank correlation, and a permutation test on
// Spearman's ρ.
package stats

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Permutations is the number of permutations used by
// SpearmanPermutationTest. It is an implementation constant, per
// spec.md §4.6; 2000 comfortably exceeds the recommended minimum of
// 1000 while staying cheap enough to run per scored cluster pair.
const Permutations = 2000

// Pearson returns the sample Pearson correlation of x and y, and true.
// If either series has zero variance the result is undefined and Pearson
// returns the "absent" marker (0, false).
func Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) == 0 {
		panic("stats: x and y must be non-empty and of equal length")
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

// Spearman returns the Spearman rank correlation of x and y: x and y are
// rank-transformed with the average-rank tie-breaking rule, then
// correlated with Pearson. It returns the "absent" marker (0, false) if
// either rank series is degenerate (every value tied).
func Spearman(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) == 0 {
		panic("stats: x and y must be non-empty and of equal length")
	}
	return Pearson(ranks(x), ranks(y))
}

// ranks returns the 1-based rank transform of x, with tied values
// receiving the average of the ranks they span.
func ranks(x []float64) []float64 {
	n := len(x)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return x[order[i]] < x[order[j]] })

	r := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[order[j+1]] == x[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			r[order[k]] = avg
		}
		i = j + 1
	}
	return r
}

// SpearmanPermutationTest computes a two-sided permutation p-value for an
// already-observed Spearman ρ: it permutes y's ranks Permutations times,
// recomputes ρ' for each permutation, and returns the fraction of
// permutations with |ρ'| >= |rho|.
//
// seed seeds the permutation RNG and is mutated in place (to the next
// value drawn from that RNG after the last permutation) so that repeated calls sharing the same *seed
// advance a single deterministic stream rather than restarting it; this
// mirrors the caller-owned PRNG state the source implementation threads
// through its permutation loop. The routine is otherwise deterministic
// in (x, y, *seed).
func SpearmanPermutationTest(x, y []float64, seed *int64, rho float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		panic("stats: x and y must be non-empty and of equal length")
	}

	rng := rand.New(rand.NewSource(*seed))
	rx := ranks(x)
	ry := append([]float64(nil), ranks(y)...)

	want := math.Abs(rho)
	hits := 0
	for p := 0; p < Permutations; p++ {
		shuffleFloats(ry, rng)
		r, ok := Pearson(rx, ry)
		if ok && math.Abs(r) >= want {
			hits++
		}
	}

	*seed = rng.Int63()
	return float64(hits) / float64(Permutations)
}

// shuffleFloats performs an in-place Fisher–Yates shuffle of a using rng.
func shuffleFloats(a []float64, rng *rand.Rand) {
	for i := len(a) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
