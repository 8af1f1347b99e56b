// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"
	"testing"
)

func TestPearsonPerfectLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	r, ok := Pearson(x, y)
	if !ok {
		t.Fatal("Pearson reported absent for a well-defined series")
	}
	if math.Abs(r-1) > 1e-9 {
		t.Errorf("r = %v, want 1", r)
	}
}

func TestPearsonZeroVarianceIsAbsent(t *testing.T) {
	x := []float64{1, 1, 1, 1}
	y := []float64{1, 2, 3, 4}
	if _, ok := Pearson(x, y); ok {
		t.Error("Pearson with zero-variance x must report absent")
	}
}

func TestSpearmanWithTies(t *testing.T) {
	x := []float64{1, 2, 2, 3}
	y := []float64{1, 2, 2, 3}
	rho, ok := Spearman(x, y)
	if !ok {
		t.Fatal("Spearman reported absent for identical series")
	}
	if math.Abs(rho-1) > 1e-9 {
		t.Errorf("rho = %v, want 1", rho)
	}
}

// TestPermutationDeterminism exercises spec.md §8's determinism property:
// the same initial seed must produce the same p-value.
func TestPermutationDeterminism(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{8, 1, 6, 3, 5, 2, 7, 4}
	rho, _ := Spearman(x, y)

	seed1 := int64(42)
	p1 := SpearmanPermutationTest(x, y, &seed1, rho)

	seed2 := int64(42)
	p2 := SpearmanPermutationTest(x, y, &seed2, rho)

	if p1 != p2 {
		t.Fatalf("p1=%v p2=%v, want equal for the same initial seed", p1, p2)
	}
	if seed1 == 42 {
		t.Error("seed must be mutated in place")
	}
}

// TestPermutationIdenticalSeries exercises spec.md §8 scenario 6.
func TestPermutationIdenticalSeries(t *testing.T) {
	n := 20
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	rho, ok := Spearman(x, x)
	if !ok || math.Abs(rho-1) > 1e-9 {
		t.Fatalf("rho = %v, %v, want 1, true", rho, ok)
	}

	seed := int64(7)
	p := SpearmanPermutationTest(x, x, &seed, rho)
	if p > 2.0/float64(Permutations) {
		t.Errorf("p-value = %v, want <= ~1/%d (only the identity and the reversed permutation can match)", p, Permutations)
	}
}
