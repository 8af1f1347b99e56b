// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dbscan

import "testing"

// TestThreeTightPlusFar exercises spec.md §8 scenario 1: three tight
// intervals and one far outlier.
func TestThreeTightPlusFar(t *testing.T) {
	e := New()
	p1 := e.Insert(100, 150, "a")
	p2 := e.Insert(140, 200, "b")
	p3 := e.Insert(180, 240, "c")
	p4 := e.Insert(10000, 10050, "d")

	var visited []*Point
	clusters := e.Cluster(100, 3, func(p *Point) { visited = append(visited, p) })

	if clusters != 1 {
		t.Fatalf("clusters = %d, want 1", clusters)
	}

	for _, p := range []*Point{p1, p2, p3} {
		if p.Label() != Core && p.Label() != Reachable {
			t.Errorf("point %v label = %v, want CORE or REACHABLE", p.Data, p.Label())
		}
		if p.ID() != 1 {
			t.Errorf("point %v id = %d, want 1", p.Data, p.ID())
		}
	}
	coreCount := 0
	for _, p := range []*Point{p1, p2, p3} {
		if p.Label() == Core {
			coreCount++
		}
	}
	if coreCount < 1 {
		t.Error("expected at least one CORE point among the tight trio")
	}

	if p4.Label() != Noise {
		t.Errorf("far point label = %v, want NOISE", p4.Label())
	}
	if p4.ID() != 0 {
		t.Errorf("far point id = %d, want 0", p4.ID())
	}

	// The far point is never visited (it is Noise and never promoted).
	for _, v := range visited {
		if v == p4 {
			t.Error("noise point must not be visited")
		}
	}
}

// TestTwoIsolatedSingletons exercises spec.md §8 scenario 2.
func TestTwoIsolatedSingletons(t *testing.T) {
	e := New()
	p1 := e.Insert(0, 10, nil)
	p2 := e.Insert(1000, 1010, nil)

	clusters := e.Cluster(50, 3, func(*Point) {
		t.Error("visit must not be called when no cluster forms")
	})

	if clusters != 0 {
		t.Fatalf("clusters = %d, want 0", clusters)
	}
	if p1.Label() != Noise || p2.Label() != Noise {
		t.Errorf("labels = %v, %v, want NOISE, NOISE", p1.Label(), p2.Label())
	}
}

// TestReusableAcrossSweeps checks that Cluster resets point state so the
// same Engine can be reused for a parameter sweep (spec.md §4.2 "Reset").
func TestReusableAcrossSweeps(t *testing.T) {
	e := New()
	e.Insert(100, 150, 1)
	e.Insert(140, 200, 2)
	e.Insert(180, 240, 3)

	first := e.Cluster(100, 3, func(*Point) {})
	second := e.Cluster(1, 3, func(*Point) {})

	if first != 1 {
		t.Fatalf("first pass clusters = %d, want 1", first)
	}
	if second != 0 {
		t.Fatalf("second pass (tight eps) clusters = %d, want 0", second)
	}
}

func TestClusterPanicsOnBadMinPts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for min_pts < 3")
		}
	}()
	e := New()
	e.Insert(0, 10, nil)
	e.Cluster(10, 2, func(*Point) {})
}

func TestDisposerInvokedOnClose(t *testing.T) {
	var disposed []int
	e := NewWithDisposer(func(payload interface{}) {
		disposed = append(disposed, payload.(int))
	})
	e.Insert(0, 10, 1)
	e.Insert(20, 30, 2)
	e.Close()
	if len(disposed) != 2 {
		t.Fatalf("disposed = %v, want 2 entries", disposed)
	}
}
