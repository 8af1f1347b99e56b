// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package path implements the all-pairs shortest path engine (spec.md
// §4.5): a Floyd–Warshall construction over a graph.Graph and a
// user-supplied edge-weight function, with predecessor-based path
// reconstruction. The O(n³) relaxation itself is delegated to
// gonum.org/v1/gonum/graph/path, which the teacher tool's go.mod already
// requires (for cmd/cmpint's DOT-graph construction); this package only
// adds the spec-mandated vertex-handle and "absent marker" contract on
// top of it.
package path

import (
	"math"

	gpath "gonum.org/v1/gonum/graph/path"

	"github.com/kortschak/retrocluster/graph"
)

// Weight reports the weight of the edge (u, v), and whether that edge is
// present at all. The engine's edge set is derived entirely from Weight
// (spec.md §9): it is consulted for every ordered pair of vertices at
// construction time, not just the pairs already connected by ins_edge
// calls on the backing graph.Graph.
type Weight[V any] func(u, v V) (w float64, ok bool)

// FloydWarshall is an all-pairs shortest path engine built once over a
// snapshot of a graph.Graph's vertex set and a weight function. It owns
// its distance/next-hop matrices (via the wrapped gonum result) and the
// vertex<->index mapping built at construction; it does not own the
// graph.Graph it was built from.
type FloydWarshall[V any, K comparable] struct {
	hash  func(V) K
	verts []V
	idx   map[K]int64

	paths   gpath.AllShortest
	acyclic bool
}

// New builds a FloydWarshall engine from g's current vertex set and the
// given weight function. The caller is responsible for not feeding a
// graph with a negative cycle (spec.md §4.5); Acyclic reports whether
// gonum detected one anyway.
func New[V any, K comparable](g *graph.Graph[V, K], hash func(V) K, weight Weight[V]) *FloydWarshall[V, K] {
	wg, verts, idx := g.ToWeighted(weight)
	paths, ok := gpath.FloydWarshall(wg)
	return &FloydWarshall[V, K]{
		hash:    hash,
		verts:   verts,
		idx:     idx,
		paths:   paths,
		acyclic: ok,
	}
}

// Acyclic reports whether the graph this engine was built from contains
// no negative cycle reachable through the weight function's edge set.
func (fw *FloydWarshall[V, K]) Acyclic() bool { return fw.acyclic }

// Dist returns the shortest-path distance from u to v, and true, if both
// are known vertices and v is reachable from u; otherwise it returns the
// "absent" marker (0, false).
func (fw *FloydWarshall[V, K]) Dist(u, v V) (float64, bool) {
	iu, iv, ok := fw.indices(u, v)
	if !ok {
		return 0, false
	}
	w := fw.paths.Weight(iu, iv)
	if math.IsInf(w, 1) {
		return 0, false
	}
	return w, true
}

// Path returns the ordered sequence of vertices u, ..., v along a
// shortest path, reconstructed from the next-hop matrix. If u or v is
// unknown, or v is unreachable from u, it returns an empty sequence.
func (fw *FloydWarshall[V, K]) Path(u, v V) []V {
	iu, iv, ok := fw.indices(u, v)
	if !ok {
		return nil
	}
	nodes, _, _ := fw.paths.Between(iu, iv)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]V, len(nodes))
	for i, n := range nodes {
		out[i] = fw.verts[n.ID()]
	}
	return out
}

func (fw *FloydWarshall[V, K]) indices(u, v V) (iu, iv int64, ok bool) {
	iu, ok1 := fw.idx[fw.hash(u)]
	iv, ok2 := fw.idx[fw.hash(v)]
	return iu, iv, ok1 && ok2
}
