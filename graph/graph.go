// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graph implements a directed, optionally multi-edge, graph keyed
// by opaque vertex identity (spec.md §4.4). Vertex equality and hashing
// are supplied by the caller at construction, as in the source
// implementation's caller-supplied hash/compare function pointers.
package graph

import (
	"gonum.org/v1/gonum/graph/simple"
)

// node is the adjacency record for one vertex: its handle, the ordered
// (possibly repeating, for multigraphs) list of outgoing target keys, and
// the ordered list of incoming source keys.
type node[V any, K comparable] struct {
	v   V
	out []K
	in  []K
}

// Graph is a directed graph over vertex handles of type V, identified by
// keys of type K produced by a caller-supplied hash function. Self-loops
// are always allowed; parallel edges are allowed only when the graph was
// constructed with multi=true. The zero value is not usable; use New.
type Graph[V any, K comparable] struct {
	hash func(V) K
	eq   func(a, b V) bool
	multi bool

	onRemove func(V)

	order  []K
	nodes  map[K]*node[V, K]
	ecount int
}

// New returns an empty graph whose vertex identity is determined by hash
// (for bucketing) and eq (to confirm two vertices that hash equal are
// actually the same vertex). When multi is true, ins_edge and
// ins_multi_edge behave identically (parallel edges are always permitted);
// when false, ins_edge rejects an edge that would duplicate an existing
// (u, v) pair.
func New[V any, K comparable](hash func(V) K, eq func(a, b V) bool, multi bool) *Graph[V, K] {
	if hash == nil || eq == nil {
		panic("graph: hash and eq must not be nil")
	}
	return &Graph[V, K]{
		hash:  hash,
		eq:    eq,
		multi: multi,
		nodes: make(map[K]*node[V, K]),
	}
}

// SetOnRemove registers a callback invoked with a vertex's handle whenever
// RemVertex successfully removes it. It stands in for the destructor
// pointer a vertex may own in the source implementation; it is never
// invoked unless a vertex is actually removed.
func (g *Graph[V, K]) SetOnRemove(fn func(V)) {
	g.onRemove = fn
}

// VCount returns the number of vertices currently in g.
func (g *Graph[V, K]) VCount() int { return len(g.nodes) }

// ECount returns the number of edges currently in g.
func (g *Graph[V, K]) ECount() int { return g.ecount }

// InsVertex inserts v if it is not already present (by hash then eq).
// It returns 1 if v was inserted, 0 if it was already present.
func (g *Graph[V, K]) InsVertex(v V) int {
	k := g.hash(v)
	if n, ok := g.nodes[k]; ok {
		if g.eq(n.v, v) {
			return 0
		}
		panic("graph: hash collision between non-equal vertices")
	}
	g.nodes[k] = &node[V, K]{v: v}
	g.order = append(g.order, k)
	return 1
}

// HasVertex reports whether v is present in g.
func (g *Graph[V, K]) HasVertex(v V) bool {
	_, ok := g.nodes[g.hash(v)]
	return ok
}

// InsEdge inserts the edge (u, v). Both u and v must already be vertices
// of g (a missing endpoint is a programmer error, spec.md §7.1). It
// returns 0 without modifying g if v is already adjacent to u (a domain
// no-op, spec.md §7.3) unless g is a multigraph, in which case it behaves
// like InsMultiEdge.
func (g *Graph[V, K]) InsEdge(u, v V) int {
	if g.multi {
		return g.insEdge(u, v, true)
	}
	return g.insEdge(u, v, false)
}

// InsMultiEdge inserts the edge (u, v) even if one already exists,
// allowing parallel edges regardless of how g was constructed.
func (g *Graph[V, K]) InsMultiEdge(u, v V) int {
	return g.insEdge(u, v, true)
}

func (g *Graph[V, K]) insEdge(u, v V, allowParallel bool) int {
	ku, kv := g.hash(u), g.hash(v)
	nu, ok := g.nodes[ku]
	if !ok {
		panic("graph: ins_edge: u is not a vertex")
	}
	nv, ok := g.nodes[kv]
	if !ok {
		panic("graph: ins_edge: v is not a vertex")
	}
	if !allowParallel {
		for _, t := range nu.out {
			if t == kv {
				return 0
			}
		}
	}
	nu.out = append(nu.out, kv)
	nv.in = append(nv.in, ku)
	g.ecount++
	return 1
}

// IsAdjacent reports whether v appears in u's adjacency list.
func (g *Graph[V, K]) IsAdjacent(u, v V) bool {
	nu, ok := g.nodes[g.hash(u)]
	if !ok {
		return false
	}
	kv := g.hash(v)
	for _, t := range nu.out {
		if t == kv {
			return true
		}
	}
	return false
}

// RemVertex removes v from g, but only when both its adjacency and parent
// lists are empty. It returns the stored vertex handle and true on
// success; otherwise it returns the zero value and false (v missing, or
// v still has incident edges — both domain no-ops, spec.md §7.3).
func (g *Graph[V, K]) RemVertex(v V) (V, bool) {
	k := g.hash(v)
	n, ok := g.nodes[k]
	if !ok {
		var zero V
		return zero, false
	}
	if len(n.out) != 0 || len(n.in) != 0 {
		var zero V
		return zero, false
	}
	delete(g.nodes, k)
	g.order = removeKey(g.order, k)
	if g.onRemove != nil {
		g.onRemove(n.v)
	}
	return n.v, true
}

// RemEdge removes the first (u, v) edge. It returns true on success,
// false if no such edge exists (a domain no-op).
func (g *Graph[V, K]) RemEdge(u, v V) bool {
	ku, kv := g.hash(u), g.hash(v)
	nu, ok := g.nodes[ku]
	if !ok {
		return false
	}
	nv, ok := g.nodes[kv]
	if !ok {
		return false
	}
	i := indexOf(nu.out, kv)
	if i < 0 {
		return false
	}
	nu.out = removeAt(nu.out, i)
	if j := indexOf(nv.in, ku); j >= 0 {
		nv.in = removeAt(nv.in, j)
	}
	g.ecount--
	return true
}

// Vertices returns every vertex in g, in insertion order.
func (g *Graph[V, K]) Vertices() []V {
	out := make([]V, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.nodes[k].v)
	}
	return out
}

// Adjacent returns v's outgoing targets, in insertion order (repeated for
// parallel edges).
func (g *Graph[V, K]) Adjacent(v V) []V {
	n, ok := g.nodes[g.hash(v)]
	if !ok {
		return nil
	}
	out := make([]V, 0, len(n.out))
	for _, k := range n.out {
		out = append(out, g.nodes[k].v)
	}
	return out
}

// Parents returns v's incoming sources, in insertion order (repeated for
// parallel edges).
func (g *Graph[V, K]) Parents(v V) []V {
	n, ok := g.nodes[g.hash(v)]
	if !ok {
		return nil
	}
	out := make([]V, 0, len(n.in))
	for _, k := range n.in {
		out = append(out, g.nodes[k].v)
	}
	return out
}

func indexOf[K comparable](s []K, k K) int {
	for i, x := range s {
		if x == k {
			return i
		}
	}
	return -1
}

func removeAt[K comparable](s []K, i int) []K {
	return append(s[:i], s[i+1:]...)
}

func removeKey[K comparable](s []K, k K) []K {
	if i := indexOf(s, k); i >= 0 {
		return removeAt(s, i)
	}
	return s
}

// ToWeighted snapshots g into a gonum weighted directed graph, deriving
// the edge set from weight rather than requiring the caller to keep an
// independent edge list consistent with it (spec.md §9): an edge (u, v)
// with u != v is added iff weight(u, v) reports ok. Self-pairs are not
// projected, since gonum's simple graphs do not hold self edges. It returns the gonum graph along
// with the index<->vertex mappings needed to translate gonum node IDs
// back to vertex handles, for use by shortest-path queries and by DOT
// export (mirroring the teacher's cmd/cmpint DOT-export feature).
func (g *Graph[V, K]) ToWeighted(weight func(u, v V) (float64, bool)) (*simple.WeightedDirectedGraph, []V, map[K]int64) {
	wg := simple.NewWeightedDirectedGraph(0, 0)
	verts := g.Vertices()
	idx := make(map[K]int64, len(verts))
	for i, v := range verts {
		id := int64(i)
		idx[g.hash(v)] = id
		wg.AddNode(simple.Node(id))
	}
	// Derive the edge set entirely from weight rather than from g's own
	// adjacency lists: the two must agree by construction, not by
	// caller discipline (spec.md §9).
	for _, u := range verts {
		for _, v := range verts {
			if g.hash(u) == g.hash(v) {
				continue
			}
			w, ok := weight(u, v)
			if !ok {
				continue
			}
			wg.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(idx[g.hash(u)]),
				T: simple.Node(idx[g.hash(v)]),
				W: w,
			})
		}
	}
	return wg, verts, idx
}
