// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbscan implements density-based spatial clustering (Ester et al.,
// 1996) over 1D intervals, using the midpoint of each interval as its
// clustering coordinate and an augmented interval tree (ivtree) for
// ε-neighborhood queries.
package dbscan

import "github.com/kortschak/retrocluster/ivtree"

// Label is a DBSCAN point classification.
type Label int

// Point labels. A point's label may only transition monotonically along
// Undefined -> Noise -> Reachable -> Core within one clustering pass.
const (
	Undefined Label = iota
	Noise
	Reachable
	Core
)

func (l Label) String() string {
	switch l {
	case Undefined:
		return "UNDEFINED"
	case Noise:
		return "NOISE"
	case Reachable:
		return "REACHABLE"
	case Core:
		return "CORE"
	default:
		return "INVALID"
	}
}

// Point is a DBSCAN point: an interval, a classification, a cluster id,
// the neighbor count reported by the last range query performed for it,
// and an opaque caller payload.
type Point struct {
	Low, High int64
	Data      interface{}

	label     Label
	id        int
	neighbors int
	idx       int // stable insertion index; used for seed-set membership
}

// Label returns p's current classification.
func (p *Point) Label() Label { return p.label }

// ID returns p's cluster number within the current pass; 0 while
// Undefined or Noise.
func (p *Point) ID() int { return p.id }

// Neighbors returns the cardinality of the last ε-neighborhood computed
// for p.
func (p *Point) Neighbors() int { return p.neighbors }

// Engine is a reusable DBSCAN clustering engine over an ordered sequence
// of points, spatially indexed by an ivtree.Tree.
type Engine struct {
	points    []*Point
	tree      ivtree.Tree
	onDispose func(payload interface{})
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{}
}

// NewWithDisposer returns an empty Engine whose points' payloads are
// passed to onDispose when the Engine is discarded via Close. This mirrors
// the destructor registered on sideRETRO's DBSCAN points; it is a no-op
// unless supplied.
func NewWithDisposer(onDispose func(payload interface{})) *Engine {
	return &Engine{onDispose: onDispose}
}

// Insert adds a point for the closed interval [low, high] with the given
// opaque payload, in insertion order. low must be <= high; this is a
// caller precondition (spec.md §7.1), not a recoverable error.
func (e *Engine) Insert(low, high int64, payload interface{}) *Point {
	idx := len(e.points)
	p := &Point{Low: low, High: high, Data: payload, idx: idx}
	e.points = append(e.points, p)
	err := e.tree.Insert(low, high, idx)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of points inserted into e.
func (e *Engine) Len() int { return len(e.points) }

// Close releases e's resources, invoking the registered disposer (if any)
// on every point's payload.
func (e *Engine) Close() {
	if e.onDispose == nil {
		return
	}
	for _, p := range e.points {
		e.onDispose(p.Data)
	}
}

// neighborhood returns the ε-neighborhood of p: every inserted point
// (including p itself) whose interval overlaps the window
// [max(1, center-eps), center+eps], where center is the integer midpoint
// of p's interval. It also records the result's cardinality on p.
func (e *Engine) neighborhood(p *Point, eps int64) []*Point {
	center := (p.Low + p.High) / 2
	lo := center - eps
	if lo < 1 {
		lo = 1
	}
	hi := center + eps

	var out []*Point
	e.tree.Lookup(lo, hi, func(_, _ int64, payload interface{}) {
		out = append(out, e.points[payload.(int)])
	})
	p.neighbors = len(out)
	return out
}

// Cluster runs one DBSCAN pass with the given parameters, resetting every
// point to Undefined first so the engine may be reused for a parameter
// sweep over the same dataset. eps must be >= 0 and minPts must be >= 3;
// violating either is a programmer error (spec.md §7.1).
//
// visit is invoked once per point that took part in a cluster's seed
// expansion (in seed order: the core point's neighborhood in tree-traversal
// order, then points appended during expansion), immediately after that
// cluster's seed set is fully processed; it is never invoked for Noise
// points directly (they are only visited if later promoted to Reachable
// as a border point of some other core point's expansion). Cluster
// returns the number of clusters found in this pass.
func (e *Engine) Cluster(eps int64, minPts int, visit func(*Point)) int {
	if eps < 0 {
		panic("dbscan: eps must be >= 0")
	}
	if minPts < 3 {
		panic("dbscan: min_pts must be >= 3")
	}

	for _, p := range e.points {
		p.label = Undefined
		p.id = 0
		p.neighbors = 0
	}

	inSeed := make([]bool, len(e.points))
	clusters := 0

	for _, p := range e.points {
		if p.label != Undefined {
			continue
		}

		neigh := e.neighborhood(p, eps)
		if len(neigh) < minPts {
			p.label = Noise
			continue
		}

		clusters++
		c := clusters
		p.label = Core
		p.id = c

		// Explicit FIFO expansion queue, seeded from p's neighborhood and
		// grown in place as points are promoted to Core. A presence
		// bitset keyed by insertion index stands in for the pointer-
		// identity membership test used by the source implementation
		// (spec.md §9).
		seed := append([]*Point(nil), neigh...)
		for _, s := range seed {
			inSeed[s.idx] = true
		}
		for i := 0; i < len(seed); i++ {
			q := seed[i]
			switch q.label {
			case Noise:
				q.label = Reachable
				q.id = c
			case Undefined:
				q.label = Reachable
				q.id = c
				qn := e.neighborhood(q, eps)
				if len(qn) >= minPts {
					q.label = Core
					for _, r := range qn {
						if !inSeed[r.idx] {
							inSeed[r.idx] = true
							seed = append(seed, r)
						}
					}
				}
			default:
				// Already Reachable or Core: already settled, skip.
			}
		}

		for _, s := range seed {
			visit(s)
			inSeed[s.idx] = false
		}
	}

	return clusters
}
