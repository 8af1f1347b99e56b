// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ivtree provides an augmented interval tree over closed 1D
// intervals, supporting overlap ("stabbing") range queries with a visitor
// callback. It is a thin wrapper over github.com/biogo/store/interval,
// the same interval-tree package the teacher tool uses for culling
// contained BLAST hits and GFF features.
package ivtree

import (
	"fmt"

	"github.com/biogo/store/interval"
)

// Visitor is called once per stored interval overlapping a query range.
// It must not retain low/high/payload after it returns.
type Visitor func(low, high int64, payload interface{})

// entry is the github.com/biogo/store/interval.IntInterface implementation
// backing every item stored in a Tree.
type entry struct {
	uid       uintptr
	low, high int64
	payload   interface{}
}

// Range satisfies interval.IntInterface.
func (e entry) Range() interval.IntRange {
	return interval.IntRange{Start: int(e.low), End: int(e.high)}
}

// ID satisfies interval.IntInterface.
func (e entry) ID() uintptr { return e.uid }

// Overlap reports whether e's interval overlaps the range b, using the
// usual lo <= qhigh && hi >= qlow rule (spec.md §4.1).
func (e entry) Overlap(b interval.IntRange) bool {
	return e.low <= int64(b.End) && e.high >= int64(b.Start)
}

// Tree is an augmented balanced interval tree supporting O(log n + k)
// overlap queries, where k is the number of hits. The zero value is an
// empty, ready to use Tree.
type Tree struct {
	tree interval.IntTree
	next uintptr
	dirty bool
}

// Insert adds the closed interval [low, high] to t with the given opaque
// payload. low must be <= high.
func (t *Tree) Insert(low, high int64, payload interface{}) error {
	if low > high {
		return fmt.Errorf("ivtree: invalid interval [%d, %d]", low, high)
	}
	e := entry{uid: t.next, low: low, high: high, payload: payload}
	t.next++
	err := t.tree.Insert(e, true)
	if err != nil {
		return fmt.Errorf("ivtree: insert: %w", err)
	}
	t.dirty = true
	return nil
}

// adjust brings the tree's augmented max-end annotations up to date after
// a batch of fast inserts. It is cheap to call when nothing changed.
func (t *Tree) adjust() {
	if t.dirty {
		t.tree.AdjustRanges()
		t.dirty = false
	}
}

// Lookup invokes visit once, in tree-traversal order, for every stored
// interval overlapping the closed range [qlow, qhigh].
func (t *Tree) Lookup(qlow, qhigh int64, visit Visitor) {
	t.adjust()
	q := entry{low: qlow, high: qhigh}
	for _, hit := range t.tree.Get(q) {
		e := hit.(entry)
		visit(e.low, e.high, e.payload)
	}
}

// Count returns the number of stored intervals overlapping the closed
// range [qlow, qhigh].
func (t *Tree) Count(qlow, qhigh int64) int {
	t.adjust()
	q := entry{low: qlow, high: qhigh}
	return len(t.tree.Get(q))
}

// Len returns the number of intervals stored in t.
func (t *Tree) Len() int {
	return int(t.next)
}
