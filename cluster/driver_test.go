// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cluster

import "testing"

type fakeCursor struct {
	rows []AbnormalRow
	i    int
}

func (c *fakeCursor) Next() bool {
	if c.i >= len(c.rows) {
		return false
	}
	c.i++
	return true
}

func (c *fakeCursor) Row() AbnormalRow { return c.rows[c.i-1] }
func (c *fakeCursor) Err() error       { return nil }

type fakeInserter struct {
	rows []ClusterRow
}

func (ins *fakeInserter) Insert(r ClusterRow) error {
	ins.rows = append(ins.rows, r)
	return nil
}

// TestTwoChromosomes exercises spec.md §8 scenario 3: 4 points on chr1
// forming one cluster, then 3 points on chr2 forming one cluster. Emitted
// cluster_id values on chr2 must be strictly greater than on chr1, and
// chr1's base must equal chr1's cluster count (1).
func TestTwoChromosomes(t *testing.T) {
	cur := &fakeCursor{rows: []AbnormalRow{
		{AlignmentID: 1, Chr: "chr1", Low: 100, High: 150},
		{AlignmentID: 2, Chr: "chr1", Low: 140, High: 200},
		{AlignmentID: 3, Chr: "chr1", Low: 180, High: 240},
		{AlignmentID: 4, Chr: "chr1", Low: 190, High: 230},
		{AlignmentID: 5, Chr: "chr2", Low: 5000, High: 5050},
		{AlignmentID: 6, Chr: "chr2", Low: 5040, High: 5100},
		{AlignmentID: 7, Chr: "chr2", Low: 5080, High: 5140},
	}}
	ins := &fakeInserter{}

	if err := Cluster(cur, ins, 100, 3); err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(ins.rows) != 7 {
		t.Fatalf("got %d emitted rows, want 7 (one per input row)", len(ins.rows))
	}

	var chr1Max, chr2Min int64 = -1, 1 << 62
	for _, r := range ins.rows {
		if r.AlignmentID <= 4 {
			if r.ClusterID > chr1Max {
				chr1Max = r.ClusterID
			}
		} else {
			if r.ClusterID < chr2Min {
				chr2Min = r.ClusterID
			}
		}
	}
	if chr2Min <= chr1Max {
		t.Errorf("chr2 cluster ids (min %d) must exceed chr1 cluster ids (max %d)", chr2Min, chr1Max)
	}
	if chr1Max != 1 {
		t.Errorf("chr1 base (max cluster id) = %d, want 1", chr1Max)
	}
}

// TestEveryInputRowEmittedOnce exercises the spec.md §4.3 invariant that
// every input row produces exactly one emitted row, including a point
// that never joins any cluster's seed expansion.
func TestEveryInputRowEmittedOnce(t *testing.T) {
	cur := &fakeCursor{rows: []AbnormalRow{
		{AlignmentID: 11, Chr: "chr1", Low: 100, High: 150},
		{AlignmentID: 12, Chr: "chr1", Low: 140, High: 200},
		{AlignmentID: 13, Chr: "chr1", Low: 180, High: 240},
		{AlignmentID: 14, Chr: "chr1", Low: 10000, High: 10050},
	}}
	ins := &fakeInserter{}

	if err := Cluster(cur, ins, 100, 3); err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(ins.rows) != 4 {
		t.Fatalf("got %d emitted rows, want 4", len(ins.rows))
	}

	byID := make(map[int64]ClusterRow, len(ins.rows))
	for _, r := range ins.rows {
		byID[r.AlignmentID] = r
	}
	far, ok := byID[14]
	if !ok {
		t.Fatal("the isolated far point was never emitted")
	}
	if far.Label.String() != "NOISE" || far.ClusterID != 0 {
		t.Errorf("far point = %+v, want label NOISE and cluster id 0", far)
	}
}

func TestEmptyCursorProducesNothing(t *testing.T) {
	cur := &fakeCursor{}
	ins := &fakeInserter{}
	if err := Cluster(cur, ins, 100, 3); err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(ins.rows) != 0 {
		t.Errorf("got %d rows from an empty cursor, want 0", len(ins.rows))
	}
}

func TestClusterPanicsOnBadMinPts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Cluster did not panic with min_pts < 3")
		}
	}()
	Cluster(&fakeCursor{}, &fakeInserter{}, 100, 2)
}
