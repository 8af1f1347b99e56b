// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cluster implements the clustering driver (spec.md §4.3): it
// streams abnormal alignments from an external store, in chromosome-sorted
// order, feeds one dbscan.Engine per chromosome, and emits one
// cluster-assignment row per point through a caller-supplied Inserter.
//
// The driver has no compile-time dependency on any particular store; the
// relational/KV store that actually persists the alignment and clustering
// tables is, per spec.md §1, an external collaborator reached only through
// Cursor and Inserter.
package cluster

import (
	"fmt"

	"github.com/kortschak/retrocluster/dbscan"
)

// AbnormalRow is one row of the abnormal-alignment query described in
// spec.md §4.3: an alignment that has at least one mate flagged exonic.
type AbnormalRow struct {
	AlignmentID int64
	Chr         string
	Low, High   int64
}

// ClusterRow is one emitted row of the output clustering table
// (spec.md §3, §6).
type ClusterRow struct {
	ClusterID   int64
	AlignmentID int64
	Label       dbscan.Label
	Neighbors   int
}

// Cursor streams AbnormalRow values ordered by Chr ascending.
type Cursor interface {
	// Next advances the cursor and reports whether a row is available.
	Next() bool
	// Row returns the row most recently made available by Next.
	Row() AbnormalRow
	// Err returns the first error encountered by the cursor, if any,
	// once Next has returned false.
	Err() error
}

// Inserter writes emitted cluster-assignment rows.
type Inserter interface {
	Insert(ClusterRow) error
}

// Cluster runs the clustering driver: for each chromosome in cur's order,
// it builds a fresh dbscan.Engine, inserts every row's interval with its
// alignment id as payload, then clusters with the given eps and minPts,
// writing one ClusterRow per emitted point to ins. minPts must be >= 3
// (spec.md §4.2); the driver asserts this itself, as a programmer error
// rather than a store error (spec.md §7.1).
//
// cluster_id values are strictly increasing across chromosome boundaries:
// each chromosome's cluster numbers are offset by the running total of
// clusters found in prior chromosomes (spec.md §4.3's "base").
//
// dbscan.Engine's own visitor only fires for points that took part in some
// cluster's seed expansion, so a point that never borders a cluster is
// never passed to it. spec.md §4.3 nonetheless requires that every input
// row produce exactly one emitted row, so this driver tracks which points
// the engine's visitor reached during a chromosome's pass and, for any
// left over, emits them itself with label NOISE and neighbors as last
// computed by the engine — holding the invariant at the driver boundary
// without changing the DBSCAN algorithm itself.
func Cluster(cur Cursor, ins Inserter, eps int64, minPts int) error {
	if minPts < 3 {
		panic("cluster: min_pts must be >= 3")
	}

	var (
		engine  *dbscan.Engine
		points  []*dbscan.Point
		chr     string
		haveChr bool
		base    int64
	)

	flush := func() error {
		if engine == nil {
			return nil
		}
		var insertErr error
		visited := make(map[*dbscan.Point]bool, len(points))
		emit := func(p *dbscan.Point) {
			if insertErr != nil {
				return
			}
			row := ClusterRow{
				ClusterID:   int64(p.ID()) + base,
				AlignmentID: p.Data.(int64),
				Label:       p.Label(),
				Neighbors:   p.Neighbors(),
			}
			if err := ins.Insert(row); err != nil {
				insertErr = fmt.Errorf("cluster: insert: %w", err)
			}
		}
		n := engine.Cluster(eps, minPts, func(p *dbscan.Point) {
			// A border point can sit in the seed sets of two clusters;
			// emit it only the first time the engine visits it.
			if visited[p] {
				return
			}
			visited[p] = true
			emit(p)
		})
		for _, p := range points {
			if !visited[p] {
				emit(p)
			}
		}
		engine.Close()
		points = nil
		if insertErr != nil {
			return insertErr
		}
		base += int64(n)
		return nil
	}

	for cur.Next() {
		row := cur.Row()
		if !haveChr || row.Chr != chr {
			if err := flush(); err != nil {
				return err
			}
			engine = dbscan.New()
			chr = row.Chr
			haveChr = true
		}
		points = append(points, engine.Insert(row.Low, row.High, row.AlignmentID))
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("cluster: cursor: %w", err)
	}
	return flush()
}
