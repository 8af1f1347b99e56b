// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align describes the shape of the alignment records produced by
// the (external, out of scope) SAM/BAM ingest and abnormal-classification
// phase of the retrocopy-detection pipeline.
package align

// Reason is a bitmask of the reasons an alignment was flagged abnormal by
// the ingest phase.
type Reason int

// Abnormality reasons. The integer values are an implementation contract
// shared with the ingest phase and must not be renumbered.
const (
	Distance      Reason = 1 << iota // mate pair inter-distance exceeds DistanceCutoff
	Chromosome                       // mates map to different chromosomes
	Supplementary                    // alignment is a supplementary (non-primary) record
	Exonic                           // alignment overlaps an annotated exon
)

// DistanceCutoff is the inter-mate distance, in bases on the reference,
// above which the ingest phase sets Distance. Preserving this value is
// required for cross-tool compatibility with the rest of the pipeline.
const DistanceCutoff = 10000

// Has reports whether r has all of the bits in reason set.
func (r Reason) Has(reason Reason) bool {
	return r&reason == reason
}

// Record is one row of the persisted alignment table (spec.md §3, §6).
// It is produced entirely by the external ingest phase; this package only
// names its shape.
type Record struct {
	ID    int64  // unique across the run
	QName string // read identifier; groups mates
	Chr   string // chromosome; ordering by this field is significant
	Pos   int64  // 1-based start on the reference
	RLen  int64  // read length on the reference, >= 1
	Type  Reason
}

// Low is the closed-interval lower endpoint used for clustering: Pos.
func (r Record) Low() int64 { return r.Pos }

// High is the closed-interval upper endpoint used for clustering:
// Pos+RLen-1.
func (r Record) High() int64 { return r.Pos + r.RLen - 1 }
