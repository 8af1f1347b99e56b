// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store persists the alignment table and the clustering-output
// table described in spec.md §3 and §6 in a pair of embedded
// modernc.org/kv ordered key-value stores, and implements the
// abnormal-alignment query (spec.md §4.3) and the cluster.Cursor /
// cluster.Inserter contracts against them.
//
// Keys are marshalled big-endian, following the teacher tool's own
// internal/store key encoding. Alignment keys are ordered by the ByChrPos
// compare function; clustering-output keys are fixed-width, so their
// lexical byte order matches the field order we need for range scans.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"modernc.org/kv"

	"github.com/kortschak/retrocluster/align"
	"github.com/kortschak/retrocluster/cluster"
	"github.com/kortschak/retrocluster/dbscan"
)

var order = binary.BigEndian

// ByChrPos is a kv compare function ordering alignment keys by chromosome,
// then position, then id, so that a SeekFirst/Next walk visits rows in the
// chromosome-ascending order the clustering driver requires.
func ByChrPos(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	kx := unmarshalKey(x)
	ky := unmarshalKey(y)
	switch {
	case kx.chr < ky.chr:
		return -1
	case kx.chr > ky.chr:
		return 1
	}
	switch {
	case kx.pos < ky.pos:
		return -1
	case kx.pos > ky.pos:
		return 1
	}
	switch {
	case kx.id < ky.id:
		return -1
	case kx.id > ky.id:
		return 1
	}
	return 0
}

type key struct {
	chr string
	pos int64
	id  int64
}

func marshalKey(chr string, pos, id int64) []byte {
	var (
		buf bytes.Buffer
		b   [8]byte
	)
	order.PutUint64(b[:], uint64(len(chr)))
	buf.Write(b[:])
	buf.WriteString(chr)
	order.PutUint64(b[:], uint64(pos))
	buf.Write(b[:])
	order.PutUint64(b[:], uint64(id))
	buf.Write(b[:])
	return buf.Bytes()
}

func unmarshalKey(data []byte) key {
	var k key
	n64 := binary.Size(uint64(0))
	n := order.Uint64(data[:n64])
	data = data[n64:]
	k.chr = string(data[:n])
	data = data[n:]
	k.pos = int64(order.Uint64(data[:n64]))
	data = data[n64:]
	k.id = int64(order.Uint64(data[:n64]))
	return k
}

// marshalRecord and unmarshalRecord encode an align.Record's non-key
// fields (RLen, QName, Type); Chr, Pos, and ID live in the key and are
// restored from it on read.
func marshalRecord(r align.Record) []byte {
	var (
		buf bytes.Buffer
		b   [8]byte
	)
	order.PutUint64(b[:], uint64(r.RLen))
	buf.Write(b[:])
	order.PutUint64(b[:], uint64(r.Type))
	buf.Write(b[:])
	order.PutUint64(b[:], uint64(len(r.QName)))
	buf.Write(b[:])
	buf.WriteString(r.QName)
	return buf.Bytes()
}

func unmarshalRecord(k key, data []byte) align.Record {
	n64 := binary.Size(uint64(0))
	rlen := int64(order.Uint64(data[:n64]))
	data = data[n64:]
	typ := align.Reason(order.Uint64(data[:n64]))
	data = data[n64:]
	n := order.Uint64(data[:n64])
	data = data[n64:]
	qname := string(data[:n])
	return align.Record{
		ID:    k.id,
		QName: qname,
		Chr:   k.chr,
		Pos:   k.pos,
		RLen:  rlen,
		Type:  typ,
	}
}

// Store is an embedded-kv-backed pair of tables: the alignment table
// written by the (external) ingest phase, and the clustering-output table
// written by the clustering driver.
type Store struct {
	alignments *kv.DB
	clusters   *kv.DB
}

// byClusterRow is a kv compare function ordering clustering-output keys
// lexically, which for fixed-width big-endian (cluster_id, alignment_id,
// label) keys is equivalent to ordering by cluster_id then alignment_id
// then label.
func byClusterRow(x, y []byte) int { return bytes.Compare(x, y) }

// Create creates new, empty alignment and clustering databases at the
// given paths, overwriting any existing files.
func Create(alignmentsPath, clustersPath string) (*Store, error) {
	a, err := kv.Create(alignmentsPath, &kv.Options{Compare: ByChrPos})
	if err != nil {
		return nil, fmt.Errorf("store: create alignments db: %w", err)
	}
	c, err := kv.Create(clustersPath, &kv.Options{Compare: byClusterRow})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("store: create clusters db: %w", err)
	}
	return &Store{alignments: a, clusters: c}, nil
}

// Open opens existing alignment and clustering databases at the given
// paths.
func Open(alignmentsPath, clustersPath string) (*Store, error) {
	a, err := kv.Open(alignmentsPath, &kv.Options{Compare: ByChrPos})
	if err != nil {
		return nil, fmt.Errorf("store: open alignments db: %w", err)
	}
	c, err := kv.Open(clustersPath, &kv.Options{Compare: byClusterRow})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("store: open clusters db: %w", err)
	}
	return &Store{alignments: a, clusters: c}, nil
}

// Close closes both underlying databases.
func (s *Store) Close() error {
	err1 := s.alignments.Close()
	err2 := s.clusters.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// PutAlignment writes one alignment row, keyed by (chr, pos, id) so that a
// chromosome-ascending scan is a plain SeekFirst/Next walk.
func (s *Store) PutAlignment(r align.Record) error {
	return s.alignments.Set(marshalKey(r.Chr, r.Pos, r.ID), marshalRecord(r))
}

// Cursor returns a cluster.Cursor over the abnormal alignments: rows with
// at least one mate (same QName, different ID) whose Type has Exonic set
// (spec.md §4.3). Because the kv store is a plain ordered map rather than
// a relational engine, the mate-exonic predicate is evaluated in Go by
// grouping rows by QName as the full table is read once into memory; this
// is adequate for the batch, one-shot clustering runs this store serves.
func (s *Store) Cursor() (cluster.Cursor, error) {
	byQName := make(map[string][]align.Record)
	var ordered []align.Record

	it, err := s.alignments.SeekFirst()
	if err == io.EOF {
		return &sliceCursor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: seek alignments: %w", err)
	}
	for {
		k, v, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: scan alignments: %w", err)
		}
		r := unmarshalRecord(unmarshalKey(k), v)
		byQName[r.QName] = append(byQName[r.QName], r)
		ordered = append(ordered, r)
	}

	rows := make([]cluster.AbnormalRow, 0, len(ordered))
	for _, r := range ordered {
		mates := byQName[r.QName]
		abnormal := false
		for _, m := range mates {
			if m.ID != r.ID && m.Type.Has(align.Exonic) {
				abnormal = true
				break
			}
		}
		if !abnormal {
			continue
		}
		rows = append(rows, cluster.AbnormalRow{
			AlignmentID: r.ID,
			Chr:         r.Chr,
			Low:         r.Low(),
			High:        r.High(),
		})
	}
	return &sliceCursor{rows: rows}, nil
}

// sliceCursor is an in-memory cluster.Cursor over rows already ordered by
// chromosome (a property inherited from the alignments db's ByChrPos key
// order).
type sliceCursor struct {
	rows []cluster.AbnormalRow
	i    int
}

func (c *sliceCursor) Next() bool {
	if c.i >= len(c.rows) {
		return false
	}
	c.i++
	return true
}

func (c *sliceCursor) Row() cluster.AbnormalRow { return c.rows[c.i-1] }
func (c *sliceCursor) Err() error               { return nil }

// clusterRowKey orders clustering-output rows by cluster id then
// alignment id, matching the ordering audit-ins-db's descendant would
// expect from a dump of this table.
func clusterRowKey(r cluster.ClusterRow) []byte {
	var b [24]byte
	order.PutUint64(b[0:8], uint64(r.ClusterID))
	order.PutUint64(b[8:16], uint64(r.AlignmentID))
	order.PutUint64(b[16:24], uint64(r.Label))
	return b[:]
}

// Insert implements cluster.Inserter by writing r to the clusters db,
// keyed by (cluster_id, alignment_id, label) and valued by the neighbor
// count.
func (s *Store) Insert(r cluster.ClusterRow) error {
	var v [8]byte
	order.PutUint64(v[:], uint64(r.Neighbors))
	return s.clusters.Set(clusterRowKey(r), v[:])
}

// Clusters returns every emitted clustering row, in (cluster_id,
// alignment_id, label) order.
func (s *Store) Clusters() ([]cluster.ClusterRow, error) {
	var out []cluster.ClusterRow
	it, err := s.clusters.SeekFirst()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: seek clusters: %w", err)
	}
	for {
		k, v, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: scan clusters: %w", err)
		}
		out = append(out, cluster.ClusterRow{
			ClusterID:   int64(order.Uint64(k[0:8])),
			AlignmentID: int64(order.Uint64(k[8:16])),
			Label:       dbscan.Label(order.Uint64(k[16:24])),
			Neighbors:   int(order.Uint64(v)),
		})
	}
	return out, nil
}
