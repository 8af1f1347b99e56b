// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// retrocluster runs the DBSCAN clustering driver over an alignment table
// and reports the resulting cluster assignments as a JSON stream. The
// alignment table itself is taken as given (spec.md's Non-goals exclude
// SAM/BAM ingest and abnormal-alignment classification): retrocluster
// reads it from a newline-delimited JSON file, one align.Record per line.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/kortschak/retrocluster/align"
	"github.com/kortschak/retrocluster/cluster"
	"github.com/kortschak/retrocluster/store"
)

func main() {
	in := flag.String("in", "", "specify input alignment table, newline-delimited JSON (required)")
	dir := flag.String("db", "", "specify working directory for the persisted kv stores (required)")
	eps := flag.Int64("eps", align.DistanceCutoff, "specify the DBSCAN epsilon, in bases")
	minPts := flag.Int("min-pts", 3, "specify the DBSCAN min_pts")
	verbose := flag.Bool("verbose", false, "specify verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -in <alignments.ndjson> -db <work-dir> >out.json 2>out.log

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *in == "" || *dir == "" {
		flag.Usage()
		os.Exit(2)
	}

	log.Println(os.Args)

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal(err)
	}
	s, err := store.Create(filepath.Join(*dir, "alignments.db"), filepath.Join(*dir, "clusters.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	log.Println("loading alignments")
	n, err := loadAlignments(f, s, *verbose)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d alignments", n)

	cur, err := s.Cursor()
	if err != nil {
		log.Fatal(err)
	}

	log.Println("clustering")
	if err := cluster.Cluster(cur, s, *eps, *minPts); err != nil {
		log.Fatal(err)
	}

	rows, err := s.Clusters()
	if err != nil {
		log.Fatal(err)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			log.Fatalf("failed to write cluster row: %v", err)
		}
	}
}

func loadAlignments(r io.Reader, s *store.Store, verbose bool) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		var rec align.Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return n, fmt.Errorf("decode alignment record %d: %w", n+1, err)
		}
		if err := s.PutAlignment(rec); err != nil {
			return n, fmt.Errorf("store alignment record %d: %w", n+1, err)
		}
		if verbose {
			log.Printf("loaded %s:%d-%d (%s)", rec.Chr, rec.Low(), rec.High(), rec.QName)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("scan alignments: %w", err)
	}
	return n, nil
}
