// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// relate is the downstream cluster-relationship tool: it builds a graph of
// clusters connected by shared-read support, reports all-pairs shortest
// relate-distances between them with Floyd–Warshall, and scores pairs of
// clusters that have an associated numeric series (e.g. per-sample
// expression) with Pearson and Spearman correlation plus a permutation
// p-value. Its inputs are the downstream consumer's business, not this
// specification's (spec.md §1): relate takes them as plain JSON so it can
// be driven independently of any particular store.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"gonum.org/v1/gonum/graph/encoding/dot"

	"github.com/kortschak/retrocluster/graph"
	"github.com/kortschak/retrocluster/path"
	"github.com/kortschak/retrocluster/stats"
)

// supportEdge is one shared-read-support relationship between two
// clusters, as produced by the (external) retrocopy-calling logic.
type supportEdge struct {
	A, B  int64
	Count int64
}

// series is a per-cluster numeric series (e.g. per-sample expression)
// used to score cluster relationships with correlation.
type series struct {
	Cluster int64
	Values  []float64
}

func main() {
	supportFile := flag.String("support", "", "specify shared-read-support edge list, newline-delimited JSON (required)")
	seriesFile := flag.String("series", "", "specify per-cluster numeric series, newline-delimited JSON (optional)")
	dotOut := flag.String("dot", "", "specify a path to write the support graph in DOT format")
	seed := flag.Int64("seed", 1, "specify the initial permutation-test seed")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -support <support.ndjson> [-series <series.ndjson>] >out.json 2>out.log

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *supportFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	edges, err := readSupport(*supportFile)
	if err != nil {
		log.Fatal(err)
	}

	g := graph.New(hashID, eqID, false)
	weight := make(map[[2]int64]float64)
	for _, e := range edges {
		g.InsVertex(e.A)
		g.InsVertex(e.B)
		if g.InsEdge(e.A, e.B) == 0 {
			log.Printf("duplicate support edge %d -> %d ignored", e.A, e.B)
			continue
		}
		weight[[2]int64{e.A, e.B}] = 1 / float64(e.Count)
	}
	log.Printf("support graph: %d clusters, %d edges", g.VCount(), g.ECount())

	if *dotOut != "" {
		if err := writeDOT(*dotOut, g, weight); err != nil {
			log.Fatal(err)
		}
	}

	w := path.Weight[int64](func(u, v int64) (float64, bool) {
		c, ok := weight[[2]int64{u, v}]
		return c, ok
	})
	fw := path.New(g, hashID, w)
	if !fw.Acyclic() {
		log.Println("warning: support graph contains a negative-weight cycle; distances are not meaningful")
	}

	type relation struct {
		A        int64   `json:"a,omitempty"`
		B        int64   `json:"b,omitempty"`
		Dist     float64 `json:"dist,omitempty"`
		Path     []int64 `json:"path,omitempty"`
		Pearson  float64 `json:"pearson,omitempty"`
		Spearman float64 `json:"spearman,omitempty"`
		PValue   float64 `json:"p_value,omitempty"`
	}

	enc := json.NewEncoder(os.Stdout)
	verts := g.Vertices()
	for _, u := range verts {
		for _, v := range verts {
			if u == v {
				continue
			}
			d, ok := fw.Dist(u, v)
			if !ok {
				continue
			}
			if err := enc.Encode(relation{A: u, B: v, Dist: d, Path: fw.Path(u, v)}); err != nil {
				log.Fatal(err)
			}
		}
	}

	if *seriesFile == "" {
		return
	}
	byCluster, err := readSeries(*seriesFile)
	if err != nil {
		log.Fatal(err)
	}
	localSeed := *seed
	for _, e := range edges {
		sa, ok := byCluster[e.A]
		if !ok {
			continue
		}
		sb, ok := byCluster[e.B]
		if !ok {
			continue
		}
		r, _ := stats.Pearson(sa, sb)
		rho, ok := stats.Spearman(sa, sb)
		if !ok {
			continue
		}
		p := stats.SpearmanPermutationTest(sa, sb, &localSeed, rho)
		err := enc.Encode(relation{A: e.A, B: e.B, Pearson: r, Spearman: rho, PValue: p})
		if err != nil {
			log.Fatal(err)
		}
	}
}

func hashID(v int64) int64 { return v }
func eqID(a, b int64) bool { return a == b }

func readSupport(path string) ([]supportEdge, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read support file: %w", err)
	}
	return decodeNDJSON[supportEdge](b)
}

func readSeries(path string) (map[int64][]float64, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read series file: %w", err)
	}
	rows, err := decodeNDJSON[series](b)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]float64, len(rows))
	for _, r := range rows {
		out[r.Cluster] = r.Values
	}
	return out, nil
}

func decodeNDJSON[T any](b []byte) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var out []T
	for {
		var v T
		err := dec.Decode(&v)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func writeDOT(path string, g *graph.Graph[int64, int64], weight map[[2]int64]float64) error {
	wg, _, _ := g.ToWeighted(func(u, v int64) (float64, bool) {
		c, ok := weight[[2]int64{u, v}]
		return c, ok
	})
	b, err := dot.Marshal(wg, "support", "", "\t")
	if err != nil {
		return fmt.Errorf("marshal dot: %w", err)
	}
	return ioutil.WriteFile(path, b, 0o664)
}
