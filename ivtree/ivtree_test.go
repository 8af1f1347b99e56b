// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ivtree

import (
	"sort"
	"testing"
)

func TestLookupOverlap(t *testing.T) {
	var tr Tree
	ids := []struct{ low, high int64 }{
		{100, 150},
		{140, 200},
		{180, 240},
		{10000, 10050},
	}
	for i, iv := range ids {
		if err := tr.Insert(iv.low, iv.high, i); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	var got []int
	tr.Lookup(90, 160, func(low, high int64, payload interface{}) {
		got = append(got, payload.(int))
	})
	sort.Ints(got)
	want := []int{0, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if n := tr.Count(0, 99); n != 0 {
		t.Errorf("count in empty region = %d, want 0", n)
	}
	if n := tr.Count(90, 250); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestInsertRejectsInvertedInterval(t *testing.T) {
	var tr Tree
	if err := tr.Insert(10, 5, nil); err == nil {
		t.Fatal("expected error for low > high")
	}
}
