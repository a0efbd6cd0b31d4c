package core

import "testing"

// TestDeleteSet_SortAndMergeInvariant checks spec invariant 6: after
// sort+merge, every per-client run satisfies run[i].end < run[i+1].start
// (a strict gap — anything touching or overlapping has been folded).
func TestDeleteSet_SortAndMergeInvariant(t *testing.T) {
	ds := NewDeleteSet()
	ds.Add(1, 10, 5) // [10,15)
	ds.Add(1, 0, 5)  // [0,5)
	ds.Add(1, 5, 5)  // [5,10) — touches the first run
	ds.Add(1, 20, 3) // [20,23) — disjoint

	ds.SortAndMerge()

	runs := ds.Clients[1]
	if len(runs) != 2 {
		t.Fatalf("expected 2 merged runs, got %d: %+v", len(runs), runs)
	}
	if runs[0].Clock != 0 || runs[0].Len != 15 {
		t.Fatalf("expected the first three runs to merge into [0,15), got %+v", runs[0])
	}
	if runs[1].Clock != 20 || runs[1].Len != 3 {
		t.Fatalf("expected the disjoint run to survive unmerged, got %+v", runs[1])
	}
	for i := 0; i+1 < len(runs); i++ {
		if runs[i].end() >= runs[i+1].Clock {
			t.Fatalf("invariant violated: run %d end %d >= run %d start %d", i, runs[i].end(), i+1, runs[i+1].Clock)
		}
	}
}

func TestDeleteSet_IsDeleted(t *testing.T) {
	ds := NewDeleteSet()
	ds.Add(1, 10, 5)
	ds.SortAndMerge()

	cases := []struct {
		clock uint32
		want  bool
	}{
		{9, false},
		{10, true},
		{14, true},
		{15, false},
	}
	for _, c := range cases {
		if got := ds.IsDeleted(ID{Client: 1, Clock: c.clock}); got != c.want {
			t.Errorf("IsDeleted(clock=%d) = %v, want %v", c.clock, got, c.want)
		}
	}
}

// TestDeleteSet_Merge checks that merging a remote delete set folds its
// runs in and re-normalizes, as happens at transaction close (spec §4.7
// step 8).
func TestDeleteSet_Merge(t *testing.T) {
	a := NewDeleteSet()
	a.Add(1, 0, 5)
	a.SortAndMerge()

	b := NewDeleteSet()
	b.Add(1, 5, 5)
	b.Add(2, 0, 2)

	a.Merge(b)

	if len(a.Clients[1]) != 1 || a.Clients[1][0].Len != 10 {
		t.Fatalf("expected client 1's runs to merge into a single [0,10) run, got %+v", a.Clients[1])
	}
	if len(a.Clients[2]) != 1 || a.Clients[2][0].Clock != 0 || a.Clients[2][0].Len != 2 {
		t.Fatalf("expected client 2's run to carry over unchanged, got %+v", a.Clients[2])
	}
}
