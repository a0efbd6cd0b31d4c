package ydoc

import (
	"reflect"
	"testing"
)

// TestYdoc_ConcurrentInsertAtHeadOrdersByClientID reproduces spec §8's
// S1: three replicas each insert a single element at index 0 with no
// causal link between them; after a full merge, every replica agrees
// on the same order, ascending by client id.
func TestYdoc_ConcurrentInsertAtHeadOrdersByClientID(t *testing.T) {
	a := New(Options{ClientID: 1})
	b := New(Options{ClientID: 2})
	c := New(Options{ClientID: 3})

	arrA, _ := a.GetArray("arr")
	arrB, _ := b.GetArray("arr")
	arrC, _ := c.GetArray("arr")
	if err := arrA.Insert(0, "a"); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := arrB.Insert(0, "b"); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if err := arrC.Insert(0, "c"); err != nil {
		t.Fatalf("insert c: %v", err)
	}

	merged := New(Options{ClientID: 0})
	for _, src := range []*Doc{a, b, c} {
		if err := merged.ApplyUpdate(src.EncodeStateAsUpdate(nil), nil); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	arrM, _ := merged.GetArray("arr")
	if got, want := arrM.ToSlice(), []any{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ascending-client-id order %v, got %v", want, got)
	}

	// Replaying the merge in the opposite order must converge to the
	// same result (spec §8 property: state-convergence).
	merged2 := New(Options{ClientID: 0})
	for _, src := range []*Doc{c, b, a} {
		if err := merged2.ApplyUpdate(src.EncodeStateAsUpdate(nil), nil); err != nil {
			t.Fatalf("merge reverse: %v", err)
		}
	}
	arrM2, _ := merged2.GetArray("arr")
	if got, want := arrM2.ToSlice(), []any{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected convergence regardless of merge order, got %v", got)
	}
}

// TestYdoc_ConcurrentInsertAndDeleteConverge reproduces spec §8's S2: A
// deletes the middle element while B concurrently inserts next to it;
// both replicas converge to the same final sequence no matter which
// side applies the other's update first.
func TestYdoc_ConcurrentInsertAndDeleteConverge(t *testing.T) {
	a := New(Options{ClientID: 1})
	arrA, _ := a.GetArray("arr")
	if err := arrA.Insert(0, "a", "b", "c"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	b := New(Options{ClientID: 2})
	if err := b.ApplyUpdate(a.EncodeStateAsUpdate(nil), nil); err != nil {
		t.Fatalf("seed b: %v", err)
	}
	arrB, _ := b.GetArray("arr")

	if err := arrA.Delete(1, 1); err != nil { // A deletes "b"
		t.Fatalf("delete: %v", err)
	}
	if err := arrB.Insert(1, "x"); err != nil { // B inserts between "a" and "b"
		t.Fatalf("insert: %v", err)
	}

	aUpdate := a.EncodeStateAsUpdate(b.StateVector())
	bUpdate := b.EncodeStateAsUpdate(a.StateVector())
	if err := b.ApplyUpdate(aUpdate, nil); err != nil {
		t.Fatalf("apply a->b: %v", err)
	}
	if err := a.ApplyUpdate(bUpdate, nil); err != nil {
		t.Fatalf("apply b->a: %v", err)
	}

	want := []any{"a", "x", "c"}
	if got := arrA.ToSlice(); !reflect.DeepEqual(got, want) {
		t.Fatalf("a converged to %v, want %v", got, want)
	}
	if got := arrB.ToSlice(); !reflect.DeepEqual(got, want) {
		t.Fatalf("b converged to %v, want %v", got, want)
	}
}

// TestYdoc_MapConflictHighestClientWins reproduces spec §8's S4: three
// replicas concurrently set the same key from the same starting value;
// once merged, every replica resolves to the write from the highest
// client id.
func TestYdoc_MapConflictHighestClientWins(t *testing.T) {
	seed := New(Options{ClientID: 1})
	mSeed, _ := seed.GetMap("m")
	if err := mSeed.Set("k", "base"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	seedUpdate := seed.EncodeStateAsUpdate(nil)

	docs := make([]*Doc, 3)
	clientIDs := []uint32{10, 20, 30}
	for i, id := range clientIDs {
		d := New(Options{ClientID: id})
		if err := d.ApplyUpdate(seedUpdate, nil); err != nil {
			t.Fatalf("seed replica %d: %v", id, err)
		}
		mp, _ := d.GetMap("m")
		if err := mp.Set("k", float64(id)); err != nil {
			t.Fatalf("set on replica %d: %v", id, err)
		}
		docs[i] = d
	}

	merged := New(Options{ClientID: 0})
	if err := merged.ApplyUpdate(seedUpdate, nil); err != nil {
		t.Fatalf("merge seed: %v", err)
	}
	for _, d := range docs {
		if err := merged.ApplyUpdate(d.EncodeStateAsUpdate(nil), nil); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	mMerged, _ := merged.GetMap("m")
	if v, ok := mMerged.Get("k"); !ok || v != float64(30) {
		t.Fatalf("expected the highest client id's write (30) to win, got %v (ok=%v)", v, ok)
	}
}

// TestYdoc_SyncProtocolHandshakeConverges reproduces spec §8's S6: a
// sync-step-1/sync-step-2 handshake brings a behind replica fully
// up to date.
func TestYdoc_SyncProtocolHandshakeConverges(t *testing.T) {
	a := New(Options{ClientID: 1})
	arrA, _ := a.GetArray("arr")
	if err := arrA.Insert(0, "a", "a", "a", "a", "a"); err != nil {
		t.Fatalf("seed a: %v", err)
	}

	b := New(Options{ClientID: 2})
	arrB, _ := b.GetArray("arr")
	if err := arrB.Insert(0, "x", "x", "x"); err != nil {
		t.Fatalf("seed b: %v", err)
	}

	step1 := b.SyncStep1()
	reply, err := a.HandleSyncMessage(step1, nil)
	if err != nil {
		t.Fatalf("a handles step1: %v", err)
	}
	if reply == nil {
		t.Fatalf("expected a sync-step-2 reply")
	}
	if _, err := b.HandleSyncMessage(reply, nil); err != nil {
		t.Fatalf("b handles step2: %v", err)
	}

	svA, svB := a.StateVector(), b.StateVector()
	if svB[1] != svA[1] || svB[2] != 3 {
		t.Fatalf("expected b to hold a's history and keep its own, a=%v b=%v", svA, svB)
	}
}
