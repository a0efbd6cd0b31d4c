package core

import "testing"

// TestStructStore_Contiguity checks spec invariant 7: successive structs
// for a client start exactly where the previous one ended.
func TestStructStore_Contiguity(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("t", TypeArray)

	_ = Transact(doc, nil, true, func(tx *Transaction) error {
		it1, e := tx.InsertContent(root, nil, nil, nil, NewStringContent("abc"))
		if e != nil {
			return e
		}
		_, e = tx.InsertContent(root, nil, it1, nil, NewStringContent("def"))
		return e
	})

	arr := doc.Store.Array(1)
	for i := 1; i < len(arr); i++ {
		prev, cur := arr[i-1], arr[i]
		if cur.structID().Clock != prev.structID().Clock+uint32(prev.structLength()) {
			t.Fatalf("contiguity broken at index %d: prev ends at %d, cur starts at %d",
				i, prev.structID().Clock+uint32(prev.structLength()), cur.structID().Clock)
		}
	}
}

// TestStructStore_CleanStartSplitsInPlace checks that GetItemCleanStart
// splits a covering item and leaves the store contiguous and
// binary-searchable afterwards.
func TestStructStore_CleanStartSplitsInPlace(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("t", TypeArray)

	_ = Transact(doc, nil, true, func(tx *Transaction) error {
		_, e := tx.InsertContent(root, nil, nil, nil, NewStringContent("abcdef"))
		return e
	})

	right, err := doc.Store.GetItemCleanStart(ID{Client: 1, Clock: 3})
	if err != nil {
		t.Fatalf("clean start: %v", err)
	}
	if s, _ := right.Content.(*StringContent); s == nil || s.String() != "def" {
		t.Fatalf("expected the split right half to read \"def\", got %+v", right.Content)
	}
	if right.ID.Clock != 3 {
		t.Fatalf("expected the split item to start at clock 3, got %d", right.ID.Clock)
	}

	arr := doc.Store.Array(1)
	if len(arr) != 2 {
		t.Fatalf("expected the store to now hold 2 structs, got %d", len(arr))
	}
	if arr[0].structLength() != 3 || arr[1].structLength() != 3 {
		t.Fatalf("expected a 3/3 split, got lengths %d/%d", arr[0].structLength(), arr[1].structLength())
	}
}

// TestStructStore_FindIndexOutOfRange checks that a clock outside any
// recorded client range is rejected rather than silently clamped.
func TestStructStore_FindIndexOutOfRange(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("t", TypeArray)
	_ = Transact(doc, nil, true, func(tx *Transaction) error {
		_, e := tx.InsertContent(root, nil, nil, nil, NewStringContent("ab"))
		return e
	})
	if _, err := doc.Store.FindIndex(1, 5); err == nil {
		t.Fatalf("expected an out-of-range clock to error")
	}
}

// TestStructStore_StateVector reports the next-clock frontier per
// client, the input to a differential sync (spec §3, §4.9).
func TestStructStore_StateVector(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("t", TypeArray)
	_ = Transact(doc, nil, true, func(tx *Transaction) error {
		_, e := tx.InsertContent(root, nil, nil, nil, NewStringContent("hello"))
		return e
	})
	sv := doc.Store.StateVector()
	if sv[1] != 5 {
		t.Fatalf("expected state vector {1:5}, got %v", sv)
	}
	if _, ok := sv[2]; ok {
		t.Fatalf("expected no entry for an untouched client, got %v", sv)
	}
}
