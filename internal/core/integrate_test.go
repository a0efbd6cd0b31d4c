package core

import "testing"

func newTestDoc(clientID uint32) *Doc {
	return NewDoc(clientID, "", true, nil)
}

func arrayText(t *TypeInstance) string {
	var out []rune
	for it := t.Head; it != nil; it = it.Right {
		if it.Deleted {
			continue
		}
		if s, ok := it.Content.(*StringContent); ok {
			out = append(out, s.Text...)
		}
	}
	return string(out)
}

// TestIntegrate_SameOriginTiebreak reproduces S1: three peers concurrently
// insert a single character at the head of an empty sequence with no
// causal relationship between them. YATA breaks the tie by ascending
// client id.
func TestIntegrate_SameOriginTiebreak(t *testing.T) {
	docA := newTestDoc(1)
	docB := newTestDoc(2)
	docC := newTestDoc(3)

	rootA, _ := docA.Root("shared", TypeArray)
	rootB, _ := docB.Root("shared", TypeArray)
	rootC, _ := docC.Root("shared", TypeArray)

	insertAt0 := func(doc *Doc, root *TypeInstance, s string) *Item {
		var it *Item
		_ = Transact(doc, nil, true, func(tx *Transaction) error {
			var err error
			it, err = tx.InsertContent(root, nil, nil, nil, NewStringContent(s))
			return err
		})
		return it
	}

	itA := insertAt0(docA, rootA, "a")
	itB := insertAt0(docB, rootB, "b")
	itC := insertAt0(docC, rootC, "c")

	// Cross-integrate B's and C's items into A's store directly (as the
	// codec would after decoding a remote update), reusing the exact ids
	// each replica assigned.
	integrateRemote := func(doc *Doc, root *TypeInstance, remote *Item) {
		_ = Transact(doc, nil, false, func(tx *Transaction) error {
			item := NewItem(remote.ID, remote.Origin, remote.RightOrigin, root, nil, NewStringContent(arrayText1(remote)))
			return tx.Integrate(item)
		})
	}
	_ = itA
	integrateRemote(docA, rootA, itB)
	integrateRemote(docA, rootA, itC)

	if got := arrayText(rootA); got != "abc" {
		t.Fatalf("expected ascending-client-id tiebreak to give \"abc\", got %q", got)
	}
}

func arrayText1(it *Item) string {
	s, _ := it.Content.(*StringContent)
	if s == nil {
		return ""
	}
	return s.String()
}

// TestIntegrate_LocalSequentialInsert checks the common case: inserting
// a run of characters one after another in the same transaction produces
// a simple left-to-right chain with no conflict resolution involved.
func TestIntegrate_LocalSequentialInsert(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("t", TypeArray)

	err := Transact(doc, nil, true, func(tx *Transaction) error {
		left, right, err := CursorAt(doc.Store, root, 0)
		if err != nil {
			return err
		}
		it, err := tx.InsertContent(root, nil, left, right, NewStringContent("H"))
		if err != nil {
			return err
		}
		_, err = tx.InsertContent(root, nil, it, nil, NewStringContent("i"))
		return err
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if got := arrayText(root); got != "Hi" {
		t.Fatalf("expected \"Hi\", got %q", got)
	}
	if root.Length != 2 {
		t.Fatalf("expected length 2, got %d", root.Length)
	}
}

// TestIntegrate_MapKeyOverwriteDeletesOld checks spec invariant 3: a
// second local set() on the same key deletes whatever was previously
// visible there.
func TestIntegrate_MapKeyOverwriteDeletesOld(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("m", TypeMap)

	var first *Item
	err := Transact(doc, nil, true, func(tx *Transaction) error {
		var err error
		first, err = tx.SetMapKey(root, "k", &JSONContent{Values: []any{"0"}})
		return err
	})
	if err != nil {
		t.Fatalf("first set: %v", err)
	}
	err = Transact(doc, nil, true, func(tx *Transaction) error {
		_, err := tx.SetMapKey(root, "k", &JSONContent{Values: []any{"1"}})
		return err
	})
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if !first.Deleted {
		t.Fatalf("expected the first value to be tombstoned after overwrite")
	}
	cur := root.Map["k"]
	if cur == nil || cur.Deleted {
		t.Fatalf("expected a visible current value at key k")
	}
	if v := cur.Content.(*JSONContent).Values[0]; v != "1" {
		t.Fatalf("expected current value \"1\", got %v", v)
	}
}
