package core

import "testing"

// TestTransact_NestedIsFlattened verifies spec §4.7's "nesting is
// flattened": a Transact call made from inside another Transact's
// callback runs in the same transaction rather than opening a second
// one, so both edits share one BeforeState/AfterState pair.
func TestTransact_NestedIsFlattened(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("arr", TypeArray)

	var outerTx, innerTx *Transaction
	err := Transact(doc, "outer", true, func(tx *Transaction) error {
		outerTx = tx
		_, err := tx.InsertContent(root, nil, nil, nil, NewStringContent("a"))
		if err != nil {
			return err
		}
		return Transact(doc, "inner-ignored", true, func(inner *Transaction) error {
			innerTx = inner
			_, err := inner.InsertContent(root, nil, root.Head, nil, NewStringContent("b"))
			return err
		})
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if outerTx != innerTx {
		t.Fatalf("expected the nested Transact call to reuse the outer transaction")
	}
	if outerTx.Origin != "outer" {
		t.Fatalf("expected the flattened transaction to keep the outer origin, got %v", outerTx.Origin)
	}
	if root.Length != 2 {
		t.Fatalf("expected both inserts to land, got length %d", root.Length)
	}
}

// TestTransact_ShallowObserverFiresOncePerClose verifies a shallow
// observer on a type instance fires exactly once when a transaction
// that touches it closes, and not at all for an unrelated type.
func TestTransact_ShallowObserverFiresOncePerClose(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("arr", TypeArray)
	other, _ := doc.Root("other", TypeArray)

	var fired int
	unreg := root.Observe(func(e *Event) { fired++ })
	defer unreg()
	var otherFired int
	other.Observe(func(e *Event) { otherFired++ })

	err := Transact(doc, nil, true, func(tx *Transaction) error {
		_, err := tx.InsertContent(root, nil, nil, nil, NewStringContent("x"))
		return err
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected the observer to fire exactly once, fired %d times", fired)
	}
	if otherFired != 0 {
		t.Fatalf("expected the unrelated root's observer not to fire, fired %d times", otherFired)
	}
}

// TestTransact_DeepObserverBubblesThroughNesting checks that a deep
// observer registered on an outer array sees events produced by edits
// to a nested type living inside it (spec §4.7 step 4).
func TestTransact_DeepObserverBubblesThroughNesting(t *testing.T) {
	doc := newTestDoc(1)
	outer, _ := doc.Root("outer", TypeArray)

	inner := NewTypeInstance(TypeMap)
	err := Transact(doc, nil, true, func(tx *Transaction) error {
		_, err := tx.InsertContent(outer, nil, nil, nil, &TypeContent{Inner: inner})
		return err
	})
	if err != nil {
		t.Fatalf("insert nested type: %v", err)
	}

	var events int
	outer.ObserveDeep(func(evts []*Event, tx *Transaction) { events += len(evts) })

	err = Transact(doc, nil, true, func(tx *Transaction) error {
		_, err := tx.SetMapKey(inner, "k", &JSONContent{Values: []any{"v"}})
		return err
	})
	if err != nil {
		t.Fatalf("set nested key: %v", err)
	}
	if events == 0 {
		t.Fatalf("expected the outer array's deep observer to see the nested map's change")
	}
}

// TestTransact_ObserverOpeningNestedTransactionRunsAfter exercises the
// cleanup-queue drain: a transaction opened by an observer while the
// outer transaction's close sequence is running must still be processed,
// strictly after the transaction that triggered it.
func TestTransact_ObserverOpeningNestedTransactionRunsAfter(t *testing.T) {
	doc := newTestDoc(1)
	root, _ := doc.Root("arr", TypeArray)

	var order []string
	root.Observe(func(e *Event) {
		order = append(order, "observed")
		if len(order) == 1 {
			_ = Transact(doc, "from-observer", true, func(tx *Transaction) error {
				order = append(order, "second-tx")
				_, err := tx.InsertContent(root, nil, root.Head, nil, NewStringContent("y"))
				return err
			})
		}
	})

	err := Transact(doc, nil, true, func(tx *Transaction) error {
		order = append(order, "first-tx")
		_, err := tx.InsertContent(root, nil, nil, nil, NewStringContent("x"))
		return err
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if len(order) < 3 || order[0] != "first-tx" {
		t.Fatalf("unexpected dispatch order: %v", order)
	}
	if root.Length != 2 {
		t.Fatalf("expected both inserts to have integrated, got length %d", root.Length)
	}
}
