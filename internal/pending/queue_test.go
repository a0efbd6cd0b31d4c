package pending

import (
	"testing"

	"github.com/colladoc/ydoc/internal/core"
)

// fakeStruct is a minimal pending.Struct whose dependency and apply
// behavior are scripted directly, so the queue's resolution order can
// be tested independently of the wire codec.
type fakeStruct struct {
	id      core.ID
	depID   *core.ID
	applied *[]string
	name    string
}

func (f *fakeStruct) ID() core.ID { return f.id }

func (f *fakeStruct) MissingDep(doc *core.Doc) *core.ID {
	if f.depID == nil {
		return nil
	}
	if _, err := doc.Store.Find(*f.depID); err == nil {
		return nil
	}
	return f.depID
}

func (f *fakeStruct) Apply(tx *core.Transaction) error {
	*f.applied = append(*f.applied, f.name)
	return tx.Doc.Store.Append(&core.GCNode{ID: f.id, Length: 1})
}

// TestQueue_DrainResolvesInDependencyOrder checks spec §4.9: a struct
// parked on a missing dependency integrates only once that dependency
// arrives, and drain converges regardless of arrival order.
func TestQueue_DrainResolvesInDependencyOrder(t *testing.T) {
	doc := core.NewDoc(1, "", true, nil)
	var applied []string

	// "child" depends on an id that doesn't exist in the store yet, at
	// clock 0 for client 9 — but client 9 has no structs recorded, so
	// child parks on {9,0} until something registers that id.
	dep := core.ID{Client: 9, Clock: 0}
	child := &fakeStruct{id: core.ID{Client: 1, Clock: 0}, depID: &dep, applied: &applied, name: "child"}

	q := New()
	q.Park(dep, child)
	if q.Len() != 1 {
		t.Fatalf("expected 1 parked struct, got %d", q.Len())
	}

	_ = core.Transact(doc, nil, false, func(tx *core.Transaction) error {
		// Nothing satisfies the dependency yet.
		if err := q.Drain(tx); err != nil {
			return err
		}
		if len(applied) != 0 {
			t.Fatalf("expected no progress before the dependency exists, applied=%v", applied)
		}
		// Now the dependency arrives.
		if err := tx.Doc.Store.Append(&core.GCNode{ID: dep, Length: 1}); err != nil {
			return err
		}
		return q.Drain(tx)
	})

	if len(applied) != 1 || applied[0] != "child" {
		t.Fatalf("expected child to apply once its dependency existed, got %v", applied)
	}
	if q.Pending() {
		t.Fatalf("expected the queue to be empty after the dependency resolved")
	}
}

// TestQueue_ChainOfDependenciesResolvesInOnePass checks that a chain of
// three structs, each depending on the one before it, all resolve within a
// single Drain call once the root dependency is met, via repeated
// internal sweeps.
func TestQueue_ChainOfDependenciesResolvesInOnePass(t *testing.T) {
	doc := core.NewDoc(1, "", true, nil)
	var applied []string

	idA := core.ID{Client: 2, Clock: 0}
	idB := core.ID{Client: 2, Clock: 1}
	idC := core.ID{Client: 2, Clock: 2}

	q := New()
	// Park in reverse dependency order to make sure the queue doesn't
	// rely on arrival order.
	structC := &fakeStruct{id: idC, depID: &idB, applied: &applied, name: "c"}
	structB := &fakeStruct{id: idB, depID: &idA, applied: &applied, name: "b"}
	q.Park(idB, structC)
	q.Park(idA, structB)

	_ = core.Transact(doc, nil, false, func(tx *core.Transaction) error {
		if err := tx.Doc.Store.Append(&core.GCNode{ID: idA, Length: 1}); err != nil {
			return err
		}
		return q.Drain(tx)
	})

	if len(applied) != 2 || applied[0] != "b" || applied[1] != "c" {
		t.Fatalf("expected b then c to apply in dependency order, got %v", applied)
	}
}

// TestQueue_ParkDeleteWaitsForClock checks that a remote delete-set run
// parks until the target client's clock has caught up far enough to
// cover it (spec §4.9's pending delete readers).
func TestQueue_ParkDeleteWaitsForClock(t *testing.T) {
	doc := core.NewDoc(1, "", true, nil)
	root, _ := doc.Root("arr", core.TypeArray)

	q := New()
	q.ParkDelete(DeleteRun{Client: 5, Run: core.Run{Clock: 0, Len: 3}})

	var deletedCount int
	_ = core.Transact(doc, nil, false, func(tx *core.Transaction) error {
		if err := q.Drain(tx); err != nil {
			return err
		}
		if !q.Pending() {
			t.Fatalf("expected the delete run to still be parked before client 5 exists")
		}
		for i := 0; i < 3; i++ {
			id := core.ID{Client: 5, Clock: uint32(i)}
			item := core.NewItem(id, nil, nil, root, nil, core.NewStringContent("x"))
			if err := tx.Doc.Store.Append(item); err != nil {
				return err
			}
		}
		if err := q.Drain(tx); err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if doc.DeleteSet.IsDeleted(core.ID{Client: 5, Clock: uint32(i)}) {
				deletedCount++
			}
		}
		return nil
	})
	if q.Pending() {
		t.Fatalf("expected the delete run to have drained once client 5's structs existed")
	}
}
