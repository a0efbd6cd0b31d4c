package undo

import (
	"testing"
	"time"

	"github.com/colladoc/ydoc/internal/codec"
	"github.com/colladoc/ydoc/internal/core"
)

func mapValue(m *core.TypeInstance, key string) (any, bool) {
	it, ok := m.Map[key]
	if !ok || it.Deleted {
		return nil, false
	}
	c, ok := it.Content.(*core.JSONContent)
	if !ok || len(c.Values) == 0 {
		return nil, false
	}
	return c.Values[0], true
}

func setKey(t *testing.T, doc *core.Doc, m *core.TypeInstance, origin any, key string, value any) {
	t.Helper()
	err := core.Transact(doc, origin, true, func(tx *core.Transaction) error {
		_, err := tx.SetMapKey(m, key, &core.JSONContent{Values: []any{value}})
		return err
	})
	if err != nil {
		t.Fatalf("set %s=%v: %v", key, value, err)
	}
}

// TestUndoManager_BasicUndoRedo checks spec invariant 9: undo then redo
// on a freshly captured transaction restores the after-state exactly.
func TestUndoManager_BasicUndoRedo(t *testing.T) {
	doc := core.NewDoc(1, "", true, nil)
	m, _ := doc.Root("map", core.TypeMap)

	setKey(t, doc, m, nil, "a", float64(0))

	mgr := NewManager(doc, 0, m)
	mgr.Observe()
	defer mgr.Close()

	setKey(t, doc, m, mgr, "a", float64(1))
	if v, _ := mapValue(m, "a"); v != float64(1) {
		t.Fatalf("expected a=1 before undo, got %v", v)
	}

	if err := mgr.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if v, _ := mapValue(m, "a"); v != float64(0) {
		t.Fatalf("expected a=0 after undo, got %v", v)
	}

	if err := mgr.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if v, _ := mapValue(m, "a"); v != float64(1) {
		t.Fatalf("expected a=1 after redo, got %v", v)
	}
}

// TestUndoManager_SkipsOverwrittenRemoteChange reproduces spec §8's S5:
// after a remote peer overwrites the tracked key, undoing the local
// transaction must not resurrect the stale local value — the remote
// write wins.
func TestUndoManager_SkipsOverwrittenRemoteChange(t *testing.T) {
	a := core.NewDoc(1, "", true, nil)
	mapA, _ := a.Root("map", core.TypeMap)
	setKey(t, a, mapA, nil, "a", float64(0))

	mgr := NewManager(a, time.Hour, mapA)
	mgr.Observe()
	defer mgr.Close()

	setKey(t, a, mapA, mgr, "a", float64(1))
	if err := mgr.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if v, _ := mapValue(mapA, "a"); v != float64(0) {
		t.Fatalf("expected a=0 after undo, got %v", v)
	}
	if err := mgr.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if v, _ := mapValue(mapA, "a"); v != float64(1) {
		t.Fatalf("expected a=1 after redo, got %v", v)
	}

	// Sync to B, which overwrites "a" remotely, then sync back to A.
	b := core.NewDoc(2, "", true, nil)
	update := codec.EncodeStateAsUpdate(a, nil)
	if err := codec.ApplyUpdate(b, update, nil); err != nil {
		t.Fatalf("apply update to b: %v", err)
	}
	mapB, _ := b.Root("map", core.TypeMap)
	setKey(t, b, mapB, nil, "a", float64(44))

	back := codec.EncodeStateAsUpdate(b, a.Store.StateVector())
	if err := codec.ApplyUpdate(a, back, nil); err != nil {
		t.Fatalf("apply b's update to a: %v", err)
	}
	if v, _ := mapValue(mapA, "a"); v != float64(44) {
		t.Fatalf("expected a=44 after remote overwrite, got %v", v)
	}

	if err := mgr.Undo(); err != nil {
		t.Fatalf("undo after remote overwrite: %v", err)
	}
	if v, _ := mapValue(mapA, "a"); v != float64(44) {
		t.Fatalf("expected undo to be skipped once the local write was overwritten remotely, got %v", v)
	}
}

// TestUndoManager_CoalescesWithinTimeout checks that two local
// transactions landing within the capture timeout collapse into one
// undo step.
func TestUndoManager_CoalescesWithinTimeout(t *testing.T) {
	doc := core.NewDoc(1, "", true, nil)
	m, _ := doc.Root("map", core.TypeMap)

	mgr := NewManager(doc, time.Hour, m)
	mgr.Observe()
	defer mgr.Close()

	setKey(t, doc, m, mgr, "a", float64(1))
	setKey(t, doc, m, mgr, "b", float64(2))

	if mgr.StackSize() != 1 {
		t.Fatalf("expected the two quick edits to coalesce into one undo step, got stack size %d", mgr.StackSize())
	}
}

// TestUndoManager_IgnoresUntrackedOrigin checks that edits whose origin
// isn't in the manager's tracked set never enter the undo stack.
func TestUndoManager_IgnoresUntrackedOrigin(t *testing.T) {
	doc := core.NewDoc(1, "", true, nil)
	m, _ := doc.Root("map", core.TypeMap)

	mgr := NewManager(doc, 0, m)
	mgr.Observe()
	defer mgr.Close()

	setKey(t, doc, m, "someone-else", "a", float64(1))
	if mgr.StackSize() != 0 {
		t.Fatalf("expected an untracked origin not to be captured, got stack size %d", mgr.StackSize())
	}
}
