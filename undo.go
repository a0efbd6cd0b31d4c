package ydoc

import (
	"time"

	"github.com/colladoc/ydoc/internal/core"
	"github.com/colladoc/ydoc/internal/undo"
)

// UndoManager coalesces local transactions touching a set of tracked
// roots into an undo/redo stack (spec.md §4.11).
type UndoManager struct {
	inner *undo.Manager
}

// NewUndoManager builds a manager scoped to roots, coalescing local
// transactions that land within captureTimeout of each other into a
// single undo step (0 disables coalescing). Only transactions whose
// origin is tracked are captured: by default just the manager's own, so
// edits made through the shared-type facades (origin nil) are captured
// only after TrackOrigin(nil). It starts observing immediately; call
// Close when the document is done with it.
func NewUndoManager(doc *Doc, captureTimeout time.Duration, roots ...hasTypeInstance) *UndoManager {
	instances := make([]*core.TypeInstance, 0, len(roots))
	for _, r := range roots {
		instances = append(instances, r.TypeInstance())
	}
	inner := undo.NewManager(doc.core, captureTimeout, instances...)
	inner.Observe()
	return &UndoManager{inner: inner}
}

// StackSize reports the number of items on the undo stack.
func (m *UndoManager) StackSize() int { return m.inner.StackSize() }

// RedoStackSize reports the number of items on the redo stack.
func (m *UndoManager) RedoStackSize() int { return m.inner.RedoStackSize() }

// Undo reverses the most recently captured local transaction.
func (m *UndoManager) Undo() error { return m.inner.Undo() }

// Redo re-applies the most recently undone transaction.
func (m *UndoManager) Redo() error { return m.inner.Redo() }

// TrackOrigin widens the set of transaction origins this manager
// captures beyond itself.
func (m *UndoManager) TrackOrigin(origin any) { m.inner.TrackOrigin(origin) }

// Close unregisters the manager's observers.
func (m *UndoManager) Close() { m.inner.Close() }
