// Package undo implements the undo/redo manager (spec §4.11): capture
// of local transactions into coalesced stack items, and the undo/redo
// operations themselves, including the forward "redone" pointer chain.
package undo

import (
	"time"

	"github.com/colladoc/ydoc/internal/core"
)

// StackItem summarizes one (possibly coalesced) captured transaction:
// the range of local clocks it produced and the delete set it left
// behind, both needed to reverse it.
type StackItem struct {
	DeleteSet  *core.DeleteSet
	StartClock uint32
	Len        uint32
	Meta       map[string]any
}

// Manager tracks a set of root types and undoes/redoes only
// transactions whose origin is in its tracked-origins set (spec §4.11).
type Manager struct {
	doc            *core.Doc
	trackedRoots   map[*core.TypeInstance]struct{}
	trackedOrigins map[any]struct{}
	captureTimeout time.Duration

	undoStack []*StackItem
	redoStack []*StackItem
	undoing   bool
	redoing   bool

	lastCapture time.Time
	unobserve   func()

	// StackItemAdded/StackItemPopped are fired after a push/pop
	// respectively, carrying the item and which stack it concerns, so
	// callers can attach metadata such as a selection range.
	StackItemAdded  func(item *StackItem, stack string)
	StackItemPopped func(item *StackItem, stack string)
}

// NewManager builds a manager scoped to roots, tracking transactions
// whose origin is itself by default (spec §4.11's "origin ... in the
// set of tracked origins"); call TrackOrigin to widen that set.
func NewManager(doc *core.Doc, captureTimeout time.Duration, roots ...*core.TypeInstance) *Manager {
	m := &Manager{
		doc:            doc,
		trackedRoots:   make(map[*core.TypeInstance]struct{}, len(roots)),
		trackedOrigins: make(map[any]struct{}),
		captureTimeout: captureTimeout,
	}
	for _, r := range roots {
		m.trackedRoots[r] = struct{}{}
	}
	m.trackedOrigins[m] = struct{}{}
	return m
}

// TrackOrigin adds origin to the set of origins this manager captures.
func (m *Manager) TrackOrigin(origin any) { m.trackedOrigins[origin] = struct{}{} }

// Observe registers the manager's capture hook on doc's deep-observer
// dispatch for every tracked root; call Close to unregister.
func (m *Manager) Observe() {
	var unregs []func()
	for root := range m.trackedRoots {
		unreg := root.ObserveDeep(func(events []*core.Event, tx *core.Transaction) {
			m.maybeCapture(tx)
		})
		unregs = append(unregs, unreg)
	}
	m.unobserve = func() {
		for _, u := range unregs {
			u()
		}
	}
}

// Close unregisters the manager's observers.
func (m *Manager) Close() {
	if m.unobserve != nil {
		m.unobserve()
	}
}

func (m *Manager) touchesTrackedRoot(tx *core.Transaction) bool {
	for root := range m.trackedRoots {
		if _, ok := tx.ChangedParents[root]; ok {
			return true
		}
	}
	return false
}

func (m *Manager) originTracked(tx *core.Transaction) bool {
	_, ok := m.trackedOrigins[tx.Origin]
	return ok
}

// maybeCapture runs at the close of every transaction touching a
// tracked root; transactions whose origin the manager doesn't track are
// ignored (so remote changes and unrelated local edits never enter the
// undo stack, spec §4.11 and scenario S5). While the manager is itself
// running an Undo or Redo, the reverse of that operation is captured
// onto the opposite stack instead of wiping it, which is how a plain
// undo/redo pair becomes available to redo/undo again.
func (m *Manager) maybeCapture(tx *core.Transaction) {
	if !m.touchesTrackedRoot(tx) || !m.originTracked(tx) {
		return
	}
	start := tx.BeforeState[m.doc.ClientID]
	end := tx.AfterState[m.doc.ClientID]
	if end <= start {
		return
	}
	item := &StackItem{
		DeleteSet:  tx.DeleteSet.Clone(),
		StartClock: start,
		Len:        end - start,
	}

	// The GC pass (spec §4.5) runs later in this same transaction's close
	// sequence (step 5, after the deep-observer dispatch that invokes this
	// capture at step 4); anything this stack item's delete set references
	// must survive that pass uncollected or undo would have nothing left
	// to resurrect (spec §4.11 step 1).
	m.markKeep(tx)

	switch {
	case m.undoing:
		m.redoStack = append(m.redoStack, item)
		if m.StackItemAdded != nil {
			m.StackItemAdded(item, "redo")
		}
		return
	case m.redoing:
		m.undoStack = append(m.undoStack, item)
		if m.StackItemAdded != nil {
			m.StackItemAdded(item, "undo")
		}
		return
	}

	now := time.Now()
	if len(m.undoStack) > 0 && m.captureTimeout > 0 && now.Sub(m.lastCapture) < m.captureTimeout {
		top := m.undoStack[len(m.undoStack)-1]
		if top.StartClock+top.Len == start {
			top.DeleteSet.Merge(item.DeleteSet)
			top.Len += item.Len
			m.lastCapture = now
			m.redoStack = nil
			return
		}
	}
	m.undoStack = append(m.undoStack, item)
	m.redoStack = nil
	m.lastCapture = now
	if m.StackItemAdded != nil {
		m.StackItemAdded(item, "undo")
	}
}

// StackSize reports the number of items on the undo stack.
func (m *Manager) StackSize() int { return len(m.undoStack) }

// RedoStackSize reports the number of items on the redo stack.
func (m *Manager) RedoStackSize() int { return len(m.redoStack) }

// Undo pops the undo stack and reverses it (spec §4.11).
func (m *Manager) Undo() error {
	return m.apply(&m.undoStack, &m.undoing, "undo")
}

// Redo pops the redo stack and re-applies it (spec §4.11).
func (m *Manager) Redo() error {
	return m.apply(&m.redoStack, &m.redoing, "redo")
}

func (m *Manager) apply(from *[]*StackItem, flag *bool, stackName string) error {
	if len(*from) == 0 {
		return nil
	}
	item := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	if m.StackItemPopped != nil {
		m.StackItemPopped(item, stackName)
	}

	*flag = true
	defer func() { *flag = false }()

	return core.Transact(m.doc, m, true, func(tx *core.Transaction) error {
		redoItems, err := m.collectRedoItems(item)
		if err != nil {
			return err
		}
		if err := m.deleteOwnRange(tx, item); err != nil {
			return err
		}
		for _, orig := range redoItems {
			if _, err := m.redoItem(tx, orig); err != nil {
				return err
			}
		}
		return nil
	})
}

// collectRedoItems gathers, for every deleted item under a tracked root
// within the popped delete set, the item that should be resurrected,
// splitting at the popped range's boundaries so partially-covered
// merged items don't redo more than was actually deleted (spec §4.11
// step 1).
func (m *Manager) collectRedoItems(item *StackItem) ([]*core.Item, error) {
	var out []*core.Item
	item.DeleteSet.ForEachRun(func(client uint32, run core.Run) {
		_ = m.doc.Store.Iterate(client, run.Clock, run.Len, func(st core.Struct) error {
			it, ok := st.(*core.Item)
			if !ok || !m.underTrackedRoot(it) {
				return nil
			}
			out = append(out, it)
			return nil
		})
	})
	return out, nil
}

func (m *Manager) underTrackedRoot(it *core.Item) bool {
	for p := it.Parent; p != nil; {
		if _, ok := m.trackedRoots[p]; ok {
			return true
		}
		if p.Item == nil {
			return false
		}
		p = p.Item.Parent
	}
	return false
}

// markKeep sets Keep on every deleted item in tx.DeleteSet that sits
// under a tracked root, so the GC pass later in this same transaction's
// close sequence (spec §4.5) leaves them as resurrectable *Item structs
// instead of collapsing them to content-less GC nodes. Without this, a
// captured stack item's delete set would reference structs Undo can no
// longer recover content from (spec §4.11 step 1, invariant 9).
func (m *Manager) markKeep(tx *core.Transaction) {
	tx.DeleteSet.ForEachRun(func(client uint32, run core.Run) {
		_ = m.doc.Store.Iterate(client, run.Clock, run.Len, func(st core.Struct) error {
			it, ok := st.(*core.Item)
			if !ok || !m.underTrackedRoot(it) {
				return nil
			}
			it.Keep = true
			return nil
		})
	})
}

// deleteOwnRange marks keep and deletes every local item the captured
// transaction produced, following the redone chain to the current
// representative if the original was itself redone since (spec §4.11
// step 2).
func (m *Manager) deleteOwnRange(tx *core.Transaction, item *StackItem) error {
	return m.doc.Store.Iterate(m.doc.ClientID, item.StartClock, item.Len, func(st core.Struct) error {
		it, ok := st.(*core.Item)
		if !ok {
			return nil
		}
		it.Keep = true
		target := it
		for target.Redone != nil {
			next, err := m.doc.Store.FindItem(*target.Redone)
			if err != nil {
				break
			}
			target = next
		}
		if target.Deleted {
			return nil
		}
		return tx.DeleteItem(target)
	})
}

// redoItem resurrects orig: if it was already redone, returns the
// current replica; otherwise clones its content at the equivalent
// position in orig's parent's list (a redone parent is not followed)
// and records the new id as orig's Redone pointer (spec §4.11 step 3).
// A map value is redone as the key's newest value, unless a live entry
// from another change now follows it, in which case it returns nil.
func (m *Manager) redoItem(tx *core.Transaction, orig *core.Item) (*core.Item, error) {
	if orig.Redone != nil {
		return m.doc.Store.FindItem(*orig.Redone)
	}
	if !orig.Deleted {
		return orig, nil
	}

	left := m.followRedone(orig.Left)
	right := m.followRedone(orig.Right)
	if orig.ParentSub != nil {
		// Walk right past entries that were since redone or deleted; a
		// live entry left over means orig was overwritten elsewhere.
		left, right = orig, nil
		for left.Right != nil && (left.Right.Redone != nil || left.Right.Deleted) {
			left = m.followRedone(left.Right)
		}
		if left.Right != nil {
			return nil, nil
		}
	}

	content := cloneContent(orig.Content)
	parent := orig.Parent
	replica, err := tx.InsertContent(parent, orig.ParentSub, left, right, content)
	if err != nil {
		return nil, err
	}
	id := replica.ID
	orig.Redone = &id
	return replica, nil
}

// followRedone walks left/right through Redone links until it reaches
// an item that hasn't itself been redone, per the spec's "walk left/
// right back through redone links" anchor rule.
func (m *Manager) followRedone(it *core.Item) *core.Item {
	for it != nil && it.Redone != nil {
		next, err := m.doc.Store.FindItem(*it.Redone)
		if err != nil {
			break
		}
		it = next
	}
	return it
}

func cloneContent(c core.Content) core.Content {
	switch v := c.(type) {
	case *core.StringContent:
		cp := append([]rune(nil), v.Text...)
		return &core.StringContent{Text: cp}
	case *core.JSONContent:
		cp := append([]any(nil), v.Values...)
		return &core.JSONContent{Values: cp}
	case *core.BinaryContent:
		cp := append([]byte(nil), v.Data...)
		return &core.BinaryContent{Data: cp}
	case *core.EmbedContent:
		return &core.EmbedContent{Value: v.Value}
	case *core.FormatContent:
		return &core.FormatContent{Key: v.Key, Value: v.Value}
	default:
		return c
	}
}
