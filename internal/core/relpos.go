package core

// Assoc selects which side of a RelativePosition's referenced item the
// logical cursor sits on (spec §6 "Relative position ... assoc: left|right").
type Assoc int

const (
	// AssocLeft anchors the position immediately before ItemID: content
	// concurrently inserted at ItemID's former index lands to the left
	// of this reference, which keeps sitting just before ItemID.
	AssocLeft Assoc = iota
	// AssocRight anchors the position immediately after ItemID.
	AssocRight
)

// RelativePosition is a stable {item_id, assoc} reference into a
// sequence-like type (spec §6). Unlike a plain integer offset it
// survives concurrent inserts and deletes elsewhere in the sequence,
// because ids never move once assigned.
//
// ItemID nil means the position sits at one end of Parent: AssocLeft
// with ItemID nil is "before everything" (index 0 even as items are
// prepended), AssocRight with ItemID nil is "after everything".
type RelativePosition struct {
	Parent *TypeInstance
	ItemID *ID
	Assoc  Assoc
}

// NewRelativePosition captures a stable reference to logical index idx
// within parent, anchored to whichever neighbour of idx actually exists
// (spec §6). Like any cursor operation it may split an item at idx's
// boundary via CursorAt.
func NewRelativePosition(parent *TypeInstance, idx int) (*RelativePosition, error) {
	left, right, err := CursorAt(parent.Doc.Store, parent, idx)
	if err != nil {
		return nil, err
	}
	switch {
	case left != nil:
		id := left.LastID()
		return &RelativePosition{Parent: parent, ItemID: &id, Assoc: AssocRight}, nil
	case right != nil:
		id := right.ID
		return &RelativePosition{Parent: parent, ItemID: &id, Assoc: AssocLeft}, nil
	default:
		return &RelativePosition{Parent: parent, Assoc: AssocLeft}, nil
	}
}

// FindAbsolute resolves rel back to a logical offset within its parent
// (spec §6 find_absolute), walking from the referenced id and counting
// visible, countable lengths to the left within the same parent. If the
// referenced item was garbage-collected (spec §4.5), the reference can
// no longer be resolved and ErrUnexpectedCase is returned rather than a
// stale offset (supplementing the literal spec for this real-world edge
// case, see SPEC_FULL.md).
func FindAbsolute(rel *RelativePosition) (*TypeInstance, int, error) {
	if rel.ItemID == nil {
		if rel.Assoc == AssocLeft {
			return rel.Parent, 0, nil
		}
		return rel.Parent, rel.Parent.Length, nil
	}

	st, err := rel.Parent.Doc.Store.Find(*rel.ItemID)
	if err != nil {
		return nil, 0, err
	}
	item, ok := st.(*Item)
	if !ok {
		return nil, 0, invariant("find_absolute: referenced position was garbage collected")
	}

	offset := 0
	for cur := item.Parent.Head; cur != nil; cur = cur.Right {
		if cur == item {
			if rel.Assoc == AssocRight && cur.Countable && !cur.Deleted {
				offset += cur.Length
			}
			break
		}
		if cur.Countable && !cur.Deleted {
			offset += cur.Length
		}
	}
	return item.Parent, offset, nil
}
