package core

// Item is a node in the per-parent doubly-linked list (spec §3). Once
// integrated, everything except Left/Right/Deleted/Keep/Redone/Length
// is immutable; integration (see integrate.go) is the only code path
// allowed to set Origin/RightOrigin at creation time.
type Item struct {
	ID     ID
	Length int

	Origin      *ID // last position of the left neighbour at creation time
	RightOrigin *ID // id of the right neighbour at creation time

	Left  *Item
	Right *Item

	Parent    *TypeInstance
	ParentSub *string // non-nil key, for map-like parents

	Content Content

	Deleted   bool
	Keep      bool // set by the undo manager on items it may need to resurrect
	Countable bool // cached Content.Countable(), fixed at creation
	Redone    *ID  // forward pointer to the item that replaced this one via redo
}

// NewItem constructs an unintegrated item. Call Integrate (via
// Transaction.Integrate) to splice it into its parent's list.
func NewItem(id ID, origin, rightOrigin *ID, parent *TypeInstance, parentSub *string, content Content) *Item {
	return &Item{
		ID:          id,
		Length:      content.Len(),
		Origin:      origin,
		RightOrigin: rightOrigin,
		Parent:      parent,
		ParentSub:   parentSub,
		Content:     content,
		Countable:   content.Countable(),
	}
}

// LastID returns the id of the last logical position this item covers,
// i.e. the id that a subsequent item anchoring "origin" on this item's
// tail would reference.
func (it *Item) LastID() ID {
	return ID{Client: it.ID.Client, Clock: it.ID.Clock + uint32(it.Length) - 1}
}

// NextClock returns the clock immediately following this item's range.
func (it *Item) NextClock() uint32 {
	return it.ID.Clock + uint32(it.Length)
}

// countsTowardLength reports whether, right now, this item contributes to its
// parent's visible length (countable content and not deleted).
func (it *Item) countsTowardLength() bool {
	return it.Countable && !it.Deleted
}

// markDeleted flips the tombstone bit and pulls the item's length out
// of its parent's counter if it was contributing. Does not touch the
// DeleteSet or fire any hooks; callers (Transaction.DeleteItem) own that.
func (it *Item) markDeleted() {
	if it.Deleted {
		return
	}
	wasCounted := it.countsTowardLength()
	it.Deleted = true
	if wasCounted && it.ParentSub == nil && it.Parent != nil {
		it.Parent.Length -= it.Length
	}
}

// splitAt divides it at the given offset (0 < offset < it.Length),
// producing a new right-hand Item twin wired into the linked list.
// Callers (StructStore.GetItemCleanStart/End) are responsible for
// placing the result into the store; splitAt itself points the parent's
// key map at the twin when the twin becomes the key's rightmost item.
func (it *Item) splitAt(offset int) *Item {
	rightContent := it.Content.Splice(offset)
	right := &Item{
		ID:          ID{Client: it.ID.Client, Clock: it.ID.Clock + uint32(offset)},
		Length:      it.Length - offset,
		Origin:      NewIDPtr(ID{Client: it.ID.Client, Clock: it.ID.Clock + uint32(offset) - 1}),
		RightOrigin: it.RightOrigin,
		Left:        it,
		Right:       it.Right,
		Parent:      it.Parent,
		ParentSub:   it.ParentSub,
		Content:     rightContent,
		Deleted:     it.Deleted,
		Keep:        it.Keep,
		Countable:   it.Countable,
	}
	if it.Redone != nil {
		shifted := ID{Client: it.Redone.Client, Clock: it.Redone.Clock + uint32(offset)}
		right.Redone = &shifted
	}

	if right.Right != nil {
		right.Right.Left = right
	}
	it.Right = right
	it.Length = offset

	if it.ParentSub != nil && right.Right == nil && it.Parent != nil {
		it.Parent.Map[*it.ParentSub] = right
	}
	return right
}
