package core

// Integrate splices a freshly created, not-yet-integrated item into its
// parent's list using the YATA conflict-resolution rule (spec §4.3).
//
// Callers are expected to have already set item.ID (consuming clocks
// from the document's client), item.Origin/item.RightOrigin (the
// anchors fixed at creation time), item.Parent/item.ParentSub, and
// item.Content. As a local fast-path optimization item.Left may be
// pre-set to a known left neighbour (e.g. the item just inserted before
// it in the same local edit) to skip re-deriving it from Origin.
func (tx *Transaction) Integrate(item *Item) error {
	doc := tx.Doc
	parent := item.Parent

	// Step 1 — seed conflict scan.
	var o *Item
	switch {
	case item.Left != nil:
		o = item.Left.Right
	case item.ParentSub != nil:
		o = parent.Map[*item.ParentSub]
		for o != nil && o.Left != nil {
			o = o.Left
		}
	default:
		o = parent.Head
	}

	left := item.Left
	itemsBeforeOrigin := make(map[ID]struct{})
	conflictingItems := make(map[ID]struct{})

	// Step 2 — YATA conflict resolution.
	for o != nil && !itemIsRight(o, item.Right) {
		itemsBeforeOrigin[o.ID] = struct{}{}
		conflictingItems[o.ID] = struct{}{}

		if compareIDPtr(item.Origin, o.Origin) {
			if o.ID.Client < item.ID.Client {
				left = o
				conflictingItems = make(map[ID]struct{})
			}
			// else: keep scanning, item stays after o for now.
		} else if o.Origin != nil {
			if _, before := itemsBeforeOrigin[*o.Origin]; before {
				if _, conflicting := conflictingItems[*o.Origin]; !conflicting {
					left = o
					conflictingItems = make(map[ID]struct{})
				}
			} else {
				break
			}
		} else {
			break
		}
		o = o.Right
	}
	item.Left = left

	// Step 3 — splice in.
	if item.Left != nil {
		item.Right = item.Left.Right
		item.Left.Right = item
	} else if item.ParentSub != nil {
		r := parent.Map[*item.ParentSub]
		for r != nil && r.Left != nil {
			r = r.Left
		}
		item.Right = r
	} else {
		item.Right = parent.Head
		parent.Head = item
	}

	if item.Right != nil {
		item.Right.Left = item
	} else if item.ParentSub != nil {
		// item is now the rightmost (most recent) value for this key:
		// key-overwrite semantics delete whatever was previously visible.
		old := item.Left
		parent.Map[*item.ParentSub] = item
		if old != nil {
			if err := tx.DeleteItem(old); err != nil {
				return err
			}
		}
	}

	// Step 4 — counters and observers.
	if item.ParentSub == nil && item.Countable && !item.Deleted {
		parent.Length += item.Length
	}
	if parent.Deleted() {
		if err := tx.DeleteItem(item); err != nil {
			return err
		}
	}

	if err := doc.Store.Append(item); err != nil {
		return err
	}
	if tc, ok := item.Content.(*TypeContent); ok {
		tc.Inner.Item = item
		tc.Inner.Doc = doc
	}
	tx.recordChanged(parent, item.ParentSub)
	tx.TouchedClients[item.ID.Client] = struct{}{}
	return nil
}

// itemIsRight reports whether o is the sentinel "stop" item for the
// conflict scan: the scan runs while o != nil && o != item.Right.
func itemIsRight(o *Item, right *Item) bool {
	return right != nil && o == right
}
