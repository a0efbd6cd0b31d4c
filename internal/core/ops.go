package core

// InsertContent allocates a new item for content on the local client,
// anchored between left and right (either may be nil), integrates it
// into parent (under parentSub for map-like parents), and returns the
// integrated item. This is the single entry point every local mutating
// operation (array insert, map set, text insert/format, xml node
// insert) funnels through.
func (tx *Transaction) InsertContent(parent *TypeInstance, parentSub *string, left, right *Item, content Content) (*Item, error) {
	doc := tx.Doc
	clock := doc.Store.NextClock(doc.ClientID)
	id := ID{Client: doc.ClientID, Clock: clock}

	var origin, rightOrigin *ID
	if left != nil {
		lid := left.LastID()
		origin = &lid
	}
	if right != nil {
		rid := right.ID
		rightOrigin = &rid
	}

	item := NewItem(id, origin, rightOrigin, parent, parentSub, content)
	item.Left = left // local fast-path hint for Integrate's step 1
	item.Right = right

	if err := tx.Integrate(item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetMapKey performs map.set(key, content) local-op semantics: the new
// item's origin is the current value (if any) for overwrite ordering,
// and it is integrated with no right neighbour so it naturally becomes
// the new rightmost/current value (spec §4.3 step 3's key-overwrite
// branch, invariant 3).
func (tx *Transaction) SetMapKey(parent *TypeInstance, key string, content Content) (*Item, error) {
	current := parent.Map[key]
	oldValue := any(nil)
	action := ChangeAdd
	if current != nil && !current.Deleted {
		oldValue = current.Content
		action = ChangeUpdate
	}
	sub := key
	it, err := tx.InsertContent(parent, &sub, current, nil, content)
	if err != nil {
		return nil, err
	}
	tx.recordKeyChange(parent, key, action, oldValue)
	return it, nil
}

// DeleteMapKey deletes the current visible value at key, if any.
func (tx *Transaction) DeleteMapKey(parent *TypeInstance, key string) error {
	current := parent.Map[key]
	if current == nil || current.Deleted {
		return nil
	}
	return tx.DeleteItem(current)
}

// ItemAt walks parent's list counting countable, non-deleted positions
// to locate the item covering logical index idx, returning that item
// and the offset within it. Used by sequence-type facades to translate
// a public index into (left, right) cursor items for InsertContent or
// into an item+offset for deletion/formatting.
func ItemAt(parent *TypeInstance, idx int) (it *Item, offset int, err error) {
	remaining := idx
	for cur := parent.Head; cur != nil; cur = cur.Right {
		if cur.Deleted || !cur.Countable {
			continue
		}
		if remaining < cur.Length {
			return cur, remaining, nil
		}
		remaining -= cur.Length
	}
	if remaining == 0 {
		return nil, 0, nil // insert at the very end
	}
	return nil, 0, invariant("item_at: index out of range")
}

// SplitAt splits it at offset using the struct store so that the
// returned item begins exactly at it.ID.Clock+offset, fixing up the
// linked list and the owning store array. offset 0 returns it itself.
func SplitAt(store *StructStore, it *Item, offset int) (*Item, error) {
	if offset == 0 {
		return it, nil
	}
	id := ID{Client: it.ID.Client, Clock: it.ID.Clock + uint32(offset)}
	return store.GetItemCleanStart(id)
}

// CursorAt walks parent's visible (countable, non-deleted) positions
// and returns the (left, right) neighbour items bounding logical index
// idx, splitting an item if idx falls in its interior. Both may be nil
// (inserting at the very start or very end of the sequence).
func CursorAt(store *StructStore, parent *TypeInstance, idx int) (left, right *Item, err error) {
	remaining := idx
	var prev *Item
	for cur := parent.Head; cur != nil; cur = cur.Right {
		if cur.Countable && !cur.Deleted {
			if remaining < cur.Length {
				if remaining > 0 {
					split, err := SplitAt(store, cur, remaining)
					if err != nil {
						return nil, nil, err
					}
					return cur, split, nil
				}
				return prev, cur, nil
			}
			remaining -= cur.Length
		}
		prev = cur
	}
	if remaining == 0 {
		return prev, nil, nil
	}
	return nil, nil, invariant("cursor_at: index out of range")
}

// DeleteVisibleRange deletes length visible (countable, non-deleted)
// positions starting at logical index idx, splitting boundary items as
// needed. Non-countable items such as Format markers are skipped and
// left undeleted. richtext.DeleteText delegates to this function.
func DeleteVisibleRange(tx *Transaction, parent *TypeInstance, idx int, length int) error {
	remaining := idx
	toDelete := length
	cur := parent.Head
	for cur != nil && toDelete > 0 {
		if !cur.Countable || cur.Deleted {
			cur = cur.Right
			continue
		}
		if remaining > 0 {
			if remaining < cur.Length {
				split, err := SplitAt(tx.Doc.Store, cur, remaining)
				if err != nil {
					return err
				}
				remaining = 0
				cur = split
				continue
			}
			remaining -= cur.Length
			cur = cur.Right
			continue
		}
		if cur.Length > toDelete {
			if _, err := SplitAt(tx.Doc.Store, cur, toDelete); err != nil {
				return err
			}
		}
		toDelete -= cur.Length
		next := cur.Right
		if err := tx.DeleteItem(cur); err != nil {
			return err
		}
		cur = next
	}
	if toDelete > 0 {
		return invariant("delete_visible_range: length exceeds sequence bounds")
	}
	return nil
}
