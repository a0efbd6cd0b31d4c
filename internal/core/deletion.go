package core

// DeleteItem marks it deleted, records the range in the transaction's
// delete set, fixes up parent bookkeeping, and recurses into nested
// types (spec §4.4). It is idempotent: deleting an already-deleted item
// is a no-op.
func (tx *Transaction) DeleteItem(it *Item) error {
	if it.Deleted {
		return nil
	}
	it.markDeleted()
	tx.DeleteSet.Add(it.ID.Client, it.ID.Clock, it.Length)
	tx.recordChanged(it.Parent, it.ParentSub)
	tx.TouchedClients[it.ID.Client] = struct{}{}

	if it.ParentSub != nil {
		tx.recordKeyChange(it.Parent, *it.ParentSub, ChangeDelete, it.Content)
	}

	switch c := it.Content.(type) {
	case *TypeContent:
		// Deleting an item whose content is a nested type recursively
		// deletes every item currently live in that type (spec §4.4:
		// "only Deleted content propagates recursively into nested
		// types" — a nested Type's removal cascades the same way a
		// Deleted tombstone's range does).
		for child := c.Inner.Head; child != nil; child = child.Right {
			if !child.Deleted {
				if err := tx.DeleteItem(child); err != nil {
					return err
				}
			}
		}
		for _, head := range c.Inner.Map {
			for n := head; n != nil; n = n.Left {
				if !n.Deleted {
					if err := tx.DeleteItem(n); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// DeleteRange deletes length visible-or-not logical positions starting
// at clock from for client, splitting at the boundary as needed.
// Used by remote delete-set application (§4.4) and by sequence-type
// facades implementing index-based deletion.
func (tx *Transaction) DeleteRange(store *StructStore, client uint32, from uint32, length uint32) error {
	return store.Iterate(client, from, length, func(st Struct) error {
		it, ok := st.(*Item)
		if !ok {
			return nil // already a GC node; nothing to delete
		}
		return tx.DeleteItem(it)
	})
}
