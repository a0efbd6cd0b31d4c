package core

// runGC replaces deleted items with GC nodes where possible, after
// observer dispatch (spec §4.5). Items with Keep set (the undo manager
// marks items it may need to resurrect) are left alone.
func runGC(doc *Doc, tx *Transaction) {
	tx.DeleteSet.ForEachRun(func(client uint32, run Run) {
		gcRun(doc.Store, client, run)
	})
}

func gcRun(store *StructStore, client uint32, run Run) {
	_ = store.Iterate(client, run.Clock, run.Len, func(st Struct) error {
		it, ok := st.(*Item)
		if !ok {
			return nil // already GC'd
		}
		if !it.Deleted || it.Keep {
			return nil
		}
		gc := &GCNode{ID: it.ID, Length: it.Length}
		return store.Replace(it, gc)
	})
}
