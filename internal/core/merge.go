package core

// runMergePass folds each right-hand struct into its left neighbour
// wherever sound, right-to-left within every client touched by tx
// (spec §4.6).
func runMergePass(doc *Doc, tx *Transaction) {
	clients := make(map[uint32]struct{}, len(tx.TouchedClients))
	for c := range tx.TouchedClients {
		clients[c] = struct{}{}
	}
	for c := range tx.DeleteSet.Clients {
		clients[c] = struct{}{}
	}
	for _, id := range tx.MergeCandidates {
		clients[id.Client] = struct{}{}
	}

	for client := range clients {
		mergeClientArray(doc.Store, client)
	}
}

func mergeClientArray(store *StructStore, client uint32) {
	arr := store.clients[client]
	for i := len(arr) - 1; i > 0; i-- {
		right := arr[i]
		left := arr[i-1]
		if tryMergeStructs(left, right) {
			store.RemoveAt(client, i)
		}
	}
}

// tryMergeStructs folds right into left in place, returning true on
// success. Both must be *Item (GC nodes merge via mergeGCNodes below,
// kept separate since they don't carry try_merge_with semantics).
func tryMergeStructs(left, right Struct) bool {
	l, lok := left.(*Item)
	r, rok := right.(*Item)
	if !lok || !rok {
		if lg, ok := left.(*GCNode); ok {
			if rg, ok := right.(*GCNode); ok {
				return mergeGCNodes(lg, rg)
			}
		}
		return false
	}
	return tryMergeItems(l, r)
}

// tryMergeItems checks every condition spec §4.6 lists before folding
// r into l: same constructor (handled by TryMergeWith's type switch),
// same deleted flag, r.origin == l.lastID, l.right == r, same
// right_origin, same client, contiguous clocks, neither redone, and the
// content itself agreeing to merge.
func tryMergeItems(l, r *Item) bool {
	if l.Deleted != r.Deleted {
		return false
	}
	if r.Origin == nil || !r.Origin.Equal(l.LastID()) {
		return false
	}
	if l.Right != r {
		return false
	}
	if !compareIDPtr(l.RightOrigin, r.RightOrigin) {
		return false
	}
	if l.ID.Client != r.ID.Client {
		return false
	}
	if r.ID.Clock != l.NextClock() {
		return false
	}
	if l.Redone != nil || r.Redone != nil {
		return false
	}
	switch {
	case l.ParentSub == nil && r.ParentSub == nil:
		// both array-like positions, fine
	case l.ParentSub != nil && r.ParentSub != nil && *l.ParentSub == *r.ParentSub:
		// same map key, fine
	default:
		return false
	}
	if !l.Content.TryMergeWith(r.Content) {
		return false
	}

	l.Length += r.Length
	l.Right = r.Right
	if l.Right != nil {
		l.Right.Left = l
	}
	if r.Parent != nil && r.ParentSub != nil {
		if r.Parent.Map[*r.ParentSub] == r {
			r.Parent.Map[*r.ParentSub] = l
		}
	}
	return true
}

func mergeGCNodes(l, r *GCNode) bool {
	if r.ID.Client != l.ID.Client || r.ID.Clock != l.ID.Clock+uint32(l.Length) {
		return false
	}
	l.Length += r.Length
	return true
}

// processMergeCandidates attempts to merge each id in
// tx.MergeCandidates with its left neighbour; used after decoding
// remote updates whose integration order may have left mergeable
// adjacent structs that the per-client sweep above already normalized,
// kept here as the dedicated hook spec §4.7 step 7 calls out.
func processMergeCandidates(doc *Doc, tx *Transaction) {
	for _, id := range tx.MergeCandidates {
		mergeClientArray(doc.Store, id.Client)
	}
}
