package core

import "sort"

// Run is a (clock, len) range within one client's clock space.
type Run struct {
	Clock uint32
	Len   uint32
}

func (r Run) end() uint32 { return r.Clock + r.Len }

// DeleteSet is the per-client, sorted, maximally-merged collection of
// deleted clock runs (spec §3, §4.4).
type DeleteSet struct {
	Clients map[uint32][]Run
}

// NewDeleteSet allocates an empty delete set.
func NewDeleteSet() *DeleteSet {
	return &DeleteSet{Clients: make(map[uint32][]Run)}
}

// Add records [clock, clock+length) as deleted for client. The caller
// is responsible for invoking SortAndMerge afterwards if strict merge-invariant
// upkeep is required immediately; transactions batch this at close.
func (ds *DeleteSet) Add(client uint32, clock uint32, length int) {
	if length <= 0 {
		return
	}
	ds.Clients[client] = append(ds.Clients[client], Run{Clock: clock, Len: uint32(length)})
}

// IsEmpty reports whether no runs are recorded for any client.
func (ds *DeleteSet) IsEmpty() bool {
	for _, runs := range ds.Clients {
		if len(runs) > 0 {
			return false
		}
	}
	return true
}

// SortAndMerge sorts each client's runs by clock and merges adjacent,
// touching runs in a single linear pass (spec §4.4 merge invariant and
// algorithm).
func (ds *DeleteSet) SortAndMerge() {
	for client, runs := range ds.Clients {
		if len(runs) == 0 {
			delete(ds.Clients, client)
			continue
		}
		sort.Slice(runs, func(i, j int) bool { return runs[i].Clock < runs[j].Clock })
		write := 0
		for read := 1; read < len(runs); read++ {
			prev := &runs[write]
			next := runs[read]
			if prev.end() >= next.Clock {
				if next.end() > prev.end() {
					prev.Len = next.end() - prev.Clock
				}
				continue
			}
			write++
			runs[write] = next
		}
		ds.Clients[client] = runs[:write+1]
	}
}

// IsDeleted reports whether id falls within any recorded run for its
// client (spec invariant 4). Assumes SortAndMerge has been called.
func (ds *DeleteSet) IsDeleted(id ID) bool {
	runs := ds.Clients[id.Client]
	// Binary search for the first run whose end is past id.Clock.
	i := sort.Search(len(runs), func(i int) bool { return runs[i].end() > id.Clock })
	return i < len(runs) && runs[i].Clock <= id.Clock
}

// Merge folds other's runs into ds (used when combining a remote delete
// set into the document's bookkeeping) and re-sorts/merges.
func (ds *DeleteSet) Merge(other *DeleteSet) {
	for client, runs := range other.Clients {
		ds.Clients[client] = append(ds.Clients[client], runs...)
	}
	ds.SortAndMerge()
}

// Clone returns a deep copy.
func (ds *DeleteSet) Clone() *DeleteSet {
	out := NewDeleteSet()
	for client, runs := range ds.Clients {
		cp := make([]Run, len(runs))
		copy(cp, runs)
		out.Clients[client] = cp
	}
	return out
}

// ForEachRun visits every (client, run) pair across all clients.
func (ds *DeleteSet) ForEachRun(f func(client uint32, run Run)) {
	for client, runs := range ds.Clients {
		for _, r := range runs {
			f(client, r)
		}
	}
}
