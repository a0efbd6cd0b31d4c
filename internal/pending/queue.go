// Package pending implements the holding area for remote structs and
// delete runs whose prerequisites have not yet arrived locally (spec
// §4.9). It is deliberately generic over what a "struct" is — the codec
// package supplies concrete implementations wrapping decoded items —
// so this package has no dependency on the wire format.
package pending

import (
	"sort"

	"github.com/colladoc/ydoc/internal/core"
)

// Struct is a decoded-but-not-yet-integrated remote struct. Dependency
// is expressed as "the id of the struct I need that isn't here yet",
// letting the queue stay agnostic to what those dependencies mean
// (origin, right-origin, or parent).
type Struct interface {
	// ID is the id this struct will occupy once integrated.
	ID() core.ID
	// MissingDep returns the id of a prerequisite not yet present in
	// doc's store, or nil if every prerequisite is satisfied and this
	// struct is ready to integrate.
	MissingDep(doc *core.Doc) *core.ID
	// Apply integrates this struct into doc within tx.
	Apply(tx *core.Transaction) error
}

// DeleteRun is a parked remote delete-set run whose target client's
// clock hasn't caught up yet.
type DeleteRun struct {
	Client uint32
	Run    core.Run
}

// Queue holds structs parked by the client id of their missing
// dependency, and delete runs parked by their own client id.
type Queue struct {
	byMissingClient map[uint32][]Struct
	deletes         []DeleteRun
}

// New returns an empty pending queue.
func New() *Queue {
	return &Queue{byMissingClient: make(map[uint32][]Struct)}
}

// Park holds s until the dependency identified by missing becomes
// available. Two refs parked against the same client are kept ordered
// by clock so Drain can always make forward progress on the oldest one
// first; nothing about this ordering can create a cycle because every
// dependency is strictly causally earlier than the struct depending on
// it (spec §4.9).
func (q *Queue) Park(missing core.ID, s Struct) {
	list := q.byMissingClient[missing.Client]
	list = append(list, s)
	sort.Slice(list, func(i, j int) bool { return list[i].ID().Clock < list[j].ID().Clock })
	q.byMissingClient[missing.Client] = list
}

// ParkDelete holds a remote delete-set run whose client hasn't produced
// enough structs locally yet.
func (q *Queue) ParkDelete(r DeleteRun) {
	q.deletes = append(q.deletes, r)
}

// Len reports the total number of parked structs, across all clients.
func (q *Queue) Len() int {
	n := 0
	for _, l := range q.byMissingClient {
		n += len(l)
	}
	return n
}

// Drain repeatedly scans parked structs, integrating any whose
// dependency has resolved, until a full pass makes no further progress.
// Pending delete runs are re-applied after every struct-resolution
// sweep (spec §4.9 "Pending delete readers are re-run after every
// struct-resolution sweep").
func (q *Queue) Drain(tx *core.Transaction) error {
	for {
		progressed, err := q.sweepStructs(tx)
		if err != nil {
			return err
		}
		deletesProgressed, err := q.sweepDeletes(tx)
		if err != nil {
			return err
		}
		if !progressed && !deletesProgressed {
			return nil
		}
	}
}

func (q *Queue) sweepStructs(tx *core.Transaction) (bool, error) {
	progressed := false
	for client, list := range q.byMissingClient {
		remaining := list[:0]
		for _, s := range list {
			if dep := s.MissingDep(tx.Doc); dep != nil {
				remaining = append(remaining, s)
				continue
			}
			if err := s.Apply(tx); err != nil {
				return progressed, err
			}
			progressed = true
		}
		if len(remaining) == 0 {
			delete(q.byMissingClient, client)
		} else {
			q.byMissingClient[client] = remaining
		}
	}
	return progressed, nil
}

func (q *Queue) sweepDeletes(tx *core.Transaction) (bool, error) {
	if len(q.deletes) == 0 {
		return false, nil
	}
	progressed := false
	remaining := q.deletes[:0]
	for _, d := range q.deletes {
		next := tx.Doc.Store.NextClock(d.Client)
		if next < d.Run.Clock+d.Run.Len {
			remaining = append(remaining, d)
			continue
		}
		if err := tx.DeleteRange(tx.Doc.Store, d.Client, d.Run.Clock, d.Run.Len); err != nil {
			return progressed, err
		}
		progressed = true
	}
	q.deletes = remaining
	return progressed, nil
}

// Pending reports whether anything remains parked.
func (q *Queue) Pending() bool {
	return q.Len() > 0 || len(q.deletes) > 0
}
