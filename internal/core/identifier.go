// Package core implements the linked-list CRDT at the heart of ydoc: the
// item graph and its YATA integration algorithm, the per-client struct
// store, the delete set, and the transaction that bundles a batch of
// mutations together.
//
// Everything in this package is tightly coupled by design, the same way
// Item, StructStore and Transaction are coupled in the reference engine
// this module generalizes from: an Item cannot be understood apart from
// the store that owns it or the transaction that is currently mutating
// it, so keeping them in one package avoids an artificial interface
// layer between them.
package core

import "fmt"

// RootClient is the sentinel client id that marks an ID as referring to
// the root of a named top-level type rather than to a struct in some
// client's append-only array. Root references are never transmitted on
// the wire; the name travels instead (see codec).
const RootClient uint32 = 0xFFFFFFFF

// ID is a (client, clock) pair: the starting identifier of an Item or a
// position within a client's struct array. Two IDs are equal iff both
// fields match.
type ID struct {
	Client uint32
	Clock  uint32
}

// NoID is used for the nullable origin/right-origin/left/right id
// fields. Go's zero value for ID is a legitimate struct identity
// (client 0, clock 0), so nullability is tracked by a separate bool or a
// pointer at call sites; NoID is only a documentation aid for fields
// that are genuinely never valid to look up (it should not appear as a
// live reference anywhere).
var NoID = ID{Client: RootClient, Clock: 0xFFFFFFFF}

// Less implements the total order used only as a conflict tie-break
// during integration (see Integrate): lower client id first, then lower
// clock.
func (a ID) Less(b ID) bool {
	if a.Client != b.Client {
		return a.Client < b.Client
	}
	return a.Clock < b.Clock
}

// Equal reports whether a and b identify the same position.
func (a ID) Equal(b ID) bool {
	return a.Client == b.Client && a.Clock == b.Clock
}

func (a ID) String() string {
	return fmt.Sprintf("(%d,%d)", a.Client, a.Clock)
}

// IDPtr is a convenience for the common "nullable ID" pattern used
// throughout the item graph: origin and right origin are both *ID,
// with a nil pointer meaning "no neighbour".
type IDPtr = *ID

// NewIDPtr returns a pointer to a copy of id, so call sites can write
// core.NewIDPtr(id) inline instead of needing an addressable local.
func NewIDPtr(id ID) *ID {
	v := id
	return &v
}

// compareIDPtr treats nil as distinct from any concrete ID and reports
// equality only when both are nil or both point to equal IDs. This is
// the comparison YATA's Case A relies on for "same origin" (§4.3).
func compareIDPtr(a, b *ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
