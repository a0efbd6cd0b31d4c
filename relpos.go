package ydoc

import "github.com/colladoc/ydoc/internal/core"

// Assoc picks which side of an anchor item a RelativePosition sticks to
// when concurrent inserts land exactly at the anchor (spec.md §6).
type Assoc = core.Assoc

const (
	AssocLeft  = core.AssocLeft
	AssocRight = core.AssocRight
)

// RelativePosition is a cursor reference that survives concurrent
// edits: it names an anchor item rather than a numeric index, so it
// keeps pointing at "the same place" even as other replicas insert or
// delete around it (spec.md §6).
type RelativePosition = core.RelativePosition

// hasTypeInstance is satisfied by every shared-type facade (Array, Map,
// Text, XMLFragment, XMLElement): each just exposes its backing
// TypeInstance.
type hasTypeInstance interface {
	TypeInstance() *core.TypeInstance
}

// NewRelativePosition captures a stable reference to the position just
// before idx within typ's current content.
func NewRelativePosition(typ hasTypeInstance, idx int) (*RelativePosition, error) {
	return core.NewRelativePosition(typ.TypeInstance(), idx)
}

// FindAbsolute resolves rel back to a concrete (parent, index) pair. If
// the anchor item has since been garbage collected the reference can no
// longer be resolved and an error wrapping core.ErrUnexpectedCase is
// returned rather than a stale offset.
func FindAbsolute(rel *RelativePosition) (parent *core.TypeInstance, index int, err error) {
	return core.FindAbsolute(rel)
}
