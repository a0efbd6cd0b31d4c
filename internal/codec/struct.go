package codec

import (
	"fmt"

	"github.com/colladoc/ydoc/internal/core"
)

// Info-flag byte layout (spec §4.8): low 5 bits are the content ref (0
// means "this entry is a GC run, not an item"); the top three bits flag
// the presence of parent_sub, right_origin and origin respectively.
const (
	flagContentMask  = 0x1F
	flagParentSub    = 0x20
	flagRightOrigin  = 0x40
	flagOrigin       = 0x80
)

// DecodedStruct is a struct read off the wire but not yet integrated:
// parent/origin references are still raw ids (or a root name), to be
// resolved against the local document at apply time (see update.go),
// where missing dependencies are parked in the pending queue rather
// than failing (spec §4.9).
type DecodedStruct struct {
	GC     bool
	ID     core.ID
	Length int // meaningful only when GC

	Origin      *core.ID
	RightOrigin *core.ID

	// Exactly one of ParentRootName or ParentID is set when Origin and
	// RightOrigin are both nil (spec §4.8 "carries its parent anchor
	// next").
	ParentRootName string
	ParentID       *core.ID
	HasParentAnchor bool

	ParentSub *string
	Content   core.Content
}

func encodeStructEntry(e *Encoder, st core.Struct) error {
	if gc, ok := st.(*core.GCNode); ok {
		e.Byte(0)
		e.Uvarint(uint64(gc.Length))
		return nil
	}
	it, ok := st.(*core.Item)
	if !ok {
		return fmt.Errorf("ydoc/codec: unknown struct kind %T", st)
	}

	info := it.Content.Ref() & flagContentMask
	if it.Origin != nil {
		info |= flagOrigin
	}
	if it.RightOrigin != nil {
		info |= flagRightOrigin
	}
	if it.ParentSub != nil {
		info |= flagParentSub
	}
	e.Byte(info)

	if it.Origin != nil {
		encodeID(e, *it.Origin)
	}
	if it.RightOrigin != nil {
		encodeID(e, *it.RightOrigin)
	}
	if it.Origin == nil && it.RightOrigin == nil {
		if it.Parent.IsRoot() {
			e.Byte(1)
			e.String(it.Parent.Name)
		} else {
			e.Byte(0)
			encodeID(e, it.Parent.Item.ID)
		}
	}
	if it.ParentSub != nil {
		e.String(*it.ParentSub)
	}
	return encodeContent(e, it.Content)
}

func decodeStructEntry(d *Decoder) (*DecodedStruct, error) {
	info, err := d.Byte()
	if err != nil {
		return nil, err
	}
	contentRef := info & flagContentMask
	if contentRef == 0 {
		length, err := d.Uvarint()
		if err != nil {
			return nil, err
		}
		return &DecodedStruct{GC: true, Length: int(length)}, nil
	}

	ds := &DecodedStruct{}
	if info&flagOrigin != 0 {
		id, err := decodeID(d)
		if err != nil {
			return nil, err
		}
		ds.Origin = &id
	}
	if info&flagRightOrigin != 0 {
		id, err := decodeID(d)
		if err != nil {
			return nil, err
		}
		ds.RightOrigin = &id
	}
	if ds.Origin == nil && ds.RightOrigin == nil {
		ds.HasParentAnchor = true
		isRoot, err := d.Byte()
		if err != nil {
			return nil, err
		}
		if isRoot == 1 {
			name, err := d.String()
			if err != nil {
				return nil, err
			}
			ds.ParentRootName = name
		} else {
			id, err := decodeID(d)
			if err != nil {
				return nil, err
			}
			ds.ParentID = &id
		}
	}
	if info&flagParentSub != 0 {
		key, err := d.String()
		if err != nil {
			return nil, err
		}
		ds.ParentSub = &key
	}
	content, err := decodeContent(d, contentRef)
	if err != nil {
		return nil, err
	}
	ds.Content = content
	return ds, nil
}
