package types

import "github.com/colladoc/ydoc/internal/core"

// xmlTagKey stores an XML element's tag name as a reserved map-like
// attribute rather than a separate wire field: it is fixed at
// construction but still needs to travel with the element over the
// same codec path as everything else, and the core already has a
// content-addressable way to carry exactly that (spec.md §3's map-like
// parent semantics).
const xmlTagKey = "__tag"

// XMLFragment is the root of an XML-shaped tree: an ordered sequence
// of XML element and text nodes with no tag of its own (spec.md §1). It
// reuses the same list/content-variant machinery as Array — an XML
// node is simply a nested Type(Array|Map-shaped) item under a sequence
// parent.
type XMLFragment struct {
	Typ *core.TypeInstance
}

// NewXMLFragment wraps an existing XML-fragment-kind type instance.
func NewXMLFragment(typ *core.TypeInstance) *XMLFragment { return &XMLFragment{Typ: typ} }

// TypeInstance exposes the underlying core type.
func (f *XMLFragment) TypeInstance() *core.TypeInstance { return f.Typ }

// Len reports the number of direct child nodes.
func (f *XMLFragment) Len() int { return f.Typ.Length }

// InsertElement inserts a fresh XML element with the given tag at idx.
func (f *XMLFragment) InsertElement(idx int, tag string) (*XMLElement, error) {
	return insertElement(f.Typ, idx, tag)
}

// InsertText inserts a fresh rich-text node at idx.
func (f *XMLFragment) InsertText(idx int) (*Text, error) {
	return insertXMLText(f.Typ, idx)
}

// Children walks the fragment's current visible child nodes, each
// returned as either an *XMLElement or a *Text.
func (f *XMLFragment) Children() []any { return xmlChildren(f.Typ) }

func insertChild(parent *core.TypeInstance, idx int, nested *core.TypeInstance) error {
	return core.Transact(parent.Doc, nil, true, func(tx *core.Transaction) error {
		left, right, err := core.CursorAt(tx.Doc.Store, parent, idx)
		if err != nil {
			return err
		}
		_, err = tx.InsertContent(parent, nil, left, right, &core.TypeContent{Inner: nested})
		return err
	})
}

func insertElement(parent *core.TypeInstance, idx int, tag string) (*XMLElement, error) {
	nested := core.NewTypeInstance(core.TypeXMLElement)
	if err := insertChild(parent, idx, nested); err != nil {
		return nil, err
	}
	el := &XMLElement{Typ: nested}
	if err := el.setAttr(xmlTagKey, tag); err != nil {
		return nil, err
	}
	return el, nil
}

func insertXMLText(parent *core.TypeInstance, idx int) (*Text, error) {
	nested := core.NewTypeInstance(core.TypeXMLText)
	if err := insertChild(parent, idx, nested); err != nil {
		return nil, err
	}
	return NewText(nested), nil
}

func xmlChildren(parent *core.TypeInstance) []any {
	var out []any
	for it := parent.Head; it != nil; it = it.Right {
		if it.Deleted || it.ParentSub != nil {
			continue
		}
		tc, ok := it.Content.(*core.TypeContent)
		if !ok {
			continue
		}
		switch tc.Inner.Kind {
		case core.TypeXMLElement:
			out = append(out, &XMLElement{Typ: tc.Inner})
		case core.TypeXMLText, core.TypeText:
			out = append(out, NewText(tc.Inner))
		}
	}
	return out
}
