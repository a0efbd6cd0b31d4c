package types

import "github.com/colladoc/ydoc/internal/core"

// XMLElement is a tagged node with attributes and ordered children —
// the XML analogue of a DOM element (spec.md §1). It is backed by a
// single TypeInstance whose parentSub-less items form the child
// sequence and whose keyed items form the attribute map, the same dual
// list/map parent spec.md §3 already describes.
type XMLElement struct {
	Typ *core.TypeInstance
}

// TypeInstance exposes the underlying core type.
func (e *XMLElement) TypeInstance() *core.TypeInstance { return e.Typ }

// Tag returns the element's tag name, fixed at construction.
func (e *XMLElement) Tag() string {
	if v, ok := (&Map{Typ: e.Typ}).Get(xmlTagKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetAttr sets an XML attribute (spec.md §4.3 step 3's key-overwrite
// semantics apply identically here).
func (e *XMLElement) SetAttr(key string, value any) error {
	if key == xmlTagKey {
		return core.ErrContentTypeMismatch
	}
	return e.setAttr(key, value)
}

func (e *XMLElement) setAttr(key string, value any) error {
	content, err := contentForValues([]any{value})
	if err != nil {
		return err
	}
	return core.Transact(e.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		_, err := tx.SetMapKey(e.Typ, key, content)
		return err
	})
}

// Attr returns the current value of an XML attribute.
func (e *XMLElement) Attr(key string) (any, bool) {
	return (&Map{Typ: e.Typ}).Get(key)
}

// RemoveAttr deletes an XML attribute.
func (e *XMLElement) RemoveAttr(key string) error {
	if key == xmlTagKey {
		return core.ErrContentTypeMismatch
	}
	return core.Transact(e.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		return tx.DeleteMapKey(e.Typ, key)
	})
}

// InsertElement inserts a fresh child element with the given tag at idx.
func (e *XMLElement) InsertElement(idx int, tag string) (*XMLElement, error) {
	return insertElement(e.Typ, idx, tag)
}

// InsertText inserts a fresh rich-text child node at idx.
func (e *XMLElement) InsertText(idx int) (*Text, error) {
	return insertXMLText(e.Typ, idx)
}

// Children walks the element's current visible child nodes, each
// returned as either an *XMLElement or a *Text.
func (e *XMLElement) Children() []any { return xmlChildren(e.Typ) }

// Len reports the number of direct child nodes.
func (e *XMLElement) Len() int { return e.Typ.Length }

// Observe registers fn for shallow changes to this element.
func (e *XMLElement) Observe(fn core.Observer) func() { return e.Typ.Observe(fn) }

// ObserveDeep registers fn for changes to this element or any descendant.
func (e *XMLElement) ObserveDeep(fn core.DeepObserver) func() { return e.Typ.ObserveDeep(fn) }
