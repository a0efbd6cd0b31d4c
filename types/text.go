package types

import (
	"github.com/colladoc/ydoc/internal/core"
	"github.com/colladoc/ydoc/internal/richtext"
)

// Text is the rich-text shared type (spec.md §1, §4.10).
type Text struct {
	Typ *core.TypeInstance
}

// NewText wraps an existing text-kind type instance.
func NewText(typ *core.TypeInstance) *Text { return &Text{Typ: typ} }

// TypeInstance exposes the underlying core type.
func (t *Text) TypeInstance() *core.TypeInstance { return t.Typ }

// Len reports the text's visible length, in runes.
func (t *Text) Len() int { return t.Typ.Length }

// Insert inserts text at idx with the given formatting attributes
// (nil for none) — spec.md §4.10 insertText.
func (t *Text) Insert(idx int, text string, attrs map[string]any) error {
	return core.Transact(t.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		return richtext.InsertText(tx, t.Typ, idx, text, attrs)
	})
}

// InsertEmbed inserts a single opaque embed object at idx.
func (t *Text) InsertEmbed(idx int, value any) error {
	return core.Transact(t.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		left, right, err := core.CursorAt(tx.Doc.Store, t.Typ, idx)
		if err != nil {
			return err
		}
		_, err = tx.InsertContent(t.Typ, nil, left, right, &core.EmbedContent{Value: value})
		return err
	})
}

// Format applies attrs to length visible units starting at idx
// (spec.md §4.10 formatText).
func (t *Text) Format(idx, length int, attrs map[string]any) error {
	return core.Transact(t.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		return richtext.FormatText(tx, t.Typ, idx, length, attrs)
	})
}

// Delete removes length visible units starting at idx (spec.md §4.10
// deleteText).
func (t *Text) Delete(idx, length int) error {
	return core.Transact(t.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		return richtext.DeleteText(tx, t.Typ, idx, length)
	})
}

// Delta computes the current content as a run-length stream of insert
// ops with their attributes; it never contains retain or delete ops
// (spec.md §4.10).
func (t *Text) Delta() []richtext.DeltaOp { return richtext.Delta(t.Typ) }

// String renders the plain-text content, discarding formatting.
func (t *Text) String() string {
	var out []rune
	for it := t.Typ.Head; it != nil; it = it.Right {
		if it.Deleted {
			continue
		}
		if s, ok := it.Content.(*core.StringContent); ok {
			out = append(out, s.Text...)
		}
	}
	return string(out)
}

// Observe registers fn for shallow changes to this text.
func (t *Text) Observe(fn core.Observer) func() { return t.Typ.Observe(fn) }

// ObserveDeep registers fn for changes to this text or any descendant.
func (t *Text) ObserveDeep(fn core.DeepObserver) func() { return t.Typ.ObserveDeep(fn) }
