package types

import "github.com/colladoc/ydoc/internal/core"

// Array is the ordered-sequence shared type (spec.md §1).
type Array struct {
	Typ *core.TypeInstance
}

// NewArray wraps an existing array-kind type instance, typically one
// obtained from Doc.GetArray or as a nested type embedded in another
// shared type.
func NewArray(typ *core.TypeInstance) *Array { return &Array{Typ: typ} }

// TypeInstance exposes the underlying core type, for relative
// positions and the undo manager's root tracking.
func (a *Array) TypeInstance() *core.TypeInstance { return a.Typ }

// Len reports the array's visible length.
func (a *Array) Len() int { return a.Typ.Length }

// Insert splices values in at idx as a single run, local-op style.
func (a *Array) Insert(idx int, values ...any) error {
	content, err := contentForValues(values)
	if err != nil {
		return err
	}
	return core.Transact(a.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		left, right, err := core.CursorAt(tx.Doc.Store, a.Typ, idx)
		if err != nil {
			return err
		}
		_, err = tx.InsertContent(a.Typ, nil, left, right, content)
		return err
	})
}

// InsertNestedArray inserts a fresh nested Array at idx and returns a
// facade over it, for building tree-shaped documents (spec.md §3
// "Type(nested) a pointer to a nested shared type").
func (a *Array) InsertNestedArray(idx int) (*Array, error) {
	nested := core.NewTypeInstance(core.TypeArray)
	if err := a.insertNested(idx, nested); err != nil {
		return nil, err
	}
	return NewArray(nested), nil
}

// InsertNestedMap inserts a fresh nested Map at idx.
func (a *Array) InsertNestedMap(idx int) (*Map, error) {
	nested := core.NewTypeInstance(core.TypeMap)
	if err := a.insertNested(idx, nested); err != nil {
		return nil, err
	}
	return NewMap(nested), nil
}

// InsertNestedText inserts a fresh nested Text at idx.
func (a *Array) InsertNestedText(idx int) (*Text, error) {
	nested := core.NewTypeInstance(core.TypeText)
	if err := a.insertNested(idx, nested); err != nil {
		return nil, err
	}
	return NewText(nested), nil
}

func (a *Array) insertNested(idx int, nested *core.TypeInstance) error {
	return core.Transact(a.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		left, right, err := core.CursorAt(tx.Doc.Store, a.Typ, idx)
		if err != nil {
			return err
		}
		_, err = tx.InsertContent(a.Typ, nil, left, right, &core.TypeContent{Inner: nested})
		return err
	})
}

// Delete removes length visible positions starting at idx.
func (a *Array) Delete(idx, length int) error {
	return core.Transact(a.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		return core.DeleteVisibleRange(tx, a.Typ, idx, length)
	})
}

// Get returns the value at idx.
func (a *Array) Get(idx int) (any, error) {
	it, offset, err := core.ItemAt(a.Typ, idx)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, core.ErrContentTypeMismatch
	}
	if c, ok := it.Content.(*core.JSONContent); ok {
		return c.Values[offset], nil
	}
	return contentValue(it.Content), nil
}

// ToSlice materializes the array's current visible contents.
func (a *Array) ToSlice() []any {
	out := make([]any, 0, a.Typ.Length)
	for it := a.Typ.Head; it != nil; it = it.Right {
		if it.Deleted || !it.Countable {
			continue
		}
		switch c := it.Content.(type) {
		case *core.JSONContent:
			out = append(out, c.Values...)
		case *core.StringContent:
			for _, r := range c.Text {
				out = append(out, string(r))
			}
		default:
			out = append(out, contentValue(it.Content))
		}
	}
	return out
}

// Observe registers fn for shallow (direct) changes to this array.
func (a *Array) Observe(fn core.Observer) func() { return a.Typ.Observe(fn) }

// ObserveDeep registers fn for changes to this array or any descendant.
func (a *Array) ObserveDeep(fn core.DeepObserver) func() { return a.Typ.ObserveDeep(fn) }
