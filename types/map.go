package types

import "github.com/colladoc/ydoc/internal/core"

// Map is the keyed-mapping shared type (spec.md §1).
type Map struct {
	Typ *core.TypeInstance
}

// NewMap wraps an existing map-kind type instance.
func NewMap(typ *core.TypeInstance) *Map { return &Map{Typ: typ} }

// TypeInstance exposes the underlying core type.
func (m *Map) TypeInstance() *core.TypeInstance { return m.Typ }

// Set assigns key to value, overwriting whatever was previously
// visible at that key (spec.md §4.3 step 3's key-overwrite semantics).
func (m *Map) Set(key string, value any) error {
	content, err := contentForValues([]any{value})
	if err != nil {
		return err
	}
	return core.Transact(m.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		_, err := tx.SetMapKey(m.Typ, key, content)
		return err
	})
}

// SetNestedArray assigns key to a fresh nested Array and returns a
// facade over it.
func (m *Map) SetNestedArray(key string) (*Array, error) {
	nested := core.NewTypeInstance(core.TypeArray)
	if err := m.setNested(key, nested); err != nil {
		return nil, err
	}
	return NewArray(nested), nil
}

// SetNestedMap assigns key to a fresh nested Map.
func (m *Map) SetNestedMap(key string) (*Map, error) {
	nested := core.NewTypeInstance(core.TypeMap)
	if err := m.setNested(key, nested); err != nil {
		return nil, err
	}
	return NewMap(nested), nil
}

func (m *Map) setNested(key string, nested *core.TypeInstance) error {
	return core.Transact(m.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		_, err := tx.SetMapKey(m.Typ, key, &core.TypeContent{Inner: nested})
		return err
	})
}

// Get returns the current value at key, and whether it exists.
func (m *Map) Get(key string) (any, bool) {
	it, ok := m.Typ.Map[key]
	if !ok || it.Deleted {
		return nil, false
	}
	return contentValue(it.Content), true
}

// Has reports whether key currently has a visible value.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key's current value, if any.
func (m *Map) Delete(key string) error {
	return core.Transact(m.Typ.Doc, nil, true, func(tx *core.Transaction) error {
		return tx.DeleteMapKey(m.Typ, key)
	})
}

// Len reports the number of keys with a currently visible value.
func (m *Map) Len() int {
	n := 0
	for _, it := range m.Typ.Map {
		if !it.Deleted {
			n++
		}
	}
	return n
}

// Keys returns every key with a currently visible value, in no
// particular order (matching spec.md §3's map-as-hashmap model).
func (m *Map) Keys() []string {
	out := make([]string, 0, len(m.Typ.Map))
	for k, it := range m.Typ.Map {
		if !it.Deleted {
			out = append(out, k)
		}
	}
	return out
}

// ToMap materializes every currently visible key/value pair.
func (m *Map) ToMap() map[string]any {
	out := make(map[string]any, len(m.Typ.Map))
	for k, it := range m.Typ.Map {
		if !it.Deleted {
			out[k] = contentValue(it.Content)
		}
	}
	return out
}

// Observe registers fn for shallow changes to this map.
func (m *Map) Observe(fn core.Observer) func() { return m.Typ.Observe(fn) }

// ObserveDeep registers fn for changes to this map or any descendant.
func (m *Map) ObserveDeep(fn core.DeepObserver) func() { return m.Typ.ObserveDeep(fn) }
