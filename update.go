package ydoc

import (
	"github.com/colladoc/ydoc/internal/codec"
	"github.com/colladoc/ydoc/internal/core"
)

// OnUpdate registers fn to run once per successfully closed outermost
// transaction that produced any change, carrying the encoded update
// bytes and the transaction's origin (spec.md §6 "on('update', ...)").
// The returned func unregisters it.
func (d *Doc) OnUpdate(fn func(update []byte, origin any)) func() {
	idx := len(d.core.UpdateListeners)
	d.core.UpdateListeners = append(d.core.UpdateListeners, func(update []byte, origin any, _ *core.Doc) {
		if fn != nil {
			fn(update, origin)
		}
	})
	return func() {
		if idx < len(d.core.UpdateListeners) {
			d.core.UpdateListeners[idx] = func([]byte, any, *core.Doc) {}
		}
	}
}

// StateVector returns this document's current per-client state vector
// (spec.md §4.9), the input to a differential sync.
func (d *Doc) StateVector() map[uint32]uint32 { return d.core.Store.StateVector() }

// EncodeStateVector serializes StateVector to its wire form.
func (d *Doc) EncodeStateVector() []byte { return codec.EncodeStateVector(d.StateVector()) }

// EncodeStateAsUpdate returns every struct and delete-set entry this
// document holds beyond targetSV — nil for a full snapshot (spec.md
// §6's "DiffUpdate(sv)" convenience).
func (d *Doc) EncodeStateAsUpdate(targetSV map[uint32]uint32) []byte {
	return codec.EncodeStateAsUpdate(d.core, targetSV)
}

// DiffUpdate is an alias for EncodeStateAsUpdate matching the spec's
// named convenience.
func (d *Doc) DiffUpdate(targetSV map[uint32]uint32) []byte {
	return d.EncodeStateAsUpdate(targetSV)
}

// ApplyUpdate integrates a remote update into this document (spec.md
// §4.9), parking any structs or deletes whose dependencies haven't
// arrived yet in the pending queue until a later update resolves them.
func (d *Doc) ApplyUpdate(update []byte, origin any) error {
	return codec.ApplyUpdate(d.core, update, origin)
}
