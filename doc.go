// Package ydoc is a client-side CRDT document engine in the Yjs
// tradition (spec.md §1): a struct store of causally-ordered items
// integrated by the YATA algorithm, bundled into transactions, and
// exchanged between replicas as binary updates or over the sync
// protocol's two-step handshake.
package ydoc

import (
	"github.com/colladoc/ydoc/internal/core"
	"github.com/colladoc/ydoc/internal/codec"
	"github.com/colladoc/ydoc/internal/logging"
	"github.com/colladoc/ydoc/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a new Doc. A zero Options is valid: a random
// client id is generated, a random guid assigned, and garbage
// collection of tombstones runs after every transaction.
type Options struct {
	// ClientID pins the document's replica id; 0 means "generate a
	// random 32-bit id" (spec.md §3).
	ClientID uint32
	// Guid identifies this document across the network; empty means
	// "generate a fresh uuid".
	Guid string
	// DisableGC turns tombstone garbage collection off (e.g. a document
	// hosting relative positions that must survive across an
	// otherwise-collectable delete); the zero value leaves GC on.
	DisableGC bool
	// Logger receives structured diagnostics; nil installs the
	// development logger built by logging.New(false).
	Logger *zap.Logger
}

// Doc is the public facade over the internal engine: it owns the root
// type registry, the update-stream callbacks, and convenience
// constructors for the four shared types (spec.md §1).
type Doc struct {
	core *core.Doc
	log  *zap.Logger
}

// New constructs an empty document per opts.
func New(opts Options) *Doc {
	guid := opts.Guid
	if guid == "" {
		guid = uuid.New().String()
	}
	base := opts.Logger
	if base == nil {
		base = logging.New(false)
	}
	log := logging.Sub(base, "doc")
	cd := core.NewDoc(opts.ClientID, guid, !opts.DisableGC, log)
	cd.EncodeUpdate = codec.EncodeTransactionUpdate
	return &Doc{core: cd, log: log}
}

// ClientID returns this replica's client id.
func (d *Doc) ClientID() uint32 { return d.core.ClientID }

// Guid returns the document's guid.
func (d *Doc) Guid() string { return d.core.Guid }

// Core exposes the underlying engine, for packages (relpos, undo,
// debug) that operate one level below the facade.
func (d *Doc) Core() *core.Doc { return d.core }

// GetArray returns (creating if absent) the root Array named name.
func (d *Doc) GetArray(name string) (*types.Array, error) {
	t, err := d.core.Root(name, core.TypeArray)
	if err != nil {
		return nil, err
	}
	return types.NewArray(t), nil
}

// GetMap returns (creating if absent) the root Map named name.
func (d *Doc) GetMap(name string) (*types.Map, error) {
	t, err := d.core.Root(name, core.TypeMap)
	if err != nil {
		return nil, err
	}
	return types.NewMap(t), nil
}

// GetText returns (creating if absent) the root Text named name.
func (d *Doc) GetText(name string) (*types.Text, error) {
	t, err := d.core.Root(name, core.TypeText)
	if err != nil {
		return nil, err
	}
	return types.NewText(t), nil
}

// GetXMLFragment returns (creating if absent) the root XMLFragment
// named name.
func (d *Doc) GetXMLFragment(name string) (*types.XMLFragment, error) {
	t, err := d.core.Root(name, core.TypeXMLFragment)
	if err != nil {
		return nil, err
	}
	return types.NewXMLFragment(t), nil
}

// Transact runs fn inside a transaction tagged with origin (spec.md
// §6). Nested calls on an already-open transaction run inside it.
func (d *Doc) Transact(origin any, fn func(tx *Transaction) error) error {
	return core.Transact(d.core, origin, true, func(ctx *core.Transaction) error {
		return fn(&Transaction{core: ctx, doc: d})
	})
}

// Transaction is the facade over an open transaction, handed to
// Transact callbacks.
type Transaction struct {
	core *core.Transaction
	doc  *Doc
}

// Origin returns the value the enclosing Transact call was tagged
// with.
func (t *Transaction) Origin() any { return t.core.Origin }

// Local reports whether this transaction originated from a local op
// rather than from applying a remote update.
func (t *Transaction) Local() bool { return t.core.Local }
