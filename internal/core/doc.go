package core

import (
	"crypto/rand"
	"encoding/binary"

	"go.uber.org/zap"
)

// Doc is the internal document state: the struct store, delete set,
// root type registry and transaction stack. The public ydoc.Doc wraps
// this and adds the facade surface (GetArray/GetMap/... and the update
// stream callbacks) described in spec §6.
type Doc struct {
	ClientID uint32
	Guid     string
	GC       bool

	Store     *StructStore
	DeleteSet *DeleteSet
	roots     map[string]*TypeInstance

	// currentTx is the single currently-open transaction; nested
	// Transact calls run inside it rather than stacking (spec §4.7
	// "Nesting is flattened"). cleanupQueue holds transactions awaiting
	// their close sequence, in arrival order; it grows in place if an
	// observer opens a new transaction while the queue is being drained,
	// which is how an N+1 transaction ends up running strictly after N's
	// observers finish.
	currentTx    *Transaction
	cleanupQueue []*Transaction
	draining     bool

	Log *zap.Logger

	// UpdateListeners fire once per successfully closed outermost
	// transaction that produced any change, carrying the encoded update
	// bytes and the transaction's origin (spec §6 "on('update', ...)").
	// Encoding is performed by the codec package through this indirection
	// so core has no import on codec (avoiding a cycle); set by the
	// facade layer at construction time.
	EncodeUpdate func(tx *Transaction) []byte
	UpdateListeners []func(update []byte, origin any, doc *Doc)
}

// NewDoc constructs an empty document. clientID of 0 means "generate a
// random one", matching spec §3's "process-unique random 32-bit id".
func NewDoc(clientID uint32, guid string, gc bool, log *zap.Logger) *Doc {
	if clientID == 0 {
		clientID = randomClientID()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Doc{
		ClientID:  clientID,
		Guid:      guid,
		GC:        gc,
		Store:     NewStructStore(),
		DeleteSet: NewDeleteSet(),
		roots:     make(map[string]*TypeInstance),
		Log:       log,
	}
}

func randomClientID() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	v := binary.BigEndian.Uint32(b[:])
	if v == 0 || v == RootClient {
		v = 1
	}
	return v
}

// Root returns (creating if absent) the root type instance registered
// under name with the given kind. Returns ErrConstructorMismatch if
// name is already bound to a different kind.
func (d *Doc) Root(name string, kind byte) (*TypeInstance, error) {
	if t, ok := d.roots[name]; ok {
		if t.Kind == TypeUnknown {
			t.Kind = kind
			return t, nil
		}
		if t.Kind != kind {
			return nil, ErrConstructorMismatch
		}
		return t, nil
	}
	t := NewTypeInstance(kind)
	t.Name = name
	t.Doc = d
	d.roots[name] = t
	return t, nil
}

// RootRemote fetches or lazily creates the root named name with an
// unresolved constructor, for the codec to anchor decoded remote
// structs to before any local Get<Kind>(name) call has run.
func (d *Doc) RootRemote(name string) *TypeInstance {
	if t, ok := d.roots[name]; ok {
		return t
	}
	t := NewTypeInstance(TypeUnknown)
	t.Name = name
	t.Doc = d
	d.roots[name] = t
	return t
}

// Roots returns every registered root, for codec/debug enumeration.
func (d *Doc) Roots() map[string]*TypeInstance { return d.roots }

// InTransaction reports whether a transaction is currently open on doc.
func (d *Doc) InTransaction() bool { return d.currentTx != nil }

// CurrentTransaction returns the currently open transaction, or nil.
func (d *Doc) CurrentTransaction() *Transaction { return d.currentTx }
