package codec

import (
	"fmt"

	"github.com/colladoc/ydoc/internal/core"
	"github.com/colladoc/ydoc/internal/pending"
)

// EncodeStateAsUpdate serializes every struct and delete run not
// already reflected in targetSV (nil means "from the beginning", i.e.
// a full snapshot) — spec §4.8, §6 encode_state_as_update.
func EncodeStateAsUpdate(doc *core.Doc, targetSV map[uint32]uint32) []byte {
	if targetSV == nil {
		targetSV = map[uint32]uint32{}
	}
	e := NewEncoder()
	encodeStructsBlock(e, doc.Store, targetSV)
	encodeDeleteSetBlock(e, doc.DeleteSet)
	return e.Bytes()
}

// EncodeTransactionUpdate encodes exactly the structs and deletes
// produced during tx rather than a full document snapshot: structs are
// diffed against tx.BeforeState (the state vector at transaction open)
// and the delete-set block carries only tx.DeleteSet. This is what
// fires on the 'update' stream at transaction close (spec §4.7 step 9,
// §6 "on('update', ...)") — a remote peer never needs more than the one
// transaction's worth of change to stay in sync incrementally.
func EncodeTransactionUpdate(tx *core.Transaction) []byte {
	e := NewEncoder()
	encodeStructsBlock(e, tx.Doc.Store, tx.BeforeState)
	encodeDeleteSetBlock(e, tx.DeleteSet)
	return e.Bytes()
}

func encodeStructsBlock(e *Encoder, store *core.StructStore, targetSV map[uint32]uint32) {
	var toWrite []uint32
	for _, c := range store.Clients() {
		if store.NextClock(c) > targetSV[c] {
			toWrite = append(toWrite, c)
		}
	}
	e.Uvarint(uint64(len(toWrite)))
	for _, c := range toWrite {
		from := targetSV[c]
		if from > 0 {
			// Split at the boundary so the first struct written starts
			// exactly at `from`; GetItemCleanStart still performs the
			// split even when it reports the boundary fell on a GC node,
			// so the error is intentionally ignored here.
			_, _ = store.GetItemCleanStart(core.ID{Client: c, Clock: from})
		}
		idx, err := store.FindIndex(c, from)
		if err != nil {
			idx = 0 // from == 0 and the client has no structs yet won't happen since c is in toWrite
		}
		arr := store.Array(c)[idx:]
		e.Uvarint(uint64(len(arr)))
		encodeID(e, core.ID{Client: c, Clock: from})
		for _, st := range arr {
			_ = encodeStructEntry(e, st)
		}
	}
}

func encodeDeleteSetBlock(e *Encoder, ds *core.DeleteSet) {
	ds.SortAndMerge()
	clients := make([]uint32, 0, len(ds.Clients))
	for c := range ds.Clients {
		clients = append(clients, c)
	}
	e.Uvarint(uint64(len(clients)))
	for _, c := range clients {
		runs := ds.Clients[c]
		e.Uint32(c)
		e.Uvarint(uint64(len(runs)))
		for _, r := range runs {
			e.Uint32(r.Clock)
			e.Uint32(r.Len)
		}
	}
}

// decodedBlock is one client's run of decoded-but-unintegrated structs,
// starting at firstID.
type decodedBlock struct {
	firstID core.ID
	structs []*DecodedStruct
}

func decodeStructsBlock(d *Decoder) ([]decodedBlock, error) {
	nClients, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	blocks := make([]decodedBlock, 0, nClients)
	for i := uint64(0); i < nClients; i++ {
		nStructs, err := d.Uvarint()
		if err != nil {
			return nil, err
		}
		first, err := decodeID(d)
		if err != nil {
			return nil, err
		}
		structs := make([]*DecodedStruct, 0, nStructs)
		for j := uint64(0); j < nStructs; j++ {
			ds, err := decodeStructEntry(d)
			if err != nil {
				return nil, err
			}
			structs = append(structs, ds)
		}
		blocks = append(blocks, decodedBlock{firstID: first, structs: structs})
	}
	return blocks, nil
}

type decodedDeleteRun struct {
	client uint32
	run    core.Run
}

func decodeDeleteSetBlock(d *Decoder) ([]decodedDeleteRun, error) {
	nClients, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	var out []decodedDeleteRun
	for i := uint64(0); i < nClients; i++ {
		client, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		nRuns, err := d.Uvarint()
		if err != nil {
			return nil, err
		}
		for j := uint64(0); j < nRuns; j++ {
			clock, err := d.Uint32()
			if err != nil {
				return nil, err
			}
			length, err := d.Uint32()
			if err != nil {
				return nil, err
			}
			out = append(out, decodedDeleteRun{client: client, run: core.Run{Clock: clock, Len: length}})
		}
	}
	return out, nil
}

// ApplyUpdate decodes data and integrates it into doc within a
// transaction tagged origin, parking anything whose dependencies
// haven't arrived yet (spec §4.9, §6 apply_update).
func ApplyUpdate(doc *core.Doc, data []byte, origin any) error {
	d := NewDecoder(data)
	blocks, err := decodeStructsBlock(d)
	if err != nil {
		return fmt.Errorf("ydoc/codec: decode update: %w", err)
	}
	deletes, err := decodeDeleteSetBlock(d)
	if err != nil {
		return fmt.Errorf("ydoc/codec: decode update: %w", err)
	}

	return core.Transact(doc, origin, false, func(tx *core.Transaction) error {
		q := pending.New()
		for _, block := range blocks {
			client := block.firstID.Client
			clock := block.firstID.Clock
			for _, ds := range block.structs {
				id := core.ID{Client: client, Clock: clock}
				length := decodedLength(ds)
				clock += uint32(length)

				// A struct already covered by local state is not missing a
				// dependency, it is already known — possibly as a
				// differently-split struct if the two replicas' merge
				// passes diverged. Re-appending it unconditionally would
				// violate store contiguity (spec §4.2), so idempotence and
				// commutativity (spec §8 properties 2-3) require skipping
				// (or trimming) the already-seen prefix instead.
				next := tx.Doc.Store.NextClock(client)
				if id.Clock+uint32(length) <= next {
					continue
				}
				if id.Clock < next {
					offset := next - id.Clock
					trimmed, err := trimDecodedStruct(tx.Doc.Store, client, id, offset, ds)
					if err != nil {
						return err
					}
					ds = trimmed
					id = core.ID{Client: client, Clock: next}
				}

				item := &pendingItem{doc: doc, id: id, ds: ds}
				if dep := item.MissingDep(doc); dep != nil {
					q.Park(*dep, item)
				} else if err := item.Apply(tx); err != nil {
					return err
				}
			}
		}
		for _, dr := range deletes {
			if tx.Doc.Store.NextClock(dr.client) < dr.run.Clock+dr.run.Len {
				q.ParkDelete(pending.DeleteRun{Client: dr.client, Run: dr.run})
				continue
			}
			if err := tx.DeleteRange(tx.Doc.Store, dr.client, dr.run.Clock, dr.run.Len); err != nil {
				return err
			}
		}
		return q.Drain(tx)
	})
}

func decodedLength(ds *DecodedStruct) int {
	if ds.GC {
		return ds.Length
	}
	return ds.Content.Len()
}

// trimDecodedStruct returns a copy of ds covering only the clocks from
// id.Clock+offset onward: the prefix [id.Clock, id.Clock+offset) is
// already present locally — an earlier update, possibly split
// differently by an independent merge pass, already carried it — so
// only the unseen suffix needs integrating. The trimmed struct's origin
// becomes its own preceding clock, exactly how StructStore.splitAt
// derives a right twin's origin from the left half it was cut from
// (spec §4.2), and its parent anchor is read off the already-local item
// covering that preceding clock rather than re-derived from the wire,
// since the wire format only transmits a parent anchor for an item
// whose origin is nil (spec §4.8).
func trimDecodedStruct(store *core.StructStore, client uint32, id core.ID, offset uint32, ds *DecodedStruct) (*DecodedStruct, error) {
	if ds.GC {
		return &DecodedStruct{GC: true, Length: ds.Length - int(offset)}, nil
	}

	covering, err := store.FindItem(core.ID{Client: client, Clock: id.Clock + offset - 1})
	if err != nil {
		return nil, err
	}

	trimmed := *ds
	trimmed.Content = ds.Content.Splice(int(offset))
	selfOrigin := core.ID{Client: client, Clock: id.Clock + offset - 1}
	trimmed.Origin = &selfOrigin
	trimmed.HasParentAnchor = false
	if covering.Parent.IsRoot() {
		trimmed.ParentRootName = covering.Parent.Name
		trimmed.ParentID = nil
	} else {
		trimmed.ParentRootName = ""
		parentID := covering.Parent.Item.ID
		trimmed.ParentID = &parentID
	}
	return &trimmed, nil
}

// pendingItem adapts a DecodedStruct to pending.Struct, resolving
// origin/right-origin/parent references against the live document only
// once all three are satisfied.
type pendingItem struct {
	doc *core.Doc
	id  core.ID
	ds  *DecodedStruct
}

func (p *pendingItem) ID() core.ID { return p.id }

func (p *pendingItem) MissingDep(doc *core.Doc) *core.ID {
	if next := doc.Store.NextClock(p.id.Client); p.id.Clock > next {
		missing := core.ID{Client: p.id.Client, Clock: next}
		return &missing
	}
	if p.ds.GC {
		return nil
	}
	if dep := p.ds.Origin; dep != nil && !idKnown(doc, *dep) {
		return dep
	}
	if dep := p.ds.RightOrigin; dep != nil && !idKnown(doc, *dep) {
		return dep
	}
	if p.ds.HasParentAnchor && p.ds.ParentID != nil && !idKnown(doc, *p.ds.ParentID) {
		return p.ds.ParentID
	}
	return nil
}

func idKnown(doc *core.Doc, id core.ID) bool {
	_, err := doc.Store.Find(id)
	return err == nil
}

func (p *pendingItem) Apply(tx *core.Transaction) error {
	if p.ds.GC {
		return tx.Doc.Store.Append(&core.GCNode{ID: p.id, Length: p.ds.Length})
	}

	var parent *core.TypeInstance
	switch {
	case p.ds.ParentRootName != "":
		parent = tx.Doc.RootRemote(p.ds.ParentRootName)
	case p.ds.ParentID != nil:
		holder, err := tx.Doc.Store.FindItem(*p.ds.ParentID)
		if err != nil {
			return err
		}
		tc, ok := holder.Content.(*core.TypeContent)
		if !ok {
			return fmt.Errorf("ydoc/codec: parent id %s does not hold a nested type", p.ds.ParentID)
		}
		parent = tc.Inner
	case p.ds.Origin != nil || p.ds.RightOrigin != nil:
		// The wire carries a parent anchor only for items with neither
		// origin; any other item lives under its anchor item's parent.
		anchor := p.ds.Origin
		if anchor == nil {
			anchor = p.ds.RightOrigin
		}
		holder, err := tx.Doc.Store.FindItem(*anchor)
		if err != nil {
			return err
		}
		parent = holder.Parent
	default:
		return fmt.Errorf("ydoc/codec: struct at %s carries no parent anchor", p.id)
	}

	item := core.NewItem(p.id, p.ds.Origin, p.ds.RightOrigin, parent, p.ds.ParentSub, p.ds.Content)
	if p.ds.Origin != nil {
		// origin names the last clock of the left neighbour at creation
		// time; a later merge may have absorbed it into a larger item, so
		// split to get a clean end exactly there.
		left, err := tx.Doc.Store.GetItemCleanEnd(*p.ds.Origin)
		if err != nil {
			return err
		}
		item.Left = left
	}
	if p.ds.RightOrigin != nil {
		right, err := tx.Doc.Store.GetItemCleanStart(*p.ds.RightOrigin)
		if err != nil {
			return err
		}
		item.Right = right
	}
	return tx.Integrate(item)
}
