package core

import (
	"go.uber.org/multierr"
)

// Transaction bundles every change made during one call to Transact
// (spec §4.7). Fields mirror the spec literally: BeforeState/AfterState
// snapshot the state vector at open/close, Changed/ChangedParents back
// shallow/deep observer dispatch, DeleteSet accumulates deletions made
// during this transaction, and MergeCandidates lists ids the merge pass
// should additionally attempt to fold.
type Transaction struct {
	Doc    *Doc
	Origin any
	Local  bool

	BeforeState map[uint32]uint32
	AfterState  map[uint32]uint32

	DeleteSet *DeleteSet

	// Changed maps a touched type instance to the set of keys changed on
	// it (nil key for non-map-like / whole-sequence changes).
	Changed map[*TypeInstance]map[*string]struct{}
	// ChangedParents accumulates deep-observer events per ancestor.
	ChangedParents map[*TypeInstance][]*Event

	MergeCandidates []ID
	NewTypes        map[*TypeInstance]struct{}
	TouchedClients  map[uint32]struct{}

	// mapKeyChanges is recorded so shallow/deep observers can report
	// ChangeKind/OldValue (spec §6 "maps report the set of changed keys").
	mapKeyChanges map[*TypeInstance]map[string]*KeyChange
}

func newTransaction(doc *Doc, origin any, local bool) *Transaction {
	return &Transaction{
		Doc:            doc,
		Origin:         origin,
		Local:          local,
		BeforeState:    doc.Store.StateVector(),
		DeleteSet:      NewDeleteSet(),
		Changed:        make(map[*TypeInstance]map[*string]struct{}),
		ChangedParents: make(map[*TypeInstance][]*Event),
		NewTypes:       make(map[*TypeInstance]struct{}),
		mapKeyChanges:  make(map[*TypeInstance]map[string]*KeyChange),
		TouchedClients: make(map[uint32]struct{}),
	}
}

// Transact runs fn within a transaction tagged with origin (spec §6
// document.transact). If a transaction is already open on doc, fn runs
// inside it (flattened nesting); otherwise a new transaction is opened,
// fn runs, and the close sequence (spec §4.7) is driven to completion,
// including any further transactions opened by observers triggered
// along the way.
func Transact(doc *Doc, origin any, local bool, fn func(tx *Transaction) error) error {
	initial := doc.currentTx == nil
	if initial {
		doc.currentTx = newTransaction(doc, origin, local)
		doc.cleanupQueue = append(doc.cleanupQueue, doc.currentTx)
	}
	tx := doc.currentTx
	fnErr := fn(tx)

	if !initial {
		return fnErr
	}
	doc.currentTx = nil
	if fnErr != nil {
		return fnErr
	}
	if doc.draining {
		// A transaction opened from inside observer dispatch: leave it
		// queued for the outer drain loop to process in order.
		return nil
	}
	return drainCleanupQueue(doc)
}

// drainCleanupQueue runs the close sequence for every transaction in
// doc.cleanupQueue, in order, including ones appended mid-drain by
// observers opening further transactions.
func drainCleanupQueue(doc *Doc) error {
	doc.draining = true
	defer func() {
		doc.draining = false
		doc.cleanupQueue = nil
	}()
	var errs []error
	for i := 0; i < len(doc.cleanupQueue); i++ {
		tx := doc.cleanupQueue[i]
		if err := closeTransaction(tx); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

// closeTransaction runs spec §4.7's nine-step close sequence for tx.
func closeTransaction(tx *Transaction) error {
	doc := tx.Doc

	// 1. Sort+merge delete_set.
	tx.DeleteSet.SortAndMerge()

	// 2. Fill after_state from current state vector.
	tx.AfterState = doc.Store.StateVector()

	var obsErrs []error

	// 3. Fire shallow observers, skipping deleted types.
	for t, keys := range tx.Changed {
		if t.Deleted() {
			continue
		}
		e := &Event{Target: t, CurrentTarget: t, Transaction: tx, Keys: tx.keysFor(t)}
		_ = keys
		obsErrs = append(obsErrs, t.callShallow(e)...)
	}

	// 4. Fire deep observers, filtering deleted targets.
	for t, events := range tx.ChangedParents {
		if t.Deleted() {
			continue
		}
		obsErrs = append(obsErrs, t.callDeep(events, tx)...)
	}

	// 5. Run GC pass on delete set.
	if doc.GC {
		runGC(doc, tx)
	}

	// 6. Run merge pass (right-to-left within each affected client).
	runMergePass(doc, tx)

	// 7. Process merge_candidates.
	processMergeCandidates(doc, tx)

	// 8. Fire after_transaction_cleanup (merge tx.DeleteSet into doc's).
	doc.DeleteSet.Merge(tx.DeleteSet)

	// 9. If any listener is attached, compute and emit the update.
	if len(doc.UpdateListeners) > 0 && doc.EncodeUpdate != nil && transactionHasChanges(tx) {
		update := doc.EncodeUpdate(tx)
		for _, l := range doc.UpdateListeners {
			l(update, tx.Origin, doc)
		}
	}

	return multierr.Combine(obsErrs...)
}

func transactionHasChanges(tx *Transaction) bool {
	if len(tx.Changed) > 0 {
		return true
	}
	return !tx.DeleteSet.IsEmpty()
}

func (tx *Transaction) keysFor(t *TypeInstance) map[string]*KeyChange {
	return tx.mapKeyChanges[t]
}

// recordChanged marks typ as touched by key (nil for non-keyed changes)
// during this transaction, and bubbles a deep-observer Event up through
// every ancestor's ChangedParents.
func (tx *Transaction) recordChanged(typ *TypeInstance, key *string) {
	if tx.Changed[typ] == nil {
		tx.Changed[typ] = make(map[*string]struct{})
	}
	tx.Changed[typ][key] = struct{}{}

	e := &Event{Target: typ, Transaction: tx, Keys: tx.keysFor(typ)}
	for anc := typ; anc != nil; {
		ev := *e
		ev.CurrentTarget = anc
		tx.ChangedParents[anc] = append(tx.ChangedParents[anc], &ev)
		if anc.Item == nil {
			break
		}
		anc = anc.Item.Parent
	}
}

// recordKeyChange records the map-key-level action for observer
// payloads (spec §6 "maps report the set of changed keys").
func (tx *Transaction) recordKeyChange(typ *TypeInstance, key string, action ChangeKind, oldValue any) {
	m := tx.mapKeyChanges[typ]
	if m == nil {
		m = make(map[string]*KeyChange)
		tx.mapKeyChanges[typ] = m
	}
	if existing, ok := m[key]; ok {
		// Multiple ops on the same key within one transaction collapse:
		// keep the earliest OldValue, latest Action except Delete-then-Add
		// which is reported as Update.
		if existing.Action == ChangeDelete && action == ChangeAdd {
			existing.Action = ChangeUpdate
			return
		}
		existing.Action = action
		return
	}
	m[key] = &KeyChange{Action: action, OldValue: oldValue}
}
