package core

import "sort"

// Struct is either an *Item or a *GCNode: anything that can live in a
// client's append-only struct array.
type Struct interface {
	structID() ID
	structLength() int
}

func (it *Item) structID() ID      { return it.ID }
func (it *Item) structLength() int { return it.Length }

// GCNode is a length-carrying tombstone that replaces an Item whose
// content is no longer needed (spec §3, §4.5). It advertises Deleted
// true and participates in splitting but carries no content.
type GCNode struct {
	ID     ID
	Length int
}

func (g *GCNode) structID() ID      { return g.ID }
func (g *GCNode) structLength() int { return g.Length }

// NextClock returns the clock immediately following this GC run.
func (g *GCNode) NextClock() uint32 { return g.ID.Clock + uint32(g.Length) }

func splitIsGC(s Struct) (*GCNode, bool) { g, ok := s.(*GCNode); return g, ok }

// StructStore is the per-client append-only collection of structs
// (spec §3, §4.2). Each client's slice is sorted and gap-free: the
// struct at index i begins at prevClock+prevLength (invariant 1).
type StructStore struct {
	clients map[uint32][]Struct
}

// NewStructStore allocates an empty store.
func NewStructStore() *StructStore {
	return &StructStore{clients: make(map[uint32][]Struct)}
}

// nextClock returns the clock immediately following the last struct
// recorded for client, or 0 if the client is unknown.
func (s *StructStore) nextClock(client uint32) uint32 {
	arr := s.clients[client]
	if len(arr) == 0 {
		return 0
	}
	last := arr[len(arr)-1]
	return last.structID().Clock + uint32(last.structLength())
}

// NextClock is the exported form of nextClock, used by local operations
// to allocate a fresh id for the given client.
func (s *StructStore) NextClock(client uint32) uint32 { return s.nextClock(client) }

// StateVector derives {client -> next_clock} from the store (spec §3).
func (s *StructStore) StateVector() map[uint32]uint32 {
	sv := make(map[uint32]uint32, len(s.clients))
	for client := range s.clients {
		sv[client] = s.nextClock(client)
	}
	return sv
}

// Clients returns every client id with at least one struct recorded,
// sorted ascending for deterministic iteration order.
func (s *StructStore) Clients() []uint32 {
	out := make([]uint32, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Array exposes a client's struct slice directly; callers must not
// mutate the returned slice's length out of band (use Append/Replace).
func (s *StructStore) Array(client uint32) []Struct { return s.clients[client] }

// Append records a new struct, failing if it does not start exactly at
// the client's current next clock (spec §4.2).
func (s *StructStore) Append(st Struct) error {
	client := st.structID().Client
	want := s.nextClock(client)
	if st.structID().Clock != want {
		return invariant("append: struct does not start at the client's next clock")
	}
	s.clients[client] = append(s.clients[client], st)
	return nil
}

// FindIndex returns the index of the struct covering clock for client,
// or an error if clock lies outside the recorded range.
func (s *StructStore) FindIndex(client uint32, clock uint32) (int, error) {
	arr := s.clients[client]
	lo, hi := 0, len(arr)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		st := arr[mid]
		start := st.structID().Clock
		end := start + uint32(st.structLength())
		switch {
		case clock < start:
			hi = mid - 1
		case clock >= end:
			lo = mid + 1
		default:
			return mid, nil
		}
	}
	return 0, invariant("find_index: clock out of range for client")
}

// Find returns the struct covering id.
func (s *StructStore) Find(id ID) (Struct, error) {
	idx, err := s.FindIndex(id.Client, id.Clock)
	if err != nil {
		return nil, err
	}
	return s.clients[id.Client][idx], nil
}

// FindItem is Find specialized for callers that know the id refers to a
// live Item rather than a GC run.
func (s *StructStore) FindItem(id ID) (*Item, error) {
	st, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	it, ok := st.(*Item)
	if !ok {
		return nil, invariant("find_item: struct at id is a GC node, not an item")
	}
	return it, nil
}

// Replace swaps the struct at old's location with replacement in place.
func (s *StructStore) Replace(old Struct, replacement Struct) error {
	idx, err := s.FindIndex(old.structID().Client, old.structID().Clock)
	if err != nil {
		return err
	}
	s.clients[old.structID().Client][idx] = replacement
	return nil
}

// RemoveAt deletes the struct at index idx for client, used by the
// merge pass once a right-hand struct has been folded into its left
// neighbour.
func (s *StructStore) RemoveAt(client uint32, idx int) {
	arr := s.clients[client]
	s.clients[client] = append(arr[:idx], arr[idx+1:]...)
}

// GetItemCleanStart returns the item whose id.Clock equals id.Clock,
// splitting the covering item if necessary (spec §4.2).
func (s *StructStore) GetItemCleanStart(id ID) (*Item, error) {
	idx, err := s.FindIndex(id.Client, id.Clock)
	if err != nil {
		return nil, err
	}
	st := s.clients[id.Client][idx]
	if st.structID().Clock == id.Clock {
		it, ok := st.(*Item)
		if !ok {
			return nil, invariant("get_item_clean_start: struct is a GC node")
		}
		return it, nil
	}
	offset := int(id.Clock - st.structID().Clock)
	switch v := st.(type) {
	case *Item:
		right := v.splitAt(offset)
		s.clients[id.Client] = insertAfter(s.clients[id.Client], idx, right)
		return right, nil
	case *GCNode:
		right := &GCNode{ID: ID{Client: v.ID.Client, Clock: v.ID.Clock + uint32(offset)}, Length: v.Length - offset}
		v.Length = offset
		s.clients[id.Client] = insertAfter(s.clients[id.Client], idx, right)
		return nil, invariant("get_item_clean_start: id refers to a GC node")
	default:
		return nil, invariant("get_item_clean_start: unknown struct kind")
	}
}

// GetItemCleanEnd is symmetric to GetItemCleanStart, splitting so that
// id.Clock is the last clock of the returned (left) item.
func (s *StructStore) GetItemCleanEnd(id ID) (*Item, error) {
	idx, err := s.FindIndex(id.Client, id.Clock)
	if err != nil {
		return nil, err
	}
	st := s.clients[id.Client][idx]
	end := st.structID().Clock + uint32(st.structLength()) - 1
	if end == id.Clock {
		it, ok := st.(*Item)
		if !ok {
			return nil, invariant("get_item_clean_end: struct is a GC node")
		}
		return it, nil
	}
	offset := int(id.Clock-st.structID().Clock) + 1
	switch v := st.(type) {
	case *Item:
		v.splitAt(offset)
		s.clients[id.Client] = insertAfter(s.clients[id.Client], idx, v.Right)
		return v, nil
	case *GCNode:
		right := &GCNode{ID: ID{Client: v.ID.Client, Clock: v.ID.Clock + uint32(offset)}, Length: v.Length - offset}
		v.Length = offset
		s.clients[id.Client] = insertAfter(s.clients[id.Client], idx, right)
		return nil, invariant("get_item_clean_end: id refers to a GC node")
	default:
		return nil, invariant("get_item_clean_end: unknown struct kind")
	}
}

func insertAfter(arr []Struct, idx int, st Struct) []Struct {
	arr = append(arr, nil)
	copy(arr[idx+2:], arr[idx+1:])
	arr[idx+1] = st
	return arr
}

// Iterate visits every struct in [from, from+length) for client,
// splitting at boundaries on the fly, and calling f on each piece. f
// returning an error aborts iteration early.
func (s *StructStore) Iterate(client uint32, from uint32, length uint32, f func(Struct) error) error {
	if length == 0 {
		return nil
	}
	remainingEnd := from + length
	cur := from
	for cur < remainingEnd {
		idx, err := s.FindIndex(client, cur)
		if err != nil {
			return err
		}
		st := s.clients[client][idx]
		stEnd := st.structID().Clock + uint32(st.structLength())
		if st.structID().Clock < cur {
			// Need a clean start at cur.
			if _, err := s.GetItemCleanStart(ID{Client: client, Clock: cur}); err != nil {
				if _, isGC := splitIsGC(st); !isGC {
					return err
				}
			}
			idx, err = s.FindIndex(client, cur)
			if err != nil {
				return err
			}
			st = s.clients[client][idx]
			stEnd = st.structID().Clock + uint32(st.structLength())
		}
		if stEnd > remainingEnd {
			if _, err := s.GetItemCleanEnd(ID{Client: client, Clock: remainingEnd - 1}); err != nil {
				if _, isGC := splitIsGC(st); !isGC {
					return err
				}
			}
			idx, err = s.FindIndex(client, cur)
			if err != nil {
				return err
			}
			st = s.clients[client][idx]
		}
		if err := f(st); err != nil {
			return err
		}
		cur = st.structID().Clock + uint32(st.structLength())
	}
	return nil
}
