package codec

import "sort"

// EncodeStateVector serializes {client -> next_clock} as varuint pairs
// (spec §4.8, §6 encode_state_vector).
func EncodeStateVector(sv map[uint32]uint32) []byte {
	e := NewEncoder()
	clients := sortedClients(sv)
	e.Uvarint(uint64(len(clients)))
	for _, c := range clients {
		e.Uint32(c)
		e.Uint32(sv[c])
	}
	return e.Bytes()
}

// DecodeStateVector parses the output of EncodeStateVector.
func DecodeStateVector(data []byte) (map[uint32]uint32, error) {
	d := NewDecoder(data)
	n, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	sv := make(map[uint32]uint32, n)
	for i := uint64(0); i < n; i++ {
		client, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		clock, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		sv[client] = clock
	}
	return sv, nil
}

func sortedClients(sv map[uint32]uint32) []uint32 {
	out := make([]uint32, 0, len(sv))
	for c := range sv {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
