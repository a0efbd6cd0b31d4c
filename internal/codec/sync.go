package codec

import "fmt"

// Sync protocol message tags (spec §6 "Sync protocol"), a single
// varuint at the front of the message.
const (
	MessageSyncStep1 uint64 = 0
	MessageSyncStep2 uint64 = 1
	MessageUpdate    uint64 = 2
)

// EncodeSyncStep1 wraps a state vector as a sync-step-1 message.
func EncodeSyncStep1(sv map[uint32]uint32) []byte {
	e := NewEncoder()
	e.Uvarint(MessageSyncStep1)
	e.Blob(EncodeStateVector(sv))
	return e.Bytes()
}

// EncodeSyncStep2 wraps an update as a sync-step-2 message.
func EncodeSyncStep2(update []byte) []byte {
	e := NewEncoder()
	e.Uvarint(MessageSyncStep2)
	e.Blob(update)
	return e.Bytes()
}

// EncodeUpdateMessage wraps an update as a plain update message (used
// for the 'update' broadcast rather than a handshake reply).
func EncodeUpdateMessage(update []byte) []byte {
	e := NewEncoder()
	e.Uvarint(MessageUpdate)
	e.Blob(update)
	return e.Bytes()
}

// DecodeMessage reads the leading tag and payload blob common to all
// three sync message shapes; callers switch on tag to interpret payload
// (a state vector for SyncStep1, an update for the other two).
func DecodeMessage(data []byte) (tag uint64, payload []byte, err error) {
	d := NewDecoder(data)
	tag, err = d.Uvarint()
	if err != nil {
		return 0, nil, err
	}
	payload, err = d.Blob()
	if err != nil {
		return 0, nil, err
	}
	if tag > MessageUpdate {
		return 0, nil, fmt.Errorf("ydoc/codec: unknown sync message tag %d", tag)
	}
	return tag, payload, nil
}
