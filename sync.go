package ydoc

import "github.com/colladoc/ydoc/internal/codec"

// SyncStep1 returns this document's encoded state vector wrapped as a
// sync-step-1 handshake message (spec.md §6 "Sync protocol").
func (d *Doc) SyncStep1() []byte {
	return codec.EncodeSyncStep1(d.StateVector())
}

// SyncStep2 answers a peer's sync-step-1 message: theirSV is the
// decoded state vector from their message, and the result is the
// differential update wrapped as a sync-step-2 reply.
func (d *Doc) SyncStep2(theirSV map[uint32]uint32) []byte {
	return codec.EncodeSyncStep2(d.EncodeStateAsUpdate(theirSV))
}

// UpdateMessage wraps an already-encoded update (e.g. from OnUpdate)
// as a plain update-broadcast message.
func UpdateMessage(update []byte) []byte {
	return codec.EncodeUpdateMessage(update)
}

// HandleSyncMessage decodes a sync-protocol message and applies it,
// returning a reply to send back to the sender (nil if none is
// needed): a sync-step-1 message is answered with sync-step-2, a
// sync-step-2 or plain update message is integrated and produces no
// reply.
func (d *Doc) HandleSyncMessage(data []byte, origin any) ([]byte, error) {
	tag, payload, err := codec.DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case codec.MessageSyncStep1:
		sv, err := codec.DecodeStateVector(payload)
		if err != nil {
			return nil, err
		}
		return d.SyncStep2(sv), nil
	case codec.MessageSyncStep2, codec.MessageUpdate:
		return nil, d.ApplyUpdate(payload, origin)
	default:
		return nil, nil
	}
}
