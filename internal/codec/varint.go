// Package codec implements the binary update and state-vector wire
// format (spec §4.8): varuint-based encoding of the struct store and
// delete set, content-ref dispatch, and the sync-step-1/2 differential.
//
// This is one concern where no library in the example pack offers
// anything beyond what encoding/binary already provides — varuint
// encoding is a handful of bit-shift lines, and introducing a
// dependency for it would be pure cargo-culting. Every other concern
// in this module reaches for the pack's libraries; this one doesn't
// need to.
package codec

import (
	"bytes"
	"fmt"
)

// maxVarintBits mirrors spec §7's IntegerOutOfRange: decoding aborts
// past 35 bits rather than silently wrapping.
const maxVarintBits = 35

// ErrIntegerOutOfRange is returned when a varuint's encoding would
// require more than 35 bits, per spec §7.
var ErrIntegerOutOfRange = fmt.Errorf("ydoc/codec: varuint exceeds 35 bits")

func writeUvarint(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		if shift >= maxVarintBits {
			return 0, ErrIntegerOutOfRange
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("ydoc/codec: truncated varuint: %w", err)
		}
		result |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return result, nil
		}
		shift += 7
	}
}
