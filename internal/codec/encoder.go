package codec

import "bytes"

// Encoder accumulates a wire-format byte stream. All multi-byte
// integers are varuint; strings and byte blobs are length-prefixed.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated wire bytes.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Uvarint appends v as a varuint.
func (e *Encoder) Uvarint(v uint64) { writeUvarint(&e.buf, v) }

// Uint32 appends a uint32 as a varuint, the common case for clients,
// clocks and lengths which never exceed 32 bits on the wire.
func (e *Encoder) Uint32(v uint32) { writeUvarint(&e.buf, uint64(v)) }

// Byte appends a single raw byte (info-flag bytes, content-ref tags).
func (e *Encoder) Byte(b byte) { e.buf.WriteByte(b) }

// String appends a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	writeUvarint(&e.buf, uint64(len(s)))
	e.buf.WriteString(s)
}

// Blob appends a length-prefixed byte blob.
func (e *Encoder) Blob(b []byte) {
	writeUvarint(&e.buf, uint64(len(b)))
	e.buf.Write(b)
}

// Bool appends a single 0/1 byte.
func (e *Encoder) Bool(b bool) {
	if b {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}
