package codec

import (
	"bytes"
	"fmt"
)

// Decoder reads a wire-format byte stream produced by Encoder.
type Decoder struct {
	r *bytes.Reader
}

// NewDecoder wraps data for sequential reading.
func NewDecoder(data []byte) *Decoder { return &Decoder{r: bytes.NewReader(data)} }

// Uvarint reads a varuint, failing with ErrIntegerOutOfRange past 35
// bits (spec §7).
func (d *Decoder) Uvarint() (uint64, error) { return readUvarint(d.r) }

// Uint32 reads a varuint and narrows it to uint32.
func (d *Decoder) Uint32() (uint32, error) {
	v, err := readUvarint(d.r)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Byte reads a single raw byte.
func (d *Decoder) Byte() (byte, error) { return d.r.ReadByte() }

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	n, err := readUvarint(d.r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := d.r.Read(b); err != nil {
		return "", fmt.Errorf("ydoc/codec: truncated string: %w", err)
	}
	return string(b), nil
}

// Blob reads a length-prefixed byte blob.
func (d *Decoder) Blob() ([]byte, error) {
	n, err := readUvarint(d.r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := d.r.Read(b); err != nil {
		return nil, fmt.Errorf("ydoc/codec: truncated blob: %w", err)
	}
	return b, nil
}

// Bool reads a single 0/1 byte.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// Remaining reports how many bytes are left unread.
func (d *Decoder) Remaining() int { return d.r.Len() }
