package codec

import "github.com/colladoc/ydoc/internal/core"

func encodeID(e *Encoder, id core.ID) {
	e.Uint32(id.Client)
	e.Uint32(id.Clock)
}

func decodeID(d *Decoder) (core.ID, error) {
	client, err := d.Uint32()
	if err != nil {
		return core.ID{}, err
	}
	clock, err := d.Uint32()
	if err != nil {
		return core.ID{}, err
	}
	return core.ID{Client: client, Clock: clock}, nil
}
