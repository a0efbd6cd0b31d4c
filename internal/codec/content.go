package codec

import (
	"encoding/json"
	"fmt"

	"github.com/colladoc/ydoc/internal/core"
)

// jsonUndefinedLiteral is how the wire format spells core.Undefined
// inside a JSON content cell, to keep it distinguishable from JSON null
// (spec §4.8, §9 open question on undefined-vs-null).
const jsonUndefinedLiteral = "undefined"

func encodeContent(e *Encoder, c core.Content) error {
	switch v := c.(type) {
	case *core.DeletedContent:
		e.Uvarint(uint64(v.Length))
	case *core.JSONContent:
		cells := make([]any, len(v.Values))
		for i, val := range v.Values {
			if val == core.Undefined {
				cells[i] = jsonUndefinedLiteral
				continue
			}
			cells[i] = val
		}
		b, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("ydoc/codec: encode json content: %w", err)
		}
		e.Blob(b)
	case *core.BinaryContent:
		e.Blob(v.Data)
	case *core.StringContent:
		e.String(v.String())
	case *core.EmbedContent:
		b, err := json.Marshal(v.Value)
		if err != nil {
			return fmt.Errorf("ydoc/codec: encode embed content: %w", err)
		}
		e.Blob(b)
	case *core.FormatContent:
		e.String(v.Key)
		b, err := json.Marshal(v.Value)
		if err != nil {
			return fmt.Errorf("ydoc/codec: encode format content: %w", err)
		}
		e.Blob(b)
	case *core.TypeContent:
		e.Byte(typeConstructorTag(v.Inner.Kind))
	default:
		return fmt.Errorf("ydoc/codec: unknown content variant %T", c)
	}
	return nil
}

func decodeContent(d *Decoder, ref byte) (core.Content, error) {
	switch ref {
	case core.RefDeleted:
		n, err := d.Uvarint()
		if err != nil {
			return nil, err
		}
		return &core.DeletedContent{Length: int(n)}, nil
	case core.RefJSON:
		b, err := d.Blob()
		if err != nil {
			return nil, err
		}
		var cells []any
		if err := json.Unmarshal(b, &cells); err != nil {
			return nil, fmt.Errorf("ydoc/codec: decode json content: %w", err)
		}
		for i, v := range cells {
			if s, ok := v.(string); ok && s == jsonUndefinedLiteral {
				cells[i] = core.Undefined
			}
		}
		return &core.JSONContent{Values: cells}, nil
	case core.RefBinary:
		b, err := d.Blob()
		if err != nil {
			return nil, err
		}
		return &core.BinaryContent{Data: b}, nil
	case core.RefString:
		s, err := d.String()
		if err != nil {
			return nil, err
		}
		return core.NewStringContent(s), nil
	case core.RefEmbed:
		b, err := d.Blob()
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("ydoc/codec: decode embed content: %w", err)
		}
		return &core.EmbedContent{Value: v}, nil
	case core.RefFormat:
		key, err := d.String()
		if err != nil {
			return nil, err
		}
		b, err := d.Blob()
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("ydoc/codec: decode format content: %w", err)
		}
		return &core.FormatContent{Key: key, Value: v}, nil
	case core.RefType:
		tag, err := d.Byte()
		if err != nil {
			return nil, err
		}
		kind, err := typeKindFromTag(tag)
		if err != nil {
			return nil, err
		}
		return &core.TypeContent{Inner: core.NewTypeInstance(kind)}, nil
	default:
		return nil, fmt.Errorf("ydoc/codec: unknown content ref %d", ref)
	}
}

func typeConstructorTag(kind byte) byte { return kind }

func typeKindFromTag(tag byte) (byte, error) {
	switch tag {
	case core.TypeArray, core.TypeMap, core.TypeText, core.TypeXMLFragment, core.TypeXMLElement, core.TypeXMLHook, core.TypeXMLText:
		return tag, nil
	default:
		return 0, fmt.Errorf("ydoc/codec: unknown type constructor tag %d", tag)
	}
}
