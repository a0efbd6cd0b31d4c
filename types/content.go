// Package types implements the four shared-type facades spec.md §1
// names (array, map, text, xml) as thin layers over internal/core: each
// mutating method opens a transaction and calls straight into the core
// ops the spec scopes the facade itself out of (spec.md §1 "Explicitly
// out of scope: the high-level facade of each shared type"). They exist
// so the core's observable behavior (spec.md §8's S1-S6) is reachable
// through a public, idiomatic API.
package types

import "github.com/colladoc/ydoc/internal/core"

// contentForValues packs local-insert values into the JSON content
// variant (spec.md §3 "JSON(values[]) an array of JSON-serializable
// cells"), the catch-all content kind for array/map payloads that
// aren't raw bytes or a nested shared type.
func contentForValues(values []any) (core.Content, error) {
	if len(values) == 0 {
		return nil, core.ErrContentTypeMismatch
	}
	for _, v := range values {
		if _, ok := v.(*core.TypeInstance); ok && len(values) != 1 {
			return nil, core.ErrContentTypeMismatch
		}
	}
	if len(values) == 1 {
		if nested, ok := values[0].(*core.TypeInstance); ok {
			return &core.TypeContent{Inner: nested}, nil
		}
		if b, ok := values[0].([]byte); ok {
			return &core.BinaryContent{Data: b}, nil
		}
	}
	return &core.JSONContent{Values: values}, nil
}

// contentValue maps a content variant back to the Go value a caller of
// Get/ToSlice should see.
func contentValue(c core.Content) any {
	switch v := c.(type) {
	case *core.JSONContent:
		if len(v.Values) == 1 {
			return v.Values[0]
		}
		return v.Values
	case *core.BinaryContent:
		return v.Data
	case *core.StringContent:
		return v.String()
	case *core.TypeContent:
		return v.Inner
	case *core.EmbedContent:
		return v.Value
	default:
		return nil
	}
}
