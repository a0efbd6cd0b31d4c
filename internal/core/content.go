package core

// Content is the capability set every payload an Item may carry must
// implement (spec §9 "Polymorphism over content"). Dispatch is by
// concrete type via a flat switch in the few places that need it
// (merge pass, GC, codec) rather than by virtual method proliferation,
// matching the teacher's preference for small, concrete types over deep
// interface hierarchies.
type Content interface {
	// Len reports how many logical positions this content occupies.
	Len() int
	// Countable reports whether this content contributes to its parent's
	// length counter (spec invariant 5).
	Countable() bool
	// Splice divides the content at offset, mutating the receiver to be
	// the left part and returning a new Content for the right part.
	Splice(offset int) Content
	// TryMergeWith attempts to fold other (which must immediately follow
	// the receiver) into the receiver. Returns false, leaving both sides
	// untouched, when merging is unsound or unsupported for this variant.
	TryMergeWith(other Content) bool
	// Ref is the wire-format content-ref tag (spec §4.8).
	Ref() byte
}

// Content-ref tags, spec §4.8.
const (
	RefDeleted byte = 1
	RefJSON    byte = 2
	RefBinary  byte = 3
	RefString  byte = 4
	RefEmbed   byte = 5
	RefFormat  byte = 6
	RefType    byte = 7
)

// DeletedContent is the tombstone content variant: a run of len deleted
// positions with no payload.
type DeletedContent struct {
	Length int
}

func (c *DeletedContent) Len() int                          { return c.Length }
func (c *DeletedContent) Countable() bool                    { return false }
func (c *DeletedContent) Ref() byte                           { return RefDeleted }
func (c *DeletedContent) Splice(offset int) Content {
	right := &DeletedContent{Length: c.Length - offset}
	c.Length = offset
	return right
}
func (c *DeletedContent) TryMergeWith(other Content) bool {
	o, ok := other.(*DeletedContent)
	if !ok {
		return false
	}
	c.Length += o.Length
	return true
}

// undefinedMarker is how the wire/JSON cell distinguishes JS-style
// "undefined" from JSON null, per spec §4.8 and the open question in §9.
type undefinedMarker struct{}

// Undefined is the sentinel cell value representing an explicitly
// unset (as opposed to null) JSON slot.
var Undefined = undefinedMarker{}

// JSONContent carries an array of JSON-serializable cells; each cell may
// be any of: nil (JSON null), Undefined, bool, float64, string,
// []any, map[string]any.
type JSONContent struct {
	Values []any
}

func (c *JSONContent) Len() int       { return len(c.Values) }
func (c *JSONContent) Countable() bool { return true }
func (c *JSONContent) Ref() byte       { return RefJSON }
func (c *JSONContent) Splice(offset int) Content {
	right := &JSONContent{Values: append([]any(nil), c.Values[offset:]...)}
	c.Values = c.Values[:offset]
	return right
}
func (c *JSONContent) TryMergeWith(other Content) bool {
	o, ok := other.(*JSONContent)
	if !ok {
		return false
	}
	c.Values = append(c.Values, o.Values...)
	return true
}

// BinaryContent carries an opaque byte payload occupying a single
// logical position, matching the reference's "ItemBinary does not
// implement merging" note (spec §9 open question): merging binary
// items is left unimplemented here too, since the spec only requires
// soundness, not completeness.
type BinaryContent struct {
	Data []byte
}

func (c *BinaryContent) Len() int                 { return 1 }
func (c *BinaryContent) Countable() bool           { return true }
func (c *BinaryContent) Ref() byte                 { return RefBinary }
func (c *BinaryContent) Splice(offset int) Content {
	// Binary content is a single indivisible position; splice at offset 0
	// or 1 only, matching the reference behavior of treating it as length 1.
	if offset == 0 {
		return &BinaryContent{Data: c.Data}
	}
	return &DeletedContent{Length: 0}
}
func (c *BinaryContent) TryMergeWith(other Content) bool { return false }

// StringContent carries UTF-16-agnostic text (runes, to stay
// idiomatic Go rather than emulating JS UTF-16 code units). Length is
// measured in runes, one logical position per rune.
type StringContent struct {
	Text []rune
}

func NewStringContent(s string) *StringContent {
	return &StringContent{Text: []rune(s)}
}

func (c *StringContent) String() string  { return string(c.Text) }
func (c *StringContent) Len() int        { return len(c.Text) }
func (c *StringContent) Countable() bool { return true }
func (c *StringContent) Ref() byte       { return RefString }
func (c *StringContent) Splice(offset int) Content {
	right := &StringContent{Text: append([]rune(nil), c.Text[offset:]...)}
	c.Text = c.Text[:offset]
	return right
}
func (c *StringContent) TryMergeWith(other Content) bool {
	o, ok := other.(*StringContent)
	if !ok {
		return false
	}
	c.Text = append(c.Text, o.Text...)
	return true
}

// EmbedContent carries a single opaque, non-text object (an image, a
// widget descriptor) embedded inline in rich text.
type EmbedContent struct {
	Value any
}

func (c *EmbedContent) Len() int                          { return 1 }
func (c *EmbedContent) Countable() bool                    { return true }
func (c *EmbedContent) Ref() byte                          { return RefEmbed }
func (c *EmbedContent) Splice(offset int) Content          { return &DeletedContent{Length: 0} }
func (c *EmbedContent) TryMergeWith(other Content) bool    { return false }

// FormatContent is a zero-width marker that toggles an inline text
// attribute when scanned left-to-right (spec §4.10). It is never
// countable: it occupies a logical position but contributes nothing to
// a parent's visible length.
type FormatContent struct {
	Key   string
	Value any
}

func (c *FormatContent) Len() int                       { return 1 }
func (c *FormatContent) Countable() bool                 { return false }
func (c *FormatContent) Ref() byte                       { return RefFormat }
func (c *FormatContent) Splice(offset int) Content       { return &DeletedContent{Length: 0} }
func (c *FormatContent) TryMergeWith(other Content) bool { return false }

// TypeContent holds a pointer to a nested shared type (an Array-shaped,
// Map-shaped, Text-shaped or XML-shaped TypeInstance living as the
// payload of a single Item).
type TypeContent struct {
	Inner *TypeInstance
}

func (c *TypeContent) Len() int                          { return 1 }
func (c *TypeContent) Countable() bool                    { return true }
func (c *TypeContent) Ref() byte                          { return RefType }
func (c *TypeContent) Splice(offset int) Content          { return &DeletedContent{Length: 0} }
func (c *TypeContent) TryMergeWith(other Content) bool    { return false }

// Nested type constructor tags, spec §4.8.
const (
	TypeArray byte = iota
	TypeMap
	TypeText
	TypeXMLFragment
	TypeXMLElement
	TypeXMLHook
	TypeXMLText

	// TypeUnknown marks a root type instance materialized on demand by
	// the codec, before any local Get<Kind>(name) call has pinned its
	// actual constructor (spec §4.9: a remote struct may arrive anchored
	// to a root name this peer hasn't looked up yet). The first local
	// Get<Kind> call upgrades it in place; see Doc.Root.
	TypeUnknown byte = 0xFF
)
