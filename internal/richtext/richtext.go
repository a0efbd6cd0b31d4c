// Package richtext implements the three text-editing primitives that
// sit on top of a Text-kind core.TypeInstance: insertText, formatText
// and deleteText, plus delta computation from a transaction's recorded
// changes (spec §4.10).
package richtext

import (
	"github.com/colladoc/ydoc/internal/core"
)

// cursor is the (left, right, attrs) triple every primitive advances.
type cursor struct {
	left, right *core.Item
	attrs       map[string]any
}

// attrsAt walks parent's item list from the head up to (but not
// including) stop, folding Format items left-to-right to compute the
// cumulative attribute state (spec §4.10 "Formatting state at a
// position is the cumulative effect of Format items scanned
// left-to-right").
func attrsAt(parent *core.TypeInstance, stop *core.Item) map[string]any {
	attrs := make(map[string]any)
	for it := parent.Head; it != nil && it != stop; it = it.Right {
		if it.Deleted {
			continue
		}
		if f, ok := it.Content.(*core.FormatContent); ok {
			if f.Value == nil {
				delete(attrs, f.Key)
			} else {
				attrs[f.Key] = f.Value
			}
		}
	}
	return attrs
}

func cursorAt(parent *core.TypeInstance, idx int) (cursor, error) {
	left, right, err := core.CursorAt(parent.Doc.Store, parent, idx)
	if err != nil {
		return cursor{}, err
	}
	return cursor{left: left, right: right, attrs: attrsAt(parent, right)}, nil
}

// minimizeAttributeChanges advances c.right past any Format item that
// already matches desired, per key, so unaffected attributes are left
// untouched rather than redundantly toggled (spec §4.10 step 1).
func minimizeAttributeChanges(c *cursor, desired map[string]any) {
	for c.right != nil {
		if c.right.Deleted {
			c.left, c.right = c.right, c.right.Right
			continue
		}
		f, ok := c.right.Content.(*core.FormatContent)
		if !ok {
			break
		}
		want, present := desired[f.Key]
		if !present || !equalAttr(want, f.Value) {
			break
		}
		c.left, c.right = c.right, c.right.Right
	}
}

func equalAttr(a, b any) bool {
	return a == b
}

// InsertText inserts text at idx with the given desired attributes,
// emitting the minimal set of Format items needed around it (spec
// §4.10 insertText).
func InsertText(tx *core.Transaction, parent *core.TypeInstance, idx int, text string, desired map[string]any) error {
	c, err := cursorAt(parent, idx)
	if err != nil {
		return err
	}
	// Attributes in effect at idx that desired does not list are switched
	// off, so a nil desired map inserts unformatted text.
	effective := copyAttrs(desired)
	for key := range c.attrs {
		if _, ok := effective[key]; !ok {
			effective[key] = nil
		}
	}
	desired = effective
	minimizeAttributeChanges(&c, desired)

	negations := make(map[string]any)
	for key, want := range desired {
		if equalAttr(c.attrs[key], want) {
			continue
		}
		var neg any
		if v, ok := c.attrs[key]; ok {
			neg = v
		} else {
			neg = nil
		}
		negations[key] = neg
		it, err := tx.InsertContent(parent, nil, c.left, c.right, &core.FormatContent{Key: key, Value: want})
		if err != nil {
			return err
		}
		c.left = it
	}

	it, err := tx.InsertContent(parent, nil, c.left, c.right, core.NewStringContent(text))
	if err != nil {
		return err
	}
	c.left = it

	// Walk right skipping deleted items and Format items that already
	// negate correctly, then insert whatever negations remain.
	cur := c.right
	for cur != nil && len(negations) > 0 {
		if cur.Deleted {
			cur = cur.Right
			continue
		}
		f, ok := cur.Content.(*core.FormatContent)
		if !ok {
			break
		}
		if neg, present := negations[f.Key]; present && equalAttr(neg, f.Value) {
			delete(negations, f.Key)
			cur = cur.Right
			continue
		}
		break
	}
	for key, neg := range negations {
		newIt, err := tx.InsertContent(parent, nil, c.left, cur, &core.FormatContent{Key: key, Value: neg})
		if err != nil {
			return err
		}
		c.left = newIt
	}
	return nil
}

// FormatText applies attrs to length visible units starting at idx
// (spec §4.10 formatText). If the sequence is shorter than idx+length,
// it is padded with newline string items first, matching the editor
// convention the spec calls out.
func FormatText(tx *core.Transaction, parent *core.TypeInstance, idx int, length int, attrs map[string]any) error {
	if parent.Length < idx+length {
		pad := idx + length - parent.Length
		if err := InsertText(tx, parent, parent.Length, newlineRun(pad), nil); err != nil {
			return err
		}
	}

	c, err := cursorAt(parent, idx)
	if err != nil {
		return err
	}
	minimizeAttributeChanges(&c, attrs)

	running := copyAttrs(c.attrs)
	remaining := length
	cur := c.right
	var lastLeft *core.Item = c.left
	for cur != nil && remaining > 0 {
		if cur.Deleted {
			cur = cur.Right
			continue
		}
		if f, ok := cur.Content.(*core.FormatContent); ok {
			if want, present := attrs[f.Key]; present && !equalAttr(want, f.Value) {
				if err := tx.DeleteItem(cur); err != nil {
					return err
				}
			} else if f.Value == nil {
				delete(running, f.Key)
			} else {
				running[f.Key] = f.Value
			}
			lastLeft = cur
			cur = cur.Right
			continue
		}
		remaining -= cur.Length
		lastLeft = cur
		cur = cur.Right
	}

	negations := make(map[string]any)
	for key, want := range attrs {
		if equalAttr(running[key], want) {
			continue
		}
		var neg any
		if v, ok := running[key]; ok {
			neg = v
		}
		negations[key] = neg
	}
	for key, neg := range negations {
		newIt, err := tx.InsertContent(parent, nil, lastLeft, cur, &core.FormatContent{Key: key, Value: neg})
		if err != nil {
			return err
		}
		lastLeft = newIt
	}
	return nil
}

func newlineRun(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = '\n'
	}
	return string(b)
}

func copyAttrs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DeleteText deletes length visible units starting at idx (spec §4.10
// deleteText). Format items inside the range are skipped and never
// themselves deleted; no running attribute state is tracked.
func DeleteText(tx *core.Transaction, parent *core.TypeInstance, idx int, length int) error {
	return core.DeleteVisibleRange(tx, parent, idx, length)
}

// DeltaOp is one run-length entry in a computed delta stream.
type DeltaOp struct {
	Insert     string
	Retain     int
	Delete     int
	Attributes map[string]any
}

// Delta iterates parent's current item list once, producing a
// run-length stream of insert ops for the visible text, each carrying
// the attributes in effect over that run (spec §4.10 "Computing a
// delta from an event"). It takes no prior snapshot, so it never emits
// retain or delete ops, and embed items are not represented in it.
func Delta(parent *core.TypeInstance) []DeltaOp {
	var ops []DeltaOp
	var curText []rune
	var curAttrs map[string]any

	flush := func() {
		if len(curText) == 0 {
			return
		}
		ops = append(ops, DeltaOp{Insert: string(curText), Attributes: curAttrs})
		curText = nil
		curAttrs = nil
	}

	running := make(map[string]any)
	for it := parent.Head; it != nil; it = it.Right {
		if it.Deleted {
			continue
		}
		switch c := it.Content.(type) {
		case *core.FormatContent:
			flush()
			if c.Value == nil {
				delete(running, c.Key)
			} else {
				running[c.Key] = c.Value
			}
		case *core.StringContent:
			if curAttrs == nil || !attrsEqual(curAttrs, running) {
				flush()
				curAttrs = copyAttrs(running)
			}
			curText = append(curText, c.Text...)
		default:
			flush()
		}
	}
	flush()
	return ops
}

func attrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || !equalAttr(v, bv) {
			return false
		}
	}
	return true
}
