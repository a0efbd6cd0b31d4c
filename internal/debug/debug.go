// Package debug renders a document's item graph as an indented tree,
// the idiomatic-Go analogue of dlmiddlecote-crdt's CRDT.String(), which
// walks its node tree into a github.com/xlab/treeprint.Tree. Purely
// diagnostic: nothing in internal/core ever calls into this package.
package debug

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"

	"github.com/colladoc/ydoc/internal/core"
)

// Dump renders every root type in doc and its full item graph,
// including nested types, as a printable tree. Useful in tests and
// interactive debugging for seeing exactly how concurrent inserts
// resolved (spec §4.3's YATA ordering is otherwise invisible once
// converged).
func Dump(doc *core.Doc) string {
	tree := treeprint.New()
	roots := doc.Roots()
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		root := roots[name]
		branch := tree.AddBranch(fmt.Sprintf("%s (kind=%d len=%d)", name, root.Kind, root.Length))
		addItems(branch, root)
	}
	return tree.String()
}

func addItems(t treeprint.Tree, typ *core.TypeInstance) {
	for it := typ.Head; it != nil; it = it.Right {
		sub := ""
		if it.ParentSub != nil {
			sub = fmt.Sprintf(" key=%q", *it.ParentSub)
		}
		label := fmt.Sprintf("%s len=%d deleted=%v%s %s", it.ID, it.Length, it.Deleted, sub, describeContent(it.Content))
		branch := t.AddBranch(label)
		if tc, ok := it.Content.(*core.TypeContent); ok {
			addItems(branch, tc.Inner)
		}
	}
}

func describeContent(c core.Content) string {
	switch v := c.(type) {
	case *core.StringContent:
		return fmt.Sprintf("string(%q)", v.String())
	case *core.JSONContent:
		return fmt.Sprintf("json(%d cells)", len(v.Values))
	case *core.BinaryContent:
		return fmt.Sprintf("binary(%d bytes)", len(v.Data))
	case *core.EmbedContent:
		return "embed"
	case *core.FormatContent:
		return fmt.Sprintf("format(%s)", v.Key)
	case *core.TypeContent:
		return "type"
	case *core.DeletedContent:
		return "tombstone"
	default:
		return "?"
	}
}
