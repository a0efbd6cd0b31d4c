package ydoc

import "github.com/colladoc/ydoc/internal/debug"

// Dump renders the document's full item graph, including nested types,
// as a printable tree — useful in tests for seeing exactly how
// concurrent inserts resolved once the YATA ordering has converged.
func (d *Doc) Dump() string { return debug.Dump(d.core) }
