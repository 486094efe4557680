// Package syntax wraps tree-sitter's Python grammar with the small set of shape queries the
// rules need: class and function views, statement kinds, literals and positions.
package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// File is one parsed source unit.
type File struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
	// Root is where traversals start. It is the module node unless the file was scoped.
	Root *sitter.Node
}

// Text returns the source text of n, or "" for a nil node.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.Source)
}

// Scoped returns a view of the same file whose traversals start at n.
func (f *File) Scoped(n *sitter.Node) *File {
	scoped := *f
	scoped.Root = n
	return &scoped
}

// Pos is a source position: 1-based line, 0-based byte column.
type Pos struct {
	Line   int
	Column int
}

// PosOf returns the start position of n.
func PosOf(n *sitter.Node) Pos {
	if n == nil {
		return Pos{Line: 1}
	}
	p := n.StartPoint()
	return Pos{
		Line:   int(p.Row) + 1,
		Column: int(p.Column),
	}
}
