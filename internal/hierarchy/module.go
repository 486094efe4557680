// Package hierarchy indexes the classes of a Python project: per-module import tables,
// fully qualified base names and inheritance edges between project classes.
package hierarchy

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/syntax"
)

// Module is one parsed source file of the project.
type Module struct {
	Name      string
	Path      string
	IsPackage bool
	File      *syntax.File
	Imports   Imports
	Classes   []*ClassInfo
}

// ModuleName derives a dotted module name from a path relative to the project root:
// pkg/mod.py is pkg.mod and pkg/__init__.py is the package pkg.
func ModuleName(root, path string) (name string, isPackage bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".pyi")
	rel = strings.TrimSuffix(rel, ".py")

	parts := strings.Split(rel, "/")
	if len(parts) > 1 && parts[len(parts)-1] == "__init__" {
		return strings.Join(parts[:len(parts)-1], "."), true
	}
	if rel == "__init__" {
		return "", true
	}
	return strings.Join(parts, "."), false
}

// Imports maps a local name to the fully qualified name it is bound to.
type Imports map[string]string

// ReadImports collects import bindings anywhere in the file, conditional imports included.
// Star imports bind nothing.
func ReadImports(f *syntax.File, module string, isPackage bool) Imports {
	imports := Imports{}
	syntax.Walk(f.Root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			for _, child := range syntax.NamedChildren(n) {
				imports.bindModule(child, f.Source)
			}
			return false
		case "import_from_statement":
			imports.bindFrom(n, f.Source, module, isPackage)
			return false
		}
		return true
	})
	return imports
}

// bindModule handles "import a.b" (binds a) and "import a.b as c" (binds c to a.b).
func (imp Imports) bindModule(n *sitter.Node, source []byte) {
	switch n.Type() {
	case "dotted_name":
		full := n.Content(source)
		head, _, _ := strings.Cut(full, ".")
		imp[head] = head
	case "aliased_import":
		name := n.ChildByFieldName("name")
		alias := n.ChildByFieldName("alias")
		if name != nil && alias != nil {
			imp[alias.Content(source)] = name.Content(source)
		}
	}
}

// bindFrom handles "from m import x [as y]", relative forms included.
func (imp Imports) bindFrom(n *sitter.Node, source []byte, module string, isPackage bool) {
	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	from, ok := fromModule(moduleNode, source, module, isPackage)
	if !ok {
		return
	}

	for _, child := range syntax.NamedChildren(n) {
		if child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			name := child.Content(source)
			imp[name] = join(from, name)
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name != nil && alias != nil {
				imp[alias.Content(source)] = join(from, name.Content(source))
			}
		}
	}
}

// fromModule resolves the module of a from-import, following leading dots for relative imports.
func fromModule(n *sitter.Node, source []byte, module string, isPackage bool) (string, bool) {
	if n.Type() != "relative_import" {
		return n.Content(source), true
	}

	text := n.Content(source)
	level := len(text) - len(strings.TrimLeft(text, "."))
	rest := strings.TrimLeft(text, ".")

	pkg := strings.Split(module, ".")
	if module == "" {
		pkg = nil
	}
	if !isPackage && len(pkg) > 0 {
		pkg = pkg[:len(pkg)-1]
	}
	if level-1 >= len(pkg) {
		return "", false
	}
	pkg = pkg[:len(pkg)-(level-1)]
	return join(strings.Join(pkg, "."), rest), true
}

func join(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	}
	return prefix + "." + name
}

// FullName resolves a name or attribute chain through the module's imports. Names that are not
// imported belong to the module itself. Subscripts resolve to their subject; other shapes fail.
func (m *Module) FullName(expr *sitter.Node) (string, bool) {
	expr = syntax.Subject(expr)
	if expr == nil {
		return "", false
	}
	switch expr.Type() {
	case syntax.TypeIdentifier:
		name := expr.Content(m.File.Source)
		if full, ok := m.Imports[name]; ok {
			return full, true
		}
		return join(m.Name, name), true
	case syntax.TypeAttribute:
		object, ok := m.FullName(expr.ChildByFieldName("object"))
		attr := expr.ChildByFieldName("attribute")
		if !ok || attr == nil {
			return "", false
		}
		return object + "." + attr.Content(m.File.Source), true
	}
	return "", false
}
