package hierarchy

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/syntax"
)

// ProtocolMarkers are the fully qualified names that make a class a Protocol.
var ProtocolMarkers = []string{"typing.Protocol", "typing_extensions.Protocol"}

// IsProtocolMarker reports whether fullname names the Protocol base marker.
func IsProtocolMarker(fullname string) bool {
	return lo.Contains(ProtocolMarkers, fullname)
}

// ClassInfo is a class node of the graph.
type ClassInfo struct {
	ID     string // module-qualified name, e.g. pkg.mod.Outer.Inner
	Name   string
	Module string
	Path   string
	// Line and EndLine span the class definition, 1-based and inclusive.
	Line    int
	EndLine int
	// Bases holds the fully qualified names of the declared bases; unresolvable shapes are left out.
	Bases   []string
	Methods []string
	// IsProtocol is set when a declared base is a Protocol marker.
	IsProtocol bool
	Class      *syntax.Class
}

// Edge represents a resolved inheritance link from a class to one of its bases.
type Edge struct {
	From string // subclass ID
	To   string // base class ID
	Kind string
}

const EdgeInherits = "inherits"

type UnresolvedReason string

const (
	// ReasonNoCandidate covers bases defined outside the project, such as Exception.
	ReasonNoCandidate UnresolvedReason = "no_candidate"
	ReasonAmbiguous   UnresolvedReason = "ambiguous"
)

// UnresolvedBase is a declared base that LinkBases could not map to a project class.
type UnresolvedBase struct {
	From   string // class ID
	Base   string // fully qualified base name
	Reason UnresolvedReason
}

// Graph manages project modules, their classes and inheritance edges.
type Graph struct {
	// Modules is keyed by file path. Two roots may hold modules with the same dotted name.
	Modules    map[string]*Module
	Classes    map[string]*ClassInfo
	Edges      []Edge
	Unresolved []UnresolvedBase

	// Index for faster lookup: simple or qualified name -> []ID
	nameIndex map[string][]string
	parents   map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Modules:   make(map[string]*Module),
		Classes:   make(map[string]*ClassInfo),
		Edges:     []Edge{},
		nameIndex: make(map[string][]string),
		parents:   make(map[string][]string),
	}
}

// NewModule builds a module from a parsed file, collecting imports and every class definition.
func NewModule(root string, f *syntax.File) *Module {
	name, isPackage := ModuleName(root, f.Path)
	m := &Module{
		Name:      name,
		Path:      f.Path,
		IsPackage: isPackage,
		File:      f,
		Imports:   ReadImports(f, name, isPackage),
	}

	syntax.Walk(f.Root, func(n *sitter.Node) bool {
		if n.Type() != syntax.TypeClass {
			return true
		}
		c, ok := syntax.ClassOf(n, f.Source)
		if !ok {
			return true
		}
		info := &ClassInfo{
			ID:      join(name, qualifiedName(n, f.Source)),
			Name:    c.Name,
			Module:  name,
			Path:    f.Path,
			Line:    syntax.PosOf(n).Line,
			EndLine: int(n.EndPoint().Row) + 1,
			Class:   c,
		}
		for _, base := range c.Bases {
			full, ok := m.FullName(base)
			if !ok {
				continue
			}
			info.Bases = append(info.Bases, full)
			if IsProtocolMarker(full) {
				info.IsProtocol = true
			}
		}
		for _, method := range c.Methods(f.Source) {
			info.Methods = append(info.Methods, method.Name)
		}
		m.Classes = append(m.Classes, info)
		return true
	})
	return m
}

// qualifiedName joins the names of the classes enclosing n with its own name.
func qualifiedName(n *sitter.Node, source []byte) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() != syntax.TypeClass {
			continue
		}
		if name := cur.ChildByFieldName("name"); name != nil {
			parts = append(parts, name.Content(source))
		}
	}
	slices.Reverse(parts)
	return strings.Join(parts, ".")
}

// AddModule adds a module and indexes its classes. A class redefined under the same ID keeps
// its first definition in the index.
func (g *Graph) AddModule(m *Module) {
	if m == nil {
		return
	}
	g.Modules[m.Path] = m
	for _, info := range m.Classes {
		if _, exists := g.Classes[info.ID]; exists {
			continue
		}
		g.Classes[info.ID] = info

		// Simple index: Name -> ID
		g.nameIndex[info.Name] = append(g.nameIndex[info.Name], info.ID)
	}
}

// LinkBases resolves every declared base to a project class and records inheritance edges.
func (g *Graph) LinkBases() {
	g.Edges = []Edge{} // Reset edges
	g.Unresolved = nil
	g.parents = make(map[string][]string)

	ids := lo.Keys(g.Classes)
	slices.Sort(ids)
	for _, id := range ids {
		for _, base := range g.Classes[id].Bases {
			if IsProtocolMarker(base) {
				continue
			}
			target, ok := g.Resolve(base)
			if !ok {
				g.Unresolved = append(g.Unresolved, UnresolvedBase{From: id, Base: base, Reason: g.unresolvedReason(base)})
				continue
			}
			if target.ID == id {
				continue
			}
			g.parents[id] = append(g.parents[id], target.ID)
			g.Edges = append(g.Edges, Edge{From: id, To: target.ID, Kind: EdgeInherits})
		}
	}
}

func (g *Graph) unresolvedReason(fullname string) UnresolvedReason {
	if len(g.nameIndex[simpleName(fullname)]) > 1 {
		return ReasonAmbiguous
	}
	return ReasonNoCandidate
}

// UnresolvedReasonCounts groups unresolved bases by reason.
func (g *Graph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		counts[u.Reason]++
	}
	return counts
}

func simpleName(fullname string) string {
	if i := strings.LastIndex(fullname, "."); i >= 0 {
		return fullname[i+1:]
	}
	return fullname
}

// Resolve finds the project class a fully qualified name refers to.
func (g *Graph) Resolve(fullname string) (*ClassInfo, bool) {
	if IsProtocolMarker(fullname) {
		return nil, false
	}

	// 1. Exact match
	if info, ok := g.Classes[fullname]; ok {
		return info, true
	}

	// 2. Re-exports: pkg.House defined in pkg/house.py
	simple := simpleName(fullname)
	ids := g.nameIndex[simple]
	if len(ids) == 1 {
		return g.Classes[ids[0]], true
	}

	// 3. Prefer a candidate in the same package tree when the simple name is ambiguous
	prefix := strings.TrimSuffix(fullname, "."+simple)
	candidates := lo.Filter(ids, func(id string, _ int) bool {
		return strings.HasPrefix(id, prefix+".")
	})
	if len(candidates) == 1 {
		return g.Classes[candidates[0]], true
	}
	return nil, false
}

// Ancestors returns the class followed by its ancestors, depth-first and left to right,
// each class once. Cycles are cut.
func (g *Graph) Ancestors(id string) []*ClassInfo {
	var out []*ClassInfo
	seen := make(map[string]bool)

	var visit func(string)
	visit = func(cur string) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		info, ok := g.Classes[cur]
		if !ok {
			return
		}
		out = append(out, info)
		for _, parent := range g.parents[cur] {
			visit(parent)
		}
	}
	visit(id)
	return out
}

// GetBases returns the resolved direct bases of a class.
func (g *Graph) GetBases(id string) []*ClassInfo {
	var bases []*ClassInfo
	for _, edge := range g.Edges {
		if edge.From == id {
			if info, ok := g.Classes[edge.To]; ok {
				bases = append(bases, info)
			}
		}
	}
	return bases
}

// GetSubclasses returns all classes that directly inherit from the given class.
func (g *Graph) GetSubclasses(id string) []*ClassInfo {
	var subs []*ClassInfo
	for _, edge := range g.Edges {
		if edge.To == id {
			if info, ok := g.Classes[edge.From]; ok {
				subs = append(subs, info)
			}
		}
	}
	return subs
}

// ModuleAt returns the module parsed from path.
func (g *Graph) ModuleAt(path string) (*Module, bool) {
	m, ok := g.Modules[path]
	return m, ok
}

// SortedModules returns the modules ordered by file path.
func (g *Graph) SortedModules() []*Module {
	modules := lo.Values(g.Modules)
	slices.SortFunc(modules, func(a, b *Module) int {
		return strings.Compare(a.Path, b.Path)
	})
	return modules
}
