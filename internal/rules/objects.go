package rules

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/classify"
	"pyeo/internal/syntax"
)

// NoMutableObjects requires plain classes to carry a frozen decorator.
type NoMutableObjects struct {
	collector
}

func NewNoMutableObjects(Options) *NoMutableObjects {
	return &NoMutableObjects{}
}

func (v *NoMutableObjects) Visit(f *syntax.File) {
	eachClass(f, func(c *syntax.Class) {
		v.CheckClass(f, c)
	})
}

func (v *NoMutableObjects) CheckClass(f *syntax.File, c *syntax.Class) {
	if classify.Class(c, f.Source).NotPlainObject() {
		return
	}
	if lo.ContainsBy(c.Decorators, func(d *sitter.Node) bool { return isFrozenMarker(d, f.Source) }) {
		return
	}
	v.report(c.Node, CodeNotFrozen, "class must be frozen")
}

// frozenFactories take a frozen=True keyword: attrs.define, dataclasses.dataclass, attr.s, attr.attrs.
var frozenFactories = []string{"define", "dataclass", "s", "attrs"}

// isFrozenMarker accepts @frozen, @attrs.frozen, @frozen() and @define(frozen=True) spellings.
func isFrozenMarker(d *sitter.Node, source []byte) bool {
	d = syntax.Unparen(d)
	callee := syntax.Callee(d)
	if callee == nil {
		name, ok := syntax.TerminalName(d, source)
		return ok && name == "frozen"
	}

	name, ok := syntax.TerminalName(callee, source)
	if !ok {
		return false
	}
	if name == "frozen" {
		return true
	}
	if !lo.Contains(frozenFactories, name) {
		return false
	}
	for _, arg := range syntax.NamedChildren(d.ChildByFieldName("arguments")) {
		if arg.Type() != syntax.TypeKeywordArg {
			continue
		}
		key := arg.ChildByFieldName("name")
		value := syntax.Unparen(arg.ChildByFieldName("value"))
		if key != nil && key.Content(source) == "frozen" && value != nil && value.Type() == "true" {
			return true
		}
	}
	return false
}

// builtinErNames are class name suffixes allowed to end in "er".
var builtinErNames = []string{"User", "Identifier"}

// NoErSuffix forbids class names ending in "er" unless the name ends with a whitelisted suffix.
type NoErSuffix struct {
	collector
	whitelist []string
}

func NewNoErSuffix(opts Options) *NoErSuffix {
	whitelist := append(slices.Clone(builtinErNames), opts.AvailableErNames...)
	return &NoErSuffix{whitelist: lo.Uniq(lo.Compact(whitelist))}
}

func (v *NoErSuffix) Visit(f *syntax.File) {
	eachClass(f, func(c *syntax.Class) {
		v.CheckClass(f, c)
	})
}

func (v *NoErSuffix) CheckClass(f *syntax.File, c *syntax.Class) {
	if !strings.HasSuffix(c.Name, "er") {
		return
	}
	if lo.ContainsBy(v.whitelist, func(suffix string) bool { return strings.HasSuffix(c.Name, suffix) }) {
		return
	}
	v.report(c.Node, CodeErSuffix, `"er" suffix forbidden`)
}

// NoPublicAttributes requires class-level attributes to start with an underscore.
// Exceptions, TypedDicts and enums are exempt; Protocols are not.
type NoPublicAttributes struct {
	collector
}

func NewNoPublicAttributes(Options) *NoPublicAttributes {
	return &NoPublicAttributes{}
}

func (v *NoPublicAttributes) Visit(f *syntax.File) {
	eachClass(f, func(c *syntax.Class) {
		v.CheckClass(f, c)
	})
}

func (v *NoPublicAttributes) CheckClass(f *syntax.File, c *syntax.Class) {
	if classify.Class(c, f.Source).Any(classify.Exception | classify.TypedRecord | classify.Enum) {
		return
	}
	for _, stmt := range c.Body {
		a, ok := syntax.AssignmentOf(stmt)
		if !ok {
			continue
		}
		for _, target := range a.Targets {
			for _, name := range syntax.TargetNames(target) {
				attr := name.Content(f.Source)
				if strings.HasPrefix(attr, "_") {
					continue
				}
				v.report(stmt, CodePublicAttribute, `class attribute "%s" should be private`, attr)
			}
		}
	}
}
