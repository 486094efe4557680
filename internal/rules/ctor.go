package rules

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/classify"
	"pyeo/internal/syntax"
)

const (
	msgCtorAssignments = "__init__ method should contain only assignments"
	msgFactoryCall     = "@classmethod should contain only cls() call"
)

// CodeFreeCtor keeps construction declarative. __init__ may only assign constants or its own
// parameters to attributes, and @classmethod factories may only return cls(...).
// Enum classes are skipped; classes nested in them are still checked.
type CodeFreeCtor struct {
	collector
}

func NewCodeFreeCtor(Options) *CodeFreeCtor {
	return &CodeFreeCtor{}
}

func (v *CodeFreeCtor) Visit(f *syntax.File) {
	eachClass(f, func(c *syntax.Class) {
		v.CheckClass(f, c)
	})
}

func (v *CodeFreeCtor) CheckClass(f *syntax.File, c *syntax.Class) {
	if classify.IsEnum(c, f.Source) {
		return
	}
	for _, m := range c.Methods(f.Source) {
		switch {
		case m.Name == "__init__":
			v.checkInit(f, m)
		case isClassmethod(m, f.Source):
			v.checkFactory(f, m)
		}
	}
}

func (v *CodeFreeCtor) checkInit(f *syntax.File, m *syntax.Function) {
	for _, stmt := range m.Body {
		switch {
		case syntax.IsDocstring(stmt, f.Source):
		case stmt.Type() == syntax.TypeReturn && syntax.ReturnValue(stmt) == nil:
		case isPureAssignment(stmt, m, f.Source):
		default:
			v.report(stmt, CodeCtorAssignments, msgCtorAssignments)
		}
	}
}

func (v *CodeFreeCtor) checkFactory(f *syntax.File, m *syntax.Function) {
	for _, stmt := range m.Body {
		if syntax.IsDocstring(stmt, f.Source) {
			continue
		}
		if isClsCall(syntax.ReturnValue(stmt), m, f.Source) {
			continue
		}
		v.report(stmt, CodeFactoryCall, msgFactoryCall)
	}
}

func isClassmethod(m *syntax.Function, source []byte) bool {
	for _, d := range m.Decorators {
		if name, ok := decoratorName(d, source); ok && name == "classmethod" {
			return true
		}
	}
	return false
}

// isPureAssignment accepts `self.a = <constant or parameter>`, annotated or chained.
func isPureAssignment(stmt *sitter.Node, m *syntax.Function, source []byte) bool {
	a, ok := syntax.AssignmentOf(stmt)
	if !ok || a.Value == nil {
		return false
	}
	for _, target := range a.Targets {
		if t := syntax.Unparen(target); t == nil || t.Type() != syntax.TypeAttribute {
			return false
		}
	}
	return syntax.IsConstant(a.Value, source) || isParam(a.Value, m, source)
}

func isParam(n *sitter.Node, m *syntax.Function, source []byte) bool {
	n = syntax.Unparen(n)
	return n != nil && n.Type() == syntax.TypeIdentifier && m.HasParam(n.Content(source))
}

func isClsCall(value *sitter.Node, m *syntax.Function, source []byte) bool {
	callee := syntax.Unparen(syntax.Callee(value))
	if callee == nil || callee.Type() != syntax.TypeIdentifier || callee.Content(source) != "cls" {
		return false
	}
	args := syntax.Unparen(value).ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		return false
	}
	for _, arg := range syntax.NamedChildren(args) {
		if !isFactoryArg(arg, m, source) {
			return false
		}
	}
	return true
}

func isFactoryArg(arg *sitter.Node, m *syntax.Function, source []byte) bool {
	switch arg.Type() {
	case syntax.TypeKeywordArg:
		value := arg.ChildByFieldName("value")
		return value != nil && isFactoryArg(value, m, source)
	case syntax.TypeListSplat, syntax.TypeDictSplat:
		inner := syntax.NamedChildren(arg)
		return len(inner) == 1 && isParam(inner[0], m, source)
	}
	return isParam(arg, m, source) || syntax.IsConstant(arg, source) || isConstructorCall(arg, source)
}

// isConstructorCall accepts Money(...) and Money.of(...) style calls: the callee, or the
// root of its attribute chain, starts with an uppercase letter.
func isConstructorCall(n *sitter.Node, source []byte) bool {
	callee := syntax.Unparen(syntax.Callee(n))
	if callee == nil {
		return false
	}
	var name string
	switch callee.Type() {
	case syntax.TypeIdentifier:
		name = callee.Content(source)
	case syntax.TypeAttribute:
		root, ok := syntax.RootName(callee.ChildByFieldName("object"), source)
		if !ok {
			return false
		}
		name = root
	default:
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
