package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Class is a view over one class_definition node.
type Class struct {
	Node       *sitter.Node
	Name       string
	Decorators []*sitter.Node
	// Bases holds positional base expressions. Keyword arguments such as metaclass= and
	// star-args are left out.
	Bases []*sitter.Node
	Body  []*sitter.Node
}

// Function is a view over one function_definition node, async or not.
type Function struct {
	Node       *sitter.Node
	Name       string
	Decorators []*sitter.Node
	Params     []string
	Body       []*sitter.Node
}

// ClassOf builds a class view from a class_definition or a decorated_definition wrapping one.
func ClassOf(n *sitter.Node, source []byte) (*Class, bool) {
	def, decorators := unwrap(n, source)
	if def == nil || def.Type() != TypeClass {
		return nil, false
	}

	c := &Class{
		Node:       def,
		Name:       fieldText(def, "name", source),
		Decorators: decorators,
		Body:       NamedChildren(def.ChildByFieldName("body")),
	}
	for _, arg := range NamedChildren(def.ChildByFieldName("superclasses")) {
		switch arg.Type() {
		case TypeKeywordArg, TypeListSplat, TypeDictSplat:
			continue
		}
		c.Bases = append(c.Bases, arg)
	}
	return c, true
}

// FunctionOf builds a function view from a function_definition or a decorated_definition wrapping one.
func FunctionOf(n *sitter.Node, source []byte) (*Function, bool) {
	def, decorators := unwrap(n, source)
	if def == nil || def.Type() != TypeFunction {
		return nil, false
	}

	fn := &Function{
		Node:       def,
		Name:       fieldText(def, "name", source),
		Decorators: decorators,
		Body:       NamedChildren(def.ChildByFieldName("body")),
	}
	for _, param := range NamedChildren(def.ChildByFieldName("parameters")) {
		if name := paramName(param, source); name != "" {
			fn.Params = append(fn.Params, name)
		}
	}
	return fn, true
}

// Methods returns the functions defined directly in the class body, in document order.
func (c *Class) Methods(source []byte) []*Function {
	var methods []*Function
	for _, stmt := range c.Body {
		if fn, ok := FunctionOf(stmt, source); ok {
			methods = append(methods, fn)
		}
	}
	return methods
}

// HasParam reports whether name is one of the function's own parameters.
func (fn *Function) HasParam(name string) bool {
	for _, p := range fn.Params {
		if p == name {
			return true
		}
	}
	return false
}

// unwrap returns the definition node and the expressions of its decorators.
// A bare definition still picks up decorators from a decorated_definition parent.
func unwrap(n *sitter.Node, source []byte) (*sitter.Node, []*sitter.Node) {
	if n == nil {
		return nil, nil
	}
	holder := n
	def := n
	if n.Type() == TypeDecorated {
		def = n.ChildByFieldName("definition")
	} else if parent := n.Parent(); parent != nil && parent.Type() == TypeDecorated {
		holder = parent
	} else {
		return def, nil
	}

	var decorators []*sitter.Node
	for _, child := range NamedChildren(holder) {
		if child.Type() != TypeDecorator {
			continue
		}
		if expr := NamedChildren(child); len(expr) > 0 {
			decorators = append(decorators, expr[0])
		}
	}
	return def, decorators
}

func paramName(n *sitter.Node, source []byte) string {
	switch n.Type() {
	case TypeIdentifier:
		return n.Content(source)
	case "default_parameter", "typed_default_parameter":
		return fieldText(n, "name", source)
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		for _, child := range NamedChildren(n) {
			if name := paramName(child, source); name != "" {
				return name
			}
		}
	}
	return ""
}

func fieldText(n *sitter.Node, field string, source []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(source)
}
