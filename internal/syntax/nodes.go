package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node types of the Python grammar the rules look at.
const (
	TypeModule        = "module"
	TypeClass         = "class_definition"
	TypeFunction      = "function_definition"
	TypeDecorated     = "decorated_definition"
	TypeDecorator     = "decorator"
	TypeExpression    = "expression_statement"
	TypeAssignment    = "assignment"
	TypeReturn        = "return_statement"
	TypePass          = "pass_statement"
	TypeIdentifier    = "identifier"
	TypeAttribute     = "attribute"
	TypeSubscript     = "subscript"
	TypeCall          = "call"
	TypeKeywordArg    = "keyword_argument"
	TypeListSplat     = "list_splat"
	TypeDictSplat     = "dictionary_splat"
	TypeString        = "string"
	TypeConcatenated  = "concatenated_string"
	TypeEllipsis      = "ellipsis"
	TypeParenthesized = "parenthesized_expression"
	TypeComment       = "comment"
)

// NamedChildren returns the named children of n without comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == TypeComment {
			continue
		}
		children = append(children, child)
	}
	return children
}

// Walk visits n and its descendants in document order.
// Returning false from fn skips the children of the current node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	cursor := sitter.NewTreeCursor(n)
	defer cursor.Close()

	var visit func(*sitter.TreeCursor)
	visit = func(c *sitter.TreeCursor) {
		if !fn(c.CurrentNode()) {
			return
		}
		if c.GoToFirstChild() {
			visit(c)
			for c.GoToNextSibling() {
				visit(c)
			}
			c.GoToParent()
		}
	}
	visit(cursor)
}

// Definition unwraps a decorated_definition statement to the class or function it decorates.
func Definition(stmt *sitter.Node) *sitter.Node {
	if stmt != nil && stmt.Type() == TypeDecorated {
		return stmt.ChildByFieldName("definition")
	}
	return stmt
}

// Unparen strips redundant parentheses around an expression.
func Unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == TypeParenthesized {
		inner := NamedChildren(n)
		if len(inner) != 1 {
			return n
		}
		n = inner[0]
	}
	return n
}

// Subject returns the subscripted expression of a generic such as Protocol[T], or n itself.
func Subject(n *sitter.Node) *sitter.Node {
	n = Unparen(n)
	if n != nil && n.Type() == TypeSubscript {
		return Unparen(n.ChildByFieldName("value"))
	}
	return n
}

// TerminalName returns the last identifier of a bare or dotted name: "Protocol" for both
// Protocol and typing.Protocol. Any other shape reports false.
func TerminalName(n *sitter.Node, source []byte) (string, bool) {
	n = Unparen(n)
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case TypeIdentifier:
		return n.Content(source), true
	case TypeAttribute:
		attr := n.ChildByFieldName("attribute")
		if attr == nil {
			return "", false
		}
		return attr.Content(source), true
	}
	return "", false
}

// RootName returns the leftmost identifier of an attribute chain: "a" for a.b.c.
func RootName(n *sitter.Node, source []byte) (string, bool) {
	n = Unparen(n)
	for n != nil && n.Type() == TypeAttribute {
		n = Unparen(n.ChildByFieldName("object"))
	}
	if n == nil || n.Type() != TypeIdentifier {
		return "", false
	}
	return n.Content(source), true
}

// Callee returns the called expression of a call, or nil when n is not a call.
func Callee(n *sitter.Node) *sitter.Node {
	n = Unparen(n)
	if n == nil || n.Type() != TypeCall {
		return nil
	}
	return n.ChildByFieldName("function")
}

// IsConstant reports whether n is a literal constant: strings and bytes (not f-strings),
// numbers, True, False, None and the ellipsis.
func IsConstant(n *sitter.Node, source []byte) bool {
	n = Unparen(n)
	if n == nil {
		return false
	}
	switch n.Type() {
	case "integer", "float", "true", "false", "none", TypeEllipsis:
		return true
	case TypeString:
		return !strings.ContainsRune(stringPrefix(n, source), 'f')
	case TypeConcatenated:
		parts := NamedChildren(n)
		for _, part := range parts {
			if !IsConstant(part, source) {
				return false
			}
		}
		return len(parts) > 0
	}
	return false
}

// IsStringLiteral reports whether n is a plain str literal (no bytes, no f-string).
func IsStringLiteral(n *sitter.Node, source []byte) bool {
	n = Unparen(n)
	if n == nil {
		return false
	}
	switch n.Type() {
	case TypeString:
		return !strings.ContainsAny(stringPrefix(n, source), "fb")
	case TypeConcatenated:
		parts := NamedChildren(n)
		for _, part := range parts {
			if !IsStringLiteral(part, source) {
				return false
			}
		}
		return len(parts) > 0
	}
	return false
}

// stringPrefix returns the lower-cased prefix letters of a string literal ("rb" for rb"...").
func stringPrefix(n *sitter.Node, source []byte) string {
	text := n.Content(source)
	end := strings.IndexAny(text, `"'`)
	if end < 0 {
		return ""
	}
	return strings.ToLower(text[:end])
}

// ExpressionOf returns the single expression of an expression statement, or nil.
func ExpressionOf(stmt *sitter.Node) *sitter.Node {
	if stmt == nil || stmt.Type() != TypeExpression {
		return nil
	}
	children := NamedChildren(stmt)
	if len(children) != 1 {
		return nil
	}
	return children[0]
}

// IsDocstring reports whether stmt is a bare string expression statement.
func IsDocstring(stmt *sitter.Node, source []byte) bool {
	expr := ExpressionOf(stmt)
	return expr != nil && IsStringLiteral(expr, source)
}

// IsEllipsis reports whether stmt is a bare "..." expression statement.
func IsEllipsis(stmt *sitter.Node) bool {
	expr := Unparen(ExpressionOf(stmt))
	return expr != nil && expr.Type() == TypeEllipsis
}

// ReturnValue returns the returned expression, or nil for a bare return or a non-return.
func ReturnValue(stmt *sitter.Node) *sitter.Node {
	if stmt == nil || stmt.Type() != TypeReturn {
		return nil
	}
	children := NamedChildren(stmt)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// Assignment is a simple, chained or annotated assignment statement.
type Assignment struct {
	Targets   []*sitter.Node
	Value     *sitter.Node // nil for a bare annotation such as "x: int"
	Annotated bool
}

// AssignmentOf decomposes an assignment statement. Augmented assignments are not assignments here.
func AssignmentOf(stmt *sitter.Node) (Assignment, bool) {
	expr := ExpressionOf(stmt)
	if expr == nil || expr.Type() != TypeAssignment {
		return Assignment{}, false
	}

	var a Assignment
	for expr != nil && expr.Type() == TypeAssignment {
		a.Targets = append(a.Targets, expr.ChildByFieldName("left"))
		if expr.ChildByFieldName("type") != nil {
			a.Annotated = true
		}
		expr = expr.ChildByFieldName("right")
	}
	a.Value = expr
	return a, true
}

// TargetNames flattens an assignment target into the identifiers it binds.
// Attribute and subscript targets bind no names.
func TargetNames(target *sitter.Node) []*sitter.Node {
	target = Unparen(target)
	if target == nil {
		return nil
	}
	switch target.Type() {
	case TypeIdentifier:
		return []*sitter.Node{target}
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list", "expression_list":
		var names []*sitter.Node
		for _, child := range NamedChildren(target) {
			names = append(names, TargetNames(child)...)
		}
		return names
	}
	return nil
}
