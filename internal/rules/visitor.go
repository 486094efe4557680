// Package rules holds the elegance rule visitors. Every visitor walks one parsed file, collects
// violations in document order and never fails: shapes it does not recognise are skipped.
package rules

import (
	"fmt"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/syntax"
)

// Violation is one flagged location.
type Violation struct {
	Line    int
	Column  int
	Code    Code
	Message string
}

// Text renders the violation message with its code prefix, e.g. `PEO300 "er" suffix forbidden`.
func (v Violation) Text() string {
	return fmt.Sprintf("%s %s", v.Code, v.Message)
}

// Visitor inspects one tree and accumulates violations.
// A visitor is meant to visit a single tree; Reset clears it for reuse.
type Visitor interface {
	Visit(f *syntax.File)
	Problems() []Violation
	Reset()
}

// ClassChecker is implemented by visitors that can check a single class without walking the
// whole tree. The type checker runs these against classes it selected itself.
type ClassChecker interface {
	Visitor
	CheckClass(f *syntax.File, c *syntax.Class)
}

// Options carries rule settings. Visitors copy what they need at construction.
type Options struct {
	// AvailableErNames extends the built-in whitelist of class name suffixes ending in "er".
	AvailableErNames []string
}

// collector is embedded by every visitor.
type collector struct {
	problems []Violation
}

func (c *collector) report(n *sitter.Node, code Code, format string, args ...any) {
	pos := syntax.PosOf(n)
	c.problems = append(c.problems, Violation{
		Line:    pos.Line,
		Column:  pos.Column,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *collector) Problems() []Violation {
	return slices.Clone(c.problems)
}

func (c *collector) Reset() {
	c.problems = nil
}

// eachClass calls fn for every class definition in the file, nested ones included, in document order.
func eachClass(f *syntax.File, fn func(*syntax.Class)) {
	syntax.Walk(f.Root, func(n *sitter.Node) bool {
		if n.Type() == syntax.TypeClass {
			if c, ok := syntax.ClassOf(n, f.Source); ok {
				fn(c)
			}
		}
		return true
	})
}

// eachFunction calls fn for every function definition in the file in document order.
func eachFunction(f *syntax.File, fn func(*syntax.Function)) {
	syntax.Walk(f.Root, func(n *sitter.Node) bool {
		if n.Type() == syntax.TypeFunction {
			if fun, ok := syntax.FunctionOf(n, f.Source); ok {
				fn(fun)
			}
		}
		return true
	})
}

// decoratorName returns the name of a non-call decorator: "classmethod" for both
// @classmethod and @builtins.classmethod.
func decoratorName(d *sitter.Node, source []byte) (string, bool) {
	return syntax.TerminalName(d, source)
}

// DefaultVisitors returns fresh visitors in the fixed reporting order.
func DefaultVisitors(opts Options) []Visitor {
	return []Visitor{
		NewCodeFreeCtor(opts),
		NewNoMutableObjects(opts),
		NewNoErSuffix(opts),
		NewNoPublicAttributes(opts),
		NewNoStaticMethod(opts),
		NewNoProperty(opts),
		NewNoGetterMethods(opts),
	}
}

var (
	_ ClassChecker = (*CodeFreeCtor)(nil)
	_ ClassChecker = (*NoMutableObjects)(nil)
	_ ClassChecker = (*NoErSuffix)(nil)
	_ ClassChecker = (*NoPublicAttributes)(nil)
	_ ClassChecker = (*NoStaticMethod)(nil)
	_ ClassChecker = (*NoProperty)(nil)
	_ ClassChecker = (*NoGetterMethods)(nil)
)
