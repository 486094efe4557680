// Package checker is the type-checker adapter. Hooks are looked up by the fully qualified name of
// a class decorator or base class and receive a ClassContext with resolved ancestor chains.
package checker

import (
	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/engine"
	"pyeo/internal/hierarchy"
	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

// Origin tags diagnostics produced by the type-checker adapter.
const Origin = "pyeo/typecheck"

// Base is one declared base expression of the class under check.
type Base struct {
	Expr     *sitter.Node
	FullName string // empty when the expression shape cannot be resolved
	// Ancestors holds the resolved project class followed by its own ancestors.
	// It is empty for bases outside the project.
	Ancestors []*hierarchy.ClassInfo
}

// ClassContext is handed to hooks for one class definition.
type ClassContext struct {
	Name    string
	Info    *hierarchy.ClassInfo
	Class   *syntax.Class
	File    *syntax.File
	Module  *hierarchy.Module
	Bases   []Base
	Options rules.Options

	diagnostics []engine.Diagnostic
}

// Fail reports a diagnostic at node.
func (c *ClassContext) Fail(code rules.Code, message string, node *sitter.Node) {
	pos := syntax.PosOf(node)
	c.failAt(rules.Violation{Line: pos.Line, Column: pos.Column, Code: code, Message: message})
}

func (c *ClassContext) failAt(v rules.Violation) {
	c.diagnostics = append(c.diagnostics, engine.FromViolation(v, Origin))
}

// Diagnostics returns everything reported so far.
func (c *ClassContext) Diagnostics() []engine.Diagnostic {
	return c.diagnostics
}

func newClassContext(g *hierarchy.Graph, m *hierarchy.Module, info *hierarchy.ClassInfo, opts rules.Options) *ClassContext {
	ctx := &ClassContext{
		Name:    info.Name,
		Info:    info,
		Class:   info.Class,
		File:    m.File,
		Module:  m,
		Options: opts,
	}
	for _, expr := range info.Class.Bases {
		base := Base{Expr: expr}
		if full, ok := m.FullName(expr); ok {
			base.FullName = full
			if target, ok := g.Resolve(full); ok {
				base.Ancestors = g.Ancestors(target.ID)
			}
		}
		ctx.Bases = append(ctx.Bases, base)
	}
	return ctx
}
