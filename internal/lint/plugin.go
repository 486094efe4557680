// Package lint is the flake8-style adapter: a parsed file plus visitors in, a lazy diagnostic
// sequence out. Linter adds the host side: reading files, filtering codes, noqa comments and caching.
package lint

import (
	"iter"

	"pyeo/internal/engine"
	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

// Origin tags diagnostics produced by the lint adapter.
const Origin = "pyeo/lint"

// Plugin binds one parsed file to the visitors that should inspect it.
type Plugin struct {
	file     *syntax.File
	visitors []rules.Visitor
}

// NewPlugin creates a plugin. Nil visitors means the default set with default options.
func NewPlugin(f *syntax.File, visitors []rules.Visitor) *Plugin {
	if visitors == nil {
		visitors = rules.DefaultVisitors(rules.Options{})
	}
	return &Plugin{file: f, visitors: visitors}
}

// Run yields the diagnostics of every visitor in order.
func (p *Plugin) Run() iter.Seq[engine.Diagnostic] {
	return engine.Run(p.file, p.visitors, Origin)
}
