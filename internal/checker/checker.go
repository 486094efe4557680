package checker

import (
	"github.com/charmbracelet/log"

	"pyeo/internal/engine"
	"pyeo/internal/hierarchy"
	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

// Checker runs plugin hooks over every class of a graph.
type Checker struct {
	plugin *Plugin
	opts   rules.Options
	logger *log.Logger
}

// NewChecker creates a checker. A nil logger means the default one.
func NewChecker(p *Plugin, logger *log.Logger) *Checker {
	if logger == nil {
		logger = log.Default()
	}
	return &Checker{plugin: p, opts: p.opts, logger: logger}
}

// CheckGraph visits modules in path order and classes in document order.
// Every module gets a result, clean ones included.
func (c *Checker) CheckGraph(g *hierarchy.Graph) []engine.FileResult {
	var results []engine.FileResult
	for _, m := range g.SortedModules() {
		res := engine.FileResult{Path: m.Path}
		for _, info := range m.Classes {
			res.Diagnostics = append(res.Diagnostics, c.CheckClass(g, m, info)...)
		}
		results = append(results, res)
	}
	return results
}

// CheckClass runs the hooks selected by the class decorators and bases.
func (c *Checker) CheckClass(g *hierarchy.Graph, m *hierarchy.Module, info *hierarchy.ClassInfo) []engine.Diagnostic {
	hooks := c.hooksFor(m, info)
	if len(hooks) == 0 {
		return nil
	}

	ctx := newClassContext(g, m, info, c.opts)
	for _, hook := range hooks {
		c.run(hook, ctx)
	}
	return ctx.Diagnostics()
}

func (c *Checker) hooksFor(m *hierarchy.Module, info *hierarchy.ClassInfo) []Hook {
	var hooks []Hook
	seen := make(map[string]bool)
	add := func(h Hook, ok bool) {
		if ok && !seen[h.Name] {
			seen[h.Name] = true
			hooks = append(hooks, h)
		}
	}

	for _, d := range info.Class.Decorators {
		// @elegant and @elegant() both select the hook
		if callee := syntax.Callee(d); callee != nil {
			d = callee
		}
		if full, ok := m.FullName(d); ok {
			add(c.plugin.ClassDecoratorHook(full))
		}
	}
	for _, base := range info.Bases {
		add(c.plugin.BaseClassHook(base))
	}
	return hooks
}

// run isolates hook panics. A panicking hook contributes no diagnostics.
func (c *Checker) run(hook Hook, ctx *ClassContext) {
	before := len(ctx.diagnostics)
	defer func() {
		if r := recover(); r != nil {
			ctx.diagnostics = ctx.diagnostics[:before]
			c.logger.Error("hook panicked", "hook", hook.Name, "class", ctx.Info.ID, "path", ctx.Info.Path, "panic", r)
		}
	}()
	hook.Run(ctx)
}
