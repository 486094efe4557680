package checker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/hierarchy"
	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

// DefaultNamespace prefixes the elegance marker: pyeo.elegant.
const DefaultNamespace = "pyeo"

// FinalMarkers are the fully qualified names accepted as the final decorator.
var FinalMarkers = []string{"typing.final", "typing_extensions.final"}

// Hook runs against one class. Name identifies the hook so it runs once per class even when
// several markers select it.
type Hook struct {
	Name string
	Run  func(ctx *ClassContext)
}

// Plugin maps marker names to hooks.
type Plugin struct {
	namespace string
	opts      rules.Options
}

// NewPlugin creates a plugin. An empty namespace means DefaultNamespace.
func NewPlugin(namespace string, opts rules.Options) *Plugin {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Plugin{namespace: namespace, opts: opts}
}

// ElegantMarker is the fully qualified name of the elegance class decorator.
func (p *Plugin) ElegantMarker() string {
	return p.namespace + ".elegant"
}

// ClassDecoratorHook returns the hook for a class decorator, if any.
func (p *Plugin) ClassDecoratorHook(fullname string) (Hook, bool) {
	if fullname != p.ElegantMarker() {
		return Hook{}, false
	}
	return Hook{Name: "elegant", Run: p.checkElegant}, true
}

// BaseClassHook returns the hook for a declared base class, if any.
func (p *Plugin) BaseClassHook(fullname string) (Hook, bool) {
	if !hierarchy.IsProtocolMarker(fullname) {
		return Hook{}, false
	}
	return Hook{Name: "protocol", Run: checkProtocolBody}, true
}

func (p *Plugin) checkElegant(ctx *ClassContext) {
	if checkHasProtocol(ctx) {
		checkMethodsHaveProtocol(ctx)
	}
	checkFinal(ctx)

	for _, rule := range []rules.ClassChecker{
		rules.NewCodeFreeCtor(p.opts),
		rules.NewNoErSuffix(p.opts),
		rules.NewNoStaticMethod(p.opts),
		rules.NewNoProperty(p.opts),
	} {
		rule.CheckClass(ctx.File, ctx.Class)
		for _, v := range rule.Problems() {
			ctx.failAt(v)
		}
	}
}

// checkHasProtocol reports classes with no Protocol among the ancestors of their bases.
// A Protocol itself is a contract and always conforms.
func checkHasProtocol(ctx *ClassContext) bool {
	if ctx.Info.IsProtocol {
		return true
	}
	for _, base := range ctx.Bases {
		if lo.ContainsBy(base.Ancestors, isProtocol) {
			return true
		}
	}
	ctx.Fail(rules.CodeMissingProtocol, fmt.Sprintf("Class '%s' does not implement a Protocol.", ctx.Name), ctx.Class.Node)
	return false
}

// checkMethodsHaveProtocol reports public methods that no Protocol ancestor declares.
func checkMethodsHaveProtocol(ctx *ClassContext) {
	if ctx.Info.IsProtocol {
		return
	}
	declared := make(map[string]bool)
	for _, base := range ctx.Bases {
		for _, ancestor := range lo.Filter(base.Ancestors, func(a *hierarchy.ClassInfo, _ int) bool { return isProtocol(a) }) {
			for _, name := range ancestor.Methods {
				declared[name] = true
			}
		}
	}

	reported := make(map[string]bool)
	for _, m := range ctx.Class.Methods(ctx.File.Source) {
		if strings.HasPrefix(m.Name, "_") || declared[m.Name] || reported[m.Name] {
			continue
		}
		reported[m.Name] = true
		ctx.Fail(rules.CodeExtraPublicMethod,
			fmt.Sprintf("Class '%s' have public extra method '%s' without protocol.", ctx.Name, m.Name), m.Node)
	}
}

func isProtocol(info *hierarchy.ClassInfo) bool {
	return info.IsProtocol
}

// checkFinal requires a bare final decorator. Called decorators never count.
func checkFinal(ctx *ClassContext) {
	for _, d := range ctx.Class.Decorators {
		d = syntax.Unparen(d)
		if d.Type() == syntax.TypeCall {
			continue
		}
		if full, ok := ctx.Module.FullName(d); ok && slices.Contains(FinalMarkers, full) {
			return
		}
	}
	ctx.Fail(rules.CodeNotFinal, "Elegant object must be final", ctx.Class.Node)
}

// checkProtocolBody allows only pass, ... and docstrings in Protocol methods.
func checkProtocolBody(ctx *ClassContext) {
	for _, m := range ctx.Class.Methods(ctx.File.Source) {
		for _, stmt := range m.Body {
			if isContractStatement(stmt, ctx.File.Source) {
				continue
			}
			ctx.Fail(rules.CodeProtocolBody,
				fmt.Sprintf("Protocol '%s' method '%s' has implementation", ctx.Name, m.Name), ctx.Class.Node)
		}
	}
}

func isContractStatement(stmt *sitter.Node, source []byte) bool {
	return stmt.Type() == syntax.TypePass || syntax.IsEllipsis(stmt) || syntax.IsDocstring(stmt, source)
}
