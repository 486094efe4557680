package rules

import (
	"strings"

	"pyeo/internal/syntax"
)

// forbiddenDecorator flags functions decorated with a bare name, e.g. @staticmethod.
type forbiddenDecorator struct {
	collector
	name    string
	code    Code
	message string
}

func (v *forbiddenDecorator) Visit(f *syntax.File) {
	eachFunction(f, func(fn *syntax.Function) {
		v.checkFunction(f, fn)
	})
}

// CheckClass checks the methods defined directly in c.
func (v *forbiddenDecorator) CheckClass(f *syntax.File, c *syntax.Class) {
	for _, m := range c.Methods(f.Source) {
		v.checkFunction(f, m)
	}
}

func (v *forbiddenDecorator) checkFunction(f *syntax.File, fn *syntax.Function) {
	for _, d := range fn.Decorators {
		d = syntax.Unparen(d)
		if d.Type() == syntax.TypeIdentifier && d.Content(f.Source) == v.name {
			v.report(fn.Node, v.code, "%s", v.message)
		}
	}
}

// NoStaticMethod forbids @staticmethod.
type NoStaticMethod struct {
	forbiddenDecorator
}

func NewNoStaticMethod(Options) *NoStaticMethod {
	return &NoStaticMethod{forbiddenDecorator{
		name:    "staticmethod",
		code:    CodeStaticMethod,
		message: "Staticmethod is forbidden",
	}}
}

// NoProperty forbids @property.
type NoProperty struct {
	forbiddenDecorator
}

func NewNoProperty(Options) *NoProperty {
	return &NoProperty{forbiddenDecorator{
		name:    "property",
		code:    CodeProperty,
		message: "@property decorator is forbidden",
	}}
}

// NoGetterMethods flags methods named get* and methods whose whole body returns an attribute.
// The name rule wins when both apply.
type NoGetterMethods struct {
	collector
}

func NewNoGetterMethods(Options) *NoGetterMethods {
	return &NoGetterMethods{}
}

func (v *NoGetterMethods) Visit(f *syntax.File) {
	eachClass(f, func(c *syntax.Class) {
		v.CheckClass(f, c)
	})
}

func (v *NoGetterMethods) CheckClass(f *syntax.File, c *syntax.Class) {
	for _, m := range c.Methods(f.Source) {
		switch {
		case strings.HasPrefix(m.Name, "get"):
			v.report(m.Node, CodeGetterName, `Method "%s" starts with "get" and should be avoided`, m.Name)
		case returnsAttribute(m):
			v.report(m.Node, CodeGetterShape, `Method "%s" is a getter and should be avoided`, m.Name)
		}
	}
}

func returnsAttribute(m *syntax.Function) bool {
	if len(m.Body) != 1 {
		return false
	}
	value := syntax.Unparen(syntax.ReturnValue(m.Body[0]))
	return value != nil && value.Type() == syntax.TypeAttribute
}
