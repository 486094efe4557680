package rules

import (
	"cmp"
	"slices"
)

// Code is a stable rule identifier such as PEO300. Messages carry it as a prefix so tooling can
// filter and suppress by code.
type Code string

const (
	CodeCtorAssignments   Code = "PEO101"
	CodeFactoryCall       Code = "PEO102"
	CodeProtocolBody      Code = "PEO103"
	CodeNotFrozen         Code = "PEO200"
	CodeNotFinal          Code = "PEO201"
	CodeErSuffix          Code = "PEO300"
	CodePublicAttribute   Code = "PEO301"
	CodeStaticMethod      Code = "PEO400"
	CodeProperty          Code = "PEO500"
	CodeGetterName        Code = "PEO601"
	CodeGetterShape       Code = "PEO602"
	CodeMissingProtocol   Code = "PEO610"
	CodeExtraPublicMethod Code = "PEO611"
)

// Rule describes one catalogue entry.
type Rule struct {
	Code        Code
	Name        string
	Description string
	// Origin names the adapter that reports the code.
	Origin string
}

const (
	originLint      = "lint"
	originTypecheck = "typecheck"
)

var catalogue = map[Code]Rule{
	CodeCtorAssignments: {
		Name:        "code-free-init",
		Description: "__init__ may only contain docstrings, bare returns and attribute assignments of constants or parameters",
		Origin:      originLint,
	},
	CodeFactoryCall: {
		Name:        "code-free-classmethod",
		Description: "@classmethod factories may only return cls(...) built from parameters, constants and constructor calls",
		Origin:      originLint,
	},
	CodeProtocolBody: {
		Name:        "code-free-protocol",
		Description: "Protocol methods may only contain pass, ... or docstrings",
		Origin:      originTypecheck,
	},
	CodeNotFrozen: {
		Name:        "frozen-object",
		Description: "plain classes must carry a frozen decorator",
		Origin:      originLint,
	},
	CodeNotFinal: {
		Name:        "final-object",
		Description: "elegant classes must be decorated with typing.final",
		Origin:      originTypecheck,
	},
	CodeErSuffix: {
		Name:        "no-er-suffix",
		Description: `class names must not end with "er" unless whitelisted`,
		Origin:      originLint,
	},
	CodePublicAttribute: {
		Name:        "private-attributes",
		Description: "class-level attributes must start with an underscore (formerly reported as PEO300; noqa comments and select/ignore lists naming PEO300 do not cover it)",
		Origin:      originLint,
	},
	CodeStaticMethod: {
		Name:        "no-staticmethod",
		Description: "@staticmethod is forbidden",
		Origin:      originLint,
	},
	CodeProperty: {
		Name:        "no-property",
		Description: "@property is forbidden",
		Origin:      originLint,
	},
	CodeGetterName: {
		Name:        "no-get-prefix",
		Description: `method names must not start with "get"`,
		Origin:      originLint,
	},
	CodeGetterShape: {
		Name:        "no-getter",
		Description: "methods must not just return an attribute",
		Origin:      originLint,
	},
	CodeMissingProtocol: {
		Name:        "object-has-protocol",
		Description: "elegant classes must implement a Protocol",
		Origin:      originTypecheck,
	},
	CodeExtraPublicMethod: {
		Name:        "method-has-protocol",
		Description: "public methods of elegant classes must be declared by a Protocol",
		Origin:      originTypecheck,
	},
}

func (c Code) String() string {
	return string(c)
}

// Name returns the short rule name, or "" for an unknown code.
func (c Code) Name() string {
	return catalogue[c].Name
}

// Description returns a one-line rule summary, or "" for an unknown code.
func (c Code) Description() string {
	return catalogue[c].Description
}

// Known reports whether c is part of the catalogue.
func (c Code) Known() bool {
	_, ok := catalogue[c]
	return ok
}

// Catalogue lists every rule in code order.
func Catalogue() []Rule {
	rules := make([]Rule, 0, len(catalogue))
	for code, rule := range catalogue {
		rule.Code = code
		rules = append(rules, rule)
	}
	slices.SortFunc(rules, func(a, b Rule) int {
		return cmp.Compare(a.Code, b.Code)
	})
	return rules
}
