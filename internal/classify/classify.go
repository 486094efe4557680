// Package classify sorts classes into categories by the syntactic shape of their bases.
// Only the literal trailing identifier is inspected; import aliases are not followed.
package classify

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pyeo/internal/syntax"
)

// Kind is a set of categories. A class may match several; the zero value is a regular class.
type Kind uint8

const (
	Protocol Kind = 1 << iota
	Enum
	Exception
	TypedRecord

	Regular Kind = 0
)

const (
	protocolName    = "Protocol"
	typedRecordName = "TypedDict"
)

// Has reports whether every category in other is set in k.
func (k Kind) Has(other Kind) bool {
	return other != Regular && k&other == other
}

// Any reports whether k shares at least one category with other.
func (k Kind) Any(other Kind) bool {
	return k&other != 0
}

// NotPlainObject reports whether the class is a Protocol, Enum, Exception or TypedDict.
func (k Kind) NotPlainObject() bool {
	return k != Regular
}

func (k Kind) String() string {
	if k == Regular {
		return "Regular"
	}
	var names []string
	for _, c := range []struct {
		kind Kind
		name string
	}{
		{Protocol, "Protocol"},
		{Enum, "Enum"},
		{Exception, "Exception"},
		{TypedRecord, "TypedRecord"},
	} {
		if k.Has(c.kind) {
			names = append(names, c.name)
		}
	}
	return strings.Join(names, "|")
}

// Base classifies a single base expression. Calls, keyword arguments and other shapes match nothing.
func Base(base *sitter.Node, source []byte) Kind {
	name, ok := syntax.TerminalName(syntax.Subject(base), source)
	if !ok {
		return Regular
	}
	return Name(name)
}

// Name classifies a terminal identifier.
func Name(name string) Kind {
	var kind Kind
	if name == protocolName {
		kind |= Protocol
	}
	if strings.HasSuffix(name, "Enum") {
		kind |= Enum
	}
	if strings.HasSuffix(name, "Exception") || strings.HasSuffix(name, "Error") {
		kind |= Exception
	}
	if name == typedRecordName {
		kind |= TypedRecord
	}
	return kind
}

// Bases ORs the categories of every base expression.
func Bases(bases []*sitter.Node, source []byte) Kind {
	var kind Kind
	for _, base := range bases {
		kind |= Base(base, source)
	}
	return kind
}

// Class classifies a class by its declared bases.
func Class(c *syntax.Class, source []byte) Kind {
	return Bases(c.Bases, source)
}

// IsProtocol reports whether any base of c is Protocol-like.
func IsProtocol(c *syntax.Class, source []byte) bool {
	return Class(c, source).Has(Protocol)
}

// IsEnum reports whether any base of c is Enum-like.
func IsEnum(c *syntax.Class, source []byte) bool {
	return Class(c, source).Has(Enum)
}

// IsException reports whether any base of c is Exception-like.
func IsException(c *syntax.Class, source []byte) bool {
	return Class(c, source).Has(Exception)
}

// IsTypedRecord reports whether any base of c is TypedDict-like.
func IsTypedRecord(c *syntax.Class, source []byte) bool {
	return Class(c, source).Has(TypedRecord)
}

// IsNotObjFactory reports whether c matches any category that exempts it from plain-object rules.
func IsNotObjFactory(c *syntax.Class, source []byte) bool {
	return Class(c, source).NotPlainObject()
}
