package syntax

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	f, err := NewParser().Parse(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)
	return f
}

func firstClass(t *testing.T, f *File) *Class {
	t.Helper()
	for _, stmt := range NamedChildren(f.Root) {
		if c, ok := ClassOf(stmt, f.Source); ok {
			return c
		}
	}
	t.Fatal("no class in source")
	return nil
}

func TestParser_Parse(t *testing.T) {
	t.Run("Valid source", func(t *testing.T) {
		f := parse(t, "x = 1\n")
		assert.Equal(t, TypeModule, f.Root.Type())
		assert.Equal(t, "test.py", f.Path)
	})

	t.Run("Syntax error is reported with position", func(t *testing.T) {
		_, err := NewParser().Parse(context.Background(), "bad.py", []byte("class :\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSyntax))
		assert.Contains(t, err.Error(), "bad.py:1:")
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewParser().ParseFile(context.Background(), filepath.Join(t.TempDir(), "none.py"))
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrSyntax))
	})
}

func TestParser_ParseFile(t *testing.T) {
	f, err := NewParser().ParseFile(context.Background(), filepath.Join("testdata", "shapes.py"))
	require.NoError(t, err)

	var names []string
	Walk(f.Root, func(n *sitter.Node) bool {
		if c, ok := ClassOf(n, f.Source); ok {
			names = append(names, c.Name)
		}
		return true
	})
	assert.Equal(t, []string{"Circle", "Inner", "Square"}, names, "classes in document order, nested included")
}

func TestClassOf(t *testing.T) {
	f := parse(t, `@final
@attrs.frozen()
class Circle(Shape, Generic[T], metaclass=ABCMeta):
    """Doc."""
    radius: int

    def area(self):
        return 3

    @staticmethod
    def unit():
        pass
`)
	c := firstClass(t, f)

	t.Run("Name and position", func(t *testing.T) {
		assert.Equal(t, "Circle", c.Name)
		assert.Equal(t, Pos{Line: 3, Column: 0}, PosOf(c.Node), "class node starts at the class keyword")
	})

	t.Run("Decorators", func(t *testing.T) {
		require.Len(t, c.Decorators, 2)
		assert.Equal(t, "final", f.Text(c.Decorators[0]))
		assert.Equal(t, "attrs.frozen()", f.Text(c.Decorators[1]))
	})

	t.Run("Bases skip keyword arguments", func(t *testing.T) {
		require.Len(t, c.Bases, 2)
		assert.Equal(t, "Shape", f.Text(c.Bases[0]))
		assert.Equal(t, "Generic[T]", f.Text(c.Bases[1]))
	})

	t.Run("Methods", func(t *testing.T) {
		methods := c.Methods(f.Source)
		require.Len(t, methods, 2)
		assert.Equal(t, "area", methods[0].Name)
		assert.Equal(t, "unit", methods[1].Name)
		require.Len(t, methods[1].Decorators, 1)
		assert.Equal(t, "staticmethod", f.Text(methods[1].Decorators[0]))
	})

	t.Run("Bare definition picks up parent decorators", func(t *testing.T) {
		again, ok := ClassOf(c.Node, f.Source)
		require.True(t, ok)
		assert.Len(t, again.Decorators, 2)
	})
}

func TestFunctionOf_Params(t *testing.T) {
	f := parse(t, `def fn(a, /, b: int, c=1, d: str = "x", *args, e, f=2, **kwargs):
    pass
`)
	fn, ok := FunctionOf(NamedChildren(f.Root)[0], f.Source)
	require.True(t, ok)
	assert.Equal(t, "fn", fn.Name)
	assert.Equal(t, []string{"a", "b", "c", "d", "args", "e", "f", "kwargs"}, fn.Params)
	assert.True(t, fn.HasParam("kwargs"))
	assert.False(t, fn.HasParam("self"))
}

func TestIsConstant(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"string", `"abc"`, true},
		{"bytes", `b"abc"`, true},
		{"raw string", `r"\d"`, true},
		{"f-string", `f"{x}"`, false},
		{"implicit concatenation", `"a" "b"`, true},
		{"integer", `42`, true},
		{"float", `4.2`, true},
		{"true", `True`, true},
		{"none", `None`, true},
		{"ellipsis", `...`, true},
		{"parenthesized", `(1)`, true},
		{"name", `x`, false},
		{"list", `[]`, false},
		{"call", `int("1")`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parse(t, "y = "+tt.expr+"\n")
			a, ok := AssignmentOf(NamedChildren(f.Root)[0])
			require.True(t, ok)
			assert.Equal(t, tt.want, IsConstant(a.Value, f.Source))
		})
	}
}

func TestIsDocstring(t *testing.T) {
	f := parse(t, "\"doc\"\nb\"raw\"\nf\"{x}\"\n...\nx = 1\n")
	stmts := NamedChildren(f.Root)
	require.Len(t, stmts, 5)
	assert.True(t, IsDocstring(stmts[0], f.Source))
	assert.False(t, IsDocstring(stmts[1], f.Source), "bytes are not docstrings")
	assert.False(t, IsDocstring(stmts[2], f.Source))
	assert.True(t, IsEllipsis(stmts[3]))
	assert.False(t, IsDocstring(stmts[4], f.Source))
}

func TestAssignmentOf(t *testing.T) {
	f := parse(t, "a = b = 1\nx: int\nself.y: int = z\nn += 1\n")
	stmts := NamedChildren(f.Root)

	t.Run("Chained", func(t *testing.T) {
		a, ok := AssignmentOf(stmts[0])
		require.True(t, ok)
		require.Len(t, a.Targets, 2)
		assert.Equal(t, "a", f.Text(a.Targets[0]))
		assert.Equal(t, "b", f.Text(a.Targets[1]))
		assert.Equal(t, "1", f.Text(a.Value))
	})

	t.Run("Bare annotation", func(t *testing.T) {
		a, ok := AssignmentOf(stmts[1])
		require.True(t, ok)
		assert.True(t, a.Annotated)
		assert.Nil(t, a.Value)
	})

	t.Run("Annotated attribute", func(t *testing.T) {
		a, ok := AssignmentOf(stmts[2])
		require.True(t, ok)
		assert.Equal(t, TypeAttribute, a.Targets[0].Type())
		assert.Equal(t, "z", f.Text(a.Value))
	})

	t.Run("Augmented is not an assignment", func(t *testing.T) {
		_, ok := AssignmentOf(stmts[3])
		assert.False(t, ok)
	})
}

func TestTargetNames(t *testing.T) {
	f := parse(t, "a, (b, c) = d\nself.x = 1\n")
	stmts := NamedChildren(f.Root)

	a, ok := AssignmentOf(stmts[0])
	require.True(t, ok)
	var names []string
	for _, n := range TargetNames(a.Targets[0]) {
		names = append(names, f.Text(n))
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	a, ok = AssignmentOf(stmts[1])
	require.True(t, ok)
	assert.Empty(t, TargetNames(a.Targets[0]))
}

func TestNames(t *testing.T) {
	f := parse(t, "typing.Protocol\nProtocol[T]\na.b.c()\n(x)\n")
	stmts := NamedChildren(f.Root)

	name, ok := TerminalName(ExpressionOf(stmts[0]), f.Source)
	require.True(t, ok)
	assert.Equal(t, "Protocol", name)

	name, ok = TerminalName(Subject(ExpressionOf(stmts[1])), f.Source)
	require.True(t, ok)
	assert.Equal(t, "Protocol", name)

	_, ok = TerminalName(ExpressionOf(stmts[1]), f.Source)
	assert.False(t, ok, "subscripts have no terminal name of their own")

	callee := Callee(ExpressionOf(stmts[2]))
	require.NotNil(t, callee)
	root, ok := RootName(callee, f.Source)
	require.True(t, ok)
	assert.Equal(t, "a", root)

	name, ok = TerminalName(ExpressionOf(stmts[3]), f.Source)
	require.True(t, ok)
	assert.Equal(t, "x", name)
}

func TestReturnValue(t *testing.T) {
	f := parse(t, "def f():\n    return\n\ndef g():\n    return self.x\n")
	stmts := NamedChildren(f.Root)
	fnF, _ := FunctionOf(stmts[0], f.Source)
	fnG, _ := FunctionOf(stmts[1], f.Source)

	assert.Nil(t, ReturnValue(fnF.Body[0]))
	assert.Equal(t, "self.x", f.Text(ReturnValue(fnG.Body[0])))
}
