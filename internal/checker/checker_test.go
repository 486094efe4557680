package checker

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyeo/internal/engine"
	"pyeo/internal/hierarchy"
	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

const root = "/project"

const protocols = `from typing import Protocol


class House(Protocol):
    def area(self) -> int: ...


class Building(House, Protocol):
    def floors(self) -> int:
        """Number of floors."""
`

// graph indexes the given files (relative path -> source) as one project.
func graph(t *testing.T, files map[string]string) *hierarchy.Graph {
	t.Helper()
	g := hierarchy.NewGraph()
	for rel, src := range files {
		f, err := syntax.NewParser().Parse(context.Background(), filepath.Join(root, rel), []byte(src))
		require.NoError(t, err)
		g.AddModule(hierarchy.NewModule(root, f))
	}
	g.LinkBases()
	return g
}

func check(t *testing.T, app string) []string {
	t.Helper()
	g := graph(t, map[string]string{"shapes.py": protocols, "app.py": app})
	c := NewChecker(NewPlugin("", rules.Options{}), log.New(&bytes.Buffer{}))

	var got []string
	for _, res := range c.CheckGraph(g) {
		if filepath.Base(res.Path) != "app.py" {
			continue
		}
		for _, d := range res.Diagnostics {
			assert.Equal(t, Origin, d.Origin)
			got = append(got, fmt.Sprintf("%d:%d %s", d.Line, d.Column, d.Message))
		}
	}
	return got
}

func TestChecker_Final(t *testing.T) {
	t.Run("Missing final", func(t *testing.T) {
		got := check(t, `from pyeo import elegant
from shapes import House


@elegant
class HttpHouse(House):
    def area(self) -> int:
        return 5
`)
		assert.Equal(t, []string{"6:0 PEO201 Elegant object must be final"}, got)
	})

	t.Run("Final", func(t *testing.T) {
		got := check(t, `from typing import final
from pyeo import elegant
from shapes import House


@final
@elegant
class HttpHouse(House):
    def area(self) -> int:
        return 5
`)
		assert.Empty(t, got)
	})

	t.Run("Qualified final", func(t *testing.T) {
		got := check(t, `import typing_extensions
import pyeo
from shapes import House


@typing_extensions.final
@pyeo.elegant()
class HttpHouse(House):
    pass
`)
		assert.Empty(t, got)
	})

	t.Run("Called final does not count", func(t *testing.T) {
		got := check(t, `from typing import final
from pyeo import elegant
from shapes import House


@final()
@elegant
class HttpHouse(House):
    pass
`)
		assert.Equal(t, []string{"8:0 PEO201 Elegant object must be final"}, got)
	})

	t.Run("Unimported final does not count", func(t *testing.T) {
		got := check(t, `from pyeo import elegant
from shapes import House


@final
@elegant
class HttpHouse(House):
    pass
`)
		assert.Equal(t, []string{"7:0 PEO201 Elegant object must be final"}, got)
	})
}

func TestChecker_Protocol(t *testing.T) {
	t.Run("No bases", func(t *testing.T) {
		got := check(t, `from typing import final
from pyeo import elegant


@final
@elegant
class HttpHouse:
    def area(self) -> int:
        return 5
`)
		assert.Equal(t, []string{"7:0 PEO610 Class 'HttpHouse' does not implement a Protocol."}, got)
	})

	t.Run("Base without Protocol ancestor", func(t *testing.T) {
		got := check(t, `from typing import final
from pyeo import elegant


class Plain:
    pass


@final
@elegant
class HttpHouse(Plain, Unknown):
    pass
`)
		assert.Equal(t, []string{"11:0 PEO610 Class 'HttpHouse' does not implement a Protocol."}, got)
	})

	t.Run("Extra public methods", func(t *testing.T) {
		got := check(t, `from typing import final
from pyeo import elegant
from shapes import Building


@final
@elegant
class HttpHouse(Building):
    def area(self) -> int:
        return 5

    def floors(self) -> int:
        return 1

    def paint(self) -> None:
        return None

    def _helper(self) -> None:
        return None

    async def sell(self) -> None:
        return None
`)
		assert.Equal(t, []string{
			"15:4 PEO611 Class 'HttpHouse' have public extra method 'paint' without protocol.",
			"21:4 PEO611 Class 'HttpHouse' have public extra method 'sell' without protocol.",
		}, got, "inherited protocol methods are declared")
	})

	t.Run("Elegant Protocol conforms", func(t *testing.T) {
		got := check(t, `from typing import Protocol, final
from pyeo import elegant


@final
@elegant
class Shape(Protocol):
    def area(self) -> int: ...
`)
		assert.Empty(t, got)
	})
}

func TestChecker_ProtocolBody(t *testing.T) {
	got := check(t, `import typing


class Shape(typing.Protocol):
    def area(self) -> int:
        return 5

    def name(self) -> str:
        """Name."""
        ...

    def size(self) -> int:
        pass
        x = 1
        print(x)


class NotAProtocol:
    def area(self) -> int:
        return 5
`)
	assert.Equal(t, []string{
		"4:0 PEO103 Protocol 'Shape' method 'area' has implementation",
		"4:0 PEO103 Protocol 'Shape' method 'size' has implementation",
		"4:0 PEO103 Protocol 'Shape' method 'size' has implementation",
	}, got)
}

func TestChecker_ElegantRules(t *testing.T) {
	got := check(t, `from typing import final
from pyeo import elegant
from shapes import House


@final
@elegant
class HouseBuilder(House):
    def __init__(self, cost):
        self._cost = cost
        print(cost)

    @staticmethod
    @property
    def area() -> int:
        return 5


class UncheckedBuilder:
    @staticmethod
    def build():
        pass
`)
	assert.Equal(t, []string{
		"11:8 PEO101 __init__ method should contain only assignments",
		`8:0 PEO300 "er" suffix forbidden`,
		"15:4 PEO400 Staticmethod is forbidden",
		"15:4 PEO500 @property decorator is forbidden",
	}, got, "only classes marked elegant are checked")
}

func TestChecker_Namespace(t *testing.T) {
	p := NewPlugin("acme", rules.Options{})
	assert.Equal(t, "acme.elegant", p.ElegantMarker())

	_, ok := p.ClassDecoratorHook("pyeo.elegant")
	assert.False(t, ok)
	hook, ok := p.ClassDecoratorHook("acme.elegant")
	require.True(t, ok)
	assert.Equal(t, "elegant", hook.Name)

	hook, ok = p.BaseClassHook("typing_extensions.Protocol")
	require.True(t, ok)
	assert.Equal(t, "protocol", hook.Name)
	_, ok = p.BaseClassHook("shapes.House")
	assert.False(t, ok)
}

func TestChecker_HookPanic(t *testing.T) {
	g := graph(t, map[string]string{"app.py": "class A:\n    pass\n"})
	m, ok := g.ModuleAt(filepath.Join(root, "app.py"))
	require.True(t, ok)
	info := m.Classes[0]

	var logs bytes.Buffer
	c := NewChecker(NewPlugin("", rules.Options{}), log.New(&logs))
	ctx := newClassContext(g, m, info, rules.Options{})

	c.run(Hook{Name: "ok", Run: func(ctx *ClassContext) {
		ctx.Fail(rules.CodeNotFinal, "kept", ctx.Class.Node)
	}}, ctx)
	c.run(Hook{Name: "boom", Run: func(ctx *ClassContext) {
		ctx.Fail(rules.CodeNotFinal, "dropped", ctx.Class.Node)
		panic("broken hook")
	}}, ctx)

	require.Len(t, ctx.Diagnostics(), 1)
	assert.Equal(t, engine.Diagnostic{
		Line:    1,
		Column:  0,
		Code:    rules.CodeNotFinal,
		Message: "PEO201 kept",
		Origin:  Origin,
	}, ctx.Diagnostics()[0])
	assert.Contains(t, logs.String(), "broken hook")
}
