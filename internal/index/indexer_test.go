package index

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyeo/internal/checker"
	"pyeo/internal/crawler"
	"pyeo/internal/rules"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexer_BuildGraph(t *testing.T) {
	root := t.TempDir()
	write(t, root, "shapes/__init__.py", "from .house import House\n")
	write(t, root, "shapes/house.py", "from typing import Protocol\n\nclass House(Protocol):\n    def area(self) -> int: ...\n")
	write(t, root, "app.py", "from shapes import House\n\nclass HttpHouse(House):\n    pass\n")
	write(t, root, "broken.py", "class (:\n")

	var logs bytes.Buffer
	idx := NewIndexer(crawler.NewCrawler(nil), 2, log.New(&logs))
	g, err := idx.BuildGraph(context.Background(), root)
	require.NoError(t, err)

	t.Run("Modules", func(t *testing.T) {
		assert.Len(t, g.Modules, 3, "broken file is skipped")
		for rel, name := range map[string]string{
			"shapes/__init__.py": "shapes",
			"shapes/house.py":    "shapes.house",
			"app.py":             "app",
		} {
			m, ok := g.ModuleAt(filepath.Join(root, filepath.FromSlash(rel)))
			require.True(t, ok, rel)
			assert.Equal(t, name, m.Name)
		}
		assert.Contains(t, logs.String(), "broken.py")
	})

	t.Run("Inheritance across files", func(t *testing.T) {
		ancestors := g.Ancestors("app.HttpHouse")
		require.Len(t, ancestors, 2)
		assert.Equal(t, "shapes.house.House", ancestors[1].ID)
		assert.True(t, ancestors[1].IsProtocol)
	})
}

func TestIndexer_BuildGraph_SingleFile(t *testing.T) {
	root := t.TempDir()
	path := write(t, root, "pkg/app.py", "class A:\n    pass\n")

	g, err := NewIndexer(crawler.NewCrawler(nil), 0, log.New(&bytes.Buffer{})).BuildGraph(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, g.Classes, "app.A")
}

func TestIndexer_BuildGraph_Roots(t *testing.T) {
	lib := t.TempDir()
	app := t.TempDir()
	write(t, lib, "shapes.py", "from typing import Protocol\n\nclass House(Protocol):\n    pass\n")
	path := write(t, app, "app.py", "from shapes import House\n\nclass HttpHouse(House):\n    pass\n")

	g, err := NewIndexer(crawler.NewCrawler(nil), 2, log.New(&bytes.Buffer{})).BuildGraph(context.Background(), lib, app, path)
	require.NoError(t, err)
	assert.Len(t, g.Modules, 2, "a file under an earlier root is indexed once")
	require.Len(t, g.GetBases("app.HttpHouse"), 1)
	assert.Equal(t, "shapes.House", g.GetBases("app.HttpHouse")[0].ID)
}

func TestIndexer_BuildGraph_SameModuleName(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	source := "from pyeo import elegant\n\n\n@elegant\nclass Model:\n    pass\n"
	a := write(t, first, "models.py", source)
	b := write(t, second, "models.py", source)
	write(t, first, "pkg/__init__.py", "")
	write(t, second, "pkg/__init__.py", "")

	g, err := NewIndexer(crawler.NewCrawler(nil), 2, log.New(&bytes.Buffer{})).BuildGraph(context.Background(), first, second)
	require.NoError(t, err)
	assert.Len(t, g.Modules, 4, "modules sharing a dotted name are all kept")
	assert.Len(t, g.Classes, 1, "the first definition of a class ID wins")

	results := checker.NewChecker(checker.NewPlugin("", rules.Options{}), log.New(&bytes.Buffer{})).CheckGraph(g)
	checked := make(map[string]int)
	for _, res := range results {
		checked[res.Path] = len(res.Diagnostics)
	}
	require.Contains(t, checked, a)
	require.Contains(t, checked, b)
	assert.Positive(t, checked[a])
	assert.Equal(t, checked[a], checked[b])
	assert.Contains(t, checked, filepath.Join(first, "pkg", "__init__.py"))
	assert.Contains(t, checked, filepath.Join(second, "pkg", "__init__.py"))
}

func TestIndexer_BuildGraph_MissingRoot(t *testing.T) {
	_, err := NewIndexer(crawler.NewCrawler(nil), 1, nil).BuildGraph(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
