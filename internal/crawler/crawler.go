package crawler

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

// Crawler scans a directory for Python source files.
type Crawler struct {
	ignored []string
	exclude []string
}

// NewCrawler creates a new crawler instance. Exclude patterns are doublestar globs matched
// against slash-separated paths relative to the scanned root, e.g. "**/migrations/**".
func NewCrawler(exclude []string) *Crawler {
	return &Crawler{
		ignored: []string{".git", ".hg", ".venv", "venv", "__pycache__", "node_modules", ".tox", ".mypy_cache", "build", "dist"},
		exclude: exclude,
	}
}

// ScanProject walks the root directory and calls onFile for every Python file in lexical order.
// A root that is itself a file is passed through unless excluded; its exclude path is relative
// to the working directory.
func (c *Crawler) ScanProject(ctx context.Context, root string, onFile func(path string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "scan %s", root)
	}
	if !info.IsDir() {
		if c.excluded(workingRel(root)) || c.excluded(filepath.Base(root)) {
			return nil
		}
		return onFile(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		// Skip ignored directories
		if d.IsDir() {
			if path != root && (slices.Contains(c.ignored, d.Name()) || c.excluded(rel)) {
				return filepath.SkipDir
			}
			return nil
		}

		// Only process Python files
		if !strings.HasSuffix(d.Name(), ".py") || c.excluded(rel) {
			return nil
		}
		return onFile(path)
	})
}

// Files collects the Python files under every root, sorted and without duplicates.
func (c *Crawler) Files(ctx context.Context, roots ...string) ([]string, error) {
	var files []string
	for _, root := range roots {
		err := c.ScanProject(ctx, root, func(path string) error {
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func (c *Crawler) excluded(rel string) bool {
	for _, pattern := range c.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// workingRel returns path relative to the working directory, or cleaned as given when it lies
// outside of it.
func workingRel(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	wd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}
