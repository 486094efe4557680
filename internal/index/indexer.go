package index

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"pyeo/internal/crawler"
	"pyeo/internal/hierarchy"
	"pyeo/internal/syntax"
)

// Indexer orchestrates project indexing and class graph construction.
type Indexer struct {
	crawler *crawler.Crawler
	parser  *syntax.Parser
	jobs    int
	logger  *log.Logger
}

// NewIndexer creates a new indexer. Non-positive jobs means GOMAXPROCS; a nil logger means the default.
func NewIndexer(c *crawler.Crawler, jobs int, logger *log.Logger) *Indexer {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Indexer{
		crawler: c,
		parser:  syntax.NewParser(),
		jobs:    jobs,
		logger:  logger,
	}
}

// BuildGraph scans the project roots and constructs one class graph. Module names are relative
// to their root, or to its directory when the root is a single file. Files that fail to parse are
// logged and left out.
func (i *Indexer) BuildGraph(ctx context.Context, roots ...string) (*hierarchy.Graph, error) {
	var files, bases []string
	seen := make(map[string]bool)
	for _, root := range roots {
		found, err := i.crawler.Files(ctx, root)
		if err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}

		base := root
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			base = filepath.Dir(root)
		}
		for _, path := range found {
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
				bases = append(bases, base)
			}
		}
	}

	modules := make([]*hierarchy.Module, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.jobs)
	for n, path := range files {
		g.Go(func() error {
			f, err := i.parser.ParseFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				i.logger.Warn("skipping file", "path", path, "err", err)
				return nil
			}
			modules[n] = hierarchy.NewModule(bases[n], f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "index failed")
	}

	graph := hierarchy.NewGraph()
	for _, m := range modules {
		graph.AddModule(m)
	}

	// Resolve inheritance after all modules are loaded
	graph.LinkBases()

	i.logger.Debug("class graph built", "roots", roots, "modules", len(graph.Modules), "classes", len(graph.Classes))
	for reason, count := range graph.UnresolvedReasonCounts() {
		i.logger.Debug("unresolved bases", "reason", reason, "count", count)
	}
	return graph, nil
}
