package lint

import (
	"context"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"pyeo/internal/engine"
	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

// cacheVersion is mixed into every fingerprint; bump it when rule behaviour changes.
const cacheVersion = "pyeo-lint-1"

// Cache stores diagnostics of files that did not change since the last run.
type Cache interface {
	Lookup(ctx context.Context, path, fingerprint string) ([]engine.Diagnostic, bool, error)
	Save(ctx context.Context, path, fingerprint string, diagnostics []engine.Diagnostic) error
}

// Config holds linter settings. Zero values mean: default options, no filter, GOMAXPROCS jobs,
// no cache, the default logger.
type Config struct {
	Options rules.Options
	Filter  Filter
	Jobs    int
	Cache   Cache
	Logger  *log.Logger
}

// Linter checks files on disk with the default visitor set.
type Linter struct {
	parser   *syntax.Parser
	opts     rules.Options
	filter   Filter
	jobs     int
	cache    Cache
	logger   *log.Logger
	settings string
}

// NewLinter creates a linter.
func NewLinter(cfg Config) *Linter {
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Linter{
		parser:   syntax.NewParser(),
		opts:     cfg.Options,
		filter:   cfg.Filter,
		jobs:     jobs,
		cache:    cfg.Cache,
		logger:   logger,
		settings: settingsKey(cfg),
	}
}

// settingsKey captures everything besides the file content that changes lint output.
func settingsKey(cfg Config) string {
	names := slices.Clone(cfg.Options.AvailableErNames)
	slices.Sort(names)
	return strings.Join([]string{
		cacheVersion,
		strings.Join(names, ","),
		strings.Join(cfg.Filter.Select, ","),
		strings.Join(cfg.Filter.Ignore, ","),
	}, "|")
}

// Fingerprint identifies a file content under the linter settings.
func (l *Linter) Fingerprint(source []byte) string {
	h := xxhash.New()
	_, _ = h.Write(source)
	_, _ = h.WriteString(l.settings)
	return strconv.FormatUint(h.Sum64(), 16)
}

// LintFile reads and lints one file, consulting the cache first.
func (l *Linter) LintFile(ctx context.Context, path string) (engine.FileResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return engine.FileResult{}, errors.Wrapf(err, "read file %s", path)
	}

	fingerprint := l.Fingerprint(source)
	if l.cache != nil {
		cached, ok, err := l.cache.Lookup(ctx, path, fingerprint)
		if err != nil {
			l.logger.Warn("cache lookup failed", "path", path, "err", err)
		} else if ok {
			l.logger.Debug("cache hit", "path", path)
			return engine.FileResult{Path: path, Diagnostics: cached}, nil
		}
	}

	diagnostics, err := l.LintSource(ctx, path, source)
	if err != nil {
		return engine.FileResult{}, err
	}

	if l.cache != nil {
		if err := l.cache.Save(ctx, path, fingerprint, diagnostics); err != nil {
			l.logger.Warn("cache save failed", "path", path, "err", err)
		}
	}
	return engine.FileResult{Path: path, Diagnostics: diagnostics}, nil
}

// LintSource lints source held in memory.
func (l *Linter) LintSource(ctx context.Context, path string, source []byte) ([]engine.Diagnostic, error) {
	f, err := l.parser.Parse(ctx, path, source)
	if err != nil {
		return nil, err
	}

	found, err := l.run(f)
	if err != nil {
		return nil, err
	}

	return l.filter.Apply(source, found), nil
}

func (l *Linter) run(f *syntax.File) (found []engine.Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("lint %s: visitor panic: %v", f.Path, r)
		}
	}()
	return engine.Collect(NewPlugin(f, rules.DefaultVisitors(l.opts)).Run()), nil
}

// LintPaths lints files concurrently and returns results in path order.
// Files that cannot be read or parsed are logged and skipped.
func (l *Linter) LintPaths(ctx context.Context, paths []string) ([]engine.FileResult, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	results := make([]*engine.FileResult, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.jobs)

	for i, path := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := l.LintFile(gctx, path)
			if err != nil {
				l.logger.Warn("skipping file", "path", path, "err", err)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "lint paths")
	}

	out := make([]engine.FileResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out, nil
}
