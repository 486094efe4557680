package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"pyeo/internal/analysis"
	"pyeo/internal/config"
	"pyeo/internal/crawler"
	"pyeo/internal/engine"
	"pyeo/internal/git"
	"pyeo/internal/hierarchy"
	"pyeo/internal/index"
	"pyeo/internal/lint"
	"pyeo/internal/storage"
)

func newCheckCmd(opts *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Run the lint rules over Python files and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			// 1. Collect files
			roots := paths(args)
			files, err := crawler.NewCrawler(cfg.Exclude).Files(ctx, roots...)
			if err != nil {
				return errors.Wrap(err, "scan failed")
			}
			logger.Info("checking files", "count", len(files))

			// 2. Open the cache
			var cache lint.Cache
			if cfg.Cache != "" {
				store, err := storage.NewSQLiteStore(cfg.Cache)
				if err != nil {
					logger.Warn("cache disabled", "path", cfg.Cache, "err", err)
				} else {
					defer store.Close()
					cache = store
				}
			}

			// 3. Lint
			linter := lint.NewLinter(lint.Config{
				Options: ruleOptions(cfg),
				Filter:  codeFilter(cfg),
				Jobs:    cfg.Jobs,
				Cache:   cache,
				Logger:  logger,
			})
			results, err := linter.LintPaths(ctx, files)
			if err != nil {
				return err
			}

			// 4. Narrow to the diff
			if opts.diff != "" {
				g, err := newIndexer(cfg, logger).BuildGraph(ctx, roots...)
				if err != nil {
					return err
				}
				if results, err = scopeToDiff(ctx, opts.diff, g, results, logger); err != nil {
					return err
				}
			}

			return opts.emit(cmd, cfg, results)
		},
	}
}

func newIndexer(cfg *config.Config, logger *log.Logger) *index.Indexer {
	return index.NewIndexer(crawler.NewCrawler(cfg.Exclude), cfg.Jobs, logger)
}

// scopeToDiff keeps diagnostics on lines changed since ref and inside classes affected by them.
func scopeToDiff(ctx context.Context, ref string, g *hierarchy.Graph, results []engine.FileResult, logger *log.Logger) ([]engine.FileResult, error) {
	changes, err := git.ChangedFiles(ctx, ".", ref)
	if err != nil {
		return nil, err
	}

	impact := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
	logger.Info("diff scope",
		"ref", ref,
		"files", len(changes),
		"direct", len(impact.DirectlyAffected),
		"indirect", len(impact.IndirectlyAffected),
	)
	return analysis.FilterDiagnostics(results, changes, impact), nil
}
