package main

import (
	"github.com/spf13/cobra"

	"pyeo/internal/checker"
)

func newTypecheckCmd(opts *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "typecheck [roots...]",
		Short: "Check classes marked elegant against their Protocols across the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			// 1. Index the project
			roots := paths(args)
			g, err := newIndexer(cfg, logger).BuildGraph(ctx, roots...)
			if err != nil {
				return err
			}

			// 2. Run the hooks
			c := checker.NewChecker(checker.NewPlugin(cfg.Namespace, ruleOptions(cfg)), logger)
			results := c.CheckGraph(g)

			// 3. Apply select/ignore and noqa comments
			filter := codeFilter(cfg)
			for i, res := range results {
				if m, ok := g.ModuleAt(res.Path); ok {
					results[i].Diagnostics = filter.Apply(m.File.Source, res.Diagnostics)
				}
			}

			if opts.diff != "" {
				if results, err = scopeToDiff(ctx, opts.diff, g, results, logger); err != nil {
					return err
				}
			}

			return opts.emit(cmd, cfg, results)
		},
	}
}
