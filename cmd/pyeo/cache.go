package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"pyeo/internal/config"
	"pyeo/internal/crawler"
	"pyeo/internal/storage"
)

func newCacheCmd(opts *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the cached diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := opts.openCache(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.Results(cmd.Context())
			if err != nil {
				return err
			}
			_, err = opts.write(cmd, cfg, results)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "prune [paths...]",
		Short: "Drop cached results of files no longer found under paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := opts.openCache(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			files, err := crawler.NewCrawler(cfg.Exclude).Files(cmd.Context(), paths(args)...)
			if err != nil {
				return errors.Wrap(err, "scan failed")
			}
			removed, err := store.Prune(cmd.Context(), files)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d cached results\n", removed)
			return nil
		},
	})
	return cmd
}

func (f *flags) openCache(cmd *cobra.Command) (*config.Config, *storage.SQLiteStore, error) {
	cfg, _, err := f.setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache == "" {
		return nil, nil, errors.Wrap(config.ErrInvalidConfig, "no cache configured")
	}
	store, err := storage.NewSQLiteStore(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
