package storage

import (
	"context"

	"pyeo/internal/engine"
	"pyeo/internal/lint"
)

// Store persists lint results between runs.
type Store interface {
	lint.Cache

	// Prune drops results of files not in keep.
	Prune(ctx context.Context, keep []string) (int64, error)

	// Results returns every stored result ordered by path.
	Results(ctx context.Context) ([]engine.FileResult, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
