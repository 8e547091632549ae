package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
)

// startOptimizer runs optimize once per hour until ctx is done. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) startOptimizer(ctx context.Context) {
	for {
		start := time.Now()
		if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			if ctx.Err() != nil {
				return
			}
			err = errors.Wrap(err, "optimize database")
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database", errors.SlogError(err))
		} else {
			db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database",
				slog.Duration("duration", time.Since(start)))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Hour):
			continue
		}
	}
}
