package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/repositories"
	"github.com/myrjola/taalquest/internal/sqlite"
	"github.com/myrjola/taalquest/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("TAALQUEST_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "TAALQUEST_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// The location catalog is seeded by the migration, so an empty catalog means the migration went wrong.
	locations, err := repositories.NewLocationRepository(db, logger).List(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing locations", errors.SlogError(err))
		os.Exit(1)
	}
	if len(locations) == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no locations found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "location count", slog.Int("count", len(locations)))

	// The prefetch slot must be readable with the migrated schema.
	if _, err = repositories.NewBundleRepository(db, logger).Has(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error reading prefetch slot", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
