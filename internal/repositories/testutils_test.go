package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/taalquest/internal/sqlite"
	"github.com/myrjola/taalquest/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a new in-memory database with the schema and fixtures for testing purposes.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	db, err := sqlite.NewDatabase(ctx, ":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		_ = db.Close()
	})
	return db
}
