package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/sqlite"
)

// AudioCacheRepository stores synthesized speech by content key.
type AudioCacheRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewAudioCacheRepository(db *sqlite.Database, logger *slog.Logger) *AudioCacheRepository {
	return &AudioCacheRepository{
		db:     db,
		logger: logger.With(slog.String("source", "AudioCacheRepository")),
	}
}

func (r *AudioCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := r.db.ReadOnly.GetContext(ctx, &data, `SELECT data FROM audio_cache WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select audio", slog.String("key", key))
	}
	return data, true, nil
}

func (r *AudioCacheRepository) Put(ctx context.Context, key string, data []byte) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx,
		`INSERT OR REPLACE INTO audio_cache (key, data) VALUES (?, ?)`, key, data); err != nil {
		return errors.Wrap(err, "insert audio", slog.String("key", key))
	}
	return nil
}
