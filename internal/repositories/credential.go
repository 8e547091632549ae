package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/sqlite"
)

// CredentialOpenAI names the saved API key.
const CredentialOpenAI = "openai"

type CredentialRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewCredentialRepository(db *sqlite.Database, logger *slog.Logger) *CredentialRepository {
	return &CredentialRepository{
		db:     db,
		logger: logger.With(slog.String("source", "CredentialRepository")),
	}
}

// Get returns the saved secret. ok is false when nothing has been saved.
func (r *CredentialRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var secret string
	err := r.db.ReadOnly.GetContext(ctx, &secret, `SELECT secret FROM credentials WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "select credential", slog.String("name", name))
	}
	return secret, true, nil
}

func (r *CredentialRepository) Set(ctx context.Context, name string, secret string) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `INSERT INTO credentials (name, secret) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET secret = excluded.secret,
                                 updated_at = STRFTIME('%Y-%m-%dT%H:%M:%fZ')`, name, secret); err != nil {
		return errors.Wrap(err, "upsert credential", slog.String("name", name))
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "credential saved", slog.String("name", name))
	return nil
}
