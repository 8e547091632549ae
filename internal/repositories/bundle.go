package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/sqlite"
)

// BundleRepository is the single-slot pre-fetch cache. Reading a bundle removes it so that it is never served twice.
type BundleRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewBundleRepository(db *sqlite.Database, logger *slog.Logger) *BundleRepository {
	return &BundleRepository{
		db:     db,
		logger: logger.With(slog.String("source", "BundleRepository")),
	}
}

type bundleRow struct {
	ID               string         `db:"id"`
	Location         string         `db:"location"`
	Characters       string         `db:"characters"`
	Scenario         string         `db:"scenario"`
	Script           string         `db:"script"`
	ImageContentType sql.NullString `db:"image_content_type"`
	ImageData        []byte         `db:"image_data"`
	ImageSourceURL   sql.NullString `db:"image_source_url"`
	CreatedAt        string         `db:"created_at"`
}

type audioRow struct {
	Position    int    `db:"position"`
	Voice       int    `db:"voice"`
	ContentType string `db:"content_type"`
	Data        []byte `db:"data"`
}

// Save stores bundle, replacing any unread bundle.
func (r *BundleRepository) Save(ctx context.Context, bundle models.Bundle) error {
	row := bundleRow{
		ID:               bundle.ID,
		Location:         "",
		Characters:       "",
		Scenario:         "",
		Script:           "",
		ImageContentType: sql.NullString{},
		ImageData:        nil,
		ImageSourceURL:   sql.NullString{},
		CreatedAt:        bundle.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	var err error
	for _, field := range []struct {
		dst *string
		v   any
	}{
		{&row.Location, bundle.Location},
		{&row.Characters, bundle.Characters},
		{&row.Scenario, bundle.Scenario},
		{&row.Script, bundle.Script},
	} {
		var b []byte
		if b, err = json.Marshal(field.v); err != nil {
			return errors.Wrap(err, "marshal bundle")
		}
		*field.dst = string(b)
	}
	if bundle.Image != nil {
		row.ImageContentType = sql.NullString{String: bundle.Image.ContentType, Valid: true}
		row.ImageData = bundle.Image.Data
		row.ImageSourceURL = sql.NullString{String: bundle.Image.SourceURL, Valid: bundle.Image.SourceURL != ""}
	}

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		// Audio rows of the replaced bundle are removed by the cascade.
		if _, err = tx.ExecContext(ctx, `DELETE FROM prefetch_bundles`); err != nil {
			return errors.Wrap(err, "delete previous bundle")
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO prefetch_bundles
    (slot, id, location, characters, scenario, script, image_content_type, image_data, image_source_url, created_at)
VALUES (1, :id, :location, :characters, :scenario, :script, :image_content_type, :image_data, :image_source_url,
        :created_at)`, row); err != nil {
			return errors.Wrap(err, "insert bundle", slog.String("id", bundle.ID))
		}
		for _, asset := range bundle.Audio {
			if _, err = tx.ExecContext(ctx, `INSERT INTO prefetch_audio (bundle_id, position, voice, content_type, data)
VALUES (?, ?, ?, ?, ?)`, bundle.ID, asset.Index, int(asset.Voice), asset.ContentType, asset.Data); err != nil {
				return errors.Wrap(err, "insert audio", slog.Int("position", asset.Index))
			}
		}
		return nil
	})
}

// Get removes and returns the cached bundle. ok is false when the cache is empty.
func (r *BundleRepository) Get(ctx context.Context) (models.Bundle, bool, error) {
	var (
		bundle models.Bundle
		ok     bool
	)
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var row bundleRow
		err := tx.GetContext(ctx, &row, `SELECT id, location, characters, scenario, script,
       image_content_type, image_data, image_source_url, created_at
FROM prefetch_bundles WHERE slot = 1`)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "select bundle")
		}

		var audio []audioRow
		if err = tx.SelectContext(ctx, &audio, `SELECT position, voice, content_type, data
FROM prefetch_audio WHERE bundle_id = ? ORDER BY position`, row.ID); err != nil {
			return errors.Wrap(err, "select audio", slog.String("id", row.ID))
		}

		if bundle, err = row.toBundle(audio); err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM prefetch_bundles WHERE id = ?`, row.ID); err != nil {
			return errors.Wrap(err, "delete bundle", slog.String("id", row.ID))
		}
		ok = true
		return nil
	})
	if err != nil {
		return models.Bundle{}, false, err
	}
	return bundle, ok, nil
}

// Has reports whether a bundle is waiting in the cache.
func (r *BundleRepository) Has(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.ReadOnly.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM prefetch_bundles)`); err != nil {
		return false, errors.Wrap(err, "query bundle existence")
	}
	return exists, nil
}

// Clear discards the cached bundle.
func (r *BundleRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM prefetch_bundles`); err != nil {
		return errors.Wrap(err, "delete bundles")
	}
	return nil
}

func (r *BundleRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "could not rollback transaction",
				errors.SlogError(errors.Wrap(rollbackErr, "rollback")))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func (row bundleRow) toBundle(audio []audioRow) (models.Bundle, error) {
	bundle := models.Bundle{ //nolint:exhaustruct // populated below
		ID:    row.ID,
		Audio: make([]models.AudioAsset, len(audio)),
	}
	for _, field := range []struct {
		src string
		dst any
	}{
		{row.Location, &bundle.Location},
		{row.Characters, &bundle.Characters},
		{row.Scenario, &bundle.Scenario},
		{row.Script, &bundle.Script},
	} {
		if err := json.Unmarshal([]byte(field.src), field.dst); err != nil {
			return models.Bundle{}, errors.Wrap(err, "unmarshal bundle", slog.String("id", row.ID))
		}
	}
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return models.Bundle{}, errors.Wrap(err, "parse created_at", slog.String("id", row.ID))
	}
	bundle.CreatedAt = createdAt
	for i, a := range audio {
		bundle.Audio[i] = models.AudioAsset{
			Index:       a.Position,
			Voice:       models.VoiceIdentity(a.Voice),
			ContentType: a.ContentType,
			Data:        a.Data,
		}
	}
	if row.ImageContentType.Valid {
		bundle.Image = &models.ImageAsset{
			ContentType: row.ImageContentType.String,
			Data:        row.ImageData,
			SourceURL:   row.ImageSourceURL.String,
		}
	}
	return bundle, nil
}
