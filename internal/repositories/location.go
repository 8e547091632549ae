package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/random"
	"github.com/myrjola/taalquest/internal/sqlite"
)

var ErrNotFound = errors.NewSentinel("not found")

type LocationRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewLocationRepository(db *sqlite.Database, logger *slog.Logger) *LocationRepository {
	return &LocationRepository{
		db:     db,
		logger: logger.With(slog.String("source", "LocationRepository")),
	}
}

// List returns the catalog ordered by id.
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := r.db.ReadOnly.SelectContext(ctx, &locations,
		`SELECT id, name, type, description FROM locations ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select locations")
	}
	return locations, nil
}

func (r *LocationRepository) Get(ctx context.Context, id string) (models.Location, error) {
	var location models.Location
	err := r.db.ReadOnly.GetContext(ctx, &location,
		`SELECT id, name, type, description FROM locations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Location{}, errors.Wrap(ErrNotFound, "location", slog.String("id", id))
	}
	if err != nil {
		return models.Location{}, errors.Wrap(err, "select location", slog.String("id", id))
	}
	return location, nil
}

// Pick chooses a random location other than excludeID. The excluded location is only returned when it is the
// only one in the catalog.
func (r *LocationRepository) Pick(ctx context.Context, excludeID string) (models.Location, error) {
	locations, err := r.List(ctx)
	if err != nil {
		return models.Location{}, err
	}
	candidates := make([]models.Location, 0, len(locations))
	for _, l := range locations {
		if l.ID != excludeID {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		candidates = locations
	}
	location, err := random.Pick(candidates)
	if err != nil {
		return models.Location{}, errors.Wrap(err, "pick location", slog.Int("catalog_size", len(locations)))
	}
	return location, nil
}
