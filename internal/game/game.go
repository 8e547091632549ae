// Package game prepares complete scenario bundles: characters, location, scenario, script, audio and image.
package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/logging"
	"github.com/myrjola/taalquest/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrPrefetchRunning is returned when a prefetch is requested while another one is in progress.
var ErrPrefetchRunning = errors.NewSentinel("prefetch already running")

type Locations interface {
	Get(ctx context.Context, id string) (models.Location, error)
	Pick(ctx context.Context, excludeID string) (models.Location, error)
}

type Bundles interface {
	Save(ctx context.Context, bundle models.Bundle) error
	Get(ctx context.Context) (models.Bundle, bool, error)
}

type ScenarioWriter interface {
	Generate(ctx context.Context, c1, c2 models.Character, loc models.Location) (models.Scenario, error)
}

type ScriptWriter interface {
	Generate(ctx context.Context, c1, c2 models.Character, scenarioDescription string) (models.Script, error)
}

type AudioRenderer interface {
	SynthesizeLines(ctx context.Context, lines []models.DialogueLine) ([]models.AudioAsset, error)
}

type ImageRenderer interface {
	Synthesize(
		ctx context.Context,
		settingType, mood, description string,
		characters ...models.Character,
	) (models.ImageAsset, error)
}

// Dependencies are the collaborators of a Service.
type Dependencies struct {
	Locations Locations
	Bundles   Bundles
	Scenarios ScenarioWriter
	Scripts   ScriptWriter
	Audio     AudioRenderer
	Images    ImageRenderer
}

type Config struct {
	// Roster is the cast the character pair is picked from.
	Roster []models.Character
	// ImageEnabled turns scene illustrations on.
	ImageEnabled bool
	// ImageFailureFatal fails the preparation when the illustration fails instead of going without one.
	ImageFailureFatal bool
}

// Options select where the scenario takes place. LocationID takes precedence over ExcludeLocationID.
type Options struct {
	LocationID        string `json:"location_id,omitempty"`
	ExcludeLocationID string `json:"exclude_location_id,omitempty"`
}

type Service struct {
	deps        Dependencies
	cfg         Config
	logger      *slog.Logger
	prefetching atomic.Bool
	now         func() time.Time
}

func NewService(deps Dependencies, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		deps:        deps,
		cfg:         cfg,
		logger:      logger,
		prefetching: atomic.Bool{},
		now:         time.Now,
	}
}

// Prepare runs the whole generation pipeline and reports each stage to emit. emit may be nil.
func (s *Service) Prepare(ctx context.Context, opts Options, emit func(models.Progress)) (models.Bundle, error) {
	report := serialize(emit)
	id := uuid.NewString()
	ctx = logging.WithAttrs(ctx, slog.String("bundle_id", id))
	start := s.now()

	report(models.Progress{Stage: models.StageCharacters, Message: "Choosing characters...", Bundle: nil})
	pair, err := models.PickPair(s.cfg.Roster)
	if err != nil {
		return models.Bundle{}, errors.Wrap(err, "pick characters")
	}
	c1, c2 := pair[0], pair[1]

	loc, err := s.location(ctx, opts)
	if err != nil {
		return models.Bundle{}, err
	}
	ctx = logging.WithAttrs(ctx, slog.String("location", loc.ID))

	report(models.Progress{Stage: models.StageScenario, Message: "Generating scenario...", Bundle: nil})
	scenario, err := s.deps.Scenarios.Generate(ctx, c1, c2, loc)
	if err != nil {
		return models.Bundle{}, errors.Wrap(err, "generate scenario")
	}

	report(models.Progress{Stage: models.StageScript, Message: "Generating dialogue...", Bundle: nil})
	script, err := s.deps.Scripts.Generate(ctx, c1, c2, scenario.Description)
	if err != nil {
		return models.Bundle{}, errors.Wrap(err, "generate script")
	}

	var (
		audio []models.AudioAsset
		image *models.ImageAsset
	)
	g, gctx := errgroup.WithContext(ctx)
	report(models.Progress{Stage: models.StageAudio, Message: "Generating audio...", Bundle: nil})
	g.Go(func() error {
		var audioErr error
		if audio, audioErr = s.deps.Audio.SynthesizeLines(gctx, script.Dialogue); audioErr != nil {
			return errors.Wrap(audioErr, "synthesize audio")
		}
		return nil
	})
	if s.cfg.ImageEnabled {
		report(models.Progress{Stage: models.StageImage, Message: "Generating image...", Bundle: nil})
		g.Go(func() error {
			asset, imageErr := s.deps.Images.Synthesize(gctx, scenario.SettingType, scenario.Mood,
				scenario.Description, c1, c2)
			if imageErr == nil {
				image = &asset
				return nil
			}
			if s.cfg.ImageFailureFatal {
				return errors.Wrap(imageErr, "synthesize image")
			}
			s.logger.LogAttrs(ctx, slog.LevelWarn, "continuing without image", errors.SlogError(imageErr))
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return models.Bundle{}, err //nolint:wrapcheck // wrapped in the goroutines.
	}

	bundle := models.Bundle{
		ID:         id,
		Location:   loc,
		Characters: pair,
		Scenario:   scenario,
		Script:     script,
		Audio:      audio,
		Image:      image,
		CreatedAt:  s.now().UTC(),
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "scenario prepared",
		slog.Int("lines", len(script.Dialogue)),
		slog.Bool("image", image != nil),
		slog.Duration("duration", s.now().Sub(start)))
	report(models.Progress{Stage: models.StageReady, Message: "Scenario ready", Bundle: &bundle})
	return bundle, nil
}

func (s *Service) location(ctx context.Context, opts Options) (models.Location, error) {
	if opts.LocationID != "" {
		loc, err := s.deps.Locations.Get(ctx, opts.LocationID)
		if err != nil {
			return models.Location{}, errors.Wrap(err, "get location", slog.String("location_id", opts.LocationID))
		}
		return loc, nil
	}
	loc, err := s.deps.Locations.Pick(ctx, opts.ExcludeLocationID)
	if err != nil {
		return models.Location{}, errors.Wrap(err, "pick location")
	}
	return loc, nil
}

// Next serves the prefetched bundle when there is one and prepares a new bundle otherwise.
// A request for a specific location always prepares a new bundle and leaves the prefetched one in place.
func (s *Service) Next(ctx context.Context, opts Options, emit func(models.Progress)) (models.Bundle, error) {
	if opts.LocationID == "" {
		bundle, ok, err := s.deps.Bundles.Get(ctx)
		switch {
		case err != nil:
			s.logger.LogAttrs(ctx, slog.LevelWarn, "prefetch cache unavailable", errors.SlogError(err))
		case ok:
			s.logger.LogAttrs(ctx, slog.LevelDebug, "serving prefetched scenario", slog.String("bundle_id", bundle.ID))
			if emit != nil {
				emit(models.Progress{Stage: models.StageReady, Message: "Scenario ready", Bundle: &bundle})
			}
			return bundle, nil
		}
	}
	return s.Prepare(ctx, opts, emit)
}

// Prefetch prepares a bundle and stores it in the prefetch cache. Only one prefetch runs at a time.
func (s *Service) Prefetch(ctx context.Context, opts Options) error {
	if !s.prefetching.CompareAndSwap(false, true) {
		return ErrPrefetchRunning
	}
	defer s.prefetching.Store(false)
	return s.prefetch(ctx, opts)
}

// PrefetchInBackground starts a prefetch bounded by timeout in its own goroutine. It reports false when one is
// already running.
func (s *Service) PrefetchInBackground(ctx context.Context, opts Options, timeout time.Duration) bool {
	if !s.prefetching.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.prefetching.Store(false)
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := s.prefetch(ctx, opts); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "prefetch failed", errors.SlogError(err))
		}
	}()
	return true
}

// Prefetching reports whether a prefetch is in progress.
func (s *Service) Prefetching() bool {
	return s.prefetching.Load()
}

func (s *Service) prefetch(ctx context.Context, opts Options) error {
	bundle, err := s.Prepare(ctx, opts, nil)
	if err != nil {
		return errors.Wrap(err, "prepare prefetch")
	}
	return s.Keep(ctx, bundle)
}

// Keep stores bundle in the prefetch cache, replacing what was there.
func (s *Service) Keep(ctx context.Context, bundle models.Bundle) error {
	if err := s.deps.Bundles.Save(ctx, bundle); err != nil {
		return errors.Wrap(err, "save bundle", slog.String("bundle_id", bundle.ID))
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "bundle stored for later", slog.String("bundle_id", bundle.ID))
	return nil
}

// serialize guards emit with a mutex and replaces a nil emit with a no-op.
func serialize(emit func(models.Progress)) func(models.Progress) {
	if emit == nil {
		return func(models.Progress) {}
	}
	var mu sync.Mutex
	return func(p models.Progress) {
		mu.Lock()
		defer mu.Unlock()
		emit(p)
	}
}
