// Package core wires the configuration, storage, language model client and game service together.
package core

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/config"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/game"
	"github.com/myrjola/taalquest/internal/generator"
	"github.com/myrjola/taalquest/internal/repositories"
	"github.com/myrjola/taalquest/internal/sqlite"
	"github.com/myrjola/taalquest/internal/synth"
)

// ErrNoCredential is returned by the remote calls when no API key is configured or saved.
var ErrNoCredential = errors.NewSentinel("no API key configured")

type App struct {
	Config      config.Config
	DB          *sqlite.Database
	Locations   *repositories.LocationRepository
	Bundles     *repositories.BundleRepository
	Credentials *repositories.CredentialRepository
	Audio       *synth.AudioSynthesizer
	Images      *synth.ImageSynthesizer
	Game        *game.Service

	logger *slog.Logger
	client *switchingClient
}

// New opens the database and builds the services. The API key comes from the configuration and falls back to the
// saved credential.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}

	a := &App{
		Config:      cfg,
		DB:          db,
		Locations:   repositories.NewLocationRepository(db, logger),
		Bundles:     repositories.NewBundleRepository(db, logger),
		Credentials: repositories.NewCredentialRepository(db, logger),
		Audio:       nil,
		Images:      nil,
		Game:        nil,
		logger:      logger,
		client:      &switchingClient{current: atomic.Pointer[ai.Client]{}},
	}

	apiKey := cfg.OpenAIAPIKey
	if apiKey == "" {
		var ok bool
		if apiKey, ok, err = a.Credentials.Get(ctx, repositories.CredentialOpenAI); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "get saved credential")
		}
		if ok {
			logger.LogAttrs(ctx, slog.LevelDebug, "using saved API key")
		}
	}
	if apiKey != "" {
		a.client.current.Store(ai.NewClient(cfg.AI(apiKey), logger))
	} else {
		logger.LogAttrs(ctx, slog.LevelWarn, "no API key configured")
	}

	a.Audio = synth.NewAudioSynthesizer(a.client, repositories.NewAudioCacheRepository(db, logger), logger, cfg.Audio())
	a.Images = synth.NewImageSynthesizer(a.client, nil, logger)
	a.Game = game.NewService(game.Dependencies{
		Locations: a.Locations,
		Bundles:   a.Bundles,
		Scenarios: generator.NewScenarioGenerator(a.client, logger, cfg.Scenario()),
		Scripts:   generator.NewScriptGenerator(a.client, logger, float32(cfg.DialogueTemperature)),
		Audio:     a.Audio,
		Images:    a.Images,
	}, cfg.Game(), logger)
	return a, nil
}

// Open loads the configuration with lookupEnv and creates the App.
func Open(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) (*App, error) {
	cfg, err := config.Load(lookupEnv)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return New(ctx, cfg, logger)
}

func (a *App) Close() error {
	return a.DB.Close()
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

// HasCredential reports whether an API key is in use.
func (a *App) HasCredential() bool {
	return a.client.current.Load() != nil
}

// CheckCredential validates the API key in use by listing the models.
func (a *App) CheckCredential(ctx context.Context) error {
	client := a.client.current.Load()
	if client == nil {
		return ErrNoCredential
	}
	return client.CheckAvailable(ctx) //nolint:wrapcheck // annotated by the client.
}

// SetCredential validates apiKey, saves it and starts using it.
func (a *App) SetCredential(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrNoCredential
	}
	client := ai.NewClient(a.Config.AI(apiKey), a.logger)
	if err := client.CheckAvailable(ctx); err != nil {
		return errors.Wrap(err, "validate API key")
	}
	if err := a.Credentials.Set(ctx, repositories.CredentialOpenAI, apiKey); err != nil {
		return errors.Wrap(err, "save API key")
	}
	a.client.current.Store(client)
	return nil
}

// switchingClient forwards to the current client so that a new API key takes effect without rebuilding the services.
type switchingClient struct {
	current atomic.Pointer[ai.Client]
}

func (s *switchingClient) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	client := s.current.Load()
	if client == nil {
		return "", ErrNoCredential
	}
	return client.Complete(ctx, req) //nolint:wrapcheck // annotated by the client.
}

func (s *switchingClient) Speech(ctx context.Context, text string, voice string) ([]byte, error) {
	client := s.current.Load()
	if client == nil {
		return nil, ErrNoCredential
	}
	return client.Speech(ctx, text, voice) //nolint:wrapcheck // annotated by the client.
}

func (s *switchingClient) Image(ctx context.Context, prompt string) (ai.Image, error) {
	client := s.current.Load()
	if client == nil {
		return ai.Image{}, ErrNoCredential
	}
	return client.Image(ctx, prompt) //nolint:wrapcheck // annotated by the client.
}
