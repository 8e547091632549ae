// Package synth turns dialogue lines into speech and scenes into illustrations.
package synth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"golang.org/x/sync/errgroup"
)

const audioContentType = "audio/mpeg"

// SpeechClient synthesizes text with a named voice. It is satisfied by [ai.Client].
type SpeechClient interface {
	Speech(ctx context.Context, text string, voice string) ([]byte, error)
}

// AudioStore is a content-addressed cache of synthesized speech.
type AudioStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
}

type AudioConfig struct {
	// Model is part of the cache key so that switching models does not serve stale audio.
	Model string
	// Voices maps voice identities to the voices of the speech model.
	Voices map[models.VoiceIdentity]string
	// Concurrency is the maximum number of concurrent speech requests. 1 synthesizes the lines sequentially.
	Concurrency int
}

type AudioSynthesizer struct {
	client SpeechClient
	store  AudioStore
	logger *slog.Logger
	cfg    AudioConfig
}

// NewAudioSynthesizer creates an AudioSynthesizer. store may be nil to disable caching.
func NewAudioSynthesizer(client SpeechClient, store AudioStore, logger *slog.Logger, cfg AudioConfig) *AudioSynthesizer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &AudioSynthesizer{
		client: client,
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// CacheKey identifies the speech for text spoken by voice with model.
func CacheKey(voice, model, text string) string {
	sum := sha256.Sum256([]byte(voice + ":" + model + ":" + text))
	return hex.EncodeToString(sum[:])
}

func (s *AudioSynthesizer) voiceName(voice models.VoiceIdentity) string {
	if name, ok := s.cfg.Voices[voice]; ok {
		return name
	}
	return s.cfg.Voices[models.VoiceFemale]
}

// Synthesize returns the speech of a single text.
func (s *AudioSynthesizer) Synthesize(
	ctx context.Context,
	text string,
	voice models.VoiceIdentity,
) (models.AudioAsset, error) {
	name := s.voiceName(voice)
	key := CacheKey(name, s.cfg.Model, text)

	if s.store != nil {
		data, ok, err := s.store.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.LogAttrs(ctx, slog.LevelWarn, "audio cache lookup failed", errors.SlogError(err))
		case ok:
			s.logger.LogAttrs(ctx, slog.LevelDebug, "audio cache hit", slog.String("key", key))
			return newAudioAsset(voice, data), nil
		}
	}

	data, err := s.client.Speech(ctx, text, name)
	if err != nil {
		return models.AudioAsset{}, errors.Wrap(err, "synthesize speech", slog.String("voice", name))
	}

	if s.store != nil {
		if err = s.store.Put(ctx, key, data); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "audio cache store failed", errors.SlogError(err))
		}
	}
	return newAudioAsset(voice, data), nil
}

// SynthesizeLines synthesizes every line concurrently. The assets are ordered like lines and the first failure
// cancels the remaining requests.
func (s *AudioSynthesizer) SynthesizeLines(ctx context.Context, lines []models.DialogueLine) ([]models.AudioAsset, error) {
	assets := make([]models.AudioAsset, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, line := range lines {
		g.Go(func() error {
			asset, err := s.Synthesize(gctx, line.Text, line.Voice)
			if err != nil {
				return errors.Wrap(err, "synthesize line", slog.Int("index", i), slog.String("speaker", line.Speaker))
			}
			asset.Index = i
			assets[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped in the goroutine
	}
	return assets, nil
}

func newAudioAsset(voice models.VoiceIdentity, data []byte) models.AudioAsset {
	return models.AudioAsset{
		Index:       0,
		Voice:       voice,
		ContentType: audioContentType,
		Data:        data,
	}
}
