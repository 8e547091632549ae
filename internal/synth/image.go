package synth

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/prompts"
)

const maxImageBytes = 20 << 20

// ImageClient generates an image from a prompt. It is satisfied by [ai.Client].
type ImageClient interface {
	Image(ctx context.Context, prompt string) (ai.Image, error)
}

// HTTPClient fetches images that are returned as URLs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ImageSynthesizer struct {
	client     ImageClient
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewImageSynthesizer creates an ImageSynthesizer. httpClient defaults to [http.DefaultClient].
func NewImageSynthesizer(client ImageClient, httpClient HTTPClient, logger *slog.Logger) *ImageSynthesizer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageSynthesizer{
		client:     client,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Synthesize illustrates the scene. Inline and remote images are both returned as bytes.
func (s *ImageSynthesizer) Synthesize(
	ctx context.Context,
	settingType, mood, description string,
	characters ...models.Character,
) (models.ImageAsset, error) {
	prompt, err := prompts.Image(settingType, mood, description, characters...)
	if err != nil {
		return models.ImageAsset{}, errors.Wrap(err, "build image prompt")
	}
	img, err := s.client.Image(ctx, prompt)
	if err != nil {
		return models.ImageAsset{}, errors.Wrap(err, "generate image")
	}

	var (
		data      []byte
		sourceURL string
	)
	if img.B64JSON != "" {
		if data, err = base64.StdEncoding.DecodeString(img.B64JSON); err != nil {
			return models.ImageAsset{}, errors.Wrap(models.ErrMalformedResponse, "decode image",
				slog.String("cause", err.Error()))
		}
	} else {
		sourceURL = img.URL
		if data, err = s.fetch(ctx, img.URL); err != nil {
			return models.ImageAsset{}, err
		}
	}
	if len(data) == 0 {
		return models.ImageAsset{}, errors.Wrap(models.ErrMalformedResponse, "empty image")
	}

	asset := models.ImageAsset{
		ContentType: http.DetectContentType(data),
		Data:        data,
		SourceURL:   sourceURL,
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "image generated",
		slog.String("content_type", asset.ContentType),
		slog.Int("bytes", len(data)))
	return asset, nil
}

func (s *ImageSynthesizer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(models.ErrMalformedResponse, "invalid image URL", slog.String("url", url))
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("%w: %w", models.ErrUpstream, err), "fetch image")
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "could not close image response", errors.SlogError(err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(models.ErrUpstream, "fetch image", slog.Int("status", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("%w: %w", models.ErrUpstream, err), "read image")
	}
	return data, nil
}
