package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/sashabaranov/go-openai"
)

// Config selects the endpoint and the models used for each capability.
type Config struct {
	APIKey              string
	BaseURL             string
	ChatModel           string
	SpeechModel         string
	SpeechSpeed         float64
	ImageModel          string
	ImageSize           string
	ImageQuality        string
	ImageResponseFormat string
}

// ChatRequest is a single-turn chat completion.
type ChatRequest struct {
	System      string
	Prompt      string
	Temperature float32
	// JSON forces the model to answer with a single JSON object.
	JSON bool
}

// Image is a generated image, either inline base64 data or a URL to fetch it from.
type Image struct {
	B64JSON string
	URL     string
}

const MaxTokens = 4096

type Client struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger.With(slog.String("source", "ai.Client")),
	}
}

// Complete returns the content of the first choice of a chat completion.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2) //nolint:mnd // system and user
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	temperature := req.Temperature
	if temperature == 0 {
		// The client omits a zero temperature from the request, which the API treats as 1.
		temperature = math.SmallestNonzeroFloat32
	}

	request := openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:       c.cfg.ChatModel,
		MaxTokens:   MaxTokens,
		Messages:    messages,
		Temperature: temperature,
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{ //nolint:exhaustruct // no schema
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	completion, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", upstreamError(err, "create chat completion", slog.String("model", c.cfg.ChatModel))
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(models.ErrMalformedResponse, "completion without choices")
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "chat completion",
		slog.String("model", completion.Model),
		slog.Bool("json", req.JSON),
		slog.Int("total_tokens", completion.Usage.TotalTokens),
		slog.Duration("duration", time.Since(start)))

	return completion.Choices[0].Message.Content, nil
}

// Speech synthesizes text with the given voice and returns the mp3 payload.
func (c *Client) Speech(ctx context.Context, text string, voice string) ([]byte, error) {
	response, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          c.cfg.SpeechSpeed,
	})
	if err != nil {
		return nil, upstreamError(err, "create speech", slog.String("voice", voice))
	}
	defer func() {
		if err = response.Close(); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "could not close speech response",
				errors.SlogError(errors.Wrap(err, "close speech response")))
		}
	}()

	data, err := io.ReadAll(response)
	if err != nil {
		return nil, upstreamError(err, "read speech response")
	}
	if len(data) == 0 {
		return nil, errors.Wrap(models.ErrMalformedResponse, "empty speech response")
	}
	return data, nil
}

// Image generates a single image for prompt.
func (c *Client) Image(ctx context.Context, prompt string) (Image, error) {
	response, err := c.client.CreateImage(ctx, openai.ImageRequest{ //nolint:exhaustruct // this is better for readability
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           c.cfg.ImageSize,
		Quality:        c.cfg.ImageQuality,
		ResponseFormat: c.cfg.ImageResponseFormat,
	})
	if err != nil {
		return Image{}, upstreamError(err, "create image", slog.String("model", c.cfg.ImageModel))
	}
	if len(response.Data) == 0 {
		return Image{}, errors.Wrap(models.ErrMalformedResponse, "image response without data")
	}
	data := response.Data[0]
	if data.B64JSON == "" && data.URL == "" {
		return Image{}, errors.Wrap(models.ErrMalformedResponse, "image response without content")
	}
	return Image{B64JSON: data.B64JSON, URL: data.URL}, nil
}

// ErrModelUnavailable is returned by CheckAvailable when the credential works but the chat model is not listed.
var ErrModelUnavailable = errors.NewSentinel("chat model not available")

// CheckAvailable validates the credential by listing the models and looking for the configured chat model.
func (c *Client) CheckAvailable(ctx context.Context) error {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return upstreamError(err, "list models")
	}
	ids := make([]string, len(list.Models))
	for i, m := range list.Models {
		ids[i] = m.ID
	}
	if !slices.Contains(ids, c.cfg.ChatModel) {
		return errors.Wrap(ErrModelUnavailable, "find chat model", slog.String("model", c.cfg.ChatModel))
	}
	return nil
}

// upstreamError marks err as an upstream failure while keeping the API message in the chain.
func upstreamError(err error, msg string, attrs ...slog.Attr) error {
	var (
		apiErr     *openai.APIError
		requestErr *openai.RequestError
	)
	switch {
	case errors.As(err, &apiErr):
		attrs = append(attrs, slog.Int("status", apiErr.HTTPStatusCode))
	case errors.As(err, &requestErr):
		attrs = append(attrs, slog.Int("status", requestErr.HTTPStatusCode))
	}
	return errors.Wrap(fmt.Errorf("%w: %w", models.ErrUpstream, err), msg, attrs...)
}
