package generator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/prompts"
)

type ScenarioConfig struct {
	// Temperature of the creative paragraph request. The structuring request always runs at zero.
	Temperature float32
	// RejectInvalid returns validation failures instead of logging them.
	RejectInvalid bool
}

type ScenarioGenerator struct {
	completer Completer
	logger    *slog.Logger
	cfg       ScenarioConfig
}

func NewScenarioGenerator(completer Completer, logger *slog.Logger, cfg ScenarioConfig) *ScenarioGenerator {
	return &ScenarioGenerator{
		completer: completer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate writes a scene for c1 and c2 at loc and extracts its structure.
func (g *ScenarioGenerator) Generate(
	ctx context.Context,
	c1, c2 models.Character,
	loc models.Location,
) (models.Scenario, error) {
	attrs := []slog.Attr{
		slog.String("character1", c1.Name),
		slog.String("character2", c2.Name),
		slog.String("location", loc.ID),
	}

	prompt, err := prompts.Scenario(c1, c2, loc)
	if err != nil {
		return models.Scenario{}, errors.Wrap(err, "build scenario prompt", attrs...)
	}
	raw, err := g.completer.Complete(ctx, ai.ChatRequest{
		System:      prompts.SystemPrompt,
		Prompt:      prompt,
		Temperature: g.cfg.Temperature,
		JSON:        false,
	})
	if err != nil {
		return models.Scenario{}, errors.Wrap(err, "write scenario", attrs...)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Scenario{}, errors.Wrap(models.ErrMalformedResponse, "empty scenario", attrs...)
	}

	if prompt, err = prompts.StructureScenario(c1, c2, raw); err != nil {
		return models.Scenario{}, errors.Wrap(err, "build structure prompt", attrs...)
	}
	structured, err := g.completer.Complete(ctx, ai.ChatRequest{
		System:      prompts.SystemPrompt,
		Prompt:      prompt,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return models.Scenario{}, errors.Wrap(err, "structure scenario", attrs...)
	}

	var scenario models.Scenario
	if err = decodeObject(structured, &scenario,
		"description", "setting_type", "mood", "character1_role", "character2_role"); err != nil {
		return models.Scenario{}, errors.Wrap(err, "decode scenario", attrs...)
	}

	if err = models.ValidateScenario(scenario, c1.Name, c2.Name); err != nil {
		if g.cfg.RejectInvalid {
			return models.Scenario{}, errors.Wrap(err, "validate scenario", attrs...)
		}
		g.logger.LogAttrs(ctx, slog.LevelWarn, "scenario did not pass validation",
			append(attrs, errors.SlogError(err))...)
	}

	return scenario, nil
}
