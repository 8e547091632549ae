package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/prompts"
)

type ScriptGenerator struct {
	completer   Completer
	logger      *slog.Logger
	temperature float32
}

// NewScriptGenerator creates a ScriptGenerator. temperature applies to the dialogue stage, the outline is planned
// at zero temperature.
func NewScriptGenerator(completer Completer, logger *slog.Logger, temperature float32) *ScriptGenerator {
	return &ScriptGenerator{
		completer:   completer,
		logger:      logger,
		temperature: temperature,
	}
}

// Generate plans the conversation with an outline and then writes the dialogue and quiz following it.
func (g *ScriptGenerator) Generate(
	ctx context.Context,
	c1, c2 models.Character,
	scenarioDescription string,
) (models.Script, error) {
	outline, err := g.outline(ctx, c1, c2, scenarioDescription)
	if err != nil {
		return models.Script{}, errors.Wrap(err, "outline stage", slog.String("stage", "outline"))
	}

	script, err := g.dialogue(ctx, c1, c2, scenarioDescription, outline)
	if err != nil {
		return models.Script{}, errors.Wrap(err, "dialogue stage", slog.String("stage", "dialogue"))
	}

	AssignVoices(script.Dialogue, c1, c2)
	script.Characters = [2]string{c1.Name, c2.Name}
	if script.Situation == "" {
		script.Situation = outline.SituationSummary
	}

	if err = models.ValidateScript(script); err != nil {
		return models.Script{}, errors.Wrap(fmt.Errorf("%w: %w", models.ErrMalformedResponse, err), "check script",
			slog.Int("lines", len(script.Dialogue)),
			slog.Int("questions", len(script.Questions)))
	}

	g.logger.LogAttrs(ctx, slog.LevelDebug, "script generated",
		slog.String("topic", outline.MainTopic),
		slog.Int("lines", len(script.Dialogue)))
	return script, nil
}

// outlineKeys are required so that the dialogue can follow one intent per line.
var outlineKeys = []string{ //nolint:gochecknoglobals // read-only list
	"main_topic",
	"opening_intent",
	"response_intent",
	"followup_intent",
	"continuation_intent",
	"closing_intent",
	"situation_summary",
}

func (g *ScriptGenerator) outline(
	ctx context.Context,
	c1, c2 models.Character,
	description string,
) (models.ConversationOutline, error) {
	prompt, err := prompts.Outline(c1, c2, description)
	if err != nil {
		return models.ConversationOutline{}, errors.Wrap(err, "build outline prompt")
	}
	raw, err := g.completer.Complete(ctx, ai.ChatRequest{
		System:      prompts.SystemPrompt,
		Prompt:      prompt,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return models.ConversationOutline{}, errors.Wrap(err, "complete outline")
	}

	var outline models.ConversationOutline
	if err = decodeObject(raw, &outline, outlineKeys...); err != nil {
		return models.ConversationOutline{}, errors.Wrap(err, "decode outline")
	}
	return outline, nil
}

func (g *ScriptGenerator) dialogue(
	ctx context.Context,
	c1, c2 models.Character,
	description string,
	outline models.ConversationOutline,
) (models.Script, error) {
	prompt, err := prompts.Dialogue(c1, c2, description, outline)
	if err != nil {
		return models.Script{}, errors.Wrap(err, "build dialogue prompt")
	}
	raw, err := g.completer.Complete(ctx, ai.ChatRequest{
		System:      prompts.SystemPrompt,
		Prompt:      prompt,
		Temperature: g.temperature,
		JSON:        true,
	})
	if err != nil {
		return models.Script{}, errors.Wrap(err, "complete dialogue")
	}

	var script models.Script
	if err = decodeObject(raw, &script, "dialogue", "questions"); err != nil {
		return models.Script{}, errors.Wrap(err, "decode dialogue")
	}
	return script, nil
}

// AssignVoices sets the voice of every line to the voice of the character with the speaker's name. Lines with an
// unknown speaker get the voice of c1.
func AssignVoices(lines []models.DialogueLine, c1, c2 models.Character) {
	voices := map[string]models.VoiceIdentity{
		c1.Name: c1.Voice,
		c2.Name: c2.Voice,
	}
	for i := range lines {
		voice, ok := voices[strings.TrimSpace(lines[i].Speaker)]
		if !ok {
			voice = c1.Voice
		}
		lines[i].Voice = voice
	}
}
