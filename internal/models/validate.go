package models

import (
	"log/slog"
	"strings"

	"github.com/myrjola/taalquest/internal/errors"
)

// MinScenarioWords is the minimum length of a scenario description.
const MinScenarioWords = 40

// ValidateScenario checks that the description names both characters and is long enough to set a scene.
func ValidateScenario(s Scenario, name1, name2 string) error {
	var problems []error
	if words := len(strings.Fields(s.Description)); words < MinScenarioWords {
		problems = append(problems, errors.Wrap(ErrValidation, "description too short",
			slog.Int("words", words), slog.Int("min", MinScenarioWords)))
	}
	for _, name := range []string{name1, name2} {
		if !strings.Contains(s.Description, name) {
			problems = append(problems, errors.Wrap(ErrValidation, "character not mentioned",
				slog.String("name", name)))
		}
	}
	return errors.Join(problems...)
}

// ValidateScript checks the shape the playback and the quiz rely on.
func ValidateScript(s Script) error {
	var problems []error
	if n := len(s.Dialogue); n < MinDialogueLines || n > MaxDialogueLines {
		problems = append(problems, errors.Wrap(ErrValidation, "dialogue length out of range",
			slog.Int("lines", n)))
	}
	for i, line := range s.Dialogue {
		if strings.TrimSpace(line.Speaker) == "" || strings.TrimSpace(line.Text) == "" {
			problems = append(problems, errors.Wrap(ErrValidation, "empty dialogue line", slog.Int("line", i)))
		}
	}
	if n := len(s.Questions); n != QuestionsPerScript {
		problems = append(problems, errors.Wrap(ErrValidation, "wrong number of questions",
			slog.Int("questions", n)))
	}
	for i, q := range s.Questions {
		if len(q.Options) != OptionsPerQuestion {
			problems = append(problems, errors.Wrap(ErrValidation, "wrong number of options",
				slog.Int("question", i), slog.Int("options", len(q.Options))))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			problems = append(problems, errors.Wrap(ErrValidation, "correct index out of range",
				slog.Int("question", i), slog.Int("correct_index", q.CorrectIndex)))
		}
	}
	return errors.Join(problems...)
}
