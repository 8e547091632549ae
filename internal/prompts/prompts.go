// Package prompts renders the prompts sent to the language model and the image model.
package prompts

import (
	"embed"
	"log/slog"
	"strings"
	"text/template"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
)

// SystemPrompt is the system message for every text generation request.
const SystemPrompt = "You are an experienced Dutch teacher who writes lesson material for adult A1 learners."

// OverusedTropes are situations the model falls back to when left to itself.
var OverusedTropes = []string{ //nolint:gochecknoglobals // read-only list
	"someone lost their keys, wallet or phone",
	"a surprise birthday party",
	"asking for directions to the train station",
	"ordering coffee and a slice of apple pie",
	"a tourist who does not understand the menu",
	"two old friends meeting by coincidence",
	"rain ruining the plans for the day",
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must( //nolint:gochecknoglobals // parsed once
	template.New("").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.tmpl"),
)

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", errors.Wrap(err, "execute template", slog.String("template", name))
	}
	return strings.TrimSpace(b.String()), nil
}

// Scenario asks for a creative scene paragraph with both characters at loc.
func Scenario(c1, c2 models.Character, loc models.Location) (string, error) {
	return render("scenario.tmpl", struct {
		Character1 models.Character
		Character2 models.Character
		Location   models.Location
		Tropes     []string
	}{c1, c2, loc, OverusedTropes})
}

// StructureScenario asks for the five-key JSON structure of a raw scene paragraph. The roles are asked for by
// name so that character1_role always describes c1.
func StructureScenario(c1, c2 models.Character, raw string) (string, error) {
	return render("structure_scenario.tmpl", struct {
		Character1 models.Character
		Character2 models.Character
		Scene      string
	}{c1, c2, raw})
}

// Outline asks for the per-turn intent plan of the conversation.
func Outline(c1, c2 models.Character, description string) (string, error) {
	return render("outline.tmpl", struct {
		Character1  models.Character
		Character2  models.Character
		Description string
	}{c1, c2, description})
}

// Dialogue asks for the dialogue lines and the comprehension questions that follow outline.
func Dialogue(c1, c2 models.Character, description string, outline models.ConversationOutline) (string, error) {
	return render("dialogue.tmpl", struct {
		Character1  models.Character
		Character2  models.Character
		Description string
		Outline     models.ConversationOutline
		MinLines    int
		MaxLines    int
		Questions   int
		Options     int
	}{
		Character1:  c1,
		Character2:  c2,
		Description: description,
		Outline:     outline,
		MinLines:    models.MinDialogueLines,
		MaxLines:    models.MaxDialogueLines,
		Questions:   models.QuestionsPerScript,
		Options:     models.OptionsPerQuestion,
	})
}

// Image describes the scene illustration in a fixed style without any text in the picture.
func Image(settingType, mood, description string, characters ...models.Character) (string, error) {
	return render("image.tmpl", struct {
		SettingType string
		Mood        string
		Description string
		Characters  []models.Character
	}{settingType, mood, description, characters})
}
