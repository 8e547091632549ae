package models

import (
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/random"
)

type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
)

// VoiceIdentity is the abstract voice tag of a character. It is mapped to a concrete synthesized voice by the
// audio synthesizer so that a character sounds the same on every line.
type VoiceIdentity int

const (
	VoiceFemale VoiceIdentity = 0
	VoiceMale   VoiceIdentity = 1
)

// Character is a member of the fixed cast that the scenarios are written for.
type Character struct {
	Name       string        `json:"name"`
	Gender     Gender        `json:"gender"`
	Voice      VoiceIdentity `json:"voice_id"`
	Appearance string        `json:"appearance,omitempty"`
}

// Roster is the fixed cast. Appearance descriptions are used to keep illustrations consistent.
var Roster = []Character{
	{
		Name:       "Sanne",
		Gender:     GenderFemale,
		Voice:      VoiceFemale,
		Appearance: "woman in her thirties with short blond hair, round glasses and a yellow raincoat",
	},
	{
		Name:       "Emma",
		Gender:     GenderFemale,
		Voice:      VoiceFemale,
		Appearance: "young woman with curly dark hair in a ponytail, denim jacket and a canvas tote bag",
	},
	{
		Name:       "Fatima",
		Gender:     GenderFemale,
		Voice:      VoiceFemale,
		Appearance: "woman in her forties with a green headscarf and a warm smile, carrying a bicycle helmet",
	},
	{
		Name:       "Pieter",
		Gender:     GenderMale,
		Voice:      VoiceMale,
		Appearance: "tall man in his fifties with a grey beard, flat cap and a navy wool sweater",
	},
	{
		Name:       "Daan",
		Gender:     GenderMale,
		Voice:      VoiceMale,
		Appearance: "student in his twenties with messy brown hair, headphones around his neck and a hoodie",
	},
	{
		Name:       "Joost",
		Gender:     GenderMale,
		Voice:      VoiceMale,
		Appearance: "cheerful older man with a bald head, red suspenders and a checkered shirt",
	},
}

// PickPair selects one female and one male character from roster and returns them in random speaking order.
func PickPair(roster []Character) ([2]Character, error) {
	var (
		pair    [2]Character
		females []Character
		males   []Character
	)
	for _, c := range roster {
		switch c.Gender {
		case GenderFemale:
			females = append(females, c)
		case GenderMale:
			males = append(males, c)
		}
	}

	female, err := random.Pick(females)
	if err != nil {
		return pair, errors.Wrap(err, "pick female character")
	}
	male, err := random.Pick(males)
	if err != nil {
		return pair, errors.Wrap(err, "pick male character")
	}

	pair = [2]Character{female, male}
	if err = random.Shuffle(pair[:]); err != nil {
		return pair, errors.Wrap(err, "shuffle speaking order")
	}
	return pair, nil
}
