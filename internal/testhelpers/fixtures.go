package testhelpers

import "github.com/myrjola/taalquest/internal/models"

// Canned responses for a bakery conversation between Sanne and Pieter.
const (
	ScenarioParagraph = `Sanne walks into De Bakkerij on a grey Saturday morning, shaking the rain off her yellow ` +
		`raincoat. Pieter, the baker, is sliding a tray of warm brown loaves onto the shelf behind the counter. ` +
		`Sanne needs bread for a picnic with her neighbours, but she has never tried the seeded loaf that Pieter ` +
		`is so proud of. She asks him about it while the smell of cinnamon fills the small shop.`

	ScenarioJSON = `{
  "description": "Sanne walks into De Bakkerij on a grey Saturday morning, shaking the rain off her yellow raincoat. Pieter, the baker, is sliding a tray of warm brown loaves onto the shelf behind the counter. Sanne needs bread for a picnic with her neighbours, but she has never tried the seeded loaf that Pieter is so proud of. She asks him about it while the smell of cinnamon fills the small shop.",
  "setting_type": "bakery",
  "mood": "cosy",
  "character1_role": "customer",
  "character2_role": "baker"
}`

	OutlineJSON = "```json\n" + `{
  "main_topic": "buying the seeded loaf",
  "opening_intent": "Sanne greets Pieter and asks about the seeded loaf",
  "response_intent": "Pieter explains that it is fresh and has sunflower seeds",
  "followup_intent": "Sanne asks how much it costs",
  "continuation_intent": "Pieter tells the price and offers a bag",
  "closing_intent": "Sanne pays and they say goodbye",
  "situation_summary": "Sanne buys a seeded loaf from Pieter the baker."
}` + "\n```"

	// DialogueJSON deliberately carries the wrong voice on every line.
	DialogueJSON = `{
  "situation": "Sanne buys a seeded loaf from Pieter the baker.",
  "dialogue": [
    {"speaker": "Sanne", "text": "Goedemorgen! Is dit brood vers?", "translation": "Good morning! Is this bread fresh?", "voice_id": 1},
    {"speaker": "Pieter", "text": "Ja, het is van vanochtend. Met zonnebloempitten.", "translation": "Yes, it is from this morning. With sunflower seeds.", "voice_id": 0},
    {"speaker": "Sanne", "text": "Lekker. Hoeveel kost het?", "translation": "Nice. How much does it cost?", "voice_id": 1},
    {"speaker": "Pieter", "text": "Het kost vier euro. Wilt u een tas?", "translation": "It costs four euros. Would you like a bag?", "voice_id": 0},
    {"speaker": "Sanne", "text": "Ja, graag. Dank u wel. Tot ziens!", "translation": "Yes, please. Thank you. Goodbye!", "voice_id": 1}
  ],
  "questions": [
    {"question": "Where does the conversation take place?", "options": ["At the market", "In a bakery", "At a station", "In a library"], "correct_index": 1},
    {"question": "What is in the bread?", "options": ["Raisins", "Nuts", "Sunflower seeds", "Cheese"], "correct_index": 2},
    {"question": "How much does the bread cost?", "options": ["Two euros", "Three euros", "Four euros", "Five euros"], "correct_index": 2},
    {"question": "Why does Pieter offer a bag?", "options": ["It is raining", "Sanne has no hands free", "The bread is hot", "Sanne is buying a lot"], "correct_index": 0}
  ]
}`
)

var (
	Sanne = models.Character{ //nolint:gochecknoglobals // test fixture
		Name:       "Sanne",
		Gender:     models.GenderFemale,
		Voice:      models.VoiceFemale,
		Appearance: "woman in her thirties with short blond hair and a yellow raincoat",
	}
	Pieter = models.Character{ //nolint:gochecknoglobals // test fixture
		Name:       "Pieter",
		Gender:     models.GenderMale,
		Voice:      models.VoiceMale,
		Appearance: "tall man in his fifties with a grey beard",
	}
	Bakery = models.Location{ //nolint:gochecknoglobals // test fixture
		ID:          "bakkerij",
		Name:        "De Bakkerij",
		Type:        "bakery",
		Description: "A small bakery on the corner with fresh bread every morning.",
	}
)

// ScriptResponses returns the canned responses for one full scenario and script generation.
func ScriptResponses() []FakeResponse {
	return []FakeResponse{
		{Content: ScenarioParagraph, Err: nil},
		{Content: ScenarioJSON, Err: nil},
		{Content: OutlineJSON, Err: nil},
		{Content: DialogueJSON, Err: nil},
	}
}
