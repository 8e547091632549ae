package models

const (
	MinDialogueLines   = 4
	MaxDialogueLines   = 6
	QuestionsPerScript = 4
	OptionsPerQuestion = 4
)

// DialogueLine is one spoken line. The position of a line in [Script.Dialogue] is its playback position.
type DialogueLine struct {
	Speaker     string        `json:"speaker"`
	Text        string        `json:"text"`
	Translation string        `json:"translation"`
	Voice       VoiceIdentity `json:"voice_id"`
}

// QuizQuestion is a multiple-choice comprehension question.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Script is the dialogue with its comprehension questions.
type Script struct {
	Situation  string         `json:"situation"`
	Characters [2]string      `json:"characters"`
	Dialogue   []DialogueLine `json:"dialogue"`
	Questions  []QuizQuestion `json:"questions"`
}
