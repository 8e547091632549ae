package models

// Location is an entry in the catalog of neighbourhood settings.
type Location struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Type        string `json:"type" db:"type"`
	Description string `json:"description" db:"description"`
}

// Scenario is the structured result of the scenario generation pipeline.
type Scenario struct {
	Description    string `json:"description"`
	SettingType    string `json:"setting_type"`
	Mood           string `json:"mood"`
	Character1Role string `json:"character1_role"`
	Character2Role string `json:"character2_role"`
}

// ConversationOutline commits the dialogue to a single topic and a plan of intents, one per turn.
type ConversationOutline struct {
	MainTopic          string `json:"main_topic"`
	OpeningIntent      string `json:"opening_intent"`
	ResponseIntent     string `json:"response_intent"`
	FollowupIntent     string `json:"followup_intent"`
	ContinuationIntent string `json:"continuation_intent"`
	ClosingIntent      string `json:"closing_intent"`
	SituationSummary   string `json:"situation_summary"`
}

// Intents returns the non-empty turn intents in speaking order.
func (o ConversationOutline) Intents() []string {
	all := []string{o.OpeningIntent, o.ResponseIntent, o.FollowupIntent, o.ContinuationIntent, o.ClosingIntent}
	intents := make([]string, 0, len(all))
	for _, intent := range all {
		if intent != "" {
			intents = append(intents, intent)
		}
	}
	return intents
}
