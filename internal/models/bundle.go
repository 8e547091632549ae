package models

import "time"

// AudioAsset is the synthesized speech of the dialogue line at Index.
type AudioAsset struct {
	Index       int           `json:"index"`
	Voice       VoiceIdentity `json:"voice_id"`
	ContentType string        `json:"content_type"`
	Data        []byte        `json:"data"`
}

// ImageAsset is a scene illustration. Inline and remote image responses are both normalized to Data.
type ImageAsset struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
	SourceURL   string `json:"source_url,omitempty"`
}

// Bundle is a completely prepared scenario that is ready for playback.
type Bundle struct {
	ID         string       `json:"id"`
	Location   Location     `json:"location"`
	Characters [2]Character `json:"characters"`
	Scenario   Scenario     `json:"scenario"`
	Script     Script       `json:"script"`
	Audio      []AudioAsset `json:"audio"`
	Image      *ImageAsset  `json:"image,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

type Stage string

const (
	StageCharacters Stage = "characters"
	StageScenario   Stage = "scenario"
	StageScript     Stage = "script"
	StageAudio      Stage = "audio"
	StageImage      Stage = "image"
	StageReady      Stage = "ready"
	StageError      Stage = "error"
)

// Progress reports the advancement of scenario preparation. Bundle is set on the final ready event.
type Progress struct {
	Stage   Stage   `json:"stage"`
	Message string  `json:"message"`
	Bundle  *Bundle `json:"bundle,omitempty"`
}
