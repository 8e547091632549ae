// Package config holds the settings shared by the web server and the command line tool.
package config

import (
	"time"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/envstruct"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/game"
	"github.com/myrjola/taalquest/internal/generator"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/synth"
)

type Config struct {
	// Addr is the address the web server listens on.
	Addr string `env:"TAALQUEST_ADDR" envDefault:"localhost:4000"`
	// PprofPort is the loopback port of the profiling server. Empty disables it.
	PprofPort string `env:"TAALQUEST_PPROF_PORT" envDefault:""`
	// SqliteURL points to the database file. ":memory:" keeps everything in memory.
	SqliteURL string `env:"TAALQUEST_SQLITE_URL" envDefault:"./taalquest.sqlite3"`
	LogLevel  string `env:"TAALQUEST_LOG_LEVEL" envDefault:"info"`

	// OpenAIAPIKey falls back to the credential stored in the database when empty.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`

	ChatModel           string  `env:"TAALQUEST_CHAT_MODEL" envDefault:"gpt-4o"`
	ScenarioTemperature float64 `env:"TAALQUEST_SCENARIO_TEMPERATURE" envDefault:"1.0"`
	DialogueTemperature float64 `env:"TAALQUEST_DIALOGUE_TEMPERATURE" envDefault:"0.7"`
	// RejectInvalidScenarios fails generation when a scenario does not pass the local checks.
	RejectInvalidScenarios bool `env:"TAALQUEST_REJECT_INVALID_SCENARIOS" envDefault:"false"`

	SpeechModel      string  `env:"TAALQUEST_SPEECH_MODEL" envDefault:"tts-1"`
	SpeechSpeed      float64 `env:"TAALQUEST_SPEECH_SPEED" envDefault:"0.9"`
	FemaleVoice      string  `env:"TAALQUEST_VOICE_FEMALE" envDefault:"alloy"`
	MaleVoice        string  `env:"TAALQUEST_VOICE_MALE" envDefault:"echo"`
	AudioConcurrency int     `env:"AUDIO_CONCURRENCY" envDefault:"4"`

	ImageEnabled        bool   `env:"IMAGE_ENABLED" envDefault:"true"`
	ImageFailureFatal   bool   `env:"IMAGE_FAILURE_FATAL" envDefault:"false"`
	ImageModel          string `env:"TAALQUEST_IMAGE_MODEL" envDefault:"dall-e-3"`
	ImageSize           string `env:"TAALQUEST_IMAGE_SIZE" envDefault:"1024x1024"`
	ImageQuality        string `env:"TAALQUEST_IMAGE_QUALITY" envDefault:"standard"`
	ImageResponseFormat string `env:"TAALQUEST_IMAGE_RESPONSE_FORMAT" envDefault:"b64_json"`

	// RequestTimeout bounds the short API requests.
	RequestTimeout time.Duration `env:"TAALQUEST_REQUEST_TIMEOUT" envDefault:"5s"`
	// GenerateTimeout bounds a whole scenario preparation.
	GenerateTimeout time.Duration `env:"TAALQUEST_GENERATE_TIMEOUT" envDefault:"3m"`
	// DeliveryTimeout is how long a job waits for its progress to be read before keeping the result for later.
	DeliveryTimeout time.Duration `env:"TAALQUEST_DELIVERY_TIMEOUT" envDefault:"30s"`
}

// Load fills a Config from lookupEnv, which has the signature of [os.LookupEnv].
func Load(lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return Config{}, errors.Wrap(err, "populate config")
	}
	if cfg.AudioConcurrency < 1 {
		cfg.AudioConcurrency = 1
	}
	return cfg, nil
}

// AI returns the client settings. apiKey overrides the configured key.
func (c Config) AI(apiKey string) ai.Config {
	return ai.Config{
		APIKey:              apiKey,
		BaseURL:             c.OpenAIBaseURL,
		ChatModel:           c.ChatModel,
		SpeechModel:         c.SpeechModel,
		SpeechSpeed:         c.SpeechSpeed,
		ImageModel:          c.ImageModel,
		ImageSize:           c.ImageSize,
		ImageQuality:        c.ImageQuality,
		ImageResponseFormat: c.ImageResponseFormat,
	}
}

func (c Config) Scenario() generator.ScenarioConfig {
	return generator.ScenarioConfig{
		Temperature:   float32(c.ScenarioTemperature),
		RejectInvalid: c.RejectInvalidScenarios,
	}
}

func (c Config) Audio() synth.AudioConfig {
	return synth.AudioConfig{
		Model: c.SpeechModel,
		Voices: map[models.VoiceIdentity]string{
			models.VoiceFemale: c.FemaleVoice,
			models.VoiceMale:   c.MaleVoice,
		},
		Concurrency: c.AudioConcurrency,
	}
}

func (c Config) Game() game.Config {
	return game.Config{
		Roster:            models.Roster,
		ImageEnabled:      c.ImageEnabled,
		ImageFailureFatal: c.ImageFailureFatal,
	}
}
