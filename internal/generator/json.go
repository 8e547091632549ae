package generator

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
)

// extractObject returns the outermost JSON object in raw, ignoring markdown code fences and surrounding prose.
func extractObject(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", errors.Wrap(models.ErrMalformedResponse, "no JSON object in response")
	}
	return text[start : end+1], nil
}

// decodeObject decodes the JSON object in raw into v after checking that every required key has a value.
func decodeObject(raw string, v any, required ...string) error {
	object, err := extractObject(raw)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err = json.Unmarshal([]byte(object), &fields); err != nil {
		return errors.Wrap(models.ErrMalformedResponse, "unmarshal object", slog.String("cause", err.Error()))
	}
	var missing []string
	for _, key := range required {
		value, ok := fields[key]
		if !ok || isEmpty(value) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.Wrap(models.ErrMalformedResponse, "missing keys",
			slog.String("keys", strings.Join(missing, ",")))
	}

	if err = json.Unmarshal([]byte(object), v); err != nil {
		return errors.Wrap(models.ErrMalformedResponse, "unmarshal fields", slog.String("cause", err.Error()))
	}
	return nil
}

func isEmpty(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte(`""`)) ||
		bytes.Equal(trimmed, []byte("[]"))
}
