package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/quiz"
	"github.com/myrjola/taalquest/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{Question: "Waar?", Options: []string{"Markt", "Bakkerij", "Station", "Bieb"}, CorrectIndex: 1},
		{Question: "Wat?", Options: []string{"Rozijnen", "Noten", "Pitten", "Kaas"}, CorrectIndex: 2},
	}
}

func TestRunQuiz(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantScore int
		wantErr   bool
	}{
		{name: "all correct", input: "2\n3\n", wantScore: 2, wantErr: false},
		{name: "retries invalid input", input: "x\n9\n2\n1\n", wantScore: 1, wantErr: false},
		{name: "input ends early", input: "2\n", wantScore: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			result, err := runQuiz(&out, strings.NewReader(tt.input), questions())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, 2, result.Total)
			assert.Equal(t, quiz.TierFor(result.Percent), result.Tier)
			assert.Contains(t, out.String(), "2) Bakkerij")
		})
	}
}

func TestRunQuiz_Feedback(t *testing.T) {
	var out bytes.Buffer
	_, err := runQuiz(&out, strings.NewReader("1\n3\n"), questions())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Not quite. The answer is 2) Bakkerij")
	assert.Contains(t, out.String(), "Correct!")
}

func TestWriteTranscript(t *testing.T) {
	var out bytes.Buffer
	writeTranscript(&out, models.Bundle{ //nolint:exhaustruct // only the script is printed
		Script: models.Script{ //nolint:exhaustruct // only the dialogue is printed
			Dialogue: []models.DialogueLine{
				{Speaker: "Sanne", Text: "Hallo!", Translation: "Hello!", Voice: models.VoiceFemale},
			},
		},
	})
	assert.Equal(t, "\nTranscript\nSanne: Hallo!\n    Hello!\n", out.String())
}

// testOpener opens apps on an in-memory database against openAI.
func testOpener(openAI *testhelpers.OpenAIServer) Opener {
	env := map[string]string{
		"TAALQUEST_SQLITE_URL": ":memory:",
		"OPENAI_API_KEY":       "sk-test",
		"OPENAI_BASE_URL":      openAI.BaseURL(),
		"IMAGE_ENABLED":        "false",
	}
	return func(ctx context.Context) (*core.App, error) {
		return core.Open(ctx, testhelpers.NewLogger(io.Discard), func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		})
	}
}

func TestPrefetchNext(t *testing.T) {
	tests := []struct {
		name      string
		responses []testhelpers.FakeResponse
		abort     bool
	}{
		{name: "completes", responses: testhelpers.ScriptResponses(), abort: false},
		{name: "aborted", responses: nil, abort: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, err := testOpener(testhelpers.NewOpenAIServer(t, tt.responses...))(ctx)
			require.NoError(t, err)

			wait := prefetchNext(ctx, a, "bakkerij")
			err = wait(tt.abort)
			// The prefetch has returned, so the database can be closed.
			require.False(t, a.Game.Prefetching())
			ready, hasErr := a.Bundles.Has(ctx)
			require.NoError(t, hasErr)
			if tt.abort {
				require.Error(t, err)
				require.False(t, ready)
			} else {
				require.NoError(t, err)
				require.True(t, ready)
				bundle, ok, getErr := a.Bundles.Get(ctx)
				require.NoError(t, getErr)
				require.True(t, ok)
				require.NotEqual(t, "bakkerij", bundle.Location.ID)
			}
			require.NoError(t, a.Close())
		})
	}
}

func TestPregenerate(t *testing.T) {
	open := testOpener(testhelpers.NewOpenAIServer(t, testhelpers.ScriptResponses()...))
	outPath := filepath.Join(t.TempDir(), "scenario.json")

	cmd := NewPregenerate(open)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--location", "bakkerij", "--out", outPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, stdout.String(), outPath)
	assert.Contains(t, stderr.String(), "Generating dialogue...")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var bundle models.Bundle
	require.NoError(t, json.Unmarshal(data, &bundle))
	assert.Equal(t, "bakkerij", bundle.Location.ID)
	assert.Len(t, bundle.Audio, len(bundle.Script.Dialogue))
	assert.Nil(t, bundle.Image)
}
