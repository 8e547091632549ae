package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/myrjola/taalquest/internal/e2etest"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/quiz"
	"github.com/myrjola/taalquest/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthyAndLocations(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, testhelpers.NewOpenAIServer(t), nil)
	client := server.Client()

	var locations []models.Location
	require.NoError(t, client.JSON(ctx, http.MethodGet, "/api/locations", nil, http.StatusOK, &locations))
	require.NotEmpty(t, locations)

	resp, err := client.Do(ctx, http.MethodGet, "/api/healthy", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	require.ErrorIs(t, client.JSON(ctx, http.MethodGet, "/api/unknown", nil, http.StatusOK, nil),
		e2etest.ErrUnexpectedStatus)
}

func TestGenerateScenario(t *testing.T) {
	ctx := context.Background()
	openAI := testhelpers.NewOpenAIServer(t, testhelpers.ScriptResponses()...)
	server := startTestServer(t, openAI, map[string]string{"IMAGE_ENABLED": "true"})

	var bundle models.Bundle
	require.NoError(t, server.Client().JSON(ctx, http.MethodPost, "/api/generate-scenario",
		map[string]string{"location_id": "bakkerij"}, http.StatusOK, &bundle))
	require.Equal(t, "bakkerij", bundle.Location.ID)
	require.Len(t, bundle.Script.Dialogue, 5)
	require.Len(t, bundle.Audio, 5)
	require.NotNil(t, bundle.Image)
	require.Equal(t, testhelpers.PNGHeader, bundle.Image.Data)
	require.Equal(t, int32(5), openAI.SpeechCalls.Load())

	// The next generation fails upstream and the learner gets a short message.
	var failure struct {
		Error string `json:"error"`
	}
	require.NoError(t, server.Client().JSON(ctx, http.MethodPost, "/api/generate-scenario", nil,
		http.StatusBadGateway, &failure))
	require.Equal(t, models.UserMessage(models.ErrUpstream), failure.Error)
}

func TestScenarioJobEvents(t *testing.T) {
	ctx := context.Background()
	openAI := testhelpers.NewOpenAIServer(t, testhelpers.ScriptResponses()...)
	server := startTestServer(t, openAI, map[string]string{
		"IMAGE_ENABLED":              "false",
		"TAALQUEST_DELIVERY_TIMEOUT": "5s",
	})
	client := server.Client()

	var job struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/scenarios", map[string]string{}, http.StatusAccepted,
		&job))
	require.NotEmpty(t, job.JobID)

	events, err := client.Events(ctx, "/api/scenarios/"+job.JobID+"/events")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, string(models.StageReady), last.Name)
	var progress models.Progress
	require.NoError(t, json.Unmarshal([]byte(last.Data), &progress))
	require.NotNil(t, progress.Bundle)
	require.Len(t, progress.Bundle.Audio, 5)
	require.Nil(t, progress.Bundle.Image)

	// The job is gone once it has been delivered.
	require.ErrorIs(t, client.JSON(ctx, http.MethodGet, "/api/scenarios/"+job.JobID+"/events", nil, http.StatusOK,
		nil), e2etest.ErrUnexpectedStatus)
}

func TestScenarioJobUndelivered(t *testing.T) {
	ctx := context.Background()
	openAI := testhelpers.NewOpenAIServer(t, testhelpers.ScriptResponses()...)
	server := startTestServer(t, openAI, map[string]string{"IMAGE_ENABLED": "false"})
	client := server.Client()

	// Nobody listens to the job, so its scenario is kept for the next request.
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/scenarios", nil, http.StatusAccepted, nil))
	require.Eventually(t, func() bool {
		var status struct {
			Ready bool `json:"ready"`
		}
		err := client.JSON(ctx, http.MethodGet, "/api/prefetch", nil, http.StatusOK, &status)
		return err == nil && status.Ready
	}, 5*time.Second, 20*time.Millisecond)

	var bundle models.Bundle
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/generate-scenario", nil, http.StatusOK, &bundle))
	require.Len(t, bundle.Audio, 5)
	require.Len(t, openAI.Completer.Requests(), 4, "the kept scenario is served without generating")
}

func TestPrefetch(t *testing.T) {
	ctx := context.Background()
	openAI := testhelpers.NewOpenAIServer(t, testhelpers.ScriptResponses()...)
	server := startTestServer(t, openAI, map[string]string{"IMAGE_ENABLED": "false"})
	client := server.Client()

	type status struct {
		Ready   bool `json:"ready"`
		Running bool `json:"running"`
	}
	var s status
	require.NoError(t, client.JSON(ctx, http.MethodGet, "/api/prefetch", nil, http.StatusOK, &s))
	require.False(t, s.Ready)

	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/prefetch",
		map[string]string{"exclude_location_id": "bakkerij"}, http.StatusAccepted, &s))
	require.True(t, s.Running)
	require.Eventually(t, func() bool {
		err := client.JSON(ctx, http.MethodGet, "/api/prefetch", nil, http.StatusOK, &s)
		return err == nil && s.Ready && !s.Running
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Do(ctx, http.MethodDelete, "/api/prefetch", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, client.JSON(ctx, http.MethodGet, "/api/prefetch", nil, http.StatusOK, &s))
	require.False(t, s.Ready)
}

func TestGenerateAudio(t *testing.T) {
	ctx := context.Background()
	openAI := testhelpers.NewOpenAIServer(t)
	server := startTestServer(t, openAI, nil)
	client := server.Client()

	resp, err := client.Do(ctx, http.MethodPost, "/api/generate-audio",
		map[string]any{"text": "Goedemorgen!", "voice_id": 1})
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	require.Equal(t, "echo:Goedemorgen!", string(body))

	// The second request is served from the cache.
	resp, err = client.Do(ctx, http.MethodPost, "/api/generate-audio",
		map[string]any{"text": "Goedemorgen!", "voice_id": 1})
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, int32(1), openAI.SpeechCalls.Load())

	for _, body := range []map[string]any{
		{"text": "  ", "voice_id": 0},
		{"text": "Hallo", "voice_id": 7},
		{"text": "Hallo", "speaker": "Sanne"},
	} {
		require.ErrorIs(t, client.JSON(ctx, http.MethodPost, "/api/generate-audio", body, http.StatusOK, nil),
			e2etest.ErrUnexpectedStatus)
	}
}

func TestGradeQuiz(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, testhelpers.NewOpenAIServer(t), nil)
	client := server.Client()

	questions := []models.QuizQuestion{
		{Question: "1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
		{Question: "2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
		{Question: "3", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
		{Question: "4", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3},
	}
	var result quiz.Result
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/quiz/grade",
		map[string]any{"questions": questions, "selections": []int{0, 1, 2, 0}}, http.StatusOK, &result))
	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 75, result.Percent)
	assert.Equal(t, quiz.TierFor(75), result.Tier)

	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/quiz/grade",
		map[string]any{"questions": questions, "selections": []int{9}}, http.StatusBadRequest, nil))
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, testhelpers.NewOpenAIServer(t), map[string]string{"OPENAI_API_KEY": ""})
	client := server.Client()

	type status struct {
		Configured bool `json:"configured"`
	}
	var s status
	require.NoError(t, client.JSON(ctx, http.MethodGet, "/api/credentials", nil, http.StatusOK, &s))
	require.False(t, s.Configured)

	// Without a key the generation is unavailable.
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/generate-scenario", nil,
		http.StatusServiceUnavailable, nil))

	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/credentials",
		map[string]string{"api_key": testhelpers.RejectedAPIKey}, http.StatusBadRequest, nil))
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/credentials",
		map[string]string{"api_key": ""}, http.StatusBadRequest, nil))
	require.NoError(t, client.JSON(ctx, http.MethodPost, "/api/credentials",
		map[string]string{"api_key": "sk-new"}, http.StatusOK, &s))
	require.True(t, s.Configured)
}
