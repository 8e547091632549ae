package testhelpers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/sashabaranov/go-openai"
)

// PNGHeader is the image served by [OpenAIServer].
var PNGHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR") //nolint:gochecknoglobals // test fixture

// RejectedAPIKey is refused by [OpenAIServer].
const RejectedAPIKey = "sk-rejected"

// OpenAIServer imitates the chat, speech, image and model endpoints of the OpenAI API.
// Chat completions are answered by Completer. Speech is returned as "voice:text".
type OpenAIServer struct {
	*httptest.Server
	Completer   *FakeCompleter
	SpeechCalls atomic.Int32
	ImageCalls  atomic.Int32
}

func NewOpenAIServer(t testing.TB, responses ...FakeResponse) *OpenAIServer {
	t.Helper()
	s := &OpenAIServer{
		Server:      nil,
		Completer:   NewFakeCompleter(responses...),
		SpeechCalls: atomic.Int32{},
		ImageCalls:  atomic.Int32{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", s.chat)
	mux.HandleFunc("POST /v1/audio/speech", s.speech)
	mux.HandleFunc("POST /v1/images/generations", s.image)
	mux.HandleFunc("GET /v1/models", s.models)
	s.Server = httptest.NewServer(s.authorize(mux))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value for the client base URL setting.
func (s *OpenAIServer) BaseURL() string {
	return s.URL + "/v1"
}

func (s *OpenAIServer) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+RejectedAPIKey {
			writeAPIError(w, http.StatusUnauthorized, "Incorrect API key provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *OpenAIServer) chat(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	chatReq := ai.ChatRequest{
		System:      "",
		Prompt:      "",
		Temperature: req.Temperature,
		JSON:        req.ResponseFormat != nil && req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	for _, m := range req.Messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			chatReq.System = m.Content
		case openai.ChatMessageRoleUser:
			chatReq.Prompt = m.Content
		}
	}
	content, err := s.Completer.Complete(context.WithoutCancel(r.Context()), chatReq)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, openai.ChatCompletionResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	})
}

func (s *OpenAIServer) speech(w http.ResponseWriter, r *http.Request) {
	s.SpeechCalls.Add(1)
	var req openai.CreateSpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	_, _ = w.Write([]byte(string(req.Voice) + ":" + req.Input))
}

func (s *OpenAIServer) image(w http.ResponseWriter, r *http.Request) {
	s.ImageCalls.Add(1)
	var req openai.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeAPIError(w, http.StatusBadRequest, "empty prompt")
		return
	}
	writeJSON(w, openai.ImageResponse{
		Created: 1,
		Data:    []openai.ImageResponseDataInner{{B64JSON: base64.StdEncoding.EncodeToString(PNGHeader)}},
	})
}

func (s *OpenAIServer) models(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, openai.ModelsList{Models: []openai.Model{
		{ID: "gpt-4o", Object: "model", OwnedBy: "openai"},
		{ID: "tts-1", Object: "model", OwnedBy: "openai"},
	}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message, "type": "invalid_request_error"},
	})
}
