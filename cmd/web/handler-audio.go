package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/taalquest/internal/models"
)

type generateAudioRequest struct {
	Text  string               `json:"text"`
	Voice models.VoiceIdentity `json:"voice_id"`
}

// generateAudio synthesizes a single line, used to replay a line on its own.
func (app *application) generateAudio(w http.ResponseWriter, r *http.Request) {
	var req generateAudioRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		app.clientError(w, r, http.StatusBadRequest, "Text is required.")
		return
	}
	if req.Voice != models.VoiceFemale && req.Voice != models.VoiceMale {
		app.clientError(w, r, http.StatusBadRequest, "Unknown voice.")
		return
	}

	asset, err := app.core.Audio.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		app.failure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(asset.Data)
}
