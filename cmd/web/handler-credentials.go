package main

import (
	"net/http"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
)

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

type credentialStatusResponse struct {
	Configured bool `json:"configured"`
}

func (app *application) credentialStatus(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, credentialStatusResponse{Configured: app.core.HasCredential()})
}

// saveCredential validates the API key against the model listing and saves it.
func (app *application) saveCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	err := app.core.SetCredential(r.Context(), req.APIKey)
	switch {
	case errors.Is(err, core.ErrNoCredential):
		app.clientError(w, r, http.StatusBadRequest, "An API key is required.")
	case errors.Is(err, ai.ErrModelUnavailable):
		app.clientError(w, r, http.StatusBadRequest, "The chat model is not available with this API key.")
	case errors.Is(err, models.ErrUpstream):
		app.clientError(w, r, http.StatusBadRequest, "The API key was not accepted.")
	case err != nil:
		app.failure(w, r, err)
	default:
		app.writeJSON(w, r, http.StatusOK, credentialStatusResponse{Configured: true})
	}
}
