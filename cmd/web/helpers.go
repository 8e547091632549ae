package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/repositories"
)

// maxBodyBytes limits the JSON request bodies. Quiz grading carries the questions.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: models.UserMessage(err)})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", method), slog.String("uri", uri), slog.String("message", message))
	app.writeJSON(w, r, status, errorResponse{Error: message})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// failure responds to a failed operation with a status derived from the error and a message for the learner.
func (app *application) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := models.UserMessage(err)
	switch {
	case errors.Is(err, core.ErrNoCredential):
		status, message = http.StatusServiceUnavailable, "No API key is configured."
	case errors.Is(err, repositories.ErrNotFound):
		status, message = http.StatusNotFound, "Not found."
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "The request took too long. Please try again."
	case errors.Is(err, models.ErrUpstream),
		errors.Is(err, models.ErrMalformedResponse),
		errors.Is(err, models.ErrValidation):
		status = http.StatusBadGateway
	}
	app.logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
		slog.String("method", r.Method),
		slog.String("uri", r.URL.RequestURI()),
		slog.Int("status", status),
		errors.SlogError(err))
	app.writeJSON(w, r, status, errorResponse{Error: message})
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "could not encode response",
			errors.SlogError(errors.Wrap(err, "marshal response")))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
