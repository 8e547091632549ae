package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/game"
	"github.com/myrjola/taalquest/internal/logging"
	"github.com/myrjola/taalquest/internal/models"
)

// progressBuffer holds the intermediate progress of a job so that generation never waits for the client.
const progressBuffer = 8

// generateScenario serves the prefetched scenario or prepares a new one and responds with the bundle.
func (app *application) generateScenario(w http.ResponseWriter, r *http.Request) {
	var opts game.Options
	if err := app.readJSON(w, r, &opts); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), app.cfg.GenerateTimeout)
	defer cancel()

	bundle, err := app.core.Game.Next(ctx, opts, nil)
	if err != nil {
		app.failure(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, bundle)
}

type startJobResponse struct {
	JobID string `json:"job_id"`
}

// startScenarioJob starts preparing a scenario in the background. The progress is streamed by scenarioEvents.
func (app *application) startScenarioJob(w http.ResponseWriter, r *http.Request) {
	var opts game.Options
	if err := app.readJSON(w, r, &opts); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	id := uuid.NewString()
	progress := make(chan models.Progress)
	if err := app.jobs.Publish(r.Context(), id, progress); err != nil {
		app.serverError(w, r, errors.Wrap(err, "publish job"))
		return
	}
	go app.runJob(id, opts, progress)
	app.writeJSON(w, r, http.StatusAccepted, startJobResponse{JobID: id})
}

// runJob prepares the scenario and relays the progress to the subscriber. A bundle nobody received is kept in the
// prefetch cache so that the next request gets it.
func (app *application) runJob(id string, opts game.Options, progress chan<- models.Progress) {
	ctx := logging.WithAttrs(app.ctx, slog.String("job_id", id))
	ctx, cancel := context.WithTimeout(ctx, app.cfg.GenerateTimeout)
	defer cancel()

	events := make(chan models.Progress, progressBuffer)
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		app.relay(ctx, events, progress)
	}()

	bundle, err := app.core.Game.Next(ctx, opts, func(p models.Progress) {
		if p.Stage == models.StageReady {
			return
		}
		select {
		case events <- p:
		default:
			app.logger.LogAttrs(ctx, slog.LevelDebug, "progress dropped", slog.String("stage", string(p.Stage)))
		}
	})
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "scenario job failed", errors.SlogError(err))
		events <- models.Progress{Stage: models.StageError, Message: models.UserMessage(err), Bundle: nil}
	} else {
		events <- models.Progress{Stage: models.StageReady, Message: "Scenario ready", Bundle: &bundle}
	}
	close(events)
	<-relayed

	close(progress)
	if err = app.jobs.Unpublish(context.WithoutCancel(ctx), id); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "could not unpublish job", errors.SlogError(err))
	}
}

// relay forwards events to the subscriber. Once the subscriber stops reading for the delivery timeout the rest is
// not delivered and a ready bundle is kept for later.
func (app *application) relay(ctx context.Context, events <-chan models.Progress, progress chan<- models.Progress) {
	delivering := true
	for p := range events {
		if delivering {
			delivering = app.deliver(ctx, p, progress)
		}
		if !delivering && p.Bundle != nil {
			app.keep(ctx, *p.Bundle)
		}
	}
}

func (app *application) deliver(ctx context.Context, p models.Progress, progress chan<- models.Progress) bool {
	timer := time.NewTimer(app.cfg.DeliveryTimeout)
	defer timer.Stop()
	select {
	case progress <- p:
		return true
	case <-timer.C:
		app.logger.LogAttrs(ctx, slog.LevelInfo, "nobody is listening to the job",
			slog.String("stage", string(p.Stage)))
		return false
	case <-ctx.Done():
		return false
	}
}

func (app *application) keep(ctx context.Context, bundle models.Bundle) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.cfg.RequestTimeout)
	defer cancel()
	if err := app.core.Game.Keep(ctx, bundle); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "could not keep undelivered scenario", errors.SlogError(err))
	}
}

// scenarioEvents streams the progress of a job as server-sent events. The final event is "ready" with the bundle
// or "error" with a message.
func (app *application) scenarioEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	progress, ok, err := app.jobs.Subscribe(ctx, id)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "subscribe to job", slog.String("job_id", id)))
		return
	}
	if !ok {
		app.clientError(w, r, http.StatusNotFound,
			"Unknown or finished job. A finished scenario is served by /api/generate-scenario.")
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			app.logger.LogAttrs(ctx, slog.LevelDebug, "client left the event stream", slog.String("job_id", id))
			return
		case p, open := <-progress:
			if !open {
				return
			}
			if err = writeEvent(w, p); err == nil {
				err = rc.Flush()
			}
			if err != nil {
				app.logger.LogAttrs(ctx, slog.LevelWarn, "could not write event", errors.SlogError(err))
				if p.Bundle != nil {
					app.keep(ctx, *p.Bundle)
				}
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, p models.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal progress")
	}
	if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", p.Stage, data); err != nil {
		return errors.Wrap(err, "write event")
	}
	return nil
}
