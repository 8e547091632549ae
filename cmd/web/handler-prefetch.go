package main

import (
	"net/http"

	"github.com/myrjola/taalquest/internal/game"
)

type prefetchStatusResponse struct {
	Ready   bool `json:"ready"`
	Running bool `json:"running"`
}

func (app *application) prefetchStatus(w http.ResponseWriter, r *http.Request) {
	ready, err := app.core.Bundles.Has(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, prefetchStatusResponse{Ready: ready, Running: app.core.Game.Prefetching()})
}

// startPrefetch prepares the next scenario in the background.
func (app *application) startPrefetch(w http.ResponseWriter, r *http.Request) {
	var opts game.Options
	if err := app.readJSON(w, r, &opts); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if !app.core.Game.PrefetchInBackground(app.ctx, opts, app.cfg.GenerateTimeout) {
		app.clientError(w, r, http.StatusConflict, "A scenario is already being prepared.")
		return
	}
	app.writeJSON(w, r, http.StatusAccepted, prefetchStatusResponse{Ready: false, Running: true})
}

func (app *application) clearPrefetch(w http.ResponseWriter, r *http.Request) {
	if err := app.core.Bundles.Clear(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
