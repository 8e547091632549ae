package main

import "net/http"

func (app *application) locations(w http.ResponseWriter, r *http.Request) {
	locations, err := app.core.Locations.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, locations)
}
