package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	// Short requests answer within the server write timeout.
	short := alice.New(app.timeout)
	// Generation requests wait for the language model.
	generate := alice.New(app.extendWriteDeadline(app.cfg.GenerateTimeout))
	// Event streams stay open until the job is done.
	stream := alice.New(app.extendWriteDeadline(0))

	mux.Handle("GET /api/healthy", short.ThenFunc(app.healthy))
	mux.Handle("GET /api/locations", short.ThenFunc(app.locations))

	mux.Handle("POST /api/generate-scenario", generate.ThenFunc(app.generateScenario))
	mux.Handle("POST /api/scenarios", short.ThenFunc(app.startScenarioJob))
	mux.Handle("GET /api/scenarios/{id}/events", stream.ThenFunc(app.scenarioEvents))
	mux.Handle("POST /api/generate-audio", generate.ThenFunc(app.generateAudio))

	mux.Handle("GET /api/prefetch", short.ThenFunc(app.prefetchStatus))
	mux.Handle("POST /api/prefetch", short.ThenFunc(app.startPrefetch))
	mux.Handle("DELETE /api/prefetch", short.ThenFunc(app.clearPrefetch))

	mux.Handle("POST /api/quiz/grade", short.ThenFunc(app.gradeQuiz))

	mux.Handle("GET /api/credentials", short.ThenFunc(app.credentialStatus))
	mux.Handle("POST /api/credentials", generate.ThenFunc(app.saveCredential))

	mux.Handle("/", http.HandlerFunc(app.notFound))

	common := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return common.Then(mux)
}
