package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/logging"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API serves only JSON, audio and event streams.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		ctx := logging.WithAttrs(r.Context(), slog.String("request_id", uuid.NewString()))
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request",
			slog.String("proto", proto), slog.String("method", method), slog.String("uri", uri))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, errors.New(fmt.Sprintf("%v", err)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// timeout responds with 503 Service Unavailable when the handler does not finish within the request timeout.
func (app *application) timeout(next http.Handler) http.Handler {
	return timeoutHandler(next, app.cfg.RequestTimeout)
}

// extendWriteDeadline lets the handler write for d past the server write timeout. Zero removes the deadline.
func (app *application) extendWriteDeadline(d time.Duration) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline := time.Time{}
			if d > 0 {
				deadline = time.Now().Add(d)
			}
			if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
				app.logger.LogAttrs(r.Context(), slog.LevelWarn, "could not extend write deadline",
					errors.SlogError(errors.Wrap(err, "set write deadline")))
			}
			next.ServeHTTP(w, r)
		})
	}
}
