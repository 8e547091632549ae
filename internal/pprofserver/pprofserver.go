// Package pprofserver serves the runtime profiles on the loopback interface.
package pprofserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
)

func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

func newServer(addr string) *http.Server {
	mux := http.NewServeMux()
	Handle(mux)
	return &http.Server{ //nolint:exhaustruct // profiles are long-running requests without timeouts.
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}
}

// Addr returns the ipv6 loopback address ::1 with the given port such as ":6060".
func Addr(port string) string {
	return fmt.Sprintf("[::1]%s", port)
}

// Launch a standard pprof server at ipv6 loopback address ::1 and given port. It stops when ctx is done.
func Launch(ctx context.Context, port string, logger *slog.Logger) {
	srv := newServer(Addr(port))
	go func() {
		logger.LogAttrs(ctx, slog.LevelInfo, "starting pprof server", slog.String("pprof_addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.LogAttrs(ctx, slog.LevelError, "pprof server failed", errors.SlogError(errors.Wrap(err, "serve pprof")))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
