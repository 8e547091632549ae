package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/myrjola/taalquest/internal/e2etest"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/logging"
	"github.com/myrjola/taalquest/internal/models"
)

// TestAPI checks the endpoints that work without calling the language service.
func TestAPI(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for healthy")
	}
	var locations []models.Location
	if err := client.JSON(ctx, http.MethodGet, "/api/locations", nil, http.StatusOK, &locations); err != nil {
		return errors.Wrap(err, "list locations")
	}
	if len(locations) == 0 {
		return errors.New("no locations found")
	}
	var credentials struct {
		Configured bool `json:"configured"`
	}
	if err := client.JSON(ctx, http.MethodGet, "/api/credentials", nil, http.StatusOK, &credentials); err != nil {
		return errors.Wrap(err, "get credential status")
	}
	if !credentials.Configured {
		return errors.New("no API key configured")
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the base URL to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <url>")
		os.Exit(1)
	}

	url := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	if err := TestAPI(e2etest.NewClient(url)); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing API", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
