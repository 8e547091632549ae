package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/myrjola/taalquest/cmd/cli/img"
	"github.com/myrjola/taalquest/cmd/cli/key"
	"github.com/myrjola/taalquest/cmd/cli/scenario"
	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/logging"
	"github.com/spf13/cobra"
)

// open creates the App from the environment. Logs go to stderr so that they do not mix with the output.
func open(ctx context.Context) (*core.App, error) {
	level, _ := os.LookupEnv("TAALQUEST_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(level), false)
	a, err := core.Open(ctx, logger, os.LookupEnv)
	if err != nil {
		return nil, errors.Wrap(err, "open app")
	}
	return a, nil
}

func init() {
	// The .env file is optional, the environment may be configured otherwise.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(scenario.Group)
	rootCmd.AddCommand(scenario.NewPlay(open), scenario.NewPregenerate(open))
	rootCmd.AddGroup(img.Group)
	rootCmd.AddCommand(img.NewGenerate(open))
	rootCmd.AddGroup(key.Group)
	rootCmd.AddCommand(key.New(open))
}

var rootCmd = &cobra.Command{
	Use:           "taalquest",
	Short:         "Listen to short Dutch conversations and answer questions about them",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		level := slog.LevelError
		logging.NewLogger(os.Stderr, level, false).LogAttrs(context.Background(), level, "command failed",
			errors.SlogError(err))
		os.Exit(1)
	}
}

func main() {
	Execute()
}
