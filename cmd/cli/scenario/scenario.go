// Package scenario contains the commands that prepare and play scenarios in the terminal.
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/game"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/spf13/cobra"
)

// Opener creates the App for a command. The caller closes it.
type Opener func(ctx context.Context) (*core.App, error)

var Group = &cobra.Group{
	ID:    "scenario",
	Title: "Scenarios",
}

func options(cmd *cobra.Command) (game.Options, error) {
	location, err := cmd.Flags().GetString("location")
	if err != nil {
		return game.Options{}, errors.Wrap(err, "invalid location flag")
	}
	exclude, err := cmd.Flags().GetString("exclude")
	if err != nil {
		return game.Options{}, errors.Wrap(err, "invalid exclude flag")
	}
	return game.Options{LocationID: location, ExcludeLocationID: exclude}, nil
}

func addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("location", "", "location ID, a random location is picked when empty")
	cmd.Flags().String("exclude", "", "location ID to avoid when picking a random location")
}

// progressPrinter writes the stage messages to w.
func progressPrinter(w io.Writer) func(models.Progress) {
	return func(p models.Progress) {
		if p.Stage == models.StageReady {
			return
		}
		_, _ = fmt.Fprintln(w, p.Message)
	}
}

func closeApp(ctx context.Context, a *core.App) {
	if err := a.Close(); err != nil {
		a.Logger().LogAttrs(ctx, slog.LevelWarn, "could not close database", errors.SlogError(err))
	}
}

// NewPregenerate creates the command that prepares a scenario and writes the bundle as JSON.
func NewPregenerate(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pregenerate",
		GroupID: Group.ID,
		Short:   "Prepare a scenario and save it as JSON",
		Long:    `Prepares a complete scenario with audio and writes it to a JSON file. Useful when working on a front end.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			outPath, err := cmd.Flags().GetString("out")
			if err != nil {
				return errors.Wrap(err, "invalid out flag")
			}

			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			ctx, cancel := context.WithTimeout(ctx, a.Config.GenerateTimeout)
			defer cancel()
			bundle, err := a.Game.Prepare(ctx, opts, progressPrinter(cmd.ErrOrStderr()))
			if err != nil {
				return errors.Wrap(err, "prepare scenario")
			}
			if err = writeBundle(outPath, bundle); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "The scenario was saved as %s\n", outPath)
			return nil
		},
	}
	addOptionFlags(cmd)
	cmd.Flags().String("out", "./scenario.json", "path to the generated scenario file")
	return cmd
}

func writeBundle(path string, bundle models.Bundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal bundle")
	}
	if err = os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd // owner read-write
		return errors.Wrap(err, "write bundle", slog.String("path", path))
	}
	return nil
}
