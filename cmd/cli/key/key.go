// Package key manages the saved API key.
package key

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "key",
	Title: "API key",
}

type opener func(context.Context) (*core.App, error)

// New creates the key command with its set and check subcommands.
func New(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		GroupID: Group.ID,
		Short:   "Manage the saved API key",
		Long: `The API key is read from OPENAI_API_KEY. When it is not set, the key saved with "key set" is ` +
			`used instead.`,
	}
	cmd.AddCommand(newSet(open), newCheck(open))
	return cmd
}

func withApp(ctx context.Context, open opener, f func(ctx context.Context, a *core.App) error) error {
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			a.Logger().LogAttrs(ctx, slog.LevelWarn, "could not close database", errors.SlogError(closeErr))
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, a.Config.GenerateTimeout)
	defer cancel()
	return f(ctx, a)
}

func newSet(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Validate and save an API key",
		Long:  `Validates the API key by listing the models and saves it. The key is read from stdin when omitted.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var apiKey string
			if len(args) == 1 {
				apiKey = args[0]
			} else {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if !scanner.Scan() {
					if err := scanner.Err(); err != nil {
						return errors.Wrap(err, "read API key")
					}
					return errors.New("no API key given")
				}
				apiKey = scanner.Text()
			}
			return withApp(cmd.Context(), open, func(ctx context.Context, a *core.App) error {
				if err := a.SetCredential(ctx, apiKey); err != nil {
					return errors.Wrap(err, "set API key")
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "The API key was saved.")
				return nil
			})
		},
	}
}

func newCheck(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the API key in use works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), open, func(ctx context.Context, a *core.App) error {
				if err := a.CheckCredential(ctx); err != nil {
					return errors.Wrap(err, "check API key")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "The API key works and %s is available.\n",
					a.Config.ChatModel)
				return nil
			})
		},
	}
}
