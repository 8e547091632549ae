package img

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "img",
	Title: "Image operations",
}

// NewGenerate creates the command that illustrates a scene description.
func NewGenerate(open func(context.Context) (*core.App, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gen [description]",
		GroupID: Group.ID,
		Short:   "Generate image",
		Long:    `Illustrates a scene description the same way the scenarios are illustrated.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			outPath, err := cmd.Flags().GetString("out")
			if err != nil {
				return errors.Wrap(err, "invalid out flag")
			}
			setting, err := cmd.Flags().GetString("setting")
			if err != nil {
				return errors.Wrap(err, "invalid setting flag")
			}
			mood, err := cmd.Flags().GetString("mood")
			if err != nil {
				return errors.Wrap(err, "invalid mood flag")
			}

			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err = a.Close(); err != nil {
					a.Logger().LogAttrs(ctx, slog.LevelWarn, "could not close database", errors.SlogError(err))
				}
			}()

			ctx, cancel := context.WithTimeout(ctx, a.Config.GenerateTimeout)
			defer cancel()
			image, err := a.Images.Synthesize(ctx, setting, mood, strings.Join(args, " "))
			if err != nil {
				return errors.Wrap(err, "generate image")
			}
			if err = os.WriteFile(outPath, image.Data, 0o600); err != nil { //nolint:mnd // owner read-write
				return errors.Wrap(err, "write image", slog.String("path", outPath))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "The %s image was saved as %s\n", image.ContentType, outPath)
			return nil
		},
	}
	cmd.Flags().String("out", "./out.png", "path to generated image file")
	cmd.Flags().String("setting", "street", "setting type of the scene")
	cmd.Flags().String("mood", "cheerful", "mood of the scene")
	return cmd
}
