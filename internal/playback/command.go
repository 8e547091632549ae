package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
)

type playerCommand struct {
	name string
	args []string
}

// playerCommands are tried in order. The asset's file name is appended to args.
var playerCommands = []playerCommand{ //nolint:gochecknoglobals // read-only list
	{name: "afplay", args: nil},
	{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{name: "mpg123", args: []string{"-q"}},
}

// CommandPlayer plays assets with a command-line audio player.
type CommandPlayer struct {
	command playerCommand
	logger  *slog.Logger
}

// NewCommandPlayer finds the first installed audio player.
func NewCommandPlayer(logger *slog.Logger) (*CommandPlayer, error) {
	for _, c := range playerCommands {
		if _, err := exec.LookPath(c.name); err == nil {
			return &CommandPlayer{command: c, logger: logger}, nil
		}
	}
	return nil, errors.Wrap(models.ErrPlayback, "no audio player found, install ffmpeg or mpg123")
}

// Play writes the asset to a temporary file and plays it. The file is removed afterwards.
func (p *CommandPlayer) Play(ctx context.Context, asset models.AudioAsset) error {
	f, err := os.CreateTemp("", "taalquest-*.mp3")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		if err = os.Remove(f.Name()); err != nil {
			p.logger.LogAttrs(ctx, slog.LevelWarn, "could not remove audio file",
				slog.String("file", f.Name()), errors.SlogError(err))
		}
	}()
	if _, err = f.Write(asset.Data); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	args := append(append([]string(nil), p.command.args...), f.Name())
	cmd := exec.CommandContext(ctx, p.command.name, args...)
	if out, runErr := cmd.CombinedOutput(); runErr != nil {
		if ctx.Err() != nil {
			return ctx.Err() //nolint:wrapcheck // cancellation is not a failure
		}
		return errors.Wrap(fmt.Errorf("%w: %w", models.ErrPlayback, runErr), "run audio player",
			slog.String("player", p.command.name), slog.String("output", string(out)))
	}
	return nil
}
