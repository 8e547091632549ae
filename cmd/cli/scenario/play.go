package scenario

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/myrjola/taalquest/internal/core"
	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/game"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/playback"
	"github.com/myrjola/taalquest/internal/quiz"
	"github.com/spf13/cobra"
)

// NewPlay creates the command that plays the next scenario and runs the quiz.
func NewPlay(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "play",
		GroupID: Group.ID,
		Short:   "Play a scenario",
		Long: `Plays the next scenario through a command-line audio player, shows the transcript and asks the ` +
			`comprehension questions. The following scenario is prepared while you listen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			silent, err := cmd.Flags().GetBool("silent")
			if err != nil {
				return errors.Wrap(err, "invalid silent flag")
			}
			prefetch, err := cmd.Flags().GetBool("prefetch")
			if err != nil {
				return errors.Wrap(err, "invalid prefetch flag")
			}

			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			generateCtx, cancel := context.WithTimeout(ctx, a.Config.GenerateTimeout)
			defer cancel()
			bundle, err := a.Game.Next(generateCtx, opts, progressPrinter(cmd.ErrOrStderr()))
			if err != nil {
				return errors.Wrap(err, "next scenario")
			}

			waitPrefetch := func(bool) error { return nil }
			if prefetch {
				waitPrefetch = prefetchNext(ctx, a, bundle.Location.ID)
			}
			// Registered after closeApp so that an early return stops the prefetch before the database closes.
			completed := false
			defer func() {
				if !completed {
					_ = waitPrefetch(true)
				}
			}()

			out := cmd.OutOrStdout()
			writeIntroduction(out, bundle)
			if !silent {
				if err = listen(ctx, out, bundle, a); err != nil {
					return err
				}
			}
			writeTranscript(out, bundle)

			result, err := runQuiz(out, cmd.InOrStdin(), bundle.Script.Questions)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "\nScore: %d/%d (%d%%)\n%s\n", result.Score, result.Total, result.Percent,
				result.Message)

			if prefetch {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Preparing the next scenario...")
			}
			completed = true
			if err = waitPrefetch(false); err != nil {
				a.Logger().LogAttrs(ctx, slog.LevelWarn, "could not prepare the next scenario",
					errors.SlogError(err))
			}
			return nil
		},
	}
	addOptionFlags(cmd)
	cmd.Flags().Bool("silent", false, "skip the audio and only show the transcript")
	cmd.Flags().Bool("prefetch", true, "prepare the next scenario while playing")
	return cmd
}

// prefetchNext prepares the scenario after the one at excludeID in the background. The returned function waits for
// it, cancelling it first when abort is set.
func prefetchNext(ctx context.Context, a *core.App, excludeID string) func(abort bool) error {
	ctx, cancel := context.WithTimeout(ctx, a.Config.GenerateTimeout)
	done := make(chan error, 1)
	go func() {
		done <- a.Game.Prefetch(ctx, game.Options{LocationID: "", ExcludeLocationID: excludeID})
	}()
	return func(abort bool) error {
		defer cancel()
		if abort {
			cancel()
		}
		return <-done
	}
}

// listen plays the dialogue and waits until it has finished.
func listen(ctx context.Context, out io.Writer, bundle models.Bundle, a *core.App) error {
	player, err := playback.NewCommandPlayer(a.Logger())
	if err != nil {
		return errors.Wrap(err, "find audio player")
	}
	var playErr error
	lines := bundle.Script.Dialogue
	sequencer := playback.NewSequencer(player, playback.RealClock{}, playback.DefaultPause, playback.Events{
		OnLine: func(index int, speaker string) {
			_, _ = fmt.Fprintf(out, "[%d/%d] %s: %s\n", index+1, len(lines), speaker, lines[index].Text)
		},
		OnFinished: nil,
		OnError: func(err error) {
			playErr = err
		},
	}, a.Logger())
	if err = sequencer.Load(lines, bundle.Audio); err != nil {
		return errors.Wrap(err, "load dialogue")
	}
	_, _ = fmt.Fprintln(out)
	if err = sequencer.Start(ctx); err != nil {
		return errors.Wrap(err, "start playback")
	}
	<-sequencer.Done()
	if playErr != nil {
		return playErr
	}
	return ctx.Err() //nolint:wrapcheck // interrupted
}

func writeIntroduction(w io.Writer, bundle models.Bundle) {
	_, _ = fmt.Fprintf(w, "\n%s\n\n%s\n", bundle.Location.Name, bundle.Scenario.Description)
}

func writeTranscript(w io.Writer, bundle models.Bundle) {
	_, _ = fmt.Fprintln(w, "\nTranscript")
	for _, line := range bundle.Script.Dialogue {
		_, _ = fmt.Fprintf(w, "%s: %s\n    %s\n", line.Speaker, line.Text, line.Translation)
	}
}

// runQuiz asks the questions on w and reads the answers, one option number per line, from r.
func runQuiz(w io.Writer, r io.Reader, questions []models.QuizQuestion) (quiz.Result, error) {
	engine := quiz.NewEngine(questions)
	if _, err := engine.Start(); err != nil {
		return quiz.Result{}, errors.Wrap(err, "start quiz")
	}
	scanner := bufio.NewScanner(r)
	for {
		if result, done := engine.Result(); done {
			return result, nil
		}
		q := engine.Question()
		_, _ = fmt.Fprintf(w, "\n%s\n", q.Question)
		for i, option := range q.Options {
			_, _ = fmt.Fprintf(w, "  %d) %s\n", i+1, option)
		}

		state, err := askOption(w, scanner, engine)
		if err != nil {
			return quiz.Result{}, err
		}
		if chosen := state.Selections[state.Current]; chosen == q.CorrectIndex {
			_, _ = fmt.Fprintln(w, "Correct!")
		} else {
			_, _ = fmt.Fprintf(w, "Not quite. The answer is %d) %s\n", q.CorrectIndex+1, q.Options[q.CorrectIndex])
		}
		if _, err = engine.Next(); err != nil {
			return quiz.Result{}, errors.Wrap(err, "next question")
		}
	}
}

// askOption reads lines until one selects a valid option.
func askOption(w io.Writer, scanner *bufio.Scanner, engine *quiz.Engine) (quiz.State, error) {
	for {
		_, _ = fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return quiz.State{}, errors.Wrap(err, "read answer")
			}
			return quiz.State{}, errors.New("quiz ended before all questions were answered")
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			_, _ = fmt.Fprintln(w, "Type the number of your answer.")
			continue
		}
		state, err := engine.Select(n - 1)
		if errors.Is(err, quiz.ErrInvalidAction) {
			_, _ = fmt.Fprintln(w, "Type the number of your answer.")
			continue
		}
		if err != nil {
			return quiz.State{}, errors.Wrap(err, "select answer")
		}
		return state, nil
	}
}
