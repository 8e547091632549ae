// Package playback plays the audio of a dialogue line by line.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
)

// DefaultPause is the silence between two lines.
const DefaultPause = 500 * time.Millisecond

type State int

const (
	StateIdle State = iota
	StatePlaying
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Player plays a single audio asset and returns when it has finished or ctx is done.
type Player interface {
	Play(ctx context.Context, asset models.AudioAsset) error
}

type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Events are called from the playback goroutine. They must not call Start, Replay or Stop synchronously.
type Events struct {
	OnLine     func(index int, speaker string)
	OnFinished func()
	OnError    func(err error)
}

// Sequencer plays the loaded assets in order with a fixed pause between lines.
type Sequencer struct {
	player Player
	clock  Clock
	pause  time.Duration
	events Events
	logger *slog.Logger

	// control serializes Load, Start and Stop.
	control sync.Mutex

	mu     sync.Mutex
	state  State
	index  int
	lines  []models.DialogueLine
	assets []models.AudioAsset
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSequencer(player Player, clock Clock, pause time.Duration, events Events, logger *slog.Logger) *Sequencer {
	done := make(chan struct{})
	close(done)
	return &Sequencer{ //nolint:exhaustruct // zero values are the idle state
		player: player,
		clock:  clock,
		pause:  pause,
		events: events,
		logger: logger,
		state:  StateIdle,
		done:   done,
	}
}

// transition is the only place where the state changes. mu must be held.
func (s *Sequencer) transition(to State) {
	from := s.state
	allowed := false
	switch to {
	case StateIdle:
		allowed = true
	case StatePlaying:
		allowed = true
	case StateFinished, StateError:
		allowed = from == StatePlaying
	}
	if !allowed {
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "ignoring invalid playback transition",
			slog.String("from", from.String()), slog.String("to", to.String()))
		return
	}
	s.state = to
}

// Load replaces the dialogue after stopping any playback. assets[i] must be the audio of lines[i].
func (s *Sequencer) Load(lines []models.DialogueLine, assets []models.AudioAsset) error {
	if len(lines) != len(assets) {
		return errors.Wrap(models.ErrPlayback, "lines and assets differ in length",
			slog.Int("lines", len(lines)), slog.Int("assets", len(assets)))
	}
	for i, asset := range assets {
		if asset.Index != i {
			return errors.Wrap(models.ErrPlayback, "asset out of order",
				slog.Int("position", i), slog.Int("index", asset.Index))
		}
	}

	s.control.Lock()
	defer s.control.Unlock()
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	s.assets = assets
	s.index = 0
	s.transition(StateIdle)
	return nil
}

// Start plays from the first line. A running playback is halted first.
func (s *Sequencer) Start(ctx context.Context) error {
	s.control.Lock()
	defer s.control.Unlock()
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.assets) == 0 {
		return errors.Wrap(models.ErrPlayback, "nothing loaded")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.index = 0
	s.transition(StatePlaying)

	go s.run(runCtx, s.lines, s.assets, s.done)
	return nil
}

// Replay is Start.
func (s *Sequencer) Replay(ctx context.Context) error {
	return s.Start(ctx)
}

// Stop halts playback and rewinds to the first line.
func (s *Sequencer) Stop() {
	s.control.Lock()
	defer s.control.Unlock()
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
	s.transition(StateIdle)
}

// halt cancels the running playback and waits for it to return. control must be held.
func (s *Sequencer) halt() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

// Done returns a channel that is closed when the current playback has returned.
func (s *Sequencer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Index is the position of the current line.
func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Progress returns the share of lines started, between 0 and 1.
func (s *Sequencer) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case len(s.lines) == 0 || s.state == StateIdle:
		return 0
	case s.state == StateFinished:
		return 1
	default:
		return float64(s.index+1) / float64(len(s.lines))
	}
}

func (s *Sequencer) run(ctx context.Context, lines []models.DialogueLine, assets []models.AudioAsset, done chan struct{}) {
	defer close(done)

	for i, asset := range assets {
		if i > 0 {
			select {
			case <-s.clock.After(s.pause):
			case <-ctx.Done():
				s.interrupted(ctx, done)
				return
			}
		}
		if ctx.Err() != nil {
			s.interrupted(ctx, done)
			return
		}
		s.mu.Lock()
		s.index = i
		s.mu.Unlock()
		if s.events.OnLine != nil {
			s.events.OnLine(i, lines[i].Speaker)
		}

		if err := s.player.Play(ctx, asset); err != nil {
			if ctx.Err() != nil {
				s.interrupted(ctx, done)
				return
			}
			s.fail(ctx, i, err)
			return
		}
	}
	if ctx.Err() != nil {
		s.interrupted(ctx, done)
		return
	}

	s.mu.Lock()
	s.transition(StateFinished)
	s.mu.Unlock()
	if s.events.OnFinished != nil {
		s.events.OnFinished()
	}
}

// interrupted rewinds to idle when the context given to Start ended. A run halted by Start or Stop is left alone
// because halt clears cancel before cancelling and the caller sets the next state.
func (s *Sequencer) interrupted(ctx context.Context, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.index = 0
	s.transition(StateIdle)
	s.logger.LogAttrs(ctx, slog.LevelDebug, "playback interrupted")
}

func (s *Sequencer) fail(ctx context.Context, index int, cause error) {
	err := errors.Wrap(fmt.Errorf("%w: %w", models.ErrPlayback, cause), "play line", slog.Int("index", index))
	s.logger.LogAttrs(ctx, slog.LevelError, "playback failed", errors.SlogError(err))

	s.mu.Lock()
	s.transition(StateError)
	s.mu.Unlock()
	if s.events.OnError != nil {
		s.events.OnError(err)
	}
}
