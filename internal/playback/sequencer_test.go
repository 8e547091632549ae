package playback_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/playback"
	"github.com/myrjola/taalquest/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// fakeClock fires immediately and records the requested pauses.
type fakeClock struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.pauses = append(c.pauses, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (c *fakeClock) Pauses() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.pauses...)
}

type fakePlayer struct {
	mu     sync.Mutex
	played []int
	hook   func(ctx context.Context, call int, asset models.AudioAsset) error
}

func (p *fakePlayer) Play(ctx context.Context, asset models.AudioAsset) error {
	p.mu.Lock()
	p.played = append(p.played, asset.Index)
	call := len(p.played)
	p.mu.Unlock()
	if p.hook != nil {
		return p.hook(ctx, call, asset)
	}
	return nil
}

func (p *fakePlayer) Played() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.played...)
}

type recorder struct {
	mu       sync.Mutex
	lines    []int
	speakers []string
	finished int
	errs     []error
}

func (r *recorder) events() playback.Events {
	return playback.Events{
		OnLine: func(index int, speaker string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.lines = append(r.lines, index)
			r.speakers = append(r.speakers, speaker)
		},
		OnFinished: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.finished++
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func dialogue(n int) ([]models.DialogueLine, []models.AudioAsset) {
	speakers := [2]string{"Sanne", "Pieter"}
	lines := make([]models.DialogueLine, n)
	assets := make([]models.AudioAsset, n)
	for i := range n {
		lines[i] = models.DialogueLine{Speaker: speakers[i%2], Text: "regel", Voice: models.VoiceIdentity(i % 2)}
		assets[i] = models.AudioAsset{Index: i, Voice: lines[i].Voice, ContentType: "audio/mpeg", Data: []byte{byte(i)}}
	}
	return lines, assets
}

func waitDone(t *testing.T, s *playback.Sequencer) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish")
	}
}

func TestSequencer_PlaysInOrder(t *testing.T) {
	clock := &fakeClock{}
	player := &fakePlayer{}
	rec := &recorder{}
	s := playback.NewSequencer(player, clock, playback.DefaultPause, rec.events(), testhelpers.NewLogger(io.Discard))

	lines, assets := dialogue(5)
	require.NoError(t, s.Load(lines, assets))
	require.Equal(t, playback.StateIdle, s.State())
	require.Zero(t, s.Progress())

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	require.Equal(t, []int{0, 1, 2, 3, 4}, player.Played())
	require.Equal(t, []int{0, 1, 2, 3, 4}, rec.lines)
	require.Equal(t, []string{"Sanne", "Pieter", "Sanne", "Pieter", "Sanne"}, rec.speakers)
	require.Equal(t, 1, rec.finished)
	require.Empty(t, rec.errs)
	require.Equal(t, playback.StateFinished, s.State())
	require.InDelta(t, 1.0, s.Progress(), 0.0001)

	// One pause between each pair of lines, none before the first or after the last.
	pauses := clock.Pauses()
	require.Len(t, pauses, 4)
	for _, p := range pauses {
		require.Equal(t, 500*time.Millisecond, p)
	}
}

func TestSequencer_RestartWhilePlaying(t *testing.T) {
	started := make(chan struct{})
	player := &fakePlayer{}
	player.hook = func(ctx context.Context, call int, _ models.AudioAsset) error {
		// The second line of the first run blocks until it is halted.
		if call == 2 {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	rec := &recorder{}
	s := playback.NewSequencer(player, &fakeClock{}, playback.DefaultPause, rec.events(),
		testhelpers.NewLogger(io.Discard))
	lines, assets := dialogue(3)
	require.NoError(t, s.Load(lines, assets))

	require.NoError(t, s.Start(context.Background()))
	<-started
	require.Equal(t, playback.StatePlaying, s.State())
	require.Equal(t, 1, s.Index())
	require.InDelta(t, 2.0/3.0, s.Progress(), 0.0001)

	require.NoError(t, s.Replay(context.Background()))
	waitDone(t, s)

	require.Equal(t, []int{0, 1, 0, 1, 2}, player.Played())
	require.Equal(t, 1, rec.finished, "the halted run must not finish")
	require.Empty(t, rec.errs)
	require.Equal(t, playback.StateFinished, s.State())
}

func TestSequencer_ReplayAfterFinished(t *testing.T) {
	player := &fakePlayer{}
	rec := &recorder{}
	s := playback.NewSequencer(player, &fakeClock{}, playback.DefaultPause, rec.events(),
		testhelpers.NewLogger(io.Discard))
	lines, assets := dialogue(4)
	require.NoError(t, s.Load(lines, assets))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)
	require.NoError(t, s.Replay(context.Background()))
	waitDone(t, s)

	require.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3}, player.Played())
	require.Equal(t, 2, rec.finished)
}

func TestSequencer_PlayerError(t *testing.T) {
	player := &fakePlayer{}
	player.hook = func(_ context.Context, call int, _ models.AudioAsset) error {
		if call == 3 {
			return errors.New("corrupt mp3")
		}
		return nil
	}
	rec := &recorder{}
	s := playback.NewSequencer(player, &fakeClock{}, playback.DefaultPause, rec.events(),
		testhelpers.NewLogger(io.Discard))
	lines, assets := dialogue(5)
	require.NoError(t, s.Load(lines, assets))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	require.Equal(t, playback.StateError, s.State())
	require.Zero(t, rec.finished)
	require.Len(t, rec.errs, 1)
	require.ErrorIs(t, rec.errs[0], models.ErrPlayback)
	require.Equal(t, []int{0, 1, 2}, player.Played())

	// Error is not terminal: playing again starts over.
	player.hook = nil
	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)
	require.Equal(t, playback.StateFinished, s.State())
	require.Equal(t, 1, rec.finished)
}

func TestSequencer_Stop(t *testing.T) {
	started := make(chan struct{})
	player := &fakePlayer{}
	player.hook = func(ctx context.Context, call int, _ models.AudioAsset) error {
		if call == 2 {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	rec := &recorder{}
	s := playback.NewSequencer(player, &fakeClock{}, playback.DefaultPause, rec.events(),
		testhelpers.NewLogger(io.Discard))
	lines, assets := dialogue(4)
	require.NoError(t, s.Load(lines, assets))

	require.NoError(t, s.Start(context.Background()))
	<-started
	s.Stop()

	require.Equal(t, playback.StateIdle, s.State())
	require.Zero(t, s.Index())
	require.Zero(t, rec.finished)
	require.Empty(t, rec.errs)
}

func TestSequencer_LoadValidation(t *testing.T) {
	s := playback.NewSequencer(&fakePlayer{}, &fakeClock{}, playback.DefaultPause, playback.Events{},
		testhelpers.NewLogger(io.Discard))

	require.ErrorIs(t, s.Start(context.Background()), models.ErrPlayback)

	lines, assets := dialogue(4)
	require.ErrorIs(t, s.Load(lines, assets[:3]), models.ErrPlayback)

	assets[1], assets[2] = assets[2], assets[1]
	require.ErrorIs(t, s.Load(lines, assets), models.ErrPlayback)
}

func TestSequencer_ContextCancelled(t *testing.T) {
	started := make(chan struct{})
	player := &fakePlayer{}
	player.hook = func(ctx context.Context, call int, _ models.AudioAsset) error {
		if call == 2 {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	rec := &recorder{}
	s := playback.NewSequencer(player, &fakeClock{}, playback.DefaultPause, rec.events(),
		testhelpers.NewLogger(io.Discard))
	lines, assets := dialogue(4)
	require.NoError(t, s.Load(lines, assets))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	<-started
	cancel()
	waitDone(t, s)

	require.Equal(t, playback.StateIdle, s.State())
	require.Zero(t, s.Index())
	require.Zero(t, s.Progress())
	require.Zero(t, rec.finished)
	require.Empty(t, rec.errs)

	// Playing again after the interruption starts over.
	player.hook = nil
	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)
	require.Equal(t, playback.StateFinished, s.State())
	require.Equal(t, 1, rec.finished)
}
