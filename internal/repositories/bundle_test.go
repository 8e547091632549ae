package repositories_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/repositories"
	"github.com/myrjola/taalquest/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newBundle(id string, withImage bool) models.Bundle {
	bundle := models.Bundle{
		ID:         id,
		Location:   testhelpers.Bakery,
		Characters: [2]models.Character{testhelpers.Sanne, testhelpers.Pieter},
		Scenario: models.Scenario{
			Description:    "Sanne koopt brood bij Pieter.",
			SettingType:    "bakery",
			Mood:           "cosy",
			Character1Role: "customer",
			Character2Role: "baker",
		},
		Script: models.Script{
			Situation:  "Sanne buys bread.",
			Characters: [2]string{"Sanne", "Pieter"},
			Dialogue: []models.DialogueLine{
				{Speaker: "Sanne", Text: "Goedemorgen!", Translation: "Good morning!", Voice: models.VoiceFemale},
				{Speaker: "Pieter", Text: "Dag!", Translation: "Hello!", Voice: models.VoiceMale},
			},
			Questions: []models.QuizQuestion{
				{Question: "Where?", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
			},
		},
		Audio: []models.AudioAsset{
			{Index: 0, Voice: models.VoiceFemale, ContentType: "audio/mpeg", Data: []byte{1, 2, 3}},
			{Index: 1, Voice: models.VoiceMale, ContentType: "audio/mpeg", Data: []byte{4, 5, 6}},
		},
		Image:     nil,
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 123, time.UTC),
	}
	if withImage {
		bundle.Image = &models.ImageAsset{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	}
	return bundle
}

func TestBundleRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewBundleRepository(newTestDB(t), testhelpers.NewLogger(io.Discard))

	has, err := repo.Has(ctx)
	require.NoError(t, err)
	require.False(t, has)
	_, ok, err := repo.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	want := newBundle("first", true)
	require.NoError(t, repo.Save(ctx, want))
	has, err = repo.Has(ctx)
	require.NoError(t, err)
	require.True(t, has)

	got, ok, err := repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	// The read was destructive.
	_, ok, err = repo.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	has, err = repo.Has(ctx)
	require.NoError(t, err)
	require.False(t, has)
}

func TestBundleRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repositories.NewBundleRepository(db, testhelpers.NewLogger(io.Discard))

	require.NoError(t, repo.Save(ctx, newBundle("first", false)))
	second := newBundle("second", false)
	require.NoError(t, repo.Save(ctx, second))

	got, ok, err := repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, second, got)
	require.Nil(t, got.Image)

	// The audio of the overwritten bundle is gone too.
	var audioRows int
	require.NoError(t, db.ReadOnly.GetContext(ctx, &audioRows, "SELECT COUNT(*) FROM prefetch_audio"))
	require.Zero(t, audioRows)
}

func TestBundleRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewBundleRepository(newTestDB(t), testhelpers.NewLogger(io.Discard))

	require.NoError(t, repo.Save(ctx, newBundle("first", true)))
	require.NoError(t, repo.Clear(ctx))
	has, err := repo.Has(ctx)
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, repo.Clear(ctx))
}
