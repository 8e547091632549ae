package errors

import (
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := Wrap(sentinel, "wrapping")
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "wrapping: test error", wrapped.Error())

	// Ensure log values are coming through.
	var annotated *AnnotatedError
	require.True(t, As(err, &annotated))
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "nothing to wrap"))
}

func TestSlogError(t *testing.T) {
	inner := New("inner", slog.String("stage", "outline"))
	outer := Wrap(inner, "generate script", slog.String("character", "Sanne"))

	attr := SlogError(outer)
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("msg", "generate script: inner"))
	require.Contains(t, group, slog.String("character", "Sanne"))
	require.Contains(t, group, slog.String("stage", "outline"))
}
