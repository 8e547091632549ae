package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/myrjola/taalquest/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&buf, slog.LevelDebug, false).With(slog.String("component", "test"))

	ctx := logging.WithAttrs(context.Background(), slog.String("bundle_id", "abc"))
	ctx = logging.WithAttrs(ctx, slog.Int("line", 2))
	logger.LogAttrs(ctx, slog.LevelInfo, "playing line")

	out := buf.String()
	require.Contains(t, out, "playing line")
	require.Contains(t, out, "component=test")
	require.Contains(t, out, "bundle_id=abc")
	require.Contains(t, out, "line=2")
}

func TestWithAttrsDoesNotLeakBetweenSiblings(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&buf, slog.LevelDebug, false)

	parent := logging.WithAttrs(context.Background(), slog.String("a", "1"), slog.String("b", "2"))
	first := logging.WithAttrs(parent, slog.String("sibling", "first"))
	_ = logging.WithAttrs(parent, slog.String("sibling", "second"))

	logger.LogAttrs(first, slog.LevelInfo, "hello")
	require.Contains(t, buf.String(), "sibling=first")
	require.NotContains(t, buf.String(), "sibling=second")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, logging.ParseLevel("nonsense"))
}
