package main

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/taalquest/internal/e2etest"
	"github.com/myrjola/taalquest/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// startTestServer starts the server with an in-memory database against a fake OpenAI API.
// env overrides the test defaults.
func startTestServer(
	t *testing.T,
	openAI *testhelpers.OpenAIServer,
	env map[string]string,
) *e2etest.Server {
	t.Helper()
	defaults := map[string]string{
		"TAALQUEST_ADDR":             "localhost:0",
		"TAALQUEST_SQLITE_URL":       ":memory:",
		"OPENAI_API_KEY":             "sk-test",
		"OPENAI_BASE_URL":            openAI.BaseURL(),
		"TAALQUEST_DELIVERY_TIMEOUT": "200ms",
	}
	for k, v := range env {
		defaults[k] = v
	}
	lookupEnv := func(key string) (string, bool) {
		v, ok := defaults[key]
		return v, ok
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	return server
}
