// Package generator turns characters and a location into a scenario and a dialogue script with the language model.
package generator

import (
	"context"

	"github.com/myrjola/taalquest/internal/ai"
)

// Completer runs a single chat completion. It is satisfied by [ai.Client].
type Completer interface {
	Complete(ctx context.Context, req ai.ChatRequest) (string, error)
}
