package testhelpers

import (
	"context"
	"sync"

	"github.com/myrjola/taalquest/internal/ai"
	"github.com/myrjola/taalquest/internal/errors"
)

// FakeResponse is a canned chat completion result.
type FakeResponse struct {
	Content string
	Err     error
}

// FakeCompleter answers chat completions from a queue of canned responses and records the requests.
type FakeCompleter struct {
	mu        sync.Mutex
	responses []FakeResponse
	requests  []ai.ChatRequest
}

func NewFakeCompleter(responses ...FakeResponse) *FakeCompleter {
	return &FakeCompleter{
		mu:        sync.Mutex{},
		responses: responses,
		requests:  nil,
	}
}

// Enqueue appends responses to the queue.
func (f *FakeCompleter) Enqueue(responses ...FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

func (f *FakeCompleter) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "fake completion")
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response left")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response.Content, response.Err
}

// Requests returns a copy of the recorded requests.
func (f *FakeCompleter) Requests() []ai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.ChatRequest(nil), f.requests...)
}
