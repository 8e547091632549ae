package e2etest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/myrjola/taalquest/internal/errors"
)

// ErrUnexpectedStatus is returned when the server responds with another status than expected.
var ErrUnexpectedStatus = errors.NewSentinel("unexpected status code")

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates an HTTP client for the JSON API served at url.
func NewClient(url string) *Client {
	return &Client{
		client: &http.Client{}, //nolint:exhaustruct // defaults
		url:    url,
	}
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		resp *http.Response
	)
	for {
		if resp, err = c.Do(ctx, http.MethodGet, urlPath, nil); err == nil {
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Do sends a request with an optional JSON body and returns the response.
func (c *Client) Do(ctx context.Context, method, urlPath string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, reader)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// JSON sends a request and decodes the JSON response into out when the status matches wantStatus.
// out may be nil to discard the body.
func (c *Client) JSON(ctx context.Context, method, urlPath string, body any, wantStatus int, out any) error {
	resp, err := c.Do(ctx, method, urlPath, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != wantStatus {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10)) //nolint:mnd // 1 KiB is enough for an error.
		return errors.Wrap(ErrUnexpectedStatus, "check status",
			slog.String("url", urlPath),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(message)))
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response", slog.String("url", urlPath))
	}
	return nil
}

// Event is a server-sent event.
type Event struct {
	Name string
	Data string
}

// Events reads the server-sent event stream at urlPath until the server closes it.
func (c *Client) Events(ctx context.Context, urlPath string) ([]Event, error) {
	resp, err := c.Do(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(ErrUnexpectedStatus, "open event stream",
			slog.String("url", urlPath), slog.Int("status", resp.StatusCode))
	}

	var (
		events  []Event
		current Event
		scanner = bufio.NewScanner(resp.Body)
	)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20) //nolint:mnd // bundles carry audio.
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Name != "" || current.Data != "" {
				events = append(events, current)
			}
			current = Event{Name: "", Data: ""}
		case strings.HasPrefix(line, "event: "):
			current.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data += strings.TrimPrefix(line, "data: ")
		}
	}
	if err = scanner.Err(); err != nil {
		return events, errors.Wrap(err, "read event stream")
	}
	return events, nil
}
