package models

import "github.com/myrjola/taalquest/internal/errors"

var (
	// ErrUpstream is returned when a remote generation call does not succeed.
	ErrUpstream = errors.NewSentinel("upstream request failed")
	// ErrMalformedResponse is returned when a response does not match the expected schema.
	ErrMalformedResponse = errors.NewSentinel("malformed response")
	// ErrPlayback is returned when an audio asset fails to load or play.
	ErrPlayback = errors.NewSentinel("playback failed")
	// ErrValidation is returned by the local content checks.
	ErrValidation = errors.NewSentinel("validation failed")
)

// UserMessage returns a short message suitable for showing to the learner instead of the raw error chain.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstream):
		return "The language service did not respond. Please try again."
	case errors.Is(err, ErrMalformedResponse):
		return "The generated lesson was incomplete. Please try again."
	case errors.Is(err, ErrPlayback):
		return "The audio could not be played."
	case errors.Is(err, ErrValidation):
		return "The generated lesson did not pass the quality checks. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
