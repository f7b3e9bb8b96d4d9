// Package llm provides the text-generation transports used by the
// extraction and persona collaborators.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable marks a transport-level failure: the provider could not
// be reached or refused the call.
var ErrUnavailable = errors.New("llm: provider unavailable")

// ErrEmptyResponse is returned when the provider answered with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single system-plus-user completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Generate implements Client.
func (f ClientFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
