package llm

import (
	"context"
	"fmt"
	"sync"
)

// Scripted replays canned responses in order. Once the script runs out it
// repeats the last entry. Useful for tests and demos without a provider.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []Request
}

// NewScripted returns a client that answers with responses in order.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// FailWith makes every subsequent call return err.
func (s *Scripted) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Requests returns every request seen so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Generate implements Client.
func (s *Scripted) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	if s.err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, s.err)
	}
	if len(s.responses) == 0 {
		return "", ErrEmptyResponse
	}
	i := len(s.requests) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}
