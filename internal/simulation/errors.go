package simulation

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for invalid setup such as max rounds <= 0.
	ErrConfiguration = errors.New("simulation: configuration error")

	// ErrInvalidPhase is returned when a turn is submitted to an ended session.
	ErrInvalidPhase = errors.New("simulation: invalid phase transition")

	// ErrSessionEnded is returned by session mutators once the session has ended.
	ErrSessionEnded = errors.New("simulation: session has ended")

	// ErrExtraction matches any *ExtractionError via errors.Is.
	ErrExtraction = errors.New("simulation: extraction failed")

	// ErrPersonaResponse matches any *PersonaError via errors.Is.
	ErrPersonaResponse = errors.New("simulation: persona response failed")
)

// ExtractionError reports a failed extraction call. The session is left
// exactly as it was before the turn.
type ExtractionError struct {
	Round int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("round %d: extraction failed: %v", e.Round, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExtraction) match.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// PersonaError reports a failed complication or persona response. The
// round increment and the user's message are kept; nothing else changes.
type PersonaError struct {
	Persona PersonaID
	Round   int
	Err     error
}

func (e *PersonaError) Error() string {
	return fmt.Sprintf("round %d: persona %s failed to respond: %v", e.Round, e.Persona, e.Err)
}

func (e *PersonaError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersonaResponse) match.
func (e *PersonaError) Is(target error) bool { return target == ErrPersonaResponse }

// configErrorf wraps ErrConfiguration with a formatted detail.
func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
