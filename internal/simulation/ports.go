package simulation

import (
	"context"
	"time"
)

// Extractor turns free text into an Extraction. It must fail rather than
// guess when the text cannot be read.
type Extractor interface {
	Extract(ctx context.Context, text string) (Extraction, error)
}

// PersonaRequest carries what a persona collaborator may read. Session is a
// copy, so collaborators cannot mutate state.
type PersonaRequest struct {
	Persona      PersonaID
	Session      Snapshot
	UserMessage  string
	Complication string
}

// Complicator produces the obstacle a persona raises this round.
type Complicator interface {
	Complicate(ctx context.Context, req PersonaRequest) (string, error)
}

// Reply is a persona's answer. Speaker is the display attribution, for
// example "Sarah (Product Manager)".
type Reply struct {
	Speaker string
	Text    string
}

// Responder voices a persona reacting to the user and the complication.
type Responder interface {
	Respond(ctx context.Context, req PersonaRequest) (Reply, error)
}

// ScenarioSource supplies the scenario a new session opens with.
type ScenarioSource interface {
	Scenario(ctx context.Context, sessionID string) (Scenario, error)
}

// EventKind classifies an Event.
type EventKind string

const (
	EventSessionStarted   EventKind = "session_started"
	EventTurnCompleted    EventKind = "turn_completed"
	EventFinalReview      EventKind = "final_review_started"
	EventSessionEnded     EventKind = "session_ended"
	EventExtractionFailed EventKind = "extraction_failed"
	EventPersonaFailed    EventKind = "persona_failed"
	EventCollaboratorCall EventKind = "collaborator_call"
	EventTurnRejected     EventKind = "turn_rejected"
)

// Event is emitted to an Observer as the controller works.
type Event struct {
	Kind         EventKind
	SessionID    string
	Round        int
	Phase        Phase
	Persona      PersonaID
	Collaborator string
	Score        int
	Duration     time.Duration
	Err          error
}

// Observer receives controller events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// Observers fans an event out to several observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
