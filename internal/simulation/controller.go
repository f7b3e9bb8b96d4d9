// controller.go drives a session through ACTIVE, FINAL_REVIEW and ENDED,
// one user turn at a time.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/berth-dev/cutover/internal/simulation")

// Options configures a Controller. Extractor, Complicator, Responder and
// Scenarios are required.
type Options struct {
	MaxRounds   int
	Conditions  Conditions
	Baseline    Baseline
	Selector    *Selector
	Extractor   Extractor
	Complicator Complicator
	Responder   Responder
	Scenarios   ScenarioSource
	Observer    Observer
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Controller runs turns against sessions it does not own. It holds no
// per-session state, so one Controller serves any number of sessions as
// long as each session sees one turn at a time.
type Controller struct {
	maxRounds   int
	conditions  Conditions
	baseline    Baseline
	selector    Selector
	extractor   Extractor
	complicator Complicator
	responder   Responder
	scenarios   ScenarioSource
	observer    Observer
	logger      *slog.Logger
	clock       func() time.Time
}

// Turn is the outcome of one submitted message.
type Turn struct {
	Response string    `json:"response"`
	Ended    bool      `json:"ended"`
	Phase    Phase     `json:"phase"`
	Round    int       `json:"round"`
	Persona  PersonaID `json:"persona,omitempty"`
}

// NewController validates opts and builds a Controller.
func NewController(opts Options) (*Controller, error) {
	if opts.MaxRounds <= 0 {
		return nil, configErrorf("max rounds must be positive, got %d", opts.MaxRounds)
	}
	if opts.Conditions.MinPersonas < 0 || opts.Conditions.MinConstraints < 0 {
		return nil, configErrorf("completion thresholds must not be negative")
	}
	if opts.Extractor == nil || opts.Complicator == nil || opts.Responder == nil || opts.Scenarios == nil {
		return nil, configErrorf("extractor, complicator, responder and scenario source are required")
	}

	c := &Controller{
		maxRounds:   opts.MaxRounds,
		conditions:  opts.Conditions,
		baseline:    opts.Baseline,
		selector:    DefaultSelector,
		extractor:   opts.Extractor,
		complicator: opts.Complicator,
		responder:   opts.Responder,
		scenarios:   opts.Scenarios,
		observer:    opts.Observer,
		logger:      opts.Logger,
		clock:       opts.Clock,
	}
	if opts.Selector != nil {
		if len(opts.Selector.Roster) == 0 {
			return nil, configErrorf("persona roster is empty")
		}
		c.selector = *opts.Selector
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c, nil
}

// Start opens a new session and returns it with the scenario introduction,
// which is also recorded as the first transcript entry.
func (c *Controller) Start(ctx context.Context, userID string) (*Session, string, error) {
	s, err := NewSession(userID, c.maxRounds, c.baseline)
	if err != nil {
		return nil, "", err
	}
	s.clock = c.clock
	s.startedAt = s.now()

	ctx, span := tracer.Start(ctx, "simulation.Start", trace.WithAttributes(
		attribute.String("session.id", s.ID()),
	))
	defer span.End()

	start := c.clock()
	sc, err := c.scenarios.Scenario(ctx, s.ID())
	c.collaboratorCall(s, "scenario", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scenario")
		return nil, "", fmt.Errorf("generating scenario: %w", err)
	}

	s.scenario = sc
	if err := s.RecordMessage(RoleAgent, sc.Intro); err != nil {
		return nil, "", err
	}

	c.logger.Info("session started", "session", s.ID(), "user", userID, "module", sc.Module)
	c.observer.Observe(Event{Kind: EventSessionStarted, SessionID: s.ID(), Phase: s.Phase()})
	return s, sc.Intro, nil
}

// Submit processes one user message. On success the session pointed to by
// s is replaced with the committed state. On error s is left as described
// by the error type: untouched for extraction failures, advanced by the
// round and user message only for persona failures.
func (c *Controller) Submit(ctx context.Context, s *Session, text string) (*Turn, error) {
	ctx, span := tracer.Start(ctx, "simulation.Submit", trace.WithAttributes(
		attribute.String("session.id", s.ID()),
		attribute.String("session.phase", string(s.Phase())),
		attribute.Int("session.round", s.Round()),
	))
	defer span.End()

	start := c.clock()
	var (
		turn *Turn
		err  error
	)
	switch s.Phase() {
	case PhaseEnded:
		err = fmt.Errorf("%w: session %s has ended", ErrInvalidPhase, s.ID())
		c.observer.Observe(Event{Kind: EventTurnRejected, SessionID: s.ID(), Round: s.Round(), Phase: s.Phase(), Err: err})
	case PhaseFinalReview:
		turn, err = c.finishReview(ctx, s, text)
	default:
		turn, err = c.activeTurn(ctx, s, text)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("turn.ended", turn.Ended), attribute.String("turn.persona", string(turn.Persona)))
	c.observer.Observe(Event{
		Kind:      EventTurnCompleted,
		SessionID: s.ID(),
		Round:     turn.Round,
		Phase:     turn.Phase,
		Persona:   turn.Persona,
		Duration:  c.clock().Sub(start),
	})
	return turn, nil
}

// PeekRoundInfo returns the session's round summary without side effects.
func (c *Controller) PeekRoundInfo(s *Session) RoundInfo {
	return s.RoundInfo()
}

// LastReport returns the evaluation once the session has ended.
func (c *Controller) LastReport(s *Session) (*Report, bool) {
	return s.Report()
}

// Report returns the evaluation once the session has ended.
func (s *Session) Report() (*Report, bool) {
	if s.phase != PhaseEnded || s.report == nil {
		return nil, false
	}
	return s.report, true
}

func (c *Controller) activeTurn(ctx context.Context, s *Session, text string) (*Turn, error) {
	next := s.clone()
	next.advanceRound()
	if err := next.RecordMessage(RoleUser, text); err != nil {
		return nil, err
	}

	ext, err := c.extract(ctx, next, text)
	if err != nil {
		return nil, err
	}
	if err := next.ApplyExtraction(ext); err != nil {
		return nil, err
	}

	if ShouldEnd(next, c.conditions) {
		next.phase = PhaseFinalReview
		msg := FormatFinalReview(next)
		if err := next.RecordMessage(RoleAgent, msg); err != nil {
			return nil, err
		}
		*s = *next

		c.logger.Info("final review started", "session", s.ID(), "round", s.Round())
		c.observer.Observe(Event{Kind: EventFinalReview, SessionID: s.ID(), Round: s.Round(), Phase: s.Phase()})
		return &Turn{Response: msg, Phase: s.Phase(), Round: s.Round()}, nil
	}

	persona := c.selector.Choose(next)
	req := PersonaRequest{
		Persona:     persona,
		Session:     next.Snapshot(),
		UserMessage: text,
	}

	start := c.clock()
	complication, err := c.complicator.Complicate(ctx, req)
	c.collaboratorCall(next, "complication", start, err)
	if err != nil {
		return nil, c.personaFailed(s, next, persona, err)
	}
	req.Complication = complication

	start = c.clock()
	reply, err := c.responder.Respond(ctx, req)
	c.collaboratorCall(next, "persona", start, err)
	if err != nil {
		return nil, c.personaFailed(s, next, persona, err)
	}

	next.markPersona(persona)
	formatted := fmt.Sprintf("[%s]: %s", reply.Speaker, reply.Text)
	if err := next.record(RoleAgent, persona, formatted); err != nil {
		return nil, err
	}
	*s = *next

	c.logger.Debug("persona responded", "session", s.ID(), "round", s.Round(), "persona", persona)
	return &Turn{Response: formatted, Phase: s.Phase(), Round: s.Round(), Persona: persona}, nil
}

func (c *Controller) finishReview(ctx context.Context, s *Session, text string) (*Turn, error) {
	next := s.clone()
	next.advanceRound()
	if err := next.RecordMessage(RoleUser, text); err != nil {
		return nil, err
	}

	ext, err := c.extract(ctx, next, text)
	if err != nil {
		return nil, err
	}
	if err := next.ApplyExtraction(ext); err != nil {
		return nil, err
	}

	report := Evaluate(next)
	feedback := FormatFeedback(report)
	if err := next.RecordMessage(RoleAgent, feedback); err != nil {
		return nil, err
	}
	next.phase = PhaseEnded
	next.report = report
	*s = *next

	c.logger.Info("session ended", "session", s.ID(), "round", s.Round(), "score", report.Score)
	c.observer.Observe(Event{Kind: EventSessionEnded, SessionID: s.ID(), Round: s.Round(), Phase: s.Phase(), Score: report.Score})
	return &Turn{Response: feedback, Ended: true, Phase: s.Phase(), Round: s.Round()}, nil
}

// extract calls the extractor for the working session's round.
func (c *Controller) extract(ctx context.Context, next *Session, text string) (Extraction, error) {
	start := c.clock()
	ext, err := c.extractor.Extract(ctx, text)
	c.collaboratorCall(next, "extraction", start, err)
	if err != nil {
		c.logger.Warn("extraction failed", "session", next.ID(), "round", next.Round(), "error", err)
		c.observer.Observe(Event{Kind: EventExtractionFailed, SessionID: next.ID(), Round: next.Round(), Phase: next.Phase(), Err: err})
		return Extraction{}, &ExtractionError{Round: next.Round(), Err: err}
	}
	return ext, nil
}

// personaFailed commits only the round increment and the user message.
func (c *Controller) personaFailed(s, next *Session, persona PersonaID, err error) error {
	kept := s.clone()
	kept.round = next.round
	kept.transcript = next.Transcript()
	*s = *kept

	c.logger.Warn("persona failed", "session", s.ID(), "round", s.Round(), "persona", persona, "error", err)
	c.observer.Observe(Event{Kind: EventPersonaFailed, SessionID: s.ID(), Round: s.Round(), Phase: s.Phase(), Persona: persona, Err: err})
	return &PersonaError{Persona: persona, Round: s.Round(), Err: err}
}

func (c *Controller) collaboratorCall(s *Session, name string, start time.Time, err error) {
	c.observer.Observe(Event{
		Kind:         EventCollaboratorCall,
		SessionID:    s.ID(),
		Round:        s.Round(),
		Phase:        s.Phase(),
		Collaborator: name,
		Duration:     c.clock().Sub(start),
		Err:          err,
	})
}
