package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// scriptedExtractor returns queued results in order, then empty extractions.
type scriptedExtractor struct {
	results []Extraction
	errs    []error
	calls   int
}

func (e *scriptedExtractor) Extract(_ context.Context, _ string) (Extraction, error) {
	i := e.calls
	e.calls++
	if i < len(e.errs) && e.errs[i] != nil {
		return Extraction{}, e.errs[i]
	}
	if i < len(e.results) {
		return e.results[i], nil
	}
	return Extraction{}, nil
}

type stubComplicator struct {
	err error
}

func (c *stubComplicator) Complicate(_ context.Context, req PersonaRequest) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("complication for %s in round %d", req.Persona, req.Session.Round), nil
}

type stubResponder struct {
	err   error
	calls []PersonaRequest
}

func (r *stubResponder) Respond(_ context.Context, req PersonaRequest) (Reply, error) {
	r.calls = append(r.calls, req)
	if r.err != nil {
		return Reply{}, r.err
	}
	return Reply{Speaker: string(req.Persona) + " (Stakeholder)", Text: "What is your plan?"}, nil
}

type staticScenario struct{ err error }

func (s staticScenario) Scenario(_ context.Context, _ string) (Scenario, error) {
	if s.err != nil {
		return Scenario{}, s.err
	}
	return Scenario{
		Module:      "file_processor",
		Services:    []string{"S3", "SNS"},
		Constraints: []Constraint{ConstraintTime, ConstraintPartialDocs},
		Intro:       "Welcome to the migration simulation.",
	}, nil
}

// recordingObserver keeps every event it sees.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) Observe(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) kinds() []EventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []EventKind
	for _, e := range o.events {
		if e.Kind != EventCollaboratorCall {
			out = append(out, e.Kind)
		}
	}
	return out
}

var errBoom = errors.New("boom")

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type harness struct {
	ctrl      *Controller
	extractor *scriptedExtractor
	comp      *stubComplicator
	responder *stubResponder
	observer  *recordingObserver
}

func newHarness(maxRounds int, cond Conditions, results ...Extraction) (*harness, error) {
	h := &harness{
		extractor: &scriptedExtractor{results: results},
		comp:      &stubComplicator{},
		responder: &stubResponder{},
		observer:  &recordingObserver{},
	}
	ctrl, err := NewController(Options{
		MaxRounds:   maxRounds,
		Conditions:  cond,
		Baseline:    DefaultBaseline(),
		Extractor:   h.extractor,
		Complicator: h.comp,
		Responder:   h.responder,
		Scenarios:   staticScenario{},
		Observer:    h.observer,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:       fixedClock(),
	})
	if err != nil {
		return nil, err
	}
	h.ctrl = ctrl
	return h, nil
}

// newTestSession builds a session and applies the given state directly.
func newTestSession(maxRounds int) *Session {
	s, err := NewSession("tester", maxRounds, DefaultBaseline())
	if err != nil {
		panic(err)
	}
	s.clock = fixedClock()
	return s
}
