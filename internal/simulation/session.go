package simulation

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Baseline holds the company facts that frame every session.
type Baseline struct {
	WeeksLeft              int         `json:"weeks_left"`
	BudgetLevel            BudgetLevel `json:"budget_level"`
	DowntimeBudgetMinutes  int         `json:"downtime_budget_minutes"`
	SLOAvailability        string      `json:"slo_availability"`
	TargetCostReductionPct int         `json:"target_cost_reduction_pct"`
	CriticalDependencies   []string    `json:"critical_dependencies"`
}

// DefaultBaseline returns the baseline used when none is configured.
func DefaultBaseline() Baseline {
	return Baseline{
		WeeksLeft:              8,
		BudgetLevel:            BudgetLow,
		DowntimeBudgetMinutes:  30,
		SLOAvailability:        "99.9%",
		TargetCostReductionPct: 20,
		CriticalDependencies: []string{
			"nightly billing batch job reads the user table with strongly consistent reads",
			"legacy auth service hard-codes the production IAM role name",
			"analytics ETL expects user_id, account_status and created_at on every item",
		},
	}
}

// Scenario describes the migration case a session was opened with.
type Scenario struct {
	Module          string       `json:"module"`
	Services        []string     `json:"services"`
	BusinessContext string       `json:"business_context"`
	Constraints     []Constraint `json:"constraints"`
	Intro           string       `json:"-"`
}

// Extraction is the structured reading of one user message.
type Extraction struct {
	Strategy     Strategy   `json:"strategy,omitempty"`
	Constraints  []string   `json:"constraints"`
	Confidence   Confidence `json:"confidence,omitempty"`
	Deliverables []string   `json:"deliverables,omitempty"`
}

// Message is one transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Persona   PersonaID `json:"persona,omitempty"`
	Content   string    `json:"content"`
	Round     int       `json:"round"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the state of one simulation run. All mutation goes through
// methods so the append-only and monotonic fields stay that way.
type Session struct {
	id        string
	userID    string
	round     int
	maxRounds int
	phase     Phase
	startedAt time.Time

	baseline Baseline
	scenario Scenario

	strategy    Strategy
	personas    []PersonaID
	constraints map[Constraint]bool
	riskFlags   []RiskFlag
	riskScore   int
	missing     []Deliverable
	lastPersona PersonaID
	transcript  []Message

	report *Report
	clock  func() time.Time
}

// NewSession creates an ACTIVE session at round 0.
func NewSession(userID string, maxRounds int, baseline Baseline) (*Session, error) {
	if maxRounds <= 0 {
		return nil, configErrorf("max rounds must be positive, got %d", maxRounds)
	}

	s := &Session{
		id:          uuid.New().String(),
		userID:      userID,
		maxRounds:   maxRounds,
		phase:       PhaseActive,
		baseline:    baseline,
		constraints: make(map[Constraint]bool),
		missing:     slices.Clone(Deliverables),
		clock:       time.Now,
	}
	s.startedAt = s.now()
	s.riskScore = s.computeRiskScore()
	return s, nil
}

func (s *Session) now() time.Time {
	return s.clock().UTC()
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the opaque user label.
func (s *Session) UserID() string { return s.userID }

// Round returns the number of user turns processed so far.
func (s *Session) Round() int { return s.round }

// MaxRounds returns the round cap.
func (s *Session) MaxRounds() int { return s.maxRounds }

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// Strategy returns the selected strategy, or "" when none.
func (s *Session) Strategy() Strategy { return s.strategy }

// LastPersona returns the persona that spoke most recently.
func (s *Session) LastPersona() PersonaID { return s.lastPersona }

// RiskScore returns the current risk score in [0,100].
func (s *Session) RiskScore() int { return s.riskScore }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Baseline returns a copy of the company baseline facts.
func (s *Session) Baseline() Baseline {
	b := s.baseline
	b.CriticalDependencies = slices.Clone(b.CriticalDependencies)
	return b
}

// Scenario returns the scenario the session was opened with.
func (s *Session) Scenario() Scenario {
	sc := s.scenario
	sc.Services = slices.Clone(sc.Services)
	sc.Constraints = slices.Clone(sc.Constraints)
	return sc
}

// PersonasTriggered returns personas that have spoken, in first-spoken order.
func (s *Session) PersonasTriggered() []PersonaID { return slices.Clone(s.personas) }

// HasPersona reports whether p has already spoken.
func (s *Session) HasPersona(p PersonaID) bool { return slices.Contains(s.personas, p) }

// ConstraintsAddressed returns addressed constraints in canonical order.
func (s *Session) ConstraintsAddressed() []Constraint {
	out := make([]Constraint, 0, len(s.constraints))
	for _, c := range Constraints {
		if s.constraints[c] {
			out = append(out, c)
		}
	}
	return out
}

// HasConstraint reports whether c has been addressed.
func (s *Session) HasConstraint(c Constraint) bool { return s.constraints[c] }

// RiskFlags returns raised flags in the order they were raised.
func (s *Session) RiskFlags() []RiskFlag { return slices.Clone(s.riskFlags) }

// MissingDeliverables returns deliverables absent from the latest message.
func (s *Session) MissingDeliverables() []Deliverable { return slices.Clone(s.missing) }

// IsMissing reports whether d is currently missing.
func (s *Session) IsMissing(d Deliverable) bool { return slices.Contains(s.missing, d) }

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Message { return slices.Clone(s.transcript) }

// ApplyExtraction merges one extraction result into the session. Unknown
// constraint tags are dropped. A missing strategy never clears the
// current one.
func (s *Session) ApplyExtraction(e Extraction) error {
	if s.phase == PhaseEnded {
		return ErrSessionEnded
	}

	if st, ok := ParseStrategy(string(e.Strategy)); ok {
		s.strategy = st
	}

	recognised := make(map[Constraint]bool, len(e.Constraints))
	for _, raw := range e.Constraints {
		if c, ok := ParseConstraint(raw); ok {
			recognised[c] = true
			s.constraints[c] = true
		}
	}

	if s.strategy == StrategyRewrite && s.constraints[ConstraintTime] {
		s.raiseFlag(RiskRewriteUnderTimePressure)
	}

	s.missing = missingDeliverables(e, recognised)
	s.riskScore = s.computeRiskScore()
	return nil
}

// RecordMessage appends a transcript entry stamped with the current round.
func (s *Session) RecordMessage(role Role, content string) error {
	return s.record(role, "", content)
}

func (s *Session) record(role Role, persona PersonaID, content string) error {
	if s.phase == PhaseEnded {
		return ErrSessionEnded
	}
	s.transcript = append(s.transcript, Message{
		Role:      role,
		Persona:   persona,
		Content:   content,
		Round:     s.round,
		Timestamp: s.now(),
	})
	return nil
}

// RoundInfo is a read-only summary for front-ends.
type RoundInfo struct {
	Round                int          `json:"round"`
	MaxRounds            int          `json:"max_rounds"`
	Phase                Phase        `json:"phase"`
	PersonasTriggered    []PersonaID  `json:"personas_triggered"`
	ConstraintsAddressed []Constraint `json:"constraints_addressed"`
	Strategy             Strategy     `json:"strategy,omitempty"`
}

// InFinalReview reports whether the next turn answers the final review.
func (r RoundInfo) InFinalReview() bool { return r.Phase == PhaseFinalReview }

// RoundInfo returns the current round summary.
func (s *Session) RoundInfo() RoundInfo {
	return RoundInfo{
		Round:                s.round,
		MaxRounds:            s.maxRounds,
		Phase:                s.phase,
		PersonasTriggered:    s.PersonasTriggered(),
		ConstraintsAddressed: s.ConstraintsAddressed(),
		Strategy:             s.strategy,
	}
}

// Snapshot is the serialisable view of a session.
type Snapshot struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"user_id,omitempty"`
	Round                int           `json:"round"`
	MaxRounds            int           `json:"max_rounds"`
	Phase                Phase         `json:"phase"`
	Strategy             Strategy      `json:"strategy,omitempty"`
	PersonasTriggered    []PersonaID   `json:"personas_triggered"`
	ConstraintsAddressed []Constraint  `json:"constraints_addressed"`
	RiskFlags            []RiskFlag    `json:"risk_flags"`
	RiskScore            int           `json:"risk_score"`
	MissingDeliverables  []Deliverable `json:"missing_deliverables"`
	LastPersona          PersonaID     `json:"last_persona,omitempty"`
	Baseline             Baseline      `json:"baseline"`
	Scenario             Scenario      `json:"scenario"`
	StartedAt            time.Time     `json:"started_at"`
	Transcript           []Message     `json:"transcript"`
}

// Snapshot copies the session into a plain value.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:                   s.id,
		UserID:               s.userID,
		Round:                s.round,
		MaxRounds:            s.maxRounds,
		Phase:                s.phase,
		Strategy:             s.strategy,
		PersonasTriggered:    s.PersonasTriggered(),
		ConstraintsAddressed: s.ConstraintsAddressed(),
		RiskFlags:            s.RiskFlags(),
		RiskScore:            s.riskScore,
		MissingDeliverables:  s.MissingDeliverables(),
		LastPersona:          s.lastPersona,
		Baseline:             s.Baseline(),
		Scenario:             s.Scenario(),
		StartedAt:            s.startedAt,
		Transcript:           s.Transcript(),
	}
}

// clone returns a deep copy used as the working state of a turn.
func (s *Session) clone() *Session {
	c := *s
	c.baseline = s.Baseline()
	c.scenario = s.Scenario()
	c.personas = slices.Clone(s.personas)
	c.constraints = make(map[Constraint]bool, len(s.constraints))
	for k, v := range s.constraints {
		c.constraints[k] = v
	}
	c.riskFlags = slices.Clone(s.riskFlags)
	c.missing = slices.Clone(s.missing)
	c.transcript = slices.Clone(s.transcript)
	return &c
}

func (s *Session) advanceRound() { s.round++ }

func (s *Session) markPersona(p PersonaID) {
	if !s.HasPersona(p) {
		s.personas = append(s.personas, p)
	}
	s.lastPersona = p
}

func (s *Session) raiseFlag(f RiskFlag) {
	if !slices.Contains(s.riskFlags, f) {
		s.riskFlags = append(s.riskFlags, f)
	}
}

// computeRiskScore derives the risk score from current state, clamped to [0,100].
func (s *Session) computeRiskScore() int {
	score := 0
	if s.IsMissing(DeliverableRollback) {
		score += 20
	}
	if s.IsMissing(DeliverableTimeline) {
		score += 10
	}
	if s.strategy.platformHeavy() && s.baseline.BudgetLevel == BudgetLow {
		score += 15
	}
	if s.strategy == StrategyRewrite {
		score += 15
	}
	return min(max(score, 0), 100)
}

// platformHeavy reports whether the strategy carries kubernetes or
// multi-cloud style operational overhead. Hybrid spans providers.
func (s Strategy) platformHeavy() bool {
	return s == StrategyHybrid
}

// missingDeliverables infers which deliverables the latest message lacked.
// Deliverables may be reported by the extractor directly; timeline, cost and
// downtime_slo also follow from their constraints, and a tradeoff is
// implied by a strategy weighed against at least two constraints.
func missingDeliverables(e Extraction, recognised map[Constraint]bool) []Deliverable {
	provided := make(map[Deliverable]bool)
	for _, raw := range e.Deliverables {
		if d, ok := ParseDeliverable(raw); ok {
			provided[d] = true
		}
	}
	if recognised[ConstraintTime] {
		provided[DeliverableTimeline] = true
	}
	if recognised[ConstraintCost] {
		provided[DeliverableCost] = true
	}
	if recognised[ConstraintDowntime] {
		provided[DeliverableDowntimeSLO] = true
	}
	if _, ok := ParseStrategy(string(e.Strategy)); ok && len(recognised) >= 2 {
		provided[DeliverableTradeoff] = true
	}

	var missing []Deliverable
	for _, d := range Deliverables {
		if !provided[d] {
			missing = append(missing, d)
		}
	}
	return missing
}
