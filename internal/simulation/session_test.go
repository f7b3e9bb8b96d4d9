package simulation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_RejectsNonPositiveMaxRounds(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewSession("u", n, DefaultBaseline())
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("NewSession(maxRounds=%d) error = %v, want ErrConfiguration", n, err)
		}
	}
}

func TestNewSession_InitialState(t *testing.T) {
	s := newTestSession(4)

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 0, s.Round())
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Empty(t, s.PersonasTriggered())
	assert.Empty(t, s.ConstraintsAddressed())
	assert.Equal(t, Deliverables, s.MissingDeliverables())
	// rollback and timeline missing
	assert.Equal(t, 30, s.RiskScore())
	assert.NotEmpty(t, s.Baseline().CriticalDependencies)
}

func TestApplyExtraction(t *testing.T) {
	tests := []struct {
		name            string
		steps           []Extraction
		wantStrategy    Strategy
		wantConstraints []Constraint
		wantFlags       []RiskFlag
	}{
		{
			name:            "unknown tags dropped",
			steps:           []Extraction{{Constraints: []string{"Time", "latency", " COST "}}},
			wantConstraints: []Constraint{ConstraintTime, ConstraintCost},
		},
		{
			name: "null strategy does not clear",
			steps: []Extraction{
				{Strategy: StrategyHybrid},
				{Constraints: []string{"security"}},
			},
			wantStrategy:    StrategyHybrid,
			wantConstraints: []Constraint{ConstraintSecurity},
		},
		{
			name: "strategy overwritten",
			steps: []Extraction{
				{Strategy: StrategyAbstraction},
				{Strategy: StrategyAdapterLayer},
			},
			wantStrategy: StrategyAdapterLayer,
		},
		{
			name: "rewrite with time raises flag once",
			steps: []Extraction{
				{Strategy: StrategyRewrite, Constraints: []string{"time"}},
				{Strategy: StrategyRewrite, Constraints: []string{"time"}},
			},
			wantStrategy:    StrategyRewrite,
			wantConstraints: []Constraint{ConstraintTime},
			wantFlags:       []RiskFlag{RiskRewriteUnderTimePressure},
		},
		{
			name: "flag raised when time arrives after rewrite",
			steps: []Extraction{
				{Strategy: StrategyRewrite},
				{Constraints: []string{"time"}},
			},
			wantStrategy:    StrategyRewrite,
			wantConstraints: []Constraint{ConstraintTime},
			wantFlags:       []RiskFlag{RiskRewriteUnderTimePressure},
		},
		{
			name:      "unknown strategy ignored",
			steps:     []Extraction{{Strategy: "kubernetes"}},
			wantFlags: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(8)
			for _, e := range tt.steps {
				require.NoError(t, s.ApplyExtraction(e))
			}
			assert.Equal(t, tt.wantStrategy, s.Strategy())
			if tt.wantConstraints == nil {
				assert.Empty(t, s.ConstraintsAddressed())
			} else {
				assert.Equal(t, tt.wantConstraints, s.ConstraintsAddressed())
			}
			if tt.wantFlags == nil {
				assert.Empty(t, s.RiskFlags())
			} else {
				assert.Equal(t, tt.wantFlags, s.RiskFlags())
			}
		})
	}
}

func TestApplyExtraction_ConstraintsMonotonic(t *testing.T) {
	s := newTestSession(8)
	require.NoError(t, s.ApplyExtraction(Extraction{Constraints: []string{"time", "cost"}}))
	require.NoError(t, s.ApplyExtraction(Extraction{Constraints: []string{"perf"}}))
	require.NoError(t, s.ApplyExtraction(Extraction{}))

	assert.Equal(t, []Constraint{ConstraintTime, ConstraintCost, ConstraintPerf}, s.ConstraintsAddressed())
}

func TestRiskScore(t *testing.T) {
	tests := []struct {
		name   string
		budget BudgetLevel
		ext    Extraction
		want   int
	}{
		{"nothing provided", BudgetMedium, Extraction{}, 30},
		{"timeline provided", BudgetMedium, Extraction{Constraints: []string{"time"}}, 20},
		{"rollback reported", BudgetMedium, Extraction{Deliverables: []string{"rollback"}}, 10},
		{"everything provided", BudgetMedium, Extraction{Constraints: []string{"time"}, Deliverables: []string{"rollback"}}, 0},
		{"rewrite", BudgetMedium, Extraction{Strategy: StrategyRewrite}, 45},
		{"hybrid on low budget", BudgetLow, Extraction{Strategy: StrategyHybrid}, 45},
		{"hybrid on high budget", BudgetHigh, Extraction{Strategy: StrategyHybrid}, 30},
		{"adapter on low budget", BudgetLow, Extraction{Strategy: StrategyAdapterLayer}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultBaseline()
			b.BudgetLevel = tt.budget
			s, err := NewSession("u", 4, b)
			require.NoError(t, err)
			require.NoError(t, s.ApplyExtraction(tt.ext))
			assert.Equal(t, tt.want, s.RiskScore())
			assert.GreaterOrEqual(t, s.RiskScore(), 0)
			assert.LessOrEqual(t, s.RiskScore(), 100)
		})
	}
}

func TestMissingDeliverables_RecomputedFromLatest(t *testing.T) {
	s := newTestSession(8)
	require.NoError(t, s.ApplyExtraction(Extraction{
		Strategy:    StrategyAbstraction,
		Constraints: []string{"time", "cost", "downtime"},
	}))
	assert.Equal(t, []Deliverable{DeliverableRollback}, s.MissingDeliverables())

	require.NoError(t, s.ApplyExtraction(Extraction{Constraints: []string{"cost"}}))
	assert.Equal(t, []Deliverable{
		DeliverableTimeline,
		DeliverableRollback,
		DeliverableDowntimeSLO,
		DeliverableTradeoff,
	}, s.MissingDeliverables())
}

func TestRecordMessage(t *testing.T) {
	s := newTestSession(4)
	s.advanceRound()
	require.NoError(t, s.RecordMessage(RoleUser, "hello"))

	msgs := s.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, 1, msgs[0].Round)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestEndedSessionIsReadOnly(t *testing.T) {
	s := newTestSession(4)
	s.phase = PhaseEnded

	assert.ErrorIs(t, s.RecordMessage(RoleUser, "late"), ErrSessionEnded)
	assert.ErrorIs(t, s.ApplyExtraction(Extraction{Strategy: StrategyRewrite}), ErrSessionEnded)
	assert.Empty(t, s.Transcript())
	assert.Empty(t, s.Strategy())
}

func TestClone_IsIndependent(t *testing.T) {
	s := newTestSession(4)
	require.NoError(t, s.ApplyExtraction(Extraction{Constraints: []string{"time"}}))

	c := s.clone()
	require.NoError(t, c.ApplyExtraction(Extraction{Constraints: []string{"cost"}, Strategy: StrategyRewrite}))
	c.markPersona(PersonaCTO)
	require.NoError(t, c.RecordMessage(RoleUser, "x"))

	assert.Equal(t, []Constraint{ConstraintTime}, s.ConstraintsAddressed())
	assert.Empty(t, s.PersonasTriggered())
	assert.Empty(t, s.Transcript())
	assert.Empty(t, s.RiskFlags())
}

func TestParseVocabulary(t *testing.T) {
	if c, ok := ParseConstraint(" Partial_Docs "); !ok || c != ConstraintPartialDocs {
		t.Errorf("ParseConstraint = %q, %v", c, ok)
	}
	if _, ok := ParseConstraint("latency"); ok {
		t.Error("ParseConstraint(latency) should not be recognised")
	}
	if s, ok := ParseStrategy("ADAPTER_LAYER"); !ok || s != StrategyAdapterLayer {
		t.Errorf("ParseStrategy = %q, %v", s, ok)
	}
	if _, ok := ParseStrategy("lift_and_shift"); ok {
		t.Error("ParseStrategy(lift_and_shift) should not be recognised")
	}
}
