// Package simulation implements the migration-planning simulation core:
// session state, the completion policy, persona selection, the turn state
// machine and end-of-session evaluation.
//
// This file holds the closed vocabularies shared by every component.
package simulation

import "strings"

// Constraint is a migration constraint tag the user can address.
type Constraint string

const (
	ConstraintTime        Constraint = "time"
	ConstraintCost        Constraint = "cost"
	ConstraintSecurity    Constraint = "security"
	ConstraintPerf        Constraint = "perf"
	ConstraintDowntime    Constraint = "downtime"
	ConstraintPartialDocs Constraint = "partial_docs"
)

// Constraints lists the constraint vocabulary in canonical order.
var Constraints = []Constraint{
	ConstraintTime,
	ConstraintCost,
	ConstraintSecurity,
	ConstraintPerf,
	ConstraintDowntime,
	ConstraintPartialDocs,
}

// ParseConstraint normalises a raw tag. Unknown tags report false.
func ParseConstraint(raw string) (Constraint, bool) {
	c := Constraint(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Constraints {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Strategy is the user's chosen migration approach. The zero value means
// no strategy has been selected.
type Strategy string

const (
	StrategyAdapterLayer Strategy = "adapter_layer"
	StrategyAbstraction  Strategy = "abstraction"
	StrategyHybrid       Strategy = "hybrid"
	StrategyRewrite      Strategy = "rewrite"
)

// Strategies lists the strategy vocabulary.
var Strategies = []Strategy{
	StrategyAdapterLayer,
	StrategyAbstraction,
	StrategyHybrid,
	StrategyRewrite,
}

// ParseStrategy normalises a raw strategy name. Unknown names report false.
func ParseStrategy(raw string) (Strategy, bool) {
	s := Strategy(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Strategies {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// migrationFriendly reports whether the strategy earns full strategy points.
func (s Strategy) migrationFriendly() bool {
	return s == StrategyAdapterLayer || s == StrategyAbstraction || s == StrategyHybrid
}

// Confidence is the extractor's optional confidence label.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// PersonaID identifies a stakeholder persona in the roster.
type PersonaID string

const (
	PersonaPM     PersonaID = "PM"
	PersonaDevOps PersonaID = "DevOps"
	PersonaCTO    PersonaID = "CTO"
)

// Phase is the lifecycle stage of a session.
type Phase string

const (
	PhaseActive      Phase = "active"
	PhaseFinalReview Phase = "final_review"
	PhaseEnded       Phase = "ended"
)

// Deliverable is a plan artifact the user is expected to provide.
type Deliverable string

const (
	DeliverableTimeline    Deliverable = "timeline"
	DeliverableCost        Deliverable = "cost"
	DeliverableRollback    Deliverable = "rollback"
	DeliverableDowntimeSLO Deliverable = "downtime_slo"
	DeliverableTradeoff    Deliverable = "tradeoff"
)

// Deliverables lists the deliverable vocabulary in canonical order.
var Deliverables = []Deliverable{
	DeliverableTimeline,
	DeliverableCost,
	DeliverableRollback,
	DeliverableDowntimeSLO,
	DeliverableTradeoff,
}

// ParseDeliverable normalises a raw deliverable name.
func ParseDeliverable(raw string) (Deliverable, bool) {
	d := Deliverable(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Deliverables {
		if d == known {
			return d, true
		}
	}
	return "", false
}

// RiskFlag names a detected conflict between the user's choices.
type RiskFlag string

// RiskRewriteUnderTimePressure is raised when a rewrite is chosen while
// time pressure has been acknowledged.
const RiskRewriteUnderTimePressure RiskFlag = "rewrite_conflicts_with_time_pressure"

// Role is the speaker role of a transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// BudgetLevel is the company's coarse budget classification.
type BudgetLevel string

const (
	BudgetLow    BudgetLevel = "low"
	BudgetMedium BudgetLevel = "medium"
	BudgetHigh   BudgetLevel = "high"
)
