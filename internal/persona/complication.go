package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/berth-dev/cutover/internal/simulation"
)

var twists = []string{
	"New info: Security blocks new deployments this week unless risk is low.",
	"Incident: a production alert fired; leadership wants zero risky changes for 48 hours.",
	"Customer pressure: enterprise client reports latency regression; +10ms max allowed.",
	"Hidden dependency discovered: a legacy service calls the AWS SDK directly with no tests.",
}

// Complicator builds the obstacle a persona raises. It is stateless: every
// draw is seeded from the session id, round and persona.
type Complicator struct{}

// NewComplicator returns a Complicator.
func NewComplicator() *Complicator {
	return &Complicator{}
}

// Complicate implements simulation.Complicator.
func (c *Complicator) Complicate(ctx context.Context, req simulation.PersonaRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	profile, err := Lookup(req.Persona)
	if err != nil {
		return "", err
	}

	s := req.Session
	base := strings.Join(baselineLines(s), " ")

	// The CTO gates approval while deliverables are missing.
	if req.Persona == simulation.PersonaCTO && len(s.MissingDeliverables) > 0 {
		missing := s.MissingDeliverables
		if len(missing) > 4 {
			missing = missing[:4]
		}
		names := make([]string, len(missing))
		for i, d := range missing {
			names[i] = string(d)
		}
		return strings.TrimSpace(fmt.Sprintf(
			"%s\nUser plan is still too high-level. Missing: %s.\n"+
				"As CTO, you must not approve until these are addressed with concrete numbers and a rollback plan.",
			base, strings.Join(names, ", "))), nil
	}

	var twist string
	if s.Round%2 == 0 {
		twist = twists[dependencyIndex(s.ID, s.Round, len(twists))]
	}
	own := pick(seeded(s.ID, s.Round, req.Persona, "complication"), profile.Complications)

	var parts []string
	for _, p := range []string{base, strategyPressure(s.Strategy), twist, own} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// baselineLines states the company facts, with one rotating dependency.
func baselineLines(s simulation.Snapshot) []string {
	b := s.Baseline
	var lines []string
	if b.WeeksLeft > 0 {
		lines = append(lines, fmt.Sprintf("Timeline: %d weeks left.", b.WeeksLeft))
	}
	if b.BudgetLevel != "" {
		lines = append(lines, fmt.Sprintf("Budget level: %s.", b.BudgetLevel))
	}
	if b.DowntimeBudgetMinutes > 0 {
		lines = append(lines, fmt.Sprintf("Downtime budget: %d minutes.", b.DowntimeBudgetMinutes))
	}
	if b.SLOAvailability != "" {
		lines = append(lines, fmt.Sprintf("SLO availability target: %s.", b.SLOAvailability))
	}
	if b.TargetCostReductionPct > 0 {
		lines = append(lines, fmt.Sprintf("Cost target: reduce by %d%%.", b.TargetCostReductionPct))
	}
	if n := len(b.CriticalDependencies); n > 0 {
		lines = append(lines, "Known dependency: "+b.CriticalDependencies[dependencyIndex(s.ID, s.Round, n)])
	}
	return lines
}

func strategyPressure(s simulation.Strategy) string {
	switch s {
	case simulation.StrategyHybrid:
		return "A hybrid, multi-cloud setup was mentioned. This may double complexity. " +
			"You must justify why we need it now and define measurable benefits."
	case simulation.StrategyRewrite:
		return "Rewrite is risky under time pressure. " +
			"We need a phased approach or a smaller slice to migrate first, with clear milestones."
	case simulation.StrategyAdapterLayer, simulation.StrategyAbstraction:
		return "Adapter/abstraction layer sounds reasonable, but hidden dependencies may bypass it. " +
			"We need a plan to find and mitigate direct AWS SDK usage."
	}
	return ""
}
