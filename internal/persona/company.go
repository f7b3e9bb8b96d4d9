package persona

import (
	"fmt"
	"slices"
	"sort"

	"github.com/berth-dev/cutover/internal/simulation"
)

type companyFact struct {
	tag  string
	text string
}

// companyFacts lists the baseline facts a persona may surface.
func companyFacts(s simulation.Snapshot) []companyFact {
	b := s.Baseline
	var facts []companyFact
	if b.WeeksLeft > 0 {
		facts = append(facts, companyFact{"timeline", fmt.Sprintf("%d weeks left until the deadline.", b.WeeksLeft)})
	}
	if b.BudgetLevel != "" {
		facts = append(facts, companyFact{"budget", fmt.Sprintf("Budget level is %s.", b.BudgetLevel)})
	}
	if b.TargetCostReductionPct > 0 {
		facts = append(facts, companyFact{"cost_target", fmt.Sprintf("Cost reduction target is %d%%.", b.TargetCostReductionPct)})
	}
	if b.DowntimeBudgetMinutes > 0 {
		facts = append(facts, companyFact{"downtime", fmt.Sprintf("Downtime budget is %d minutes.", b.DowntimeBudgetMinutes)})
	}
	if b.SLOAvailability != "" {
		facts = append(facts, companyFact{"slo", fmt.Sprintf("SLO availability target is %s.", b.SLOAvailability)})
	}
	if n := len(b.CriticalDependencies); n > 0 {
		facts = append(facts, companyFact{"dependency", "Known dependency: " + b.CriticalDependencies[dependencyIndex(s.ID, s.Round, n)]})
	}
	return facts
}

// missingPriority maps a missing deliverable to the facts that push on it.
var missingPriority = map[simulation.Deliverable][]string{
	simulation.DeliverableTimeline:    {"timeline"},
	simulation.DeliverableCost:        {"budget", "cost_target"},
	simulation.DeliverableDowntimeSLO: {"downtime", "slo"},
	simulation.DeliverableRollback:    {"downtime", "dependency"},
	simulation.DeliverableTradeoff:    {"timeline", "budget"},
}

var strategyPriority = map[simulation.Strategy][]string{
	simulation.StrategyHybrid:       {"budget", "cost_target", "timeline"},
	simulation.StrategyRewrite:      {"timeline", "downtime"},
	simulation.StrategyAdapterLayer: {"dependency", "downtime"},
	simulation.StrategyAbstraction:  {"dependency", "downtime"},
}

// tension pairs a first fact with the facts that pull against it.
var tension = map[string][]string{
	"timeline":    {"slo", "downtime"},
	"cost_target": {"slo", "downtime"},
	"budget":      {"slo", "downtime"},
	"dependency":  {"timeline", "downtime"},
}

// pickCompanyConstraints chooses one fact tied to what the user missed or
// chose, plus a second one in tension with it when available. Ties rotate
// with the round so consecutive rounds surface different facts.
func pickCompanyConstraints(s simulation.Snapshot) []string {
	var priority []string
	for _, d := range s.MissingDeliverables {
		priority = append(priority, missingPriority[d]...)
	}
	priority = append(priority, strategyPriority[s.Strategy]...)

	addressed := func(c simulation.Constraint) bool {
		return slices.Contains(s.ConstraintsAddressed, c)
	}

	type scored struct {
		companyFact
		score int
	}
	var ranked []scored
	for _, f := range companyFacts(s) {
		score := 0
		if slices.Contains(priority, f.tag) {
			score += 3
		}
		switch f.tag {
		case "budget", "cost_target":
			if addressed(simulation.ConstraintCost) {
				score--
			}
		case "downtime", "slo":
			if addressed(simulation.ConstraintDowntime) {
				score--
			}
		}
		if score >= 0 {
			ranked = append(ranked, scored{f, score})
		}
	}
	if len(ranked) == 0 {
		return nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := 1
	for top < len(ranked) && ranked[top].score == ranked[0].score {
		top++
	}
	first := ranked[s.Round%top]
	chosen := []string{first.text}

	var rivals []string
	for _, r := range ranked {
		if r.score > 0 && r.tag != first.tag && slices.Contains(tension[first.tag], r.tag) {
			rivals = append(rivals, r.text)
		}
	}
	if len(rivals) > 0 {
		chosen = append(chosen, pick(seeded(s.ID, s.Round, "tension"), rivals))
	}
	return chosen
}
