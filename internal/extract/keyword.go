package extract

import (
	"context"
	"regexp"
	"sort"

	"github.com/berth-dev/cutover/internal/simulation"
)

// KeywordExtractor is a deterministic word-match extractor. It reads far
// less than a model does and is meant for offline play or as an explicit
// degraded mode, never as a silent substitute.
type KeywordExtractor struct{}

type keywordRule[T any] struct {
	value T
	re    *regexp.Regexp
}

func words(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`)
}

// phrase is words without the outer boundaries, for patterns that start or
// end on a symbol.
func phrase(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var strategyRules = []keywordRule[simulation.Strategy]{
	{simulation.StrategyAdapterLayer, words(`adapter(?:s| layer)?|adaptor`)},
	{simulation.StrategyAbstraction, words(`abstraction(?: layer)?|abstract(?:ing)? away`)},
	{simulation.StrategyHybrid, words(`hybrid|phased hybrid`)},
	{simulation.StrategyRewrite, words(`rewrite|re-write|rewriting|rebuild from scratch`)},
}

var constraintRules = []keywordRule[simulation.Constraint]{
	{simulation.ConstraintTime, words(`deadlines?|timelines?|schedule|weeks?|months?|days?|time pressure|urgent`)},
	{simulation.ConstraintCost, words(`costs?|budget|spend(?:ing)?|expensive|cheap(?:er)?|egress|pricing`)},
	{simulation.ConstraintSecurity, words(`security|secure|compliance|audit(?:s|ing)?|iam|rbac|encrypt(?:ion|ed)?|kms`)},
	{simulation.ConstraintPerf, words(`latency|performance|throughput|load|scal(?:e|ing|ability)|rps`)},
	{simulation.ConstraintDowntime, words(`downtime|availability|outages?|zero[- ]downtime|slo|uptime|cutover`)},
	{simulation.ConstraintPartialDocs, words(`documentation|docs|undocumented|legacy code`)},
}

var deliverableRules = []keywordRule[simulation.Deliverable]{
	{simulation.DeliverableTimeline, words(`milestones?|phase \d|week \d+|\d+ weeks?|by (?:monday|tuesday|wednesday|thursday|friday|end of)`)},
	{simulation.DeliverableCost, phrase(`\$\s?\d|\d+\s?%|\bbudget of\b|\bcost cap\b`)},
	{simulation.DeliverableRollback, words(`rollback|roll back|revert|fail ?back`)},
	{simulation.DeliverableDowntimeSLO, phrase(`\b\d+\s?minutes?\b|\b99\.\d+|\bslo of\b|\bdowntime budget\b`)},
	{simulation.DeliverableTradeoff, words(`trade-?offs?|sacrifice|instead of|at the cost of|defer(?:ring)?`)},
}

// Extract implements simulation.Extractor. It never fails.
func (KeywordExtractor) Extract(ctx context.Context, text string) (simulation.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return simulation.Extraction{}, err
	}

	ext := simulation.Extraction{
		Constraints: []string{},
		Confidence:  simulation.ConfidenceLow,
	}

	// The earliest mentioned strategy wins.
	first := -1
	for _, r := range strategyRules {
		if loc := r.re.FindStringIndex(text); loc != nil && (first == -1 || loc[0] < first) {
			first = loc[0]
			ext.Strategy = r.value
		}
	}

	for _, r := range constraintRules {
		if r.re.MatchString(text) {
			ext.Constraints = append(ext.Constraints, string(r.value))
		}
	}
	for _, r := range deliverableRules {
		if r.re.MatchString(text) {
			ext.Deliverables = append(ext.Deliverables, string(r.value))
		}
	}
	sort.Strings(ext.Deliverables)
	return ext, nil
}
