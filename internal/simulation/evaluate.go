// evaluate.go scores a finished session and derives strengths, gaps and
// recommendations from its final state.
package simulation

import (
	"fmt"
	"strings"
)

// Report is the end-of-session evaluation.
type Report struct {
	SessionID          string       `json:"session_id"`
	Score              int          `json:"score"`
	Strategy           string       `json:"strategy"`
	PersonasUsed       []PersonaID  `json:"personas_used"`
	ConstraintsCovered []Constraint `json:"constraints_covered"`
	Strengths          []string     `json:"strengths"`
	Gaps               []string     `json:"gaps"`
	Recommendations    []string     `json:"recommendations"`
	RiskFlags          []RiskFlag   `json:"risk_flags"`
	RiskScore          int          `json:"risk_score"`
	Breakdown          []ScoreLine  `json:"breakdown"`
	Improvements       []string     `json:"improvements,omitempty"`
}

// ScoreLine is one row of the score breakdown.
type ScoreLine struct {
	Label   string `json:"label"`
	Points  int    `json:"points"`
	Max     int    `json:"max"`
	Note    string `json:"note,omitempty"`
	Penalty bool   `json:"penalty,omitempty"`
}

// MaxScore is the ceiling of the reasoning-quality score.
const MaxScore = 10

const riskPenalty = 2

// constraintPoint describes what a constraint is worth and how it reads.
type constraintPoint struct {
	constraint Constraint
	points     int
	label      string
	strength   string
	advice     string
}

// constraintPoints is ordered the way the breakdown prints.
var constraintPoints = []constraintPoint{
	{ConstraintDowntime, 2, "Downtime / Availability", "Considered availability / downtime", "Address downtime and availability concerns"},
	{ConstraintSecurity, 2, "Security / Compliance", "Considered security implications", "Address security and compliance requirements"},
	{ConstraintCost, 1, "Cost / Budget", "Considered cost implications", "Consider cost and budget implications"},
	{ConstraintPerf, 1, "Performance / Scalability", "Considered performance under load", "Address performance and scalability needs"},
	{ConstraintTime, 1, "Time / Deadlines", "Considered time constraints", "Consider time constraints and deadlines"},
	{ConstraintPartialDocs, 1, "Incomplete / Missing Documentation", "Considered documentation gaps", "Consider challenges with incomplete/missing documentation"},
}

// commonConstraints are the ones every plan is expected to cover.
var commonConstraints = []Constraint{ConstraintTime, ConstraintCost, ConstraintSecurity, ConstraintDowntime}

// Gap categories, used to key recommendations.
type gapKind int

const (
	gapConstraints gapKind = iota
	gapStrategy
	gapStakeholders
	gapRiskConflict
	gapDiscussion
)

type gap struct {
	kind   gapKind
	text   string
	topics []string
}

// Evaluate scores the session and builds its report.
func Evaluate(s *Session) *Report {
	score, notes, breakdown := scoreSession(s)
	gaps := detectGaps(s)

	r := &Report{
		SessionID:          s.ID(),
		Score:              score,
		Strategy:           string(s.Strategy()),
		PersonasUsed:       s.PersonasTriggered(),
		ConstraintsCovered: s.ConstraintsAddressed(),
		Strengths:          strengths(s, notes),
		Gaps:               gapTexts(gaps),
		Recommendations:    recommendations(s, gaps),
		RiskFlags:          s.RiskFlags(),
		RiskScore:          s.RiskScore(),
		Breakdown:          breakdown,
		Improvements:       pointsToPerfect(s),
	}
	if r.Strategy == "" {
		r.Strategy = "None selected"
	}
	return r
}

// scoreSession returns the clamped score, the positive notes earned and the
// breakdown rows.
func scoreSession(s *Session) (int, []string, []ScoreLine) {
	score := 0
	var notes []string
	var lines []ScoreLine

	strategyLine := ScoreLine{Label: "Strategy selection", Max: 2}
	switch st := s.Strategy(); {
	case st.migrationFriendly():
		score += 2
		notes = append(notes, "Chose migration-friendly strategy")
		strategyLine.Points = 2
		strategyLine.Note = "chose " + string(st)
	case st == StrategyRewrite:
		score++
		notes = append(notes, "Chose rewrite strategy (higher risk)")
		strategyLine.Points = 1
		strategyLine.Note = "chose rewrite strategy - higher risk"
	default:
		strategyLine.Note = "no strategy selected"
	}
	lines = append(lines, strategyLine)

	for _, cp := range constraintPoints {
		line := ScoreLine{Label: cp.label, Max: cp.points}
		if s.HasConstraint(cp.constraint) {
			score += cp.points
			notes = append(notes, cp.strength)
			line.Points = cp.points
		} else {
			line.Note = "not addressed"
		}
		lines = append(lines, line)
	}

	if len(s.riskFlags) > 0 {
		score -= riskPenalty
		lines = append(lines, ScoreLine{
			Label:   "Risk penalties",
			Points:  -riskPenalty,
			Note:    "conflicting choices",
			Penalty: true,
		})
	}

	return min(max(score, 0), MaxScore), notes, lines
}

func strengths(s *Session, notes []string) []string {
	out := append([]string(nil), notes...)
	if len(s.personas) >= 3 {
		out = append(out, "Engaged with multiple stakeholders")
	}
	if len(s.constraints) >= 4 {
		out = append(out, "Comprehensive constraint analysis")
	}
	if s.Strategy() != "" {
		out = append(out, "Made a clear strategic decision")
	}
	if len(out) == 0 {
		return []string{"Participated in the simulation"}
	}
	return out
}

func detectGaps(s *Session) []gap {
	var gaps []gap

	var missing []string
	for _, c := range commonConstraints {
		if !s.HasConstraint(c) {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		gaps = append(gaps, gap{kind: gapConstraints, text: "Did not address: " + strings.Join(missing, ", ")})
	}

	if s.Strategy() == "" {
		gaps = append(gaps, gap{kind: gapStrategy, text: "No clear migration strategy selected"})
	}

	if len(s.personas) < 2 {
		gaps = append(gaps, gap{kind: gapStakeholders, text: "Limited stakeholder engagement"})
	}

	if len(s.riskFlags) > 0 {
		flags := make([]string, len(s.riskFlags))
		for i, f := range s.riskFlags {
			flags[i] = string(f)
		}
		gaps = append(gaps, gap{kind: gapRiskConflict, text: "Risk conflicts detected: " + strings.Join(flags, ", ")})
	}

	if topics := undiscussedTopics(s); len(topics) > 0 {
		gaps = append(gaps, gap{
			kind:   gapDiscussion,
			text:   "Did not discuss: " + strings.Join(topics, ", "),
			topics: topics,
		})
	}

	return gaps
}

const (
	topicMonitoring = "monitoring/observability"
	topicRollback   = "rollback strategy"
	topicTesting    = "testing approach"
)

// undiscussedTopics is a coarse keyword check over what the user wrote.
func undiscussedTopics(s *Session) []string {
	var sb strings.Builder
	for _, m := range s.transcript {
		if m.Role == RoleUser {
			sb.WriteString(strings.ToLower(m.Content))
			sb.WriteString("\n")
		}
	}
	text := sb.String()

	var topics []string
	if !strings.Contains(text, "monitoring") {
		topics = append(topics, topicMonitoring)
	}
	if !strings.Contains(text, "rollback") && !strings.Contains(text, "roll back") {
		topics = append(topics, topicRollback)
	}
	if !strings.Contains(text, "testing") {
		topics = append(topics, topicTesting)
	}
	return topics
}

func gapTexts(gaps []gap) []string {
	if len(gaps) == 0 {
		return []string{noGaps}
	}
	out := make([]string, len(gaps))
	for i, g := range gaps {
		out[i] = g.text
	}
	return out
}

const noGaps = "No major gaps detected"

// constraintAdvice maps an open common constraint to its recommendation.
var constraintAdvice = map[Constraint]string{
	ConstraintTime:     "Consider time constraints and deadlines in your planning",
	ConstraintCost:     "Evaluate cost implications of different migration approaches",
	ConstraintSecurity: "Address security and compliance requirements early",
	ConstraintDowntime: "Plan for zero-downtime migration strategies",
}

var topicAdvice = map[string]string{
	topicMonitoring: "Plan for monitoring and observability in the new cloud environment",
	topicRollback:   "Develop a rollback strategy in case migration issues arise",
	topicTesting:    "Define testing strategy for migrated services",
}

// recommendations maps gap categories to fixed advisory strings.
func recommendations(s *Session, gaps []gap) []string {
	byKind := make(map[gapKind]gap, len(gaps))
	for _, g := range gaps {
		byKind[g.kind] = g
	}

	var recs []string
	if _, ok := byKind[gapStrategy]; ok {
		recs = append(recs, "Consider choosing a clear migration strategy (adapter layer, abstraction, hybrid, or rewrite)")
	}
	if _, ok := byKind[gapConstraints]; ok {
		for _, c := range commonConstraints {
			if !s.HasConstraint(c) {
				recs = append(recs, constraintAdvice[c])
			}
		}
	}
	if len(s.personas) < 3 {
		recs = append(recs, "Engage with more stakeholders (PM, DevOps, CTO) to get diverse perspectives")
	}
	if g, ok := byKind[gapDiscussion]; ok {
		for _, t := range g.topics {
			recs = append(recs, topicAdvice[t])
		}
	}
	if _, ok := byKind[gapRiskConflict]; ok {
		recs = append(recs, "Reconcile conflicting requirements (e.g., rewrite vs. time pressure)")
	}

	if len(recs) == 0 {
		return []string{"Continue practicing migration planning scenarios"}
	}
	return recs
}

// pointsToPerfect lists what would raise the score, with point values.
func pointsToPerfect(s *Session) []string {
	var out []string
	if s.Strategy() == "" {
		out = append(out, "Select a migration strategy (adapter_layer, abstraction, hybrid, or rewrite) [+2 points]")
	}
	for _, cp := range constraintPoints {
		if !s.HasConstraint(cp.constraint) {
			out = append(out, fmt.Sprintf("%s (+%d point(s))", cp.advice, cp.points))
		}
	}
	if len(s.riskFlags) > 0 {
		out = append(out, "Resolve conflicting requirements (e.g., rewrite vs. time pressure) [+2 points]")
	}
	return out
}
