// format.go renders the final-review prompt and the end-of-session feedback
// as plain text.
package simulation

import (
	"fmt"
	"strings"
)

const banner = "============================================================\n"

// FormatFinalReview builds the message that opens the final review round:
// current strategy, addressed constraints, gaps and recommendations.
func FormatFinalReview(s *Session) string {
	gaps := detectGaps(s)
	recs := recommendations(s, gaps)

	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("  Final Review Round\n")
	b.WriteString(banner)
	b.WriteString("\nBefore we conclude, let's review your migration strategy.\n\n")

	strategy := string(s.Strategy())
	if strategy == "" {
		strategy = "Not yet selected"
	}
	fmt.Fprintf(&b, "Current strategy:      %s\n", strategy)
	fmt.Fprintf(&b, "Constraints addressed: %s\n\n", joinOrNone(s.ConstraintsAddressed()))

	if len(gaps) > 0 {
		b.WriteString("Potential gaps to consider:\n")
		for i, g := range gaps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, g.text)
		}
		b.WriteString("\n")
	}

	b.WriteString("Recommendations to improve:\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
	}
	b.WriteString("\n")

	b.WriteString("Is this your final migration strategy?\n\n")
	b.WriteString("If you'd like to refine your approach based on the gaps and recommendations above, ")
	b.WriteString("share your updated strategy or any additional considerations.\n")
	return b.String()
}

// FormatFeedback renders the evaluation summary, the score breakdown and
// the strengths.
func FormatFeedback(r *Report) string {
	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("  Simulation Finished\n")
	b.WriteString(banner)
	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "  - Strategy: %s\n", r.Strategy)
	fmt.Fprintf(&b, "  - Personas encountered: %s\n", joinOrNone(r.PersonasUsed))
	fmt.Fprintf(&b, "  - Constraints covered: %s\n", joinOrNone(r.ConstraintsCovered))
	fmt.Fprintf(&b, "  - Score (reasoning quality): %d/%d\n", r.Score, MaxScore)

	b.WriteString(ExplainScore(r))

	b.WriteString("\nStrengths:\n")
	for _, s := range r.Strengths {
		fmt.Fprintf(&b, "  + %s\n", s)
	}

	if len(r.Gaps) > 0 && r.Gaps[0] != noGaps {
		b.WriteString("\nGaps:\n")
		for _, g := range r.Gaps {
			fmt.Fprintf(&b, "  - %s\n", g)
		}
	}

	b.WriteString("\n")
	b.WriteString(banner)
	return b.String()
}

// ExplainScore renders the per-criterion breakdown and what is left to earn.
func ExplainScore(r *Report) string {
	var b strings.Builder
	b.WriteString("\nScore breakdown (maximum 10 points):\n")

	for i, line := range r.Breakdown {
		if i == 1 {
			b.WriteString("\n  Constraint coverage:\n")
		}
		switch {
		case line.Penalty:
			fmt.Fprintf(&b, "\n  ! %s: %d points (%s)\n", line.Label, line.Points, line.Note)
		case line.Points > 0:
			fmt.Fprintf(&b, "  [x] %s: %d/%d", line.Label, line.Points, line.Max)
			if line.Note != "" {
				fmt.Fprintf(&b, " (%s)", line.Note)
			}
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "  [ ] %s: 0/%d (%s)\n", line.Label, line.Max, line.Note)
		}
	}

	fmt.Fprintf(&b, "\n  Total: %d/%d\n", r.Score, MaxScore)

	if missing := MaxScore - r.Score; missing > 0 {
		fmt.Fprintf(&b, "  Missing %d point(s) to a perfect score.\n", missing)
		if len(r.Improvements) > 0 {
			b.WriteString("  To improve your score:\n")
			for _, tip := range r.Improvements {
				fmt.Fprintf(&b, "    - %s\n", tip)
			}
		}
	} else {
		b.WriteString("  Perfect score. All key aspects covered.\n")
	}
	return b.String()
}

func joinOrNone[T ~string](items []T) string {
	if len(items) == 0 {
		return "None"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return strings.Join(parts, ", ")
}
