// Package scenario draws the migration case a session opens with and
// writes its introduction.
package scenario

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/berth-dev/cutover/internal/simulation"
)

// Generator picks a service combination, a business context and one or two
// extra constraints. Draws depend only on the seed and the session id.
type Generator struct {
	seed uint64
}

// NewGenerator returns a Generator. Different seeds give different draws
// for the same session id.
func NewGenerator(seed uint64) *Generator {
	return &Generator{seed: seed}
}

// Scenario implements simulation.ScenarioSource.
func (g *Generator) Scenario(ctx context.Context, sessionID string) (simulation.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return simulation.Scenario{}, err
	}

	r := g.source(sessionID)
	combo := combos[r.IntN(len(combos))]
	bc := contexts[r.IntN(len(contexts))]

	constraints := append([]simulation.Constraint(nil), bc.Constraints...)
	var remaining []simulation.Constraint
	for _, c := range simulation.Constraints {
		if !slices.Contains(constraints, c) {
			remaining = append(remaining, c)
		}
	}
	r.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	extra := min(1+r.IntN(2), len(remaining))
	constraints = append(constraints, remaining[:extra]...)

	code, err := combo.Snippet()
	if err != nil {
		return simulation.Scenario{}, fmt.Errorf("reading snippet for %s: %w", combo.Module, err)
	}

	sc := simulation.Scenario{
		Module:          combo.Module,
		Services:        append([]string(nil), combo.Services...),
		BusinessContext: bc.Text,
		Constraints:     constraints,
	}
	sc.Intro = Introduce(sc, code)
	return sc, nil
}

func (g *Generator) source(sessionID string) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprint(h, sessionID)
	return rand.New(rand.NewPCG(g.seed, h.Sum64()))
}

// Introduce writes the opening agent message for a scenario.
func Introduce(sc simulation.Scenario, code string) string {
	var b strings.Builder
	b.WriteString("Welcome to the Cloud Migration Simulation!\n\n")
	b.WriteString("You've been tasked with migrating an AWS-based service to an alternative cloud provider.\n\n")
	b.WriteString("**Context:**\n")
	b.WriteString(sc.BusinessContext)
	b.WriteString("\n\n**Current AWS Implementation:**\n")
	fmt.Fprintf(&b, "The service uses: %s\n", strings.Join(sc.Services, ", "))
	fmt.Fprintf(&b, "Module name: %s\n\n", sc.Module)
	if code != "" {
		fmt.Fprintf(&b, "```go\n%s\n```\n\n", strings.TrimRight(code, "\n"))
	}
	b.WriteString("**Your Task:**\n")
	b.WriteString("Plan and discuss your migration strategy. Consider constraints like time, cost, security, performance and downtime. ")
	b.WriteString("Different team members (PM, DevOps, CTO) will join the conversation with their perspectives and concerns.\n\n")
	b.WriteString("Type your response to begin the simulation...")
	return b.String()
}
