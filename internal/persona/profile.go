// Package persona voices the stakeholders the user has to convince: it
// builds each round's complication and the persona's reply.
package persona

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/berth-dev/cutover/internal/simulation"
	"github.com/berth-dev/cutover/prompts"
)

// ErrUnknownPersona is returned for a persona id with no profile.
var ErrUnknownPersona = errors.New("persona: unknown persona")

// Profile is a stakeholder's identity and voice.
type Profile struct {
	ID   simulation.PersonaID
	Name string
	Role string

	// Guide is the style and focus section of the persona prompt.
	Guide string

	// Complications is the persona's own pool of obstacles.
	Complications []string

	// Closing ends offline replies.
	Closing string
}

// Speaker is the reply attribution, e.g. "Sarah (Product Manager)".
func (p Profile) Speaker() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Role)
}

var profiles = map[simulation.PersonaID]Profile{
	simulation.PersonaPM: {
		ID:    simulation.PersonaPM,
		Name:  "Sarah",
		Role:  "Product Manager",
		Guide: prompts.RolePM,
		Complications: []string{
			"Deadline shortened: we must ship in 10 days. No full refactor is possible.",
			"Stakeholders want to see progress this week. Can we show something working quickly?",
			"The scope has changed: we need to support 3x more users than originally planned.",
			"Upper management is asking for daily updates. We need a clear migration timeline.",
			"Customer commitments require zero disruption. How do we ensure a smooth transition?",
		},
		Closing: "We need to balance speed with quality. What's the fastest path that doesn't hurt our users?",
	},
	simulation.PersonaDevOps: {
		ID:    simulation.PersonaDevOps,
		Name:  "Alex",
		Role:  "DevOps Engineer",
		Guide: prompts.RoleDevOps,
		Complications: []string{
			"Access model changes: IAM roles need to map to Azure RBAC. We must pass security review before deployment.",
			"Infrastructure as Code needs to be rewritten. Our Terraform modules are AWS-specific.",
			"Monitoring and logging systems are different. We need a migration plan for observability.",
			"CI/CD pipelines depend on AWS-specific services. We'll need to rebuild them.",
			"Network security groups and VPC configurations don't translate directly. This affects our architecture.",
		},
		Closing: "Security and infrastructure concerns are critical. Nothing can break during the migration.",
	},
	simulation.PersonaCTO: {
		ID:    simulation.PersonaCTO,
		Name:  "Michael",
		Role:  "CTO",
		Guide: prompts.RoleCTO,
		Complications: []string{
			"Cost cap added: we have a strict budget. Egress costs and new managed services need careful evaluation.",
			"Long-term strategy: we're considering multi-cloud. How does this migration fit our 5-year plan?",
			"Vendor lock-in is a concern. We want to avoid being tied to one provider's proprietary features.",
			"Team expertise: our engineers know AWS well. Training costs and ramp-up time on the new provider need consideration.",
			"Compliance requirements: we need to ensure the new provider meets all regulatory standards.",
		},
		Closing: "We need to think strategically about cost, long-term maintainability and business alignment.",
	},
}

// Lookup returns the profile for id.
func Lookup(id simulation.PersonaID) (Profile, error) {
	p, ok := profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownPersona, id)
	}
	return p, nil
}

// seeded returns a generator that depends only on the session id and the
// given salt, so a session replays the same draws.
func seeded(sessionID string, salt ...any) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprint(h, sessionID)
	for _, s := range salt {
		fmt.Fprintf(h, "|%v", s)
	}
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>32|sum<<32))
}

// pick draws one entry of pool.
func pick(r *rand.Rand, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[r.IntN(len(pool))]
}

// dependencyIndex rotates through the critical dependencies, one per round.
func dependencyIndex(sessionID string, round, n int) int {
	h := fnv.New32a()
	fmt.Fprint(h, sessionID)
	return (int(h.Sum32()%uint32(n)) + round) % n
}
