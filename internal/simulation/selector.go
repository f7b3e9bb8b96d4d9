package simulation

// Affinity ties a constraint to the persona who pushes on it.
type Affinity struct {
	Constraint Constraint
	Persona    PersonaID
}

// Selector picks the next persona to speak. It is deterministic given the
// session: no hidden randomness.
type Selector struct {
	Roster   []PersonaID
	Affinity []Affinity
}

// DefaultSelector is the stock three-persona roster.
var DefaultSelector = Selector{
	Roster: []PersonaID{PersonaPM, PersonaDevOps, PersonaCTO},
	Affinity: []Affinity{
		{Constraint: ConstraintSecurity, Persona: PersonaDevOps},
		{Constraint: ConstraintCost, Persona: PersonaCTO},
		{Constraint: ConstraintTime, Persona: PersonaPM},
	},
}

// ChooseNext picks the next persona using DefaultSelector.
func ChooseNext(s *Session) PersonaID {
	return DefaultSelector.Choose(s)
}

// Choose returns the persona who should speak this round.
//
// The previous speaker is never repeated unless the roster has a single
// member. On the first turn the first affinity persona whose constraint is
// still open goes first. Later turns prefer open-affinity personas and
// rotate by round number among whichever set applies.
func (sel Selector) Choose(s *Session) PersonaID {
	if len(sel.Roster) == 0 {
		return ""
	}
	if len(sel.Roster) == 1 {
		return sel.Roster[0]
	}

	if s.LastPersona() == "" {
		for _, a := range sel.Affinity {
			if !s.HasConstraint(a.Constraint) && sel.inRoster(a.Persona) {
				return a.Persona
			}
		}
		return sel.Roster[0]
	}

	var candidates []PersonaID
	for _, p := range sel.Roster {
		if p != s.LastPersona() {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	var matching []PersonaID
	for _, a := range sel.Affinity {
		if s.HasConstraint(a.Constraint) {
			continue
		}
		for _, c := range candidates {
			if c == a.Persona {
				matching = append(matching, c)
				break
			}
		}
	}
	if len(matching) > 0 {
		return matching[s.Round()%len(matching)]
	}
	return candidates[s.Round()%len(candidates)]
}

func (sel Selector) inRoster(p PersonaID) bool {
	for _, r := range sel.Roster {
		if r == p {
			return true
		}
	}
	return false
}
