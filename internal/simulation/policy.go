package simulation

// Conditions are the thresholds a session must meet before the final review.
type Conditions struct {
	MinPersonas     int  `json:"min_personas" yaml:"min_personas"`
	MinConstraints  int  `json:"min_constraints" yaml:"min_constraints"`
	RequireStrategy bool `json:"require_strategy" yaml:"require_strategy"`
}

// DefaultConditions returns the stock completion thresholds.
func DefaultConditions() Conditions {
	return Conditions{
		MinPersonas:     2,
		MinConstraints:  3,
		RequireStrategy: true,
	}
}

// ShouldEnd reports whether the session should move to the final review.
// The round cap always wins; otherwise every condition must hold.
func ShouldEnd(s *Session, c Conditions) bool {
	if s.Round() >= s.MaxRounds() {
		return true
	}
	if c.RequireStrategy && s.Strategy() == "" {
		return false
	}
	if len(s.personas) < c.MinPersonas {
		return false
	}
	if len(s.constraints) < c.MinConstraints {
		return false
	}
	return true
}
