package persona

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/berth-dev/cutover/internal/llm"
	"github.com/berth-dev/cutover/internal/simulation"
	"github.com/berth-dev/cutover/prompts"
)

var hiddenConstraints = []string{
	"New info: The nightly batch job runs with ConsistentRead=True on the DynamoDB table using partition key 'user_id'. Any migration that switches to eventual consistency or changes the partition key will cause incorrect financial aggregates.",
	"New info: The security team requires CloudTrail-equivalent audit logs for all read/write operations and a documented key rotation policy (every 90 days) before approving any production cutover.",
	"New info: A legacy internal service assumes the IAM role name 'user-data-prod-role' and parses it explicitly in its configuration. Renaming or restructuring IAM roles will cause authentication failures in production.",
	"New info: A downstream analytics pipeline expects DynamoDB items to always include the attributes 'user_id', 'account_status' and 'created_at'. Removing or renaming any of these fields will break ETL ingestion jobs.",
}

var infoGaps = []string{
	"Information gap: we do NOT have the current AWS monthly cost baseline yet.",
	"Information gap: we do NOT have peak load numbers (RCU/WCU/RPS) yet.",
	"Information gap: the downtime budget is not confirmed yet.",
	"Information gap: do NOT assume any SLO number (99.9/99.95/etc.) until it is confirmed.",
}

var orgPressures = []string{
	"Organizational pressure: The CFO has publicly committed to a 30% cost reduction this quarter.",
	"Organizational pressure: The Security Director has warned that no migration will be approved without full audit evidence.",
	"Organizational pressure: The VP Engineering prefers a rewrite instead of lift-and-shift.",
	"Organizational pressure: Product is concerned about customer churn if downtime exceeds expectations.",
}

const (
	escalationHigh = "Risk level is very high. Be firm and urgent. Do not approve a cutover plan until the user provides " +
		"clear owners, concrete rollback triggers and measurable thresholds. Keep the tone professional and forward-moving."
	escalationElevated = "Risk level is elevated. Ask for concrete numbers and owners, and push for clear trade-offs and KPIs."
)

// hiddenFromRound is the first round that reveals the session's hidden
// constraint. It stays visible afterwards.
const hiddenFromRound = 2

// Config tunes persona model calls.
type Config struct {
	Temperature float32
	MaxTokens   int
	Logger      *slog.Logger
}

// Responder voices personas through a language model.
type Responder struct {
	client llm.Client
	system *template.Template
	turn   *template.Template
	cfg    Config
}

// NewResponder parses the persona prompt templates.
func NewResponder(client llm.Client, cfg Config) (*Responder, error) {
	system, err := template.New("persona-system").Parse(prompts.PersonaSystemTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing persona system prompt: %w", err)
	}
	turn, err := template.New("persona-turn").Parse(prompts.PersonaTurnTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing persona turn prompt: %w", err)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Responder{client: client, system: system, turn: turn, cfg: cfg}, nil
}

// Respond implements simulation.Responder.
func (r *Responder) Respond(ctx context.Context, req simulation.PersonaRequest) (simulation.Reply, error) {
	profile, err := Lookup(req.Persona)
	if err != nil {
		return simulation.Reply{}, err
	}
	system, prompt, err := r.Prompt(req)
	if err != nil {
		return simulation.Reply{}, err
	}

	out, err := r.client.Generate(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		return simulation.Reply{}, fmt.Errorf("persona %s: %w", req.Persona, err)
	}
	text := strings.TrimSpace(out)
	if text == "" {
		return simulation.Reply{}, fmt.Errorf("persona %s: %w", req.Persona, llm.ErrEmptyResponse)
	}

	r.cfg.Logger.Debug("persona reply", "session", req.Session.ID, "persona", req.Persona, "chars", len(text))
	return simulation.Reply{Speaker: profile.Speaker(), Text: text}, nil
}

// Prompt renders the system and user prompts for req.
func (r *Responder) Prompt(req simulation.PersonaRequest) (system, prompt string, err error) {
	profile, err := Lookup(req.Persona)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	if err := r.system.Execute(&sb, profile); err != nil {
		return "", "", fmt.Errorf("rendering persona system prompt: %w", err)
	}
	system = sb.String()

	ctxLines, active := briefing(profile, req)
	data := struct {
		Context    []string
		Active     []string
		Name       string
		Role       string
		Rules      string
		RoleGuide  string
		Escalation string
	}{
		Context:    ctxLines,
		Active:     active,
		Name:       profile.Name,
		Role:       profile.Role,
		Rules:      prompts.PersonaRules,
		RoleGuide:  profile.Guide,
		Escalation: escalation(req.Session.RiskScore),
	}

	sb.Reset()
	if err := r.turn.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("rendering persona prompt: %w", err)
	}
	return system, sb.String(), nil
}

// briefing assembles the context lines and the constraints the persona is
// allowed to reference this round.
func briefing(p Profile, req simulation.PersonaRequest) (lines, active []string) {
	s := req.Session
	lines = append(lines,
		fmt.Sprintf("You are a %s (%s) in a cloud migration project.", p.Role, p.Name),
		"Current situation: "+req.Complication,
	)
	if len(s.Scenario.Services) > 0 {
		lines = append(lines, "The migration involves AWS services: "+strings.Join(s.Scenario.Services, ", "))
	}
	if s.Strategy != "" {
		lines = append(lines, fmt.Sprintf("The team is considering: %s strategy", s.Strategy))
	}
	if len(s.ConstraintsAddressed) > 0 {
		names := make([]string, len(s.ConstraintsAddressed))
		for i, c := range s.ConstraintsAddressed {
			names[i] = string(c)
		}
		lines = append(lines, "Constraints already discussed: "+strings.Join(names, ", "))
	}
	for _, f := range companyFacts(s) {
		if f.tag != "dependency" {
			lines = append(lines, "Company constraint: "+f.text)
		}
	}
	if n := len(s.Baseline.CriticalDependencies); n > 0 {
		lines = append(lines, "Known dependency: "+s.Baseline.CriticalDependencies[dependencyIndex(s.ID, s.Round, n)])
	}
	if len(s.MissingDeliverables) > 0 {
		names := make([]string, len(s.MissingDeliverables))
		for i, d := range s.MissingDeliverables {
			names[i] = string(d)
		}
		lines = append(lines, "Missing deliverables from user plan: "+strings.Join(names, ", "))
	}
	lines = append(lines, fmt.Sprintf("Current risk score (0-100): %d", s.RiskScore))
	if req.UserMessage != "" {
		lines = append(lines, "User's latest message: "+req.UserMessage)
	}

	var hidden string
	if s.Round >= hiddenFromRound {
		hidden = pick(seeded(s.ID, "hidden"), hiddenConstraints)
		lines = append(lines, hidden)
	}

	for _, c := range pickCompanyConstraints(s) {
		lines = append(lines, "Company constraint (relevant now): "+c)
		active = append(active, c)
	}
	if hidden != "" {
		active = append(active, hidden)
	}

	gap := pick(seeded(s.ID, "gap"), infoGaps)
	org := pick(seeded(s.ID, "org"), orgPressures)
	lines = append(lines, gap, org)
	active = append(active, gap, org)
	return lines, active
}

func escalation(risk int) string {
	switch {
	case risk >= 75:
		return escalationHigh
	case risk >= 50:
		return escalationElevated
	}
	return ""
}

// Offline voices personas from their profile alone, with no model call.
// It backs the scripted play mode.
type Offline struct{}

// Respond implements simulation.Responder.
func (Offline) Respond(ctx context.Context, req simulation.PersonaRequest) (simulation.Reply, error) {
	if err := ctx.Err(); err != nil {
		return simulation.Reply{}, err
	}
	profile, err := Lookup(req.Persona)
	if err != nil {
		return simulation.Reply{}, err
	}
	text := strings.TrimSpace(req.Complication + "\n" + profile.Closing)
	return simulation.Reply{Speaker: profile.Speaker(), Text: text}, nil
}
