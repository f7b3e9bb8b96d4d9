// Package extract turns free-text user messages into structured
// extractions: chosen strategy, constraint tags, confidence and the plan
// deliverables the message supplies.
package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/berth-dev/cutover/internal/llm"
	"github.com/berth-dev/cutover/internal/simulation"
	"github.com/berth-dev/cutover/prompts"
)

// ErrMalformed is returned when the model output is not a valid extraction.
var ErrMalformed = errors.New("extract: malformed model output")

//go:embed schema.json
var schemaJSON string

const schemaURL = "extraction.json"

// Config tunes the model call.
type Config struct {
	Temperature float32
	MaxTokens   int
	Logger      *slog.Logger
}

// LLMExtractor asks a language model to classify the message and validates
// the answer against a JSON Schema before trusting it.
type LLMExtractor struct {
	client llm.Client
	schema *jsonschema.Schema
	tmpl   *template.Template
	cfg    Config
}

// NewLLMExtractor compiles the schema and prompt template.
func NewLLMExtractor(client llm.Client, cfg Config) (*LLMExtractor, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("adding extraction schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling extraction schema: %w", err)
	}

	tmpl, err := template.New("extract").Parse(prompts.ExtractTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing extraction prompt: %w", err)
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LLMExtractor{client: client, schema: schema, tmpl: tmpl, cfg: cfg}, nil
}

// Extract implements simulation.Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (simulation.Extraction, error) {
	prompt, err := e.buildPrompt(text)
	if err != nil {
		return simulation.Extraction{}, err
	}

	out, err := e.client.Generate(ctx, llm.Request{
		System:      prompts.ExtractSystemPrompt,
		Prompt:      prompt,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return simulation.Extraction{}, fmt.Errorf("extract: %w", err)
	}

	ext, err := e.parse(out)
	if err != nil {
		e.cfg.Logger.Debug("extraction output rejected", "error", err, "raw", out)
		return simulation.Extraction{}, err
	}
	return ext, nil
}

func (e *LLMExtractor) buildPrompt(text string) (string, error) {
	data := struct {
		Message      string
		Strategies   []simulation.Strategy
		Constraints  []simulation.Constraint
		Deliverables []simulation.Deliverable
	}{
		Message:      text,
		Strategies:   simulation.Strategies,
		Constraints:  simulation.Constraints,
		Deliverables: simulation.Deliverables,
	}

	var sb strings.Builder
	if err := e.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering extraction prompt: %w", err)
	}
	return sb.String(), nil
}

// payload mirrors schema.json. Some models capitalise the constraints key.
type payload struct {
	Strategy       *string  `json:"strategy"`
	Constraints    []string `json:"constraints"`
	ConstraintsAlt []string `json:"Constraints"`
	Confidence     *string  `json:"confidence"`
	Deliverables   []string `json:"deliverables"`
}

func (e *LLMExtractor) parse(raw string) (simulation.Extraction, error) {
	cleaned := CleanJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return simulation.Extraction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return simulation.Extraction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var p payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return simulation.Extraction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var strategy string
	if p.Strategy != nil {
		strategy = *p.Strategy
	}
	constraints := p.Constraints
	if len(constraints) == 0 {
		constraints = p.ConstraintsAlt
	}

	return normalise(strategy, constraints, p.Confidence, p.Deliverables), nil
}

// normalise keeps only vocabulary values, lowercased and deduplicated.
func normalise(strategy string, constraints []string, confidence *string, deliverables []string) simulation.Extraction {
	var ext simulation.Extraction
	if s, ok := simulation.ParseStrategy(strategy); ok {
		ext.Strategy = s
	}

	ext.Constraints = []string{}
	seen := make(map[simulation.Constraint]bool)
	for _, c := range constraints {
		if tag, ok := simulation.ParseConstraint(c); ok && !seen[tag] {
			seen[tag] = true
			ext.Constraints = append(ext.Constraints, string(tag))
		}
	}

	if confidence != nil {
		switch c := simulation.Confidence(strings.ToLower(strings.TrimSpace(*confidence))); c {
		case simulation.ConfidenceHigh, simulation.ConfidenceMedium, simulation.ConfidenceLow:
			ext.Confidence = c
		}
	}

	seenD := make(map[simulation.Deliverable]bool)
	for _, d := range deliverables {
		if del, ok := simulation.ParseDeliverable(d); ok && !seenD[del] {
			seenD[del] = true
			ext.Deliverables = append(ext.Deliverables, string(del))
		}
	}
	return ext
}
