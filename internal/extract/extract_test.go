package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/cutover/internal/llm"
	"github.com/berth-dev/cutover/internal/simulation"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean JSON object",
			input: `{"strategy": "hybrid"}`,
			want:  `{"strategy": "hybrid"}`,
		},
		{
			name:  "JSON with leading whitespace",
			input: "  \n  {\"strategy\": \"hybrid\"}  \n  ",
			want:  `{"strategy": "hybrid"}`,
		},
		{
			name:  "JSON in json code fence",
			input: "```json\n{\"strategy\": \"hybrid\"}\n```",
			want:  `{"strategy": "hybrid"}`,
		},
		{
			name:  "JSON in plain code fence",
			input: "```\n{\"strategy\": \"hybrid\"}\n```",
			want:  `{"strategy": "hybrid"}`,
		},
		{
			name:  "JSON with text before",
			input: "Here is the classification:\n{\"strategy\": \"rewrite\"}",
			want:  `{"strategy": "rewrite"}`,
		},
		{
			name:  "JSON with text after",
			input: "{\"strategy\": \"rewrite\"}\nLet me know if anything is unclear.",
			want:  `{"strategy": "rewrite"}`,
		},
		{
			name:  "prose braces before the object",
			input: "Result {see below}: {\"constraints\": [\"time\"]}",
			want:  `{"constraints": ["time"]}`,
		},
		{
			name:  "bare object containing a fence in a value",
			input: "{\"note\": \"use ```json blocks\", \"strategy\": null}",
			want:  "{\"note\": \"use ```json blocks\", \"strategy\": null}",
		},
		{
			name:  "no JSON at all",
			input: "I cannot help with that.",
			want:  "I cannot help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func newExtractor(t *testing.T, responses ...string) (*LLMExtractor, *llm.Scripted) {
	t.Helper()
	client := llm.NewScripted(responses...)
	e, err := NewLLMExtractor(client, Config{Temperature: 0.2})
	require.NoError(t, err)
	return e, client
}

func TestLLMExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     simulation.Extraction
	}{
		{
			name:     "full answer",
			response: `{"strategy":"adapter_layer","constraints":["time","security"],"confidence":"high","deliverables":["rollback"]}`,
			want: simulation.Extraction{
				Strategy:     simulation.StrategyAdapterLayer,
				Constraints:  []string{"time", "security"},
				Confidence:   simulation.ConfidenceHigh,
				Deliverables: []string{"rollback"},
			},
		},
		{
			name:     "fenced answer",
			response: "```json\n{\"strategy\":\"hybrid\",\"constraints\":[\"cost\"]}\n```",
			want: simulation.Extraction{
				Strategy:    simulation.StrategyHybrid,
				Constraints: []string{"cost"},
			},
		},
		{
			name:     "capitalised constraints key",
			response: `{"strategy":null,"Constraints":["Downtime","perf"]}`,
			want: simulation.Extraction{
				Constraints: []string{"downtime", "perf"},
			},
		},
		{
			name:     "unknown values dropped",
			response: `{"strategy":"lift_and_shift","constraints":["time","vibes","time"],"confidence":"certain","deliverables":["budget","timeline"]}`,
			want: simulation.Extraction{
				Constraints:  []string{"time"},
				Deliverables: []string{"timeline"},
			},
		},
		{
			name:     "null constraints",
			response: `{"strategy":"rewrite","constraints":null}`,
			want: simulation.Extraction{
				Strategy:    simulation.StrategyRewrite,
				Constraints: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newExtractor(t, tt.response)
			got, err := e.Extract(context.Background(), "we should plan this")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLLMExtractor_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "Sure! The user wants a rewrite."},
		{name: "missing required keys", response: `{"confidence":"high"}`},
		{name: "wrong types", response: `{"strategy":5,"constraints":"time"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newExtractor(t, tt.response)
			_, err := e.Extract(context.Background(), "anything")
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLLMExtractor_TransportError(t *testing.T) {
	e, client := newExtractor(t, "{}")
	client.FailWith(errors.New("connection refused"))

	_, err := e.Extract(context.Background(), "anything")
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestLLMExtractor_Prompt(t *testing.T) {
	e, client := newExtractor(t, `{"strategy":null,"constraints":[]}`)

	_, err := e.Extract(context.Background(), "Keep Stripe behind an adapter, rollback in 5 minutes")
	require.NoError(t, err)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Keep Stripe behind an adapter, rollback in 5 minutes")
	assert.Contains(t, reqs[0].Prompt, "partial_docs")
	assert.Contains(t, reqs[0].Prompt, "downtime_slo")
	assert.NotEmpty(t, reqs[0].System)
	assert.InDelta(t, 0.2, reqs[0].Temperature, 1e-6)
	assert.Equal(t, 500, reqs[0].MaxTokens)
}

func TestKeywordExtractor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want simulation.Extraction
	}{
		{
			name: "adapter with deadline and rollback",
			text: "We'll use an adapter layer, keep the 6 weeks deadline, stay within budget, and roll back if errors spike.",
			want: simulation.Extraction{
				Strategy:     simulation.StrategyAdapterLayer,
				Constraints:  []string{"time", "cost"},
				Confidence:   simulation.ConfidenceLow,
				Deliverables: []string{"rollback", "timeline"},
			},
		},
		{
			name: "earliest strategy wins",
			text: "A rewrite is tempting but a hybrid approach is safer.",
			want: simulation.Extraction{
				Strategy:    simulation.StrategyRewrite,
				Constraints: []string{},
				Confidence:  simulation.ConfidenceLow,
			},
		},
		{
			name: "symbol deliverables",
			text: "Cap spend at $4k and hold 99.9 during a 30 minutes window.",
			want: simulation.Extraction{
				Constraints:  []string{"cost"},
				Confidence:   simulation.ConfidenceLow,
				Deliverables: []string{"cost", "downtime_slo"},
			},
		},
		{
			name: "nothing recognised",
			text: "hello there",
			want: simulation.Extraction{
				Constraints: []string{},
				Confidence:  simulation.ConfidenceLow,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeywordExtractor{}.Extract(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := KeywordExtractor{}.Extract(ctx, "hybrid")
	assert.ErrorIs(t, err, context.Canceled)
}

type failingExtractor struct{ err error }

func (f failingExtractor) Extract(context.Context, string) (simulation.Extraction, error) {
	return simulation.Extraction{}, f.err
}

func TestFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("primary succeeds", func(t *testing.T) {
		e, _ := newExtractor(t, `{"strategy":"hybrid","constraints":[]}`)
		f := Fallback{Primary: e, Degraded: failingExtractor{errors.New("unused")}}
		got, err := f.Extract(ctx, "rewrite everything")
		require.NoError(t, err)
		assert.Equal(t, simulation.StrategyHybrid, got.Strategy)
	})

	t.Run("primary fails", func(t *testing.T) {
		f := Fallback{Primary: failingExtractor{ErrMalformed}, Degraded: KeywordExtractor{}}
		got, err := f.Extract(ctx, "rewrite everything")
		require.NoError(t, err)
		assert.Equal(t, simulation.StrategyRewrite, got.Strategy)
		assert.Equal(t, simulation.ConfidenceLow, got.Confidence)
	})

	t.Run("cancelled context is not degraded", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		f := Fallback{Primary: failingExtractor{context.Canceled}, Degraded: KeywordExtractor{}}
		_, err := f.Extract(cctx, "rewrite everything")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
