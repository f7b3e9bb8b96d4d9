package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaudeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "result text",
			input: `{"type":"result","subtype":"success","result":"  hello  ","is_error":false}`,
			want:  "hello",
		},
		{
			name:    "error flag",
			input:   `{"type":"result","result":"rate limited","is_error":true}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "empty result",
			input:   `{"type":"result","result":"   "}`,
			wantErr: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClaudeEnvelope([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseClaudeEnvelope([]byte("not json"))
	assert.Error(t, err)
}

func TestClaudeCLI_Args(t *testing.T) {
	var gotArgs []string
	c := NewClaudeCLI("sonnet")
	c.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "claude", name)
		gotArgs = args
		return []byte(`{"result":"ok"}`), nil
	}

	out, err := c.Generate(context.Background(), Request{System: "be brief", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	joined := strings.Join(gotArgs, " ")
	assert.Contains(t, joined, "-p hi")
	assert.Contains(t, joined, "--output-format json")
	assert.Contains(t, joined, "--system-prompt be brief")
	assert.Contains(t, joined, "--model sonnet")
}

func TestClaudeCLI_RunFailure(t *testing.T) {
	c := NewClaudeCLI("")
	c.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exec: not found")
	}
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestScripted(t *testing.T) {
	s := NewScripted("one", "two")
	ctx := context.Background()

	for _, want := range []string{"one", "two", "two"} {
		got, err := s.Generate(ctx, Request{Prompt: want})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, s.Requests(), 3)

	s.FailWith(errors.New("down"))
	_, err := s.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrUnavailable)

	c, err := NewOpenAIClient(OpenAIConfig{BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.model)
}

func TestRateLimited(t *testing.T) {
	inner := NewScripted("x")
	assert.Same(t, Client(inner), NewRateLimited(inner, 0), "disabled limiter returns the inner client")

	limited := NewRateLimited(inner, 60)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := limited.Generate(ctx, Request{})
	require.NoError(t, err, "first call uses the burst token")

	_, err = limited.Generate(ctx, Request{})
	assert.Error(t, err, "second call cannot get a token before the deadline")
}
