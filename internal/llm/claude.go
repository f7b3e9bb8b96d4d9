// claude.go runs completions through the claude CLI in print mode.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// claudeOutputJSON is the envelope Claude returns with --output-format json.
type claudeOutputJSON struct {
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	Result     string  `json:"result"`
	IsError    bool    `json:"is_error"`
	CostUSD    float64 `json:"cost_usd"`
	DurationMs int64   `json:"duration_ms"`
}

// ClaudeCLI spawns `claude -p` per call. No tools are allowed: the
// simulation only needs text back.
type ClaudeCLI struct {
	Binary string
	Model  string

	// run is swapped in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewClaudeCLI returns a client that shells out to the claude binary.
func NewClaudeCLI(model string) *ClaudeCLI {
	return &ClaudeCLI{Binary: "claude", Model: model, run: runCommand}
}

// Generate implements Client.
func (c *ClaudeCLI) Generate(ctx context.Context, req Request) (string, error) {
	args := []string{"-p", req.Prompt, "--output-format", "json"}
	if req.System != "" {
		args = append(args, "--system-prompt", req.System)
	}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}

	run := c.run
	if run == nil {
		run = runCommand
	}
	out, err := run(ctx, c.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return parseClaudeEnvelope(out)
}

func parseClaudeEnvelope(out []byte) (string, error) {
	var envelope claudeOutputJSON
	if err := json.Unmarshal(out, &envelope); err != nil {
		return "", fmt.Errorf("parsing claude output: %w", err)
	}
	if envelope.IsError {
		return "", fmt.Errorf("%w: claude returned error: %s", ErrUnavailable, envelope.Result)
	}

	result := strings.TrimSpace(envelope.Result)
	if result == "" {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}
	return result, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("claude exited %d: %s", exitErr.ExitCode(), string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("running claude: %w", err)
	}
	return out, nil
}
