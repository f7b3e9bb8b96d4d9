// Package testutil provides test helper utilities for cutover tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berth-dev/cutover/internal/simulation"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ScriptedProject returns a project whose config plays offline: scripted
// model, keyword extraction and a short policy.
func ScriptedProject() map[string]string {
	return map[string]string{
		".cutover/config.yaml": `version: 1
simulation:
  max_rounds: 3
  min_personas: 1
  min_constraints: 2
  require_strategy: true
  seed: 7
llm:
  provider: scripted
archive:
  enabled: true
  path: .cutover/history.db
`,
	}
}

// InvalidConfigProject returns a project whose config fails validation.
func InvalidConfigProject() map[string]string {
	return map[string]string{
		".cutover/config.yaml": "simulation:\n  max_rounds: 0\n",
	}
}

// EmptyProject returns an empty directory with no files.
func EmptyProject() map[string]string {
	return map[string]string{}
}

// FinishedSession returns the snapshot and report of an ended session on
// the user_data_service scenario.
func FinishedSession(id string, start time.Time) (simulation.Snapshot, *simulation.Report) {
	snap := simulation.Snapshot{
		ID:        id,
		UserID:    "dana",
		Round:     4,
		MaxRounds: 4,
		Phase:     simulation.PhaseEnded,
		Strategy:  simulation.StrategyAdapterLayer,
		RiskScore: 30,
		Scenario: simulation.Scenario{
			Module:          "user_data_service",
			Services:        []string{"DynamoDB", "IAM"},
			BusinessContext: "Regulation mandates moving sensitive data to a different cloud provider.",
			Constraints:     []simulation.Constraint{simulation.ConstraintSecurity, simulation.ConstraintTime},
		},
		StartedAt: start,
		Transcript: []simulation.Message{
			{Role: simulation.RoleAgent, Content: "Welcome", Round: 0, Timestamp: start},
			{Role: simulation.RoleUser, Content: "Adapter layer", Round: 1, Timestamp: start.Add(time.Minute)},
			{Role: simulation.RoleAgent, Persona: simulation.PersonaDevOps, Content: "[Alex (DevOps Engineer)]: runbook?", Round: 1, Timestamp: start.Add(2 * time.Minute)},
		},
	}
	report := &simulation.Report{
		SessionID:       id,
		Score:           6,
		Strategy:        string(simulation.StrategyAdapterLayer),
		Strengths:       []string{"Chose migration-friendly strategy: adapter_layer"},
		Gaps:            []string{"Did not address security considerations"},
		Recommendations: []string{"Map IAM roles before cutover"},
		RiskScore:       30,
		Breakdown: []simulation.ScoreLine{
			{Label: "Strategy", Points: 3, Max: 3, Note: "adapter_layer"},
		},
	}
	return snap, report
}
