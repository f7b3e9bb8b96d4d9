// Package archive provides SQLite-backed storage for finished simulation
// sessions: their evaluation and full transcript. Sessions are archived
// once they end and are never resumed from here.
package archive

import (
	"errors"
	"time"

	"github.com/berth-dev/cutover/internal/simulation"
)

// ErrNotFound is returned when no archived session has the given id.
var ErrNotFound = errors.New("archive: session not found")

// ErrNotEnded is returned when asked to archive a session that is still
// running.
var ErrNotEnded = errors.New("archive: session has not ended")

// Summary provides a high-level view of an archived session for listing.
type Summary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Module    string    `json:"module"`
	Strategy  string    `json:"strategy,omitempty"`
	Score     int       `json:"score"`
	RiskScore int       `json:"risk_score"`
	Rounds    int       `json:"rounds"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Record is an archived session with its report and transcript.
type Record struct {
	Summary
	Scenario   simulation.Scenario  `json:"scenario"`
	Report     *simulation.Report   `json:"report"`
	Transcript []simulation.Message `json:"transcript"`
}
