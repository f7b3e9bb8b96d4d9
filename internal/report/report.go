// Package report exports a finished simulation as a markdown debrief:
// evaluation, score breakdown, timing from the event log and the full
// transcript.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/berth-dev/cutover/internal/archive"
	"github.com/berth-dev/cutover/internal/log"
	"github.com/berth-dev/cutover/internal/simulation"
)

// Report holds an archived session and what the event log adds to it.
type Report struct {
	Record             *archive.Record
	Duration           time.Duration
	ExtractionFailures int
	PersonaFailures    int
}

// Generate combines an archived session with its logged events. Missing
// or partial events leave the timing fields at zero.
func Generate(rec *archive.Record, events []log.LogEvent) *Report {
	r := &Report{Record: rec}
	r.Duration = computeDuration(events)
	for _, e := range events {
		switch simulation.EventKind(e.Event) {
		case simulation.EventExtractionFailed:
			r.ExtractionFailures++
		case simulation.EventPersonaFailed:
			r.PersonaFailures++
		}
	}
	return r
}

// FormatReport produces the markdown debrief.
func FormatReport(r *Report) string {
	rec := r.Record
	var b strings.Builder

	fmt.Fprintf(&b, "# Migration debrief: %s\n\n", rec.Module)
	fmt.Fprintf(&b, "- Session: `%s`\n", rec.ID)
	if rec.UserID != "" {
		fmt.Fprintf(&b, "- Player: %s\n", rec.UserID)
	}
	fmt.Fprintf(&b, "- Services: %s\n", strings.Join(rec.Scenario.Services, ", "))
	fmt.Fprintf(&b, "- Rounds: %d\n", rec.Rounds)
	if r.Duration > 0 {
		fmt.Fprintf(&b, "- Duration: %s\n", formatDuration(r.Duration))
	}
	if n := r.ExtractionFailures + r.PersonaFailures; n > 0 {
		fmt.Fprintf(&b, "- Retried turns: %d (%d extraction, %d persona)\n", n, r.ExtractionFailures, r.PersonaFailures)
	}
	b.WriteString("\n")

	if rec.Scenario.BusinessContext != "" {
		b.WriteString("## Context\n\n")
		b.WriteString(rec.Scenario.BusinessContext)
		b.WriteString("\n\n")
	}

	if rep := rec.Report; rep != nil {
		b.WriteString("## Evaluation\n\n")
		fmt.Fprintf(&b, "**Score:** %d/%d  \n", rep.Score, simulation.MaxScore)
		fmt.Fprintf(&b, "**Strategy:** %s  \n", rep.Strategy)
		fmt.Fprintf(&b, "**Risk score:** %d/100\n", rep.RiskScore)

		writeList(&b, "Strengths", rep.Strengths)
		writeList(&b, "Gaps", rep.Gaps)
		writeList(&b, "Recommendations", rep.Recommendations)

		b.WriteString("\n### Score breakdown\n\n```")
		b.WriteString(simulation.ExplainScore(rep))
		b.WriteString("```\n")
	}

	if len(rec.Transcript) > 0 {
		b.WriteString("\n## Transcript\n")
		for _, m := range rec.Transcript {
			who := "Facilitator"
			switch {
			case m.Role == simulation.RoleUser:
				who = "You"
			case m.Persona != "":
				who = string(m.Persona)
			}
			fmt.Fprintf(&b, "\n**%s** (round %d)\n\n%s\n", who, m.Round, m.Content)
		}
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

// WriteReport writes the formatted report to {dir}/{session id}.md and
// returns the path. Creates dir if it does not exist.
func WriteReport(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, r.Record.ID+".md")
	if err := os.WriteFile(path, []byte(FormatReport(r)), 0644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}

	return path, nil
}

// computeDuration calculates the session duration from log events.
// It looks for the first session_started event and uses either the
// session_ended event or the last event's timestamp as the end point.
func computeDuration(events []log.LogEvent) time.Duration {
	var start, end time.Time

	for _, e := range events {
		kind := simulation.EventKind(e.Event)
		if kind == simulation.EventSessionStarted && start.IsZero() {
			start = e.Time
		}
		if !e.Time.IsZero() {
			end = e.Time
		}
		if kind == simulation.EventSessionEnded {
			end = e.Time
			break
		}
	}

	if start.IsZero() || end.IsZero() {
		return 0
	}

	d := end.Sub(start)
	if d < 0 {
		return 0
	}

	return d
}

// formatDuration produces a human-readable duration string such as "5m 32s"
// or "1h 12m 5s". Sub-second durations are shown as "< 1s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
