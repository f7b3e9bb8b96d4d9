// Package log provides structured event logging.
// This file appends JSON events to log.jsonl.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/berth-dev/cutover/internal/simulation"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time         time.Time `json:"time"`
	Event        string    `json:"event"`
	SessionID    string    `json:"session,omitempty"`
	Round        int       `json:"round,omitempty"`
	Phase        string    `json:"phase,omitempty"`
	Persona      string    `json:"persona,omitempty"`
	Collaborator string    `json:"collaborator,omitempty"`
	Score        int       `json:"score,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
}

// Logger writes append-only JSONL events to a log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to .cutover/log.jsonl inside dir.
// Creates the .cutover/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(dir string) (*Logger, error) {
	stateDir := filepath.Join(dir, ".cutover")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create .cutover directory: %w", err)
	}

	return &Logger{
		path: filepath.Join(stateDir, "log.jsonl"),
	}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// The file is opened in append mode, written to, and then closed.
// Thread-safe via mutex.
func (l *Logger) Append(event LogEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}

// ReadSession returns the events of one session in file order.
func (l *Logger) ReadSession(sessionID string) ([]LogEvent, error) {
	all, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []LogEvent
	for _, e := range all {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Observer adapts a Logger to simulation.Observer. Collaborator timings
// are left to metrics; every other event is appended. Write failures are
// reported through slog and never reach the controller.
type Observer struct {
	Logger *Logger
	Slog   *slog.Logger
	Clock  func() time.Time
}

// Observe implements simulation.Observer.
func (o Observer) Observe(e simulation.Event) {
	if e.Kind == simulation.EventCollaboratorCall {
		return
	}

	ev := LogEvent{
		Event:      string(e.Kind),
		SessionID:  e.SessionID,
		Round:      e.Round,
		Phase:      string(e.Phase),
		Persona:    string(e.Persona),
		Score:      e.Score,
		DurationMs: e.Duration.Milliseconds(),
	}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	if o.Clock != nil {
		ev.Time = o.Clock().UTC()
	}

	if err := o.Logger.Append(ev); err != nil {
		logger := o.Slog
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("event log write failed", "event", ev.Event, "error", err)
	}
}
