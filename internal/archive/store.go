package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/berth-dev/cutover/internal/simulation"
)

// Store provides SQLite-backed persistence for finished sessions.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		module TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		risk_score INTEGER NOT NULL,
		rounds INTEGER NOT NULL,
		scenario TEXT NOT NULL,
		report TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		persona TEXT NOT NULL DEFAULT '',
		round INTEGER NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`
	_, err := db.Exec(schema)
	return err
}

// Save archives an ended session together with its report. Saving the same
// session twice replaces the earlier copy.
func (s *Store) Save(ctx context.Context, snap simulation.Snapshot, report *simulation.Report) error {
	if snap.Phase != simulation.PhaseEnded || report == nil {
		return fmt.Errorf("%w: %s is %s", ErrNotEnded, snap.ID, snap.Phase)
	}

	scenario, err := json.Marshal(snap.Scenario)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	rep, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, snap.ID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions
		 (id, user_id, module, strategy, score, risk_score, rounds, scenario, report, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.UserID, snap.Scenario.Module, string(snap.Strategy), report.Score, snap.RiskScore,
		snap.Round, string(scenario), string(rep), snap.StartedAt.UTC(), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (session_id, seq, role, persona, round, content, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range snap.Transcript {
		if _, err := stmt.ExecContext(ctx, snap.ID, i, string(m.Role), string(m.Persona), m.Round, m.Content, m.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get retrieves an archived session by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, module, strategy, score, risk_score, rounds, scenario, report, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	var (
		rec              Record
		scenario, report string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Module, &rec.Strategy, &rec.Score, &rec.RiskScore,
		&rec.Rounds, &scenario, &report, &rec.StartedAt, &rec.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(scenario), &rec.Scenario); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	rec.Report = &simulation.Report{}
	if err := json.Unmarshal([]byte(report), rec.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	rec.Transcript, err = s.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns summaries of the most recently ended sessions. A limit of
// zero or less returns every session.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, module, strategy, score, risk_score, rounds, started_at, ended_at
		 FROM sessions
		 ORDER BY ended_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Module, &sum.Strategy, &sum.Score, &sum.RiskScore,
			&sum.Rounds, &sum.StartedAt, &sum.EndedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// Delete removes an archived session and its transcript.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

// Messages retrieves the transcript of an archived session in order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]simulation.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, persona, round, content, timestamp
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []simulation.Message
	for rows.Next() {
		var (
			msg           simulation.Message
			role, persona string
		)
		if err := rows.Scan(&role, &persona, &msg.Round, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = simulation.Role(role)
		msg.Persona = simulation.PersonaID(persona)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return messages, nil
}
