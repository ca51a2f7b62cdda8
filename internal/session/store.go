package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"carsage/internal/dialogue"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	state_json   TEXT NOT NULL,
	flow         TEXT NOT NULL,
	stage        TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	speaker      TEXT NOT NULL,
	text         TEXT NOT NULL,
	payload_json TEXT,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region records

// SessionRow is one persisted session header. The dialogue state itself
// lives in state_json; flow and stage are denormalized for inspection.
type SessionRow struct {
	SessionID string
	StateJSON string
	Flow      string
	Stage     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TurnRow is one persisted transcript entry.
type TurnRow struct {
	ID          int64
	SessionID   string
	Speaker     string
	Text        string
	PayloadJSON string
	CreatedAt   time.Time
}

// #endregion records

// #region store

// Store persists sessions and their transcripts in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region save

// SaveTurn persists the updated session state together with the turns
// it produced, atomically. New sessions are inserted on first save.
func (s *Store) SaveTurn(sessionID, stateJSON, flow, stage string, turns []dialogue.Turn) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, state_json, flow, stage, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   state_json = excluded.state_json,
		   flow       = excluded.flow,
		   stage      = excluded.stage,
		   updated_at = excluded.updated_at`,
		sessionID, stateJSON, flow, stage, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	for _, t := range turns {
		_, err = tx.Exec(
			`INSERT INTO turns (session_id, speaker, text, payload_json, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			sessionID, string(t.Speaker), t.Text, t.PayloadJSON, now,
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ClearTurns removes a session's transcript log, used on reset. The
// session row itself stays; the caller saves the fresh state next.
func (s *Store) ClearTurns(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	return nil
}

// #endregion save

// #region load

// GetSession reads one session header by id. Returns sql.ErrNoRows
// wrapped if the session does not exist.
func (s *Store) GetSession(sessionID string) (SessionRow, error) {
	var row SessionRow
	var createdStr, updatedStr string
	err := s.db.QueryRow(
		`SELECT session_id, state_json, flow, stage, created_at, updated_at
		 FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&row.SessionID, &row.StateJSON, &row.Flow, &row.Stage, &createdStr, &updatedStr)
	if err != nil {
		return SessionRow{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return row, nil
}

// ListSessions returns the most recently updated sessions.
func (s *Store) ListSessions(limit int) ([]SessionRow, error) {
	rows, err := s.db.Query(
		`SELECT session_id, state_json, flow, stage, created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var row SessionRow
		var createdStr, updatedStr string
		if err := rows.Scan(&row.SessionID, &row.StateJSON, &row.Flow, &row.Stage, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListTurns returns a session's transcript in insertion order.
func (s *Store) ListTurns(sessionID string) ([]TurnRow, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, speaker, text, COALESCE(payload_json, ''), created_at
		 FROM turns WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRow
	for rows.Next() {
		var row TurnRow
		var createdStr string
		if err := rows.Scan(&row.ID, &row.SessionID, &row.Speaker, &row.Text, &row.PayloadJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion load
