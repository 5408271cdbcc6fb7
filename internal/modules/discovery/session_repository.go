package discovery

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Session statuses.
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// ScanSession is the audit record for one capture run.
type ScanSession struct {
	ID              string     `json:"id"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	SymbolsScanned  int        `json:"symbols_scanned"`
	DiscoveriesKept int        `json:"discoveries_kept"`
	Error           string     `json:"error,omitempty"`
}

// SessionRepository handles the scan session audit log.
type SessionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSessionRepository creates a new scan session repository
func NewSessionRepository(db *sql.DB, log zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log.With().Str("repo", "scan_sessions").Logger(),
	}
}

// Start records a new running session.
func (r *SessionRepository) Start(id string, at time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO scan_sessions (id, started_at, status)
		VALUES (?, ?, ?)
	`, id, at.Unix(), SessionRunning)
	if err != nil {
		return fmt.Errorf("failed to start scan session: %w", err)
	}
	return nil
}

// Complete marks a session as completed with its counters.
func (r *SessionRepository) Complete(id string, scanned, kept int) error {
	_, err := r.db.Exec(`
		UPDATE scan_sessions
		SET completed_at = ?, status = ?, symbols_scanned = ?, discoveries_kept = ?
		WHERE id = ?
	`, time.Now().Unix(), SessionCompleted, scanned, kept, id)
	if err != nil {
		return fmt.Errorf("failed to complete scan session: %w", err)
	}
	return nil
}

// Fail marks a session as failed with the error message.
func (r *SessionRepository) Fail(id string, reason string) error {
	_, err := r.db.Exec(`
		UPDATE scan_sessions
		SET completed_at = ?, status = ?, error = ?
		WHERE id = ?
	`, time.Now().Unix(), SessionFailed, reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark scan session failed: %w", err)
	}
	return nil
}

// Latest returns the most recent session, or nil when none have run.
func (r *SessionRepository) Latest() (*ScanSession, error) {
	row := r.db.QueryRow(`
		SELECT id, started_at, completed_at, status, symbols_scanned, discoveries_kept, error
		FROM scan_sessions
		ORDER BY started_at DESC
		LIMIT 1
	`)

	var (
		s           ScanSession
		startedAt   int64
		completedAt sql.NullInt64
		errMsg      sql.NullString
	)
	err := row.Scan(&s.ID, &startedAt, &completedAt, &s.Status, &s.SymbolsScanned, &s.DiscoveriesKept, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest scan session: %w", err)
	}

	s.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		s.CompletedAt = &t
	}
	if errMsg.Valid {
		s.Error = errMsg.String
	}

	return &s, nil
}
