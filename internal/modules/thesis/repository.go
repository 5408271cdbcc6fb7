// Package thesis stores per-symbol investment theses and their invalidation
// rules. One live row per symbol; every update archives the prior version.
package thesis

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

// Repository handles thesis database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new thesis repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "thesis").Logger(),
	}
}

// Get returns the live thesis for a symbol, or nil when none exists.
func (r *Repository) Get(symbol string) (*domain.Thesis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	row := r.db.QueryRow(`
		SELECT symbol, hypothesis, rules, version, created_at, updated_at
		FROM theses WHERE symbol = ?
	`, symbol)

	var (
		t         domain.Thesis
		rules     string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&t.Symbol, &t.Hypothesis, &rules, &t.Version, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thesis: %w", err)
	}

	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
		r.log.Warn().Err(err).Str("symbol", symbol).Msg("Malformed rules JSON, ignoring")
		t.Rules = nil
	}

	return &t, nil
}

// Upsert creates or replaces the thesis for a symbol. The prior version, if
// any, is copied to the history log inside the same transaction before the
// overwrite, so no version is ever lost.
func (r *Repository) Upsert(symbol, hypothesis string, rules []domain.InvalidationRule) (*domain.Thesis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !domain.ValidSymbol(symbol) {
		return nil, fmt.Errorf("invalid symbol %q", symbol)
	}
	if strings.TrimSpace(hypothesis) == "" {
		return nil, fmt.Errorf("hypothesis is required")
	}

	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rules: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	version := 1

	// Archive the current row before overwriting it.
	row := tx.QueryRow("SELECT hypothesis, rules, version FROM theses WHERE symbol = ?", symbol)
	var prevHypothesis, prevRules string
	var prevVersion int
	err = row.Scan(&prevHypothesis, &prevRules, &prevVersion)
	switch {
	case err == sql.ErrNoRows:
		// First version, nothing to archive.
	case err != nil:
		return nil, fmt.Errorf("failed to read current thesis: %w", err)
	default:
		if _, err := tx.Exec(`
			INSERT INTO thesis_history (symbol, hypothesis, rules, version, archived_at)
			VALUES (?, ?, ?, ?, ?)
		`, symbol, prevHypothesis, prevRules, prevVersion, now); err != nil {
			return nil, fmt.Errorf("failed to archive thesis: %w", err)
		}
		version = prevVersion + 1
	}

	if _, err := tx.Exec(`
		INSERT INTO theses (symbol, hypothesis, rules, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			hypothesis = excluded.hypothesis,
			rules = excluded.rules,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, symbol, hypothesis, string(rulesJSON), version, now, now); err != nil {
		return nil, fmt.Errorf("failed to upsert thesis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Str("symbol", symbol).Int("version", version).Msg("Thesis upserted")

	return r.Get(symbol)
}

// History returns archived versions for a symbol, newest first.
func (r *Repository) History(symbol string) ([]domain.Thesis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	rows, err := r.db.Query(`
		SELECT symbol, hypothesis, rules, version, archived_at
		FROM thesis_history
		WHERE symbol = ?
		ORDER BY version DESC
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query thesis history: %w", err)
	}
	defer rows.Close()

	var result []domain.Thesis
	for rows.Next() {
		var (
			t          domain.Thesis
			rules      string
			archivedAt int64
		)
		if err := rows.Scan(&t.Symbol, &t.Hypothesis, &rules, &t.Version, &archivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thesis history: %w", err)
		}
		t.UpdatedAt = time.Unix(archivedAt, 0).UTC()
		if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
			t.Rules = nil
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thesis history: %w", err)
	}

	return result, nil
}
