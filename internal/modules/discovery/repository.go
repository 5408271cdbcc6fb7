package discovery

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

// Upsert rejection reasons. Rejections are reported, not thrown, so batch
// callers can continue with the remaining entries.
const (
	ReasonMissingSymbol = "missing_symbol"
	ReasonInvalidSymbol = "invalid_symbol"
	ReasonInvalidPrice  = "invalid_price"
	ReasonPriceAboveCap = "price_above_cap"
	ReasonInvalidScore  = "invalid_score"
	ReasonInvalidAction = "invalid_action"
)

// UpsertResult is the typed outcome of a single upsert attempt.
type UpsertResult struct {
	OK     bool   `json:"success"`
	Reason string `json:"reason,omitempty"`
}

// discoveryColumns is the column list for the discoveries table. Order must
// match scanDiscovery.
const discoveryColumns = `symbol, as_of, price, score, rel_volume, action, components, created_at, updated_at`

// Repository handles discovery persistence. Conflict key is (symbol, as_of):
// a re-run with the same pair overwrites price/score/action/components and
// bumps updated_at, leaving created_at untouched.
type Repository struct {
	db           *sql.DB
	priceCap     float64
	recencyHours int
	log          zerolog.Logger
}

// NewRepository creates a new discovery repository
func NewRepository(db *sql.DB, priceCap float64, recencyHours int, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		priceCap:     priceCap,
		recencyHours: recencyHours,
		log:          log.With().Str("repo", "discovery").Logger(),
	}
}

// Upsert validates and writes one discovery. The returned error is non-nil
// only for database failures; validation problems come back as a rejection.
func (r *Repository) Upsert(d domain.Discovery) (UpsertResult, error) {
	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))

	if d.Symbol == "" {
		return UpsertResult{OK: false, Reason: ReasonMissingSymbol}, nil
	}
	if !domain.ValidSymbol(d.Symbol) {
		return UpsertResult{OK: false, Reason: ReasonInvalidSymbol}, nil
	}
	if d.Price <= 0 {
		return UpsertResult{OK: false, Reason: ReasonInvalidPrice}, nil
	}
	if r.priceCap > 0 && d.Price > r.priceCap {
		return UpsertResult{OK: false, Reason: ReasonPriceAboveCap}, nil
	}
	if d.Score < 0 {
		return UpsertResult{OK: false, Reason: ReasonInvalidScore}, nil
	}
	if !domain.ValidAction(d.Action) {
		return UpsertResult{OK: false, Reason: ReasonInvalidAction}, nil
	}

	components, err := json.Marshal(d.Components)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to marshal components: %w", err)
	}

	now := time.Now().Unix()
	_, err = r.db.Exec(`
		INSERT INTO discoveries
		(symbol, as_of, price, score, rel_volume, action, components, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, as_of) DO UPDATE SET
			price = excluded.price,
			score = excluded.score,
			rel_volume = excluded.rel_volume,
			action = excluded.action,
			components = excluded.components,
			updated_at = excluded.updated_at
	`,
		d.Symbol,
		d.AsOf.Unix(),
		d.Price,
		d.Score,
		d.RelVolume,
		string(d.Action),
		string(components),
		now,
		now,
	)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to upsert discovery %s: %w", d.Symbol, err)
	}

	return UpsertResult{OK: true}, nil
}

// QueryRecent returns discoveries within the rolling recency window, ordered
// by score descending then recency descending.
func (r *Repository) QueryRecent(limit int, minScore float64) ([]domain.Discovery, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT `+discoveryColumns+` FROM discoveries
		WHERE as_of >= ? AND score >= ?
		ORDER BY score DESC, as_of DESC
		LIMIT ?
	`, r.windowStart(), minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent discoveries: %w", err)
	}
	defer rows.Close()

	return scanDiscoveries(rows)
}

// QueryByAction returns recent discoveries carrying the given action, same
// ordering as QueryRecent.
func (r *Repository) QueryByAction(action domain.Action) ([]domain.Discovery, error) {
	rows, err := r.db.Query(`
		SELECT `+discoveryColumns+` FROM discoveries
		WHERE as_of >= ? AND action = ?
		ORDER BY score DESC, as_of DESC
	`, r.windowStart(), string(action))
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries by action: %w", err)
	}
	defer rows.Close()

	return scanDiscoveries(rows)
}

// PurgeOlderThan removes discoveries older than the cutoff. Administrative
// use only; normal operation never deletes rows.
func (r *Repository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM discoveries WHERE as_of < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge discoveries: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Info().Int64("purged", n).Msg("Purged old discoveries")
	}
	return n, nil
}

func (r *Repository) windowStart() int64 {
	hours := r.recencyHours
	if hours <= 0 {
		hours = 24
	}
	return time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
}

func scanDiscoveries(rows *sql.Rows) ([]domain.Discovery, error) {
	var result []domain.Discovery
	for rows.Next() {
		var (
			d          domain.Discovery
			asOf       int64
			action     string
			components string
			createdAt  int64
			updatedAt  int64
		)
		if err := rows.Scan(&d.Symbol, &asOf, &d.Price, &d.Score, &d.RelVolume,
			&action, &components, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovery: %w", err)
		}

		d.AsOf = time.Unix(asOf, 0).UTC()
		d.Action = domain.Action(action)
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		d.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		if components != "" {
			if err := json.Unmarshal([]byte(components), &d.Components); err != nil {
				d.Components = nil
			}
		}

		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discoveries: %w", err)
	}

	return result, nil
}

// GetBySymbolAsOf fetches one row by its conflict key. Returns nil when the
// pair has never been written.
func (r *Repository) GetBySymbolAsOf(symbol string, asOf time.Time) (*domain.Discovery, error) {
	rows, err := r.db.Query(`
		SELECT `+discoveryColumns+` FROM discoveries
		WHERE symbol = ? AND as_of = ?
	`, strings.ToUpper(strings.TrimSpace(symbol)), asOf.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query discovery: %w", err)
	}
	defer rows.Close()

	list, err := scanDiscoveries(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}
