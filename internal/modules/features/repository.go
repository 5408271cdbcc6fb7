// Package features persists per-symbol feature snapshots. Snapshots are
// append-only; the latest one per symbol feeds the scorer.
package features

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

// Repository handles feature snapshot database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new feature snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "features").Logger(),
	}
}

// Insert appends a snapshot. The symbol is normalized to uppercase.
func (r *Repository) Insert(snap domain.FeatureSnapshot) error {
	symbol := strings.ToUpper(strings.TrimSpace(snap.Symbol))
	if !domain.ValidSymbol(symbol) {
		return fmt.Errorf("invalid symbol %q", snap.Symbol)
	}

	var floatShares interface{}
	if snap.FloatShares != nil {
		floatShares = *snap.FloatShares
	}

	catalyst := 0
	if snap.Catalyst {
		catalyst = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO feature_snapshots
		(symbol, as_of, rel_volume, short_interest_pct, borrow_fee_7d_change_pct,
		 momentum_5d, catalyst, float_shares, last_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		symbol,
		snap.AsOf.Unix(),
		snap.RelVolume,
		snap.ShortInterestPct,
		snap.BorrowFee7dChangePct,
		snap.Momentum5d,
		catalyst,
		floatShares,
		snap.LastPrice,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feature snapshot: %w", err)
	}

	return nil
}

// GetLatest returns the most recent snapshot for the symbol, or nil when the
// symbol has never been captured.
func (r *Repository) GetLatest(symbol string) (*domain.FeatureSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	row := r.db.QueryRow(`
		SELECT symbol, as_of, rel_volume, short_interest_pct,
		       borrow_fee_7d_change_pct, momentum_5d, catalyst, float_shares, last_price
		FROM feature_snapshots
		WHERE symbol = ?
		ORDER BY as_of DESC
		LIMIT 1
	`, symbol)

	var (
		snap        domain.FeatureSnapshot
		asOf        int64
		catalyst    int
		floatShares sql.NullFloat64
	)
	err := row.Scan(&snap.Symbol, &asOf, &snap.RelVolume, &snap.ShortInterestPct,
		&snap.BorrowFee7dChangePct, &snap.Momentum5d, &catalyst, &floatShares, &snap.LastPrice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	snap.AsOf = time.Unix(asOf, 0).UTC()
	snap.Catalyst = catalyst != 0
	if floatShares.Valid {
		snap.FloatShares = &floatShares.Float64
	}

	return &snap, nil
}

// CountForSymbol returns the number of stored snapshots for a symbol.
func (r *Repository) CountForSymbol(symbol string) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM feature_snapshots WHERE symbol = ?",
		strings.ToUpper(strings.TrimSpace(symbol)),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}
