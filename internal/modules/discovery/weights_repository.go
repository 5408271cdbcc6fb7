package discovery

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// WeightsRepository handles the scoring weights key-value store. Stored
// weights take precedence over the built-in defaults, which allows tuning the
// scorer at runtime without redeploying.
type WeightsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewWeightsRepository creates a new scoring weights repository
func NewWeightsRepository(db *sql.DB, log zerolog.Logger) *WeightsRepository {
	return &WeightsRepository{
		db:  db,
		log: log.With().Str("repo", "scoring_weights").Logger(),
	}
}

// GetAll retrieves all stored weights as a map. An empty map means no weights
// have been persisted and callers should fall back to defaults.
func (r *WeightsRepository) GetAll() (map[string]float64, error) {
	rows, err := r.db.Query("SELECT key, value FROM scoring_weights")
	if err != nil {
		return nil, fmt.Errorf("failed to query scoring weights: %w", err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan weight row")
			continue
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scoring weights: %w", err)
	}

	return result, nil
}

// Set persists a single weight.
func (r *WeightsRepository) Set(key string, value float64) error {
	_, err := r.db.Exec(`
		INSERT INTO scoring_weights (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set weight %s: %w", key, err)
	}
	return nil
}
