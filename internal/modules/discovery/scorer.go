// Package discovery implements the scoring, classification, deduplication and
// persistence pipeline for candidate symbols.
package discovery

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

// Component keys in the score breakdown and the weights store.
const (
	ComponentShortInterest = "short_interest"
	ComponentVolume        = "volume"
	ComponentBorrowFee     = "borrow_fee"
	ComponentMomentum      = "momentum"
	ComponentCatalyst      = "catalyst"
	ComponentFloat         = "float"
)

// Normalization caps. Each sub-metric is scaled into [0,1] before weighting;
// values at or above the cap contribute the full weight.
const (
	normShortInterestPct = 30.0 // short interest at 30% saturates
	normRelVolume        = 5.0  // 5x average volume saturates
	normBorrowFeePct     = 10.0 // +10% borrow fee trend saturates
	normMomentumPct      = 25.0 // +25% five-day move saturates
)

// Float-size thresholds: small floats squeeze harder.
const (
	floatSmallShares  = 10_000_000.0
	floatMediumShares = 50_000_000.0
)

// scoreScale maps the weighted sum (0-1 with default weights) onto the
// canonical 0-10 scale the classifier bands are defined on. The output is not
// clamped: oversized stored weights can push a score past 10 and callers must
// not assume an upper bound.
const scoreScale = 10.0

// DefaultWeights returns the built-in component weights, used when the
// weights store is empty or missing individual keys.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		ComponentShortInterest: 0.25,
		ComponentVolume:        0.25,
		ComponentBorrowFee:     0.15,
		ComponentMomentum:      0.15,
		ComponentCatalyst:      0.10,
		ComponentFloat:         0.10,
	}
}

// Scorer computes the composite discovery score from a feature snapshot.
// Weights are re-read from the store on every CurrentWeights call so stored
// updates take effect on the next capture run without a restart.
type Scorer struct {
	weightsRepo *WeightsRepository
	log         zerolog.Logger
}

// NewScorer creates a scorer. weightsRepo may be nil, in which case the
// built-in defaults are always used.
func NewScorer(weightsRepo *WeightsRepository, log zerolog.Logger) *Scorer {
	return &Scorer{
		weightsRepo: weightsRepo,
		log:         log.With().Str("component", "scorer").Logger(),
	}
}

// CurrentWeights merges stored weights over the defaults. Store failures fall
// back to defaults rather than aborting a run.
func (s *Scorer) CurrentWeights() map[string]float64 {
	weights := DefaultWeights()

	if s.weightsRepo == nil {
		return weights
	}

	stored, err := s.weightsRepo.GetAll()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load stored weights, using defaults")
		return weights
	}
	for key, value := range stored {
		if _, known := weights[key]; known {
			weights[key] = value
		}
	}

	return weights
}

// Score computes the composite score with the current weights.
func (s *Scorer) Score(snap domain.FeatureSnapshot) (float64, map[string]float64) {
	return ScoreWithWeights(snap, s.CurrentWeights())
}

// ScoreWithWeights is the pure scoring function: a weighted sum of normalized
// sub-metrics scaled onto 0-10. It never fails; an empty snapshot scores 0.
func ScoreWithWeights(snap domain.FeatureSnapshot, weights map[string]float64) (float64, map[string]float64) {
	components := map[string]float64{
		ComponentShortInterest: clamp01(snap.ShortInterestPct / normShortInterestPct),
		ComponentVolume:        clamp01(snap.RelVolume / normRelVolume),
		ComponentBorrowFee:     clamp01(math.Max(0, snap.BorrowFee7dChangePct) / normBorrowFeePct),
		ComponentMomentum:      clamp01(math.Max(0, snap.Momentum5d) / normMomentumPct),
		ComponentCatalyst:      0,
		ComponentFloat:         floatScore(snap.FloatShares),
	}
	if snap.Catalyst {
		components[ComponentCatalyst] = 1
	}

	total := 0.0
	for key, sub := range components {
		total += sub * weights[key]
	}
	score := total * scoreScale
	if score < 0 || math.IsNaN(score) {
		score = 0
	}

	return score, components
}

// floatScore rewards small floats. An absent float contributes zero.
func floatScore(floatShares *float64) float64 {
	if floatShares == nil || *floatShares <= 0 {
		return 0
	}
	switch {
	case *floatShares <= floatSmallShares:
		return 1.0
	case *floatShares <= floatMediumShares:
		return 0.5
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
