package discovery

import (
	"fmt"

	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/domain"
)

// Decision is the classifier output: the action plus a human-readable reason.
type Decision struct {
	Action        domain.Action `json:"action"`
	Reason        string        `json:"reason"`
	InvalidatedBy string        `json:"invalidated_by,omitempty"`
}

// Classifier maps a composite score to a trading action. Band cutoffs are
// configuration, not literals, so they can be tuned without redeploying.
type Classifier struct {
	bands config.ClassifierConfig
}

// NewClassifier creates a classifier with the given band cutoffs.
func NewClassifier(bands config.ClassifierConfig) *Classifier {
	return &Classifier{bands: bands}
}

// Classify decides the action for a score. If a thesis with invalidation
// rules is supplied, the rules are evaluated first against the feature
// snapshot: the first rule whose condition holds forces EXIT regardless of
// score, and remaining rules are not evaluated.
//
// Score bands are evaluated highest-first; a score exactly on a boundary
// belongs to the higher band, so Classify(2.0) is MONITOR and Classify(7.0)
// stays MONITOR because the BUY band starts strictly above its cutoff.
func (c *Classifier) Classify(score float64, thesis *domain.Thesis, snap *domain.FeatureSnapshot) Decision {
	if thesis != nil && snap != nil {
		for _, rule := range thesis.Rules {
			value, ok := featureValue(snap, rule.Feature)
			if !ok {
				continue
			}
			if compare(value, rule.Op, rule.Value) {
				return Decision{
					Action:        domain.ActionExit,
					InvalidatedBy: rule.Name,
					Reason: fmt.Sprintf("thesis invalidated: %s (%s %s %g, observed %g)",
						rule.Name, rule.Feature, rule.Op, rule.Value, value),
				}
			}
		}
	}

	switch {
	case score > c.bands.Buy:
		return Decision{Action: domain.ActionBuy, Reason: fmt.Sprintf("score %.2f above buy threshold %.2f", score, c.bands.Buy)}
	case score >= c.bands.Monitor:
		return Decision{Action: domain.ActionMonitor, Reason: fmt.Sprintf("score %.2f in monitor band", score)}
	case score >= c.bands.Watchlist:
		return Decision{Action: domain.ActionWatchlist, Reason: fmt.Sprintf("score %.2f in watchlist band", score)}
	}
	return Decision{Action: domain.ActionIgnore, Reason: fmt.Sprintf("score %.2f below watchlist threshold %.2f", score, c.bands.Watchlist)}
}

// featureValue resolves an invalidation rule's feature name against the
// snapshot. Returns false when the field is unknown or absent, in which case
// the rule cannot fire.
func featureValue(snap *domain.FeatureSnapshot, feature string) (float64, bool) {
	switch feature {
	case "rel_volume":
		return snap.RelVolume, true
	case "short_interest_pct":
		return snap.ShortInterestPct, true
	case "borrow_fee_7d_change_pct":
		return snap.BorrowFee7dChangePct, true
	case "momentum_5d":
		return snap.Momentum5d, true
	case "float_shares":
		if snap.FloatShares == nil {
			return 0, false
		}
		return *snap.FloatShares, true
	}
	return 0, false
}

func compare(value float64, op string, threshold float64) bool {
	switch op {
	case "<":
		return value < threshold
	case ">":
		return value > threshold
	case "<=":
		return value <= threshold
	case ">=":
		return value >= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	}
	return false
}
