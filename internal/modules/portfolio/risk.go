// Package portfolio aggregates brokerage positions and annotates them with
// derived risk scores, recommended actions and narrative text. Annotations
// are recomputed on every read and never persisted.
package portfolio

// Risk score construction: a flat base plus additive penalties for drawdown
// depth and concentration, capped at 1.0.
const (
	riskBase = 0.3

	lossTierDeepPct  = -20.0
	lossTierMidPct   = -15.0
	lossTierLightPct = -10.0
	lossTierDeepAdd  = 0.4
	lossTierMidAdd   = 0.3
	lossTierLightAdd = 0.2
	concentrationPct = 0.20 // share of portfolio value
	concentrationAdd = 0.2
)

// Recommended-action cutoffs.
const (
	actionSellRisk    = 0.8
	actionReduceRisk  = 0.6
	takeProfitGainPct = 30.0
	trailStopGainPct  = 15.0
)

const (
	ActionSell       = "SELL"
	ActionReduce     = "REDUCE"
	ActionTakeProfit = "TAKE_PROFIT"
	ActionTrailStop  = "TRAIL_STOP"
	ActionHold       = "HOLD"
)

// RiskScore computes the position risk in [0.3, 1.0]. Only the deepest
// matching loss tier applies. portfolioValue <= 0 disables the
// concentration penalty since the weight cannot be computed.
func RiskScore(unrealizedPnLPct, marketValue, portfolioValue float64) float64 {
	risk := riskBase

	switch {
	case unrealizedPnLPct < lossTierDeepPct:
		risk += lossTierDeepAdd
	case unrealizedPnLPct < lossTierMidPct:
		risk += lossTierMidAdd
	case unrealizedPnLPct < lossTierLightPct:
		risk += lossTierLightAdd
	}

	if portfolioValue > 0 && marketValue/portfolioValue > concentrationPct {
		risk += concentrationAdd
	}

	if risk > 1.0 {
		risk = 1.0
	}
	return risk
}

// RecommendedAction maps risk and gain into one of the fixed actions. Risk
// cutoffs are checked first so a losing oversized position never reads as a
// profit opportunity.
func RecommendedAction(riskScore, unrealizedPnLPct float64) string {
	switch {
	case riskScore >= actionSellRisk:
		return ActionSell
	case riskScore >= actionReduceRisk:
		return ActionReduce
	case unrealizedPnLPct > takeProfitGainPct:
		return ActionTakeProfit
	case unrealizedPnLPct > trailStopGainPct:
		return ActionTrailStop
	}
	return ActionHold
}
