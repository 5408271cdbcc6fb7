package portfolio

import (
	"fmt"
	"sort"
	"strings"
)

// narrativeInput is everything the narrative rules may inspect.
type narrativeInput struct {
	Symbol           string
	UnrealizedPnLPct float64
	Weight           float64 // fraction of portfolio value, 0 when unknown
	RiskScore        float64
	Action           string
}

// narrativeRule contributes one labeled fragment when its condition holds.
// Lower priority renders first.
type narrativeRule struct {
	label    string
	priority int
	applies  func(narrativeInput) bool
	render   func(narrativeInput) string
}

// narrativeRules is evaluated in full; every matching rule contributes its
// fragment. Keeping the decisions in a table makes them testable without
// pinning exact phrasing.
var narrativeRules = []narrativeRule{
	{
		label:    "deep_drawdown",
		priority: 10,
		applies:  func(in narrativeInput) bool { return in.UnrealizedPnLPct < lossTierMidPct },
		render: func(in narrativeInput) string {
			return fmt.Sprintf("down %.1f%% from entry, thesis under pressure", -in.UnrealizedPnLPct)
		},
	},
	{
		label:    "light_drawdown",
		priority: 11,
		applies: func(in narrativeInput) bool {
			return in.UnrealizedPnLPct < lossTierLightPct && in.UnrealizedPnLPct >= lossTierMidPct
		},
		render: func(in narrativeInput) string {
			return fmt.Sprintf("down %.1f%%, within normal drawdown range", -in.UnrealizedPnLPct)
		},
	},
	{
		label:    "big_winner",
		priority: 20,
		applies:  func(in narrativeInput) bool { return in.UnrealizedPnLPct > takeProfitGainPct },
		render: func(in narrativeInput) string {
			return fmt.Sprintf("up %.1f%%, consider locking in gains", in.UnrealizedPnLPct)
		},
	},
	{
		label:    "winner",
		priority: 21,
		applies: func(in narrativeInput) bool {
			return in.UnrealizedPnLPct > trailStopGainPct && in.UnrealizedPnLPct <= takeProfitGainPct
		},
		render: func(in narrativeInput) string {
			return fmt.Sprintf("up %.1f%%, trailing stop would protect the gain", in.UnrealizedPnLPct)
		},
	},
	{
		label:    "concentration",
		priority: 30,
		applies:  func(in narrativeInput) bool { return in.Weight > concentrationPct },
		render: func(in narrativeInput) string {
			return fmt.Sprintf("%.0f%% of portfolio, oversized for a single name", in.Weight*100)
		},
	},
	{
		label:    "elevated_risk",
		priority: 40,
		applies:  func(in narrativeInput) bool { return in.RiskScore >= actionReduceRisk },
		render: func(in narrativeInput) string {
			return fmt.Sprintf("risk score %.1f, %s recommended", in.RiskScore, strings.ToLower(in.Action))
		},
	},
	{
		label:    "stable",
		priority: 90,
		applies: func(in narrativeInput) bool {
			return in.UnrealizedPnLPct >= lossTierLightPct && in.UnrealizedPnLPct <= trailStopGainPct &&
				in.RiskScore < actionReduceRisk
		},
		render: func(in narrativeInput) string {
			return fmt.Sprintf("stable at %+.1f%%", in.UnrealizedPnLPct)
		},
	},
}

// Narrative assembles the matching fragments in priority order into one
// sentence-like string.
func Narrative(in narrativeInput) string {
	type hit struct {
		priority int
		text     string
	}

	var hits []hit
	for _, rule := range narrativeRules {
		if rule.applies(in) {
			hits = append(hits, hit{rule.priority, rule.render(in)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].priority < hits[j].priority })

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.text)
	}
	if len(parts) == 0 {
		return ""
	}
	return in.Symbol + ": " + strings.Join(parts, "; ")
}
