// Package domain holds the core types shared across modules. It has no
// infrastructure dependencies.
package domain

import (
	"regexp"
	"time"
)

// symbolPattern matches uppercase tickers, 1-5 alphanumeric characters.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)

// ValidSymbol reports whether s is a well-formed ticker symbol.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// FeatureSnapshot is a point-in-time capture of the technical and fundamental
// signals for one symbol. Snapshots are append-only; absent numeric fields
// are zero and contribute nothing to the composite score.
type FeatureSnapshot struct {
	Symbol               string    `json:"symbol"`
	AsOf                 time.Time `json:"as_of"`
	RelVolume            float64   `json:"rel_volume"`               // multiple of average volume
	ShortInterestPct     float64   `json:"short_interest_pct"`       // 0-100
	BorrowFee7dChangePct float64   `json:"borrow_fee_7d_change_pct"` // signed
	Momentum5d           float64   `json:"momentum_5d"`              // signed percent
	Catalyst             bool      `json:"catalyst"`
	FloatShares          *float64  `json:"float_shares,omitempty"`

	// LastPrice is carried through to the discovery record for display and
	// price validation. It does not contribute to the composite score.
	LastPrice float64 `json:"last_price"`
}

// Discovery is a scored, classified candidate symbol produced by one capture
// run. Uniqueness is on (Symbol, AsOf); re-runs for the same pair overwrite
// score, price, action and components.
type Discovery struct {
	Symbol     string             `json:"symbol"`
	AsOf       time.Time          `json:"as_of"`
	Price      float64            `json:"price"`
	Score      float64            `json:"score"`
	RelVolume  float64            `json:"rel_volume"`
	Action     Action             `json:"action"`
	Components map[string]float64 `json:"components,omitempty"`
	CreatedAt  time.Time          `json:"created_at,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at,omitempty"`
}

// InvalidationRule is a single thesis exit condition. Feature names one of
// the FeatureSnapshot fields: rel_volume, short_interest_pct,
// borrow_fee_7d_change_pct, momentum_5d, float_shares.
type InvalidationRule struct {
	Name    string  `json:"name"`
	Feature string  `json:"feature"`
	Op      string  `json:"op"` // < > <= >= == !=
	Value   float64 `json:"value"`
}

// Thesis is the stored rationale plus invalidation rules for a symbol. One
// row per symbol; prior versions are archived to a history log on overwrite.
type Thesis struct {
	Symbol     string             `json:"symbol"`
	Hypothesis string             `json:"hypothesis"`
	Rules      []InvalidationRule `json:"rules,omitempty"`
	Version    int                `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Position is a brokerage position. Risk score, recommended action and the
// narrative thesis are derived on every read and never persisted.
type Position struct {
	Symbol           string   `json:"symbol"`
	Quantity         float64  `json:"quantity"`
	AvgEntryPrice    float64  `json:"avg_entry_price"`
	CurrentPrice     float64  `json:"current_price"`
	MarketValue      float64  `json:"market_value"`
	UnrealizedPnL    float64  `json:"unrealized_pnl"`
	UnrealizedPnLPct float64  `json:"unrealized_pnl_pct"`
	DailyPnL         *float64 `json:"daily_pnl,omitempty"` // not all sources provide it

	// Derived annotations
	RiskScore         float64 `json:"risk_score"`
	RecommendedAction string  `json:"recommended_action,omitempty"`
	Thesis            string  `json:"thesis,omitempty"`
}

// AccountSummary is the account-level view from the brokerage collaborator.
// IsConnected is false when the collaborator was unreachable and the zeroed
// fallback is being served.
type AccountSummary struct {
	PortfolioValue float64 `json:"portfolio_value"`
	DailyPnL       float64 `json:"daily_pnl"`
	BuyingPower    float64 `json:"buying_power"`
	IsConnected    bool    `json:"is_connected"`
}
