package domain

import "time"

// Action is the recommended trading action for a discovery. Exactly one of
// the fixed set; the classifier never emits anything else.
type Action string

const (
	ActionBuy       Action = "BUY"
	ActionMonitor   Action = "MONITOR"
	ActionWatchlist Action = "WATCHLIST"
	ActionIgnore    Action = "IGNORE"

	// ActionExit is emitted only when a thesis invalidation rule fires; it
	// overrides any score-based classification.
	ActionExit Action = "EXIT"
)

// ValidAction reports whether a is one of the known actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionBuy, ActionMonitor, ActionWatchlist, ActionIgnore, ActionExit:
		return true
	}
	return false
}

// Severity ranks alerts for sorting and display.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Rank returns a sortable weight for the severity, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Alert is a human-readable notification derived from portfolio state or
// discoveries.
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol,omitempty"`
	Action    string    `json:"action,omitempty"`
}
