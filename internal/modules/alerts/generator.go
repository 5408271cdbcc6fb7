// Package alerts derives human-readable notifications from portfolio state,
// discoveries and the market session clock. Alerts are computed on demand and
// never persisted.
package alerts

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/domain"
)

// Alert type tags.
const (
	TypePortfolio     = "PORTFOLIO"
	TypePosition      = "POSITION"
	TypeDiscovery     = "DISCOVERY"
	TypeMarketSession = "MARKET_SESSION"
)

// Market session windows, local exchange time.
const (
	preOpenStartHour = 8
	openHour         = 9
	openMinute       = 30
	closeHour        = 16
)

// Generator assembles alerts from the individual sources and applies the
// severity ordering and cap.
type Generator struct {
	cfg config.AlertConfig
	loc *time.Location
	now func() time.Time
	log zerolog.Logger
}

// NewGenerator creates an alert generator. loc is the exchange timezone used
// for market-session notices; nil falls back to UTC.
func NewGenerator(cfg config.AlertConfig, loc *time.Location, log zerolog.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		cfg: cfg,
		loc: loc,
		now: time.Now,
		log: log.With().Str("component", "alerts").Logger(),
	}
}

// Generate merges all alert sources, sorts by severity descending then
// timestamp descending, and truncates to the configured maximum.
func (g *Generator) Generate(summary domain.AccountSummary, positions []domain.Position, discoveries []domain.Discovery) []domain.Alert {
	now := g.now().UTC()

	var out []domain.Alert
	out = append(out, g.portfolioAlerts(summary, now)...)
	out = append(out, g.positionAlerts(positions, now)...)
	out = append(out, g.discoveryAlerts(discoveries, now)...)
	out = append(out, g.sessionAlerts(now)...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > g.cfg.MaxAlerts {
		out = out[:g.cfg.MaxAlerts]
	}
	if out == nil {
		out = []domain.Alert{}
	}
	return out
}

// portfolioAlerts fires a single summary alert when the daily move is large
// in absolute or relative terms. Disconnected summaries stay silent, a zeroed
// fallback is not a market event.
func (g *Generator) portfolioAlerts(summary domain.AccountSummary, now time.Time) []domain.Alert {
	if !summary.IsConnected {
		return nil
	}

	absMove := math.Abs(summary.DailyPnL)
	overAbs := absMove > g.cfg.DailyPnLAbs
	overPct := summary.PortfolioValue > 0 && absMove > g.cfg.DailyPnLPct*summary.PortfolioValue
	if !overAbs && !overPct {
		return nil
	}

	severity := domain.SeverityMedium
	direction := "up"
	if summary.DailyPnL < 0 {
		severity = domain.SeverityHigh
		direction = "down"
	}

	return []domain.Alert{{
		ID:        uuid.New().String(),
		Type:      TypePortfolio,
		Severity:  severity,
		Title:     "Large daily move",
		Message:   fmt.Sprintf("Portfolio %s $%.2f today", direction, absMove),
		Timestamp: now,
	}}
}

func (g *Generator) positionAlerts(positions []domain.Position, now time.Time) []domain.Alert {
	var out []domain.Alert
	for _, p := range positions {
		switch {
		case p.UnrealizedPnLPct > g.cfg.LargeGainPct:
			out = append(out, domain.Alert{
				ID:        uuid.New().String(),
				Type:      TypePosition,
				Severity:  domain.SeverityMedium,
				Title:     fmt.Sprintf("%s up %.1f%%", p.Symbol, p.UnrealizedPnLPct),
				Message:   fmt.Sprintf("%s gained %.1f%% since entry, consider taking profit", p.Symbol, p.UnrealizedPnLPct),
				Timestamp: now,
				Symbol:    p.Symbol,
				Action:    p.RecommendedAction,
			})
		case p.UnrealizedPnLPct < g.cfg.LargeLossPct:
			out = append(out, domain.Alert{
				ID:        uuid.New().String(),
				Type:      TypePosition,
				Severity:  domain.SeverityHigh,
				Title:     fmt.Sprintf("%s down %.1f%%", p.Symbol, -p.UnrealizedPnLPct),
				Message:   fmt.Sprintf("%s lost %.1f%% since entry, review the position", p.Symbol, -p.UnrealizedPnLPct),
				Timestamp: now,
				Symbol:    p.Symbol,
				Action:    p.RecommendedAction,
			})
		case p.MarketValue > g.cfg.LargePositionValue && p.UnrealizedPnL < 0:
			out = append(out, domain.Alert{
				ID:        uuid.New().String(),
				Type:      TypePosition,
				Severity:  domain.SeverityMedium,
				Title:     fmt.Sprintf("%s large position losing", p.Symbol),
				Message:   fmt.Sprintf("%s is $%.0f of exposure and currently underwater", p.Symbol, p.MarketValue),
				Timestamp: now,
				Symbol:    p.Symbol,
				Action:    p.RecommendedAction,
			})
		}
	}
	return out
}

func (g *Generator) discoveryAlerts(discoveries []domain.Discovery, now time.Time) []domain.Alert {
	var out []domain.Alert
	for _, d := range discoveries {
		if d.Score < g.cfg.DiscoveryMinScore {
			continue
		}
		out = append(out, domain.Alert{
			ID:        uuid.New().String(),
			Type:      TypeDiscovery,
			Severity:  domain.SeverityHigh,
			Title:     fmt.Sprintf("%s scored %.1f", d.Symbol, d.Score),
			Message:   fmt.Sprintf("%s flagged %s at $%.2f with %.1fx volume", d.Symbol, d.Action, d.Price, d.RelVolume),
			Timestamp: now,
			Symbol:    d.Symbol,
			Action:    string(d.Action),
		})
	}
	return out
}

// sessionAlerts emits low-severity notices around the exchange session
// boundaries: the pre-open hour, the first half hour of trading, and the
// final half hour before the close.
func (g *Generator) sessionAlerts(now time.Time) []domain.Alert {
	local := now.In(g.loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return nil
	}

	minutes := local.Hour()*60 + local.Minute()
	openMinutes := openHour*60 + openMinute
	closeMinutes := closeHour * 60

	var title, message string
	switch {
	case minutes >= preOpenStartHour*60 && minutes < openMinutes:
		title = "Pre-market"
		message = "Market opens at 9:30, discoveries refresh on the next scan"
	case minutes >= openMinutes && minutes < openMinutes+30:
		title = "Market open"
		message = "First half hour of trading, volume signals are noisy"
	case minutes >= closeMinutes-30 && minutes < closeMinutes:
		title = "Approaching close"
		message = "Market closes at 16:00, review open positions"
	default:
		return nil
	}

	return []domain.Alert{{
		ID:        uuid.New().String(),
		Type:      TypeMarketSession,
		Severity:  domain.SeverityLow,
		Title:     title,
		Message:   message,
		Timestamp: now,
	}}
}
