package brokerage

import (
	"context"

	"github.com/scoutdash/scout/internal/domain"
)

// FixtureClient is a deterministic BrokerClient used in dev mode and tests.
// It serves a small static book so the portfolio and alert paths can be
// exercised without a live brokerage account.
type FixtureClient struct {
	Positions []domain.Position
	Summary   domain.AccountSummary
}

// NewFixtureClient creates a fixture client with a representative book.
func NewFixtureClient() *FixtureClient {
	daily := 420.0
	return &FixtureClient{
		Positions: []domain.Position{
			{
				Symbol:           "ABC",
				Quantity:         200,
				AvgEntryPrice:    4.10,
				CurrentPrice:     5.32,
				MarketValue:      1064,
				UnrealizedPnL:    244,
				UnrealizedPnLPct: 29.8,
				DailyPnL:         &daily,
			},
			{
				Symbol:           "QRS",
				Quantity:         500,
				AvgEntryPrice:    12.40,
				CurrentPrice:     10.05,
				MarketValue:      5025,
				UnrealizedPnL:    -1175,
				UnrealizedPnLPct: -18.9,
			},
		},
		Summary: domain.AccountSummary{
			PortfolioValue: 25000,
			DailyPnL:       -730,
			BuyingPower:    8400,
			IsConnected:    true,
		},
	}
}

// GetPositions returns the fixture book.
func (c *FixtureClient) GetPositions(_ context.Context) ([]domain.Position, error) {
	out := make([]domain.Position, len(c.Positions))
	copy(out, c.Positions)
	return out, nil
}

// GetAccountSummary returns the fixture summary.
func (c *FixtureClient) GetAccountSummary(_ context.Context) (domain.AccountSummary, error) {
	return c.Summary, nil
}
