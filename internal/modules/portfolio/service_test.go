package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/clients/brokerage"
	"github.com/scoutdash/scout/pkg/logger"
)

func TestService_GetSnapshotAnnotatesPositions(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	svc := NewService(brokerage.NewFixtureClient(), log)

	snapshot, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	assert.True(t, snapshot.Summary.IsConnected)
	require.Len(t, snapshot.Positions, 2)

	bySymbol := map[string]int{}
	for i, p := range snapshot.Positions {
		bySymbol[p.Symbol] = i
	}

	// ABC: +29.8%, small weight. No loss tiers, no concentration.
	abc := snapshot.Positions[bySymbol["ABC"]]
	assert.InDelta(t, 0.3, abc.RiskScore, 1e-9)
	assert.Equal(t, ActionTrailStop, abc.RecommendedAction)
	assert.Contains(t, abc.Thesis, "ABC: ")
	assert.Contains(t, abc.Thesis, "trailing stop")

	// QRS: -18.9% (mid loss tier) at $5025 of a $25000 book (20.1%).
	qrs := snapshot.Positions[bySymbol["QRS"]]
	assert.InDelta(t, 0.8, qrs.RiskScore, 1e-9)
	assert.Equal(t, ActionSell, qrs.RecommendedAction)
	assert.Contains(t, qrs.Thesis, "down 18.9%")
}
