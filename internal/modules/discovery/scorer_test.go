package discovery

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/database"
	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/pkg/logger"
)

func testLog() zerolog.Logger {
	return logger.New(logger.Config{Level: "error", Pretty: false})
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreWithWeights_EmptySnapshot(t *testing.T) {
	score, components := ScoreWithWeights(domain.FeatureSnapshot{}, DefaultWeights())

	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, components[ComponentVolume])
	assert.Equal(t, 0.0, components[ComponentCatalyst])
}

func TestScoreWithWeights_SaturatedSqueezeSetup(t *testing.T) {
	snap := domain.FeatureSnapshot{
		Symbol:               "ABC",
		RelVolume:            3.0,
		ShortInterestPct:     30,
		BorrowFee7dChangePct: 10,
		Momentum5d:           50,
		Catalyst:             true,
	}

	score, components := ScoreWithWeights(snap, DefaultWeights())

	// 0.25*1.0 + 0.25*0.6 + 0.15*1.0 + 0.15*1.0 + 0.10*1.0 + 0.10*0 = 0.80
	assert.InDelta(t, 8.0, score, 1e-9)
	assert.Equal(t, 1.0, components[ComponentShortInterest])
	assert.InDelta(t, 0.6, components[ComponentVolume], 1e-9)
	assert.Equal(t, 1.0, components[ComponentMomentum])
	assert.Equal(t, 1.0, components[ComponentCatalyst])
}

func TestScoreWithWeights_FloatTiers(t *testing.T) {
	tests := []struct {
		name     string
		shares   *float64
		expected float64
	}{
		{"absent", nil, 0},
		{"small float", floatPtr(8_000_000), 1.0},
		{"medium float", floatPtr(30_000_000), 0.5},
		{"large float", floatPtr(200_000_000), 0},
		{"nonsense negative", floatPtr(-5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, components := ScoreWithWeights(domain.FeatureSnapshot{FloatShares: tt.shares}, DefaultWeights())
			assert.Equal(t, tt.expected, components[ComponentFloat])
		})
	}
}

func TestScoreWithWeights_NegativeInputsClamped(t *testing.T) {
	snap := domain.FeatureSnapshot{
		RelVolume:            -3,
		ShortInterestPct:     -10,
		BorrowFee7dChangePct: -50,
		Momentum5d:           -80,
	}

	score, _ := ScoreWithWeights(snap, DefaultWeights())
	assert.Equal(t, 0.0, score)
}

func TestScorer_CurrentWeights_MergesStoredOverDefaults(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	log := testLog()
	weightsRepo := NewWeightsRepository(db.Conn(), log)
	require.NoError(t, weightsRepo.Set(ComponentVolume, 0.5))
	require.NoError(t, weightsRepo.Set("unknown_component", 0.9))

	scorer := NewScorer(weightsRepo, log)
	weights := scorer.CurrentWeights()

	assert.Equal(t, 0.5, weights[ComponentVolume])
	assert.Equal(t, 0.25, weights[ComponentShortInterest])
	_, leaked := weights["unknown_component"]
	assert.False(t, leaked, "unknown keys must not enter the weight set")
}

func TestScorer_NilWeightsRepoUsesDefaults(t *testing.T) {
	scorer := NewScorer(nil, testLog())
	assert.Equal(t, DefaultWeights(), scorer.CurrentWeights())
}
