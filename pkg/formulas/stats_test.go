package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-9)
}

func TestRelativeVolume(t *testing.T) {
	tests := []struct {
		name     string
		volumes  []float64
		expected float64
	}{
		{"no data", nil, 0},
		{"single sample", []float64{100}, 0},
		{"spike", []float64{100, 100, 100, 300}, 3.0},
		{"flat", []float64{100, 100, 100}, 1.0},
		{"zero history", []float64{0, 0, 500}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RelativeVolume(tt.volumes), 1e-9)
		})
	}
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(nil))
	assert.Equal(t, 0.0, PercentChange([]float64{0, 10}))
	assert.InDelta(t, 50.0, PercentChange([]float64{10, 12, 15}), 1e-9)
	assert.InDelta(t, -25.0, PercentChange([]float64{20, 18, 15}), 1e-9)
}

func TestMomentum(t *testing.T) {
	assert.Nil(t, Momentum([]float64{1, 2}, 5))

	closes := []float64{10, 10.5, 11, 11.5, 12, 12.5}
	m := Momentum(closes, 5)
	require.NotNil(t, m)
	assert.InDelta(t, 25.0, *m, 1e-9) // (12.5-10)/10 * 100
}

func TestCalculateRSI(t *testing.T) {
	assert.Nil(t, CalculateRSI([]float64{1, 2, 3}, 14))

	closes := make([]float64, 0, 30)
	price := 100.0
	for i := 0; i < 30; i++ {
		price += 1.0
		closes = append(closes, price)
	}

	rsi := CalculateRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100.0, *rsi, 1e-6, "monotonically rising series pins RSI at 100")
}
