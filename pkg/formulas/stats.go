package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// RelativeVolume returns the most recent volume as a multiple of the average
// of the preceding volumes. Returns 0 when there is no history to compare to.
func RelativeVolume(volumes []float64) float64 {
	if len(volumes) < 2 {
		return 0
	}
	avg := Mean(volumes[:len(volumes)-1])
	if avg <= 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}

// PercentChange returns the percent change from first to last price.
func PercentChange(prices []float64) float64 {
	if len(prices) < 2 || prices[0] == 0 {
		return 0
	}
	return (prices[len(prices)-1] - prices[0]) / prices[0] * 100
}
