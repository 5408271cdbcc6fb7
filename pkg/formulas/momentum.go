package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateRSI calculates the Relative Strength Index over the given period.
//
// RSI Formula:
//   RSI = 100 - (100 / (1 + RS))
//   where RS = Average Gain / Average Loss over N periods
//
// Returns nil if there is not enough data.
func CalculateRSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}

	return nil
}

// Momentum returns the rate-of-change over the given period as a percent.
// Returns nil if there is not enough data.
func Momentum(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	roc := talib.Roc(closes, length)
	if len(roc) > 0 && !isNaN(roc[len(roc)-1]) {
		result := roc[len(roc)-1]
		return &result
	}

	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
