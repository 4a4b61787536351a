// Package units converts raw exchange contract counts into display lots.
//
// Exchanges report open interest and volume in contracts; traders think in
// lots, where one lot is a per-symbol multiple of contracts. Every value shown
// to a user goes through this package exactly once.
package units

import (
	"fmt"
	"math"
)

// ToLots converts a contract count to lots, rounded to 2 decimals.
// A lot size of zero or less yields 0 rather than an error: callers always
// have a fallback lot size, so a bad one means display as zero, not fail.
func ToLots(contracts float64, lotSize int) float64 {
	if lotSize <= 0 {
		return 0
	}
	return math.Round(contracts/float64(lotSize)*100) / 100
}

// DisplayLots formats a lot value for the UI.
func DisplayLots(v float64) string {
	return fmt.Sprintf("%.2f lots", v)
}

// DisplayContracts formats a raw contract count for the UI.
func DisplayContracts(v int64) string {
	return fmt.Sprintf("%d contracts", v)
}
