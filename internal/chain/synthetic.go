package chain

import (
	"math"

	"github.com/gnana990/Equity-updated/internal/units"
)

// Synthetic chain shape: strikes at a fixed interval spanning stepsPerSide
// each way around the underlying, so the UI always has a full ladder to
// render during a provider outage.
const (
	strikeInterval = 50
	stepsPerSide   = 10
)

// buildSyntheticChain constructs a stand-in chain when the provider has no
// legs. Open interest grows moving away from the money in the direction that
// favors the option type (calls below the price, puts above); volume is 30%
// of OI. Prices (ltp/bid/ask) are zero, which is how callers and the UI tell
// a synthetic snapshot from a live one.
func buildSyntheticChain(underlying float64, lotSize int) ([]OptionLeg, []OptionLeg) {
	base := math.Round(underlying/strikeInterval) * strikeInterval
	calls := make([]OptionLeg, 0, 2*stepsPerSide+1)
	puts := make([]OptionLeg, 0, 2*stepsPerSide+1)
	for i := -stepsPerSide; i <= stepsPerSide; i++ {
		strike := base + float64(i*strikeInterval)

		callOI := syntheticOI(underlying - strike)
		calls = append(calls, syntheticLeg(strike, callOI, syntheticOIChange(callOI, strike < underlying, strike == base), lotSize))

		putOI := syntheticOI(strike - underlying)
		puts = append(puts, syntheticLeg(strike, putOI, syntheticOIChange(putOI, strike > underlying, strike == base), lotSize))
	}
	return calls, puts
}

// syntheticOI maps moneyness (positive = in the money) to a contract count.
func syntheticOI(moneyness float64) int64 {
	oi := int64((moneyness + 1000) * 1000)
	if oi < 0 {
		return 0
	}
	return oi
}

// syntheticOIChange is a tenth of OI, signed toward the in-the-money side,
// zero at the money.
func syntheticOIChange(oi int64, inTheMoney, atTheMoney bool) int64 {
	if atTheMoney {
		return 0
	}
	chg := oi / 10
	if !inTheMoney {
		return -chg
	}
	return chg
}

func syntheticLeg(strike float64, oi, oiChg int64, lotSize int) OptionLeg {
	volume := int64(float64(oi) * 0.3)
	return OptionLeg{
		Strike:       strike,
		OI:           oi,
		OIChange:     oiChg,
		OILots:       units.ToLots(float64(oi), lotSize),
		OIChangeLots: units.ToLots(float64(oiChg), lotSize),
		Volume:       volume,
		VolumeLots:   units.ToLots(float64(volume), lotSize),
	}
}
