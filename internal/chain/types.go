// Package chain produces normalized options-chain snapshots. It owns the
// snapshot data model, the synthetic fallback used during provider outages,
// and the acquirer that ties both together.
package chain

import (
	"time"

	"github.com/gnana990/Equity-updated/internal/units"
)

// OptionLeg is one strike/option-type row of a snapshot. Contract counts come
// straight from the provider; lot values are derived once at fetch time and
// never recomputed. Immutable after the snapshot is built.
type OptionLeg struct {
	Strike       float64 `json:"strike"`
	OI           int64   `json:"oi"`
	OIChange     int64   `json:"oi_chg"`
	OILots       float64 `json:"oi_lots"`
	OIChangeLots float64 `json:"oi_chg_lots"`
	Volume       int64   `json:"volume"`
	VolumeLots   float64 `json:"volume_lots"`
	LTP          float64 `json:"ltp"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
}

// OIDisplay formats the leg's open interest for the UI. The unit is chosen by
// the caller, never inferred.
func (l OptionLeg) OIDisplay(showLots bool) string {
	if showLots {
		return units.DisplayLots(l.OILots)
	}
	return units.DisplayContracts(l.OI)
}

// VolumeDisplay formats the leg's volume for the UI.
func (l OptionLeg) VolumeDisplay(showLots bool) string {
	if showLots {
		return units.DisplayLots(l.VolumeLots)
	}
	return units.DisplayContracts(l.Volume)
}

// OptionsSnapshot is one normalized capture of a symbol's option chain.
// Calls and puts are sorted ascending by strike. Produced once per fetch and
// never mutated.
type OptionsSnapshot struct {
	Symbol          string      `json:"symbol"`
	Expiry          string      `json:"expiry_date"`
	CapturedAt      time.Time   `json:"captured_at"`
	UnderlyingPrice float64     `json:"current_price"`
	LotSize         int         `json:"lot_size"`
	Calls           []OptionLeg `json:"calls"`
	Puts            []OptionLeg `json:"puts"`
	// Synthetic marks a fallback snapshot built without provider legs.
	Synthetic bool `json:"synthetic"`
}

// TotalCallOI sums call open interest in contracts.
func (s *OptionsSnapshot) TotalCallOI() int64 {
	var n int64
	for _, l := range s.Calls {
		n += l.OI
	}
	return n
}

// TotalPutOI sums put open interest in contracts.
func (s *OptionsSnapshot) TotalPutOI() int64 {
	var n int64
	for _, l := range s.Puts {
		n += l.OI
	}
	return n
}

// TotalCallVolume sums call volume in contracts.
func (s *OptionsSnapshot) TotalCallVolume() int64 {
	var n int64
	for _, l := range s.Calls {
		n += l.Volume
	}
	return n
}

// TotalPutVolume sums put volume in contracts.
func (s *OptionsSnapshot) TotalPutVolume() int64 {
	var n int64
	for _, l := range s.Puts {
		n += l.Volume
	}
	return n
}

// TotalOIChange sums open-interest change across both sides, in contracts.
func (s *OptionsSnapshot) TotalOIChange() int64 {
	var n int64
	for _, l := range s.Calls {
		n += l.OIChange
	}
	for _, l := range s.Puts {
		n += l.OIChange
	}
	return n
}
