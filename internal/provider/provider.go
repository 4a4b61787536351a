// Package provider defines the market-data collaborator consumed by the
// snapshot acquirer. Implementations fetch underlying prices, lot sizes,
// expiry lists and raw option legs; everything downstream of this interface
// works in normalized units and never sees provider specifics.
package provider

import (
	"context"
	"fmt"
)

// RawLeg is one strike/option-type row as reported by the exchange.
// All counts are in contracts.
type RawLeg struct {
	Strike   float64 `json:"strike"`
	OI       int64   `json:"oi"`
	OIChange int64   `json:"oi_chg"`
	Volume   int64   `json:"volume"`
	LTP      float64 `json:"ltp"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
}

// RawChain is the unnormalized legs payload for one symbol/expiry.
type RawChain struct {
	Calls []RawLeg `json:"calls"`
	Puts  []RawLeg `json:"puts"`
}

// Provider is the market-data collaborator contract. Every method may fail
// independently; callers treat failures as non-fatal and fall back.
type Provider interface {
	// CurrentPrice returns the last traded price of the underlying.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	// LotSize returns the exchange lot size for symbol. Implementations may
	// return 0 with an error; callers substitute the fallback table.
	LotSize(ctx context.Context, symbol string) (int, error)
	// Expiries returns available expiry date codes, nearest first. An empty
	// slice is a valid response.
	Expiries(ctx context.Context, symbol string) ([]string, error)
	// Legs returns the raw option chain for symbol/expiry.
	Legs(ctx context.Context, symbol, expiry string) (*RawChain, error)
}

// Error wraps provider failures with enough context to log usefully.
type Error struct {
	Op     string // "price", "lot_size", "expiries", "legs"
	Symbol string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %s %s: %v", e.Op, e.Symbol, e.Cause)
	}
	return fmt.Sprintf("provider %s %s failed", e.Op, e.Symbol)
}

func (e *Error) Unwrap() error { return e.Cause }
