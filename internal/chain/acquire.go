package chain

import (
	"context"
	"sort"
	"time"

	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/provider"
	"github.com/gnana990/Equity-updated/internal/units"
)

// defaultUnderlyingPrice stands in when even the price fetch fails, so the
// synthetic ladder still centers somewhere plausible for the index UI.
const defaultUnderlyingPrice = 24700.0

// Acquirer obtains normalized snapshots, delegating raw fetches to the
// provider and degrading to a synthetic chain when it is unavailable.
// Provider failures never propagate to callers as anything but a nil
// snapshot; each is logged and absorbed here.
type Acquirer struct {
	provider     provider.Provider
	fetchTimeout time.Duration
	clock        func() time.Time
}

// AcquirerOption customizes an Acquirer.
type AcquirerOption func(*Acquirer)

// WithFetchTimeout bounds each provider call.
func WithFetchTimeout(d time.Duration) AcquirerOption {
	return func(a *Acquirer) { a.fetchTimeout = d }
}

// WithClock injects a time source for tests.
func WithClock(clock func() time.Time) AcquirerOption {
	return func(a *Acquirer) { a.clock = clock }
}

// NewAcquirer creates an Acquirer over the given provider.
func NewAcquirer(p provider.Provider, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		provider:     p,
		fetchTimeout: 5 * time.Second,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire fetches a snapshot for symbol. An empty expiry resolves to the
// first available series. The returned error is non-nil only when the caller
// context is done; provider unavailability degrades to a synthetic snapshot
// instead.
func (a *Acquirer) Acquire(ctx context.Context, symbol, expiry string) (*OptionsSnapshot, error) {
	price, err := a.currentPrice(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		observ.Warn("price_fetch_failed", map[string]any{"symbol": symbol, "error": err.Error()})
		price = defaultUnderlyingPrice
	}

	if expiry == "" {
		expiry = a.resolveExpiry(ctx, symbol)
	}
	lotSize := a.lotSize(ctx, symbol)

	snap := &OptionsSnapshot{
		Symbol:          symbol,
		Expiry:          expiry,
		CapturedAt:      a.clock(),
		UnderlyingPrice: price,
		LotSize:         lotSize,
	}

	raw, err := a.legs(ctx, symbol, expiry)
	if err != nil || raw == nil || (len(raw.Calls) == 0 && len(raw.Puts) == 0) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		kv := map[string]any{"symbol": symbol, "expiry": expiry}
		if err != nil {
			kv["error"] = err.Error()
		}
		observ.Warn("provider_fallback", kv)
		observ.IncCounter("snapshot_fallback_total", map[string]string{"symbol": symbol})
		snap.Calls, snap.Puts = buildSyntheticChain(price, lotSize)
		snap.Synthetic = true
		return snap, nil
	}

	snap.Calls = normalizeLegs(raw.Calls, lotSize)
	snap.Puts = normalizeLegs(raw.Puts, lotSize)
	observ.IncCounter("snapshot_live_total", map[string]string{"symbol": symbol})
	return snap, nil
}

func (a *Acquirer) currentPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()
	return a.provider.CurrentPrice(ctx, symbol)
}

// resolveExpiry picks the first provider expiry, falling back to generated
// monthly codes when the provider has none.
func (a *Acquirer) resolveExpiry(ctx context.Context, symbol string) string {
	tctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()
	expiries, err := a.provider.Expiries(tctx, symbol)
	if err != nil || len(expiries) == 0 {
		if err != nil {
			observ.Warn("expiry_fetch_failed", map[string]any{"symbol": symbol, "error": err.Error()})
		}
		expiries = FallbackExpiries(a.clock().In(market.Location), 3)
	}
	return expiries[0]
}

func (a *Acquirer) lotSize(ctx context.Context, symbol string) int {
	tctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()
	n, err := a.provider.LotSize(tctx, symbol)
	if err != nil || n <= 0 {
		return market.FallbackLotSize(symbol)
	}
	return n
}

func (a *Acquirer) legs(ctx context.Context, symbol, expiry string) (*provider.RawChain, error) {
	tctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()
	return a.provider.Legs(tctx, symbol, expiry)
}

func normalizeLegs(raw []provider.RawLeg, lotSize int) []OptionLeg {
	legs := make([]OptionLeg, 0, len(raw))
	for _, r := range raw {
		legs = append(legs, OptionLeg{
			Strike:       r.Strike,
			OI:           r.OI,
			OIChange:     r.OIChange,
			OILots:       units.ToLots(float64(r.OI), lotSize),
			OIChangeLots: units.ToLots(float64(r.OIChange), lotSize),
			Volume:       r.Volume,
			VolumeLots:   units.ToLots(float64(r.Volume), lotSize),
			LTP:          r.LTP,
			Bid:          r.Bid,
			Ask:          r.Ask,
		})
	}
	sort.Slice(legs, func(i, j int) bool { return legs[i].Strike < legs[j].Strike })
	return legs
}
