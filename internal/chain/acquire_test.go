package chain

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana990/Equity-updated/internal/provider"
)

type stubProvider struct {
	price      float64
	priceErr   error
	lotSize    int
	lotSizeErr error
	expiries   []string
	expiryErr  error
	chain      *provider.RawChain
	chainErr   error
}

func (s *stubProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return s.price, s.priceErr
}

func (s *stubProvider) LotSize(ctx context.Context, symbol string) (int, error) {
	return s.lotSize, s.lotSizeErr
}

func (s *stubProvider) Expiries(ctx context.Context, symbol string) ([]string, error) {
	return s.expiries, s.expiryErr
}

func (s *stubProvider) Legs(ctx context.Context, symbol, expiry string) (*provider.RawChain, error) {
	return s.chain, s.chainErr
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAcquire_LiveChain(t *testing.T) {
	p := &stubProvider{
		price:    24712.5,
		lotSize:  50,
		expiries: []string{"28AUG25", "25SEP25"},
		chain: &provider.RawChain{
			Calls: []provider.RawLeg{
				{Strike: 24750, OI: 25000, OIChange: -6000, Volume: 7500, LTP: 101.5, Bid: 101, Ask: 102},
				{Strike: 24700, OI: 50000, OIChange: 2500, Volume: 12000, LTP: 130.2, Bid: 130, Ask: 131},
			},
			Puts: []provider.RawLeg{
				{Strike: 24700, OI: 40000, OIChange: 1000, Volume: 9000, LTP: 95.0, Bid: 94.5, Ask: 95.5},
			},
		},
	}
	now := time.Date(2025, 8, 25, 10, 30, 0, 0, time.UTC)
	a := NewAcquirer(p, WithClock(fixedClock(now)))

	snap, err := a.Acquire(context.Background(), "RELIANCE", "")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "RELIANCE", snap.Symbol)
	assert.Equal(t, "28AUG25", snap.Expiry) // first available expiry
	assert.Equal(t, now, snap.CapturedAt)
	assert.Equal(t, 24712.5, snap.UnderlyingPrice)
	assert.Equal(t, 50, snap.LotSize)
	assert.False(t, snap.Synthetic)

	// Legs sorted ascending by strike, lot values derived per leg.
	require.Len(t, snap.Calls, 2)
	assert.Equal(t, 24700.0, snap.Calls[0].Strike)
	assert.Equal(t, 24750.0, snap.Calls[1].Strike)
	assert.Equal(t, -120.0, snap.Calls[1].OIChangeLots)
	assert.Equal(t, 500.0, snap.Calls[1].OILots)
	assert.Equal(t, 150.0, snap.Calls[1].VolumeLots)
}

func TestAcquire_SyntheticFallback(t *testing.T) {
	p := &stubProvider{
		price:    24712.0,
		lotSize:  50,
		expiries: []string{"28AUG25"},
		chainErr: errors.New("provider unavailable"),
	}
	a := NewAcquirer(p)

	snap, err := a.Acquire(context.Background(), "NIFTY", "28AUG25")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.Synthetic)

	// 21 strikes each side-aligned: base +/- 10 steps of 50.
	require.Len(t, snap.Calls, 21)
	require.Len(t, snap.Puts, 21)
	assert.Equal(t, 24200.0, snap.Calls[0].Strike)
	assert.Equal(t, 25200.0, snap.Calls[20].Strike)
	for i := range snap.Calls {
		assert.Equal(t, snap.Calls[i].Strike, snap.Puts[i].Strike)
		assert.Zero(t, snap.Calls[i].LTP)
		assert.Zero(t, snap.Calls[i].Bid)
		assert.Zero(t, snap.Calls[i].Ask)
		assert.Zero(t, snap.Puts[i].LTP)
	}

	// OI favors in-the-money direction: deepest ITM call carries the most OI.
	assert.Greater(t, snap.Calls[0].OI, snap.Calls[20].OI)
	assert.Greater(t, snap.Puts[20].OI, snap.Puts[0].OI)

	// Volume is 30% of OI.
	for _, l := range snap.Calls {
		assert.Equal(t, int64(float64(l.OI)*0.3), l.Volume)
	}
}

func TestAcquire_EmptyLegsTriggersFallback(t *testing.T) {
	p := &stubProvider{
		price:    18000,
		lotSize:  25,
		expiries: []string{"28AUG25"},
		chain:    &provider.RawChain{},
	}
	snap, err := NewAcquirer(p).Acquire(context.Background(), "BANKNIFTY", "28AUG25")
	require.NoError(t, err)
	assert.True(t, snap.Synthetic)
	assert.Equal(t, 25, snap.LotSize)
}

func TestAcquire_PriceFailureUsesDefault(t *testing.T) {
	p := &stubProvider{
		priceErr: errors.New("timeout"),
		lotSize:  50,
		expiries: []string{"28AUG25"},
		chainErr: errors.New("unavailable"),
	}
	snap, err := NewAcquirer(p).Acquire(context.Background(), "NIFTY", "28AUG25")
	require.NoError(t, err)
	assert.Equal(t, defaultUnderlyingPrice, snap.UnderlyingPrice)
}

func TestAcquire_LotSizeFallsBackToTable(t *testing.T) {
	p := &stubProvider{
		price:      40000,
		lotSizeErr: errors.New("unavailable"),
		expiries:   []string{"28AUG25"},
		chainErr:   errors.New("unavailable"),
	}
	snap, err := NewAcquirer(p).Acquire(context.Background(), "FINNIFTY", "28AUG25")
	require.NoError(t, err)
	assert.Equal(t, 40, snap.LotSize)
}

func TestAcquire_ExpiryFallbackWhenProviderHasNone(t *testing.T) {
	p := &stubProvider{
		price:    24700,
		lotSize:  50,
		chainErr: errors.New("unavailable"),
	}
	now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	snap, err := NewAcquirer(p, WithClock(fixedClock(now))).Acquire(context.Background(), "NIFTY", "")
	require.NoError(t, err)
	// Last Thursday of September 2025.
	assert.Equal(t, "25SEP25", snap.Expiry)
}

func TestAcquire_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &stubProvider{priceErr: context.Canceled}
	snap, err := NewAcquirer(p).Acquire(ctx, "NIFTY", "")
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackExpiries(t *testing.T) {
	now := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	codes := FallbackExpiries(now, 3)
	// Last Thursdays of Dec 2025, Jan 2026, Feb 2026.
	assert.Equal(t, []string{"25DEC25", "29JAN26", "26FEB26"}, codes)
}

func TestSnapshotAggregates(t *testing.T) {
	snap := &OptionsSnapshot{
		Calls: []OptionLeg{{OI: 100, OIChange: 10, Volume: 30}, {OI: 200, OIChange: -40, Volume: 60}},
		Puts:  []OptionLeg{{OI: 400, OIChange: 5, Volume: 90}},
	}
	assert.Equal(t, int64(300), snap.TotalCallOI())
	assert.Equal(t, int64(400), snap.TotalPutOI())
	assert.Equal(t, int64(90), snap.TotalCallVolume())
	assert.Equal(t, int64(90), snap.TotalPutVolume())
	assert.Equal(t, int64(-25), snap.TotalOIChange())
}

func TestNormalizeLegsSorts(t *testing.T) {
	legs := normalizeLegs([]provider.RawLeg{
		{Strike: 300}, {Strike: 100}, {Strike: 200},
	}, 50)
	assert.True(t, sort.SliceIsSorted(legs, func(i, j int) bool {
		return legs[i].Strike < legs[j].Strike
	}))
}
