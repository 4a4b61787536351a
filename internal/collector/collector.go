// Package collector drives snapshot collection on a fixed cadence: acquire,
// append to history, evaluate alerts, for each configured symbol in turn.
// The loop is cancellable via context so tests can stop it deterministically.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/gnana990/Equity-updated/internal/alert"
	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/history"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
)

// Default cadence and the shorter retry delay after a failed cycle.
const (
	DefaultInterval     = 120 * time.Second
	DefaultErrorBackoff = 60 * time.Second
)

// DefaultSymbols are the series collected every cycle. Indices only, to keep
// storage bounded; alert evaluation for single stocks rides the on-demand
// fetch path instead.
var DefaultSymbols = []string{"NIFTY", "BANKNIFTY", "FINNIFTY"}

// Collector owns the background collection loop.
type Collector struct {
	acquirer *chain.Acquirer
	history  *history.Store
	engine   *alert.Engine

	symbols    []string
	interval   time.Duration
	errBackoff time.Duration
	window     market.Window
	clock      func() time.Time
}

// Option customizes a Collector.
type Option func(*Collector)

// WithSymbols overrides the collected symbol set.
func WithSymbols(symbols []string) Option {
	return func(c *Collector) {
		if len(symbols) > 0 {
			c.symbols = symbols
		}
	}
}

// WithInterval overrides cadence and error backoff.
func WithInterval(interval, errBackoff time.Duration) Option {
	return func(c *Collector) {
		if interval > 0 {
			c.interval = interval
		}
		if errBackoff > 0 {
			c.errBackoff = errBackoff
		}
	}
}

// WithWindow overrides the collection session window.
func WithWindow(w market.Window) Option {
	return func(c *Collector) { c.window = w }
}

// WithClock injects a time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Collector) { c.clock = clock }
}

// New assembles a Collector.
func New(acquirer *chain.Acquirer, hist *history.Store, engine *alert.Engine, opts ...Option) *Collector {
	c := &Collector{
		acquirer:   acquirer,
		history:    hist,
		engine:     engine,
		symbols:    DefaultSymbols,
		interval:   DefaultInterval,
		errBackoff: DefaultErrorBackoff,
		window:     market.CollectionWindow,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loops until ctx is done. A failed cycle shortens the wait to the error
// backoff; nothing a cycle does can end the loop.
func (c *Collector) Run(ctx context.Context) {
	observ.Log("collector_started", map[string]any{
		"symbols":  c.symbols,
		"interval": c.interval.String(),
	})
	for {
		wait := c.interval
		if err := c.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				observ.Log("collector_stopped", nil)
				return
			}
			observ.Error("collection_cycle_failed", err, nil)
			wait = c.errBackoff
		}
		select {
		case <-ctx.Done():
			observ.Log("collector_stopped", nil)
			return
		case <-time.After(wait):
		}
	}
}

// runCycle converts a panicking cycle into an error so the loop survives it.
func (c *Collector) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collection cycle panic: %v", r)
		}
	}()
	return c.CollectOnce(ctx)
}

// CollectOnce runs one gated collection pass over all symbols. Per-symbol
// failures are logged and skipped; the pass continues with the next symbol.
func (c *Collector) CollectOnce(ctx context.Context) error {
	now := c.clock()
	if !market.IsOpen(now, c.window) {
		observ.Debug("collection_skipped_market_closed", nil)
		return nil
	}

	for _, symbol := range c.symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		snap, err := c.acquirer.Acquire(ctx, symbol, "")
		if err != nil || snap == nil {
			if err != nil && ctx.Err() != nil {
				return err
			}
			observ.Warn("collection_symbol_skipped", map[string]any{"symbol": symbol})
			continue
		}
		if err := c.history.Append(history.FromSnapshot(snap)); err != nil {
			// Accepted: history misses a point, collection goes on.
			observ.Error("history_append_failed", err, map[string]any{"symbol": symbol})
		}
		c.engine.EvaluateAll(snap)
		observ.IncCounter("collection_snapshots_total", map[string]string{"symbol": symbol})
	}
	observ.IncCounter("collection_cycles_total", nil)
	return nil
}
