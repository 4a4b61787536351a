package alert

import (
	"math"
	"time"

	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/units"
)

// strikeBand bounds which legs are alert candidates: within this many price
// units of the underlying, independent of the strike interval.
const strikeBand = 500.0

// Notifier is the external alert transport. A false-ish error return means
// the event was not delivered; the engine then neither persists it nor
// touches the cooldown, so the condition re-fires next eligible cycle.
type Notifier interface {
	Send(userEmail string, ev Event) error
}

// Engine evaluates alert rules for every user against a snapshot.
type Engine struct {
	registry *Registry
	events   *EventStore
	notifier Notifier
	clock    func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithEngineClock injects a time source for tests.
func WithEngineClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine wires the engine to its registry, event store and transport.
func NewEngine(registry *Registry, events *EventStore, notifier Notifier, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		events:   events,
		notifier: notifier,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateAll runs one alert cycle for every registered user. Broad-market
// indices never alert regardless of user settings.
func (e *Engine) EvaluateAll(snap *chain.OptionsSnapshot) {
	if snap == nil {
		return
	}
	if market.IsMajorIndex(snap.Symbol) {
		observ.Debug("alerts_skipped_major_index", map[string]any{"symbol": snap.Symbol})
		return
	}
	for _, email := range e.registry.Users() {
		e.EvaluateUser(email, snap)
	}
}

// EvaluateUser runs one alert cycle for a single user. The whole cycle runs
// under the user's lock: cooldown read, rule evaluation, delivery and
// cooldown update, so the scheduler and the on-demand request path cannot
// interleave inside one window.
func (e *Engine) EvaluateUser(email string, snap *chain.OptionsSnapshot) {
	if snap == nil || market.IsMajorIndex(snap.Symbol) {
		return
	}
	e.registry.withUser(email, func(st *userState) {
		if !st.settings.Enabled {
			return
		}
		now := e.clock()
		// Cooldown is read once per cycle. A delivery mid-cycle resets the
		// timestamp but later rules in this same pass still run; that is the
		// intended shared-cooldown behavior.
		cooldown := time.Duration(st.settings.CooldownSeconds) * time.Second
		if !st.lastAlertAt.IsZero() && now.Sub(st.lastAlertAt) < cooldown {
			observ.Debug("alerts_cooldown_active", map[string]any{
				"user":      email,
				"symbol":    snap.Symbol,
				"remaining": (cooldown - now.Sub(st.lastAlertAt)).Seconds(),
			})
			observ.IncCounter("alert_cooldown_skips_total", nil)
			return
		}

		e.evaluateNegativeOI(email, st, snap, now)
		e.evaluateTotalOI(email, st, snap, now)
		e.evaluateVolumeComparison(email, st, snap, now)
	})
}

// evaluateNegativeOI scans candidate legs, calls before puts, ascending
// strike, and delivers at most one event per cycle: the first breaching leg
// wins and the rest are dropped. The cap is deliberate product behavior.
func (e *Engine) evaluateNegativeOI(email string, st *userState, snap *chain.OptionsSnapshot, now time.Time) {
	thresholdContracts := st.settings.NegativeOIThreshold * float64(snap.LotSize)

	type candidate struct {
		leg        chain.OptionLeg
		optionType string
	}
	var candidates []candidate
	if st.settings.AlertOnCalls {
		for _, leg := range snap.Calls {
			if math.Abs(leg.Strike-snap.UnderlyingPrice) <= strikeBand {
				candidates = append(candidates, candidate{leg, OptionCall})
			}
		}
	}
	if st.settings.AlertOnPuts {
		for _, leg := range snap.Puts {
			if math.Abs(leg.Strike-snap.UnderlyingPrice) <= strikeBand {
				candidates = append(candidates, candidate{leg, OptionPut})
			}
		}
	}

	for _, c := range candidates {
		if float64(c.leg.OIChange) >= thresholdContracts {
			continue
		}
		ev := Event{
			UserEmail:     email,
			Symbol:        snap.Symbol,
			Kind:          KindNegativeOI,
			Strike:        c.leg.Strike,
			OptionType:    c.optionType,
			MeasuredValue: units.ToLots(float64(c.leg.OIChange), snap.LotSize),
			Threshold:     st.settings.NegativeOIThreshold,
			CreatedAt:     now,
		}
		if e.deliver(st, ev, now) {
			return
		}
		// Failed delivery: try the next breaching candidate this cycle.
	}
}

// evaluateTotalOI fires when the absolute net OI change across both sides
// breaches the threshold. Runs regardless of the negative-OI outcome in the
// same pass.
func (e *Engine) evaluateTotalOI(email string, st *userState, snap *chain.OptionsSnapshot, now time.Time) {
	totalChange := snap.TotalOIChange()
	thresholdContracts := st.settings.TotalOIThreshold * float64(snap.LotSize)
	if math.Abs(float64(totalChange)) <= thresholdContracts {
		return
	}
	ev := Event{
		UserEmail:     email,
		Symbol:        snap.Symbol,
		Kind:          KindTotalOI,
		MeasuredValue: units.ToLots(float64(totalChange), snap.LotSize),
		Threshold:     st.settings.TotalOIThreshold,
		CreatedAt:     now,
	}
	e.deliver(st, ev, now)
}

// evaluateVolumeComparison would compare an end-of-day volume snapshot
// against the next session's by the user's multiplier. No end-of-day capture
// feeds it yet, so it is a declared no-op; the hook stays so settings and
// event plumbing already account for the kind.
func (e *Engine) evaluateVolumeComparison(email string, st *userState, snap *chain.OptionsSnapshot, now time.Time) {
}

// deliver sends, persists, then updates the cooldown, each step conditional
// on the previous. A persisted event is therefore always a delivered one, and
// a failed send leaves the cooldown untouched.
func (e *Engine) deliver(st *userState, ev Event, now time.Time) bool {
	if err := e.notifier.Send(ev.UserEmail, ev); err != nil {
		observ.Error("alert_delivery_failed", err, map[string]any{
			"user": ev.UserEmail, "symbol": ev.Symbol, "kind": string(ev.Kind),
		})
		observ.IncCounter("alert_delivery_failures_total", map[string]string{"kind": string(ev.Kind)})
		return false
	}
	if err := e.events.Save(&ev); err != nil {
		// Accepted data loss: the alert reached the user, history misses it.
		observ.Error("alert_persist_failed", err, map[string]any{"user": ev.UserEmail})
	}
	st.lastAlertAt = now
	observ.IncCounter("alerts_sent_total", map[string]string{"kind": string(ev.Kind)})
	observ.Log("alert_sent", map[string]any{
		"user": ev.UserEmail, "symbol": ev.Symbol, "kind": string(ev.Kind),
		"measured": ev.MeasuredValue, "threshold": ev.Threshold,
	})
	return true
}
