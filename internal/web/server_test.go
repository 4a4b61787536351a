package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gnana990/Equity-updated/internal/alert"
	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/history"
	"github.com/gnana990/Equity-updated/internal/provider"
)

type stubProvider struct {
	price    float64
	expiries []string
	legs     *provider.RawChain
	err      error
}

func (s *stubProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return s.price, nil
}

func (s *stubProvider) LotSize(ctx context.Context, symbol string) (int, error) {
	return 50, nil
}

func (s *stubProvider) Expiries(ctx context.Context, symbol string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.expiries, nil
}

func (s *stubProvider) Legs(ctx context.Context, symbol, expiry string) (*provider.RawChain, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.legs, nil
}

type fakeNotifier struct {
	sent []alert.Event
}

func (f *fakeNotifier) Send(userEmail string, ev alert.Event) error {
	f.sent = append(f.sent, ev)
	return nil
}

type fixture struct {
	server   *Server
	history  *history.Store
	registry *alert.Registry
	events   *alert.EventStore
	notifier *fakeNotifier
	now      time.Time
}

// Monday 2025-09-01 10:30 IST, market open.
var openTime = time.Date(2025, 9, 1, 5, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, p provider.Provider) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "web.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	f := &fixture{
		registry: alert.NewRegistry(),
		notifier: &fakeNotifier{},
		now:      openTime,
	}
	clock := func() time.Time { return f.now }

	f.history, err = history.NewStore(db, history.WithClock(clock))
	require.NoError(t, err)
	f.events, err = alert.NewEventStore(db)
	require.NoError(t, err)
	users, err := alert.NewUserStore(db)
	require.NoError(t, err)
	engine := alert.NewEngine(f.registry, f.events, f.notifier, alert.WithEngineClock(clock))
	acq := chain.NewAcquirer(p, chain.WithClock(clock))

	f.server = NewServer(p, acq, f.history, f.registry, f.events, users, engine,
		WithServerClock(clock))
	return f
}

func (f *fixture) do(t *testing.T, method, target, email, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if email != "" {
		req.Header.Set("X-User-Email", email)
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func liveProvider() *stubProvider {
	return &stubProvider{
		price:    24700,
		expiries: []string{"28AUG25", "25SEP25"},
		legs: &provider.RawChain{
			Calls: []provider.RawLeg{{Strike: 24700, OI: 50000, OIChange: -6000, Volume: 15000}},
			Puts:  []provider.RawLeg{{Strike: 24700, OI: 40000, OIChange: 1000, Volume: 12000}},
		},
	}
}

func TestOptionChain(t *testing.T) {
	f := newFixture(t, liveProvider())

	w := f.do(t, http.MethodGet, "/api/option-chain?symbol=RELIANCE", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view chainView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "RELIANCE", view.Symbol)
	assert.Equal(t, "28AUG25", view.Expiry)
	assert.Equal(t, 50, view.LotSize)
	assert.False(t, view.Synthetic)
	assert.Equal(t, "lots", view.VolumeMode)
	require.Len(t, view.Calls, 1)
	assert.Equal(t, "1000.00 lots", view.Calls[0].OIDisplay)
	assert.Equal(t, 0.8, view.PutCallRatio)

	// fetched inside the collection window, so a history record landed
	n, err := f.history.Count("RELIANCE", "28AUG25")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOptionChainContractsMode(t *testing.T) {
	f := newFixture(t, liveProvider())

	w := f.do(t, http.MethodGet, "/api/option-chain?symbol=RELIANCE&volume_mode=contracts", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view chainView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "50000 contracts", view.Calls[0].OIDisplay)
	assert.Equal(t, "15000 contracts", view.Calls[0].VolumeDisplay)
}

func TestOptionChainEvaluatesRequesterOnly(t *testing.T) {
	f := newFixture(t, liveProvider())
	s := alert.DefaultSettings()
	s.Enabled = true
	f.registry.Update("trader@example.com", s)
	// Another enabled user who never looked at this symbol.
	f.registry.Update("bystander@example.com", s)

	w := f.do(t, http.MethodGet, "/api/option-chain?symbol=RELIANCE", "trader@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "trader@example.com", f.notifier.sent[0].UserEmail)
	assert.Equal(t, alert.KindNegativeOI, f.notifier.sent[0].Kind)
}

func TestOptionChainAnonymousFetchSkipsAlerts(t *testing.T) {
	f := newFixture(t, liveProvider())
	s := alert.DefaultSettings()
	s.Enabled = true
	f.registry.Update("trader@example.com", s)

	w := f.do(t, http.MethodGet, "/api/option-chain?symbol=RELIANCE", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.notifier.sent)
}

func TestOptionChainOutsideWindowSkipsHistory(t *testing.T) {
	f := newFixture(t, liveProvider())
	// Saturday
	f.now = time.Date(2025, 9, 6, 5, 0, 0, 0, time.UTC)

	w := f.do(t, http.MethodGet, "/api/option-chain?symbol=RELIANCE", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	n, err := f.history.Count("RELIANCE", "28AUG25")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOptionChainSyntheticFallback(t *testing.T) {
	f := newFixture(t, &stubProvider{price: 24700, err: errors.New("provider down")})

	w := f.do(t, http.MethodGet, "/api/option-chain?symbol=NIFTY", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view chainView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Synthetic)
	assert.Len(t, view.Calls, 21)
}

func TestOptionChainMissingSymbol(t *testing.T) {
	f := newFixture(t, liveProvider())
	w := f.do(t, http.MethodGet, "/api/option-chain", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertSettingsRoundTrip(t *testing.T) {
	f := newFixture(t, liveProvider())

	w := f.do(t, http.MethodGet, "/api/alert-settings", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/alert-settings", "trader@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got alert.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, alert.DefaultSettings(), got)

	w = f.do(t, http.MethodPost, "/api/alert-settings", "trader@example.com",
		`{"enabled":true,"negative_oi_threshold":-250,"total_oi_threshold":2000,"cooldown":600,"alert_calls":true,"alert_puts":false,"volume_multiplier":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Enabled)
	assert.Equal(t, -250.0, got.NegativeOIThreshold)
	assert.False(t, got.AlertOnPuts)

	assert.Equal(t, got, f.registry.Get("trader@example.com"))
}

func TestAlertSettingsRejectsBadPayload(t *testing.T) {
	f := newFixture(t, liveProvider())
	w := f.do(t, http.MethodPost, "/api/alert-settings", "trader@example.com", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAlerts(t *testing.T) {
	f := newFixture(t, liveProvider())
	base := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, ev := range []alert.Event{
		{UserEmail: "a@x.com", Symbol: "RELIANCE", Kind: alert.KindNegativeOI},
		{UserEmail: "a@x.com", Symbol: "TCS", Kind: alert.KindTotalOI},
	} {
		ev.CreatedAt = base.AddDate(0, 0, i)
		require.NoError(t, f.events.Save(&ev))
	}

	w := f.do(t, http.MethodGet, "/api/alerts", "a@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Alerts []alert.Event `json:"alerts"`
		Count  int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	w = f.do(t, http.MethodGet, "/api/alerts?symbol=TCS&alert_type=total_oi", "a@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "TCS", resp.Alerts[0].Symbol)

	// malformed date is ignored, not rejected
	w = f.do(t, http.MethodGet, "/api/alerts?from_date=yesterday", "a@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestHistoricalData(t *testing.T) {
	f := newFixture(t, liveProvider())
	for i := 0; i < 3; i++ {
		require.NoError(t, f.history.Append(history.Record{
			Symbol:     "NIFTY",
			Expiry:     "28AUG25",
			CapturedAt: f.now.Add(-time.Duration(i+1) * 30 * time.Minute),
			LotSize:    50,
		}))
	}

	w := f.do(t, http.MethodGet, "/api/historical-data?symbol=NIFTY&expiry=28AUG25", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data  []history.Record `json:"data"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)

	w = f.do(t, http.MethodGet, "/api/historical-data?symbol=NIFTY", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiryDates(t *testing.T) {
	f := newFixture(t, liveProvider())

	w := f.do(t, http.MethodGet, "/api/expiry-dates?symbol=NIFTY", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ExpiryDates []string `json:"expiry_dates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"28AUG25", "25SEP25"}, resp.ExpiryDates)
}

func TestExpiryDatesFallback(t *testing.T) {
	f := newFixture(t, &stubProvider{price: 24700, err: errors.New("provider down")})

	w := f.do(t, http.MethodGet, "/api/expiry-dates?symbol=NIFTY", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ExpiryDates []string `json:"expiry_dates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// last Thursdays of the next three months from 2025-09-01
	assert.Equal(t, []string{"30OCT25", "27NOV25", "25DEC25"}, resp.ExpiryDates)
}

func TestReloadUsers(t *testing.T) {
	f := newFixture(t, liveProvider())

	// registering a user via settings update persists the account
	w := f.do(t, http.MethodPost, "/api/alert-settings", "trader@example.com",
		`{"enabled":true,"negative_oi_threshold":-100,"total_oi_threshold":1500,"cooldown":300,"alert_calls":true,"alert_puts":true,"volume_multiplier":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/reload-users", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"users":1`)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, liveProvider())
	w := f.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"market_open":true`)
}
