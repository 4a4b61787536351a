// Package web is the HTTP surface of the dashboard: option-chain fetches,
// alert settings, alert history and historical-data queries. Users are
// identified by the X-User-Email header; authentication is terminated
// upstream.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gnana990/Equity-updated/internal/alert"
	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/history"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/provider"
)

const userHeader = "X-User-Email"

// Server wires the HTTP handlers to the engine's collaborators.
type Server struct {
	provider provider.Provider
	acquirer *chain.Acquirer
	history  *history.Store
	registry *alert.Registry
	events   *alert.EventStore
	users    *alert.UserStore
	engine   *alert.Engine
	clock    func() time.Time

	router *gin.Engine
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithServerClock injects a time source for tests.
func WithServerClock(clock func() time.Time) ServerOption {
	return func(s *Server) { s.clock = clock }
}

// NewServer builds the router over the given collaborators.
func NewServer(
	p provider.Provider,
	acquirer *chain.Acquirer,
	hist *history.Store,
	registry *alert.Registry,
	events *alert.EventStore,
	users *alert.UserStore,
	engine *alert.Engine,
	opts ...ServerOption,
) *Server {
	s := &Server{
		provider: p,
		acquirer: acquirer,
		history:  hist,
		registry: registry,
		events:   events,
		users:    users,
		engine:   engine,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	api := r.Group("/api")
	api.GET("/option-chain", s.handleOptionChain)
	api.GET("/alert-settings", s.handleGetSettings)
	api.POST("/alert-settings", s.handleUpdateSettings)
	api.GET("/alerts", s.handleListAlerts)
	api.GET("/historical-data", s.handleHistoricalData)
	api.GET("/expiry-dates", s.handleExpiryDates)
	api.POST("/reload-users", s.handleReloadUsers)

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(observ.Handler()))

	s.router = r
	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down draining in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	observ.Log("http_listening", map[string]any{"addr": addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observ.Debug("http_request", map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ms":     time.Since(start).Milliseconds(),
		})
	}
}

// userEmail extracts the identity header, aborting with 400 when absent.
func userEmail(c *gin.Context) (string, bool) {
	email := c.GetHeader(userHeader)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + userHeader + " header"})
		return "", false
	}
	return email, true
}

type legView struct {
	chain.OptionLeg
	OIDisplay     string `json:"oi_display"`
	VolumeDisplay string `json:"volume_display"`
}

type chainView struct {
	Symbol          string    `json:"symbol"`
	Expiry          string    `json:"expiry_date"`
	CapturedAt      time.Time `json:"captured_at"`
	UnderlyingPrice float64   `json:"current_price"`
	LotSize         int       `json:"lot_size"`
	Synthetic       bool      `json:"synthetic"`
	VolumeMode      string    `json:"volume_mode"`
	Calls           []legView `json:"calls"`
	Puts            []legView `json:"puts"`
	TotalCallOI     int64     `json:"total_ce_oi"`
	TotalPutOI      int64     `json:"total_pe_oi"`
	PutCallRatio    float64   `json:"pcr"`
}

// handleOptionChain serves an on-demand snapshot. The fetch also feeds the
// stores: inside the collection window it lands a history record, and alert
// evaluation runs for the requesting user so an open dashboard tightens that
// user's alert latency beyond the background cadence. Only the background
// collector evaluates every user; an anonymous fetch evaluates nobody.
func (s *Server) handleOptionChain(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing symbol"})
		return
	}
	volumeMode := c.DefaultQuery("volume_mode", "lots")
	showLots := volumeMode != "contracts"

	snap, err := s.acquirer.Acquire(c.Request.Context(), symbol, c.Query("expiry"))
	if err != nil || snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot unavailable"})
		return
	}

	if market.IsOpen(s.clock(), market.CollectionWindow) {
		if err := s.history.Append(history.FromSnapshot(snap)); err != nil {
			observ.Error("history_append_failed", err, map[string]any{"symbol": symbol})
		}
	}
	if email := c.GetHeader(userHeader); email != "" {
		s.engine.EvaluateUser(email, snap)
	}

	callOI := snap.TotalCallOI()
	putOI := snap.TotalPutOI()
	divisor := callOI
	if divisor < 1 {
		divisor = 1
	}
	c.JSON(http.StatusOK, chainView{
		Symbol:          snap.Symbol,
		Expiry:          snap.Expiry,
		CapturedAt:      snap.CapturedAt,
		UnderlyingPrice: snap.UnderlyingPrice,
		LotSize:         snap.LotSize,
		Synthetic:       snap.Synthetic,
		VolumeMode:      volumeMode,
		Calls:           legViews(snap.Calls, showLots),
		Puts:            legViews(snap.Puts, showLots),
		TotalCallOI:     callOI,
		TotalPutOI:      putOI,
		PutCallRatio:    float64(putOI) / float64(divisor),
	})
}

func legViews(legs []chain.OptionLeg, showLots bool) []legView {
	out := make([]legView, 0, len(legs))
	for _, l := range legs {
		out = append(out, legView{
			OptionLeg:     l,
			OIDisplay:     l.OIDisplay(showLots),
			VolumeDisplay: l.VolumeDisplay(showLots),
		})
	}
	return out
}

func (s *Server) handleGetSettings(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.registry.Get(email))
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	var settings alert.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}
	if err := s.users.Ensure(email); err != nil {
		observ.Error("user_persist_failed", err, map[string]any{"user": email})
	}
	s.registry.Update(email, settings)
	c.JSON(http.StatusOK, s.registry.Get(email))
}

func (s *Server) handleListAlerts(c *gin.Context) {
	email, ok := userEmail(c)
	if !ok {
		return
	}
	filter := alert.EventFilter{
		Symbol: c.Query("symbol"),
		Kind:   alert.Kind(c.Query("alert_type")),
	}
	// Malformed dates are ignored rather than rejected; the query still runs
	// unbounded on that side.
	if v := c.Query("from_date"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, market.Location); err == nil {
			filter.From = t
		} else {
			observ.Warn("bad_alert_date_filter", map[string]any{"from_date": v})
		}
	}
	if v := c.Query("to_date"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, market.Location); err == nil {
			filter.To = t
		} else {
			observ.Warn("bad_alert_date_filter", map[string]any{"to_date": v})
		}
	}

	events, err := s.events.List(email, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": events, "count": len(events)})
}

func (s *Server) handleHistoricalData(c *gin.Context) {
	symbol := c.Query("symbol")
	expiry := c.Query("expiry")
	if symbol == "" || expiry == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing symbol or expiry"})
		return
	}
	records, err := s.history.Query(history.QueryParams{
		Symbol:     symbol,
		Expiry:     expiry,
		DateFilter: c.Query("date"),
		TimeRange:  c.DefaultQuery("time_range", history.RangeAll),
		StartTime:  c.Query("start_time"),
		EndTime:    c.Query("end_time"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "historical data unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

func (s *Server) handleExpiryDates(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing symbol"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	expiries, err := s.provider.Expiries(ctx, symbol)
	if err != nil || len(expiries) == 0 {
		expiries = chain.FallbackExpiries(s.clock().In(market.Location), 3)
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "expiry_dates": expiries})
}

// handleReloadUsers re-seeds the registry from the user table, picking up
// accounts created by another process instance.
func (s *Server) handleReloadUsers(c *gin.Context) {
	n := alert.LoadAll(s.users, s.registry)
	c.JSON(http.StatusOK, gin.H{"users": n})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"market_open": market.IsOpen(s.clock(), market.CollectionWindow),
		"time":        s.clock().In(market.Location).Format(time.RFC3339),
	})
}
