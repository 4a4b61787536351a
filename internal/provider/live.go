package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LiveConfig holds configuration for the live chain-service client.
type LiveConfig struct {
	BaseURL            string
	APIKey             string
	RateLimitPerMinute int
	TimeoutSeconds     int
}

// LiveClient implements Provider against the broker's chain service over
// HTTP. Requests are rate limited and carry a hard timeout so a slow provider
// surfaces as an error the acquirer can map to its fallback path.
type LiveClient struct {
	cfg         LiveConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	mu                sync.Mutex
	consecutiveErrors int
}

// NewLiveClient creates a live provider client.
func NewLiveClient(cfg LiveConfig) (*LiveClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 60
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 5
	}
	return &LiveClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
	}, nil
}

func (c *LiveClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "token "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.noteError()
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.noteError()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.noteError()
		return fmt.Errorf("decode response: %w", err)
	}
	c.noteSuccess()
	return nil
}

func (c *LiveClient) noteError() {
	c.mu.Lock()
	c.consecutiveErrors++
	c.mu.Unlock()
}

func (c *LiveClient) noteSuccess() {
	c.mu.Lock()
	c.consecutiveErrors = 0
	c.mu.Unlock()
}

// ConsecutiveErrors reports the current error streak, for health surfaces.
func (c *LiveClient) ConsecutiveErrors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutiveErrors
}

// CurrentPrice fetches the underlying's last traded price.
func (c *LiveClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var body struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/v1/price", params, &body); err != nil {
		return 0, &Error{Op: "price", Symbol: symbol, Cause: err}
	}
	if body.Price <= 0 {
		return 0, &Error{Op: "price", Symbol: symbol, Cause: fmt.Errorf("non-positive price %.2f", body.Price)}
	}
	return body.Price, nil
}

// LotSize fetches the exchange lot size for symbol.
func (c *LiveClient) LotSize(ctx context.Context, symbol string) (int, error) {
	var body struct {
		Symbol  string `json:"symbol"`
		LotSize int    `json:"lot_size"`
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/v1/lot-size", params, &body); err != nil {
		return 0, &Error{Op: "lot_size", Symbol: symbol, Cause: err}
	}
	if body.LotSize <= 0 {
		return 0, &Error{Op: "lot_size", Symbol: symbol, Cause: fmt.Errorf("non-positive lot size %d", body.LotSize)}
	}
	return body.LotSize, nil
}

// Expiries fetches available expiry date codes, nearest first.
func (c *LiveClient) Expiries(ctx context.Context, symbol string) ([]string, error) {
	var body struct {
		Symbol   string   `json:"symbol"`
		Expiries []string `json:"expiry_dates"`
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/v1/expiries", params, &body); err != nil {
		return nil, &Error{Op: "expiries", Symbol: symbol, Cause: err}
	}
	return body.Expiries, nil
}

// Legs fetches the raw option chain for symbol/expiry.
func (c *LiveClient) Legs(ctx context.Context, symbol, expiry string) (*RawChain, error) {
	var body RawChain
	params := url.Values{"symbol": {symbol}, "expiry": {expiry}}
	if err := c.get(ctx, "/v1/chain", params, &body); err != nil {
		return nil, &Error{Op: "legs", Symbol: symbol, Cause: err}
	}
	return &body, nil
}
