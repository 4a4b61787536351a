// providersim is a local stand-in for the broker's chain service. It serves
// the /v1 endpoints the dashboard's live client speaks, with deterministic
// made-up data, so the full stack runs without broker credentials.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/provider"
)

var basePrices = map[string]float64{
	"NIFTY":      24712.40,
	"BANKNIFTY":  51384.75,
	"FINNIFTY":   23650.10,
	"MIDCPNIFTY": 12933.55,
	"SENSEX":     80824.30,
}

const defaultPrice = 2450.50

func price(symbol string) float64 {
	if p, ok := basePrices[symbol]; ok {
		return p
	}
	return defaultPrice
}

// strikeStep picks a plausible strike interval from the price magnitude.
func strikeStep(p float64) float64 {
	switch {
	case p >= 20000:
		return 100
	case p >= 5000:
		return 50
	default:
		return math.Max(5, math.Round(p*0.01/5)*5)
	}
}

// fakeChain builds a chain whose numbers depend only on symbol and strike, so
// repeated fetches are stable and diffable.
func fakeChain(symbol string) provider.RawChain {
	p := price(symbol)
	step := strikeStep(p)
	base := math.Round(p/step) * step

	var out provider.RawChain
	for i := -10; i <= 10; i++ {
		strike := base + float64(i)*step
		moneyness := int64(base-strike) / int64(step)
		oi := (moneyness+100)*1000 + 150000
		if oi < 0 {
			oi = 0
		}
		// a couple of strikes near the money unwind, the rest build up
		oiChg := oi / 20
		if i == -1 || i == 2 {
			oiChg = -oi / 8
		}
		out.Calls = append(out.Calls, provider.RawLeg{
			Strike: strike, OI: oi, OIChange: oiChg, Volume: oi / 3,
			LTP: math.Max(0.05, (base-strike)+step), Bid: 0, Ask: 0,
		})
		out.Puts = append(out.Puts, provider.RawLeg{
			Strike: strike, OI: oi + 20000, OIChange: -oiChg, Volume: oi / 4,
			LTP: math.Max(0.05, (strike-base)+step), Bid: 0, Ask: 0,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func requireSymbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol", http.StatusBadRequest)
		return "", false
	}
	return symbol, true
}

func main() {
	addr := flag.String("addr", ":9010", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/price", func(w http.ResponseWriter, r *http.Request) {
		symbol, ok := requireSymbol(w, r)
		if !ok {
			return
		}
		writeJSON(w, map[string]any{"symbol": symbol, "price": price(symbol)})
	})
	mux.HandleFunc("/v1/lot-size", func(w http.ResponseWriter, r *http.Request) {
		symbol, ok := requireSymbol(w, r)
		if !ok {
			return
		}
		writeJSON(w, map[string]any{"symbol": symbol, "lot_size": market.FallbackLotSize(symbol)})
	})
	mux.HandleFunc("/v1/expiries", func(w http.ResponseWriter, r *http.Request) {
		symbol, ok := requireSymbol(w, r)
		if !ok {
			return
		}
		now := time.Now().In(market.Location)
		writeJSON(w, map[string]any{
			"symbol":       symbol,
			"expiry_dates": chain.FallbackExpiries(now, 3),
		})
	})
	mux.HandleFunc("/v1/chain", func(w http.ResponseWriter, r *http.Request) {
		symbol, ok := requireSymbol(w, r)
		if !ok {
			return
		}
		writeJSON(w, fakeChain(symbol))
	})

	log.Printf("providersim listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("providersim: %v", err)
	}
}
