package market

import "sort"

// MajorIndices are the broad-market index symbols. They lead the symbol list
// in the UI and are never alert-eligible.
var MajorIndices = []string{"NIFTY", "BANKNIFTY", "FINNIFTY", "MIDCPNIFTY", "SENSEX"}

// Symbols is the tradable F&O universe: major indices first, then single
// stocks in alphabetical order.
var Symbols = append(append([]string{}, MajorIndices...), stockSymbols...)

var stockSymbols = []string{
	"ABB", "ABBOTINDIA", "ACC", "ADANIENT", "ADANIGREEN", "ADANIPORTS", "ADANIPOWER", "ADANITRANS",
	"ALKEM", "AMARAJABAT", "AMBUJACEM", "APOLLOHOSP", "APOLLOTYRE", "ASIANPAINT", "AUROPHARMA", "AXISBANK",
	"BAJAJ-AUTO", "BAJAJFINSV", "BAJAJHLDNG", "BAJFINANCE", "BALKRISIND", "BANDHANBNK", "BANKBARODA", "BEL",
	"BERGEPAINT", "BHARTIARTL", "BHEL", "BIOCON", "BPCL", "BRITANNIA", "CADILAHC", "CANBK",
	"CENTURYTEX", "CESC", "CHOLAFIN", "CIPLA", "COALINDIA", "COLPAL", "CUMMINSIND", "DABUR",
	"DEEPAKNTR", "DIVISLAB", "DLF", "DRREDDY", "EICHERMOT", "ESCORTS", "EXIDEIND", "FEDERALBNK",
	"GAIL", "GLENMARK", "GODREJCP", "GODREJIND", "GRASIM", "HAVELLS", "HCLTECH", "HDFC",
	"HDFCAMC", "HDFCBANK", "HDFCLIFE", "HEROMOTOCO", "HINDALCO", "HINDCOPPER", "HINDPETRO", "HINDUNILVR",
	"ICICIBANK", "ICICIGI", "ICICIPRULI", "IDEA", "INDIGO", "INDUSINDBK", "INFY", "IOC",
	"ITC", "JINDALSTEL", "JSWENERGY", "JSWSTEEL", "JUBLFOOD", "KARNATKA", "KOTAKBANK", "LT",
	"LUPIN", "M&M", "MARICO", "MARUTI", "MAXHEALTH", "MCDOWELL-N", "MINDTREE", "MPHASIS",
	"MUTHOOTFIN", "NATCOPHARM", "NESTLEIND", "NMDC", "NTPC", "ONGC", "PEL", "PERSISTENT",
	"PFC", "PIDILITIND", "PNB", "POWERGRID", "RBLBANK", "RECLTD", "RELIANCE", "SAIL",
	"SBICARD", "SBILIFE", "SBIN", "SHREECEM", "SIEMENS", "SUNPHARMA", "TATACOMM", "TATACONSUM",
	"TATAELXSI", "TATAMOTORS", "TATAPOWER", "TATASTEEL", "TCS", "TECHM", "TITAN", "TORNTPHARM",
	"TVSMOTOR", "UBL", "ULTRACEMCO", "UPL", "VEDL", "VEYERMOTOR", "VOLTAS", "WIPRO",
	"YESBANK", "ZEEL", "ZYDUSLIFE",
}

// IsMajorIndex reports whether symbol is one of the broad-market indices.
func IsMajorIndex(symbol string) bool {
	for _, s := range MajorIndices {
		if s == symbol {
			return true
		}
	}
	return false
}

// VerifySymbolOrder checks the invariant behind the symbol table: major
// indices lead, everything else is alphabetical. Called once at startup.
func VerifySymbolOrder() bool {
	for i, s := range MajorIndices {
		if Symbols[i] != s {
			return false
		}
	}
	return sort.StringsAreSorted(Symbols[len(MajorIndices):])
}

// Per-symbol lot sizes used when the provider cannot supply one.
var fallbackLotSizes = map[string]int{
	"NIFTY":      50,
	"BANKNIFTY":  25,
	"FINNIFTY":   40,
	"MIDCPNIFTY": 75,
}

// DefaultLotSize applies to symbols absent from the fallback table.
const DefaultLotSize = 50

// FallbackLotSize resolves a lot size without the provider.
func FallbackLotSize(symbol string) int {
	if n, ok := fallbackLotSizes[symbol]; ok {
		return n
	}
	return DefaultLotSize
}
