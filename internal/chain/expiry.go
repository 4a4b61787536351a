package chain

import (
	"strings"
	"time"
)

// expiryCodeLayout renders dates as 28AUG25, the code format the provider
// uses for contract series.
const expiryCodeLayout = "02Jan06"

// FormatExpiryCode renders t as an uppercase expiry date code.
func FormatExpiryCode(t time.Time) string {
	return strings.ToUpper(t.Format(expiryCodeLayout))
}

// FallbackExpiries generates expiry codes for when the provider returns none:
// the last Thursday of each of the next n months. Monthly series expire on
// the last Thursday on the NSE.
func FallbackExpiries(now time.Time, n int) []string {
	codes := make([]string, 0, n)
	year, month := now.Year(), now.Month()
	for i := 0; i < n; i++ {
		month++
		if month > time.December {
			month = time.January
			year++
		}
		codes = append(codes, FormatExpiryCode(lastThursday(year, month, now.Location())))
	}
	return codes
}

func lastThursday(year int, month time.Month, loc *time.Location) time.Time {
	// Day 0 of the next month is the last day of this one.
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
