package history

import (
	"fmt"
	"time"

	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/units"
)

// Time-of-day sub-windows selectable by name.
const (
	RangeAll       = "all"
	RangeMorning   = "morning"
	RangeAfternoon = "afternoon"
	RangeCustom    = "custom"
)

const dateFilterLayout = "2006-01-02"

// QueryParams selects a slice of the stored series. A malformed DateFilter or
// custom time silently falls back to the default window; availability wins
// over strictness here because these come straight from user input.
type QueryParams struct {
	Symbol     string
	Expiry     string
	DateFilter string // calendar date, "2006-01-02"; empty = last 2 days
	TimeRange  string // all | morning | afternoon | custom
	StartTime  string // "HH:MM", custom only
	EndTime    string // "HH:MM", custom only
}

// Query returns matching records ascending by capture time. The time-of-day
// sub-window applies to every day in the resolved date window, so "morning"
// over a two-day range yields both mornings.
func (s *Store) Query(p QueryParams) ([]Record, error) {
	now := s.clock().In(market.Location)
	windowStart, windowEnd := resolveDateWindow(p.DateFilter, now)
	sub := resolveSubWindow(p.TimeRange, p.StartTime, p.EndTime)

	var records []Record
	err := s.db.
		Where("symbol = ? AND expiry = ? AND captured_at >= ? AND captured_at < ?",
			p.Symbol, p.Expiry, windowStart, windowEnd).
		Order("captured_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query historical records: %w", err)
	}

	out := records[:0]
	for _, rec := range records {
		if !inSubWindow(rec.CapturedAt, sub) {
			continue
		}
		s.backfillLots(&rec)
		out = append(out, rec)
	}
	return out, nil
}

// resolveDateWindow yields the base date range: the filtered calendar day
// [09:00, 16:00) when a valid filter is given, otherwise the trailing 2 days
// ending at now. The close is exclusive, matching the half-open time-of-day
// filter, so a record at exactly 16:00 is out under either bound.
func resolveDateWindow(dateFilter string, now time.Time) (time.Time, time.Time) {
	if dateFilter != "" {
		day, err := time.ParseInLocation(dateFilterLayout, dateFilter, market.Location)
		if err == nil {
			start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, market.Location)
			end := time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, market.Location)
			return start, end
		}
		observ.Warn("bad_date_filter", map[string]any{"date": dateFilter})
	}
	return now.Add(-DefaultRetention), now
}

// resolveSubWindow maps a named time range to a wall-clock interval.
func resolveSubWindow(timeRange, startTime, endTime string) market.Window {
	switch timeRange {
	case RangeMorning:
		return market.Window{Open: market.TimeOfDay{Hour: 9}, Close: market.TimeOfDay{Hour: 12}}
	case RangeAfternoon:
		return market.Window{Open: market.TimeOfDay{Hour: 12}, Close: market.TimeOfDay{Hour: 16}}
	case RangeCustom:
		open, errOpen := market.ParseTimeOfDay(startTime)
		closeAt, errClose := market.ParseTimeOfDay(endTime)
		if errOpen != nil || errClose != nil {
			observ.Warn("bad_custom_time_range", map[string]any{"start": startTime, "end": endTime})
			return market.QueryWindow
		}
		return market.Window{Open: open, Close: closeAt}
	default: // RangeAll and anything unrecognized
		return market.QueryWindow
	}
}

// inSubWindow tests the record's IST time of day against [open, close).
func inSubWindow(t time.Time, w market.Window) bool {
	ist := t.In(market.Location)
	m := ist.Hour()*60 + ist.Minute()
	openM := w.Open.Hour*60 + w.Open.Minute
	closeM := w.Close.Hour*60 + w.Close.Minute
	return m >= openM && m < closeM
}

// backfillLots derives lot aggregates for records written before lot values
// were stored, using the current lot size for the symbol.
func (s *Store) backfillLots(rec *Record) {
	lot := rec.LotSize
	if lot <= 0 {
		lot = s.lotSize(rec.Symbol)
	}
	if rec.TotalCallOILots == 0 && rec.TotalCallOI != 0 {
		rec.TotalCallOILots = units.ToLots(float64(rec.TotalCallOI), lot)
	}
	if rec.TotalPutOILots == 0 && rec.TotalPutOI != 0 {
		rec.TotalPutOILots = units.ToLots(float64(rec.TotalPutOI), lot)
	}
	if rec.TotalCallVolumeLots == 0 && rec.TotalCallVolume != 0 {
		rec.TotalCallVolumeLots = units.ToLots(float64(rec.TotalCallVolume), lot)
	}
	if rec.TotalPutVolumeLots == 0 && rec.TotalPutVolume != 0 {
		rec.TotalPutVolumeLots = units.ToLots(float64(rec.TotalPutVolume), lot)
	}
}
