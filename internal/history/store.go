// Package history is the retention-bounded time-series of snapshot
// aggregates. One record is appended per accepted snapshot; records older
// than the retention horizon are deleted on every write rather than by a
// separate timer, so the store can never grow unbounded while idle writes
// continue.
package history

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/units"
)

// DefaultRetention is how far back records survive.
const DefaultRetention = 48 * time.Hour

// Record is one stored aggregate of a snapshot. Owned exclusively by this
// package; immutable once written.
type Record struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	Symbol              string    `gorm:"size:32;index:idx_history_series" json:"symbol"`
	Expiry              string    `gorm:"size:16;index:idx_history_series" json:"expiry_date"`
	CapturedAt          time.Time `gorm:"index" json:"timestamp"`
	UnderlyingPrice     float64   `json:"current_price"`
	LotSize             int       `json:"lot_size"`
	TotalCallOI         int64     `json:"total_ce_oi"`
	TotalPutOI          int64     `json:"total_pe_oi"`
	TotalCallOILots     float64   `json:"total_ce_oi_lots"`
	TotalPutOILots      float64   `json:"total_pe_oi_lots"`
	TotalCallVolume     int64     `json:"total_ce_volume"`
	TotalPutVolume      int64     `json:"total_pe_volume"`
	TotalCallVolumeLots float64   `json:"total_ce_volume_lots"`
	TotalPutVolumeLots  float64   `json:"total_pe_volume_lots"`
	PutCallRatio        float64   `json:"pcr"`
}

func (Record) TableName() string { return "historical_data" }

// FromSnapshot aggregates a snapshot into a Record.
func FromSnapshot(snap *chain.OptionsSnapshot) Record {
	callOI := snap.TotalCallOI()
	putOI := snap.TotalPutOI()
	callVol := snap.TotalCallVolume()
	putVol := snap.TotalPutVolume()
	divisor := callOI
	if divisor < 1 {
		divisor = 1
	}
	return Record{
		Symbol:              snap.Symbol,
		Expiry:              snap.Expiry,
		CapturedAt:          snap.CapturedAt,
		UnderlyingPrice:     snap.UnderlyingPrice,
		LotSize:             snap.LotSize,
		TotalCallOI:         callOI,
		TotalPutOI:          putOI,
		TotalCallOILots:     units.ToLots(float64(callOI), snap.LotSize),
		TotalPutOILots:      units.ToLots(float64(putOI), snap.LotSize),
		TotalCallVolume:     callVol,
		TotalPutVolume:      putVol,
		TotalCallVolumeLots: units.ToLots(float64(callVol), snap.LotSize),
		TotalPutVolumeLots:  units.ToLots(float64(putVol), snap.LotSize),
		PutCallRatio:        float64(putOI) / float64(divisor),
	}
}

// Store persists Records with bounded retention.
type Store struct {
	db        *gorm.DB
	retention time.Duration
	clock     func() time.Time
	lotSize   func(symbol string) int

	// serializes appends against their coupled cleanup pass
	mu sync.Mutex
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithRetention overrides the retention horizon.
func WithRetention(d time.Duration) StoreOption {
	return func(s *Store) { s.retention = d }
}

// WithClock injects a time source for tests.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) { s.clock = clock }
}

// WithLotSizeResolver overrides the lot-size lookup used to back-fill lot
// aggregates on records that predate lot-value storage.
func WithLotSizeResolver(fn func(symbol string) int) StoreOption {
	return func(s *Store) { s.lotSize = fn }
}

// NewStore creates a Store and migrates its schema.
func NewStore(db *gorm.DB, opts ...StoreOption) (*Store, error) {
	s := &Store{
		db:        db,
		retention: DefaultRetention,
		clock:     time.Now,
		lotSize:   market.FallbackLotSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate historical_data: %w", err)
	}
	return s, nil
}

// Append inserts rec, then deletes everything past the retention horizon.
// The two run under one lock so a concurrent append never observes a
// half-cleaned store.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("append historical record: %w", err)
	}
	s.cleanupLocked(s.clock().Add(-s.retention))
	return nil
}

// cleanupLocked deletes records captured before cutoff. A failed cleanup is
// logged and absorbed; retention catches up on the next write.
func (s *Store) cleanupLocked(cutoff time.Time) {
	res := s.db.Where("captured_at < ?", cutoff).Delete(&Record{})
	if res.Error != nil {
		observ.Error("history_cleanup_failed", res.Error, nil)
		return
	}
	if res.RowsAffected > 0 {
		observ.Log("history_cleanup", map[string]any{"deleted": res.RowsAffected})
	}
}

// Count reports stored records for a series, for health surfaces and tests.
func (s *Store) Count(symbol, expiry string) (int64, error) {
	var n int64
	err := s.db.Model(&Record{}).Where("symbol = ? AND expiry = ?", symbol, expiry).Count(&n).Error
	return n, err
}
