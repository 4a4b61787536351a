package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind identifies which rule produced an alert.
type Kind string

const (
	KindNegativeOI Kind = "negative_oi"
	KindTotalOI    Kind = "total_oi"
	KindVolume     Kind = "volume_comparison"
)

// Option-type codes used on negative-OI events.
const (
	OptionCall = "CE"
	OptionPut  = "PE"
)

// Event is one delivered alert. Events are persisted only after the
// transport accepted them, so a stored event is always a sent one.
type Event struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserEmail     string    `gorm:"size:255;index" json:"user_email"`
	Symbol        string    `gorm:"size:32;index" json:"symbol"`
	Kind          Kind      `gorm:"column:alert_type;size:32;index" json:"alert_type"`
	Strike        float64   `json:"strike,omitempty"`
	OptionType    string    `gorm:"size:4" json:"option_type,omitempty"`
	MeasuredValue float64   `json:"measured_value"` // lots
	Threshold     float64   `json:"threshold"`      // lots
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
	Status        string    `gorm:"size:16" json:"status"`
}

func (Event) TableName() string { return "alerts" }

// EventStore persists delivered alerts and answers history queries.
type EventStore struct {
	db *gorm.DB
}

// NewEventStore creates an EventStore and migrates its schema.
func NewEventStore(db *gorm.DB) (*EventStore, error) {
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("migrate alerts: %w", err)
	}
	return &EventStore{db: db}, nil
}

// Save stores a delivered event, assigning its ID and sent status.
func (s *EventStore) Save(ev *Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Status = "sent"
	if err := s.db.Create(ev).Error; err != nil {
		return fmt.Errorf("persist alert event: %w", err)
	}
	return nil
}

// EventFilter narrows an alert-history query. Zero fields are ignored.
type EventFilter struct {
	Symbol string
	Kind   Kind
	From   time.Time
	To     time.Time // inclusive of the whole day
}

// List returns a user's alerts newest first, optionally filtered.
func (s *EventStore) List(userEmail string, f EventFilter) ([]Event, error) {
	q := s.db.Where("user_email = ?", userEmail)
	if f.Symbol != "" {
		q = q.Where("symbol = ?", f.Symbol)
	}
	if f.Kind != "" {
		q = q.Where("alert_type = ?", f.Kind)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		// include the entire to-date
		q = q.Where("created_at < ?", f.To.AddDate(0, 0, 1))
	}
	var events []Event
	if err := q.Order("created_at desc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list alert events: %w", err)
	}
	return events, nil
}
