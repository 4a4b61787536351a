package alert

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gnana990/Equity-updated/internal/observ"
)

// UserAccount is a registered dashboard user. Authentication lives outside
// this core; the account table exists so the background alert pass can
// iterate every user, not just those seen since the last restart.
type UserAccount struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserAccount) TableName() string { return "users" }

// UserStore persists user accounts.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore and migrates its schema.
func NewUserStore(db *gorm.DB) (*UserStore, error) {
	if err := db.AutoMigrate(&UserAccount{}); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return &UserStore{db: db}, nil
}

// Ensure registers email, idempotently.
func (s *UserStore) Ensure(email string) error {
	acct := UserAccount{Email: email}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&acct).Error
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", email, err)
	}
	return nil
}

// Emails returns all registered user emails.
func (s *UserStore) Emails() ([]string, error) {
	var emails []string
	if err := s.db.Model(&UserAccount{}).Order("email").Pluck("email", &emails).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return emails, nil
}

// LoadAll seeds the registry with every stored user so background evaluation
// covers them from the first cycle. Returns how many were loaded.
func LoadAll(users *UserStore, registry *Registry) int {
	emails, err := users.Emails()
	if err != nil {
		observ.Error("load_user_settings_failed", err, nil)
		return 0
	}
	for _, email := range emails {
		registry.Ensure(email)
	}
	observ.Log("user_settings_loaded", map[string]any{"users": len(emails)})
	return len(emails)
}
