// Package accounts is a read-only view of the externally managed account
// store. The core needs it for domain ownership checks and for resolving
// the timezone scheduled reports are rendered in.
package accounts

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Account is the slice of the external account record the core reads.
type Account struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Timezone  string    `gorm:"default:'UTC'" json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// GetByID retrieves an account.
func GetByID(db *gorm.DB, id uint) (*Account, error) {
	var account Account
	if err := db.First(&account, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	return &account, nil
}

// Location resolves the account's timezone, falling back to UTC when the
// stored name is blank or invalid.
func (a *Account) Location() *time.Location {
	if a == nil || a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ErrNotFound reports whether err means the account does not exist.
func ErrNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
