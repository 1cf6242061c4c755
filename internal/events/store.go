package events

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Insert appends one event to the store. This is the only write path into
// the events table.
func Insert(dbManager cartridge.DBManager, logger *slog.Logger, event *Event) error {
	db := dbManager.GetConnection()

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to store event", slog.Any("error", err))
		return fmt.Errorf("failed to store event: %w", err)
	}

	return nil
}

// CountForDomain returns the total number of events recorded for a domain,
// used by operational checks and tests.
func CountForDomain(db *gorm.DB, domain string) (int64, error) {
	var count int64
	if err := db.Model(&Event{}).Where("domain = ?", domain).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
