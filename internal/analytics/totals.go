package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"beaconly/internal/events"
)

// Count returns the total number of events in the period.
func Count(db *gorm.DB, params QueryParams) (int64, error) {
	var count int64
	if err := params.scoped(db).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return count, nil
}

// PreviousCount returns the event total for the immediately preceding period
// of equal length, or nil for custom periods which have no previous window.
func PreviousCount(db *gorm.DB, params QueryParams) (*int64, error) {
	prev, ok := params.previous()
	if !ok {
		return nil, nil
	}
	count, err := Count(db, prev)
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// CountUnique returns the number of distinct visitors in the period.
func CountUnique(db *gorm.DB, params QueryParams) (int64, error) {
	var count int64
	err := params.scoped(db).Distinct("visitor_id").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting unique visitors: %w", err)
	}
	return count, nil
}

// PreviousCountUnique returns the distinct-visitor total for the preceding
// period, or nil for custom periods.
func PreviousCountUnique(db *gorm.DB, params QueryParams) (*int64, error) {
	prev, ok := params.previous()
	if !ok {
		return nil, nil
	}
	count, err := CountUnique(db, prev)
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// BounceCount returns the number of distinct visitors with exactly one event
// in the period. This is a visitor-level bounce, not a session-level one.
func BounceCount(db *gorm.DB, params QueryParams) (int64, error) {
	sub := params.scoped(db).
		Select("visitor_id").
		Group("visitor_id").
		Having("COUNT(*) = 1")

	var count int64
	err := db.Table("(?) as bounced", sub).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting bounces: %w", err)
	}
	return count, nil
}

// PreviousBounceCount returns the bounce count for the preceding period, or
// nil for custom periods.
func PreviousBounceCount(db *gorm.DB, params QueryParams) (*int64, error) {
	prev, ok := params.previous()
	if !ok {
		return nil, nil
	}
	count, err := BounceCount(db, prev)
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// LiveUnique returns the number of distinct visitors seen in the trailing
// window ending at now. It ignores the caller's period and drilldown.
func LiveUnique(db *gorm.DB, domain string, window time.Duration, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&events.Event{}).
		Where("domain = ?", domain).
		Where("timestamp >= ? AND timestamp < ?", now.UTC().Add(-window), now.UTC()).
		Distinct("visitor_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting live visitors: %w", err)
	}
	return count, nil
}
