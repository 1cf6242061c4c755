// Package subscriptions stores chat delivery targets for instant alerts and
// scheduled summary reports. Rows are created and updated by the external
// mutation API; the core only reads them, except for the delivery watermark
// written by the report engine.
package subscriptions

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Subscription kinds
const (
	KindInstant = "instant"
	KindSummary = "summary"
)

// Subscription maps (domain, event type) to a chat delivery target.
type Subscription struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	DomainID         uint       `gorm:"index;not null" json:"domain_id"`
	EventType        string     `gorm:"not null" json:"event_type"`
	ChannelID        string     `gorm:"not null" json:"channel_id"`
	TeamID           string     `json:"team_id"`
	DeliveryToken    string     `gorm:"not null" json:"-"`
	Kind             string     `gorm:"index;not null;default:'instant'" json:"kind"`
	CronExpression   string     `json:"cron_expression"` // summary kind only
	LastDeliveryTime *time.Time `json:"last_delivery_time"`
}

// InstantTarget is an instant subscription joined with its domain name, as
// cached by the notification dispatcher.
type InstantTarget struct {
	Subscription
	DomainName string
}

// ListInstantTargets loads every instant subscription that has a usable
// delivery token, joined with its domain, in one pass.
func ListInstantTargets(db *gorm.DB) ([]InstantTarget, error) {
	var targets []InstantTarget
	err := db.Table("subscriptions").
		Select("subscriptions.*, domains.name as domain_name").
		Joins("JOIN domains ON domains.id = subscriptions.domain_id").
		Where("subscriptions.kind = ? AND subscriptions.delivery_token <> ''", KindInstant).
		Scan(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load instant subscriptions: %w", err)
	}
	return targets, nil
}

// SummaryTarget is a summary subscription joined with its domain and the
// owning account id, as consumed by the scheduled report engine.
type SummaryTarget struct {
	Subscription
	DomainName string
	UserID     uint
}

// ListSummaryTargets loads every summary subscription with its domain and
// owner.
func ListSummaryTargets(db *gorm.DB) ([]SummaryTarget, error) {
	var targets []SummaryTarget
	err := db.Table("subscriptions").
		Select("subscriptions.*, domains.name as domain_name, domains.user_id as user_id").
		Joins("JOIN domains ON domains.id = subscriptions.domain_id").
		Where("subscriptions.kind = ? AND subscriptions.delivery_token <> ''", KindSummary).
		Scan(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load summary subscriptions: %w", err)
	}
	return targets, nil
}

// UpdateLastDelivery records a confirmed successful send. This is the only
// field of a subscription the core ever writes.
func UpdateLastDelivery(db *gorm.DB, id uint, at time.Time) error {
	err := db.Model(&Subscription{}).Where("id = ?", id).
		Update("last_delivery_time", at.UTC()).Error
	if err != nil {
		return fmt.Errorf("failed to update delivery watermark: %w", err)
	}
	return nil
}
