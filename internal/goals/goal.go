// Package goals holds conversion goal definitions. Goals are created and
// deleted by the external mutation API; the aggregation engine only reads
// them.
package goals

import (
	"fmt"

	"gorm.io/gorm"
)

// Goal defines a conversion: an event counts toward it when the event type
// matches and either the goal path is blank (any path) or the event path
// equals it.
type Goal struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DomainID    uint   `gorm:"index;not null" json:"domain_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	EventType   string `gorm:"not null" json:"event_type"`
	Path        string `json:"path"` // blank means "any path"
}

// ListForDomain retrieves all goals configured for a domain.
func ListForDomain(db *gorm.DB, domainID uint) ([]Goal, error) {
	var goals []Goal
	if err := db.Where("domain_id = ?", domainID).Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// Matches reports whether an event with the given type and path counts
// toward the goal.
func (g Goal) Matches(eventType, path string) bool {
	if g.EventType != eventType {
		return false
	}
	return g.Path == "" || g.Path == path
}
