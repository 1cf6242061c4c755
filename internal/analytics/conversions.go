package analytics

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"beaconly/internal/goals"
)

// GoalConversion is the distinct-visitor conversion count for one goal.
type GoalConversion struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Goals computes the distinct-visitor conversion count for every goal of the
// domain, sorted by count descending. A goal with a blank path matches
// events of its type at any path.
func Goals(db *gorm.DB, params QueryParams) ([]GoalConversion, error) {
	configured, err := goals.ListForDomain(db, params.DomainID)
	if err != nil {
		return nil, err
	}

	conversions := make([]GoalConversion, 0, len(configured))
	for _, goal := range configured {
		q := params.scoped(db).Where("type = ?", goal.EventType)
		if goal.Path != "" {
			q = q.Where("path = ?", goal.Path)
		}

		var count int64
		if err := q.Distinct("visitor_id").Count(&count).Error; err != nil {
			return nil, fmt.Errorf("error counting conversions for goal %q: %w", goal.Name, err)
		}
		conversions = append(conversions, GoalConversion{Name: goal.Name, Count: count})
	}

	sort.SliceStable(conversions, func(i, j int) bool {
		return conversions[i].Count > conversions[j].Count
	})

	return conversions, nil
}
