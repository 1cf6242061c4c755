package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"beaconly/internal/timeframe"
)

// SeriesPoint is one bucket of a gap-filled time series. Timestamp is the
// bucket's start boundary.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int64     `json:"count"`
}

// Bucketed returns the raw event count per bucket of the given duration,
// anchored at the query timezone's local boundary. Every bucket overlapping
// the period is present even when empty, in ascending order.
func Bucketed(db *gorm.DB, params QueryParams, bucket time.Duration) ([]SeriesPoint, error) {
	return bucketedSeries(db, params, bucket, false)
}

// BucketedUnique is Bucketed counting distinct visitors per bucket instead
// of raw events.
func BucketedUnique(db *gorm.DB, params QueryParams, bucket time.Duration) ([]SeriesPoint, error) {
	return bucketedSeries(db, params, bucket, true)
}

// bucketedSeries scans (timestamp, visitor_id) pairs once and aggregates
// them in Go against the generated bucket boundaries, keeping the gap-fill
// independent of the storage engine.
func bucketedSeries(db *gorm.DB, params QueryParams, bucket time.Duration, unique bool) ([]SeriesPoint, error) {
	boundaries := timeframe.BucketBoundaries(params.Period.Start, params.Period.End, bucket, params.Timezone)
	if len(boundaries) == 0 {
		return nil, fmt.Errorf("invalid bucket duration: %s", bucket)
	}

	var rows []struct {
		Timestamp time.Time
		VisitorID int64
	}
	err := params.scoped(db).
		Select("timestamp, visitor_id").
		Order("timestamp ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching events for series: %w", err)
	}

	points := make([]SeriesPoint, len(boundaries))
	for i, boundary := range boundaries {
		points[i] = SeriesPoint{Timestamp: boundary}
	}

	var seen []map[int64]struct{}
	if unique {
		seen = make([]map[int64]struct{}, len(boundaries))
	}

	for _, row := range rows {
		i := timeframe.BucketFor(boundaries, row.Timestamp)
		if i < 0 {
			continue
		}
		if !unique {
			points[i].Count++
			continue
		}
		if seen[i] == nil {
			seen[i] = make(map[int64]struct{})
		}
		if _, dup := seen[i][row.VisitorID]; !dup {
			seen[i][row.VisitorID] = struct{}{}
			points[i].Count++
		}
	}

	return points, nil
}
