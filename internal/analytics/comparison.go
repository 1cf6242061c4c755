package analytics

// ComparisonMetrics represents period-over-period percentage changes for key
// metrics. A nil field means the previous period's value was zero (or the
// period has no previous window) and no change can be computed.
type ComparisonMetrics struct {
	ViewsChange      *float64 `json:"views_change,omitempty"`
	VisitorsChange   *float64 `json:"visitors_change,omitempty"`
	BounceRateChange *float64 `json:"bounce_rate_change,omitempty"`
}

// PercentChange computes the period-over-period change in percent, or nil
// when the previous value is zero.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := ((current - previous) / previous) * 100
	return &change
}

// CompareCounts computes the percentage change between a current count and
// an optional previous count.
func CompareCounts(current int64, previous *int64) *float64 {
	if previous == nil {
		return nil
	}
	return PercentChange(float64(current), float64(*previous))
}
