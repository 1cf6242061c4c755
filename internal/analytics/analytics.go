// Package analytics is the aggregation and query engine: stateless,
// read-only queries over the event store for a resolved time window.
//
// The package is organized into focused modules:
//   - params.go: query parameter composition
//   - drilldown.go: single-dimension filter narrowing any query
//   - totals.go: period totals, uniques, bounces and live visitors
//   - series.go: gap-filled, timezone-aware time series
//   - metrics.go: top-N queries (pages, sources, countries, devices, etc.)
//   - conversions.go: goal conversion counts
//   - comparison.go: period-over-period percentage changes
package analytics

// MetricCountResult represents a generic key-count pair for query results
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
