package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// topByColumn runs the shared top-N shape: group the scoped events by one
// column, count distinct visitors, drop empty groups, sort descending.
func topByColumn(db *gorm.DB, params QueryParams, column string) ([]MetricCountResult, error) {
	var results []MetricCountResult
	err := params.scoped(db).
		Select(column + " as name, COUNT(DISTINCT visitor_id) as count").
		Group(column).
		Having("count >= 1").
		Order("count DESC").
		Limit(params.limit()).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top %s: %w", column, err)
	}
	return results, nil
}

// TopPages returns the most visited page paths by distinct visitors.
func TopPages(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topByColumn(db, params, "path")
}

// TopScreenSizes returns the most common reported screen widths.
func TopScreenSizes(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult
	err := params.scoped(db).
		Select("CAST(screen_width AS TEXT) as name, COUNT(DISTINCT visitor_id) as count").
		Group("screen_width").
		Having("count >= 1").
		Order("count DESC").
		Limit(params.limit()).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top screen sizes: %w", err)
	}
	return results, nil
}

// TopDevices returns the most common screen-width device buckets.
func TopDevices(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topByColumn(db, params, "device_category")
}

// TopDeviceClasses returns the most common parsed device classes.
func TopDeviceClasses(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topByColumn(db, params, "device_class")
}

// TopOperatingSystems returns the most common operating systems.
func TopOperatingSystems(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topByColumn(db, params, "operating_system")
}

// TopAgents returns the most common user agents.
func TopAgents(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topByColumn(db, params, "agent_name")
}

// CountryCountResult is a per-country visitor count carrying both the ISO
// code and the display name.
type CountryCountResult struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TopCountries returns the most common visitor countries. Events without a
// resolved location group under the empty code.
func TopCountries(db *gorm.DB, params QueryParams) ([]CountryCountResult, error) {
	var results []CountryCountResult
	err := params.scoped(db).
		Select("country_iso as code, country as name, COUNT(DISTINCT visitor_id) as count").
		Group("country_iso").
		Having("count >= 1").
		Order("count DESC").
		Limit(params.limit()).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top countries: %w", err)
	}
	return results, nil
}

// SourceCountResult is a per-traffic-source visitor count. Both fields empty
// means direct traffic.
type SourceCountResult struct {
	Referrer string `json:"referrer"`
	Source   string `json:"source"`
	Count    int64  `json:"count"`
}

// TopSources returns the most common (referrer, source) pairs by distinct
// visitors. Rows with a source but no referrer are an inconsistent state the
// classifier never produces, and are excluded.
func TopSources(db *gorm.DB, params QueryParams) ([]SourceCountResult, error) {
	var results []SourceCountResult
	err := params.scoped(db).
		Select("referrer_clean as referrer, source_clean as source, COUNT(DISTINCT visitor_id) as count").
		Where("NOT (referrer_clean = '' AND source_clean <> '')").
		Group("referrer_clean, source_clean").
		Having("count >= 1").
		Order("count DESC").
		Limit(params.limit()).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top sources: %w", err)
	}
	return results, nil
}
