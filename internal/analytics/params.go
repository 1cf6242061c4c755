package analytics

import (
	"time"

	"gorm.io/gorm"

	"beaconly/internal/events"
	"beaconly/internal/timeframe"
)

// defaultLimit is the number of rows top-N queries return when the caller
// does not ask for a specific count.
const defaultLimit = 10

// QueryParams scopes every aggregation query: which domain, which window,
// which timezone buckets are anchored to, and an optional drilldown filter.
// DomainID is the id of the already-authorized domain; access control happens
// before a QueryParams is built.
type QueryParams struct {
	Domain    string
	DomainID  uint
	Period    timeframe.Period
	Timezone  *time.Location
	Drilldown *Drilldown
	Limit     int
}

// NewQueryParams builds query params for an authorized domain. A nil
// timezone falls back to UTC.
func NewQueryParams(domain string, domainID uint, period timeframe.Period, tz *time.Location) QueryParams {
	if tz == nil {
		tz = time.UTC
	}
	return QueryParams{
		Domain:   domain,
		DomainID: domainID,
		Period:   period,
		Timezone: tz,
		Limit:    defaultLimit,
	}
}

// WithDrilldown returns a copy of the params narrowed by a drilldown filter.
func (p QueryParams) WithDrilldown(d *Drilldown) QueryParams {
	p.Drilldown = d
	return p
}

func (p QueryParams) limit() int {
	if p.Limit > 0 {
		return p.Limit
	}
	return defaultLimit
}

// scoped returns the base query every aggregation operation starts from:
// events of the domain inside the period window, narrowed by the drilldown
// when one is set.
func (p QueryParams) scoped(db *gorm.DB) *gorm.DB {
	q := db.Model(&events.Event{}).
		Where("domain = ?", p.Domain).
		Where("timestamp >= ? AND timestamp < ?", p.Period.Start.UTC(), p.Period.End.UTC())
	if p.Drilldown != nil {
		q = p.Drilldown.apply(q)
	}
	return q
}

// previous derives the params for the immediately preceding period, or false
// for custom periods which have no previous window.
func (p QueryParams) previous() (QueryParams, bool) {
	prev, ok := p.Period.Previous()
	if !ok {
		return QueryParams{}, false
	}
	p.Period = prev
	return p, true
}
