// Package timeframe provides the time-period value type used by every
// aggregation query and the bucket-boundary generator behind gap-filled
// time series.
package timeframe

import (
	"fmt"
	"time"
)

// Kind names a period relative to "now", or an explicit custom range.
type Kind string

// Available period kinds
const (
	KindHour   Kind = "hour"
	KindDay    Kind = "day"
	KindWeek   Kind = "week"
	KindMonth  Kind = "month"
	KindCustom Kind = "custom"
)

// namedDurations maps each named kind to its trailing window length.
var namedDurations = map[Kind]time.Duration{
	KindHour:  time.Hour,
	KindDay:   24 * time.Hour,
	KindWeek:  7 * 24 * time.Hour,
	KindMonth: 30 * 24 * time.Hour,
}

// Period is a half-open window [Start, End). It is a value type; nothing in
// it is persisted.
type Period struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

// New derives a named period ending at now.
func New(kind Kind, now time.Time) (Period, error) {
	d, ok := namedDurations[kind]
	if !ok {
		return Period{}, fmt.Errorf("unknown period kind: %s", kind)
	}
	now = now.UTC()
	return Period{Kind: kind, Start: now.Add(-d), End: now}, nil
}

// NewCustom builds an explicit period.
func NewCustom(start, end time.Time) (Period, error) {
	if !start.Before(end) {
		return Period{}, fmt.Errorf("period start must be before end")
	}
	return Period{Kind: KindCustom, Start: start.UTC(), End: end.UTC()}, nil
}

// Parse resolves a period from its wire representation: a named kind, or
// "custom" with explicit bounds.
func Parse(kind string, start, end time.Time, now time.Time) (Period, error) {
	if Kind(kind) == KindCustom {
		return NewCustom(start, end)
	}
	return New(Kind(kind), now)
}

// Duration returns the window length.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Previous derives the equal-length period immediately preceding this one.
// Only named kinds have a previous period.
func (p Period) Previous() (Period, bool) {
	if p.Kind == KindCustom {
		return Period{}, false
	}
	d := p.Duration()
	return Period{Kind: p.Kind, Start: p.Start.Add(-d), End: p.Start}, true
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// BucketBoundaries generates the ordered start times of every bucket of
// size d overlapping [start, end), anchored at the local boundary in tz.
// It is a pure function; callers aggregate against the returned list so the
// gap-fill logic stays independent of the storage engine.
//
// Durations of whole days step by calendar days so buckets stay aligned to
// local midnight across DST transitions. Sub-day durations must divide 24h.
func BucketBoundaries(start, end time.Time, d time.Duration, tz *time.Location) []time.Time {
	if tz == nil {
		tz = time.UTC
	}
	if d <= 0 || !start.Before(end) {
		return nil
	}

	var boundaries []time.Time

	if days := int(d / (24 * time.Hour)); days >= 1 && d%(24*time.Hour) == 0 {
		cur := truncateToLocalMidnight(start, tz)
		for cur.Before(end) {
			boundaries = append(boundaries, cur)
			cur = cur.AddDate(0, 0, days)
		}
		return boundaries
	}

	cur := truncateToLocalClock(start, d, tz)
	for cur.Before(end) {
		boundaries = append(boundaries, cur)
		cur = cur.Add(d)
	}
	return boundaries
}

// BucketFor returns the index of the boundary owning t, or -1 when t
// precedes the first bucket. Boundaries must be ascending, as produced by
// BucketBoundaries.
func BucketFor(boundaries []time.Time, t time.Time) int {
	// Binary search for the last boundary <= t.
	lo, hi := 0, len(boundaries)
	for lo < hi {
		mid := (lo + hi) / 2
		if boundaries[mid].After(t) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo - 1
}

func truncateToLocalMidnight(t time.Time, tz *time.Location) time.Time {
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}

func truncateToLocalClock(t time.Time, d time.Duration, tz *time.Location) time.Time {
	local := t.In(tz)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	offset := local.Sub(midnight)
	return midnight.Add(offset - offset%d)
}
