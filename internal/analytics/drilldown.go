package analytics

import (
	"time"

	"gorm.io/gorm"
)

// drilldownKind tags which single dimension a Drilldown narrows on.
type drilldownKind int

const (
	drilldownReferrer drilldownKind = iota + 1
	drilldownDirect
	drilldownPage
	drilldownCountry
	drilldownDevice
	drilldownDeviceName
	drilldownDeviceClass
	drilldownOperatingSystem
	drilldownAgent
	drilldownTimeRange
)

// Drilldown narrows an aggregation query to events matching exactly one
// dimension. Values are built through the constructors below so a Drilldown
// can never carry more than one active dimension.
type Drilldown struct {
	kind       drilldownKind
	referrer   string
	source     string
	value      string
	start, end time.Time
}

// DrilldownReferrer narrows to events with the given cleaned referrer and
// source pair.
func DrilldownReferrer(referrer, source string) *Drilldown {
	return &Drilldown{kind: drilldownReferrer, referrer: referrer, source: source}
}

// DrilldownDirect narrows to direct traffic: no referrer and no source.
func DrilldownDirect() *Drilldown {
	return &Drilldown{kind: drilldownDirect}
}

// DrilldownPage narrows to events on one page path.
func DrilldownPage(path string) *Drilldown {
	return &Drilldown{kind: drilldownPage, value: path}
}

// DrilldownCountry narrows to one country by ISO code.
func DrilldownCountry(iso string) *Drilldown {
	return &Drilldown{kind: drilldownCountry, value: iso}
}

// DrilldownDevice narrows to one screen-width device bucket.
func DrilldownDevice(category string) *Drilldown {
	return &Drilldown{kind: drilldownDevice, value: category}
}

// DrilldownDeviceName narrows to one parsed device name.
func DrilldownDeviceName(name string) *Drilldown {
	return &Drilldown{kind: drilldownDeviceName, value: name}
}

// DrilldownDeviceClass narrows to one parsed device class.
func DrilldownDeviceClass(class string) *Drilldown {
	return &Drilldown{kind: drilldownDeviceClass, value: class}
}

// DrilldownOperatingSystem narrows to one operating system.
func DrilldownOperatingSystem(os string) *Drilldown {
	return &Drilldown{kind: drilldownOperatingSystem, value: os}
}

// DrilldownAgent narrows to one user agent name.
func DrilldownAgent(name string) *Drilldown {
	return &Drilldown{kind: drilldownAgent, value: name}
}

// DrilldownTime narrows to an explicit sub-range inside the query period.
func DrilldownTime(start, end time.Time) *Drilldown {
	return &Drilldown{kind: drilldownTimeRange, start: start.UTC(), end: end.UTC()}
}

// apply adds the drilldown's predicate to a scoped query.
func (d *Drilldown) apply(q *gorm.DB) *gorm.DB {
	switch d.kind {
	case drilldownReferrer:
		return q.Where("referrer_clean = ? AND source_clean = ?", d.referrer, d.source)
	case drilldownDirect:
		return q.Where("referrer_clean = '' AND source_clean = ''")
	case drilldownPage:
		return q.Where("path = ?", d.value)
	case drilldownCountry:
		return q.Where("country_iso = ?", d.value)
	case drilldownDevice:
		return q.Where("device_category = ?", d.value)
	case drilldownDeviceName:
		return q.Where("device_name = ?", d.value)
	case drilldownDeviceClass:
		return q.Where("device_class = ?", d.value)
	case drilldownOperatingSystem:
		return q.Where("operating_system = ?", d.value)
	case drilldownAgent:
		return q.Where("agent_name = ?", d.value)
	case drilldownTimeRange:
		return q.Where("timestamp >= ? AND timestamp < ?", d.start, d.end)
	default:
		return q
	}
}
