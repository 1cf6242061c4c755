package events

import "time"

// Built-in event types. Anything else is a custom event named by the tracker.
const (
	TypePageView = "pageview"
)

// Event is a single enriched tracking beacon. Rows are created once by the
// ingestion pipeline and never mutated; retention is handled outside the
// core.
type Event struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp       time.Time `gorm:"index:idx_domain_timestamp;not null"`
	Type            string    `gorm:"index;not null"`
	Domain          string    `gorm:"index:idx_domain_timestamp;not null"` // stored without "www."
	Path            string    `gorm:"index;not null"`
	VisitorID       int64     `gorm:"index;not null"`
	DeviceCategory  string    // screen-width bucket: mobile/tablet/laptop/desktop
	ReferrerRaw     string
	ReferrerClean   string `gorm:"index"` // "" means direct/unknown
	SourceRaw       string
	SourceClean     string `gorm:"index"` // "" means direct/unknown
	UserAgentRaw    string
	DeviceName      string
	DeviceClass     string
	OperatingSystem string
	AgentName       string
	City            string // "" when geo lookup unavailable
	Country         string
	CountryISO      string `gorm:"index"`
	ScreenWidth     int
	ExtraData       string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"index"`
}
