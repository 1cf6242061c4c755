// Package seeder fills a domain with realistic synthetic traffic for local
// development and demos.
package seeder

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/karloscodes/cartridge"

	"beaconly/internal/domains"
	"beaconly/internal/events"
	"beaconly/internal/pkg/useragent"
	"beaconly/internal/referrers"
	"beaconly/internal/visitors"
)

// Seeder generates synthetic page views for one domain, spread over a
// trailing window so every dashboard period has data.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	Key        visitors.Key
	EventCount int
	Days       int
}

// NewSeeder builds a seeder. eventCount is the total number of events to
// create, spread over the trailing days window.
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, key visitors.Key, eventCount, days int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 30
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		Key:        key,
		EventCount: eventCount,
		Days:       days,
	}
}

// journeys are the page sequences a synthetic visitor walks through.
var journeys = [][]string{
	{"/"},
	{"/", "/about"},
	{"/", "/about", "/contact"},
	{"/", "/features", "/pricing"},
	{"/", "/features", "/pricing", "/signup"},
	{"/blog", "/blog/launch"},
	{"/docs", "/docs/getting-started"},
}

type trafficSource struct {
	referrer string
	source   string
}

var trafficSources = []trafficSource{
	{"", ""}, // direct
	{"", ""},
	{"https://www.google.com/", ""},
	{"https://duckduckgo.com/", ""},
	{"https://github.com/", ""},
	{"", "newsletter"},
	{"https://news.ycombinator.com/", ""},
}

type clientProfile struct {
	userAgent   string
	screenWidth int
}

var clientProfiles = []clientProfile{
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", 1920},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", 1440},
	{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", 1366},
	{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (Version/17.2 Mobile/15E148 Safari/604.1)", 390},
	{"Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (Version/17.2 Mobile/15E148 Safari/604.1)", 820},
}

type place struct {
	city    string
	country string
	iso     string
}

var places = []place{
	{"Berlin", "Germany", "DE"},
	{"Madrid", "Spain", "ES"},
	{"Austin", "United States", "US"},
	{"London", "United Kingdom", "GB"},
	{"Tokyo", "Japan", "JP"},
	{"", "", ""}, // no geo data
}

// SeedDomain creates the configured number of events for an existing domain.
func (s *Seeder) SeedDomain(domainName string) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	domain, err := domains.GetByName(db, domainName)
	if err != nil {
		return fmt.Errorf("cannot seed: %w", err)
	}

	s.Logger.Info("Seeding domain",
		slog.String("domain", domain.Name),
		slog.Int("events", s.EventCount))

	created := 0
	for created < s.EventCount {
		remaining := s.EventCount - created
		n, err := s.seedVisit(domain.Name, remaining)
		if err != nil {
			return err
		}
		created += n
	}

	s.Logger.Info("Seeding completed",
		slog.String("domain", domain.Name),
		slog.Int("events", created),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// seedVisit writes one visitor journey and returns how many events it
// created, capped at limit.
func (s *Seeder) seedVisit(domain string, limit int) (int, error) {
	address := fmt.Sprintf("203.0.113.%d", rand.IntN(254)+1)
	client := clientProfiles[rand.IntN(len(clientProfiles))]
	source := trafficSources[rand.IntN(len(trafficSources))]
	location := places[rand.IntN(len(places))]
	journey := journeys[rand.IntN(len(journeys))]

	visitorID := visitors.ID(s.Key, domain, address, client.userAgent)
	agent := useragent.StdParser{}.Parse(client.userAgent)
	referrerClean := referrers.CleanReferrer(domain, source.referrer)
	sourceClean := referrers.CleanSource(source.source, referrerClean, referrers.StaticSourceDB{})

	// Journeys start at a random point in the window; pages follow a few
	// minutes apart.
	window := time.Duration(s.Days) * 24 * time.Hour
	visitStart := time.Now().UTC().Add(-time.Duration(rand.Int64N(int64(window))))

	created := 0
	for i, path := range journey {
		if created >= limit {
			break
		}

		event := &events.Event{
			Timestamp:       visitStart.Add(time.Duration(i) * time.Duration(1+rand.IntN(4)) * time.Minute),
			Type:            events.TypePageView,
			Domain:          domain,
			Path:            path,
			VisitorID:       visitorID,
			DeviceCategory:  events.DeviceCategoryForWidth(client.screenWidth),
			ReferrerRaw:     source.referrer,
			ReferrerClean:   referrerClean,
			SourceRaw:       source.source,
			SourceClean:     sourceClean,
			UserAgentRaw:    client.userAgent,
			DeviceName:      agent.DeviceName,
			DeviceClass:     agent.DeviceClass,
			OperatingSystem: agent.OperatingSystem,
			AgentName:       agent.AgentName,
			ScreenWidth:     client.screenWidth,
			City:            location.city,
			Country:         location.country,
			CountryISO:      location.iso,
			CreatedAt:       time.Now().UTC(),
		}

		if err := events.Insert(s.DBManager, s.Logger, event); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
