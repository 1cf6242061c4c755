package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"beaconly/internal/domains"
	"beaconly/internal/metrics"
	"beaconly/internal/pkg/geoip"
	"beaconly/internal/pkg/useragent"
	"beaconly/internal/referrers"
	"beaconly/internal/visitors"
)

// ValidationError marks a malformed beacon. Handlers translate it to a
// client error instead of a server error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid beacon: %s %s", e.Field, e.Reason)
}

// Beacon is one raw tracking payload sent by an instrumented page.
type Beacon struct {
	Type        string         `json:"type"`
	URL         string         `json:"url"`
	Domain      string         `json:"domain"`
	Referrer    string         `json:"referrer"`
	Source      string         `json:"source"`
	UserAgent   string         `json:"userAgent"`
	ScreenWidth int            `json:"screenWidth"`
	ExtraData   map[string]any `json:"extraData"`
}

// Notifier receives lightweight event notifications from the pipeline.
// Offer must never block; it reports whether the notification was accepted.
type Notifier interface {
	Offer(domain, eventType string) bool
}

// Collector is the ingestion pipeline: it enriches, anonymizes and persists
// incoming beacons, then signals the notification dispatcher.
type Collector struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	key       visitors.Key
	geo       geoip.Lookup
	agents    useragent.Parser
	sources   referrers.SourceDB
	notifier  Notifier
	now       func() time.Time
}

// NewCollector wires the pipeline. geo and notifier may be nil; enrichment
// and notifications degrade gracefully without them.
func NewCollector(
	dbManager cartridge.DBManager,
	logger *slog.Logger,
	key visitors.Key,
	geo geoip.Lookup,
	agents useragent.Parser,
	sources referrers.SourceDB,
	notifier Notifier,
) *Collector {
	return &Collector{
		dbManager: dbManager,
		logger:    logger,
		key:       key,
		geo:       geo,
		agents:    agents,
		sources:   sources,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Collect runs the full pipeline for one beacon. Enrichment failures degrade
// to empty fields; only a persistence failure is fatal to the request.
func (c *Collector) Collect(clientAddress string, beacon *Beacon) error {
	domain, path, err := resolveTarget(beacon)
	if err != nil {
		metrics.EventsRejected.Inc()
		return err
	}

	// Geo and UA enrichment run concurrently within the request. Both must
	// settle before persistence, and neither may fail the beacon.
	var (
		wg       sync.WaitGroup
		location *geoip.Location
		agent    useragent.Agent
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer c.recoverEnrichment("geo")
		if c.geo == nil {
			return
		}
		loc, err := c.geo.Locate(clientAddress)
		if err != nil {
			c.logger.Warn("Geo lookup failed, continuing without location",
				slog.Any("error", err))
			return
		}
		location = loc
	}()
	go func() {
		defer wg.Done()
		defer c.recoverEnrichment("user_agent")
		if c.agents != nil {
			agent = c.agents.Parse(beacon.UserAgent)
		}
	}()
	wg.Wait()

	if agent.Bot {
		c.logger.Debug("Skipping bot event",
			slog.String("domain", domain),
			slog.String("user_agent", beacon.UserAgent))
		return nil
	}

	referrerClean := referrers.CleanReferrer(domain, beacon.Referrer)
	sourceClean := referrers.CleanSource(beacon.Source, referrerClean, c.sources)

	event := &Event{
		Timestamp:       c.now(),
		Type:            beacon.Type,
		Domain:          domain,
		Path:            path,
		VisitorID:       visitors.ID(c.key, domain, clientAddress, beacon.UserAgent),
		DeviceCategory:  DeviceCategoryForWidth(beacon.ScreenWidth),
		ReferrerRaw:     beacon.Referrer,
		ReferrerClean:   referrerClean,
		SourceRaw:       beacon.Source,
		SourceClean:     sourceClean,
		UserAgentRaw:    beacon.UserAgent,
		DeviceName:      agent.DeviceName,
		DeviceClass:     agent.DeviceClass,
		OperatingSystem: agent.OperatingSystem,
		AgentName:       agent.AgentName,
		ScreenWidth:     beacon.ScreenWidth,
		ExtraData:       extraDataJSON(beacon.ExtraData),
		CreatedAt:       c.now(),
	}
	if location != nil {
		event.City = location.City
		event.Country = location.Country
		event.CountryISO = location.CountryISO
	}

	if err := Insert(c.dbManager, c.logger, event); err != nil {
		return err
	}
	metrics.EventsIngested.Inc()

	// Best effort: a saturated dispatcher must never slow down or fail the
	// hot path.
	if c.notifier != nil && !c.notifier.Offer(domain, beacon.Type) {
		c.logger.Warn("Notification queue full, dropping notification",
			slog.String("domain", domain),
			slog.String("event_type", beacon.Type))
	}

	return nil
}

func (c *Collector) recoverEnrichment(stage string) {
	if r := recover(); r != nil {
		c.logger.Warn("Enrichment panicked, continuing without it",
			slog.String("stage", stage),
			slog.Any("panic", r))
	}
}

// resolveTarget determines the effective domain and path for a beacon: the
// explicit domain field wins, otherwise the host parsed from the URL.
func resolveTarget(beacon *Beacon) (domain, path string, err error) {
	if beacon.Type == "" {
		return "", "", &ValidationError{Field: "type", Reason: "is required"}
	}

	path = "/"
	if beacon.URL != "" {
		parsed, parseErr := url.Parse(beacon.URL)
		if parseErr == nil {
			if parsed.Path != "" {
				path = parsed.Path
			}
			if beacon.Domain == "" {
				domain = parsed.Hostname()
			}
		} else if beacon.Domain == "" {
			return "", "", &ValidationError{Field: "url", Reason: "is not a valid URL"}
		}
	}

	if beacon.Domain != "" {
		domain = beacon.Domain
	}
	domain = domains.NormalizeName(domain)
	if domain == "" {
		return "", "", &ValidationError{Field: "domain", Reason: "could not be resolved from beacon"}
	}

	return domain, path, nil
}

func extraDataJSON(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return ""
	}
	return string(data)
}
