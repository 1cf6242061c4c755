// Package geoip resolves client addresses to city/country information using
// a MaxMind GeoLite2 City database. The database is optional: a nil *Reader
// is a valid lookup that always misses, so ingestion works without geo data.
package geoip

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
	"github.com/pariz/gountries"
)

// Location is the result of a successful IP lookup.
type Location struct {
	City       string
	Country    string
	CountryISO string
}

// Lookup resolves an IP address to an optional location.
type Lookup interface {
	Locate(ipAddress string) (*Location, error)
}

// Reader wraps a GeoLite2 database handle.
type Reader struct {
	db        *geoip2.Reader
	countries *gountries.Query
	logger    *slog.Logger
}

// Open opens the GeoLite2 City database at path. A missing or unconfigured
// database is not an error; it returns a nil Reader and geo enrichment is
// disabled.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	if path == "" {
		logger.Debug("GeoIP database path not configured - geo enrichment disabled")
		return nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("GeoLite2 database not found - geo enrichment disabled",
			slog.String("path", path),
			slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		return nil, nil
	}

	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoLite2 database: %w", err)
	}

	logger.Info("GeoLite2 database initialized", slog.String("path", path))

	return &Reader{
		db:        db,
		countries: gountries.New(),
		logger:    logger,
	}, nil
}

// Locate resolves an IP address to a Location. Returns (nil, nil) when the
// reader is disabled or the address yields no usable record.
func (r *Reader) Locate(ipAddress string) (*Location, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return nil, fmt.Errorf("unparseable IP address: %q", ipAddress)
	}

	record, err := r.db.City(ip)
	if err != nil {
		return nil, fmt.Errorf("GeoLite2 lookup failed: %w", err)
	}

	iso := record.Country.IsoCode
	if iso == "" || iso == "--" {
		return nil, nil
	}

	loc := &Location{
		City:       record.City.Names["en"],
		Country:    record.Country.Names["en"],
		CountryISO: iso,
	}

	// Prefer the curated short name over MaxMind's, when we have one.
	if country, err := r.countries.FindCountryByAlpha(iso); err == nil {
		loc.Country = country.Name.Common
	}

	return loc, nil
}

// Close releases the underlying database handle.
func (r *Reader) Close() {
	if r != nil && r.db != nil {
		r.db.Close()
	}
}
