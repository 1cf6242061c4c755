// Package referrers classifies raw referrer URLs into cleaned hostnames and
// canonical traffic-source labels. All functions are pure; the known-source
// table acts as the referrer database consulted during ingestion.
package referrers

import (
	"net/url"
	"strings"
)

// SourceDB resolves a referrer hostname to a canonical source label
// ("google.com" -> "Google"). Implementations must be safe for concurrent use.
type SourceDB interface {
	Lookup(hostname string) (string, bool)
}

// CleanReferrer parses referrerURL and returns the referrer hostname with a
// leading "www." stripped. It returns "" (direct traffic) when the URL is
// empty, unparseable or hostless, when the referrer is the tracked domain
// itself, or when it is localhost.
func CleanReferrer(ownDomain, referrerURL string) string {
	if referrerURL == "" {
		return ""
	}

	parsed, err := url.Parse(referrerURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}

	host = StripWWW(host)
	if host == StripWWW(strings.ToLower(ownDomain)) || host == "localhost" {
		return ""
	}

	return host
}

// CleanSource resolves the canonical traffic-source label for an event.
// Priority: an explicit source query parameter wins, then the referrer
// database match, then the cleaned referrer hostname itself. Returns "" for
// direct/unknown traffic.
func CleanSource(explicitSource, cleanedReferrer string, db SourceDB) string {
	if s := strings.TrimSpace(explicitSource); s != "" {
		return s
	}

	if cleanedReferrer != "" && db != nil {
		if label, ok := db.Lookup(cleanedReferrer); ok {
			return label
		}
	}

	return cleanedReferrer
}

// StripWWW removes a single leading "www." from a hostname.
func StripWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}
