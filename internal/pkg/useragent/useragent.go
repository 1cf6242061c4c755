// Package useragent parses raw User-Agent strings into the fields the
// analytics engine aggregates on.
package useragent

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// Device classes
const (
	ClassMobile  = "mobile"
	ClassTablet  = "tablet"
	ClassDesktop = "desktop"
	ClassBot     = "bot"
	ClassUnknown = "unknown"
)

// Agent holds the parsed user agent fields.
type Agent struct {
	DeviceName      string // hardware name, e.g. "iPhone"
	DeviceClass     string // mobile/tablet/desktop/bot/unknown
	OperatingSystem string
	AgentName       string // browser or client name
	Bot             bool
}

// Parser turns a raw User-Agent header into an Agent. Implementations must
// be safe for concurrent use.
type Parser interface {
	Parse(userAgent string) Agent
}

// StdParser is the default Parser. The zero value is ready to use.
type StdParser struct{}

// Parse classifies a raw User-Agent string. Unknown fields come back empty
// rather than failing; a blank input yields an unknown device class.
func (StdParser) Parse(userAgent string) Agent {
	if strings.TrimSpace(userAgent) == "" {
		return Agent{DeviceClass: ClassUnknown}
	}

	parsed := ua.Parse(userAgent)

	agent := Agent{
		DeviceName:      parsed.Device,
		OperatingSystem: NormalizeOS(parsed.OS),
		AgentName:       parsed.Name,
		Bot:             parsed.Bot,
	}

	switch {
	case parsed.Bot:
		agent.DeviceClass = ClassBot
	case parsed.Mobile:
		agent.DeviceClass = ClassMobile
	case parsed.Tablet:
		agent.DeviceClass = ClassTablet
	case parsed.Desktop:
		agent.DeviceClass = ClassDesktop
	default:
		agent.DeviceClass = ClassUnknown
	}

	return agent
}

// NormalizeOS standardizes operating system names so the same platform does
// not split into several aggregation buckets.
func NormalizeOS(os string) string {
	if os == "" {
		return ""
	}

	osLower := strings.ToLower(os)

	switch {
	case strings.Contains(osLower, "mac"), strings.Contains(osLower, "darwin"):
		return "MacOS"
	case strings.Contains(osLower, "linux"), strings.Contains(osLower, "gnu/linux"):
		return "Linux"
	case strings.Contains(osLower, "ios"), strings.Contains(osLower, "iphone os"):
		return "iOS"
	case strings.Contains(osLower, "android"):
		return "Android"
	case strings.Contains(osLower, "windows"):
		return "Windows"
	}

	return strings.ToUpper(os[:1]) + strings.ToLower(os[1:])
}
