package v1

import (
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// clientAddress resolves the visitor's network address: the first public
// address in a forwarding header wins, then the transport peer address.
// Behind a misconfigured proxy chain everything may be private; loopback is
// the final fallback so ingestion still proceeds.
func clientAddress(c *fiber.Ctx) string {
	if ip := firstPublicAddress(strings.Split(c.Get("X-Forwarded-For"), ",")); ip != "" {
		return ip
	}

	for _, header := range []string{"X-Real-IP", "CF-Connecting-IP", "True-Client-IP"} {
		if ip := firstPublicAddress([]string{c.Get(header)}); ip != "" {
			return ip
		}
	}

	if ip := firstPublicAddress([]string{c.IP()}); ip != "" {
		return ip
	}

	return "127.0.0.1"
}

// firstPublicAddress returns the first routable address in the candidate
// list, preferring IPv4 over IPv6 when both appear.
func firstPublicAddress(candidates []string) string {
	var ipv6Fallback string

	for _, raw := range candidates {
		addr, ok := parseAddress(raw)
		if !ok || addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
			continue
		}

		if addr.Is4() {
			return addr.String()
		}
		if ipv6Fallback == "" {
			ipv6Fallback = addr.String()
		}
	}

	return ipv6Fallback
}

// parseAddress handles the shapes forwarding headers produce: a bare
// address, addr:port, a bracketed IPv6 literal, or a zone suffix.
func parseAddress(raw string) (netip.Addr, bool) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"")
	if clean == "" {
		return netip.Addr{}, false
	}

	if percent := strings.Index(clean, "%"); percent != -1 {
		clean = clean[:percent]
	}

	if addrPort, err := netip.ParseAddrPort(clean); err == nil {
		return addrPort.Addr().Unmap(), true
	}

	clean = strings.TrimSuffix(strings.TrimPrefix(clean, "["), "]")
	if addr, err := netip.ParseAddr(clean); err == nil {
		return addr.Unmap(), true
	}

	return netip.Addr{}, false
}
