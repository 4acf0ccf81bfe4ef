package baseurl

import (
	"net"
	"net/netip"
	"strings"
)

// productionFallback is the backend origin used when no override is set and
// the runtime context does not look like development.
const productionFallback = "https://api.frontdoor.rathix.dev"

// RelativePrefix is the same-origin path the frontend uses in development.
// Requests under it are expected to be handled by the companion dev proxy so
// that backend cookies stay same-origin.
const RelativePrefix = "/api"

// Context carries the inputs the resolver depends on. Callers populate it
// from their environment once at startup; Resolve itself reads no globals.
type Context struct {
	// Override is the externally supplied base URL. When non-empty it wins
	// unconditionally.
	Override string

	// Dev indicates a development build.
	Dev bool

	// Host is the active host name of the page, used to detect loopback
	// access when Override is absent.
	Host string
}

// Resolve returns the base URL prepended to every API request path.
//
// Precedence: explicit override, else the relative /api prefix when the
// context is development or the host is loopback, else the production
// fallback with /api appended. The result never ends in a slash.
func Resolve(ctx Context) string {
	// An override that is empty once trimmed (whitespace or bare slashes)
	// is treated as absent, not as a failure.
	if override := trimTrailingSlash(strings.TrimSpace(ctx.Override)); override != "" {
		return override
	}
	if ctx.Dev || IsLoopbackHost(ctx.Host) {
		return RelativePrefix
	}
	return trimTrailingSlash(productionFallback + "/api")
}

// IsLoopbackHost reports whether host names the local machine: localhost,
// *.localhost, or a loopback IP literal. An optional port is ignored.
func IsLoopbackHost(host string) bool {
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.IsLoopback()
	}
	return false
}

func trimTrailingSlash(s string) string {
	return strings.TrimRight(s, "/")
}
