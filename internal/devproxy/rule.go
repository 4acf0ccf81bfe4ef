package devproxy

import "strings"

const (
	// DefaultPathPrefix is the request path prefix the gateway intercepts.
	DefaultPathPrefix = "/api"

	// DefaultTarget is the backend origin used in development when no
	// override is configured.
	DefaultTarget = "http://localhost:5000"
)

// Rule declares how requests under a path prefix are forwarded to a backend
// origin. It is built once at startup and read on every matching request.
type Rule struct {
	// PathPrefix is the request path prefix to intercept.
	PathPrefix string

	// TargetOrigin is the backend origin requests are forwarded to. The
	// request path is preserved across the hop.
	TargetOrigin string

	// RewriteHostHeader rewrites the forwarded Host header to match the
	// target, so name-based backends accept the request.
	RewriteHostHeader bool

	// VerifyTLSCertificate controls upstream certificate verification.
	// It must track the target scheme: false for plain-HTTP loopback
	// targets, true for TLS origins.
	VerifyTLSCertificate bool

	// CookieDomainRewrite is the domain written into upstream Set-Cookie
	// headers. The empty string strips the Domain attribute entirely, so
	// the browser scopes cookies to the gateway's own host.
	CookieDomainRewrite string

	// Observer, when non-nil, is notified of every proxied request.
	Observer RequestObserver
}

// DefaultRule returns the development proxy rule for targetOverride, falling
// back to DefaultTarget when the override is empty. TLS verification follows
// the target scheme.
func DefaultRule(targetOverride string) Rule {
	target := strings.TrimSpace(targetOverride)
	if target == "" {
		target = DefaultTarget
	}
	target = strings.TrimRight(target, "/")
	return Rule{
		PathPrefix:           DefaultPathPrefix,
		TargetOrigin:         target,
		RewriteHostHeader:    true,
		VerifyTLSCertificate: strings.HasPrefix(target, "https://"),
		CookieDomainRewrite:  "",
	}
}

// WithObserver returns a copy of the rule with the observer attached.
func (r Rule) WithObserver(obs RequestObserver) Rule {
	r.Observer = obs
	return r
}
