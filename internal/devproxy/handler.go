package devproxy

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// NewHandler creates a reverse proxy handler that forwards requests under the
// rule's path prefix to the rule's target origin, preserving the request path
// so the backend sees the same /api/... routes the browser asked for.
func NewHandler(rule Rule) (http.Handler, error) {
	target, err := url.Parse(rule.TargetOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target %q: %w", rule.TargetOrigin, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("proxy target %q must be an absolute http or https URL", rule.TargetOrigin)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if rule.RewriteHostHeader {
				pr.Out.Host = target.Host
			}
			if rule.Observer != nil {
				rule.Observer.ObserveRequest(pr.In.Method, pr.In.URL.Path, pr.Out.URL.String())
			}
		},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !rule.VerifyTLSCertificate,
			},
		},
		ModifyResponse: func(resp *http.Response) error {
			rewriteCookieDomains(resp.Header, rule.CookieDomainRewrite)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("Proxy upstream error", "path", r.URL.Path, "target", rule.TargetOrigin, "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return proxy, nil
}

// rewriteCookieDomains rewrites the Domain attribute of every Set-Cookie
// header. An empty domain removes the attribute so the browser applies the
// cookie to the host it received the response from.
func rewriteCookieDomains(header http.Header, domain string) {
	cookies := header["Set-Cookie"]
	if len(cookies) == 0 {
		return
	}
	rewritten := make([]string, 0, len(cookies))
	for _, c := range cookies {
		rewritten = append(rewritten, rewriteCookieDomain(c, domain))
	}
	header["Set-Cookie"] = rewritten
}

func rewriteCookieDomain(cookie, domain string) string {
	parts := strings.Split(cookie, ";")
	out := parts[:0]
	for _, part := range parts {
		if strings.EqualFold(strings.TrimSpace(strings.SplitN(part, "=", 2)[0]), "domain") {
			continue
		}
		out = append(out, part)
	}
	result := strings.Join(out, ";")
	if domain != "" {
		result += "; Domain=" + domain
	}
	return result
}
