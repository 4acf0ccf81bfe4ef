package devproxy

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// recordingObserver captures proxied requests for assertions.
type recordingObserver struct {
	mu       sync.Mutex
	requests []observedRequest
}

type observedRequest struct {
	method string
	path   string
	target string
}

func (o *recordingObserver) ObserveRequest(method, path, target string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, observedRequest{method, path, target})
}

func (o *recordingObserver) all() []observedRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observedRequest(nil), o.requests...)
}

func startLocalHTTPServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping network-bound test: cannot bind loopback socket: %v", err)
	}
	srv := httptest.NewUnstartedServer(h)
	srv.Listener = ln
	srv.Start()
	return srv
}

func ruleFor(target string) Rule {
	rule := DefaultRule("")
	rule.TargetOrigin = target
	return rule
}

func TestHandlerForwardsWithPathPreserved(t *testing.T) {
	backend := startLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("backend:" + r.URL.Path))
	}))
	defer backend.Close()

	handler, err := NewHandler(ruleFor(backend.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "backend:/api/customers" {
		t.Errorf("expected 'backend:/api/customers', got %q", rec.Body.String())
	}
}

func TestHandlerRewritesHostHeader(t *testing.T) {
	var gotHost string
	backend := startLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
	}))
	defer backend.Close()

	handler, err := NewHandler(ruleFor(backend.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Host = "frontdoor.localhost:4173"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	want := strings.TrimPrefix(backend.URL, "http://")
	if gotHost != want {
		t.Errorf("backend saw Host %q, want %q", gotHost, want)
	}
}

func TestHandlerStripsCookieDomain(t *testing.T) {
	backend := startLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "session=abc123; Domain=api.example.com; Path=/; HttpOnly")
		w.Header().Add("Set-Cookie", "csrf=tok; Path=/")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	handler, err := NewHandler(ruleFor(backend.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Header().Values("Set-Cookie")
	if len(cookies) != 2 {
		t.Fatalf("expected 2 Set-Cookie headers, got %d", len(cookies))
	}
	for _, c := range cookies {
		if strings.Contains(strings.ToLower(c), "domain=") {
			t.Errorf("cookie still carries a Domain attribute: %q", c)
		}
	}
	if !strings.Contains(cookies[0], "session=abc123") {
		t.Errorf("session cookie mangled: %q", cookies[0])
	}
	if !strings.Contains(cookies[0], "HttpOnly") {
		t.Errorf("non-domain attributes must survive the rewrite: %q", cookies[0])
	}
}

func TestHandlerRewritesCookieDomain(t *testing.T) {
	backend := startLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "session=abc123; Domain=api.example.com; Path=/")
	}))
	defer backend.Close()

	rule := ruleFor(backend.URL)
	rule.CookieDomainRewrite = "dev.localhost"
	handler, err := NewHandler(rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get("Set-Cookie")
	if !strings.Contains(got, "Domain=dev.localhost") {
		t.Errorf("expected rewritten domain, got %q", got)
	}
	if strings.Contains(got, "api.example.com") {
		t.Errorf("original domain leaked through: %q", got)
	}
}

func TestHandlerNotifiesObserver(t *testing.T) {
	backend := startLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	obs := &recordingObserver{}
	handler, err := NewHandler(ruleFor(backend.URL).WithObserver(obs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/invoices/42", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	requests := obs.all()
	if len(requests) != 1 {
		t.Fatalf("expected 1 observed request, got %d", len(requests))
	}
	if requests[0].method != http.MethodDelete {
		t.Errorf("observed method = %q, want DELETE", requests[0].method)
	}
	if requests[0].path != "/api/invoices/42" {
		t.Errorf("observed path = %q, want /api/invoices/42", requests[0].path)
	}
	if !strings.HasSuffix(requests[0].target, "/api/invoices/42") {
		t.Errorf("observed target = %q, want suffix /api/invoices/42", requests[0].target)
	}
}

func TestHandlerUpstreamDown(t *testing.T) {
	// Port 0 never accepts connections, so the proxy hop must fail.
	handler, err := NewHandler(ruleFor("http://127.0.0.1:0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}
}

func TestNewHandlerInvalidTarget(t *testing.T) {
	tests := []string{"://invalid", "localhost:5000", "ftp://example.com"}
	for _, target := range tests {
		if _, err := NewHandler(ruleFor(target)); err == nil {
			t.Errorf("expected error for target %q, got nil", target)
		}
	}
}

func TestRewriteCookieDomain(t *testing.T) {
	tests := []struct {
		cookie   string
		domain   string
		expected string
	}{
		{"a=b; Domain=x.com; Path=/", "", "a=b; Path=/"},
		{"a=b; domain=x.com", "", "a=b"},
		{"a=b; Path=/", "", "a=b; Path=/"},
		{"a=b; Domain=x.com", "y.dev", "a=b; Domain=y.dev"},
		{"a=b", "y.dev", "a=b; Domain=y.dev"},
	}

	for _, tc := range tests {
		got := rewriteCookieDomain(tc.cookie, tc.domain)
		if got != tc.expected {
			t.Errorf("rewriteCookieDomain(%q, %q) = %q, want %q", tc.cookie, tc.domain, got, tc.expected)
		}
	}
}
