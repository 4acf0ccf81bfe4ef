package devproxy

import (
	"net/http"
	"sync/atomic"
)

// Swappable is an http.Handler whose inner handler can be replaced at
// runtime. The gateway uses it to apply config-file reloads to the proxy
// without re-registering routes; swaps are atomic with respect to in-flight
// requests.
type Swappable struct {
	inner atomic.Pointer[http.Handler]
}

// NewSwappable creates a Swappable wrapping h.
func NewSwappable(h http.Handler) *Swappable {
	s := &Swappable{}
	s.inner.Store(&h)
	return s
}

// Swap replaces the inner handler. Requests already dispatched to the old
// handler finish against it.
func (s *Swappable) Swap(h http.Handler) {
	s.inner.Store(&h)
}

func (s *Swappable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.inner.Load()).ServeHTTP(w, r)
}
