// Package metrics exposes service counters as a JSON monitoring endpoint.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Collector accumulates request counters for the /metrics endpoint.
type Collector struct {
	start    time.Time
	requests atomic.Int64
	errors   atomic.Int64
}

func NewCollector() *Collector {
	return &Collector{start: time.Now()}
}

// Middleware counts every request and every 5xx response.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.requests.Add(1)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() >= http.StatusInternalServerError {
			c.errors.Add(1)
		}
	})
}

type snapshot struct {
	UptimeSeconds int64 `json:"uptimeSeconds"`
	RequestsTotal int64 `json:"requestsTotal"`
	ErrorsTotal   int64 `json:"errorsTotal"`
}

// Handler serves the current counters.
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(snapshot{
		UptimeSeconds: int64(time.Since(c.start).Seconds()),
		RequestsTotal: c.requests.Load(),
		ErrorsTotal:   c.errors.Load(),
	})
}
