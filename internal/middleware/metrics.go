package middleware

import (
	"net/http"
	"strconv"
	"time"

	"campusdocs/internal/httputil"
	"campusdocs/internal/metrics"
)

// Metrics records request count and latency per route pattern.
// It must wrap the ServeMux itself so r.Pattern is set after routing.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := httputil.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Method, route, strconv.Itoa(rec.Status), time.Since(start).Seconds())
		})
	}
}
