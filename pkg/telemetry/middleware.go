// Package telemetry provides request metrics and lightweight latency
// logging. Only slow requests are logged (see slowThreshold); everything is
// counted in prometheus collectors exposed on /metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/VulcanWM/threadofclues/pkg/logger"
)

var slowThreshold = 200 * time.Millisecond

// SetSlowThreshold sets the duration above which a request gets a log line.
func SetSlowThreshold(d time.Duration) {
	if d <= 0 {
		d = 0
	}
	slowThreshold = d
}

// Middleware records per-request duration and status. The route template
// (not the raw path) labels the histogram so user-supplied path segments
// don't explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		requestDuration.WithLabelValues(route, strconv.Itoa(srw.status)).Observe(dur.Seconds())

		if dur > slowThreshold {
			logger.Warn("slow_request",
				"route", route,
				"method", r.Method,
				"status", srw.status,
				"duration_ms", dur.Milliseconds(),
			)
		}
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
