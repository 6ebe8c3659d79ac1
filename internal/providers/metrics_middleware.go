package providers

import (
	"net/http"
	"time"
)

// statusRecorder remembers the first status a handler commits.
type statusRecorder struct {
	http.ResponseWriter
	status    int
	committed bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.committed {
		w.status = code
		w.committed = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware counts and times every API request. Endpoints are
// labelled "METHOD /path", mirroring the route table's patterns.
func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := r.Method + " " + r.URL.Path
		metrics.IncRequestsTotal(endpoint, rec.status)
		metrics.ObserveRequestDuration(endpoint, time.Since(start))
	})
}
