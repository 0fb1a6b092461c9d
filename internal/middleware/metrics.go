package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Zarutan454/website-Template-sub013/pkg/metrics"
)

// Metrics tracks request count, duration and in-flight gauge per route.
func Metrics(serviceMetrics *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := fmt.Sprintf("%s %s", r.Method, r.URL.Path)

			serviceMetrics.RequestsInFlight.WithLabelValues(method).Inc()
			defer serviceMetrics.RequestsInFlight.WithLabelValues(method).Dec()

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			serviceMetrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
			serviceMetrics.RequestCounter.WithLabelValues(method, fmt.Sprintf("%d", recorder.status)).Inc()
		})
	}
}
