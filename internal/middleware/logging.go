package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/metrics"

	"github.com/gorilla/mux"
)

// responseRecorder captures the status code written by the handler.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Logging writes one access log line per request and records the request
// counters and latency. m may be nil.
func Logging(logger interfaces.Logger, m interfaces.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(recorder, r)

			duration := time.Since(start)
			route := routeTemplate(r)
			if m != nil {
				m.IncCounterVec(metrics.HTTPRequestsTotal, r.Method, route, strconv.Itoa(recorder.statusCode))
				m.ObserveHistogramVec(metrics.HTTPRequestDuration, duration.Seconds(), r.Method, route)
			}

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.statusCode,
				"duration_ms", duration.Milliseconds(),
				"request_id", RequestIDFrom(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// routeTemplate keeps the metric label set bounded by using the matched
// route pattern instead of the raw path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
