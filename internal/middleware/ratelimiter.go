package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/metrics"
	"github.com/haguru/clinica/internal/models/dto"

	"golang.org/x/time/rate"
)

const msgTooManyRequests = "Too many requests. Please try again later."

// RateLimitMiddleware rejects requests with 429 once the limiter runs out of
// tokens. m may be nil.
func RateLimitMiddleware(limiter *rate.Limiter, m interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				if m != nil {
					m.IncCounter(metrics.RateLimitedTotal)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				resp := dto.RateLimitResponse{Success: false, Message: msgTooManyRequests}
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
