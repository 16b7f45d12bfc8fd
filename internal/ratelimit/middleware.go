package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-proposal/internal/common"
)

// Handler enforces a Rate per key before delegating to the next handler.
type Handler struct {
	Limiter Allower
	Rate    Rate
	Key     func(*http.Request) string
	// OnError observes limiter failures. The request is let through either way.
	OnError func(error)
}

// KeyByClientIP scopes a limit to the caller's address under a route-specific name.
func KeyByClientIP(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + common.ClientIP(r)
	}
}

// Middleware sets the X-RateLimit-* headers and answers 429 once the budget is spent.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		d, err := h.Limiter.Allow(r.Context(), h.Key(r), h.Rate)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(max(d.Limit, 0)))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := math.Ceil(time.Until(d.ResetAt).Seconds())
		hdr.Set("Retry-After", strconv.Itoa(int(max(wait, 0))))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many quote requests, retry later", nil)
	})
}
