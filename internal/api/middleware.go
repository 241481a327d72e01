package api

import (
	"net/http"

	"github.com/mcndt/noteshare.space/internal/api/respond"
	"github.com/mcndt/noteshare.space/internal/ratelimit"
)

// rateLimitMiddleware rejects requests with a 429 once the client exceeds the
// route group's admission ceiling, before the request reaches storage.
func rateLimitMiddleware(limiter *ratelimit.Limiter, group ratelimit.Group) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(group, clientIP(r)) {
				respond.WriteRateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// maxBodyMiddleware caps the readable request body. Reads past the limit fail
// inside the handler's JSON decode, which reports a 413.
func maxBodyMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				respond.WritePayloadTooLarge(w)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
