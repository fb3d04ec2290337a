package ratelimit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/flowmatrix/roiportal/internal/auth"
)

// KeyFunc picks the bucket for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// ByIP keys on the client address. Run it behind chi's RealIP middleware
// when the server sits behind a proxy.
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ByUser keys on the authenticated user and falls back to the client address.
func ByUser(r *http.Request) string {
	if u := auth.UserFromContext(r.Context()); u != nil {
		return "user:" + u.ID
	}
	return "ip:" + ByIP(r)
}

// Middleware enforces limiter on every request, keyed by key. Quota headers
// are always set:
//
//	X-RateLimit-Limit     maximum requests in the window
//	X-RateLimit-Remaining tokens left
//	X-RateLimit-Reset     Unix time the bucket is full again
//
// Rejected requests get 429 with the standard error body. onReject is
// called with scope for each rejection and may be nil.
func Middleware(limiter *Limiter, scope string, key KeyFunc, onReject func(scope string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			limit, remaining, resetAt := limiter.Status(k)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !limiter.Allow(k) {
				if onReject != nil {
					onReject(scope)
				}
				retry := max(int(time.Until(resetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded, try again later",
					"code":  "rate_limited",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RunSweeper calls Sweep on each limiter every interval until ctx ends.
func RunSweeper(ctx context.Context, interval time.Duration, limiters ...*Limiter) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Sweep()
			}
		}
	}
}
