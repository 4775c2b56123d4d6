package middleware

import (
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/apierror"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/clientctx"
	"golang.org/x/time/rate"
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitOption customizes RateLimiter.
type RateLimitOption func(*rateLimitOptions)

type rateLimitOptions struct {
	onLimited func()
	trusted   []netip.Prefix
}

// WithLimitedHook calls fn for every rejected request.
func WithLimitedHook(fn func()) RateLimitOption {
	return func(o *rateLimitOptions) {
		o.onLimited = fn
	}
}

// WithTrustedProxies honors forwarding headers for requests whose peer is
// inside one of prefixes. Without it every request is keyed on its peer address.
func WithTrustedProxies(prefixes []netip.Prefix) RateLimitOption {
	return func(o *rateLimitOptions) {
		o.trusted = prefixes
	}
}

// RateLimiter allows each client IP maxRequests per window as a token
// bucket, so a client may burst up to maxRequests and then refills evenly.
// Idle entries are evicted every window until done is closed.
func RateLimiter(maxRequests int, window time.Duration, done <-chan struct{}, opts ...RateLimitOption) gin.HandlerFunc {
	var o rateLimitOptions
	for _, opt := range opts {
		opt(&o)
	}

	every := rate.Every(window / time.Duration(max(maxRequests, 1)))

	var mu sync.Mutex
	entries := make(map[string]*ipEntry)

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu.Lock()
				cutoff := time.Now().Add(-window)
				for ip, entry := range entries {
					if entry.lastSeen.Before(cutoff) {
						delete(entries, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(c *gin.Context) {
		ip := clientctx.TrustedClientIP(c.Request, o.trusted)

		mu.Lock()
		entry, exists := entries[ip]
		if !exists {
			entry = &ipEntry{limiter: rate.NewLimiter(every, maxRequests)}
			entries[ip] = entry
		}
		entry.lastSeen = time.Now()
		allowed := entry.limiter.Allow()
		mu.Unlock()

		if !allowed {
			if o.onLimited != nil {
				o.onLimited()
			}
			apierror.Abort(c, http.StatusTooManyRequests, apierror.CodeRateLimited, "Rate limit exceeded", nil)
			return
		}

		c.Next()
	}
}
