package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/clientctx"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/middleware"
)

const testRateLimit = 3

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	defer close(done)

	r := gin.New()
	r.Use(middleware.RateLimiter(testRateLimit, time.Minute, done))
	r.GET("/v1/click", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
	req.RemoteAddr = "1.2.3.4:1234"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	defer close(done)

	r := gin.New()
	r.Use(middleware.RateLimiter(testRateLimit, time.Minute, done))
	r.GET("/v1/click", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := range testRateLimit {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
		req.RemoteAddr = "1.2.3.4:1234"
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	// This should be rate limited
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
	req.RemoteAddr = "1.2.3.4:1234"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	defer close(done)

	r := gin.New()
	r.Use(middleware.RateLimiter(1, time.Minute, done))
	r.GET("/v1/click", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// First IP uses its one allowed request
	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
	req1.RemoteAddr = "1.1.1.1:1234"
	r.ServeHTTP(w1, req1)
	if w1.Code != http.StatusOK {
		t.Fatalf("IP1: expected 200, got %d", w1.Code)
	}

	// Second IP should still be allowed
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
	req2.RemoteAddr = "2.2.2.2:1234"
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("IP2: expected 200, got %d", w2.Code)
	}
}

func TestRateLimiter_IgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	defer close(done)

	r := gin.New()
	r.Use(middleware.RateLimiter(1, time.Minute, done))
	r.GET("/v1/click", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	allowed := 0
	for i := range 100 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
		req.RemoteAddr = "198.51.100.9:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		r.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}

	if allowed != 1 {
		t.Fatalf("expected 1 allowed request from a single peer, got %d", allowed)
	}
}

func TestRateLimiter_TrustedProxyForwardsClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	defer close(done)

	trusted, err := clientctx.ParsePrefixes([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("ParsePrefixes() error: %v", err)
	}

	r := gin.New()
	r.Use(middleware.RateLimiter(1, time.Minute, done, middleware.WithTrustedProxies(trusted)))
	r.GET("/v1/click", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Same proxy peer, different forwarded clients.
	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", client)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("client %s: expected 200, got %d", client, w.Code)
		}
	}

	// Repeat of the first client is limited.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeated client, got %d", w.Code)
	}
}

func TestRateLimiter_RejectionUsesEnvelopeAndHook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	defer close(done)

	limited := 0
	r := gin.New()
	r.Use(middleware.RateLimiter(1, time.Minute, done, middleware.WithLimitedHook(func() { limited++ })))
	r.GET("/v1/click", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	var last *httptest.ResponseRecorder
	for range 2 {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/click?cid=5", http.NoBody)
		req.RemoteAddr = "1.2.3.4:1234"
		r.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if !strings.Contains(last.Body.String(), `"code":"RATE_LIMITED"`) {
		t.Errorf("body = %s, want RATE_LIMITED envelope", last.Body.String())
	}
	if limited != 1 {
		t.Errorf("hook called %d times, want 1", limited)
	}
}
