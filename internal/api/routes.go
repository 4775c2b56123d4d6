// Package api wires the HTTP surface of traffic-gate.
package api

import (
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/handler"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/middleware"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/telemetry"
)

// RateLimit configures the per-client limit on the public click route.
// MaxRequests <= 0 disables it.
type RateLimit struct {
	MaxRequests int
	Window      time.Duration
	// TrustedProxies may set the client IP through forwarding headers.
	TrustedProxies []netip.Prefix
}

// Routes bundles the handlers and gates mounted by SetupRoutes.
type Routes struct {
	Click         *handler.ClickHandler
	Admin         *handler.AdminHandler
	Health        *handler.HealthHandler
	Verifier      middleware.TokenVerifier
	RequiredScope string
	Telemetry     *telemetry.Provider
	RateLimit     RateLimit
	// Done stops background goroutines owned by middleware.
	Done <-chan struct{}
}

// SetupRoutes configures all API routes.
// Infrastructure health routes are registered by the gin builder.
func SetupRoutes(router *gin.Engine, r Routes) {
	if r.Telemetry != nil {
		router.GET("/metrics", gin.WrapH(r.Telemetry.Handler()))
	}

	router.GET("/mock-safe-page", handler.MockSafePage)
	router.GET("/mock-offer-page", handler.MockOfferPage)

	v1 := router.Group("/v1")
	v1.GET("/health", r.Health.HealthCheck)

	// Public click entry point with per-client rate limiting
	click := v1.Group("")
	if r.RateLimit.MaxRequests > 0 {
		opts := []middleware.RateLimitOption{middleware.WithTrustedProxies(r.RateLimit.TrustedProxies)}
		if r.Telemetry != nil {
			opts = append(opts, middleware.WithLimitedHook(r.Telemetry.IncrementRateLimited))
		}
		click.Use(middleware.RateLimiter(r.RateLimit.MaxRequests, r.RateLimit.Window, r.Done, opts...))
	}
	click.GET("/click", r.Click.HandleClick)

	// Admin queries
	admin := v1.Group("")
	admin.Use(middleware.RequireScope(r.Verifier, r.RequiredScope))
	admin.GET("/click/:id", r.Admin.GetClick)
	admin.GET("/clicks", r.Admin.ListClicks)
}
