package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/config"
	infragin "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// NewServer creates the HTTP server. checks are reported by GET /health.
func NewServer(
	routes Routes,
	cfg *config.Config,
	log infralogger.Logger,
	checks map[string]infragin.HealthChecker,
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout)

	for name, check := range checks {
		builder = builder.WithHealthCheck(name, check)
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, routes)
		}).
		Build()
}
