package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles the versioned service health check.
type HealthHandler struct {
	service string
}

// NewHealthHandler creates a HealthHandler that reports the given service name.
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

// HealthCheck returns service health status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}
