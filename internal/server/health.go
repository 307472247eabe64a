// internal/server/health.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dependency is a named infrastructure check exposed through /health.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.services.Dependencies))
	for _, dep := range s.services.Dependencies {
		if err := dep.Ping(ctx); err != nil {
			checks[dep.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[dep.Name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
