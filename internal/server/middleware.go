// internal/server/middleware.go
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/metrics"
	"account-opening/internal/workflow"
)

const (
	headerUserID  = "X-User-ID"
	headerAdminID = "X-Admin-ID"

	actorKey = "actor"
	adminKey = "adminID"
)

// requireUser resolves the caller identity from the gateway-injected user
// header. Identity is established upstream; this service only scopes by it.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "AUTHENTICATION_REQUIRED", "message": "Missing user identity"},
			})
			return
		}
		c.Set(actorKey, workflow.Actor{
			ID:        userID,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetHeader(headerAdminID)
		if adminID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": apperrors.PublicPayload(apperrors.NewForbidden("admin identity required")),
			})
			return
		}
		c.Set(adminKey, adminID)
		c.Next()
	}
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request failed", map[string]interface{}{
				"method":   c.Request.Method,
				"path":     c.Request.URL.Path,
				"status":   c.Writer.Status(),
				"duration": time.Since(start).String(),
			})
			return
		}
		s.logger.Debug("request completed", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func actorFrom(c *gin.Context) workflow.Actor {
	return c.MustGet(actorKey).(workflow.Actor)
}

func adminFrom(c *gin.Context) string {
	return c.MustGet(adminKey).(string)
}
