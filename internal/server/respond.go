// internal/server/respond.go
package server

import (
	"github.com/gin-gonic/gin"

	apperrors "account-opening/internal/common/errors"
)

// respondError maps an application error to its transport status and the
// caller-visible payload. Internal causes are logged here, never exposed.
func (s *Server) respondError(c *gin.Context, err error) {
	if apperrors.IsInternal(err) {
		s.logger.Error("internal error", map[string]interface{}{
			"error":  err.Error(),
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
	}
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.PublicPayload(err)})
}
