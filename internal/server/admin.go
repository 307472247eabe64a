// internal/server/admin.go
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"account-opening/internal/admin"
	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/models"
	"account-opening/internal/store"
)

func (s *Server) handleAdminListApplications(c *gin.Context) {
	req := admin.ListRequest{
		Filters: store.ApplicationFilters{
			Search: c.Query("search"),
		},
	}

	for _, st := range splitParam(c.Query("status")) {
		req.Filters.Statuses = append(req.Filters.Statuses, models.ApplicationStatus(st))
	}
	for _, at := range splitParam(c.Query("accountType")) {
		req.Filters.AccountTypes = append(req.Filters.AccountTypes, models.AccountType(at))
	}
	for _, lvl := range splitParam(c.Query("riskLevel")) {
		req.RiskLevels = append(req.RiskLevels, models.RiskLevel(lvl))
	}

	var ok bool
	if req.Filters.SubmittedFrom, ok = s.parseTimeParam(c, "submittedFrom"); !ok {
		return
	}
	if req.Filters.SubmittedTo, ok = s.parseTimeParam(c, "submittedTo"); !ok {
		return
	}

	summaries, err := s.services.Admin.ListApplications(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": summaries, "total": len(summaries)})
}

func (s *Server) handleAdminGetApplication(c *gin.Context) {
	app, err := s.services.Workflow.AdminGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleAdminUpdateStatus(c *gin.Context) {
	var req struct {
		Status models.ApplicationStatus `json:"status"`
		Notes  string                   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	app, err := s.services.Workflow.AdminUpdateStatus(
		c.Request.Context(), adminFrom(c), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleAdminAuditTrail(c *gin.Context) {
	entries, err := s.services.Audit.ListByApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (s *Server) parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid timestamp filter",
			name+" must be RFC 3339"))
		return nil, false
	}
	return &t, true
}
