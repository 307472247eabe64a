// internal/server/applications.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/workflow"
)

func (s *Server) handleCreateApplication(c *gin.Context) {
	var req workflow.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	app, err := s.services.Workflow.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (s *Server) handleGetApplication(c *gin.Context) {
	app, err := s.services.Workflow.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(c *gin.Context) {
	var req workflow.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	app, err := s.services.Workflow.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleSubmitApplication(c *gin.Context) {
	var req workflow.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	app, err := s.services.Workflow.Submit(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ==========================
// Profiles
// ==========================

func (s *Server) handleSavePersonalInfo(c *gin.Context) {
	payload, ok := s.bindPayload(c)
	if !ok {
		return
	}
	info, err := s.services.Workflow.SavePersonalInfo(c.Request.Context(), actorFrom(c), c.Param("id"), payload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleGetPersonalInfo(c *gin.Context) {
	info, err := s.services.Workflow.GetPersonalInfo(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleSaveBusinessProfile(c *gin.Context) {
	payload, ok := s.bindPayload(c)
	if !ok {
		return
	}
	profile, err := s.services.Workflow.SaveBusinessProfile(c.Request.Context(), actorFrom(c), c.Param("id"), payload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleGetBusinessProfile(c *gin.Context) {
	profile, err := s.services.Workflow.GetBusinessProfile(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleSaveFinancialProfile(c *gin.Context) {
	payload, ok := s.bindPayload(c)
	if !ok {
		return
	}
	profile, err := s.services.Workflow.SaveFinancialProfile(c.Request.Context(), actorFrom(c), c.Param("id"), payload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleGetFinancialProfile(c *gin.Context) {
	profile, err := s.services.Workflow.GetFinancialProfile(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleAddSigner(c *gin.Context) {
	var req workflow.SignerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	signer, err := s.services.Workflow.AddSigner(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, signer)
}

func (s *Server) handleListSigners(c *gin.Context) {
	signers, err := s.services.Workflow.ListSigners(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signers": signers})
}

// bindPayload reads a free-form JSON object body. Profile payloads are
// schema-validated downstream, so the handler stays shape-agnostic.
func (s *Server) bindPayload(c *gin.Context) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return nil, false
	}
	return payload, true
}
