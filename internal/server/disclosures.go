// internal/server/disclosures.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "account-opening/internal/common/errors"
)

func (s *Server) handleListDisclosures(c *gin.Context) {
	disclosures, err := s.services.Disclosures.List(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disclosures": disclosures})
}

func (s *Server) handleAcknowledgeDisclosure(c *gin.Context) {
	agreement, err := s.services.Disclosures.Acknowledge(
		c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("disclosureId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

func (s *Server) handleCaptureSignature(c *gin.Context) {
	var req struct {
		SignerName    string `json:"signerName"`
		SignatureData string `json:"signatureData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	sig, err := s.services.Disclosures.CaptureSignature(
		c.Request.Context(), actorFrom(c), c.Param("id"), req.SignerName, req.SignatureData)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sig)
}

func (s *Server) handleListSignatures(c *gin.Context) {
	sigs, err := s.services.Disclosures.ListSignatures(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signatures": sigs})
}

func (s *Server) handleConfigureFunding(c *gin.Context) {
	var req struct {
		Method       string  `json:"method"`
		Amount       float64 `json:"amount"`
		AccountLast4 string  `json:"accountLast4"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Malformed request body", err.Error()))
		return
	}

	funding, err := s.services.Disclosures.ConfigureFunding(
		c.Request.Context(), actorFrom(c), c.Param("id"), req.Method, req.Amount, req.AccountLast4)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, funding)
}

func (s *Server) handleGetFunding(c *gin.Context) {
	funding, err := s.services.Disclosures.GetFunding(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, funding)
}
