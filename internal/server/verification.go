// internal/server/verification.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleInitiateKYC(c *gin.Context) {
	verification, err := s.services.KYC.Initiate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, verification)
}

func (s *Server) handleGetKYC(c *gin.Context) {
	verification, err := s.services.KYC.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

func (s *Server) handleAssessRisk(c *gin.Context) {
	assessment, err := s.services.Risk.Assess(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

func (s *Server) handleGetRiskAssessment(c *gin.Context) {
	assessment, err := s.services.Risk.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}
