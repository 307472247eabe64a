// internal/server/server.go
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"account-opening/internal/admin"
	"account-opening/internal/audit"
	"account-opening/internal/common/config"
	"account-opening/internal/common/logger"
	"account-opening/internal/disclosures"
	"account-opening/internal/documents"
	"account-opening/internal/kyc"
	"account-opening/internal/risk"
	"account-opening/internal/storage"
	"account-opening/internal/workflow"
)

// Services bundles the feature services the HTTP surface exposes.
type Services struct {
	Workflow    *workflow.Service
	Documents   *documents.Service
	KYC         *kyc.Service
	Risk        *risk.Service
	Disclosures *disclosures.Service
	Admin       *admin.Service
	Audit       *audit.Recorder
	Files       *storage.LocalStore

	Dependencies []Dependency
}

// Server owns the gin engine and the underlying http.Server.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	services Services
	logger   logger.Logger
}

func New(cfg config.HTTPConfig, services Services, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		services: services,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger(), requestMetrics())
	s.registerRoutes()

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/files/:name", s.handleFileDownload)

	api := s.engine.Group("/api/v1", requireUser())
	{
		api.POST("/applications", s.handleCreateApplication)
		api.GET("/applications/:id", s.handleGetApplication)
		api.PATCH("/applications/:id", s.handleUpdateApplication)
		api.POST("/applications/:id/submit", s.handleSubmitApplication)

		api.PUT("/applications/:id/personal-info", s.handleSavePersonalInfo)
		api.GET("/applications/:id/personal-info", s.handleGetPersonalInfo)
		api.PUT("/applications/:id/business-profile", s.handleSaveBusinessProfile)
		api.GET("/applications/:id/business-profile", s.handleGetBusinessProfile)
		api.PUT("/applications/:id/financial-profile", s.handleSaveFinancialProfile)
		api.GET("/applications/:id/financial-profile", s.handleGetFinancialProfile)
		api.POST("/applications/:id/signers", s.handleAddSigner)
		api.GET("/applications/:id/signers", s.handleListSigners)

		api.POST("/applications/:id/documents", s.handleUploadDocument)
		api.GET("/applications/:id/documents", s.handleListDocuments)
		api.GET("/documents/:id", s.handleGetDocument)
		api.GET("/documents/:id/download", s.handleDownloadDocument)
		api.DELETE("/documents/:id", s.handleDeleteDocument)

		api.POST("/applications/:id/kyc", s.handleInitiateKYC)
		api.GET("/applications/:id/kyc", s.handleGetKYC)
		api.POST("/applications/:id/risk-assessment", s.handleAssessRisk)
		api.GET("/applications/:id/risk-assessment", s.handleGetRiskAssessment)

		api.GET("/applications/:id/disclosures", s.handleListDisclosures)
		api.POST("/applications/:id/disclosures/:disclosureId/acknowledge", s.handleAcknowledgeDisclosure)
		api.POST("/applications/:id/signatures", s.handleCaptureSignature)
		api.GET("/applications/:id/signatures", s.handleListSignatures)
		api.PUT("/applications/:id/funding", s.handleConfigureFunding)
		api.GET("/applications/:id/funding", s.handleGetFunding)
	}

	adminAPI := s.engine.Group("/api/v1/admin", requireAdmin())
	{
		adminAPI.GET("/applications", s.handleAdminListApplications)
		adminAPI.GET("/applications/:id", s.handleAdminGetApplication)
		adminAPI.PATCH("/applications/:id/status", s.handleAdminUpdateStatus)
		adminAPI.GET("/applications/:id/audit", s.handleAdminAuditTrail)
	}
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
