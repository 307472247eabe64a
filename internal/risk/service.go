// internal/risk/service.go
package risk

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"account-opening/internal/audit"
	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/logger"
	"account-opening/internal/common/metrics"
	"account-opening/internal/models"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// Service gathers scoring inputs, runs the engine, and records the one-shot
// assessment for an application.
type Service struct {
	applications *store.ApplicationStore
	profiles     *store.ProfileStore
	documents    *store.DocumentStore
	kyc          *store.KYCStore
	risk         *store.RiskStore
	audit        *audit.Recorder
	logger       logger.Logger
}

func NewService(
	applications *store.ApplicationStore,
	profiles *store.ProfileStore,
	documents *store.DocumentStore,
	kycStore *store.KYCStore,
	riskStore *store.RiskStore,
	auditRecorder *audit.Recorder,
	log logger.Logger,
) *Service {
	return &Service{
		applications: applications,
		profiles:     profiles,
		documents:    documents,
		kyc:          kycStore,
		risk:         riskStore,
		audit:        auditRecorder,
		logger:       log.WithFields(map[string]interface{}{"component": "risk"}),
	}
}

// Assess scores the application and records the assessment. At most one
// assessment per application; a second request is rejected.
func (s *Service) Assess(ctx context.Context, actor workflow.Actor, applicationID string) (*models.RiskAssessment, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}

	exists, err := s.risk.ExistsForApplication(ctx, app.ID)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	if exists {
		return nil, duplicateError()
	}

	input, err := s.gatherInput(ctx, app)
	if err != nil {
		return nil, err
	}

	assessment := Score(*input)
	assessment.ID = uuid.New().String()
	assessment.ApplicationID = app.ID
	assessment.AssessedAt = time.Now().UTC()
	assessment.AssessedBy = "system"

	if err := s.risk.Create(ctx, assessment); err != nil {
		if stderrors.Is(err, store.ErrDuplicate) {
			return nil, duplicateError()
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodeRiskAssessmentFailed, err)
	}

	metrics.RiskAssessments.WithLabelValues(string(assessment.OverallRisk)).Inc()

	app.Metadata[models.MetaLastActivity] = time.Now().UTC().Format(time.RFC3339)
	if err := s.applications.Update(ctx, app); err != nil {
		s.logger.Warn("failed to stamp application activity", map[string]interface{}{
			"error":         err,
			"applicationId": app.ID,
		})
	}

	description := fmt.Sprintf("Risk assessed as %s (score %.1f across %d factors)",
		assessment.OverallRisk, assessment.RiskScore, len(assessment.Factors))
	if assessment.RequiresManualReview {
		description += "; manual review required"
	}
	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditRiskAssessed,
		Description:   description,
	})

	s.logger.Info("risk assessment recorded", map[string]interface{}{
		"applicationId": app.ID,
		"riskLevel":     assessment.OverallRisk,
		"riskScore":     assessment.RiskScore,
		"manualReview":  assessment.RequiresManualReview,
	})

	return assessment, nil
}

// Get returns the recorded assessment for an application.
func (s *Service) Get(ctx context.Context, actor workflow.Actor, applicationID string) (*models.RiskAssessment, error) {
	if _, err := s.loadOwned(ctx, applicationID, actor.ID); err != nil {
		return nil, err
	}
	assessment, err := s.risk.GetByApplication(ctx, applicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeRiskNotFound, "no risk assessment has been performed")
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return assessment, nil
}

// gatherInput collects scoring inputs. Personal info is required, as is the
// business profile on the commercial path; a missing KYC record, documents, or
// financial profile are legitimate inputs the engine penalizes.
func (s *Service) gatherInput(ctx context.Context, app *models.Application) (*Input, error) {
	input := &Input{Application: app}

	personal, err := s.profiles.GetPersonalInfo(ctx, app.ID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeProfileRequired,
				"Personal information must be completed before risk assessment",
				"",
			)
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	input.Personal = personal

	kyc, err := s.kyc.GetByApplication(ctx, app.ID)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	input.KYC = kyc

	docs, err := s.documents.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	input.Documents = docs

	financial, err := s.profiles.GetFinancialProfile(ctx, app.ID)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	input.Financial = financial

	if app.AccountType == models.AccountTypeCommercial {
		business, err := s.profiles.GetBusinessProfile(ctx, app.ID)
		if err != nil {
			if stderrors.Is(err, store.ErrNotFound) {
				return nil, apperrors.NewInvalidRequest(
					apperrors.ErrCodeProfileRequired,
					"A business profile must be completed before risk assessment",
					"",
				)
			}
			return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
		}
		input.Business = business

		signers, err := s.profiles.ListSigners(ctx, app.ID)
		if err != nil {
			return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
		}
		input.Signers = signers
	}

	return input, nil
}

func duplicateError() error {
	return apperrors.NewInvalidRequest(
		apperrors.ErrCodeDuplicateRiskAssessment,
		"A risk assessment has already been performed for this application",
		"",
	)
}

func (s *Service) loadOwned(ctx context.Context, id, ownerID string) (*models.Application, error) {
	app, err := s.applications.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeApplicationNotFound, fmt.Sprintf("application %s does not exist", id))
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return app, nil
}

func (s *Service) record(ctx context.Context, actor workflow.Actor, entry *models.AuditEntry) {
	entry.PerformedBy = actor.ID
	entry.IPAddress = actor.IPAddress
	entry.UserAgent = actor.UserAgent
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry", map[string]interface{}{
			"error":         err,
			"applicationId": entry.ApplicationID,
			"action":        entry.Action,
		})
	}
}
