// internal/kyc/service.go
package kyc

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
	"account-opening/internal/providers"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// Service runs the one-shot KYC verification for an application. The result
// is immutable; a second initiation is rejected rather than re-run.
type Service struct {
	applications *store.ApplicationStore
	profiles     *store.ProfileStore
	kyc          *store.KYCStore
	provider     providers.KYCProvider
	audit        *audit.Recorder
	logger       logger.Logger
}

func NewService(
	applications *store.ApplicationStore,
	profiles *store.ProfileStore,
	kycStore *store.KYCStore,
	provider providers.KYCProvider,
	auditRecorder *audit.Recorder,
	log logger.Logger,
) *Service {
	return &Service{
		applications: applications,
		profiles:     profiles,
		kyc:          kycStore,
		provider:     provider,
		audit:        auditRecorder,
		logger:       log.WithFields(map[string]interface{}{"component": "kyc"}),
	}
}

// Initiate calls the identity provider and records the verification.
// Requires a personal-info profile; at most one verification per application.
func (s *Service) Initiate(ctx context.Context, actor workflow.Actor, applicationID string) (*models.KYCVerification, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}

	// Fast path; the unique index on application_id is the real guard.
	exists, err := s.kyc.ExistsForApplication(ctx, app.ID)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	if exists {
		return nil, duplicateError()
	}

	info, err := s.profiles.GetPersonalInfo(ctx, app.ID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeProfileRequired,
				"Personal information must be provided before identity verification",
				"",
			)
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	result, err := s.provider.Verify(ctx, info)
	if err != nil {
		metrics.KYCVerifications.WithLabelValues("provider_error").Inc()
		return nil, apperrors.NewInternal(apperrors.ErrCodeKYCProviderFailed, err)
	}

	verification := &models.KYCVerification{
		ID:             uuid.New().String(),
		ApplicationID:  app.ID,
		Status:         result.Status,
		Provider:       result.Provider,
		VerificationID: result.VerificationID,
		Confidence:     result.Confidence,
		VerifiedAt:     result.VerifiedAt,
		Results:        result.Results,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.kyc.Create(ctx, verification); err != nil {
		if stderrors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent initiation.
			return nil, duplicateError()
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	metrics.KYCVerifications.WithLabelValues(result.Status).Inc()

	app.Metadata[models.MetaLastActivity] = time.Now().UTC().Format(time.RFC3339)
	if err := s.applications.Update(ctx, app); err != nil {
		s.logger.Warn("failed to stamp application activity", map[string]interface{}{
			"error":         err,
			"applicationId": app.ID,
		})
	}

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditKYCInitiated,
		Description: fmt.Sprintf("Identity verification completed with status %q (%s, %.0f%% confidence)",
			result.Status, verification.Provider, verification.Confidence*100),
	})

	s.logger.Info("kyc verification recorded", map[string]interface{}{
		"applicationId": app.ID,
		"status":        result.Status,
		"confidence":    result.Confidence,
	})

	return verification, nil
}

// Get returns the recorded verification for an application.
func (s *Service) Get(ctx context.Context, actor workflow.Actor, applicationID string) (*models.KYCVerification, error) {
	if _, err := s.loadOwned(ctx, applicationID, actor.ID); err != nil {
		return nil, err
	}
	verification, err := s.kyc.GetByApplication(ctx, applicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeKYCNotFound, "no identity verification has been performed")
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return verification, nil
}

func duplicateError() error {
	return apperrors.NewInvalidRequest(
		apperrors.ErrCodeDuplicateKYC,
		"Identity verification has already been performed for this application",
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
