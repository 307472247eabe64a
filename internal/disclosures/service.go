// internal/disclosures/service.go
package disclosures

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"account-opening/internal/audit"
	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/logger"
	"account-opening/internal/models"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// Service handles disclosure delivery, agreement acknowledgment, signature
// capture, and funding setup. An acknowledged agreement is frozen; funding
// and signature capture remain editable until submission.
type Service struct {
	applications *store.ApplicationStore
	disclosures  *store.DisclosureStore
	audit        *audit.Recorder
	logger       logger.Logger
}

func NewService(
	applications *store.ApplicationStore,
	disclosureStore *store.DisclosureStore,
	auditRecorder *audit.Recorder,
	log logger.Logger,
) *Service {
	return &Service{
		applications: applications,
		disclosures:  disclosureStore,
		audit:        auditRecorder,
		logger:       log.WithFields(map[string]interface{}{"component": "disclosures"}),
	}
}

// List returns the active disclosures applicable to the application's
// account type.
func (s *Service) List(ctx context.Context, actor workflow.Actor, applicationID string) ([]models.Disclosure, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}
	disclosures, err := s.disclosures.ListActiveForAccountType(ctx, app.AccountType)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return disclosures, nil
}

// Acknowledge records the applicant's acceptance of a disclosure. Once
// acknowledged, the agreement cannot be retracted or re-acknowledged.
func (s *Service) Acknowledge(ctx context.Context, actor workflow.Actor, applicationID, disclosureID string) (*models.Agreement, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}

	disclosure, err := s.disclosures.GetByID(ctx, disclosureID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeDisclosureNotFound, fmt.Sprintf("disclosure %s does not exist", disclosureID))
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	if !disclosure.Active || !appliesTo(disclosure, app.AccountType) {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Disclosure does not apply to this application",
			fmt.Sprintf("disclosure %s is not active for %s accounts", disclosureID, app.AccountType),
		)
	}

	existing, err := s.disclosures.GetAgreement(ctx, app.ID, disclosureID)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	if existing != nil && existing.Acknowledged {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeAgreementFrozen,
			"Disclosure has already been acknowledged",
			"",
		)
	}

	now := time.Now().UTC()
	agreement := &models.Agreement{
		ID:             uuid.New().String(),
		ApplicationID:  app.ID,
		DisclosureID:   disclosureID,
		Acknowledged:   true,
		AcknowledgedAt: &now,
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
	}
	if existing != nil {
		agreement.ID = existing.ID
	}

	if err := s.disclosures.UpsertAgreement(ctx, agreement); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditDisclosureAcknowledged,
		Description:   fmt.Sprintf("Disclosure acknowledged (%s %s)", disclosure.DisclosureType, disclosure.Version),
	})

	return agreement, nil
}

// CaptureSignature stores one electronic signature on the application.
func (s *Service) CaptureSignature(ctx context.Context, actor workflow.Actor, applicationID, signerName, signatureData string) (*models.Signature, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}
	if signerName == "" || signatureData == "" {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Signer name and signature data are required",
			"",
		)
	}

	sig := &models.Signature{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		SignerName:    signerName,
		SignatureData: signatureData,
		SignedAt:      time.Now().UTC(),
		IPAddress:     actor.IPAddress,
	}
	if err := s.disclosures.CreateSignature(ctx, sig); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditSignatureCaptured,
		Description:   fmt.Sprintf("Signature captured for %s", signerName),
	})

	return sig, nil
}

// ListSignatures returns captured signatures, most recent first.
func (s *Service) ListSignatures(ctx context.Context, actor workflow.Actor, applicationID string) ([]models.Signature, error) {
	if _, err := s.loadOwned(ctx, applicationID, actor.ID); err != nil {
		return nil, err
	}
	sigs, err := s.disclosures.ListSignatures(ctx, applicationID)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return sigs, nil
}

var fundingMethods = map[string]bool{
	"ach_transfer":  true,
	"wire_transfer": true,
	"check_deposit": true,
	"card_payment":  true,
}

// ConfigureFunding records how the account will be initially funded.
// Re-configuring before submission replaces the prior setup.
func (s *Service) ConfigureFunding(ctx context.Context, actor workflow.Actor, applicationID, method string, amount float64, accountLast4 string) (*models.FundingSetup, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !fundingMethods[method] {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Unknown funding method",
			fmt.Sprintf("method %q is not supported", method),
		)
	}
	if amount <= 0 {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Funding amount must be positive",
			"",
		)
	}

	funding := &models.FundingSetup{
		ApplicationID: app.ID,
		Method:        method,
		Amount:        amount,
		AccountLast4:  accountLast4,
	}
	if err := s.disclosures.UpsertFunding(ctx, funding); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditFundingConfigured,
		Description:   fmt.Sprintf("Funding configured (%s, %.2f)", method, amount),
	})

	return funding, nil
}

// GetFunding returns the recorded funding setup.
func (s *Service) GetFunding(ctx context.Context, actor workflow.Actor, applicationID string) (*models.FundingSetup, error) {
	if _, err := s.loadOwned(ctx, applicationID, actor.ID); err != nil {
		return nil, err
	}
	funding, err := s.disclosures.GetFunding(ctx, applicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeFundingNotFound, "no funding setup has been configured")
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return funding, nil
}

func appliesTo(d *models.Disclosure, accountType models.AccountType) bool {
	for _, t := range d.AccountTypes {
		if t == accountType {
			return true
		}
	}
	return false
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
