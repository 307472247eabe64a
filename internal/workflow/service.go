// internal/workflow/service.go
package workflow

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"account-opening/internal/audit"
	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/logger"
	"account-opening/internal/common/metrics"
	"account-opening/internal/common/validation"
	"account-opening/internal/models"
	"account-opening/internal/notify"
	"account-opening/internal/store"
)

// Actor identifies who is performing an operation, for ownership scoping and
// the audit trail.
type Actor struct {
	ID        string
	IPAddress string
	UserAgent string
}

// Service drives the application lifecycle: creation, step navigation,
// profile capture, submission, and admin status transitions.
type Service struct {
	applications *store.ApplicationStore
	profiles     *store.ProfileStore
	audit        *audit.Recorder
	notifier     notify.Notifier
	logger       logger.Logger
}

func NewService(
	applications *store.ApplicationStore,
	profiles *store.ProfileStore,
	auditRecorder *audit.Recorder,
	notifier notify.Notifier,
	log logger.Logger,
) *Service {
	return &Service{
		applications: applications,
		profiles:     profiles,
		audit:        auditRecorder,
		notifier:     notifier,
		logger:       log.WithFields(map[string]interface{}{"component": "workflow"}),
	}
}

// ==========================
// 1. Requests
// ==========================

type CreateRequest struct {
	AccountType     models.AccountType     `json:"accountType"`
	CustomerType    string                 `json:"customerType,omitempty"`
	PersonalInfo    map[string]interface{} `json:"personalInfo,omitempty"`
	BusinessProfile map[string]interface{} `json:"businessProfile,omitempty"`
	Metadata        map[string]string      `json:"metadata,omitempty"`
}

type UpdateRequest struct {
	CurrentStep  models.Step       `json:"currentStep,omitempty"`
	CustomerType string            `json:"customerType,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Version      int               `json:"version"`
}

type SubmitRequest struct {
	TermsAccepted bool `json:"termsAccepted"`
	ESignConsent  bool `json:"eSignConsent"`
	Version       int  `json:"version"`
}

type SignerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
}

// ==========================
// 2. Application Lifecycle
// ==========================

// Create starts a new application in draft at the account-type step.
// Profile sub-records supplied with the request are validated up front and
// persisted alongside the application.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateRequest) (*models.Application, error) {
	if req.AccountType != models.AccountTypeConsumer && req.AccountType != models.AccountTypeCommercial {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid account type",
			fmt.Sprintf("accountType must be %q or %q", models.AccountTypeConsumer, models.AccountTypeCommercial),
		)
	}

	var personal *models.PersonalInfo
	if req.PersonalInfo != nil {
		if err := validation.ValidatePersonalInfo(req.PersonalInfo); err != nil {
			return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Personal information is invalid", err.Error())
		}
		personal = &models.PersonalInfo{}
		if err := decodePayload(req.PersonalInfo, personal); err != nil {
			return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Personal information is invalid", err.Error())
		}
	}

	var business *models.BusinessProfile
	if req.BusinessProfile != nil {
		if req.AccountType != models.AccountTypeCommercial {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeValidationFailed,
				"Business profiles apply to commercial applications only",
				fmt.Sprintf("application is %s", req.AccountType),
			)
		}
		if err := validation.ValidateBusinessProfile(req.BusinessProfile); err != nil {
			return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Business profile is invalid", err.Error())
		}
		business = &models.BusinessProfile{}
		if err := decodePayload(req.BusinessProfile, business); err != nil {
			return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Business profile is invalid", err.Error())
		}
	}

	now := time.Now().UTC()
	metadata := map[string]string{
		models.MetaStartedAt:    now.Format(time.RFC3339),
		models.MetaLastActivity: now.Format(time.RFC3339),
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if metadata[models.MetaSessionID] == "" {
		metadata[models.MetaSessionID] = uuid.New().String()
	}
	if metadata[models.MetaSource] == "" {
		metadata[models.MetaSource] = "api"
	}
	if actor.IPAddress != "" {
		metadata[models.MetaIPAddress] = actor.IPAddress
	}
	if actor.UserAgent != "" {
		metadata[models.MetaUserAgent] = actor.UserAgent
	}

	app := &models.Application{
		ID:           uuid.New().String(),
		OwnerID:      actor.ID,
		ApplicantID:  uuid.New().String(),
		AccountType:  req.AccountType,
		CustomerType: req.CustomerType,
		Status:       models.StatusDraft,
		CurrentStep:  models.StepAccountType,
		Metadata:     metadata,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.applications.Create(ctx, app); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	if personal != nil {
		personal.ApplicationID = app.ID
		if err := s.profiles.UpsertPersonalInfo(ctx, personal); err != nil {
			return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
		}
	}
	if business != nil {
		business.ApplicationID = app.ID
		if err := s.profiles.UpsertBusinessProfile(ctx, business); err != nil {
			return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
		}
	}

	metrics.ApplicationsCreated.WithLabelValues(string(app.AccountType)).Inc()

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditApplicationCreated,
		Description:   fmt.Sprintf("Application created (%s)", app.AccountType),
	})

	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID,
		"accountType":   app.AccountType,
	})

	return app, nil
}

// Get loads an application scoped to its owner.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*models.Application, error) {
	return s.loadOwned(ctx, id, actor.ID)
}

// Update applies step navigation and metadata changes. Metadata is merged,
// never replaced. The version in the request must match the stored row.
func (s *Service) Update(ctx context.Context, actor Actor, id string, req UpdateRequest) (*models.Application, error) {
	app, err := s.loadOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(app); err != nil {
		return nil, err
	}

	changes := map[string]models.FieldChange{}

	if req.CurrentStep != "" && req.CurrentStep != app.CurrentStep {
		if !ValidStep(app.AccountType, req.CurrentStep) {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeInvalidStepTransition,
				"Unknown workflow step",
				fmt.Sprintf("step %q is not part of the %s workflow", req.CurrentStep, app.AccountType),
			)
		}
		if !CanMoveTo(app.AccountType, app.CurrentStep, req.CurrentStep) {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeInvalidStepTransition,
				"Cannot skip ahead in the workflow",
				fmt.Sprintf("cannot move from %q to %q", app.CurrentStep, req.CurrentStep),
			)
		}
		changes["currentStep"] = models.FieldChange{From: app.CurrentStep, To: req.CurrentStep}
		app.CurrentStep = req.CurrentStep
	}

	if req.CustomerType != "" && req.CustomerType != app.CustomerType {
		changes["customerType"] = models.FieldChange{From: app.CustomerType, To: req.CustomerType}
		app.CustomerType = req.CustomerType
	}

	for k, v := range req.Metadata {
		app.Metadata[k] = v
	}
	app.Metadata[models.MetaLastActivity] = time.Now().UTC().Format(time.RFC3339)

	// First applicant activity moves the draft into progress.
	if app.Status == models.StatusDraft {
		changes["status"] = models.FieldChange{From: models.StatusDraft, To: models.StatusInProgress}
		app.Status = models.StatusInProgress
	}

	app.Version = req.Version
	if err := s.saveApplication(ctx, app); err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.record(ctx, actor, &models.AuditEntry{
			ApplicationID: app.ID,
			Action:        models.AuditApplicationUpdated,
			Description:   "Application updated",
			Changes:       changes,
		})
	}

	return app, nil
}

// Submit finalizes the applicant's side of the workflow. Both consent flags
// are required; the transition is in_progress -> submitted.
func (s *Service) Submit(ctx context.Context, actor Actor, id string, req SubmitRequest) (*models.Application, error) {
	app, err := s.loadOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}

	if !req.TermsAccepted || !req.ESignConsent {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeConsentRequired,
			"Terms acceptance and e-sign consent are both required to submit",
			"",
		)
	}

	if !CanTransition(app.Status, models.StatusSubmitted) {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeInvalidStatusTransition,
			"Application cannot be submitted in its current status",
			fmt.Sprintf("status is %q", app.Status),
		)
	}

	now := time.Now().UTC()
	previous := app.Status
	app.Status = models.StatusSubmitted
	app.SubmittedAt = &now
	app.CurrentStep = models.StepReview
	app.Metadata[models.MetaLastActivity] = now.Format(time.RFC3339)

	app.Version = req.Version
	if err := s.saveApplication(ctx, app); err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.Inc()

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditApplicationSubmitted,
		Description:   "Application submitted",
		Changes: map[string]models.FieldChange{
			"status":        {From: previous, To: app.Status},
			"termsAccepted": {From: false, To: true},
			"eSignConsent":  {From: false, To: true},
		},
	})

	s.notifyStatusChange(ctx, app, previous, "")

	return app, nil
}

// ==========================
// 3. Profile Capture
// ==========================

// SavePersonalInfo validates and upserts the applicant's identity profile.
func (s *Service) SavePersonalInfo(ctx context.Context, actor Actor, id string, payload map[string]interface{}) (*models.PersonalInfo, error) {
	app, err := s.loadOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(app); err != nil {
		return nil, err
	}

	if err := validation.ValidatePersonalInfo(payload); err != nil {
		return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Personal information is invalid", err.Error())
	}

	var info models.PersonalInfo
	if err := decodePayload(payload, &info); err != nil {
		return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Personal information is invalid", err.Error())
	}
	info.ApplicationID = app.ID

	if err := s.profiles.UpsertPersonalInfo(ctx, &info); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.touch(ctx, actor, app, "Personal information saved")
	return &info, nil
}

func (s *Service) GetPersonalInfo(ctx context.Context, actor Actor, id string) (*models.PersonalInfo, error) {
	if _, err := s.loadOwned(ctx, id, actor.ID); err != nil {
		return nil, err
	}
	info, err := s.profiles.GetPersonalInfo(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeProfileNotFound, "personal information has not been provided")
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return info, nil
}

// SaveBusinessProfile is only valid on commercial applications.
func (s *Service) SaveBusinessProfile(ctx context.Context, actor Actor, id string, payload map[string]interface{}) (*models.BusinessProfile, error) {
	app, err := s.loadOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(app); err != nil {
		return nil, err
	}
	if app.AccountType != models.AccountTypeCommercial {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Business profiles apply to commercial applications only",
			fmt.Sprintf("application is %s", app.AccountType),
		)
	}

	if err := validation.ValidateBusinessProfile(payload); err != nil {
		return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Business profile is invalid", err.Error())
	}

	var profile models.BusinessProfile
	if err := decodePayload(payload, &profile); err != nil {
		return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Business profile is invalid", err.Error())
	}
	profile.ApplicationID = app.ID

	if err := s.profiles.UpsertBusinessProfile(ctx, &profile); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.touch(ctx, actor, app, "Business profile saved")
	return &profile, nil
}

func (s *Service) GetBusinessProfile(ctx context.Context, actor Actor, id string) (*models.BusinessProfile, error) {
	if _, err := s.loadOwned(ctx, id, actor.ID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetBusinessProfile(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeProfileNotFound, "business profile has not been provided")
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return profile, nil
}

func (s *Service) SaveFinancialProfile(ctx context.Context, actor Actor, id string, payload map[string]interface{}) (*models.FinancialProfile, error) {
	app, err := s.loadOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(app); err != nil {
		return nil, err
	}

	if err := validation.ValidateFinancialProfile(payload); err != nil {
		return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Financial profile is invalid", err.Error())
	}

	var profile models.FinancialProfile
	if err := decodePayload(payload, &profile); err != nil {
		return nil, apperrors.NewInvalidRequest(apperrors.ErrCodeValidationFailed, "Financial profile is invalid", err.Error())
	}
	profile.ApplicationID = app.ID

	if err := s.profiles.UpsertFinancialProfile(ctx, &profile); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.touch(ctx, actor, app, "Financial profile saved")
	return &profile, nil
}

func (s *Service) GetFinancialProfile(ctx context.Context, actor Actor, id string) (*models.FinancialProfile, error) {
	if _, err := s.loadOwned(ctx, id, actor.ID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetFinancialProfile(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeProfileNotFound, "financial profile has not been provided")
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return profile, nil
}

// AddSigner registers a co-signer on a commercial application.
func (s *Service) AddSigner(ctx context.Context, actor Actor, id string, req SignerRequest) (*models.AdditionalSigner, error) {
	app, err := s.loadOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(app); err != nil {
		return nil, err
	}
	if app.AccountType != models.AccountTypeCommercial {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Additional signers apply to commercial applications only",
			fmt.Sprintf("application is %s", app.AccountType),
		)
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Signer first name, last name, and email are required",
			"",
		)
	}

	signer := &models.AdditionalSigner{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Role:          req.Role,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.profiles.CreateSigner(ctx, signer); err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	s.touch(ctx, actor, app, fmt.Sprintf("Additional signer %s %s added", signer.FirstName, signer.LastName))
	return signer, nil
}

func (s *Service) ListSigners(ctx context.Context, actor Actor, id string) ([]models.AdditionalSigner, error) {
	if _, err := s.loadOwned(ctx, id, actor.ID); err != nil {
		return nil, err
	}
	signers, err := s.profiles.ListSigners(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return signers, nil
}

// ==========================
// 4. Admin Operations
// ==========================

// AdminGet loads an application without an ownership filter.
func (s *Service) AdminGet(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeApplicationNotFound, fmt.Sprintf("application %s does not exist", id))
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return app, nil
}

// AdminUpdateStatus drives the review state machine. Approval jumps the
// workflow to confirmation; completion stamps completedAt.
func (s *Service) AdminUpdateStatus(ctx context.Context, adminID, id string, to models.ApplicationStatus, notes string) (*models.Application, error) {
	app, err := s.AdminGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ValidStatus(to) {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed,
			"Unknown application status",
			fmt.Sprintf("status %q is not recognized", to),
		)
	}
	if !CanTransition(app.Status, to) {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeInvalidStatusTransition,
			"Status transition is not allowed",
			fmt.Sprintf("cannot move from %q to %q", app.Status, to),
		)
	}

	previous := app.Status
	app.Status = to
	switch to {
	case models.StatusApproved:
		app.CurrentStep = models.StepConfirmation
	case models.StatusCompleted:
		now := time.Now().UTC()
		app.CompletedAt = &now
	}

	if err := s.saveApplication(ctx, app); err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(previous), string(to)).Inc()

	s.record(ctx, Actor{ID: adminID}, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditStatusChanged,
		Description:   notes,
		Changes: map[string]models.FieldChange{
			"status": {From: previous, To: to},
		},
	})

	s.notifyStatusChange(ctx, app, previous, notes)

	return app, nil
}

// ==========================
// 5. Internals
// ==========================

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

// ensureEditable rejects applicant writes once the application leaves the
// applicant's hands.
func (s *Service) ensureEditable(app *models.Application) error {
	switch app.Status {
	case models.StatusDraft, models.StatusInProgress:
		return nil
	}
	return apperrors.NewInvalidRequest(
		apperrors.ErrCodeInvalidStatusTransition,
		"Application can no longer be modified",
		fmt.Sprintf("status is %q", app.Status),
	)
}

func (s *Service) saveApplication(ctx context.Context, app *models.Application) error {
	err := s.applications.Update(ctx, app)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, store.ErrStaleVersion):
		return apperrors.NewInvalidRequest(
			apperrors.ErrCodeStaleVersion,
			"Application was modified concurrently; reload and retry",
			"",
		)
	case stderrors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFound(apperrors.ErrCodeApplicationNotFound, fmt.Sprintf("application %s does not exist", app.ID))
	default:
		return apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
}

// touch stamps lastActivity and writes a minimal audit entry after a profile
// sub-record changes.
func (s *Service) touch(ctx context.Context, actor Actor, app *models.Application, description string) {
	app.Metadata[models.MetaLastActivity] = time.Now().UTC().Format(time.RFC3339)
	if app.Status == models.StatusDraft {
		app.Status = models.StatusInProgress
	}
	if err := s.applications.Update(ctx, app); err != nil {
		s.logger.Warn("failed to stamp application activity", map[string]interface{}{
			"error":         err,
			"applicationId": app.ID,
		})
	}

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditApplicationUpdated,
		Description:   description,
	})
}

func (s *Service) record(ctx context.Context, actor Actor, entry *models.AuditEntry) {
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

func (s *Service) notifyStatusChange(ctx context.Context, app *models.Application, from models.ApplicationStatus, notes string) {
	change := notify.StatusChange{
		ApplicationID: app.ID,
		From:          from,
		To:            app.Status,
		Notes:         notes,
	}
	if info, err := s.profiles.GetPersonalInfo(ctx, app.ID); err == nil {
		change.Email = info.Email
		change.Phone = info.Phone
	}
	if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
		s.logger.Warn("status change notification failed", map[string]interface{}{
			"error":         err,
			"applicationId": app.ID,
		})
	}
}

func decodePayload(payload map[string]interface{}, target interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
