// internal/models/application.go
package models

import "time"

// ApplicationStatus is the lifecycle status driven by the admin state machine.
type ApplicationStatus string

const (
	StatusDraft       ApplicationStatus = "draft"
	StatusInProgress  ApplicationStatus = "in_progress"
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusCompleted   ApplicationStatus = "completed"
)

// AccountType selects the step path an application follows.
type AccountType string

const (
	AccountTypeConsumer   AccountType = "consumer"
	AccountTypeCommercial AccountType = "commercial"
)

// Step is an ordered stage in the account-opening workflow.
type Step string

const (
	StepAccountType       Step = "account_type"
	StepPersonalInfo      Step = "personal_info"
	StepBusinessProfile   Step = "business_profile"
	StepFinancialProfile  Step = "financial_profile"
	StepProductSelection  Step = "product_selection"
	StepDocuments         Step = "documents"
	StepIdentity          Step = "identity_verification"
	StepAdditionalSigners Step = "additional_signers"
	StepRiskAssessment    Step = "risk_assessment"
	StepDisclosures       Step = "disclosures"
	StepSignatures        Step = "signatures"
	StepFunding           Step = "funding"
	StepReview            Step = "review"
	StepConfirmation      Step = "confirmation"
)

// Metadata keys every application carries.
const (
	MetaLastActivity = "lastActivity"
	MetaStartedAt    = "startedAt"
	MetaSessionID    = "sessionId"
	MetaSource       = "source"
	MetaUserAgent    = "userAgent"
	MetaIPAddress    = "ipAddress"
)

// Application is the top-level record tracking one applicant's progress.
// Version is the optimistic-concurrency token; stale writes are rejected.
type Application struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"-"`
	ApplicantID  string            `json:"applicantId"`
	AccountType  AccountType       `json:"accountType"`
	CustomerType string            `json:"customerType,omitempty"`
	Status       ApplicationStatus `json:"status"`
	CurrentStep  Step              `json:"currentStep"`
	Metadata     map[string]string `json:"metadata"`
	Version      int               `json:"version"`
	SubmittedAt  *time.Time        `json:"submittedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
