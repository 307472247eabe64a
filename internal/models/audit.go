// internal/models/audit.go
package models

import "time"

// Audit action tags recorded by the workflow. One entry per logical action.
const (
	AuditApplicationCreated      = "application_created"
	AuditApplicationUpdated      = "application_updated"
	AuditApplicationSubmitted    = "application_submitted"
	AuditStatusChanged           = "status_changed"
	AuditDocumentUploaded        = "document_uploaded"
	AuditDocumentDeleted         = "document_deleted"
	AuditKYCInitiated            = "kyc_verification_initiated"
	AuditRiskAssessed            = "risk_assessment_performed"
	AuditDisclosureAcknowledged  = "disclosure_acknowledged"
	AuditSignatureCaptured       = "signature_captured"
	AuditFundingConfigured       = "funding_configured"
)

// FieldChange is a from/to diff for one field.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// AuditEntry is an immutable record of a state-changing action. Entries are
// never updated or deleted by any component.
type AuditEntry struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"applicationId"`
	Action        string                 `json:"action"`
	Description   string                 `json:"description"`
	PerformedBy   string                 `json:"performedBy"`
	PerformedAt   time.Time              `json:"performedAt"`
	IPAddress     string                 `json:"ipAddress,omitempty"`
	UserAgent     string                 `json:"userAgent,omitempty"`
	Changes       map[string]FieldChange `json:"changes,omitempty"`
}
