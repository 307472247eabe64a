// internal/models/admin.go
package models

import "time"

// ApplicationSummary is the admin read-side projection of one application.
// RiskLevel is resolved after the primary query and defaults to pending.
type ApplicationSummary struct {
	ID            string            `json:"id"`
	ApplicantID   string            `json:"applicantId"`
	AccountType   AccountType       `json:"accountType"`
	Status        ApplicationStatus `json:"status"`
	CurrentStep   Step              `json:"currentStep"`
	ApplicantName string            `json:"applicantName,omitempty"`
	Email         string            `json:"email,omitempty"`
	RiskLevel     RiskLevel         `json:"riskLevel"`
	SubmittedAt   *time.Time        `json:"submittedAt,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}
