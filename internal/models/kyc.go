// internal/models/kyc.go
package models

import "time"

// KYCCheckResult is one sub-check inside a provider response.
type KYCCheckResult struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

// KYCResults groups the structured sub-checks returned by the provider.
type KYCResults struct {
	Identity KYCCheckResult `json:"identity"`
	Address  KYCCheckResult `json:"address"`
	Phone    KYCCheckResult `json:"phone"`
	Email    KYCCheckResult `json:"email"`
	OFAC     KYCCheckResult `json:"ofac"`
}

// KYCVerification is the one-per-application identity verification record.
// Immutable once created; duplicates are rejected by a storage uniqueness
// constraint on application_id.
type KYCVerification struct {
	ID             string     `json:"id"`
	ApplicationID  string     `json:"applicationId"`
	Status         string     `json:"status"`
	Provider       string     `json:"provider"`
	VerificationID string     `json:"verificationId"`
	Confidence     float64    `json:"confidence"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
	Results        KYCResults `json:"results"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// KYC sub-check statuses as reported by providers.
const (
	KYCCheckPassed  = "passed"
	KYCCheckFailed  = "failed"
	KYCCheckFlagged = "flagged"
	KYCCheckSkipped = "skipped"
)
