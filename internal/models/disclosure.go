// internal/models/disclosure.go
package models

import "time"

// Disclosure is a versioned legal text applicable to a set of account types.
type Disclosure struct {
	ID             string        `json:"id"`
	DisclosureType string        `json:"disclosureType"`
	Version        string        `json:"version"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	AccountTypes   []AccountType `json:"accountTypes"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Agreement is the per-application acknowledgment of a disclosure. Upsertable
// until Acknowledged is true, then frozen.
type Agreement struct {
	ID             string     `json:"id"`
	ApplicationID  string     `json:"applicationId"`
	DisclosureID   string     `json:"disclosureId"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	IPAddress      string     `json:"ipAddress,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Signature is one captured electronic signature on an application.
type Signature struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	SignerName    string    `json:"signerName"`
	SignatureData string    `json:"signatureData"`
	SignedAt      time.Time `json:"signedAt"`
	IPAddress     string    `json:"ipAddress,omitempty"`
}

// FundingSetup records how the new account is initially funded.
type FundingSetup struct {
	ApplicationID string    `json:"applicationId"`
	Method        string    `json:"method"`
	Amount        float64   `json:"amount"`
	AccountLast4  string    `json:"accountLast4,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
