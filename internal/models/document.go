// internal/models/document.go
package models

import "time"

// VerificationStatus tracks the asynchronous document verification outcome.
type VerificationStatus string

const (
	VerificationPending      VerificationStatus = "pending"
	VerificationVerified     VerificationStatus = "verified"
	VerificationFailed       VerificationStatus = "failed"
	VerificationManualReview VerificationStatus = "manual_review"
)

// DocumentType values accepted by the upload allow-list.
type DocumentType string

const (
	DocTypeDriversLicense       DocumentType = "drivers_license"
	DocTypePassport             DocumentType = "passport"
	DocTypeStateID              DocumentType = "state_id"
	DocTypeSSNCard              DocumentType = "ssn_card"
	DocTypeProofOfAddress       DocumentType = "proof_of_address"
	DocTypeBusinessLicense      DocumentType = "business_license"
	DocTypeArticlesOfInc        DocumentType = "articles_of_incorporation"
	DocTypeEINLetter            DocumentType = "ein_letter"
	DocTypeOperatingAgreement   DocumentType = "operating_agreement"
	DocTypeBankStatement        DocumentType = "bank_statement"
	DocTypeUtilityBill          DocumentType = "utility_bill"
	DocTypeOther                DocumentType = "other"
)

// AllowedDocumentTypes is the upload allow-list.
var AllowedDocumentTypes = map[DocumentType]bool{
	DocTypeDriversLicense:     true,
	DocTypePassport:           true,
	DocTypeStateID:            true,
	DocTypeSSNCard:            true,
	DocTypeProofOfAddress:     true,
	DocTypeBusinessLicense:    true,
	DocTypeArticlesOfInc:      true,
	DocTypeEINLetter:          true,
	DocTypeOperatingAgreement: true,
	DocTypeBankStatement:      true,
	DocTypeUtilityBill:        true,
	DocTypeOther:              true,
}

// VerificationDetails is the structured result written once by the pipeline.
type VerificationDetails struct {
	Provider       string            `json:"provider,omitempty"`
	Confidence     float64           `json:"confidence,omitempty"`
	ExtractedData  map[string]string `json:"extractedData,omitempty"`
	VerificationID string            `json:"verificationId,omitempty"`
	VerifiedAt     *time.Time        `json:"verifiedAt,omitempty"`
	Issues         []string          `json:"issues,omitempty"`
	Error          string            `json:"error,omitempty"`
	FailedAt       *time.Time        `json:"failedAt,omitempty"`
	Attempts       int               `json:"attempts,omitempty"`
}

// Document is one uploaded file attached to an application. A nil SignerID
// means the document belongs to the primary applicant.
type Document struct {
	ID                  string               `json:"id"`
	ApplicationID       string               `json:"applicationId"`
	SignerID            *string              `json:"signerId,omitempty"`
	Type                DocumentType         `json:"type"`
	FileName            string               `json:"fileName"`
	FileSize            int64                `json:"fileSize"`
	MimeType            string               `json:"mimeType"`
	StoragePath         string               `json:"-"`
	VerificationStatus  VerificationStatus   `json:"verificationStatus"`
	VerificationDetails *VerificationDetails `json:"verificationDetails,omitempty"`
	UploadedAt          time.Time            `json:"uploadedAt"`
}
