// internal/providers/providers.go
package providers

import (
	"context"
	"time"

	"account-opening/internal/models"
)

// DocumentVerificationResult is the document-OCR provider response contract.
type DocumentVerificationResult struct {
	Status         models.VerificationStatus `json:"status"`
	Provider       string                    `json:"provider"`
	Confidence     float64                   `json:"confidence"`
	ExtractedData  map[string]string         `json:"extractedData,omitempty"`
	VerificationID string                    `json:"verificationId"`
	VerifiedAt     time.Time                 `json:"verifiedAt"`
	Issues         []string                  `json:"issues,omitempty"`
}

// DocumentVerifier is the external document-verification collaborator.
type DocumentVerifier interface {
	Verify(ctx context.Context, filePath string, docType models.DocumentType) (*DocumentVerificationResult, error)
}

// KYCResult is the identity-verification provider response contract.
type KYCResult struct {
	Status         string            `json:"status"`
	Provider       string            `json:"provider"`
	VerificationID string            `json:"verificationId"`
	Confidence     float64           `json:"confidence"`
	VerifiedAt     *time.Time        `json:"verifiedAt,omitempty"`
	Results        models.KYCResults `json:"results"`
}

// KYCProvider is the external identity-verification collaborator.
type KYCProvider interface {
	Verify(ctx context.Context, info *models.PersonalInfo) (*KYCResult, error)
}
