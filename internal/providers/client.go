// internal/providers/client.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"

	"account-opening/internal/common/config"
	"account-opening/internal/common/http"
	"account-opening/internal/models"
)

// HTTPDocumentVerifier calls a document-verification API over HTTP JSON.
type HTTPDocumentVerifier struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPDocumentVerifier(cfg config.ProviderConfig) *HTTPDocumentVerifier {
	return &HTTPDocumentVerifier{
		client:  http.NewClient(config.GetDuration(cfg.Timeout)),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (v *HTTPDocumentVerifier) Verify(ctx context.Context, filePath string, docType models.DocumentType) (*DocumentVerificationResult, error) {
	body, err := json.Marshal(map[string]string{
		"filePath":     filePath,
		"documentType": string(docType),
	})
	if err != nil {
		return nil, err
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, v.baseURL+"/v1/documents/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("document verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("document verification provider returned %d: %s", resp.StatusCode, payload)
	}

	var result DocumentVerificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode document verification response: %w", err)
	}
	return &result, nil
}

// HTTPKYCProvider calls an identity-verification API over HTTP JSON. Only the
// minimal personal-info fields leave the service.
type HTTPKYCProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPKYCProvider(cfg config.ProviderConfig) *HTTPKYCProvider {
	return &HTTPKYCProvider{
		client:  http.NewClient(config.GetDuration(cfg.Timeout)),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (p *HTTPKYCProvider) Verify(ctx context.Context, info *models.PersonalInfo) (*KYCResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"firstName":   info.FirstName,
		"lastName":    info.LastName,
		"email":       info.Email,
		"phone":       info.Phone,
		"dateOfBirth": info.DateOfBirth,
		"ssnLast4":    info.SSNLast4,
		"address":     info.Address,
	})
	if err != nil {
		return nil, err
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, p.baseURL+"/v1/identity/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("kyc verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("kyc provider returned %d: %s", resp.StatusCode, payload)
	}

	var result KYCResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode kyc response: %w", err)
	}
	return &result, nil
}
