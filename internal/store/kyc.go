// internal/store/kyc.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"account-opening/internal/models"
)

// KYCStore persists the one-per-application verification record. The unique
// index on application_id is the authoritative duplicate guard; Create
// surfaces it as ErrDuplicate.
type KYCStore struct {
	db *sql.DB
}

func NewKYCStore(db *sql.DB) *KYCStore {
	return &KYCStore{db: db}
}

func (s *KYCStore) Create(ctx context.Context, v *models.KYCVerification) error {
	resultsJSON, err := json.Marshal(v.Results)
	if err != nil {
		return fmt.Errorf("marshal kyc results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kyc_verifications (
			id, application_id, status, provider, verification_id,
			confidence, verified_at, results, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.ApplicationID, v.Status, v.Provider, v.VerificationID,
		v.Confidence, v.VerifiedAt, resultsJSON, v.CreatedAt,
	)
	return translate(err)
}

func (s *KYCStore) GetByApplication(ctx context.Context, applicationID string) (*models.KYCVerification, error) {
	var (
		v           models.KYCVerification
		resultsJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, status, provider, verification_id,
		       confidence, verified_at, results, created_at
		FROM kyc_verifications WHERE application_id = $1`, applicationID).Scan(
		&v.ID, &v.ApplicationID, &v.Status, &v.Provider, &v.VerificationID,
		&v.Confidence, &v.VerifiedAt, &resultsJSON, &v.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(resultsJSON, &v.Results); err != nil {
		return nil, fmt.Errorf("unmarshal kyc results: %w", err)
	}
	return &v, nil
}

// ExistsForApplication is the fast-path duplicate check; the unique index
// remains the source of truth under concurrency.
func (s *KYCStore) ExistsForApplication(ctx context.Context, applicationID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM kyc_verifications WHERE application_id = $1)`,
		applicationID).Scan(&exists)
	return exists, translate(err)
}
