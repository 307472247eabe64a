// internal/store/disclosures.go
package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"account-opening/internal/models"
)

// DisclosureStore covers versioned disclosures and their per-application
// agreements. Agreement freezing is enforced by the service; the store only
// offers the upsert.
type DisclosureStore struct {
	db *sql.DB
}

func NewDisclosureStore(db *sql.DB) *DisclosureStore {
	return &DisclosureStore{db: db}
}

func (s *DisclosureStore) ListActiveForAccountType(ctx context.Context, accountType models.AccountType) ([]models.Disclosure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, disclosure_type, version, title, content, account_types,
		       active, created_at
		FROM disclosures
		WHERE active = TRUE AND $1 = ANY(account_types)
		ORDER BY disclosure_type, version DESC`, string(accountType))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var disclosures []models.Disclosure
	for rows.Next() {
		var (
			d     models.Disclosure
			types pq.StringArray
		)
		if err := rows.Scan(&d.ID, &d.DisclosureType, &d.Version, &d.Title,
			&d.Content, &types, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		for _, t := range types {
			d.AccountTypes = append(d.AccountTypes, models.AccountType(t))
		}
		disclosures = append(disclosures, d)
	}
	return disclosures, rows.Err()
}

func (s *DisclosureStore) GetByID(ctx context.Context, id string) (*models.Disclosure, error) {
	var (
		d     models.Disclosure
		types pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, disclosure_type, version, title, content, account_types,
		       active, created_at
		FROM disclosures WHERE id = $1`, id).Scan(
		&d.ID, &d.DisclosureType, &d.Version, &d.Title, &d.Content,
		&types, &d.Active, &d.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	for _, t := range types {
		d.AccountTypes = append(d.AccountTypes, models.AccountType(t))
	}
	return &d, nil
}

func (s *DisclosureStore) GetAgreement(ctx context.Context, applicationID, disclosureID string) (*models.Agreement, error) {
	var a models.Agreement
	err := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, disclosure_id, acknowledged,
		       acknowledged_at, ip_address, user_agent, created_at, updated_at
		FROM agreements
		WHERE application_id = $1 AND disclosure_id = $2`,
		applicationID, disclosureID).Scan(
		&a.ID, &a.ApplicationID, &a.DisclosureID, &a.Acknowledged,
		&a.AcknowledgedAt, &a.IPAddress, &a.UserAgent, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *DisclosureStore) UpsertAgreement(ctx context.Context, a *models.Agreement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agreements (
			id, application_id, disclosure_id, acknowledged, acknowledged_at,
			ip_address, user_agent, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (application_id, disclosure_id) DO UPDATE SET
			acknowledged = EXCLUDED.acknowledged,
			acknowledged_at = EXCLUDED.acknowledged_at,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			updated_at = NOW()`,
		a.ID, a.ApplicationID, a.DisclosureID, a.Acknowledged,
		a.AcknowledgedAt, a.IPAddress, a.UserAgent,
	)
	return translate(err)
}

func (s *DisclosureStore) CreateSignature(ctx context.Context, sig *models.Signature) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signatures (
			id, application_id, signer_name, signature_data, signed_at, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		sig.ID, sig.ApplicationID, sig.SignerName, sig.SignatureData,
		sig.SignedAt, sig.IPAddress,
	)
	return translate(err)
}

func (s *DisclosureStore) ListSignatures(ctx context.Context, applicationID string) ([]models.Signature, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, signer_name, signature_data, signed_at, ip_address
		FROM signatures
		WHERE application_id = $1
		ORDER BY signed_at DESC`, applicationID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var sigs []models.Signature
	for rows.Next() {
		var sig models.Signature
		if err := rows.Scan(&sig.ID, &sig.ApplicationID, &sig.SignerName,
			&sig.SignatureData, &sig.SignedAt, &sig.IPAddress); err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

func (s *DisclosureStore) UpsertFunding(ctx context.Context, f *models.FundingSetup) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO funding_setups (
			application_id, method, amount, account_last4, created_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (application_id) DO UPDATE SET
			method = EXCLUDED.method,
			amount = EXCLUDED.amount,
			account_last4 = EXCLUDED.account_last4`,
		f.ApplicationID, f.Method, f.Amount, f.AccountLast4,
	)
	return translate(err)
}

func (s *DisclosureStore) GetFunding(ctx context.Context, applicationID string) (*models.FundingSetup, error) {
	var f models.FundingSetup
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, method, amount, account_last4, created_at
		FROM funding_setups WHERE application_id = $1`, applicationID).Scan(
		&f.ApplicationID, &f.Method, &f.Amount, &f.AccountLast4, &f.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}
