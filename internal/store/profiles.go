// internal/store/profiles.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"account-opening/internal/models"
)

// ProfileStore persists the per-application profile sub-records consumed by
// KYC and risk scoring.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) UpsertPersonalInfo(ctx context.Context, p *models.PersonalInfo) error {
	addressJSON, err := json.Marshal(p.Address)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO personal_profiles (
			application_id, first_name, last_name, email, phone,
			date_of_birth, ssn_last4, address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (application_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			date_of_birth = EXCLUDED.date_of_birth,
			ssn_last4 = EXCLUDED.ssn_last4,
			address = EXCLUDED.address,
			updated_at = NOW()`,
		p.ApplicationID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.DateOfBirth, p.SSNLast4, addressJSON,
	)
	return translate(err)
}

func (s *ProfileStore) GetPersonalInfo(ctx context.Context, applicationID string) (*models.PersonalInfo, error) {
	var (
		p           models.PersonalInfo
		addressJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, first_name, last_name, email, phone,
		       date_of_birth, ssn_last4, address, created_at, updated_at
		FROM personal_profiles WHERE application_id = $1`, applicationID).Scan(
		&p.ApplicationID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.DateOfBirth, &p.SSNLast4, &addressJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(addressJSON, &p.Address); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return &p, nil
}

func (s *ProfileStore) UpsertBusinessProfile(ctx context.Context, b *models.BusinessProfile) error {
	addressJSON, err := json.Marshal(b.Address)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO business_profiles (
			application_id, legal_name, dba_name, ein, entity_type, industry,
			years_in_business, annual_revenue, address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (application_id) DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			dba_name = EXCLUDED.dba_name,
			ein = EXCLUDED.ein,
			entity_type = EXCLUDED.entity_type,
			industry = EXCLUDED.industry,
			years_in_business = EXCLUDED.years_in_business,
			annual_revenue = EXCLUDED.annual_revenue,
			address = EXCLUDED.address,
			updated_at = NOW()`,
		b.ApplicationID, b.LegalName, b.DBAName, b.EIN, b.EntityType,
		b.Industry, b.YearsInBusiness, b.AnnualRevenue, addressJSON,
	)
	return translate(err)
}

func (s *ProfileStore) GetBusinessProfile(ctx context.Context, applicationID string) (*models.BusinessProfile, error) {
	var (
		b           models.BusinessProfile
		addressJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, legal_name, dba_name, ein, entity_type, industry,
		       years_in_business, annual_revenue, address, created_at, updated_at
		FROM business_profiles WHERE application_id = $1`, applicationID).Scan(
		&b.ApplicationID, &b.LegalName, &b.DBAName, &b.EIN, &b.EntityType,
		&b.Industry, &b.YearsInBusiness, &b.AnnualRevenue, &addressJSON,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(addressJSON, &b.Address); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return &b, nil
}

func (s *ProfileStore) UpsertFinancialProfile(ctx context.Context, f *models.FinancialProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_profiles (
			application_id, annual_income, employment_status, employer,
			source_of_funds, net_worth, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (application_id) DO UPDATE SET
			annual_income = EXCLUDED.annual_income,
			employment_status = EXCLUDED.employment_status,
			employer = EXCLUDED.employer,
			source_of_funds = EXCLUDED.source_of_funds,
			net_worth = EXCLUDED.net_worth,
			updated_at = NOW()`,
		f.ApplicationID, f.AnnualIncome, f.EmploymentStatus, f.Employer,
		f.SourceOfFunds, f.NetWorth,
	)
	return translate(err)
}

func (s *ProfileStore) GetFinancialProfile(ctx context.Context, applicationID string) (*models.FinancialProfile, error) {
	var f models.FinancialProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, annual_income, employment_status, employer,
		       source_of_funds, net_worth, created_at, updated_at
		FROM financial_profiles WHERE application_id = $1`, applicationID).Scan(
		&f.ApplicationID, &f.AnnualIncome, &f.EmploymentStatus, &f.Employer,
		&f.SourceOfFunds, &f.NetWorth, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (s *ProfileStore) CreateSigner(ctx context.Context, signer *models.AdditionalSigner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO additional_signers (
			id, application_id, first_name, last_name, email, role, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		signer.ID, signer.ApplicationID, signer.FirstName, signer.LastName,
		signer.Email, signer.Role, signer.CreatedAt,
	)
	return translate(err)
}

func (s *ProfileStore) ListSigners(ctx context.Context, applicationID string) ([]models.AdditionalSigner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, first_name, last_name, email, role, created_at
		FROM additional_signers
		WHERE application_id = $1
		ORDER BY created_at ASC`, applicationID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var signers []models.AdditionalSigner
	for rows.Next() {
		var sg models.AdditionalSigner
		if err := rows.Scan(&sg.ID, &sg.ApplicationID, &sg.FirstName, &sg.LastName,
			&sg.Email, &sg.Role, &sg.CreatedAt); err != nil {
			return nil, err
		}
		signers = append(signers, sg)
	}
	return signers, rows.Err()
}
