// internal/store/applications.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"account-opening/internal/models"
)

// ApplicationStore persists Application rows. The version column is the
// optimistic-concurrency token: Update only succeeds when the caller holds
// the current version.
type ApplicationStore struct {
	db *sql.DB
}

func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

const applicationColumns = `
	id, owner_id, applicant_id, account_type, customer_type, status,
	current_step, metadata, version, submitted_at, completed_at,
	created_at, updated_at`

func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) error {
	metadataJSON, err := json.Marshal(app.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, owner_id, applicant_id, account_type, customer_type, status,
			current_step, metadata, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		app.ID,
		app.OwnerID,
		app.ApplicantID,
		string(app.AccountType),
		app.CustomerType,
		string(app.Status),
		string(app.CurrentStep),
		metadataJSON,
		app.Version,
		app.CreatedAt,
	)
	return translate(err)
}

// GetByID loads an application without an ownership filter (admin reads).
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// GetByIDForOwner loads an application scoped to its owner. A row owned by a
// different user scans as not found, indistinguishable from non-existence.
func (s *ApplicationStore) GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return scanApplication(row)
}

// Update writes back a mutated application, guarded by the version the caller
// read. The version is bumped on success; zero affected rows means either a
// stale version or a vanished row.
func (s *ApplicationStore) Update(ctx context.Context, app *models.Application) error {
	metadataJSON, err := json.Marshal(app.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE applications SET
			customer_type = $1,
			status = $2,
			current_step = $3,
			metadata = $4,
			submitted_at = $5,
			completed_at = $6,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $7 AND version = $8`,
		app.CustomerType,
		string(app.Status),
		string(app.CurrentStep),
		metadataJSON,
		app.SubmittedAt,
		app.CompletedAt,
		app.ID,
		app.Version,
	)
	if err != nil {
		return translate(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, app.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrStaleVersion
		}
		return ErrNotFound
	}

	app.Version++
	return nil
}

func scanApplication(row *sql.Row) (*models.Application, error) {
	var (
		app          models.Application
		accountType  string
		status       string
		currentStep  string
		metadataJSON []byte
		customerType sql.NullString
	)

	err := row.Scan(
		&app.ID,
		&app.OwnerID,
		&app.ApplicantID,
		&accountType,
		&customerType,
		&status,
		&currentStep,
		&metadataJSON,
		&app.Version,
		&app.SubmittedAt,
		&app.CompletedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}

	app.AccountType = models.AccountType(accountType)
	app.Status = models.ApplicationStatus(status)
	app.CurrentStep = models.Step(currentStep)
	app.CustomerType = customerType.String

	app.Metadata = map[string]string{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &app.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &app, nil
}
