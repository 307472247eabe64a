// internal/store/documents.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"account-opening/internal/models"
)

// DocumentStore persists uploaded documents. Verification state is mutated
// only by the async pipeline; everything else is written once on upload.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, application_id, signer_id, doc_type, file_name, file_size,
			mime_type, storage_path, verification_status, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.ApplicationID, doc.SignerID, string(doc.Type),
		doc.FileName, doc.FileSize, doc.MimeType, doc.StoragePath,
		string(doc.VerificationStatus), doc.UploadedAt,
	)
	return translate(err)
}

// GetByID loads a document together with the owner of its application, so
// callers can distinguish Forbidden from NotFound.
func (s *DocumentStore) GetByID(ctx context.Context, id string) (*models.Document, string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.application_id, d.signer_id, d.doc_type, d.file_name,
		       d.file_size, d.mime_type, d.storage_path, d.verification_status,
		       d.verification_details, d.uploaded_at, a.owner_id
		FROM documents d
		JOIN applications a ON a.id = d.application_id
		WHERE d.id = $1`, id)

	var (
		doc         models.Document
		docType     string
		status      string
		detailsJSON []byte
		ownerID     string
	)
	err := row.Scan(
		&doc.ID, &doc.ApplicationID, &doc.SignerID, &docType, &doc.FileName,
		&doc.FileSize, &doc.MimeType, &doc.StoragePath, &status,
		&detailsJSON, &doc.UploadedAt, &ownerID,
	)
	if err != nil {
		return nil, "", translate(err)
	}

	doc.Type = models.DocumentType(docType)
	doc.VerificationStatus = models.VerificationStatus(status)
	if len(detailsJSON) > 0 {
		doc.VerificationDetails = &models.VerificationDetails{}
		if err := json.Unmarshal(detailsJSON, doc.VerificationDetails); err != nil {
			return nil, "", fmt.Errorf("unmarshal verification details: %w", err)
		}
	}

	return &doc, ownerID, nil
}

// ListPrimaryByApplication returns primary-applicant documents (signer_id is
// null) ordered by upload time descending.
func (s *DocumentStore) ListPrimaryByApplication(ctx context.Context, applicationID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, signer_id, doc_type, file_name, file_size,
		       mime_type, storage_path, verification_status,
		       verification_details, uploaded_at
		FROM documents
		WHERE application_id = $1 AND signer_id IS NULL
		ORDER BY uploaded_at DESC`, applicationID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc         models.Document
			docType     string
			status      string
			detailsJSON []byte
		)
		if err := rows.Scan(&doc.ID, &doc.ApplicationID, &doc.SignerID, &docType,
			&doc.FileName, &doc.FileSize, &doc.MimeType, &doc.StoragePath,
			&status, &detailsJSON, &doc.UploadedAt); err != nil {
			return nil, err
		}
		doc.Type = models.DocumentType(docType)
		doc.VerificationStatus = models.VerificationStatus(status)
		if len(detailsJSON) > 0 {
			doc.VerificationDetails = &models.VerificationDetails{}
			if err := json.Unmarshal(detailsJSON, doc.VerificationDetails); err != nil {
				return nil, fmt.Errorf("unmarshal verification details: %w", err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListByApplication returns every document on the application, signer-owned
// included. Used by the risk engine to summarize verification state.
func (s *DocumentStore) ListByApplication(ctx context.Context, applicationID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, signer_id, doc_type, file_name, file_size,
		       mime_type, storage_path, verification_status,
		       verification_details, uploaded_at
		FROM documents
		WHERE application_id = $1
		ORDER BY uploaded_at DESC`, applicationID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc         models.Document
			docType     string
			status      string
			detailsJSON []byte
		)
		if err := rows.Scan(&doc.ID, &doc.ApplicationID, &doc.SignerID, &docType,
			&doc.FileName, &doc.FileSize, &doc.MimeType, &doc.StoragePath,
			&status, &detailsJSON, &doc.UploadedAt); err != nil {
			return nil, err
		}
		doc.Type = models.DocumentType(docType)
		doc.VerificationStatus = models.VerificationStatus(status)
		if len(detailsJSON) > 0 {
			doc.VerificationDetails = &models.VerificationDetails{}
			if err := json.Unmarshal(detailsJSON, doc.VerificationDetails); err != nil {
				return nil, fmt.Errorf("unmarshal verification details: %w", err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateVerification writes the one-shot verification outcome. Zero affected
// rows means the document was deleted while the task was in flight.
func (s *DocumentStore) UpdateVerification(ctx context.Context, id string, status models.VerificationStatus, details *models.VerificationDetails) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal verification details: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET verification_status = $1, verification_details = $2
		WHERE id = $3`,
		string(status), detailsJSON, id)
	if err != nil {
		return translate(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
