// internal/store/audit.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"account-opening/internal/models"
)

// AuditStore is append-only: no update or delete statements exist on this
// table anywhere in the codebase.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Create(ctx context.Context, entry *models.AuditEntry) error {
	changesJSON, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_trail (
			id, application_id, action, description, performed_by,
			performed_at, ip_address, user_agent, changes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.ApplicationID, entry.Action, entry.Description,
		entry.PerformedBy, entry.PerformedAt, entry.IPAddress,
		entry.UserAgent, changesJSON,
	)
	return translate(err)
}

func (s *AuditStore) ListByApplication(ctx context.Context, applicationID string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, action, description, performed_by,
		       performed_at, ip_address, user_agent, changes
		FROM audit_trail
		WHERE application_id = $1
		ORDER BY performed_at DESC`, applicationID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			entry       models.AuditEntry
			changesJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ApplicationID, &entry.Action,
			&entry.Description, &entry.PerformedBy, &entry.PerformedAt,
			&entry.IPAddress, &entry.UserAgent, &changesJSON); err != nil {
			return nil, err
		}
		if len(changesJSON) > 0 {
			if err := json.Unmarshal(changesJSON, &entry.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changes: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
