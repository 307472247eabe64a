// internal/audit/recorder.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"account-opening/internal/common/database"
	"account-opening/internal/common/logger"
	"account-opening/internal/models"
	"account-opening/internal/store"
)

// Recorder appends immutable audit entries. Postgres is authoritative; when
// an Elasticsearch client is configured, entries are also indexed for
// compliance search, best-effort (log and continue on failure).
type Recorder struct {
	store  *store.AuditStore
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewRecorder(auditStore *store.AuditStore, es *database.ElasticsearchClient, index string, log logger.Logger) *Recorder {
	return &Recorder{
		store:  auditStore,
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// Record persists one entry. ID and PerformedAt are filled in when absent so
// callers only describe the action.
func (r *Recorder) Record(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = time.Now().UTC()
	}

	if err := r.store.Create(ctx, entry); err != nil {
		return err
	}

	r.indexEntry(ctx, entry)
	return nil
}

// ListByApplication returns entries ordered by performedAt descending.
func (r *Recorder) ListByApplication(ctx context.Context, applicationID string) ([]models.AuditEntry, error) {
	return r.store.ListByApplication(ctx, applicationID)
}

func (r *Recorder) indexEntry(ctx context.Context, entry *models.AuditEntry) {
	if r.es == nil {
		return
	}

	body, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("failed to marshal audit entry for indexing", map[string]interface{}{
			"error":   err,
			"entryId": entry.ID,
		})
		return
	}

	res, err := r.es.Client.Index(
		r.index,
		bytes.NewReader(body),
		r.es.Client.Index.WithDocumentID(entry.ID),
		r.es.Client.Index.WithContext(ctx),
	)
	if err != nil {
		r.logger.Warn("audit entry index failed", map[string]interface{}{
			"error":   err,
			"entryId": entry.ID,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		r.logger.Warn("audit entry index rejected", map[string]interface{}{
			"status":  res.Status(),
			"entryId": entry.ID,
		})
	}
}
