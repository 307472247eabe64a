// internal/documents/service.go
package documents

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"account-opening/internal/audit"
	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/logger"
	"account-opening/internal/common/metrics"
	"account-opening/internal/models"
	"account-opening/internal/storage"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// Service handles document upload, retrieval, and deletion. Verification is
// asynchronous: upload stores the file, records the document as pending, and
// enqueues a task for the pipeline before returning.
type Service struct {
	applications *store.ApplicationStore
	documents    *store.DocumentStore
	files        storage.Store
	queue        *Queue
	audit        *audit.Recorder
	logger       logger.Logger
}

func NewService(
	applications *store.ApplicationStore,
	documents *store.DocumentStore,
	files storage.Store,
	queue *Queue,
	auditRecorder *audit.Recorder,
	log logger.Logger,
) *Service {
	return &Service{
		applications: applications,
		documents:    documents,
		files:        files,
		queue:        queue,
		audit:        auditRecorder,
		logger:       log.WithFields(map[string]interface{}{"component": "documents"}),
	}
}

type UploadRequest struct {
	Type     models.DocumentType
	FileName string
	MimeType string
	Size     int64
	SignerID *string
	Content  io.Reader
}

// Upload stores the file and registers the document as pending verification.
// The caller gets the pending record immediately; the verification outcome
// lands asynchronously.
func (s *Service) Upload(ctx context.Context, actor workflow.Actor, applicationID string, req UploadRequest) (*models.Document, error) {
	app, err := s.loadOwned(ctx, applicationID, actor.ID)
	if err != nil {
		return nil, err
	}

	if !models.AllowedDocumentTypes[req.Type] {
		return nil, apperrors.NewInvalidRequest(
			apperrors.ErrCodeInvalidDocumentType,
			"Document type is not accepted",
			fmt.Sprintf("type %q is not in the allow-list", req.Type),
		)
	}

	id := uuid.New().String()
	storedName := id + filepath.Ext(req.FileName)
	path, err := s.files.Store(storedName, req.Content)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodeDocumentStorageFailed, err)
	}

	doc := &models.Document{
		ID:                 id,
		ApplicationID:      app.ID,
		SignerID:           req.SignerID,
		Type:               req.Type,
		FileName:           req.FileName,
		FileSize:           req.Size,
		MimeType:           req.MimeType,
		StoragePath:        path,
		VerificationStatus: models.VerificationPending,
		UploadedAt:         time.Now().UTC(),
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		// Don't leave an unreferenced file behind.
		if rmErr := s.files.Delete(path); rmErr != nil {
			s.logger.Warn("failed to remove file after insert failure", map[string]interface{}{
				"error": rmErr,
				"path":  path,
			})
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	metrics.DocumentsUploaded.WithLabelValues(string(doc.Type)).Inc()

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: app.ID,
		Action:        models.AuditDocumentUploaded,
		Description:   fmt.Sprintf("Document uploaded (%s)", doc.Type),
	})

	task := &Task{
		DocumentID:    doc.ID,
		ApplicationID: app.ID,
		StoragePath:   path,
		DocumentType:  doc.Type,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// The record stays pending; the task can be replayed once the
		// queue recovers.
		s.logger.Error("failed to enqueue verification task", map[string]interface{}{
			"error":      err,
			"documentId": doc.ID,
		})
	}

	return doc, nil
}

// List returns the primary applicant's documents on an application.
func (s *Service) List(ctx context.Context, actor workflow.Actor, applicationID string) ([]models.Document, error) {
	if _, err := s.loadOwned(ctx, applicationID, actor.ID); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListPrimaryByApplication(ctx, applicationID)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return docs, nil
}

// Get loads a single document. A document on another owner's application is
// Forbidden, not NotFound, because the id alone proves nothing.
func (s *Service) Get(ctx context.Context, actor workflow.Actor, documentID string) (*models.Document, error) {
	doc, ownerID, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeDocumentNotFound, fmt.Sprintf("document %s does not exist", documentID))
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	if ownerID != actor.ID {
		return nil, apperrors.NewForbidden("document belongs to another applicant")
	}
	return doc, nil
}

// DownloadURL returns a time-limited signed URL for the document's file.
func (s *Service) DownloadURL(ctx context.Context, actor workflow.Actor, documentID string) (string, error) {
	doc, err := s.Get(ctx, actor, documentID)
	if err != nil {
		return "", err
	}
	url, err := s.files.SignedURL(doc.StoragePath)
	if err != nil {
		return "", apperrors.NewInternal(apperrors.ErrCodeDocumentStorageFailed, err)
	}
	return url, nil
}

// Delete removes the record first, then the file. An orphaned file after a
// failed file delete is tolerated; a dangling record would not be.
func (s *Service) Delete(ctx context.Context, actor workflow.Actor, documentID string) error {
	doc, err := s.Get(ctx, actor, documentID)
	if err != nil {
		return err
	}

	if err := s.documents.Delete(ctx, documentID); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFound(apperrors.ErrCodeDocumentNotFound, fmt.Sprintf("document %s does not exist", documentID))
		}
		return apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}

	if err := s.files.Delete(doc.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored file", map[string]interface{}{
			"error":      err,
			"documentId": documentID,
			"path":       doc.StoragePath,
		})
	}

	s.record(ctx, actor, &models.AuditEntry{
		ApplicationID: doc.ApplicationID,
		Action:        models.AuditDocumentDeleted,
		Description:   fmt.Sprintf("Document deleted (%s)", doc.Type),
	})

	return nil
}

func (s *Service) loadOwned(ctx context.Context, id, ownerID string) (*models.Application, error) {
	app, err := s.applications.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound(apperrors.ErrCodeApplicationNotFound, fmt.Sprintf("application %s does not exist", id))
		}
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	return app, nil
}

func (s *Service) record(ctx context.Context, actor workflow.Actor, entry *models.AuditEntry) {
	entry.PerformedBy = actor.ID
	entry.IPAddress = actor.IPAddress
	entry.UserAgent = actor.UserAgent
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry", map[string]interface{}{
			"error":         err,
			"applicationId": entry.ApplicationID,
			"action":        entry.Action,
		})
	}
}
