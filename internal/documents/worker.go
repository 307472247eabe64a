// internal/documents/worker.go
package documents

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"account-opening/internal/common/config"
	"account-opening/internal/common/logger"
	"account-opening/internal/common/metrics"
	"account-opening/internal/models"
	"account-opening/internal/providers"
	"account-opening/internal/store"
)

// Pipeline runs the background verification workers. Each worker polls the
// queue, calls the verification provider, and writes the outcome back to the
// document. Provider failures are retried up to the configured attempt cap;
// exhausted tasks are marked failed and dead-lettered.
type Pipeline struct {
	queue     *Queue
	documents *store.DocumentStore
	verifier  providers.DocumentVerifier
	config    config.VerificationConfig
	logger    logger.Logger
	wg        sync.WaitGroup
}

func NewPipeline(
	queue *Queue,
	documents *store.DocumentStore,
	verifier providers.DocumentVerifier,
	cfg config.VerificationConfig,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		queue:     queue,
		documents: documents,
		verifier:  verifier,
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "verification-pipeline"}),
	}
}

// Start launches the worker goroutines. They run until ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	p.logger.Info("verification pipeline started", map[string]interface{}{
		"workers": p.config.Workers,
	})
}

// Wait blocks until all workers have exited.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context, workerID int) {
	log := p.logger.WithFields(map[string]interface{}{"worker": workerID})
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("failed to dequeue verification task", map[string]interface{}{"error": err})
			p.sleep(ctx, config.GetDuration(p.config.RetryDelay))
			continue
		}
		if task == nil {
			continue
		}

		p.process(ctx, log, task)
	}
}

func (p *Pipeline) process(ctx context.Context, log logger.Logger, task *Task) {
	task.Attempts++

	result, err := p.verifier.Verify(ctx, task.StoragePath, task.DocumentType)
	if err != nil {
		p.handleFailure(ctx, log, task, err)
		return
	}

	details := &models.VerificationDetails{
		Provider:       result.Provider,
		Confidence:     result.Confidence,
		ExtractedData:  result.ExtractedData,
		VerificationID: result.VerificationID,
		VerifiedAt:     &result.VerifiedAt,
		Issues:         result.Issues,
		Attempts:       task.Attempts,
	}

	if err := p.documents.UpdateVerification(ctx, task.DocumentID, result.Status, details); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			// Document was deleted while the task was in flight; drop it.
			log.Info("dropping verification result for deleted document", map[string]interface{}{
				"documentId": task.DocumentID,
			})
			return
		}
		log.Error("failed to persist verification result", map[string]interface{}{
			"error":      err,
			"documentId": task.DocumentID,
		})
		return
	}

	metrics.DocumentVerifications.WithLabelValues(string(result.Status)).Inc()

	log.Info("document verification completed", map[string]interface{}{
		"documentId": task.DocumentID,
		"status":     result.Status,
		"attempts":   task.Attempts,
	})
}

func (p *Pipeline) handleFailure(ctx context.Context, log logger.Logger, task *Task, cause error) {
	if task.Attempts < p.config.MaxAttempts {
		metrics.VerificationRetries.Inc()
		log.Warn("verification attempt failed, re-enqueueing", map[string]interface{}{
			"error":      cause,
			"documentId": task.DocumentID,
			"attempt":    task.Attempts,
		})
		p.sleep(ctx, config.GetDuration(p.config.RetryDelay))
		if err := p.queue.Enqueue(ctx, task); err != nil {
			log.Error("failed to re-enqueue verification task", map[string]interface{}{
				"error":      err,
				"documentId": task.DocumentID,
			})
		}
		return
	}

	now := time.Now().UTC()
	details := &models.VerificationDetails{
		Error:    cause.Error(),
		FailedAt: &now,
		Attempts: task.Attempts,
	}
	if err := p.documents.UpdateVerification(ctx, task.DocumentID, models.VerificationFailed, details); err != nil {
		if !stderrors.Is(err, store.ErrNotFound) {
			log.Error("failed to mark document verification failed", map[string]interface{}{
				"error":      err,
				"documentId": task.DocumentID,
			})
		}
		return
	}

	metrics.DocumentVerifications.WithLabelValues(string(models.VerificationFailed)).Inc()
	metrics.VerificationDeadLetters.Inc()

	if err := p.queue.DeadLetter(ctx, task); err != nil {
		log.Error("failed to dead-letter verification task", map[string]interface{}{
			"error":      err,
			"documentId": task.DocumentID,
		})
	}

	log.Error("document verification exhausted retries", map[string]interface{}{
		"documentId": task.DocumentID,
		"attempts":   task.Attempts,
	})
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
