package documents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-opening/internal/common/config"
	"account-opening/internal/models"
	"account-opening/internal/providers"
	"account-opening/internal/store"
)

// fakeVerifier scripts the document-verification provider.
type fakeVerifier struct {
	result *providers.DocumentVerificationResult
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string, _ models.DocumentType) (*providers.DocumentVerificationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newPipelineFixture(t *testing.T, verifier providers.DocumentVerifier) (*Pipeline, sqlmock.Sqlmock, *Queue) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	queue, _ := newTestQueue(t)
	cfg := config.VerificationConfig{
		Workers:     1,
		MaxAttempts: 3,
		RetryDelay:  1, // milliseconds
		PollTimeout: 50,
	}
	p := NewPipeline(queue, store.NewDocumentStore(db), verifier, cfg, createTestLogger(t))
	return p, mock, queue
}

func verifiedResult() *providers.DocumentVerificationResult {
	return &providers.DocumentVerificationResult{
		Status:         models.VerificationVerified,
		Provider:       "docucheck",
		Confidence:     0.97,
		ExtractedData:  map[string]string{"documentNumber": "X1234567"},
		VerificationID: "ver-1",
		VerifiedAt:     time.Now().UTC(),
	}
}

func TestPipeline_Process_Success(t *testing.T) {
	verifier := &fakeVerifier{result: verifiedResult()}
	p, mock, _ := newPipelineFixture(t, verifier)

	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task := &Task{DocumentID: "doc-1", ApplicationID: "app-1", DocumentType: models.DocTypePassport}
	p.process(context.Background(), p.logger, task)

	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, 1, task.Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_Process_ManualReviewOutcome(t *testing.T) {
	result := verifiedResult()
	result.Status = models.VerificationManualReview
	result.Issues = []string{"photo quality too low"}
	verifier := &fakeVerifier{result: result}
	p, mock, _ := newPipelineFixture(t, verifier)

	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p.process(context.Background(), p.logger, &Task{DocumentID: "doc-1"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_Process_DeletedDocumentDropsResult(t *testing.T) {
	verifier := &fakeVerifier{result: verifiedResult()}
	p, mock, queue := newPipelineFixture(t, verifier)

	// Zero affected rows: the document vanished while the task was queued.
	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	p.process(context.Background(), p.logger, &Task{DocumentID: "doc-gone"})

	// The task is neither retried nor dead-lettered.
	requeued, err := queue.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, requeued)

	length, err := queue.DeadLetterLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestPipeline_Process_RetriesProviderFailure(t *testing.T) {
	verifier := &fakeVerifier{err: fmt.Errorf("provider unavailable")}
	p, _, queue := newPipelineFixture(t, verifier)

	task := &Task{DocumentID: "doc-1", DocumentType: models.DocTypePassport}
	p.process(context.Background(), p.logger, task)

	requeued, err := queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, requeued)
	assert.Equal(t, "doc-1", requeued.DocumentID)
	assert.Equal(t, 1, requeued.Attempts)
}

func TestPipeline_Process_ExhaustedRetriesDeadLetters(t *testing.T) {
	verifier := &fakeVerifier{err: fmt.Errorf("provider unavailable")}
	p, mock, queue := newPipelineFixture(t, verifier)

	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Final attempt: two provider calls already happened.
	task := &Task{DocumentID: "doc-1", Attempts: 2}
	p.process(context.Background(), p.logger, task)

	length, err := queue.DeadLetterLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	requeued, err := queue.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, requeued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_EndToEnd(t *testing.T) {
	verifier := &fakeVerifier{result: verifiedResult()}
	p, mock, queue := newPipelineFixture(t, verifier)

	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, queue.Enqueue(context.Background(), &Task{
		DocumentID:   "doc-1",
		DocumentType: models.DocTypeDriversLicense,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	// Wait for the worker to drain the queue and persist the outcome.
	deadline := time.After(2 * time.Second)
	for mock.ExpectationsWereMet() != nil {
		select {
		case <-deadline:
			t.Fatal("verification outcome was never persisted")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	p.Wait()

	assert.Equal(t, 1, verifier.calls)
}

func TestPipeline_StopsOnContextCancel(t *testing.T) {
	verifier := &fakeVerifier{result: verifiedResult()}
	p, _, _ := newPipelineFixture(t, verifier)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop after cancellation")
	}
}
