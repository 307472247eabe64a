// internal/audit/recorder_test.go
package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"account-opening/internal/common/logger"
	"account-opening/internal/models"
	"account-opening/internal/store"
)

func newTestRecorder(t *testing.T) (*Recorder, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	return NewRecorder(store.NewAuditStore(db), nil, "", log), mock
}

func TestRecord_FillsIDAndTimestamp(t *testing.T) {
	recorder, mock := newTestRecorder(t)

	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditEntry{
		ApplicationID: "app-1",
		Action:        models.AuditApplicationCreated,
		PerformedBy:   "user-1",
	}
	require.NoError(t, recorder.Record(context.Background(), entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.PerformedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_KeepsCallerProvidedFields(t *testing.T) {
	recorder, mock := newTestRecorder(t)

	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &models.AuditEntry{
		ID:            "entry-1",
		ApplicationID: "app-1",
		Action:        models.AuditStatusChanged,
		PerformedBy:   "admin-1",
		PerformedAt:   at,
	}
	require.NoError(t, recorder.Record(context.Background(), entry))

	assert.Equal(t, "entry-1", entry.ID)
	assert.Equal(t, at, entry.PerformedAt)
}

func TestRecord_PropagatesStoreFailure(t *testing.T) {
	recorder, mock := newTestRecorder(t)

	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnError(errors.New("connection reset"))

	err := recorder.Record(context.Background(), &models.AuditEntry{
		ApplicationID: "app-1",
		Action:        models.AuditApplicationCreated,
	})

	assert.Error(t, err)
}

func TestListByApplication_ReturnsNewestFirst(t *testing.T) {
	recorder, mock := newTestRecorder(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM audit_trail WHERE application_id = \$1`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "action", "description", "performed_by",
			"performed_at", "ip_address", "user_agent", "changes",
		}).
			AddRow("e-2", "app-1", models.AuditApplicationSubmitted, "", "user-1", now, "", "", nil).
			AddRow("e-1", "app-1", models.AuditApplicationCreated, "", "user-1", now.Add(-time.Hour), "", "", nil))

	entries, err := recorder.ListByApplication(context.Background(), "app-1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditApplicationSubmitted, entries[0].Action)
}
