// internal/disclosures/service_test.go
package disclosures

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"account-opening/internal/audit"
	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/logger"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// ==========================
// Fixtures
// ==========================

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	svc := NewService(
		store.NewApplicationStore(db),
		store.NewDisclosureStore(db),
		audit.NewRecorder(store.NewAuditStore(db), nil, "", log),
		log,
	)
	return svc, mock
}

func expectOwnedApplication(mock sqlmock.Sqlmock, appID, ownerID, accountType string) {
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "applicant_id", "account_type", "customer_type",
		"status", "current_step", "metadata", "version",
		"submitted_at", "completed_at", "created_at", "updated_at",
	}).AddRow(appID, ownerID, "applicant-1", accountType, "individual",
		"in_progress", "disclosures", []byte(`{}`), 3,
		nil, nil, time.Now(), time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(appID, ownerID).
		WillReturnRows(rows)
}

func disclosureColumns() []string {
	return []string{
		"id", "disclosure_type", "version", "title", "content",
		"account_types", "active", "created_at",
	}
}

func expectDisclosureLookup(mock sqlmock.Sqlmock, disclosureID string, active bool, accountTypes ...string) {
	mock.ExpectQuery(`SELECT (.+) FROM disclosures WHERE id = \$1`).
		WithArgs(disclosureID).
		WillReturnRows(sqlmock.NewRows(disclosureColumns()).
			AddRow(disclosureID, "terms_of_service", "2.1", "Terms of Service",
				"long legal text", pq.StringArray(accountTypes), active, time.Now()))
}

func expectAuditInsert(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

var testActor = workflow.Actor{ID: "user-1", IPAddress: "203.0.113.7", UserAgent: "test-agent"}

// ==========================
// Disclosures
// ==========================

func TestList_ReturnsActiveDisclosuresForAccountType(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	mock.ExpectQuery(`SELECT (.+) FROM disclosures WHERE active = TRUE`).
		WithArgs("consumer").
		WillReturnRows(sqlmock.NewRows(disclosureColumns()).
			AddRow("disc-1", "terms_of_service", "2.1", "Terms of Service", "text",
				pq.StringArray{"consumer", "commercial"}, true, time.Now()).
			AddRow("disc-2", "privacy_policy", "1.4", "Privacy Policy", "text",
				pq.StringArray{"consumer"}, true, time.Now()))

	disclosures, err := svc.List(context.Background(), testActor, "app-1")

	require.NoError(t, err)
	require.Len(t, disclosures, 2)
	assert.Equal(t, "terms_of_service", disclosures[0].DisclosureType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_UnknownApplicationIsNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("app-missing", "user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.List(context.Background(), testActor, "app-missing")

	assert.True(t, apperrors.IsNotFound(err))
}

// ==========================
// Agreements
// ==========================

func TestAcknowledge_RecordsAgreementWithActorDetails(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	expectDisclosureLookup(mock, "disc-1", true, "consumer", "commercial")
	mock.ExpectQuery(`SELECT (.+) FROM agreements WHERE application_id = \$1 AND disclosure_id = \$2`).
		WithArgs("app-1", "disc-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO agreements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAuditInsert(mock)

	agreement, err := svc.Acknowledge(context.Background(), testActor, "app-1", "disc-1")

	require.NoError(t, err)
	assert.True(t, agreement.Acknowledged)
	require.NotNil(t, agreement.AcknowledgedAt)
	assert.Equal(t, "203.0.113.7", agreement.IPAddress)
	assert.Equal(t, "test-agent", agreement.UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledge_AcknowledgedAgreementIsFrozen(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	expectDisclosureLookup(mock, "disc-1", true, "consumer")
	ackAt := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT (.+) FROM agreements WHERE application_id = \$1 AND disclosure_id = \$2`).
		WithArgs("app-1", "disc-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "disclosure_id", "acknowledged",
			"acknowledged_at", "ip_address", "user_agent", "created_at", "updated_at",
		}).AddRow("agr-1", "app-1", "disc-1", true, ackAt, "198.51.100.2", "old-agent", ackAt, ackAt))

	_, err := svc.Acknowledge(context.Background(), testActor, "app-1", "disc-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidRequest(err))
	assert.Equal(t, apperrors.ErrCodeAgreementFrozen, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledge_InactiveDisclosureRejected(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	expectDisclosureLookup(mock, "disc-1", false, "consumer")

	_, err := svc.Acknowledge(context.Background(), testActor, "app-1", "disc-1")

	assert.True(t, apperrors.IsInvalidRequest(err))
}

func TestAcknowledge_WrongAccountTypeRejected(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	expectDisclosureLookup(mock, "disc-1", true, "commercial")

	_, err := svc.Acknowledge(context.Background(), testActor, "app-1", "disc-1")

	assert.True(t, apperrors.IsInvalidRequest(err))
	assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))
}

func TestAcknowledge_UnknownDisclosureIsNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	mock.ExpectQuery(`SELECT (.+) FROM disclosures WHERE id = \$1`).
		WithArgs("disc-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Acknowledge(context.Background(), testActor, "app-1", "disc-missing")

	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, apperrors.ErrCodeDisclosureNotFound, apperrors.CodeOf(err))
}

// ==========================
// Signatures
// ==========================

func TestCaptureSignature_StoresSignatureWithActorIP(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	mock.ExpectExec(`INSERT INTO signatures`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAuditInsert(mock)

	sig, err := svc.CaptureSignature(context.Background(), testActor, "app-1", "Jane Doe", "data:image/png;base64,iVBOR")

	require.NoError(t, err)
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, "Jane Doe", sig.SignerName)
	assert.Equal(t, "203.0.113.7", sig.IPAddress)
	assert.False(t, sig.SignedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaptureSignature_RequiresNameAndData(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")

	_, err := svc.CaptureSignature(context.Background(), testActor, "app-1", "", "data")

	assert.True(t, apperrors.IsInvalidRequest(err))
}

func TestListSignatures_ReturnsSignatures(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	mock.ExpectQuery(`SELECT (.+) FROM signatures WHERE application_id = \$1`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "signer_name", "signature_data", "signed_at", "ip_address",
		}).AddRow("sig-1", "app-1", "Jane Doe", "data", time.Now(), "203.0.113.7"))

	sigs, err := svc.ListSignatures(context.Background(), testActor, "app-1")

	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "Jane Doe", sigs[0].SignerName)
}

// ==========================
// Funding
// ==========================

func TestConfigureFunding_UpsertsSetup(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	mock.ExpectExec(`INSERT INTO funding_setups`).
		WithArgs("app-1", "ach_transfer", 500.0, "4821").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAuditInsert(mock)

	funding, err := svc.ConfigureFunding(context.Background(), testActor, "app-1", "ach_transfer", 500, "4821")

	require.NoError(t, err)
	assert.Equal(t, "ach_transfer", funding.Method)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigureFunding_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		method string
		amount float64
	}{
		{name: "unknown method", method: "cryptocurrency", amount: 100},
		{name: "zero amount", method: "ach_transfer", amount: 0},
		{name: "negative amount", method: "wire_transfer", amount: -25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t)
			expectOwnedApplication(mock, "app-1", "user-1", "consumer")

			_, err := svc.ConfigureFunding(context.Background(), testActor, "app-1", tt.method, tt.amount, "")

			assert.True(t, apperrors.IsInvalidRequest(err))
			assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))
		})
	}
}

func TestGetFunding_MissingSetupIsNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	expectOwnedApplication(mock, "app-1", "user-1", "consumer")
	mock.ExpectQuery(`SELECT (.+) FROM funding_setups WHERE application_id = \$1`).
		WithArgs("app-1").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetFunding(context.Background(), testActor, "app-1")

	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, apperrors.ErrCodeFundingNotFound, apperrors.CodeOf(err))
}
