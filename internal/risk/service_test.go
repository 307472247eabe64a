package risk

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"
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
	"account-opening/internal/models"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// containsArg matches a string argument by substring.
type containsArg string

func (c containsArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, string(c))
}

func newServiceFixture(t *testing.T) (*Service, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := createTestLogger(t)
	recorder := audit.NewRecorder(store.NewAuditStore(db), nil, "", log)
	svc := NewService(
		store.NewApplicationStore(db),
		store.NewProfileStore(db),
		store.NewDocumentStore(db),
		store.NewKYCStore(db),
		store.NewRiskStore(db),
		recorder,
		log,
	)
	return svc, mock
}

func expectOwnedApplication(mock sqlmock.Sqlmock, accountType string) {
	metadataJSON, _ := json.Marshal(map[string]string{})
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "applicant_id", "account_type", "customer_type", "status",
		"current_step", "metadata", "version", "submitted_at", "completed_at",
		"created_at", "updated_at",
	}).AddRow("app-1", "user-1", "applicant-1", accountType, "", "in_progress",
		"risk_assessment", metadataJSON, 1, nil, nil, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("app-1", "user-1").
		WillReturnRows(rows)
}

func expectDuplicateCheck(mock sqlmock.Sqlmock, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM risk_assessments`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectPersonalInfo(mock sqlmock.Sqlmock) {
	addressJSON, _ := json.Marshal(map[string]string{
		"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701",
	})
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM personal_profiles WHERE application_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"application_id", "first_name", "last_name", "email", "phone",
			"date_of_birth", "ssn_last4", "address", "created_at", "updated_at",
		}).AddRow("app-1", "Jane", "Doe", "jane@example.com", "+15551234567",
			"1990-01-15", "1234", addressJSON, now, now))
}

func expectBusinessProfile(mock sqlmock.Sqlmock) {
	addressJSON, _ := json.Marshal(map[string]string{})
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM business_profiles WHERE application_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"application_id", "legal_name", "dba_name", "ein", "entity_type", "industry",
			"years_in_business", "annual_revenue", "address", "created_at", "updated_at",
		}).AddRow("app-1", "Acme LLC", "", "12-3456789", "llc", "retail",
			3.0, 250000.0, addressJSON, now, now))
}

// expectSparseInputs scripts the optional input-gathering reads with empty
// data: no KYC, no documents, no financial profile.
func expectSparseInputs(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT (.+) FROM kyc_verifications WHERE application_id = \$1`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT (.+) FROM documents`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "signer_id", "doc_type", "file_name", "file_size",
			"mime_type", "storage_path", "verification_status", "verification_details",
			"uploaded_at",
		}))
	mock.ExpectQuery(`SELECT (.+) FROM financial_profiles WHERE application_id = \$1`).
		WillReturnError(sql.ErrNoRows)
}

// ==========================
// Assess Tests
// ==========================

func TestService_Assess(t *testing.T) {
	actor := workflow.Actor{ID: "user-1"}

	t.Run("scores and persists an assessment", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "consumer")
		expectDuplicateCheck(mock, false)
		expectPersonalInfo(mock)
		expectSparseInputs(mock)
		mock.ExpectExec(`INSERT INTO risk_assessments`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`UPDATE applications SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_trail`).
			WithArgs(sqlmock.AnyArg(), "app-1", models.AuditRiskAssessed,
				containsArg("across 4 factors"), "user-1", sqlmock.AnyArg(),
				"", "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		assessment, err := svc.Assess(context.Background(), actor, "app-1")

		require.NoError(t, err)
		assert.NotEmpty(t, assessment.ID)
		assert.Equal(t, "app-1", assessment.ApplicationID)
		assert.Equal(t, "system", assessment.AssessedBy)
		assert.Equal(t, models.RiskMedium, assessment.OverallRisk)
		assert.WithinDuration(t, time.Now().UTC(), assessment.AssessedAt, time.Minute)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commercial applications also read business inputs", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "commercial")
		expectDuplicateCheck(mock, false)
		expectPersonalInfo(mock)
		expectSparseInputs(mock)
		expectBusinessProfile(mock)
		mock.ExpectQuery(`SELECT (.+) FROM additional_signers`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "application_id", "first_name", "last_name", "email", "role", "created_at",
			}))
		mock.ExpectExec(`INSERT INTO risk_assessments`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`UPDATE applications SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_trail`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		assessment, err := svc.Assess(context.Background(), actor, "app-1")

		require.NoError(t, err)
		assert.Len(t, assessment.Factors, 6)
	})

	t.Run("personal information is required", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "consumer")
		expectDuplicateCheck(mock, false)
		mock.ExpectQuery(`SELECT (.+) FROM personal_profiles WHERE application_id = \$1`).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.Assess(context.Background(), actor, "app-1")

		assert.Equal(t, apperrors.ErrCodeProfileRequired, apperrors.CodeOf(err))
	})

	t.Run("commercial applications require a business profile", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "commercial")
		expectDuplicateCheck(mock, false)
		expectPersonalInfo(mock)
		expectSparseInputs(mock)
		mock.ExpectQuery(`SELECT (.+) FROM business_profiles WHERE application_id = \$1`).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.Assess(context.Background(), actor, "app-1")

		assert.Equal(t, apperrors.ErrCodeProfileRequired, apperrors.CodeOf(err))
	})

	t.Run("second assessment is rejected", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "consumer")
		expectDuplicateCheck(mock, true)

		_, err := svc.Assess(context.Background(), actor, "app-1")

		assert.Equal(t, apperrors.ErrCodeDuplicateRiskAssessment, apperrors.CodeOf(err))
	})

	t.Run("concurrent assessment loses to the unique index", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "consumer")
		expectDuplicateCheck(mock, false)
		expectPersonalInfo(mock)
		expectSparseInputs(mock)
		mock.ExpectExec(`INSERT INTO risk_assessments`).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := svc.Assess(context.Background(), actor, "app-1")

		assert.Equal(t, apperrors.ErrCodeDuplicateRiskAssessment, apperrors.CodeOf(err))
	})

	t.Run("unknown application is not found", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1 AND owner_id = \$2`).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.Assess(context.Background(), actor, "app-1")

		assert.True(t, apperrors.IsNotFound(err))
	})
}

// ==========================
// Get Tests
// ==========================

func TestService_Get(t *testing.T) {
	t.Run("returns recorded assessment", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "consumer")

		factorsJSON, _ := json.Marshal([]models.RiskFactor{{Category: "identity", Factor: "kyc_verification"}})
		recsJSON, _ := json.Marshal([]string{})
		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{
			"id", "application_id", "overall_risk", "risk_score", "factors",
			"recommendations", "requires_manual_review", "assessed_at", "assessed_by",
		}).AddRow("risk-1", "app-1", "low", 22.5, factorsJSON, recsJSON, false, now, "system")
		mock.ExpectQuery(`SELECT (.+) FROM risk_assessments WHERE application_id = \$1`).
			WithArgs("app-1").
			WillReturnRows(rows)

		assessment, err := svc.Get(context.Background(), workflow.Actor{ID: "user-1"}, "app-1")

		require.NoError(t, err)
		assert.Equal(t, models.RiskLow, assessment.OverallRisk)
		assert.Equal(t, 22.5, assessment.RiskScore)
	})

	t.Run("no assessment yet is not found", func(t *testing.T) {
		svc, mock := newServiceFixture(t)

		expectOwnedApplication(mock, "consumer")
		mock.ExpectQuery(`SELECT (.+) FROM risk_assessments WHERE application_id = \$1`).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.Get(context.Background(), workflow.Actor{ID: "user-1"}, "app-1")

		assert.Equal(t, apperrors.ErrCodeRiskNotFound, apperrors.CodeOf(err))
	})
}
