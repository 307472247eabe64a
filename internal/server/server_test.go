// internal/server/server_test.go
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"account-opening/internal/admin"
	"account-opening/internal/audit"
	"account-opening/internal/common/config"
	"account-opening/internal/common/logger"
	"account-opening/internal/disclosures"
	"account-opening/internal/documents"
	"account-opening/internal/kyc"
	"account-opening/internal/models"
	"account-opening/internal/notify"
	"account-opening/internal/providers"
	"account-opening/internal/risk"
	"account-opening/internal/storage"
	"account-opening/internal/store"
	"account-opening/internal/workflow"
)

// ==========================
// Fixtures
// ==========================

type stubKYCProvider struct{}

func (p *stubKYCProvider) Verify(ctx context.Context, info *models.PersonalInfo) (*providers.KYCResult, error) {
	return nil, errors.New("not wired in this test")
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock, *storage.LocalStore) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	files, err := storage.NewLocalStore(config.StorageConfig{
		BasePath:      t.TempDir(),
		SigningSecret: "test-secret",
		PublicBaseURL: "http://localhost:8080/files",
		SignedURLTTL:  60000,
	})
	require.NoError(t, err)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))

	applications := store.NewApplicationStore(db)
	profiles := store.NewProfileStore(db)
	documentStore := store.NewDocumentStore(db)
	kycStore := store.NewKYCStore(db)
	riskStore := store.NewRiskStore(db)
	disclosureStore := store.NewDisclosureStore(db)
	recorder := audit.NewRecorder(store.NewAuditStore(db), nil, "", log)
	queue := documents.NewQueue(redisClient, 50*time.Millisecond)

	srv := New(config.HTTPConfig{Address: ":0"}, Services{
		Workflow:    workflow.NewService(applications, profiles, recorder, notify.NewNoOpNotifier(), log),
		Documents:   documents.NewService(applications, documentStore, files, queue, recorder, log),
		KYC:         kyc.NewService(applications, profiles, kycStore, &stubKYCProvider{}, recorder, log),
		Risk:        risk.NewService(applications, profiles, documentStore, kycStore, riskStore, recorder, log),
		Disclosures: disclosures.NewService(applications, disclosureStore, recorder, log),
		Admin:       admin.NewService(store.NewAdminStore(db), riskStore, log),
		Audit:       recorder,
		Files:       files,
	}, log)

	return srv, mock, files
}

func doRequest(t *testing.T, srv *Server, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

var userHeaders = map[string]string{"X-User-ID": "user-1"}

// ==========================
// Authentication
// ==========================

func TestAPI_RequiresUserIdentity(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/applications/app-1", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "AUTHENTICATION_REQUIRED", payload["error"]["code"])
}

func TestAdminAPI_RequiresAdminIdentity(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/admin/applications", userHeaders, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "OWNERSHIP_VIOLATION", payload["error"]["code"])
}

// ==========================
// Applications
// ==========================

func TestCreateApplication_ReturnsCreated(t *testing.T) {
	srv, mock, _ := newTestServer(t)

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/applications", userHeaders,
		`{"accountType":"consumer"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var app map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
	assert.Equal(t, "draft", app["status"])
	assert.Equal(t, "account_type", app["currentStep"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateApplication_RejectsMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/applications", userHeaders, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetApplication_MissingIsNotFound(t *testing.T) {
	srv, mock, _ := newTestServer(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("app-missing", "user-1").
		WillReturnError(sql.ErrNoRows)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/applications/app-missing", userHeaders, "")

	require.Equal(t, http.StatusNotFound, rec.Code)

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "APPLICATION_NOT_FOUND", payload["error"]["code"])
}

// ==========================
// Admin
// ==========================

func TestAdminListApplications_InvalidTimestampRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/v1/admin/applications?submittedFrom=yesterday",
		map[string]string{"X-Admin-ID": "admin-1"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminListApplications_ParsesFilters(t *testing.T) {
	srv, mock, _ := newTestServer(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications a(.+)WHERE a\.status = ANY`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "applicant_id", "account_type", "status", "current_step",
			"applicant_name", "email", "submitted_at", "created_at",
		}).AddRow("app-1", "applicant-1", "consumer", "submitted", "review",
			"Jane Doe", "jane@example.com", time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT application_id, overall_risk FROM risk_assessments`).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "overall_risk"}))

	rec := doRequest(t, srv, http.MethodGet,
		"/api/v1/admin/applications?status=submitted,under_review",
		map[string]string{"X-Admin-ID": "admin-1"}, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// File downloads
// ==========================

func TestFileDownload_ServesSignedURL(t *testing.T) {
	srv, _, files := newTestServer(t)

	path, err := files.Store("doc.pdf", strings.NewReader("file body"))
	require.NoError(t, err)

	signed, err := files.SignedURL(path)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet,
		fmt.Sprintf("/files/doc.pdf?%s", u.RawQuery), nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "file body", rec.Body.String())
}

func TestFileDownload_RejectsBadSignature(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		fmt.Sprintf("/files/doc.pdf?expires=%d&sig=forged", time.Now().Add(time.Hour).Unix()), nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFileDownload_RejectsExpiredLink(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		fmt.Sprintf("/files/doc.pdf?expires=%d&sig=anything", time.Now().Add(-time.Hour).Unix()), nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ==========================
// Health
// ==========================

func TestHealth_ReportsDependencyChecks(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.services.Dependencies = []Dependency{
		{Name: "postgres", Ping: func(ctx context.Context) error { return nil }},
		{Name: "redis", Ping: func(ctx context.Context) error { return errors.New("down") }},
	}

	rec := doRequest(t, srv, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "degraded", payload.Status)
	assert.Equal(t, "ok", payload.Checks["postgres"])
	assert.Equal(t, "unavailable", payload.Checks["redis"])
}
