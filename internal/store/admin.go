// internal/store/admin.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"account-opening/internal/models"
)

// ApplicationFilters narrows the admin application listing. Zero values mean
// "no constraint". RiskLevels is intentionally absent here: risk is a derived
// attribute filtered after the primary query.
type ApplicationFilters struct {
	Statuses      []models.ApplicationStatus
	AccountTypes  []models.AccountType
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	Search        string
}

// AdminStore is the read-side aggregation over applications and profiles.
type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

// ListApplications runs the primary admin query. The substring search is
// case-insensitive across application id, applicant id, personal name,
// business legal name, and email.
func (s *AdminStore) ListApplications(ctx context.Context, filters ApplicationFilters) ([]models.ApplicationSummary, error) {
	var (
		conditions []string
		args       []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, st := range filters.Statuses {
			statuses[i] = string(st)
		}
		conditions = append(conditions, fmt.Sprintf("a.status = ANY(%s)", arg(pq.Array(statuses))))
	}

	if len(filters.AccountTypes) > 0 {
		types := make([]string, len(filters.AccountTypes))
		for i, at := range filters.AccountTypes {
			types[i] = string(at)
		}
		conditions = append(conditions, fmt.Sprintf("a.account_type = ANY(%s)", arg(pq.Array(types))))
	}

	if filters.SubmittedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.submitted_at >= %s", arg(*filters.SubmittedFrom)))
	}
	if filters.SubmittedTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.submitted_at <= %s", arg(*filters.SubmittedTo)))
	}

	if filters.Search != "" {
		pattern := arg("%" + filters.Search + "%")
		conditions = append(conditions, fmt.Sprintf(`(
			a.id::text ILIKE %[1]s OR
			a.applicant_id ILIKE %[1]s OR
			COALESCE(p.first_name || ' ' || p.last_name, '') ILIKE %[1]s OR
			COALESCE(b.legal_name, '') ILIKE %[1]s OR
			COALESCE(p.email, '') ILIKE %[1]s
		)`, pattern))
	}

	query := `
		SELECT a.id, a.applicant_id, a.account_type, a.status, a.current_step,
		       COALESCE(NULLIF(TRIM(COALESCE(p.first_name, '') || ' ' || COALESCE(p.last_name, '')), ''), COALESCE(b.legal_name, '')),
		       COALESCE(p.email, ''),
		       a.submitted_at, a.created_at
		FROM applications a
		LEFT JOIN personal_profiles p ON p.application_id = a.id
		LEFT JOIN business_profiles b ON b.application_id = a.id`

	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY a.submitted_at DESC NULLS LAST, a.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var summaries []models.ApplicationSummary
	for rows.Next() {
		var (
			sum         models.ApplicationSummary
			accountType string
			status      string
			currentStep string
		)
		if err := rows.Scan(&sum.ID, &sum.ApplicantID, &accountType, &status,
			&currentStep, &sum.ApplicantName, &sum.Email,
			&sum.SubmittedAt, &sum.CreatedAt); err != nil {
			return nil, err
		}
		sum.AccountType = models.AccountType(accountType)
		sum.Status = models.ApplicationStatus(status)
		sum.CurrentStep = models.Step(currentStep)
		sum.RiskLevel = models.RiskPending
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
