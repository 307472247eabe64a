// internal/store/risk.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"account-opening/internal/models"
)

// RiskStore persists the one-per-application assessment. Same uniqueness
// discipline as KYCStore.
type RiskStore struct {
	db *sql.DB
}

func NewRiskStore(db *sql.DB) *RiskStore {
	return &RiskStore{db: db}
}

func (s *RiskStore) Create(ctx context.Context, a *models.RiskAssessment) error {
	factorsJSON, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}
	recsJSON, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (
			id, application_id, overall_risk, risk_score, factors,
			recommendations, requires_manual_review, assessed_at, assessed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.ApplicationID, string(a.OverallRisk), a.RiskScore,
		factorsJSON, recsJSON, a.RequiresManualReview, a.AssessedAt, a.AssessedBy,
	)
	return translate(err)
}

func (s *RiskStore) GetByApplication(ctx context.Context, applicationID string) (*models.RiskAssessment, error) {
	var (
		a           models.RiskAssessment
		overallRisk string
		factorsJSON []byte
		recsJSON    []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, overall_risk, risk_score, factors,
		       recommendations, requires_manual_review, assessed_at, assessed_by
		FROM risk_assessments WHERE application_id = $1`, applicationID).Scan(
		&a.ID, &a.ApplicationID, &overallRisk, &a.RiskScore, &factorsJSON,
		&recsJSON, &a.RequiresManualReview, &a.AssessedAt, &a.AssessedBy,
	)
	if err != nil {
		return nil, translate(err)
	}
	a.OverallRisk = models.RiskLevel(overallRisk)
	if err := json.Unmarshal(factorsJSON, &a.Factors); err != nil {
		return nil, fmt.Errorf("unmarshal risk factors: %w", err)
	}
	if err := json.Unmarshal(recsJSON, &a.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return &a, nil
}

// ExistsForApplication is the fast-path duplicate check.
func (s *RiskStore) ExistsForApplication(ctx context.Context, applicationID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM risk_assessments WHERE application_id = $1)`,
		applicationID).Scan(&exists)
	return exists, translate(err)
}

// LevelsForApplications resolves the risk level per application id.
// Applications without an assessment are absent from the result map.
func (s *RiskStore) LevelsForApplications(ctx context.Context, applicationIDs []string) (map[string]models.RiskLevel, error) {
	levels := make(map[string]models.RiskLevel, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return levels, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT application_id, overall_risk
		FROM risk_assessments
		WHERE application_id = ANY($1)`, pq.Array(applicationIDs))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, level string
		if err := rows.Scan(&id, &level); err != nil {
			return nil, err
		}
		levels[id] = models.RiskLevel(level)
	}
	return levels, rows.Err()
}
