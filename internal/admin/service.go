// internal/admin/service.go
package admin

import (
	"context"

	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/common/logger"
	"account-opening/internal/models"
	"account-opening/internal/store"
)

// ListRequest is the admin listing query. Zero values mean no constraint.
// RiskLevels filters on the derived risk attribute, including "pending" for
// applications with no assessment yet.
type ListRequest struct {
	Filters    store.ApplicationFilters
	RiskLevels []models.RiskLevel
}

// Service is the admin read side: filtered application listings enriched with
// risk levels.
type Service struct {
	admin  *store.AdminStore
	risk   *store.RiskStore
	logger logger.Logger
}

func NewService(adminStore *store.AdminStore, riskStore *store.RiskStore, log logger.Logger) *Service {
	return &Service{
		admin:  adminStore,
		risk:   riskStore,
		logger: log.WithFields(map[string]interface{}{"component": "admin"}),
	}
}

// ListApplications runs the primary filter query, resolves each application's
// risk level, then applies the risk filter. Risk is filtered in memory because
// it lives in a separate table keyed one-to-one by application.
func (s *Service) ListApplications(ctx context.Context, req ListRequest) ([]models.ApplicationSummary, error) {
	for _, st := range req.Filters.Statuses {
		if !validStatus(st) {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeValidationFailed,
				"Unknown application status filter",
				string(st),
			)
		}
	}
	for _, lvl := range req.RiskLevels {
		if !validRiskLevel(lvl) {
			return nil, apperrors.NewInvalidRequest(
				apperrors.ErrCodeValidationFailed,
				"Unknown risk level filter",
				string(lvl),
			)
		}
	}

	summaries, err := s.admin.ListApplications(ctx, req.Filters)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	if len(summaries) == 0 {
		return []models.ApplicationSummary{}, nil
	}

	ids := make([]string, len(summaries))
	for i, sum := range summaries {
		ids[i] = sum.ID
	}
	levels, err := s.risk.LevelsForApplications(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternal(apperrors.ErrCodePersistenceFailed, err)
	}
	for i := range summaries {
		if lvl, ok := levels[summaries[i].ID]; ok {
			summaries[i].RiskLevel = lvl
		}
	}

	if len(req.RiskLevels) == 0 {
		return summaries, nil
	}

	wanted := make(map[models.RiskLevel]bool, len(req.RiskLevels))
	for _, lvl := range req.RiskLevels {
		wanted[lvl] = true
	}
	filtered := summaries[:0]
	for _, sum := range summaries {
		if wanted[sum.RiskLevel] {
			filtered = append(filtered, sum)
		}
	}
	return filtered, nil
}

func validStatus(st models.ApplicationStatus) bool {
	switch st {
	case models.StatusDraft, models.StatusInProgress, models.StatusSubmitted,
		models.StatusUnderReview, models.StatusApproved, models.StatusRejected,
		models.StatusCompleted:
		return true
	}
	return false
}

func validRiskLevel(lvl models.RiskLevel) bool {
	switch lvl {
	case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskPending:
		return true
	}
	return false
}
