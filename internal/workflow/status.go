// internal/workflow/status.go
package workflow

import (
	"account-opening/internal/models"
)

// statusTransitions is the full lifecycle graph. Rejected and completed
// are terminal.
var statusTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusDraft:       {models.StatusInProgress, models.StatusRejected},
	models.StatusInProgress:  {models.StatusSubmitted, models.StatusRejected},
	models.StatusSubmitted:   {models.StatusUnderReview, models.StatusRejected},
	models.StatusUnderReview: {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:    {models.StatusCompleted},
	models.StatusRejected:    {},
	models.StatusCompleted:   {},
}

// CanTransition reports whether the status change from -> to is allowed.
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether the value is a known lifecycle status.
func ValidStatus(status models.ApplicationStatus) bool {
	_, ok := statusTransitions[status]
	return ok
}

// IsTerminal reports whether no further transitions exist from the status.
func IsTerminal(status models.ApplicationStatus) bool {
	return len(statusTransitions[status]) == 0
}
