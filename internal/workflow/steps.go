// internal/workflow/steps.go
package workflow

import (
	"account-opening/internal/models"
)

// Step sequences per account type. Commercial applications collect a
// business profile instead of the personal-info step and add the
// additional-signers step after identity verification.
var consumerSteps = []models.Step{
	models.StepAccountType,
	models.StepPersonalInfo,
	models.StepFinancialProfile,
	models.StepProductSelection,
	models.StepDocuments,
	models.StepIdentity,
	models.StepRiskAssessment,
	models.StepDisclosures,
	models.StepSignatures,
	models.StepFunding,
	models.StepReview,
	models.StepConfirmation,
}

var commercialSteps = []models.Step{
	models.StepAccountType,
	models.StepBusinessProfile,
	models.StepFinancialProfile,
	models.StepProductSelection,
	models.StepDocuments,
	models.StepIdentity,
	models.StepAdditionalSigners,
	models.StepRiskAssessment,
	models.StepDisclosures,
	models.StepSignatures,
	models.StepFunding,
	models.StepReview,
	models.StepConfirmation,
}

// StepsFor returns the ordered step sequence for the given account type.
func StepsFor(accountType models.AccountType) []models.Step {
	if accountType == models.AccountTypeCommercial {
		return commercialSteps
	}
	return consumerSteps
}

func stepIndex(steps []models.Step, step models.Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}

// ValidStep reports whether the step exists in the sequence for the
// account type.
func ValidStep(accountType models.AccountType, step models.Step) bool {
	return stepIndex(StepsFor(accountType), step) >= 0
}

// CanMoveTo reports whether an applicant may navigate from the current
// step to the target step. Backward navigation is unrestricted; forward
// navigation is limited to the immediate next step.
func CanMoveTo(accountType models.AccountType, current, target models.Step) bool {
	steps := StepsFor(accountType)
	ci := stepIndex(steps, current)
	ti := stepIndex(steps, target)
	if ci < 0 || ti < 0 {
		return false
	}
	return ti <= ci+1
}

// NextStep returns the step after current, or current itself when it is
// the final step of the sequence.
func NextStep(accountType models.AccountType, current models.Step) models.Step {
	steps := StepsFor(accountType)
	ci := stepIndex(steps, current)
	if ci < 0 || ci == len(steps)-1 {
		return current
	}
	return steps[ci+1]
}

// PreviousStep returns the step before current, or current itself when it
// is the first step of the sequence.
func PreviousStep(accountType models.AccountType, current models.Step) models.Step {
	steps := StepsFor(accountType)
	ci := stepIndex(steps, current)
	if ci <= 0 {
		return current
	}
	return steps[ci-1]
}
