// Package errors provides standardized error handling for the account-opening service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Error Kinds and Codes
// ==========================

// Kind classifies how an error surfaces to the caller.
type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindForbidden      Kind = "FORBIDDEN"
	KindInternal       Kind = "INTERNAL_ERROR"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeDocumentNotFound    ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeKYCNotFound         ErrorCode = "KYC_VERIFICATION_NOT_FOUND"
	ErrCodeRiskNotFound        ErrorCode = "RISK_ASSESSMENT_NOT_FOUND"
	ErrCodeDisclosureNotFound  ErrorCode = "DISCLOSURE_NOT_FOUND"
	ErrCodeFundingNotFound     ErrorCode = "FUNDING_SETUP_NOT_FOUND"

	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDocumentType     ErrorCode = "INVALID_DOCUMENT_TYPE"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidStepTransition   ErrorCode = "INVALID_STEP_TRANSITION"
	ErrCodeConsentRequired         ErrorCode = "CONSENT_REQUIRED"
	ErrCodeDuplicateKYC            ErrorCode = "DUPLICATE_KYC_VERIFICATION"
	ErrCodeDuplicateRiskAssessment ErrorCode = "DUPLICATE_RISK_ASSESSMENT"
	ErrCodeProfileRequired         ErrorCode = "PROFILE_REQUIRED"
	ErrCodeStaleVersion            ErrorCode = "STALE_APPLICATION_VERSION"
	ErrCodeAgreementFrozen         ErrorCode = "AGREEMENT_ALREADY_ACKNOWLEDGED"

	ErrCodeOwnershipViolation ErrorCode = "OWNERSHIP_VIOLATION"

	ErrCodeKYCProviderFailed      ErrorCode = "KYC_PROVIDER_FAILED"
	ErrCodeRiskAssessmentFailed   ErrorCode = "RISK_ASSESSMENT_FAILED"
	ErrCodeDocumentStorageFailed  ErrorCode = "DOCUMENT_STORAGE_FAILED"
	ErrCodePersistenceFailed      ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// ==========================
// 2. Error Type
// ==========================

// Error is the structured error returned by every service operation. The cause
// of an internal error is retained for logging only; callers see Message.
type Error struct {
	Kind      Kind                   `json:"kind"`
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

// Unwrap exposes the original cause for errors.Is/As chains and log sinks.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the retained original error, nil for validation-class errors.
func (e *Error) Cause() error {
	return e.cause
}

// ==========================
// 3. Constructors
// ==========================

// NewNotFound reports a missing resource. Ownership mismatches on owner-scoped
// lookups use this same constructor so callers cannot distinguish the two.
func NewNotFound(code ErrorCode, details string) *Error {
	return &Error{
		Kind:      KindNotFound,
		Code:      code,
		Message:   "Resource not found",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequest reports bad input, a disallowed transition, an unmet
// precondition, or a duplicate idempotent operation.
func NewInvalidRequest(code ErrorCode, message, details string) *Error {
	return &Error{
		Kind:      KindInvalidRequest,
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbidden reports a cross-owner access attempt on a resource whose
// existence is already known to the caller.
func NewForbidden(details string) *Error {
	return &Error{
		Kind:      KindForbidden,
		Code:      ErrCodeOwnershipViolation,
		Message:   "Access to this resource is not permitted",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternal wraps a collaborator or persistence failure. The caller-facing
// message is generic; cause is preserved for logs via Unwrap/Cause.
func NewInternal(code ErrorCode, cause error) *Error {
	return &Error{
		Kind:      KindInternal,
		Code:      code,
		Message:   "An internal error occurred",
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 4. Inspection Helpers
// ==========================

// KindOf returns the Kind of err, defaulting to KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool       { return KindOf(err) == KindNotFound }
func IsInvalidRequest(err error) bool { return KindOf(err) == KindInvalidRequest }
func IsForbidden(err error) bool      { return KindOf(err) == KindForbidden }
func IsInternal(err error) bool       { return KindOf(err) == KindInternal }

// CodeOf returns the ErrorCode of err, or empty for foreign errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to its transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicPayload renders the caller-visible body for err. Internal causes are
// never included.
func PublicPayload(err error) map[string]interface{} {
	var e *Error
	if !stderrors.As(err, &e) {
		e = NewInternal(ErrCodePersistenceFailed, err)
	}
	payload := map[string]interface{}{
		"code":    string(e.Code),
		"message": e.Message,
	}
	if e.Kind != KindInternal && e.Details != "" {
		payload["details"] = e.Details
	}
	return payload
}
