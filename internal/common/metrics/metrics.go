// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applications_created_total",
			Help: "Total number of applications created",
		},
		[]string{"account_type"},
	)

	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of applications submitted",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_status_transitions_total",
			Help: "Total number of admin status transitions",
		},
		[]string{"from", "to"},
	)

	DocumentsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_uploaded_total",
			Help: "Total number of documents uploaded",
		},
		[]string{"document_type"},
	)

	DocumentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_verifications_total",
			Help: "Total number of completed document verification tasks",
		},
		[]string{"status"},
	)

	VerificationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "document_verification_retries_total",
			Help: "Total number of re-enqueued verification tasks",
		},
	)

	VerificationDeadLetters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "document_verification_dead_letters_total",
			Help: "Total number of verification tasks moved to the dead-letter list",
		},
	)

	KYCVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyc_verifications_total",
			Help: "Total number of KYC verification attempts",
		},
		[]string{"status"},
	)

	RiskAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_assessments_total",
			Help: "Total number of risk assessments performed",
		},
		[]string{"risk_level"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route", "status"},
	)
)
