// internal/models/risk.go
package models

import "time"

// RiskLevel buckets the normalized risk score.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskPending RiskLevel = "pending" // no assessment recorded yet
)

// FactorImpact describes how a factor reads for the application.
type FactorImpact string

const (
	ImpactPositive FactorImpact = "positive"
	ImpactNegative FactorImpact = "negative"
	ImpactNeutral  FactorImpact = "neutral"
)

// RiskFactor is a single weighted signal contributing to the overall score.
type RiskFactor struct {
	Category    string       `json:"category"`
	Factor      string       `json:"factor"`
	Weight      float64      `json:"weight"`
	Score       float64      `json:"score"`
	Impact      FactorImpact `json:"impact"`
	Description string       `json:"description"`
}

// RiskAssessment is the one-per-application scoring result. Immutable once
// created; duplicates are rejected by a storage uniqueness constraint.
type RiskAssessment struct {
	ID                    string       `json:"id"`
	ApplicationID         string       `json:"applicationId"`
	OverallRisk           RiskLevel    `json:"overallRisk"`
	RiskScore             float64      `json:"riskScore"`
	Factors               []RiskFactor `json:"factors"`
	Recommendations       []string     `json:"recommendations"`
	RequiresManualReview  bool         `json:"requiresManualReview"`
	AssessedAt            time.Time    `json:"assessedAt"`
	AssessedBy            string       `json:"assessedBy"`
}
