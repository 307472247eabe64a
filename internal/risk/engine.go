// internal/risk/engine.go
package risk

import (
	"fmt"

	"account-opening/internal/models"
)

// Factor weights. Business and signer factors only apply to commercial
// applications; the overall score is normalized by the weights actually used.
const (
	weightKYC       = 0.30
	weightDocuments = 0.20
	weightFinancial = 0.20
	weightBusiness  = 0.15
	weightProfile   = 0.10
	weightSigners   = 0.05
)

// Risk level thresholds on the 0-100 normalized score.
const (
	mediumThreshold = 40.0
	highThreshold   = 70.0
)

// Input gathers everything the scoring engine reads. Nil members mean the
// corresponding data has not been provided.
type Input struct {
	Application *models.Application
	KYC         *models.KYCVerification
	Documents   []models.Document
	Personal    *models.PersonalInfo
	Financial   *models.FinancialProfile
	Business    *models.BusinessProfile
	Signers     []models.AdditionalSigner
}

// Score computes the deterministic risk assessment. Same input, same output:
// no clock, no randomness. Factor scores are risk points where higher is
// riskier; the overall score is the weighted average normalized to 0-100.
func Score(in Input) *models.RiskAssessment {
	commercial := in.Application.AccountType == models.AccountTypeCommercial

	var (
		factors         []models.RiskFactor
		recommendations []string
		critical        bool
	)

	add := func(category, name string, weight, score float64, description string) {
		factors = append(factors, models.RiskFactor{
			Category:    category,
			Factor:      name,
			Weight:      weight,
			Score:       score,
			Impact:      impactFor(score),
			Description: description,
		})
	}

	// Identity verification.
	kycScore, kycDesc, kycCritical, kycRecs := scoreKYC(in.KYC)
	add("identity", "kyc_verification", weightKYC, kycScore, kycDesc)
	critical = critical || kycCritical
	recommendations = append(recommendations, kycRecs...)

	// Document verification state.
	docScore, docDesc, docCritical, docRecs := scoreDocuments(in.Documents)
	add("documents", "document_verification", weightDocuments, docScore, docDesc)
	critical = critical || docCritical
	recommendations = append(recommendations, docRecs...)

	// Financial standing.
	finScore, finDesc, finRecs := scoreFinancial(in.Financial)
	add("financial", "financial_profile", weightFinancial, finScore, finDesc)
	recommendations = append(recommendations, finRecs...)

	// Profile completeness.
	profScore, profDesc := scoreProfile(in.Personal)
	add("profile", "profile_completeness", weightProfile, profScore, profDesc)

	if commercial {
		bizScore, bizDesc, bizRecs := scoreBusiness(in.Business)
		add("business", "business_standing", weightBusiness, bizScore, bizDesc)
		recommendations = append(recommendations, bizRecs...)

		signerScore, signerDesc, signerRecs := scoreSigners(in.Signers)
		add("business", "additional_signers", weightSigners, signerScore, signerDesc)
		recommendations = append(recommendations, signerRecs...)
	}

	var weightedSum, totalWeight float64
	for _, f := range factors {
		weightedSum += f.Score * f.Weight
		totalWeight += f.Weight
	}
	overall := weightedSum / totalWeight

	level := models.RiskLow
	switch {
	case overall >= highThreshold:
		level = models.RiskHigh
	case overall >= mediumThreshold:
		level = models.RiskMedium
	}

	manualReview := overall >= highThreshold || critical
	if manualReview {
		recommendations = append(recommendations, "Route application to manual review")
	}

	return &models.RiskAssessment{
		OverallRisk:          level,
		RiskScore:            round1(overall),
		Factors:              factors,
		Recommendations:      recommendations,
		RequiresManualReview: manualReview,
	}
}

func impactFor(score float64) models.FactorImpact {
	switch {
	case score <= 33:
		return models.ImpactPositive
	case score <= 66:
		return models.ImpactNeutral
	default:
		return models.ImpactNegative
	}
}

func scoreKYC(kyc *models.KYCVerification) (float64, string, bool, []string) {
	if kyc == nil {
		return 50, "no identity verification on file", false,
			[]string{"Complete identity verification before review"}
	}

	identityFailed := kyc.Results.Identity.Status == models.KYCCheckFailed
	ofacHit := kyc.Results.OFAC.Status == models.KYCCheckFailed ||
		kyc.Results.OFAC.Status == models.KYCCheckFlagged
	if identityFailed || ofacHit {
		desc := "identity verification failed"
		if ofacHit {
			desc = "sanctions screening raised a hit"
		}
		return 95, desc, true, nil
	}

	if anyFlagged(kyc.Results) {
		return 60, "one or more identity checks were flagged", false,
			[]string{"Review flagged identity checks"}
	}

	if kyc.Confidence >= 0.9 {
		return 10, fmt.Sprintf("identity verified with %.0f%% confidence", kyc.Confidence*100), false, nil
	}
	return 25, fmt.Sprintf("identity verified with %.0f%% confidence", kyc.Confidence*100), false, nil
}

func anyFlagged(r models.KYCResults) bool {
	for _, check := range []models.KYCCheckResult{r.Identity, r.Address, r.Phone, r.Email, r.OFAC} {
		if check.Status == models.KYCCheckFlagged {
			return true
		}
	}
	return false
}

func scoreDocuments(docs []models.Document) (float64, string, bool, []string) {
	if len(docs) == 0 {
		return 50, "no documents uploaded", false,
			[]string{"Upload required identity documents"}
	}

	var failed, unresolved, verified int
	for _, d := range docs {
		switch d.VerificationStatus {
		case models.VerificationFailed:
			failed++
		case models.VerificationVerified:
			verified++
		default:
			unresolved++
		}
	}

	switch {
	case failed > 0:
		return 85, fmt.Sprintf("%d document(s) failed verification", failed), true, nil
	case unresolved > 0:
		return 50, fmt.Sprintf("%d document(s) awaiting verification", unresolved), false,
			[]string{"Wait for pending document verification to complete"}
	default:
		return 15, fmt.Sprintf("all %d document(s) verified", verified), false, nil
	}
}

func scoreFinancial(f *models.FinancialProfile) (float64, string, []string) {
	if f == nil {
		return 50, "no financial profile provided",
			[]string{"Collect the applicant's financial profile"}
	}

	var score float64
	switch f.EmploymentStatus {
	case "employed":
		score = 25
	case "self_employed":
		score = 35
	case "retired":
		score = 40
	case "student":
		score = 55
	case "unemployed":
		score = 70
	default:
		score = 50
	}

	switch {
	case f.AnnualIncome >= 100000:
		score -= 10
	case f.AnnualIncome < 25000:
		score += 15
	}
	score = clamp(score, 0, 100)

	return score, fmt.Sprintf("%s with annual income %.0f", f.EmploymentStatus, f.AnnualIncome), nil
}

func scoreProfile(p *models.PersonalInfo) (float64, string) {
	if p == nil {
		return 60, "personal information not provided"
	}
	if p.SSNLast4 != "" && p.Phone != "" && p.Email != "" {
		return 20, "personal profile complete"
	}
	return 40, "personal profile partially complete"
}

func scoreBusiness(b *models.BusinessProfile) (float64, string, []string) {
	if b == nil {
		return 60, "business profile not provided",
			[]string{"Collect the business profile"}
	}

	var score float64
	switch {
	case b.YearsInBusiness >= 5:
		score = 20
	case b.YearsInBusiness >= 2:
		score = 40
	default:
		score = 65
	}
	if b.AnnualRevenue >= 1_000_000 {
		score -= 5
	}
	score = clamp(score, 0, 100)

	return score, fmt.Sprintf("%s, %.1f years in business", b.EntityType, b.YearsInBusiness), nil
}

func scoreSigners(signers []models.AdditionalSigner) (float64, string, []string) {
	if len(signers) == 0 {
		return 55, "no additional signers registered",
			[]string{"Confirm whether additional signers are required"}
	}
	return 30, fmt.Sprintf("%d additional signer(s) registered", len(signers)), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
