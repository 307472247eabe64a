package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-opening/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func consumerApp() *models.Application {
	return &models.Application{ID: "app-1", AccountType: models.AccountTypeConsumer}
}

func commercialApp() *models.Application {
	return &models.Application{ID: "app-1", AccountType: models.AccountTypeCommercial}
}

func passedKYC() *models.KYCVerification {
	return &models.KYCVerification{
		Status:     "verified",
		Confidence: 0.95,
		Results: models.KYCResults{
			Identity: models.KYCCheckResult{Status: models.KYCCheckPassed},
			Address:  models.KYCCheckResult{Status: models.KYCCheckPassed},
			Phone:    models.KYCCheckResult{Status: models.KYCCheckPassed},
			Email:    models.KYCCheckResult{Status: models.KYCCheckPassed},
			OFAC:     models.KYCCheckResult{Status: models.KYCCheckPassed},
		},
	}
}

func verifiedDocs(n int) []models.Document {
	docs := make([]models.Document, n)
	for i := range docs {
		docs[i] = models.Document{VerificationStatus: models.VerificationVerified}
	}
	return docs
}

func strongFinancial() *models.FinancialProfile {
	return &models.FinancialProfile{
		AnnualIncome:     120000,
		EmploymentStatus: "employed",
		SourceOfFunds:    "salary",
	}
}

func completePersonal() *models.PersonalInfo {
	return &models.PersonalInfo{
		FirstName: "Jordan", LastName: "Avery",
		Email: "jordan@example.com", Phone: "+12065551234", SSNLast4: "1234",
	}
}

func strongInput() Input {
	return Input{
		Application: consumerApp(),
		KYC:         passedKYC(),
		Documents:   verifiedDocs(2),
		Personal:    completePersonal(),
		Financial:   strongFinancial(),
	}
}

// ==========================
// Overall Scoring Tests
// ==========================

func TestScore_StrongConsumerIsLowRisk(t *testing.T) {
	assessment := Score(strongInput())

	assert.Equal(t, models.RiskLow, assessment.OverallRisk)
	assert.Less(t, assessment.RiskScore, mediumThreshold)
	assert.False(t, assessment.RequiresManualReview)
	assert.Len(t, assessment.Factors, 4)
}

func TestScore_IsDeterministic(t *testing.T) {
	first := Score(strongInput())
	second := Score(strongInput())

	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.OverallRisk, second.OverallRisk)
	assert.Equal(t, first.Factors, second.Factors)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestScore_EmptyApplicationIsMediumRisk(t *testing.T) {
	assessment := Score(Input{Application: consumerApp()})

	assert.Equal(t, models.RiskMedium, assessment.OverallRisk)
	assert.False(t, assessment.RequiresManualReview)
	// Every missing input produces a recommendation.
	assert.NotEmpty(t, assessment.Recommendations)
}

func TestScore_WeightsAreNormalized(t *testing.T) {
	// With every factor at its neutral 50-ish band the overall score must
	// stay within 0-100 for both account types.
	for _, app := range []*models.Application{consumerApp(), commercialApp()} {
		assessment := Score(Input{Application: app})
		assert.GreaterOrEqual(t, assessment.RiskScore, 0.0)
		assert.LessOrEqual(t, assessment.RiskScore, 100.0)
	}
}

// ==========================
// Critical Factor Tests
// ==========================

func TestScore_FailedIdentityForcesManualReview(t *testing.T) {
	in := strongInput()
	in.KYC.Results.Identity.Status = models.KYCCheckFailed

	assessment := Score(in)

	assert.True(t, assessment.RequiresManualReview)
	assert.Contains(t, assessment.Recommendations, "Route application to manual review")
}

func TestScore_OFACHitForcesManualReview(t *testing.T) {
	for _, status := range []string{models.KYCCheckFailed, models.KYCCheckFlagged} {
		in := strongInput()
		in.KYC.Results.OFAC.Status = status

		assessment := Score(in)

		assert.True(t, assessment.RequiresManualReview, "ofac status %s", status)
	}
}

func TestScore_FailedDocumentForcesManualReview(t *testing.T) {
	in := strongInput()
	in.Documents = append(in.Documents, models.Document{VerificationStatus: models.VerificationFailed})

	assessment := Score(in)

	assert.True(t, assessment.RequiresManualReview)
}

func TestScore_ManualReviewWithoutHighScore(t *testing.T) {
	// A single failed document on an otherwise strong file: the overall
	// score can stay below the high threshold while review is still forced.
	in := strongInput()
	in.Documents = []models.Document{
		{VerificationStatus: models.VerificationVerified},
		{VerificationStatus: models.VerificationFailed},
	}

	assessment := Score(in)

	assert.True(t, assessment.RequiresManualReview)
	assert.Less(t, assessment.RiskScore, highThreshold)
}

// ==========================
// Factor Tests
// ==========================

func TestScoreKYC(t *testing.T) {
	t.Run("missing verification is neutral with recommendation", func(t *testing.T) {
		score, _, critical, recs := scoreKYC(nil)
		assert.Equal(t, 50.0, score)
		assert.False(t, critical)
		assert.NotEmpty(t, recs)
	})

	t.Run("high confidence pass is strongly positive", func(t *testing.T) {
		score, _, critical, _ := scoreKYC(passedKYC())
		assert.Equal(t, 10.0, score)
		assert.False(t, critical)
		assert.Equal(t, models.ImpactPositive, impactFor(score))
	})

	t.Run("low confidence pass scores worse", func(t *testing.T) {
		kyc := passedKYC()
		kyc.Confidence = 0.7
		score, _, _, _ := scoreKYC(kyc)
		assert.Equal(t, 25.0, score)
	})

	t.Run("flagged sub-check is elevated but not critical", func(t *testing.T) {
		kyc := passedKYC()
		kyc.Results.Address.Status = models.KYCCheckFlagged
		score, _, critical, _ := scoreKYC(kyc)
		assert.Equal(t, 60.0, score)
		assert.False(t, critical)
	})

	t.Run("failed identity is critical", func(t *testing.T) {
		kyc := passedKYC()
		kyc.Results.Identity.Status = models.KYCCheckFailed
		score, _, critical, _ := scoreKYC(kyc)
		assert.Equal(t, 95.0, score)
		assert.True(t, critical)
	})
}

func TestScoreDocuments(t *testing.T) {
	t.Run("all verified is positive", func(t *testing.T) {
		score, _, critical, _ := scoreDocuments(verifiedDocs(3))
		assert.Equal(t, 15.0, score)
		assert.False(t, critical)
	})

	t.Run("pending documents are neutral", func(t *testing.T) {
		docs := append(verifiedDocs(1), models.Document{VerificationStatus: models.VerificationPending})
		score, _, critical, _ := scoreDocuments(docs)
		assert.Equal(t, 50.0, score)
		assert.False(t, critical)
	})

	t.Run("any failure dominates", func(t *testing.T) {
		docs := append(verifiedDocs(5), models.Document{VerificationStatus: models.VerificationFailed})
		score, _, critical, _ := scoreDocuments(docs)
		assert.Equal(t, 85.0, score)
		assert.True(t, critical)
	})
}

func TestScoreFinancial(t *testing.T) {
	tests := []struct {
		name     string
		profile  *models.FinancialProfile
		expected float64
	}{
		{"high income employed", &models.FinancialProfile{EmploymentStatus: "employed", AnnualIncome: 150000}, 15},
		{"mid income employed", &models.FinancialProfile{EmploymentStatus: "employed", AnnualIncome: 60000}, 25},
		{"low income employed", &models.FinancialProfile{EmploymentStatus: "employed", AnnualIncome: 20000}, 40},
		{"unemployed low income", &models.FinancialProfile{EmploymentStatus: "unemployed", AnnualIncome: 10000}, 85},
		{"self employed", &models.FinancialProfile{EmploymentStatus: "self_employed", AnnualIncome: 60000}, 35},
		{"retired", &models.FinancialProfile{EmploymentStatus: "retired", AnnualIncome: 50000}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _, _ := scoreFinancial(tt.profile)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestScoreBusiness(t *testing.T) {
	t.Run("established business is positive", func(t *testing.T) {
		score, _, _ := scoreBusiness(&models.BusinessProfile{
			EntityType: "llc", YearsInBusiness: 8, AnnualRevenue: 2_000_000,
		})
		assert.Equal(t, 15.0, score)
	})

	t.Run("new business is elevated", func(t *testing.T) {
		score, _, _ := scoreBusiness(&models.BusinessProfile{
			EntityType: "llc", YearsInBusiness: 0.5,
		})
		assert.Equal(t, 65.0, score)
	})
}

// ==========================
// Commercial Path Tests
// ==========================

func TestScore_CommercialIncludesBusinessFactors(t *testing.T) {
	in := strongInput()
	in.Application = commercialApp()
	in.Business = &models.BusinessProfile{EntityType: "llc", YearsInBusiness: 6}
	in.Signers = []models.AdditionalSigner{{ID: "signer-1"}}

	assessment := Score(in)

	require.Len(t, assessment.Factors, 6)
	categories := map[string]int{}
	for _, f := range assessment.Factors {
		categories[f.Category]++
	}
	assert.Equal(t, 2, categories["business"])
}

func TestScore_ConsumerOmitsBusinessFactors(t *testing.T) {
	assessment := Score(strongInput())

	for _, f := range assessment.Factors {
		assert.NotEqual(t, "business", f.Category)
	}
}
