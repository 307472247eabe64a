// internal/models/profile.go
package models

import "time"

// Address is the shared mailing-address shape embedded in profiles.
type Address struct {
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country,omitempty"`
}

// PersonalInfo is the applicant's identity profile, required before KYC and
// risk assessment can run.
type PersonalInfo struct {
	ApplicationID string    `json:"applicationId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	DateOfBirth   string    `json:"dateOfBirth"`
	SSNLast4      string    `json:"ssnLast4,omitempty"`
	Address       Address   `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BusinessProfile is required for commercial applications.
type BusinessProfile struct {
	ApplicationID   string    `json:"applicationId"`
	LegalName       string    `json:"legalName"`
	DBAName         string    `json:"dbaName,omitempty"`
	EIN             string    `json:"ein"`
	EntityType      string    `json:"entityType"`
	Industry        string    `json:"industry"`
	YearsInBusiness float64   `json:"yearsInBusiness"`
	AnnualRevenue   float64   `json:"annualRevenue,omitempty"`
	Address         Address   `json:"address"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FinancialProfile feeds the risk engine's financial factors.
type FinancialProfile struct {
	ApplicationID    string    `json:"applicationId"`
	AnnualIncome     float64   `json:"annualIncome"`
	EmploymentStatus string    `json:"employmentStatus"`
	Employer         string    `json:"employer,omitempty"`
	SourceOfFunds    string    `json:"sourceOfFunds"`
	NetWorth         float64   `json:"netWorth,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AdditionalSigner is a co-signer on a commercial application. Signer-owned
// documents reference the signer id.
type AdditionalSigner struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Role          string    `json:"role,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
