// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schemas for applicant-supplied payloads. Validated before anything enters
// the workflow; field-level errors are reported back to the caller.

const personalInfoSchema = `{
	"type": "object",
	"required": ["firstName", "lastName", "email", "phone", "dateOfBirth", "address"],
	"additionalProperties": false,
	"properties": {
		"firstName":   {"type": "string", "minLength": 1, "maxLength": 100},
		"lastName":    {"type": "string", "minLength": 1, "maxLength": 100},
		"email":       {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
		"phone":       {"type": "string", "minLength": 7, "maxLength": 20},
		"dateOfBirth": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"ssnLast4":    {"type": "string", "pattern": "^\\d{4}$"},
		"address":     {"$ref": "#/definitions/address"}
	},
	"definitions": {
		"address": {
			"type": "object",
			"required": ["street", "city", "state", "zipCode"],
			"properties": {
				"street":  {"type": "string", "minLength": 1},
				"street2": {"type": "string"},
				"city":    {"type": "string", "minLength": 1},
				"state":   {"type": "string", "minLength": 2, "maxLength": 2},
				"zipCode": {"type": "string", "pattern": "^\\d{5}(-\\d{4})?$"},
				"country": {"type": "string"}
			}
		}
	}
}`

const businessProfileSchema = `{
	"type": "object",
	"required": ["legalName", "ein", "entityType", "industry", "address"],
	"additionalProperties": false,
	"properties": {
		"legalName":       {"type": "string", "minLength": 1, "maxLength": 255},
		"dbaName":         {"type": "string"},
		"ein":             {"type": "string", "pattern": "^\\d{2}-?\\d{7}$"},
		"entityType":      {"type": "string", "enum": ["llc", "corporation", "partnership", "sole_proprietorship", "nonprofit"]},
		"industry":        {"type": "string", "minLength": 1},
		"yearsInBusiness": {"type": "number", "minimum": 0},
		"annualRevenue":   {"type": "number", "minimum": 0},
		"address": {
			"type": "object",
			"required": ["street", "city", "state", "zipCode"],
			"properties": {
				"street":  {"type": "string", "minLength": 1},
				"street2": {"type": "string"},
				"city":    {"type": "string", "minLength": 1},
				"state":   {"type": "string", "minLength": 2, "maxLength": 2},
				"zipCode": {"type": "string", "pattern": "^\\d{5}(-\\d{4})?$"},
				"country": {"type": "string"}
			}
		}
	}
}`

const financialProfileSchema = `{
	"type": "object",
	"required": ["annualIncome", "employmentStatus", "sourceOfFunds"],
	"additionalProperties": false,
	"properties": {
		"annualIncome":     {"type": "number", "minimum": 0},
		"employmentStatus": {"type": "string", "enum": ["employed", "self_employed", "unemployed", "retired", "student"]},
		"employer":         {"type": "string"},
		"sourceOfFunds":    {"type": "string", "minLength": 1},
		"netWorth":         {"type": "number"}
	}
}`

var compiledSchemas = map[string]*gojsonschema.Schema{}

func init() {
	for name, raw := range map[string]string{
		"personalInfo":     personalInfoSchema,
		"businessProfile":  businessProfileSchema,
		"financialProfile": financialProfileSchema,
	} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("invalid %s schema: %v", name, err))
		}
		compiledSchemas[name] = schema
	}
}

func validate(schemaName string, payload map[string]interface{}) error {
	schema := compiledSchemas[schemaName]

	result, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%s validation failed: %s", schemaName, strings.Join(errs, "; "))
	}

	return nil
}

// ValidatePersonalInfo checks an applicant personal-info payload.
func ValidatePersonalInfo(payload map[string]interface{}) error {
	return validate("personalInfo", payload)
}

// ValidateBusinessProfile checks a commercial business-profile payload.
func ValidateBusinessProfile(payload map[string]interface{}) error {
	return validate("businessProfile", payload)
}

// ValidateFinancialProfile checks a financial-profile payload.
func ValidateFinancialProfile(payload map[string]interface{}) error {
	return validate("financialProfile", payload)
}
