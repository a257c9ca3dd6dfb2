package eligibility

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// scenarioInputs is the applicant used throughout: male, married, no
// dependents, graduate, salaried, urban, high credit, 360 month term.
func scenarioInputs() RawInputs {
	return RawInputs{
		"accountNumber":            "ACC-1001",
		"fullName":                 "Alex Doe",
		"gender":                   1,
		"maritalStatus":            1,
		"dependents":               0,
		"education":                1,
		"employmentStatus":         0,
		"propertyArea":             2,
		"creditScoreBand":          1,
		"monthlyIncome":            5000,
		"coApplicantMonthlyIncome": 0,
		"loanAmount":               100000,
		"loanDurationMonths":       3,
	}
}

func withInput(raw RawInputs, key string, value interface{}) RawInputs {
	out := RawInputs{}
	for k, v := range raw {
		out[k] = v
	}
	if value == nil {
		delete(out, key)
		return out
	}
	out[key] = value
	return out
}

// ==========================
// Validate
// ==========================

func TestValidate_Success(t *testing.T) {
	profile, err := Validate(scenarioInputs())
	require.NoError(t, err)

	assert.Equal(t, "ACC-1001", profile.AccountNumber)
	assert.Equal(t, "Alex Doe", profile.FullName)
	assert.Equal(t, GenderMale, profile.Gender)
	assert.Equal(t, Yes, profile.MaritalStatus)
	assert.Equal(t, DependentsNone, profile.Dependents)
	assert.Equal(t, EducationGraduate, profile.Education)
	assert.Equal(t, EmploymentJob, profile.EmploymentStatus)
	assert.Equal(t, PropertyAreaUrban, profile.PropertyArea)
	assert.Equal(t, CreditScoreHigh, profile.CreditScoreBand)
	assert.Equal(t, 5000.0, profile.MonthlyIncome)
	assert.Equal(t, 0.0, profile.CoApplicantMonthlyIncome)
	assert.Equal(t, 100000.0, profile.LoanAmount)
	assert.Equal(t, 360, profile.LoanDuration.Months())
	assert.False(t, profile.SelfEmployed.Valid)
	assert.False(t, profile.LoanHistory.Valid)
}

func TestValidate_AcceptedEncodings(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value interface{}
		check func(t *testing.T, p ApplicantProfile)
	}{
		{"label", "gender", "Female", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, GenderFemale, p.Gender) }},
		{"label case insensitive", "propertyArea", "semi-urban", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, PropertyAreaSemiUrban, p.PropertyArea) }},
		{"label without punctuation", "propertyArea", "SemiUrban", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, PropertyAreaSemiUrban, p.PropertyArea) }},
		{"numeric string", "dependents", "3", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, DependentsMoreThanTwo, p.Dependents) }},
		{"long label", "dependents", "More than Two", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, DependentsMoreThanTwo, p.Dependents) }},
		{"credit band range label", "creditScoreBand", "Between 300 to 500", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, CreditScoreLow, p.CreditScoreBand) }},
		{"json number", "education", json.Number("0"), func(t *testing.T, p ApplicantProfile) { assert.Equal(t, EducationNotGraduate, p.Education) }},
		{"float ordinal", "employmentStatus", 1.0, func(t *testing.T, p ApplicantProfile) { assert.Equal(t, EmploymentBusiness, p.EmploymentStatus) }},
		{"duration month value", "loanDurationMonths", 480, func(t *testing.T, p ApplicantProfile) { assert.Equal(t, LoanDuration(4), p.LoanDuration) }},
		{"duration month label", "loanDurationMonths", "180 Months", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, LoanDuration(1), p.LoanDuration) }},
		{"numeric string amount", "loanAmount", " 2500.50 ", func(t *testing.T, p ApplicantProfile) { assert.Equal(t, 2500.5, p.LoanAmount) }},
		{"optional self employed", "selfEmployed", "Yes", func(t *testing.T, p ApplicantProfile) {
			assert.Equal(t, OptionalYesNo{Value: Yes, Valid: true}, p.SelfEmployed)
		}},
		{"optional loan history", "loanHistory", 0, func(t *testing.T, p ApplicantProfile) {
			assert.Equal(t, OptionalYesNo{Value: No, Valid: true}, p.LoanHistory)
		}},
		{"numeric account number", "accountNumber", 1234567890123.0, func(t *testing.T, p ApplicantProfile) {
			assert.Equal(t, "1234567890123", p.AccountNumber)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := Validate(withInput(scenarioInputs(), tt.field, tt.value))
			require.NoError(t, err)
			tt.check(t, profile)
		})
	}
}

func TestValidate_FreeTextDefaultsToEmpty(t *testing.T) {
	raw := withInput(withInput(scenarioInputs(), "fullName", nil), "accountNumber", nil)

	profile, err := Validate(raw)
	require.NoError(t, err)
	assert.Empty(t, profile.FullName)
	assert.Empty(t, profile.AccountNumber)
}

func TestValidate_InvalidEnumValues(t *testing.T) {
	for _, field := range []string{
		"gender", "maritalStatus", "dependents", "education", "employmentStatus",
		"selfEmployed", "propertyArea", "creditScoreBand", "loanHistory", "loanDurationMonths",
	} {
		for _, bad := range []interface{}{"unknown", 7, -1, 0.5, true} {
			t.Run(field, func(t *testing.T) {
				_, err := Validate(withInput(scenarioInputs(), field, bad))
				require.Error(t, err)

				var failure *ValidationFailure
				require.True(t, errors.As(err, &failure))
				require.Len(t, failure.Violations, 1)

				var enumErr *InvalidEnumValueError
				require.True(t, errors.As(failure.Violations[0], &enumErr))
				assert.Equal(t, Field(field), enumErr.Field)
				assert.Equal(t, bad, enumErr.Value)
				assert.Equal(t, KindInvalidEnumValue, KindOf(failure.Violations[0]))
			})
		}
	}
}

func TestValidate_RawDurationIndexOutOfRange(t *testing.T) {
	_, err := Validate(withInput(scenarioInputs(), "loanDurationMonths", 5))
	var enumErr *InvalidEnumValueError
	require.True(t, errors.As(err, &enumErr))
	assert.Equal(t, FieldLoanDurationMonths, enumErr.Field)
}

func TestValidate_InvalidNumericValues(t *testing.T) {
	for _, field := range []string{"monthlyIncome", "coApplicantMonthlyIncome", "loanAmount"} {
		for _, bad := range []interface{}{-1, -0.01, "abc", "NaN", math.Inf(1), false} {
			t.Run(field, func(t *testing.T) {
				_, err := Validate(withInput(scenarioInputs(), field, bad))

				var numErr *InvalidNumericValueError
				require.True(t, errors.As(err, &numErr))
				assert.Equal(t, Field(field), numErr.Field)
				assert.Equal(t, KindValidationFailed, KindOf(err))
			})
		}
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	raw := scenarioInputs()
	raw["gender"] = "robot"
	raw["monthlyIncome"] = -10
	raw["loanDurationMonths"] = 99
	delete(raw, "education")

	_, err := Validate(raw)
	require.Error(t, err)

	var failure *ValidationFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t,
		[]Field{FieldGender, FieldEducation, FieldMonthlyIncome, FieldLoanDurationMonths},
		failure.Fields())

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FieldEducation, missing.Field)
}

func TestValidate_EmptyStringIsMissing(t *testing.T) {
	_, err := Validate(withInput(scenarioInputs(), "loanAmount", "  "))

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FieldLoanAmount, missing.Field)
}

func TestOptions(t *testing.T) {
	assert.Equal(t, []string{"Rural", "Semi-Urban", "Urban"}, Options(FieldPropertyArea))
	assert.Len(t, Options(FieldLoanDurationMonths), 5)
	assert.Equal(t, "480 months", Options(FieldLoanDurationMonths)[4])
	assert.Nil(t, Options(FieldMonthlyIncome))
}
