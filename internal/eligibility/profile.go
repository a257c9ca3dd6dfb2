// Package eligibility turns raw loan-application form inputs into a verdict
// from an externally trained prediction model.
//
// The flow is linear and stateless: Validate builds an ApplicantProfile,
// Assemble orders it into a FeatureVector, Predict classifies the provider
// output. Evaluate composes the three.
package eligibility

import "fmt"

// Field names an applicant attribute as it appears in raw inputs and in
// field-order configurations.
type Field string

const (
	FieldGender                   Field = "gender"
	FieldMaritalStatus            Field = "maritalStatus"
	FieldDependents               Field = "dependents"
	FieldEducation                Field = "education"
	FieldEmploymentStatus         Field = "employmentStatus"
	FieldSelfEmployed             Field = "selfEmployed"
	FieldPropertyArea             Field = "propertyArea"
	FieldCreditScoreBand          Field = "creditScoreBand"
	FieldLoanHistory              Field = "loanHistory"
	FieldMonthlyIncome            Field = "monthlyIncome"
	FieldCoApplicantMonthlyIncome Field = "coApplicantMonthlyIncome"
	FieldLoanAmount               Field = "loanAmount"
	FieldLoanDurationMonths       Field = "loanDurationMonths"
	FieldAccountNumber            Field = "accountNumber"
	FieldFullName                 Field = "fullName"
)

// Gender is encoded Female=0, Male=1.
type Gender int

const (
	GenderFemale Gender = iota
	GenderMale
)

func (g Gender) String() string { return labelOf(genderLabels, int(g)) }

// YesNo is used by maritalStatus, selfEmployed and loanHistory.
type YesNo int

const (
	No YesNo = iota
	Yes
)

func (y YesNo) String() string { return labelOf(yesNoLabels, int(y)) }

// Dependents is encoded 0, 1, 2 and 3 for "more than two".
type Dependents int

const (
	DependentsNone Dependents = iota
	DependentsOne
	DependentsTwo
	DependentsMoreThanTwo
)

func (d Dependents) String() string { return labelOf(dependentsLabels, int(d)) }

type Education int

const (
	EducationNotGraduate Education = iota
	EducationGraduate
)

func (e Education) String() string { return labelOf(educationLabels, int(e)) }

type EmploymentStatus int

const (
	EmploymentJob EmploymentStatus = iota
	EmploymentBusiness
)

func (e EmploymentStatus) String() string { return labelOf(employmentLabels, int(e)) }

type PropertyArea int

const (
	PropertyAreaRural PropertyArea = iota
	PropertyAreaSemiUrban
	PropertyAreaUrban
)

func (p PropertyArea) String() string { return labelOf(propertyAreaLabels, int(p)) }

// CreditScoreBand is Low (300 to 500) or High (above 500).
type CreditScoreBand int

const (
	CreditScoreLow CreditScoreBand = iota
	CreditScoreHigh
)

func (c CreditScoreBand) String() string { return labelOf(creditScoreLabels, int(c)) }

// LoanDuration is the selection index of the loan term. The assembled
// feature is the month value from durationMonths, never the index.
type LoanDuration int

var durationMonths = [...]int{60, 180, 240, 360, 480}

// Months returns the loan term in months.
func (d LoanDuration) Months() int {
	if d < 0 || int(d) >= len(durationMonths) {
		return 0
	}
	return durationMonths[d]
}

func (d LoanDuration) String() string { return fmt.Sprintf("%d months", d.Months()) }

// OptionalYesNo holds a YesNo field that some model variants never ask for.
type OptionalYesNo struct {
	Value YesNo
	Valid bool
}

// ApplicantProfile is the validated, per-submission view of the form. It is a
// plain value: build it with Validate and pass it by value.
type ApplicantProfile struct {
	AccountNumber string
	FullName      string

	Gender           Gender
	MaritalStatus    YesNo
	Dependents       Dependents
	Education        Education
	EmploymentStatus EmploymentStatus
	SelfEmployed     OptionalYesNo
	PropertyArea     PropertyArea
	CreditScoreBand  CreditScoreBand
	LoanHistory      OptionalYesNo

	MonthlyIncome            float64
	CoApplicantMonthlyIncome float64
	LoanAmount               float64
	LoanDuration             LoanDuration
}

// featureValue returns the numeric encoding of a model field. ok is false
// when the field is optional and was not supplied.
func (p ApplicantProfile) featureValue(f Field) (value float64, ok bool) {
	switch f {
	case FieldGender:
		return float64(p.Gender), true
	case FieldMaritalStatus:
		return float64(p.MaritalStatus), true
	case FieldDependents:
		return float64(p.Dependents), true
	case FieldEducation:
		return float64(p.Education), true
	case FieldEmploymentStatus:
		return float64(p.EmploymentStatus), true
	case FieldSelfEmployed:
		return float64(p.SelfEmployed.Value), p.SelfEmployed.Valid
	case FieldPropertyArea:
		return float64(p.PropertyArea), true
	case FieldCreditScoreBand:
		return float64(p.CreditScoreBand), true
	case FieldLoanHistory:
		return float64(p.LoanHistory.Value), p.LoanHistory.Valid
	case FieldMonthlyIncome:
		return p.MonthlyIncome, true
	case FieldCoApplicantMonthlyIncome:
		return p.CoApplicantMonthlyIncome, true
	case FieldLoanAmount:
		return p.LoanAmount, true
	case FieldLoanDurationMonths:
		return float64(p.LoanDuration.Months()), true
	}
	return 0, false
}

// RawInputs are the untyped form values keyed by field name. Values may be
// numbers, numeric strings or labels; absent keys and nil values are missing.
type RawInputs map[string]interface{}
