package eligibility

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	genderLabels       = []string{"Female", "Male"}
	yesNoLabels        = []string{"No", "Yes"}
	dependentsLabels   = []string{"None", "One", "Two", "More than Two"}
	educationLabels    = []string{"Not Graduate", "Graduate"}
	employmentLabels   = []string{"Job", "Business"}
	propertyAreaLabels = []string{"Rural", "Semi-Urban", "Urban"}
	creditScoreLabels  = []string{"Low", "High"}
)

type enumSpec struct {
	field   Field
	labels  []string
	aliases map[string]int // keys are normalized
}

var enumSpecs = map[Field]enumSpec{
	FieldGender:           {field: FieldGender, labels: genderLabels, aliases: map[string]int{"f": 0, "m": 1}},
	FieldMaritalStatus:    {field: FieldMaritalStatus, labels: yesNoLabels, aliases: map[string]int{"single": 0, "married": 1}},
	FieldDependents:       {field: FieldDependents, labels: dependentsLabels, aliases: map[string]int{"no": 0, "morethan2": 3}},
	FieldEducation:        {field: FieldEducation, labels: educationLabels},
	FieldEmploymentStatus: {field: FieldEmploymentStatus, labels: employmentLabels},
	FieldSelfEmployed:     {field: FieldSelfEmployed, labels: yesNoLabels},
	FieldPropertyArea:     {field: FieldPropertyArea, labels: propertyAreaLabels},
	FieldCreditScoreBand: {field: FieldCreditScoreBand, labels: creditScoreLabels, aliases: map[string]int{
		"between300to500": 0,
		"above500":        1,
	}},
	FieldLoanHistory: {field: FieldLoanHistory, labels: yesNoLabels},
}

// lookup resolves an ordinal code or a case-insensitive label.
func (s enumSpec) lookup(value interface{}) (int, bool) {
	if n, ok := asNumber(value); ok {
		if n != math.Trunc(n) || n < 0 || n >= float64(len(s.labels)) {
			return 0, false
		}
		return int(n), true
	}
	str, ok := value.(string)
	if !ok {
		return 0, false
	}
	key := normalizeLabel(str)
	for i, label := range s.labels {
		if normalizeLabel(label) == key {
			return i, true
		}
	}
	if i, ok := s.aliases[key]; ok {
		return i, true
	}
	return 0, false
}

// Options returns the display labels of an enumerated field in ordinal order.
func Options(field Field) []string {
	if field == FieldLoanDurationMonths {
		opts := make([]string, len(durationMonths))
		for i := range durationMonths {
			opts[i] = LoanDuration(i).String()
		}
		return opts
	}
	spec, ok := enumSpecs[field]
	if !ok {
		return nil
	}
	return append([]string(nil), spec.labels...)
}

// Validate checks every field of raw and returns the profile, or a
// *ValidationFailure listing all violations in field order.
func Validate(raw RawInputs) (ApplicantProfile, error) {
	v := &validator{raw: raw}

	p := ApplicantProfile{
		AccountNumber: v.text(FieldAccountNumber),
		FullName:      v.text(FieldFullName),
	}

	p.Gender = Gender(v.enum(FieldGender))
	p.MaritalStatus = YesNo(v.enum(FieldMaritalStatus))
	p.Dependents = Dependents(v.enum(FieldDependents))
	p.Education = Education(v.enum(FieldEducation))
	p.EmploymentStatus = EmploymentStatus(v.enum(FieldEmploymentStatus))
	p.SelfEmployed = v.optionalYesNo(FieldSelfEmployed)
	p.PropertyArea = PropertyArea(v.enum(FieldPropertyArea))
	p.CreditScoreBand = CreditScoreBand(v.enum(FieldCreditScoreBand))
	p.LoanHistory = v.optionalYesNo(FieldLoanHistory)
	p.MonthlyIncome = v.amount(FieldMonthlyIncome)
	p.CoApplicantMonthlyIncome = v.amount(FieldCoApplicantMonthlyIncome)
	p.LoanAmount = v.amount(FieldLoanAmount)
	p.LoanDuration = v.duration()

	if len(v.violations) > 0 {
		return ApplicantProfile{}, &ValidationFailure{Violations: v.violations}
	}
	return p, nil
}

type validator struct {
	raw        RawInputs
	violations []error
}

func (v *validator) value(f Field) (interface{}, bool) {
	val, ok := v.raw[string(f)]
	if !ok || val == nil {
		return nil, false
	}
	if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return val, true
}

func (v *validator) fail(err error) {
	v.violations = append(v.violations, err)
}

func (v *validator) text(f Field) string {
	val, ok := v.raw[string(f)]
	if !ok || val == nil {
		return ""
	}
	switch t := val.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (v *validator) enum(f Field) int {
	val, ok := v.value(f)
	if !ok {
		v.fail(&MissingFieldError{Field: f})
		return 0
	}
	code, ok := enumSpecs[f].lookup(val)
	if !ok {
		v.fail(&InvalidEnumValueError{Field: f, Value: val})
		return 0
	}
	return code
}

func (v *validator) optionalYesNo(f Field) OptionalYesNo {
	val, ok := v.value(f)
	if !ok {
		return OptionalYesNo{}
	}
	code, ok := enumSpecs[f].lookup(val)
	if !ok {
		v.fail(&InvalidEnumValueError{Field: f, Value: val})
		return OptionalYesNo{}
	}
	return OptionalYesNo{Value: YesNo(code), Valid: true}
}

func (v *validator) amount(f Field) float64 {
	val, ok := v.value(f)
	if !ok {
		v.fail(&MissingFieldError{Field: f})
		return 0
	}
	n, ok := asNumber(val)
	if !ok || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		v.fail(&InvalidNumericValueError{Field: f, Value: val})
		return 0
	}
	return n
}

// duration accepts the selection index 0..4 or one of the month values.
func (v *validator) duration() LoanDuration {
	f := FieldLoanDurationMonths
	val, ok := v.value(f)
	if !ok {
		v.fail(&MissingFieldError{Field: f})
		return 0
	}

	n, isNum := asNumber(val)
	if !isNum {
		if s, isStr := val.(string); isStr {
			n, isNum = monthsFromLabel(s)
		}
	}
	if isNum && n == math.Trunc(n) {
		if n >= 0 && n < float64(len(durationMonths)) {
			return LoanDuration(n)
		}
		for i, m := range durationMonths {
			if float64(m) == n {
				return LoanDuration(i)
			}
		}
	}
	v.fail(&InvalidEnumValueError{Field: f, Value: val})
	return 0
}

// monthsFromLabel parses labels of the form "360 months".
func monthsFromLabel(s string) (float64, bool) {
	key := normalizeLabel(s)
	if !strings.HasSuffix(key, "months") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(key, "months"))
	if err != nil {
		return 0, false
	}
	for _, m := range durationMonths {
		if m == n {
			return float64(n), true
		}
	}
	return 0, false
}

func asNumber(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func normalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func labelOf(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return strconv.Itoa(i)
	}
	return labels[i]
}
