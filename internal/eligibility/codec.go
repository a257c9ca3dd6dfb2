package eligibility

import "encoding/json"

// Raw returns the canonical form inputs for p: labels for enumerations,
// month values for the duration. Validate(p.Raw()) yields p again.
func (p ApplicantProfile) Raw() RawInputs {
	raw := RawInputs{
		string(FieldAccountNumber):            p.AccountNumber,
		string(FieldFullName):                 p.FullName,
		string(FieldGender):                   p.Gender.String(),
		string(FieldMaritalStatus):            p.MaritalStatus.String(),
		string(FieldDependents):               p.Dependents.String(),
		string(FieldEducation):                p.Education.String(),
		string(FieldEmploymentStatus):         p.EmploymentStatus.String(),
		string(FieldPropertyArea):             p.PropertyArea.String(),
		string(FieldCreditScoreBand):          p.CreditScoreBand.String(),
		string(FieldMonthlyIncome):            p.MonthlyIncome,
		string(FieldCoApplicantMonthlyIncome): p.CoApplicantMonthlyIncome,
		string(FieldLoanAmount):               p.LoanAmount,
		string(FieldLoanDurationMonths):       p.LoanDuration.Months(),
	}
	if p.SelfEmployed.Valid {
		raw[string(FieldSelfEmployed)] = p.SelfEmployed.Value.String()
	}
	if p.LoanHistory.Valid {
		raw[string(FieldLoanHistory)] = p.LoanHistory.Value.String()
	}
	return raw
}

func (p ApplicantProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Raw())
}

// UnmarshalJSON re-validates the document, so a decoded profile holds the
// same invariants as one built by Validate.
func (p *ApplicantProfile) UnmarshalJSON(data []byte) error {
	var raw RawInputs
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	profile, err := Validate(raw)
	if err != nil {
		return err
	}
	*p = profile
	return nil
}
