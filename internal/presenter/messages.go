// Package presenter turns eligibility outcomes into text shown to applicants.
package presenter

import (
	"errors"
	"fmt"
	"strings"

	commonerrors "loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/eligibility"
)

var fieldLabels = map[eligibility.Field]string{
	eligibility.FieldAccountNumber:            "Account Number",
	eligibility.FieldFullName:                 "Full Name",
	eligibility.FieldGender:                   "Gender",
	eligibility.FieldMaritalStatus:            "Marital Status",
	eligibility.FieldDependents:               "Dependents",
	eligibility.FieldEducation:                "Education",
	eligibility.FieldEmploymentStatus:         "Employment Status",
	eligibility.FieldSelfEmployed:             "Self Employed",
	eligibility.FieldPropertyArea:             "Property Area",
	eligibility.FieldCreditScoreBand:          "Credit Score",
	eligibility.FieldLoanHistory:              "Loan History",
	eligibility.FieldMonthlyIncome:            "Applicant's Monthly Income",
	eligibility.FieldCoApplicantMonthlyIncome: "Co-Applicant's Monthly Income",
	eligibility.FieldLoanAmount:               "Loan Amount",
	eligibility.FieldLoanDurationMonths:       "Loan Duration",
}

// Label returns the form label for a field.
func Label(f eligibility.Field) string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// VerdictMessage renders the result line for a completed evaluation.
func VerdictMessage(fullName, accountNumber string, verdict eligibility.Verdict) string {
	outcome := "According to our calculations, you will NOT get the loan from the bank."
	if verdict == eligibility.VerdictApproved {
		outcome = "Congratulations!! You will get the loan from the bank."
	}
	return fmt.Sprintf("Hello: %s || Account Number: %s || %s", fullName, accountNumber, outcome)
}

// FieldMessages returns one message per offending field, or nil when err is
// not a validation failure.
func FieldMessages(err error) map[string]string {
	var violations []error
	var failure *eligibility.ValidationFailure
	if errors.As(err, &failure) {
		violations = failure.Violations
	} else if isViolation(err) {
		violations = []error{err}
	}
	if len(violations) == 0 {
		return nil
	}

	out := make(map[string]string, len(violations))
	for _, v := range violations {
		f, ok := eligibility.FieldOf(v)
		if !ok {
			continue
		}
		out[string(f)] = violationMessage(f, v)
	}
	return out
}

func isViolation(err error) bool {
	switch eligibility.KindOf(err) {
	case eligibility.KindMissingField, eligibility.KindInvalidEnumValue, eligibility.KindInvalidNumericValue:
		return true
	}
	return false
}

func violationMessage(f eligibility.Field, err error) string {
	label := Label(f)
	switch eligibility.KindOf(err) {
	case eligibility.KindMissingField:
		return fmt.Sprintf("%s is required.", label)
	case eligibility.KindInvalidEnumValue:
		opts := eligibility.Options(f)
		if f == eligibility.FieldLoanDurationMonths {
			return fmt.Sprintf("%s must be one of the five listed options: %s.", label, strings.Join(opts, ", "))
		}
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(opts, ", "))
	case eligibility.KindInvalidNumericValue:
		return fmt.Sprintf("%s must be a non-negative number.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// Message maps any evaluation failure to a single actionable sentence.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch eligibility.KindOf(err) {
	case eligibility.KindValidationFailed, eligibility.KindMissingField,
		eligibility.KindInvalidEnumValue, eligibility.KindInvalidNumericValue:
		msgs := FieldMessages(err)
		if len(msgs) == 1 {
			for _, m := range msgs {
				return m
			}
		}
		return fmt.Sprintf("Please correct the %d highlighted fields and submit again.", len(msgs))
	case eligibility.KindIncompleteProfile:
		f, _ := eligibility.FieldOf(err)
		return fmt.Sprintf("The loaded model also needs %s. Please provide it and submit again.", Label(f))
	case eligibility.KindFeatureArityMismatch:
		return "The loaded model does not match the application form. Please upload a model built for this form."
	case eligibility.KindFieldOrderMismatch:
		return "The requested field order is not the one the loaded model was trained on. Please use the model's field order."
	case eligibility.KindNoModelLoaded:
		return "Please upload a trained model file before making predictions."
	case eligibility.KindModelLoadError:
		return "The uploaded model file could not be read. Please upload a valid model artifact."
	case eligibility.KindProviderInvocationError:
		return "The prediction service is unavailable right now. Please try again shortly."
	case eligibility.KindUnexpectedOutputValue:
		return "The model returned a result that cannot be interpreted as approved or denied. Please check the uploaded model."
	default:
		return "Something went wrong while evaluating the application."
	}
}

// Failure converts err for the workflow engine and attaches the applicant
// facing text as userMessage, plus fieldErrors for validation failures.
func Failure(err error) *commonerrors.StandardError {
	stdErr := commonerrors.FromEligibility(err)
	if stdErr.Metadata == nil {
		stdErr.Metadata = map[string]interface{}{}
	}
	if msgs := FieldMessages(err); msgs != nil {
		stdErr.Metadata["fieldErrors"] = msgs
	}
	stdErr.Metadata["userMessage"] = Message(err)
	return stdErr
}
