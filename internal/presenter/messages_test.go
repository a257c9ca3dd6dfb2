package presenter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/internal/eligibility"
)

func TestVerdictMessage(t *testing.T) {
	assert.Equal(t,
		"Hello: Jane Doe || Account Number: 12345 || Congratulations!! You will get the loan from the bank.",
		VerdictMessage("Jane Doe", "12345", eligibility.VerdictApproved))
	assert.Equal(t,
		"Hello: Jane Doe || Account Number: 12345 || According to our calculations, you will NOT get the loan from the bank.",
		VerdictMessage("Jane Doe", "12345", eligibility.VerdictDenied))
}

func TestFieldMessages(t *testing.T) {
	failure := &eligibility.ValidationFailure{Violations: []error{
		&eligibility.MissingFieldError{Field: eligibility.FieldGender},
		&eligibility.InvalidEnumValueError{Field: eligibility.FieldLoanDurationMonths, Value: 7},
		&eligibility.InvalidNumericValueError{Field: eligibility.FieldLoanAmount, Value: -1},
	}}

	msgs := FieldMessages(failure)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Gender is required.", msgs["gender"])
	assert.Equal(t, "Loan Duration must be one of the five listed options: 60 months, 180 months, 240 months, 360 months, 480 months.", msgs["loanDurationMonths"])
	assert.Equal(t, "Loan Amount must be a non-negative number.", msgs["loanAmount"])

	assert.Nil(t, FieldMessages(eligibility.ErrNoModelLoaded))
	assert.Nil(t, FieldMessages(&eligibility.IncompleteProfileError{Field: eligibility.FieldSelfEmployed}))
}

func TestMessage_DistinctPerKind(t *testing.T) {
	errs := []error{
		&eligibility.ValidationFailure{Violations: []error{&eligibility.MissingFieldError{Field: eligibility.FieldGender}}},
		&eligibility.ValidationFailure{Violations: []error{
			&eligibility.MissingFieldError{Field: eligibility.FieldGender},
			&eligibility.MissingFieldError{Field: eligibility.FieldEducation},
		}},
		&eligibility.IncompleteProfileError{Field: eligibility.FieldSelfEmployed},
		&eligibility.FeatureArityMismatchError{Expected: 12, Actual: 11},
		&eligibility.FieldOrderMismatchError{Expected: "v1", Actual: "v1-swapped"},
		eligibility.ErrNoModelLoaded,
		&eligibility.ModelLoadError{Cause: errors.New("bad")},
		&eligibility.ProviderInvocationError{Cause: errors.New("down")},
		&eligibility.UnexpectedOutputValueError{Rule: "strict"},
	}

	seen := map[string]bool{}
	for _, err := range errs {
		msg := Message(err)
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}

	assert.Equal(t, "Gender is required.", Message(errs[0]))
	assert.Equal(t, "Please correct the 2 highlighted fields and submit again.", Message(errs[1]))
	assert.Contains(t, Message(errs[2]), "Self Employed")
	assert.Empty(t, Message(nil))
}

func TestMessage_WrappedInEvaluationError(t *testing.T) {
	err := &eligibility.EvaluationError{Stage: eligibility.StageReceived, Err: eligibility.ErrNoModelLoaded}
	assert.Equal(t, "Please upload a trained model file before making predictions.", Message(err))
}

func TestFailure(t *testing.T) {
	failure := &eligibility.ValidationFailure{Violations: []error{
		&eligibility.MissingFieldError{Field: eligibility.FieldGender},
	}}
	stdErr := Failure(failure)
	assert.Equal(t, "VALIDATION_FAILED", string(stdErr.Code))
	assert.Equal(t, map[string]string{"gender": "Gender is required."}, stdErr.Metadata["fieldErrors"])
	assert.Equal(t, "Gender is required.", stdErr.Metadata["userMessage"])

	stdErr = Failure(eligibility.ErrNoModelLoaded)
	assert.NotContains(t, stdErr.Metadata, "fieldErrors")
	assert.Equal(t, "Please upload a trained model file before making predictions.", stdErr.Metadata["userMessage"])
}
