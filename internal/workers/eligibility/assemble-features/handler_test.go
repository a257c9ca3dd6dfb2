// internal/workers/eligibility/assemble-features/handler_test.go
package assemblefeatures

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/internal/common/errors"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/eligibility"
)

// ==========================
// Test Helper Functions
// ==========================

const profileVariables = `{
	"profile": {
		"accountNumber": "ACC-1001",
		"fullName": "Alex Doe",
		"gender": "Male",
		"maritalStatus": "Yes",
		"dependents": "No",
		"education": "Graduate",
		"employmentStatus": "Job",
		"propertyArea": "Urban",
		"creditScoreBand": "Above 500",
		"monthlyIncome": 5000,
		"coApplicantMonthlyIncome": 0,
		"loanAmount": 100000,
		"loanDurationMonths": 360
	}
}`

func decodeInput(t *testing.T, doc string) *Input {
	t.Helper()
	var input Input
	require.NoError(t, inputSchema.Decode([]byte(doc), &input))
	return &input
}

func newHandler() *Handler {
	return NewHandler(&Config{Timeout: time.Second}, logger.NewNoOpLogger())
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_DefaultOrder(t *testing.T) {
	output, err := newHandler().Execute(context.Background(), decodeInput(t, profileVariables))
	require.NoError(t, err)

	assert.Equal(t, "v1", output.FieldOrderVersion)
	assert.Equal(t, []float64{1, 1, 0, 1, 0, 5000, 0, 100000, 360, 1, 2}, output.Features)
	assert.Equal(t, "gender", output.FeatureNames[0])
	assert.Equal(t, "propertyArea", output.FeatureNames[10])
}

func TestHandler_Execute_V2NeedsSelfEmployed(t *testing.T) {
	input := decodeInput(t, profileVariables)
	input.FieldOrderVersion = "v2"

	_, err := newHandler().Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, eligibility.KindIncompleteProfile, eligibility.KindOf(err))

	input.Profile.SelfEmployed = eligibility.OptionalYesNo{Value: eligibility.Yes, Valid: true}
	output, err := newHandler().Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, output.Features, 12)
	assert.Equal(t, 1.0, output.Features[5])
}

func TestHandler_Execute_UnknownOrder(t *testing.T) {
	input := decodeInput(t, profileVariables)
	input.FieldOrderVersion = "v9"

	_, err := newHandler().Execute(context.Background(), input)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeUnknownFieldOrder, stdErr.Code)
}

func TestInputSchema_RevalidatesProfile(t *testing.T) {
	var input Input
	err := inputSchema.Decode([]byte(`{"profile": {"gender": "Robot"}}`), &input)
	require.Error(t, err)
	assert.Equal(t, eligibility.KindValidationFailed, eligibility.KindOf(err))

	var syntaxErr *json.SyntaxError
	assert.NotErrorAs(t, err, &syntaxErr)
}
