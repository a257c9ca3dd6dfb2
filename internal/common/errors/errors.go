// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"loan-eligibility/internal/eligibility"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Eligibility pipeline errors
const (
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeIncompleteProfile      ErrorCode = "INCOMPLETE_PROFILE"
	ErrCodeFeatureArityMismatch   ErrorCode = "FEATURE_ARITY_MISMATCH"
	ErrCodeUnknownFieldOrder      ErrorCode = "UNKNOWN_FIELD_ORDER"
	ErrCodeFieldOrderMismatch     ErrorCode = "FIELD_ORDER_MISMATCH"
	ErrCodeNoModelLoaded          ErrorCode = "NO_MODEL_LOADED"
	ErrCodeModelLoadFailed        ErrorCode = "MODEL_LOAD_FAILED"
	ErrCodeModelLoadTimeout       ErrorCode = "MODEL_LOAD_TIMEOUT"
	ErrCodeProviderInvocation     ErrorCode = "PROVIDER_INVOCATION_FAILED"
	ErrCodeUnexpectedOutputValue  ErrorCode = "UNEXPECTED_OUTPUT_VALUE"
	ErrCodeSessionStoreFailed     ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeDatabaseConnection     ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchIndexFailed      ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError reports job variables that could not be decoded.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details)
}

// NewUnknownFieldOrderError reports a field order version missing from the registry.
func NewUnknownFieldOrderError(version string) *StandardError {
	return newError(ErrCodeUnknownFieldOrder, "Unknown field order version", fmt.Sprintf("fieldOrderVersion: %s", version))
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session model store error", err.Error())
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnection, "Database connection error", err.Error())
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Failed to record eligibility decision", err.Error())
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Failed to index eligibility decision",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()))
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()))
}

// FromEligibility maps an error from the eligibility pipeline to its code.
// Validation failures carry the offending fields in Metadata["fields"].
func FromEligibility(err error) *StandardError {
	if err == nil {
		return nil
	}
	var std *StandardError
	if stderrors.As(err, &std) {
		return std
	}

	var stdErr *StandardError
	switch eligibility.KindOf(err) {
	case eligibility.KindValidationFailed, eligibility.KindInvalidEnumValue,
		eligibility.KindInvalidNumericValue, eligibility.KindMissingField:
		stdErr = newError(ErrCodeValidationFailed, "Applicant inputs failed validation", err.Error())
		stdErr.Metadata = map[string]interface{}{"fields": validationFields(err)}
	case eligibility.KindIncompleteProfile:
		stdErr = newError(ErrCodeIncompleteProfile, "Profile is missing a field required by the model", err.Error())
		if f, ok := eligibility.FieldOf(err); ok {
			stdErr.Metadata = map[string]interface{}{"field": string(f)}
		}
	case eligibility.KindFeatureArityMismatch:
		stdErr = newError(ErrCodeFeatureArityMismatch, "Feature vector does not match the model", err.Error())
	case eligibility.KindFieldOrderMismatch:
		stdErr = newError(ErrCodeFieldOrderMismatch, "Feature vector was assembled for a different model", err.Error())
	case eligibility.KindNoModelLoaded:
		stdErr = newError(ErrCodeNoModelLoaded, "No prediction model loaded", err.Error())
	case eligibility.KindModelLoadError:
		if strings.Contains(err.Error(), "timed out") {
			stdErr = newError(ErrCodeModelLoadTimeout, "Model load timed out", err.Error())
		} else {
			stdErr = newError(ErrCodeModelLoadFailed, "Model artifact could not be loaded", err.Error())
		}
	case eligibility.KindProviderInvocationError:
		stdErr = newError(ErrCodeProviderInvocation, "Prediction provider failed", err.Error())
	case eligibility.KindUnexpectedOutputValue:
		stdErr = newError(ErrCodeUnexpectedOutputValue, "Prediction output could not be classified", err.Error())
	default:
		stdErr = newError(ErrCodeInternal, "Unexpected error", err.Error())
	}

	var evalErr *eligibility.EvaluationError
	if stderrors.As(err, &evalErr) {
		if stdErr.Metadata == nil {
			stdErr.Metadata = map[string]interface{}{}
		}
		stdErr.Metadata["stage"] = string(evalErr.Stage)
	}
	return stdErr
}

func validationFields(err error) []string {
	var failure *eligibility.ValidationFailure
	if stderrors.As(err, &failure) {
		fields := failure.Fields()
		out := make([]string, 0, len(fields))
		for _, f := range fields {
			out = append(out, string(f))
		}
		return out
	}
	if f, ok := eligibility.FieldOf(err); ok {
		return []string{string(f)}
	}
	return nil
}

// ==========================
// 4. BPMN Mapping
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderInvocation,
		ErrCodeSessionStoreFailed,
		ErrCodeDatabaseConnection,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeModelLoadTimeout:
		return 2
	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError into the form thrown to the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"errorTimestamp": stdErr.Timestamp.Format(time.RFC3339),
		"errorCategory":  GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MODEL") || strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "OUTPUT"):
		return "MODEL"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "SESSION"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "ARITY") || strings.Contains(codeStr, "FIELD_ORDER"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
