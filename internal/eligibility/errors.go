package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every failure the eligibility flow can produce.
type Kind string

const (
	KindInvalidEnumValue        Kind = "InvalidEnumValue"
	KindInvalidNumericValue     Kind = "InvalidNumericValue"
	KindMissingField            Kind = "MissingField"
	KindValidationFailed        Kind = "ValidationFailed"
	KindIncompleteProfile       Kind = "IncompleteProfile"
	KindFeatureArityMismatch    Kind = "FeatureArityMismatch"
	KindFieldOrderMismatch      Kind = "FieldOrderMismatch"
	KindNoModelLoaded           Kind = "NoModelLoaded"
	KindModelLoadError          Kind = "ModelLoadError"
	KindProviderInvocationError Kind = "ProviderInvocationError"
	KindUnexpectedOutputValue   Kind = "UnexpectedOutputValue"
	KindUnknown                 Kind = ""
)

// ErrNoModelLoaded is returned when no prediction provider is available.
var ErrNoModelLoaded = errors.New("no prediction model loaded")

// InvalidEnumValueError reports a value outside a field's enumeration.
type InvalidEnumValueError struct {
	Field Field
	Value interface{}
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("invalid value %v for %s", e.Value, e.Field)
}

// InvalidNumericValueError reports a negative, non-finite or non-numeric amount.
type InvalidNumericValueError struct {
	Field Field
	Value interface{}
}

func (e *InvalidNumericValueError) Error() string {
	return fmt.Sprintf("invalid numeric value %v for %s", e.Value, e.Field)
}

// MissingFieldError reports a required field that was not supplied.
type MissingFieldError struct {
	Field Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %s", e.Field)
}

// ValidationFailure collects every violation found in one submission.
type ValidationFailure struct {
	Violations []error
}

func (f *ValidationFailure) Error() string {
	msgs := make([]string, 0, len(f.Violations))
	for _, v := range f.Violations {
		msgs = append(msgs, v.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual violations to errors.As.
func (f *ValidationFailure) Unwrap() []error {
	return f.Violations
}

// Fields lists the violated fields in report order.
func (f *ValidationFailure) Fields() []Field {
	fields := make([]Field, 0, len(f.Violations))
	for _, v := range f.Violations {
		if field, ok := FieldOf(v); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// IncompleteProfileError is returned by Assemble when the field order needs an
// optional field the profile does not carry.
type IncompleteProfileError struct {
	Field Field
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("profile has no value for %s required by the field order", e.Field)
}

// FeatureArityMismatchError means the vector length differs from what the
// provider was trained on.
type FeatureArityMismatchError struct {
	Expected int
	Actual   int
}

func (e *FeatureArityMismatchError) Error() string {
	return fmt.Sprintf("feature arity mismatch: provider expects %d features, got %d", e.Expected, e.Actual)
}

// FieldOrderMismatchError means the vector was assembled with a different
// field order than the provider was trained on, even if the lengths agree.
type FieldOrderMismatchError struct {
	Expected string
	Actual   string
}

func (e *FieldOrderMismatchError) Error() string {
	return fmt.Sprintf("field order mismatch: provider was trained on %q, vector uses %q", e.Expected, e.Actual)
}

// ModelLoadError wraps a failure to deserialize or fetch a model artifact.
type ModelLoadError struct {
	Source string
	Cause  error
}

func (e *ModelLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("model load failed: %v", e.Cause)
	}
	return fmt.Sprintf("model load failed for %s: %v", e.Source, e.Cause)
}

func (e *ModelLoadError) Unwrap() error { return e.Cause }

// ProviderInvocationError wraps an error raised by the provider itself.
type ProviderInvocationError struct {
	Cause error
}

func (e *ProviderInvocationError) Error() string {
	return fmt.Sprintf("prediction provider failed: %v", e.Cause)
}

func (e *ProviderInvocationError) Unwrap() error { return e.Cause }

// UnexpectedOutputValueError is returned when the verdict rule cannot map the
// provider output to Approved or Denied.
type UnexpectedOutputValueError struct {
	Output []float64
	Rule   string
}

func (e *UnexpectedOutputValueError) Error() string {
	return fmt.Sprintf("unexpected provider output %v for verdict rule %s", e.Output, e.Rule)
}

// KindOf returns the kind of the first recognised failure in err's chain.
// Aggregates win over their causes: a ValidationFailure is
// KindValidationFailed and a ModelLoadError is KindModelLoadError whatever
// they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		validation *ValidationFailure
		enumErr    *InvalidEnumValueError
		numErr     *InvalidNumericValueError
		missing    *MissingFieldError
		incomplete *IncompleteProfileError
		arity      *FeatureArityMismatchError
		orderErr   *FieldOrderMismatchError
		loadErr    *ModelLoadError
		invokeErr  *ProviderInvocationError
		outputErr  *UnexpectedOutputValueError
	)

	switch {
	case errors.As(err, &validation):
		return KindValidationFailed
	case errors.Is(err, ErrNoModelLoaded):
		return KindNoModelLoaded
	case errors.As(err, &loadErr):
		return KindModelLoadError
	case errors.As(err, &enumErr):
		return KindInvalidEnumValue
	case errors.As(err, &numErr):
		return KindInvalidNumericValue
	case errors.As(err, &missing):
		return KindMissingField
	case errors.As(err, &incomplete):
		return KindIncompleteProfile
	case errors.As(err, &arity):
		return KindFeatureArityMismatch
	case errors.As(err, &orderErr):
		return KindFieldOrderMismatch
	case errors.As(err, &invokeErr):
		return KindProviderInvocationError
	case errors.As(err, &outputErr):
		return KindUnexpectedOutputValue
	}
	return KindUnknown
}

// FieldOf returns the field a violation or incompleteness error refers to.
func FieldOf(err error) (Field, bool) {
	var (
		enumErr    *InvalidEnumValueError
		numErr     *InvalidNumericValueError
		missing    *MissingFieldError
		incomplete *IncompleteProfileError
	)
	switch {
	case errors.As(err, &enumErr):
		return enumErr.Field, true
	case errors.As(err, &numErr):
		return numErr.Field, true
	case errors.As(err, &missing):
		return missing.Field, true
	case errors.As(err, &incomplete):
		return incomplete.Field, true
	}
	return "", false
}
