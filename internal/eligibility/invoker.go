package eligibility

import (
	"context"
	"fmt"
	"math"
)

// Provider is a loaded prediction model. Implementations must not retain or
// mutate the features slice.
type Provider interface {
	Predict(ctx context.Context, features []float64) ([]float64, error)
}

// ArityProvider is implemented by providers that know how many features they
// were trained on.
type ArityProvider interface {
	Provider
	ExpectedFeatureCount() int
}

// OrderedProvider is implemented by providers that know which field-order
// version they were trained on.
type OrderedProvider interface {
	Provider
	FieldOrderVersion() string
}

// Verdict is the binary eligibility outcome.
type Verdict string

const (
	VerdictApproved Verdict = "Approved"
	VerdictDenied   Verdict = "Denied"
)

// VerdictRule maps raw provider output to a Verdict.
type VerdictRule interface {
	Name() string
	Classify(output []float64) (Verdict, error)
}

// LenientVerdictRule truncates the first output to an integer: zero is
// Denied, anything else Approved. Empty, NaN and infinite outputs are rejected.
type LenientVerdictRule struct{}

func (LenientVerdictRule) Name() string { return "lenient" }

func (r LenientVerdictRule) Classify(output []float64) (Verdict, error) {
	if len(output) == 0 || math.IsNaN(output[0]) || math.IsInf(output[0], 0) {
		return "", &UnexpectedOutputValueError{Output: output, Rule: r.Name()}
	}
	if math.Trunc(output[0]) == 0 {
		return VerdictDenied, nil
	}
	return VerdictApproved, nil
}

// StrictBinaryVerdictRule only accepts exactly 0 or 1.
type StrictBinaryVerdictRule struct{}

func (StrictBinaryVerdictRule) Name() string { return "strict" }

func (r StrictBinaryVerdictRule) Classify(output []float64) (Verdict, error) {
	if len(output) > 0 {
		switch output[0] {
		case 0:
			return VerdictDenied, nil
		case 1:
			return VerdictApproved, nil
		}
	}
	return "", &UnexpectedOutputValueError{Output: output, Rule: r.Name()}
}

// VerdictRuleByName resolves "lenient" or "strict". An empty name is lenient.
func VerdictRuleByName(name string) (VerdictRule, error) {
	switch name {
	case "", LenientVerdictRule{}.Name():
		return LenientVerdictRule{}, nil
	case StrictBinaryVerdictRule{}.Name():
		return StrictBinaryVerdictRule{}, nil
	}
	return nil, fmt.Errorf("unknown verdict rule %q", name)
}

// PredictionResult is the classified provider response.
type PredictionResult struct {
	Verdict   Verdict
	RawOutput []float64
	Rule      string
}

// Predict checks arity and field order, invokes provider once and classifies the first output
// element with rule. A nil rule means LenientVerdictRule.
func Predict(ctx context.Context, vector FeatureVector, provider Provider, rule VerdictRule) (PredictionResult, error) {
	if provider == nil {
		return PredictionResult{}, ErrNoModelLoaded
	}
	if rule == nil {
		rule = LenientVerdictRule{}
	}

	if ap, ok := provider.(ArityProvider); ok {
		if expected := ap.ExpectedFeatureCount(); expected > 0 && expected != vector.Len() {
			return PredictionResult{}, &FeatureArityMismatchError{Expected: expected, Actual: vector.Len()}
		}
	}
	if op, ok := provider.(OrderedProvider); ok {
		if expected := op.FieldOrderVersion(); expected != "" && expected != vector.Version() {
			return PredictionResult{}, &FieldOrderMismatchError{Expected: expected, Actual: vector.Version()}
		}
	}

	output, err := provider.Predict(ctx, vector.Values())
	if err != nil {
		return PredictionResult{}, &ProviderInvocationError{Cause: err}
	}

	verdict, err := rule.Classify(output)
	if err != nil {
		return PredictionResult{}, err
	}

	return PredictionResult{
		Verdict:   verdict,
		RawOutput: append([]float64(nil), output...),
		Rule:      rule.Name(),
	}, nil
}
