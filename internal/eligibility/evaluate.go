package eligibility

import (
	"context"
	"fmt"
)

// Stage is a step of the per-submission pipeline
// Received -> Validated -> Assembled -> Invoked -> Verdict.
type Stage string

const (
	StageReceived  Stage = "Received"
	StageValidated Stage = "Validated"
	StageAssembled Stage = "Assembled"
	StageInvoked   Stage = "Invoked"
	StageVerdict   Stage = "Verdict"
)

// EvaluationError records the last stage reached before a failure.
type EvaluationError struct {
	Stage Stage
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed after %s: %v", e.Stage, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Evaluation is the outcome of a successful submission.
type Evaluation struct {
	Profile           ApplicantProfile
	Features          FeatureVector
	Result            PredictionResult
	FieldOrderVersion string
}

func (e Evaluation) Verdict() Verdict { return e.Result.Verdict }

// Evaluate runs validate, assemble and predict. A nil provider fails with
// ErrNoModelLoaded before raw is looked at.
func Evaluate(ctx context.Context, raw RawInputs, provider Provider, order FieldOrder, rule VerdictRule) (Evaluation, error) {
	if provider == nil {
		return Evaluation{}, &EvaluationError{Stage: StageReceived, Err: ErrNoModelLoaded}
	}

	profile, err := Validate(raw)
	if err != nil {
		return Evaluation{}, &EvaluationError{Stage: StageReceived, Err: err}
	}

	vector, err := Assemble(profile, order)
	if err != nil {
		return Evaluation{}, &EvaluationError{Stage: StageValidated, Err: err}
	}

	result, err := Predict(ctx, vector, provider, rule)
	if err != nil {
		stage := StageAssembled
		if KindOf(err) == KindUnexpectedOutputValue {
			stage = StageInvoked
		}
		return Evaluation{}, &EvaluationError{Stage: stage, Err: err}
	}

	return Evaluation{
		Profile:           profile,
		Features:          vector,
		Result:            result,
		FieldOrderVersion: order.Version(),
	}, nil
}
