package eligibility

import "fmt"

// FeatureVector is the ordered numeric input for one prediction.
type FeatureVector struct {
	version string
	values  []float64
}

// NewFeatureVector wraps values assembled elsewhere, for example a vector
// carried between workflow steps.
func NewFeatureVector(version string, values []float64) FeatureVector {
	return FeatureVector{version: version, values: append([]float64(nil), values...)}
}

// Version is the field-order version the vector was assembled with.
func (v FeatureVector) Version() string { return v.version }

func (v FeatureVector) Len() int { return len(v.values) }

// Values returns a copy of the features.
func (v FeatureVector) Values() []float64 {
	return append([]float64(nil), v.values...)
}

// Assemble emits profile fields in order. Enums become their ordinal code,
// amounts pass through and the loan duration becomes months.
func Assemble(profile ApplicantProfile, order FieldOrder) (FeatureVector, error) {
	if order.Len() == 0 {
		return FeatureVector{}, fmt.Errorf("%w: empty field order", ErrInvalidFieldOrder)
	}

	values := make([]float64, 0, order.Len())
	for _, f := range order.fields {
		value, ok := profile.featureValue(f)
		if !ok {
			return FeatureVector{}, &IncompleteProfileError{Field: f}
		}
		values = append(values, value)
	}
	return FeatureVector{version: order.version, values: values}, nil
}
