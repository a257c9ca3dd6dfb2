// internal/workers/eligibility/assemble-features/models.go
package assemblefeatures

import "loan-eligibility/internal/eligibility"

type Input struct {
	Profile           eligibility.ApplicantProfile `json:"profile"`
	FieldOrderVersion string                       `json:"fieldOrderVersion,omitempty"`
}

type Output struct {
	Features          []float64 `json:"features"`
	FeatureNames      []string  `json:"featureNames"`
	FieldOrderVersion string    `json:"fieldOrderVersion"`
}
