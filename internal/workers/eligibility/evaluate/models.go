// internal/workers/eligibility/evaluate/models.go
package evaluate

import "loan-eligibility/internal/eligibility"

type Input struct {
	SessionID         string                `json:"sessionId"`
	Applicant         eligibility.RawInputs `json:"applicant"`
	FieldOrderVersion string                `json:"fieldOrderVersion,omitempty"`
}

type Output struct {
	Verdict           string                       `json:"verdict"`
	Approved          bool                         `json:"approved"`
	Message           string                       `json:"message"`
	AccountNumber     string                       `json:"accountNumber"`
	FullName          string                       `json:"fullName"`
	Profile           eligibility.ApplicantProfile `json:"profile"`
	Features          []float64                    `json:"features"`
	FieldOrderVersion string                       `json:"fieldOrderVersion"`
	RawOutput         []float64                    `json:"rawOutput"`
	VerdictRule       string                       `json:"verdictRule"`
	ModelName         string                       `json:"modelName"`
	ModelVersion      string                       `json:"modelVersion"`
	ModelChecksum     string                       `json:"modelChecksum"`
}
