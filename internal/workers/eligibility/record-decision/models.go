// internal/workers/eligibility/record-decision/models.go
package recorddecision

import "time"

type Input struct {
	SessionID         string    `json:"sessionId"`
	AccountNumber     string    `json:"accountNumber"`
	FullName          string    `json:"fullName"`
	Verdict           string    `json:"verdict"`
	VerdictRule       string    `json:"verdictRule"`
	FieldOrderVersion string    `json:"fieldOrderVersion"`
	Features          []float64 `json:"features"`
	RawOutput         []float64 `json:"rawOutput"`
	ModelName         string    `json:"modelName,omitempty"`
	ModelVersion      string    `json:"modelVersion,omitempty"`
	ModelChecksum     string    `json:"modelChecksum,omitempty"`
}

type Output struct {
	DecisionID string    `json:"decisionId"`
	RecordedAt time.Time `json:"recordedAt"`
	Indexed    bool      `json:"indexed"`
}
