// internal/workers/eligibility/predict-verdict/models.go
package predictverdict

type Input struct {
	SessionID         string    `json:"sessionId"`
	Features          []float64 `json:"features"`
	FieldOrderVersion string    `json:"fieldOrderVersion"`
}

type Output struct {
	Verdict       string    `json:"verdict"`
	Approved      bool      `json:"approved"`
	RawOutput     []float64 `json:"rawOutput"`
	VerdictRule   string    `json:"verdictRule"`
	ModelName     string    `json:"modelName"`
	ModelVersion  string    `json:"modelVersion"`
	ModelChecksum string    `json:"modelChecksum"`
}
