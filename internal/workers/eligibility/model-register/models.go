// internal/workers/eligibility/model-register/models.go
package modelregister

type Input struct {
	SessionID string `json:"sessionId"`
	Source    string `json:"modelSource,omitempty"`
	Key       string `json:"modelKey"`
}

type Output struct {
	ModelLoaded          bool   `json:"modelLoaded"`
	ModelName            string `json:"modelName"`
	ModelVersion         string `json:"modelVersion"`
	ModelKind            string `json:"modelKind"`
	ModelChecksum        string `json:"modelChecksum"`
	FieldOrderVersion    string `json:"fieldOrderVersion"`
	ExpectedFeatureCount int    `json:"expectedFeatureCount"`
}
