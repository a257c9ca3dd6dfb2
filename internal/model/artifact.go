// Package model turns serialized model artifacts into prediction providers
// and keeps the provider uploaded for each session.
package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"loan-eligibility/internal/common/validation"
)

// Kind selects the provider implementation for an artifact.
type Kind string

const (
	KindLogisticRegression Kind = "logistic_regression"
	KindDecisionTree       Kind = "decision_tree"
	KindRemote             Kind = "remote"
)

// Artifact is the serialized model document. Exactly one of the parameter
// blocks matching Kind must be set.
type Artifact struct {
	Kind                 Kind            `json:"kind"`
	Name                 string          `json:"name"`
	Version              string          `json:"version"`
	FieldOrderVersion    string          `json:"fieldOrderVersion"`
	ExpectedFeatureCount int             `json:"expectedFeatureCount,omitempty"`
	Logistic             *LogisticParams `json:"logistic,omitempty"`
	Tree                 *TreeParams     `json:"tree,omitempty"`
	Remote               *RemoteParams   `json:"remote,omitempty"`
}

type LogisticParams struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	// Threshold on the positive-class probability; 0 means 0.5.
	Threshold float64 `json:"threshold,omitempty"`
}

// TreeParams is a flattened binary decision tree rooted at Nodes[0].
type TreeParams struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is a split when Value is nil, a leaf otherwise. A split sends
// features[Feature] <= Threshold to Left.
type TreeNode struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      int      `json:"left"`
	Right     int      `json:"right"`
	Value     *float64 `json:"value,omitempty"`
}

// RemoteParams points at an HTTP model server.
type RemoteParams struct {
	Endpoint  string `json:"endpoint"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

var artifactSchema = validation.MustCompile("model-artifact", `{
  "type": "object",
  "properties": {
    "kind": {"type": "string", "enum": ["logistic_regression", "decision_tree", "remote"]},
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string", "minLength": 1},
    "fieldOrderVersion": {"type": "string", "minLength": 1},
    "expectedFeatureCount": {"type": "integer", "minimum": 0},
    "logistic": {
      "type": "object",
      "properties": {
        "weights": {"type": "array", "items": {"type": "number"}, "minItems": 1},
        "intercept": {"type": "number"},
        "threshold": {"type": "number", "minimum": 0, "maximum": 1}
      },
      "required": ["weights"]
    },
    "tree": {
      "type": "object",
      "properties": {
        "nodes": {"type": "array", "minItems": 1}
      },
      "required": ["nodes"]
    },
    "remote": {
      "type": "object",
      "properties": {
        "endpoint": {"type": "string", "pattern": "^https?://"},
        "timeoutMs": {"type": "integer", "minimum": 0}
      },
      "required": ["endpoint"]
    }
  },
  "required": ["kind", "name", "version", "fieldOrderVersion"]
}`)

// DecodeArtifact validates data against the artifact schema and decodes it.
func DecodeArtifact(data []byte) (*Artifact, error) {
	result, err := artifactSchema.ValidateBytes(data)
	if err != nil {
		return nil, fmt.Errorf("artifact is not valid JSON: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("artifact does not match schema: %s", result.Error())
	}

	var a Artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}

	switch a.Kind {
	case KindLogisticRegression:
		if a.Logistic == nil {
			return nil, fmt.Errorf("%s artifact has no logistic block", a.Kind)
		}
	case KindDecisionTree:
		if a.Tree == nil {
			return nil, fmt.Errorf("%s artifact has no tree block", a.Kind)
		}
	case KindRemote:
		if a.Remote == nil {
			return nil, fmt.Errorf("%s artifact has no remote block", a.Kind)
		}
	}
	return &a, nil
}

// Checksum identifies artifact bytes in caches and decision records.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
