package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	commonhttp "loan-eligibility/internal/common/http"
)

// logisticProvider scores a linear model and returns the class label 0 or 1.
type logisticProvider struct {
	weights   []float64
	intercept float64
	threshold float64
}

func newLogisticProvider(p LogisticParams) *logisticProvider {
	threshold := p.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	return &logisticProvider{
		weights:   append([]float64(nil), p.Weights...),
		intercept: p.Intercept,
		threshold: threshold,
	}
}

func (l *logisticProvider) Predict(_ context.Context, features []float64) ([]float64, error) {
	if len(features) != len(l.weights) {
		return nil, fmt.Errorf("logistic model has %d weights, got %d features", len(l.weights), len(features))
	}
	z := l.intercept
	for i, x := range features {
		z += l.weights[i] * x
	}
	if 1/(1+math.Exp(-z)) >= l.threshold {
		return []float64{1}, nil
	}
	return []float64{0}, nil
}

// treeProvider walks a flattened decision tree.
type treeProvider struct {
	nodes []TreeNode
}

func newTreeProvider(p TreeParams, featureCount int) (*treeProvider, error) {
	for i, n := range p.Nodes {
		if n.Value != nil {
			continue
		}
		if n.Feature < 0 || (featureCount > 0 && n.Feature >= featureCount) {
			return nil, fmt.Errorf("node %d splits on feature %d outside 0..%d", i, n.Feature, featureCount-1)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(p.Nodes) {
				return nil, fmt.Errorf("node %d has child %d; children must follow their parent", i, child)
			}
		}
	}
	return &treeProvider{nodes: append([]TreeNode(nil), p.Nodes...)}, nil
}

func (t *treeProvider) Predict(_ context.Context, features []float64) ([]float64, error) {
	i := 0
	for {
		n := t.nodes[i]
		if n.Value != nil {
			return []float64{*n.Value}, nil
		}
		if n.Feature >= len(features) {
			return nil, fmt.Errorf("tree reads feature %d, got %d features", n.Feature, len(features))
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// remoteProvider asks an HTTP model server for a prediction.
type remoteProvider struct {
	endpoint string
	client   *commonhttp.Client
}

type remoteRequest struct {
	Instances [][]float64 `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
}

var errEmptyRemoteResponse = errors.New("model server returned no predictions")

func newRemoteProvider(p RemoteParams, fallback *commonhttp.Client) *remoteProvider {
	client := fallback
	if p.TimeoutMs > 0 || client == nil {
		timeout := time.Duration(p.TimeoutMs) * time.Millisecond
		if timeout == 0 {
			timeout = 5 * time.Second
		}
		client = commonhttp.NewClient(timeout)
	}
	return &remoteProvider{endpoint: p.Endpoint, client: client}
}

func (r *remoteProvider) Predict(ctx context.Context, features []float64) ([]float64, error) {
	var resp remoteResponse
	req := remoteRequest{Instances: [][]float64{features}}
	if err := r.client.PostJSON(ctx, r.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("remote model %s: %w", r.endpoint, err)
	}
	if len(resp.Predictions) == 0 {
		return nil, errEmptyRemoteResponse
	}
	return resp.Predictions, nil
}
