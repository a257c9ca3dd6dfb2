package model

import (
	"context"
	"fmt"

	commonhttp "loan-eligibility/internal/common/http"
	"loan-eligibility/internal/eligibility"
)

// Metadata describes a loaded artifact.
type Metadata struct {
	Name                 string `json:"name"`
	Version              string `json:"version"`
	Kind                 Kind   `json:"kind"`
	FieldOrderVersion    string `json:"fieldOrderVersion"`
	ExpectedFeatureCount int    `json:"expectedFeatureCount"`
	Checksum             string `json:"checksum"`
}

// Handle is a read-only loaded model. It satisfies eligibility.ArityProvider
// and eligibility.OrderedProvider and is shared by every evaluation in its session.
type Handle struct {
	provider eligibility.Provider
	meta     Metadata
	order    eligibility.FieldOrder
}

func (h *Handle) Predict(ctx context.Context, features []float64) ([]float64, error) {
	if h == nil || h.provider == nil {
		return nil, eligibility.ErrNoModelLoaded
	}
	return h.provider.Predict(ctx, features)
}

func (h *Handle) ExpectedFeatureCount() int { return h.meta.ExpectedFeatureCount }

func (h *Handle) FieldOrderVersion() string { return h.meta.FieldOrderVersion }

func (h *Handle) Metadata() Metadata { return h.meta }

// FieldOrder is the order the artifact declares it was trained on.
func (h *Handle) FieldOrder() eligibility.FieldOrder { return h.order }

// Builder decodes artifacts into handles.
type Builder struct {
	orders     eligibility.FieldOrders
	httpClient *commonhttp.Client
}

// NewBuilder resolves artifact field orders against orders. httpClient is
// used by remote artifacts without their own timeout and may be nil.
func NewBuilder(orders eligibility.FieldOrders, httpClient *commonhttp.Client) *Builder {
	if orders == nil {
		orders = eligibility.BuiltinFieldOrders()
	}
	return &Builder{orders: orders, httpClient: httpClient}
}

// Orders exposes the field orders the builder resolves against.
func (b *Builder) Orders() eligibility.FieldOrders { return b.orders }

// Build decodes data and checks the artifact's arity against its declared
// field order. Every failure is an *eligibility.ModelLoadError.
func (b *Builder) Build(source string, data []byte) (*Handle, error) {
	fail := func(err error) (*Handle, error) {
		return nil, &eligibility.ModelLoadError{Source: source, Cause: err}
	}

	artifact, err := DecodeArtifact(data)
	if err != nil {
		return fail(err)
	}

	order, err := b.orders.Get(artifact.FieldOrderVersion)
	if err != nil {
		return fail(err)
	}

	provider, arity, err := b.newProvider(artifact, order.Len())
	if err != nil {
		return fail(err)
	}
	if arity != order.Len() {
		return fail(&eligibility.FeatureArityMismatchError{Expected: arity, Actual: order.Len()})
	}

	return &Handle{
		provider: provider,
		order:    order,
		meta: Metadata{
			Name:                 artifact.Name,
			Version:              artifact.Version,
			Kind:                 artifact.Kind,
			FieldOrderVersion:    order.Version(),
			ExpectedFeatureCount: arity,
			Checksum:             Checksum(data),
		},
	}, nil
}

// newProvider returns the provider and the feature count it was trained on.
// A declared expectedFeatureCount must agree with the parameters. An
// undeclared tree is taken to use every feature of its field order, since
// a tree need not split on all of them.
func (b *Builder) newProvider(a *Artifact, orderLen int) (eligibility.Provider, int, error) {
	declared := a.ExpectedFeatureCount

	switch a.Kind {
	case KindLogisticRegression:
		n := len(a.Logistic.Weights)
		if declared != 0 && declared != n {
			return nil, 0, fmt.Errorf("expectedFeatureCount %d disagrees with %d weights", declared, n)
		}
		return newLogisticProvider(*a.Logistic), n, nil

	case KindDecisionTree:
		if declared == 0 {
			declared = orderLen
		}
		tree, err := newTreeProvider(*a.Tree, declared)
		if err != nil {
			return nil, 0, err
		}
		return tree, declared, nil

	case KindRemote:
		if declared == 0 {
			return nil, 0, fmt.Errorf("remote artifacts must declare expectedFeatureCount")
		}
		return newRemoteProvider(*a.Remote, b.httpClient), declared, nil
	}
	return nil, 0, fmt.Errorf("unsupported model kind %q", a.Kind)
}
