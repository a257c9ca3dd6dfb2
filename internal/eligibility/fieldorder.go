package eligibility

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidFieldOrder is wrapped by NewFieldOrder for any rejected order.
var ErrInvalidFieldOrder = errors.New("invalid field order")

// modelFields are the profile attributes a field order may reference.
var modelFields = map[Field]bool{
	FieldGender:                   true,
	FieldMaritalStatus:            true,
	FieldDependents:               true,
	FieldEducation:                true,
	FieldEmploymentStatus:         true,
	FieldSelfEmployed:             true,
	FieldPropertyArea:             true,
	FieldCreditScoreBand:          true,
	FieldLoanHistory:              true,
	FieldMonthlyIncome:            true,
	FieldCoApplicantMonthlyIncome: true,
	FieldLoanAmount:               true,
	FieldLoanDurationMonths:       true,
}

// FieldOrder is the versioned sequence of fields a provider was trained on.
// The zero value is not usable; build one with NewFieldOrder.
type FieldOrder struct {
	version string
	fields  []Field
}

// NewFieldOrder validates fields and returns an immutable order.
func NewFieldOrder(version string, fields []Field) (FieldOrder, error) {
	if version == "" {
		return FieldOrder{}, fmt.Errorf("%w: version is required", ErrInvalidFieldOrder)
	}
	if len(fields) == 0 {
		return FieldOrder{}, fmt.Errorf("%w: %s has no fields", ErrInvalidFieldOrder, version)
	}
	seen := make(map[Field]bool, len(fields))
	for _, f := range fields {
		if !modelFields[f] {
			return FieldOrder{}, fmt.Errorf("%w: %s references unknown model field %q", ErrInvalidFieldOrder, version, f)
		}
		if seen[f] {
			return FieldOrder{}, fmt.Errorf("%w: %s lists %s twice", ErrInvalidFieldOrder, version, f)
		}
		seen[f] = true
	}
	return FieldOrder{version: version, fields: append([]Field(nil), fields...)}, nil
}

func mustFieldOrder(version string, fields ...Field) FieldOrder {
	o, err := NewFieldOrder(version, fields)
	if err != nil {
		panic(err)
	}
	return o
}

func (o FieldOrder) Version() string { return o.version }

func (o FieldOrder) Len() int { return len(o.fields) }

// Fields returns a copy of the ordered field list.
func (o FieldOrder) Fields() []Field {
	return append([]Field(nil), o.fields...)
}

// Built-in orders. v1 is the 11-feature order of the original loan model;
// v2 adds selfEmployed after employmentStatus.
var (
	FieldOrderV1 = mustFieldOrder("v1",
		FieldGender,
		FieldMaritalStatus,
		FieldDependents,
		FieldEducation,
		FieldEmploymentStatus,
		FieldMonthlyIncome,
		FieldCoApplicantMonthlyIncome,
		FieldLoanAmount,
		FieldLoanDurationMonths,
		FieldCreditScoreBand,
		FieldPropertyArea,
	)

	FieldOrderV2 = mustFieldOrder("v2",
		FieldGender,
		FieldMaritalStatus,
		FieldDependents,
		FieldEducation,
		FieldEmploymentStatus,
		FieldSelfEmployed,
		FieldMonthlyIncome,
		FieldCoApplicantMonthlyIncome,
		FieldLoanAmount,
		FieldLoanDurationMonths,
		FieldCreditScoreBand,
		FieldPropertyArea,
	)
)

// FieldOrders is a lookup of orders by version.
type FieldOrders map[string]FieldOrder

// BuiltinFieldOrders returns a fresh set containing v1 and v2.
func BuiltinFieldOrders() FieldOrders {
	return FieldOrders{
		FieldOrderV1.Version(): FieldOrderV1,
		FieldOrderV2.Version(): FieldOrderV2,
	}
}

// Get returns the order registered under version.
func (s FieldOrders) Get(version string) (FieldOrder, error) {
	o, ok := s[version]
	if !ok {
		return FieldOrder{}, fmt.Errorf("%w: version %q is not registered", ErrInvalidFieldOrder, version)
	}
	return o, nil
}

// Versions lists the registered versions sorted.
func (s FieldOrders) Versions() []string {
	versions := make([]string, 0, len(s))
	for v := range s {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
