package eligibility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_V1MatchesOriginalOrder(t *testing.T) {
	profile, err := Validate(scenarioInputs())
	require.NoError(t, err)

	vector, err := Assemble(profile, FieldOrderV1)
	require.NoError(t, err)

	assert.Equal(t, "v1", vector.Version())
	assert.Equal(t, []float64{1, 1, 0, 1, 0, 5000, 0, 100000, 360, 1, 2}, vector.Values())
}

func TestAssemble_DurationIndexMapsToMonths(t *testing.T) {
	tests := []struct {
		index  int
		months float64
	}{
		{0, 60}, {1, 180}, {2, 240}, {3, 360}, {4, 480},
	}

	for _, tt := range tests {
		profile, err := Validate(withInput(scenarioInputs(), "loanDurationMonths", tt.index))
		require.NoError(t, err)

		vector, err := Assemble(profile, FieldOrderV1)
		require.NoError(t, err)
		assert.Equal(t, tt.months, vector.Values()[8])
	}
}

func TestAssemble_LengthAndOrderFollowFieldOrder(t *testing.T) {
	raw := withInput(scenarioInputs(), "selfEmployed", "No")
	profile, err := Validate(raw)
	require.NoError(t, err)

	for _, order := range []FieldOrder{FieldOrderV1, FieldOrderV2} {
		vector, err := Assemble(profile, order)
		require.NoError(t, err)
		require.Equal(t, order.Len(), vector.Len())

		values := vector.Values()
		for i, f := range order.Fields() {
			expected, ok := profile.featureValue(f)
			require.True(t, ok)
			assert.Equal(t, expected, values[i], "position %d (%s)", i, f)
		}
	}

	reversed := FieldOrderV2.Fields()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	custom, err := NewFieldOrder("reversed", reversed)
	require.NoError(t, err)

	vector, err := Assemble(profile, custom)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 360, 100000, 0, 5000, 0, 0, 1, 0, 1, 1}, vector.Values())
}

func TestAssemble_IncompleteProfile(t *testing.T) {
	profile, err := Validate(scenarioInputs())
	require.NoError(t, err)

	_, err = Assemble(profile, FieldOrderV2)
	require.Error(t, err)

	var incomplete *IncompleteProfileError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, FieldSelfEmployed, incomplete.Field)
	assert.Equal(t, KindIncompleteProfile, KindOf(err))
}

func TestAssemble_ZeroFieldOrder(t *testing.T) {
	profile, err := Validate(scenarioInputs())
	require.NoError(t, err)

	_, err = Assemble(profile, FieldOrder{})
	assert.ErrorIs(t, err, ErrInvalidFieldOrder)
}

func TestAssemble_ValuesAreCopied(t *testing.T) {
	profile, err := Validate(scenarioInputs())
	require.NoError(t, err)
	vector, err := Assemble(profile, FieldOrderV1)
	require.NoError(t, err)

	values := vector.Values()
	values[0] = 42
	assert.Equal(t, 1.0, vector.Values()[0])
}

func TestNewFieldOrder(t *testing.T) {
	tests := []struct {
		name    string
		version string
		fields  []Field
		wantErr bool
	}{
		{"valid", "v9", []Field{FieldGender, FieldLoanAmount}, false},
		{"missing version", "", []Field{FieldGender}, true},
		{"empty", "v9", nil, true},
		{"duplicate", "v9", []Field{FieldGender, FieldGender}, true},
		{"free text", "v9", []Field{FieldFullName}, true},
		{"unknown", "v9", []Field{"creditScore"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewFieldOrder(tt.version, tt.fields)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFieldOrder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, order.Version())
			assert.Equal(t, tt.fields, order.Fields())
		})
	}
}

func TestBuiltinFieldOrders(t *testing.T) {
	orders := BuiltinFieldOrders()
	assert.Equal(t, []string{"v1", "v2"}, orders.Versions())

	v1, err := orders.Get("v1")
	require.NoError(t, err)
	assert.Equal(t, 11, v1.Len())

	v2, err := orders.Get("v2")
	require.NoError(t, err)
	assert.Equal(t, 12, v2.Len())

	_, err = orders.Get("v7")
	assert.ErrorIs(t, err, ErrInvalidFieldOrder)
}
