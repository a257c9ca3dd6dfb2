package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionSchema = `{
  "type": "object",
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "channel": {"type": "string", "enum": ["sms", "email"]},
    "retries": {"type": "number", "minimum": 0}
  },
  "required": ["sessionId"],
  "additionalProperties": false
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile("session", sessionSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		valid     bool
		wantField string
		wantCode  string
	}{
		{"valid", map[string]interface{}{"sessionId": "s-1", "channel": "sms"}, true, "", ""},
		{"missing required", map[string]interface{}{"channel": "sms"}, false, "sessionId", "REQUIRED_FIELD_MISSING"},
		{"bad enum", map[string]interface{}{"sessionId": "s-1", "channel": "fax"}, false, "channel", "INVALID_ENUM_VALUE"},
		{"wrong type", map[string]interface{}{"sessionId": 12}, false, "sessionId", "INVALID_TYPE"},
		{"below minimum", map[string]interface{}{"sessionId": "s", "retries": -1}, false, "retries", "MINIMUM_VIOLATION"},
		{"extra field", map[string]interface{}{"sessionId": "s", "debug": true}, false, "(root)", "EXTRA_FIELD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)

			if tt.valid {
				assert.Empty(t, result.Errors)
				assert.Empty(t, result.Error())
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.wantField, result.Errors[0].Field)
			assert.Equal(t, tt.wantCode, result.Errors[0].Code)
			assert.NotEmpty(t, result.Messages())
		})
	}
}

func TestSchema_ValidateBytes(t *testing.T) {
	schema := MustCompile("session", sessionSchema)

	result, err := schema.ValidateBytes([]byte(`{"sessionId":"abc"}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = schema.ValidateBytes([]byte(`{not json`))
	assert.Error(t, err)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile("broken", `{`) })
}

func TestSchema_Decode(t *testing.T) {
	s := MustCompile("decode", `{
		"type": "object",
		"required": ["sessionId"],
		"properties": {"sessionId": {"type": "string", "minLength": 1}}
	}`)

	var out struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, s.Decode([]byte(`{"sessionId":"s-1","other":true}`), &out))
	assert.Equal(t, "s-1", out.SessionID)

	err := s.Decode([]byte(`{}`), &out)
	var result *ValidationResult
	require.ErrorAs(t, err, &result)
	assert.Equal(t, "sessionId", result.Errors[0].Field)

	assert.Error(t, s.Decode([]byte(`not json`), &out))
}
