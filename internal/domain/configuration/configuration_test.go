package configuration

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKeyField = `{
	"api_key": {
		"type": "str",
		"display": "textbox",
		"label": "API Key",
		"order": 1,
		"required": true,
		"sensitive": true,
		"ui_restrictions": [],
		"validations": [],
		"tooltip": "Key issued by the upstream service",
		"value": "secret-123",
		"default_value": null
	}
}`

func TestDecodeSchema_AcceptsFullDescriptor(t *testing.T) {
	schema, err := DecodeSchema([]byte(apiKeyField))
	require.NoError(t, err)
	require.Len(t, schema, 1)

	field := schema["api_key"]
	assert.Equal(t, FieldTypeString, field.Type)
	assert.Equal(t, DisplayTextbox, field.Display)
	assert.Equal(t, "API Key", field.Label)
	assert.Equal(t, 1, field.Order)
	assert.True(t, field.Required)
	assert.True(t, field.Sensitive)
	assert.Empty(t, field.Validations)
	assert.Equal(t, "secret-123", field.Value)
	assert.JSONEq(t, `"Key issued by the upstream service"`, string(field.Tooltip))
	// default_value was explicit null and must stay that way.
	assert.JSONEq(t, `null`, string(field.DefaultValue))
}

func TestDecodeSchema_MissingRequiredAttributes(t *testing.T) {
	base := map[string]any{
		"type":            "str",
		"display":         "textbox",
		"label":           "Host",
		"order":           1,
		"required":        true,
		"sensitive":       false,
		"ui_restrictions": []string{},
		"validations":     []any{},
	}

	for _, attr := range requiredAttributes {
		t.Run("missing "+attr, func(t *testing.T) {
			field := make(map[string]any, len(base))
			for k, v := range base {
				if k == attr {
					continue
				}
				field[k] = v
			}
			payload, err := json.Marshal(map[string]any{"host": field})
			require.NoError(t, err)

			_, err = DecodeSchema(payload)
			require.Error(t, err)

			var missing *MissingAttributeError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, "host", missing.Field)
			assert.Equal(t, attr, missing.Attribute)
		})
	}
}

func TestDecodeSchema_NullRequiredAttributeCountsAsMissing(t *testing.T) {
	payload := `{
		"host": {
			"type": "str",
			"display": "textbox",
			"label": null,
			"order": 1,
			"required": true,
			"sensitive": false,
			"ui_restrictions": [],
			"validations": []
		}
	}`

	_, err := DecodeSchema([]byte(payload))
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "label", missing.Attribute)
}

func TestDecodeSchema_UnknownFieldType(t *testing.T) {
	payload := `{
		"port": {
			"type": "number",
			"display": "numeric",
			"label": "Port",
			"order": 1,
			"required": true,
			"sensitive": false,
			"ui_restrictions": [],
			"validations": []
		}
	}`

	_, err := DecodeSchema([]byte(payload))
	var unknown *UnknownFieldTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "port", unknown.Field)
	assert.Equal(t, "number", unknown.Value)
}

func TestDecodeSchema_UnknownDisplayType(t *testing.T) {
	payload := `{
		"port": {
			"type": "int",
			"display": "not_a_type",
			"label": "Port",
			"order": 1,
			"required": true,
			"sensitive": false,
			"ui_restrictions": [],
			"validations": []
		}
	}`

	_, err := DecodeSchema([]byte(payload))
	var unknown *UnknownDisplayTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "port", unknown.Field)
	assert.Equal(t, "not_a_type", unknown.Value)
}

func TestDecodeSchema_UnknownConstraintType(t *testing.T) {
	payload := `{
		"port": {
			"type": "int",
			"display": "numeric",
			"label": "Port",
			"order": 1,
			"required": true,
			"sensitive": false,
			"ui_restrictions": [],
			"validations": [{"type": "unknown_constraint", "constraint": 0}]
		}
	}`

	_, err := DecodeSchema([]byte(payload))
	var unknown *UnknownConstraintTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "port", unknown.Field)
	assert.Equal(t, "unknown_constraint", unknown.Value)
}

func TestDecodeSchema_DeterministicFirstError(t *testing.T) {
	// Two malformed fields; the one earliest in name order wins every time.
	payload := `{
		"b_field": {"type": "bogus"},
		"a_field": {}
	}`

	for range 5 {
		_, err := DecodeSchema([]byte(payload))
		var missing *MissingAttributeError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "a_field", missing.Field)
		assert.Equal(t, "type", missing.Attribute)
	}
}

func TestDecodeSchema_TooltipTriState(t *testing.T) {
	payload := `{
		"host": {
			"type": "str",
			"display": "textbox",
			"label": "Host",
			"order": 1,
			"required": true,
			"sensitive": false,
			"ui_restrictions": [],
			"validations": [],
			"tooltip": null
		},
		"port": {
			"type": "int",
			"display": "numeric",
			"label": "Port",
			"order": 2,
			"required": true,
			"sensitive": false,
			"ui_restrictions": [],
			"validations": []
		}
	}`

	schema, err := DecodeSchema([]byte(payload))
	require.NoError(t, err)

	// Explicit null survives.
	host, err := json.Marshal(schema["host"])
	require.NoError(t, err)
	var hostMap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(host, &hostMap))
	raw, ok := hostMap["tooltip"]
	require.True(t, ok, "explicit null tooltip must be serialized")
	assert.JSONEq(t, `null`, string(raw))

	// Absent stays absent.
	port, err := json.Marshal(schema["port"])
	require.NoError(t, err)
	var portMap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(port, &portMap))
	_, ok = portMap["tooltip"]
	assert.False(t, ok, "absent tooltip must not appear")
}

func TestDecodeSchema_RoundTrip(t *testing.T) {
	payload := `{
		"region": {
			"type": "str",
			"display": "dropdown",
			"label": "Region",
			"order": 3,
			"required": false,
			"sensitive": false,
			"options": [
				{"label": "US East", "value": "us-east-1"},
				{"label": "EU West", "value": "eu-west-1"}
			],
			"depends_on": [{"field": "use_region", "value": true}],
			"ui_restrictions": ["advanced"],
			"validations": [
				{"type": "included_in", "constraint": ["us-east-1", "eu-west-1"]},
				{"type": "regex", "constraint": "^[a-z-]+[0-9]$"}
			],
			"value": "us-east-1"
		}
	}`

	schema, err := DecodeSchema([]byte(payload))
	require.NoError(t, err)

	out, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestValidations_PreserveOrder(t *testing.T) {
	payload := `[
		{"type": "greater_than", "constraint": 0},
		{"type": "less_than", "constraint": 65536},
		{"type": "included_in", "constraint": [80, 443, 8080]}
	]`

	var v Validations
	require.NoError(t, json.Unmarshal([]byte(payload), &v))
	require.Len(t, v, 3)
	assert.Equal(t, ConstraintGreaterThan, v[0].Type())
	assert.Equal(t, ConstraintLessThan, v[1].Type())
	assert.Equal(t, ConstraintIncludedIn, v[2].Type())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestSchema_Validate(t *testing.T) {
	schema := Schema{
		"host": {Type: FieldTypeString, Display: DisplayTextbox, Label: "Host"},
	}
	require.NoError(t, schema.Validate())

	schema["bad"] = Field{Type: FieldType("wat"), Display: DisplayTextbox}
	err := schema.Validate()
	var unknown *UnknownFieldTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bad", unknown.Field)
}

func TestFieldType_Valid(t *testing.T) {
	assert.True(t, FieldTypeString.Valid())
	assert.True(t, FieldTypeInteger.Valid())
	assert.True(t, FieldTypeList.Valid())
	assert.True(t, FieldTypeBoolean.Valid())
	assert.False(t, FieldType("string").Valid())
}

func TestDisplayType_Valid(t *testing.T) {
	assert.True(t, DisplayTextbox.Valid())
	assert.True(t, DisplayTextarea.Valid())
	assert.True(t, DisplayNumeric.Valid())
	assert.True(t, DisplayToggle.Valid())
	assert.True(t, DisplayDropdown.Valid())
	assert.False(t, DisplayType("checkbox").Valid())
}

func TestDecodeSchema_MalformedJSON(t *testing.T) {
	_, err := DecodeSchema([]byte(`{"host": "not an object"}`))
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*MissingAttributeError)))
}
