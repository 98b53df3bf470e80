package model

import (
	"encoding/json"
	"testing"

	"github.com/seatrove/syncdock/internal/domain/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnector(t *testing.T) {
	raw := []byte(`{
		"index_name": "search-content",
		"language": "de",
		"service_type": "sharepoint",
		"status": "connected",
		"pipeline": {
			"extract_binary_content": true,
			"name": "ent-search-generic-ingestion",
			"reduce_whitespace": true,
			"run_ml_inference": false
		},
		"configuration": {},
		"filtering": [{"active": {"rules": []}, "domain": "DEFAULT"}]
	}`)

	c, err := ParseConnector("connector-one", raw)
	require.NoError(t, err)
	assert.Equal(t, "connector-one", c.ID)
	assert.Equal(t, "search-content", c.IndexName)
	assert.Equal(t, "de", c.Language)
	assert.Equal(t, "sharepoint", c.ServiceType)
	assert.Equal(t, ConnectorStatusConnected, c.Status)
	require.NotNil(t, c.Pipeline)
	assert.Equal(t, "ent-search-generic-ingestion", c.Pipeline.Name)
	require.Len(t, c.Filtering, 1)
	assert.Equal(t, "DEFAULT", c.Filtering[0].Domain)
}

func TestFirstActiveFilteringRules(t *testing.T) {
	t.Run("nil filtering", func(t *testing.T) {
		assert.Nil(t, FirstActiveFilteringRules(nil))
	})

	t.Run("empty filtering", func(t *testing.T) {
		assert.Nil(t, FirstActiveFilteringRules([]ConnectorFiltering{}))
	})

	t.Run("single entry", func(t *testing.T) {
		active := json.RawMessage(`{"rules":[{"id":"DEFAULT"}]}`)
		rules := FirstActiveFilteringRules([]ConnectorFiltering{{Active: active}})
		assert.JSONEq(t, string(active), string(rules))
	})

	t.Run("multiple entries use only the first", func(t *testing.T) {
		first := json.RawMessage(`{"rules":[{"id":"first"}]}`)
		second := json.RawMessage(`{"rules":[{"id":"second"}]}`)
		rules := FirstActiveFilteringRules([]ConnectorFiltering{
			{Active: first},
			{Active: second},
		})
		assert.JSONEq(t, string(first), string(rules))
	})
}

func TestConnector_Snapshot(t *testing.T) {
	c := &Connector{
		ID:          "connector-one",
		IndexName:   "search-content",
		Language:    "nl",
		ServiceType: "mysql",
		Status:      ConnectorStatusConnected,
		Pipeline:    &IngestPipeline{Name: "pipe", ReduceWhitespace: true},
		Configuration: configuration.Schema{
			"host": {Type: configuration.FieldTypeString, Display: configuration.DisplayTextbox, Label: "Host"},
		},
		Filtering: []ConnectorFiltering{{Active: json.RawMessage(`{"rules":[]}`)}},
	}

	snap := c.Snapshot()
	assert.Equal(t, "connector-one", snap.ID)
	assert.Equal(t, "search-content", snap.IndexName)
	assert.Equal(t, "nl", snap.Language)
	assert.Equal(t, "mysql", snap.ServiceType)
	assert.JSONEq(t, `{"rules":[]}`, string(snap.Filtering))
	require.NotNil(t, snap.Pipeline)
	assert.Equal(t, "pipe", snap.Pipeline.Name)

	// The snapshot is decoupled from later connector mutations.
	c.Pipeline.Name = "changed"
	c.Configuration["port"] = configuration.Field{Type: configuration.FieldTypeInteger}
	assert.Equal(t, "pipe", snap.Pipeline.Name)
	_, leaked := snap.Configuration["port"]
	assert.False(t, leaked)
}

func TestConnectorSnapshot_NullFilteringOnWire(t *testing.T) {
	snap := &ConnectorSnapshot{ID: "c1"}
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	filtering, ok := doc["filtering"]
	require.True(t, ok, "filtering must always be present on the wire")
	assert.JSONEq(t, `null`, string(filtering))
}

func TestConnectorStatus_UnmarshalText(t *testing.T) {
	var s ConnectorStatus
	require.NoError(t, s.UnmarshalText([]byte("needs_configuration")))
	assert.Equal(t, ConnectorStatusNeedsConfiguration, s)
	assert.Error(t, s.UnmarshalText([]byte("sleeping")))
}
