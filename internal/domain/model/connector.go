// Package model defines the connector and sync-job data types managed by the
// syncdock core, with wire-stable snake_case serialization.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/seatrove/syncdock/internal/domain/configuration"
)

// ConnectorStatus represents the lifecycle state of a connector.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ConnectorStatus string

const (
	// ConnectorStatusCreated indicates a connector that has never been configured.
	ConnectorStatusCreated ConnectorStatus = "created"
	// ConnectorStatusNeedsConfiguration indicates required configuration is missing.
	ConnectorStatusNeedsConfiguration ConnectorStatus = "needs_configuration"
	// ConnectorStatusConfigured indicates an accepted configuration is in place.
	ConnectorStatusConfigured ConnectorStatus = "configured"
	// ConnectorStatusConnected indicates the connector has reached its data source.
	ConnectorStatusConnected ConnectorStatus = "connected"
	// ConnectorStatusError indicates the connector is in a failed state.
	ConnectorStatusError ConnectorStatus = "error"
)

// Valid returns true if the ConnectorStatus is one of the known values.
func (s ConnectorStatus) Valid() bool {
	return s == ConnectorStatusCreated || s == ConnectorStatusNeedsConfiguration ||
		s == ConnectorStatusConfigured || s == ConnectorStatusConnected || s == ConnectorStatusError
}

// UnmarshalText implements encoding.TextUnmarshaler for ConnectorStatus.
func (s *ConnectorStatus) UnmarshalText(text []byte) error {
	v := ConnectorStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ConnectorStatus: %q", string(text))
	}
	*s = v
	return nil
}

// IngestPipeline carries the ingest pipeline parameters copied into sync jobs.
type IngestPipeline struct {
	ExtractBinaryContent bool   `json:"extract_binary_content"`
	Name                 string `json:"name"`
	ReduceWhitespace     bool   `json:"reduce_whitespace"`
	RunMLInference       bool   `json:"run_ml_inference"`
}

// ConnectorFiltering is one entry of a connector's filtering list. The active
// and draft rulesets are opaque to this core: they are projected into sync
// jobs verbatim, never interpreted.
type ConnectorFiltering struct {
	Domain string          `json:"domain,omitempty"`
	Active json.RawMessage `json:"active,omitempty"`
	Draft  json.RawMessage `json:"draft,omitempty"`
}

// Connector is the data-source integration definition sync jobs are spawned
// from. Only the fields this core reads are modeled; connector documents are
// updated with partial writes, so unmodeled fields are never clobbered.
type Connector struct {
	ID            string               `json:"id,omitempty"`
	IndexName     string               `json:"index_name,omitempty"`
	Language      string               `json:"language,omitempty"`
	Pipeline      *IngestPipeline      `json:"pipeline,omitempty"`
	ServiceType   string               `json:"service_type,omitempty"`
	Status        ConnectorStatus      `json:"status,omitempty"`
	Configuration configuration.Schema `json:"configuration,omitempty"`
	Filtering     []ConnectorFiltering `json:"filtering,omitempty"`
}

// ParseConnector decodes a stored connector document. The document id is the
// connector's identity and is not part of the stored body.
func ParseConnector(id string, raw []byte) (*Connector, error) {
	var c Connector
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse connector %s: %w", id, err)
	}
	c.ID = id
	return &c, nil
}

// ConnectorSnapshot is the immutable connector state embedded into a sync job
// at creation time. Filtering holds the first filtering entry's active rules,
// or null when the connector has none.
type ConnectorSnapshot struct {
	ID            string               `json:"id"`
	Filtering     json.RawMessage      `json:"filtering"`
	IndexName     string               `json:"index_name,omitempty"`
	Language      string               `json:"language,omitempty"`
	Pipeline      *IngestPipeline      `json:"pipeline,omitempty"`
	ServiceType   string               `json:"service_type,omitempty"`
	Configuration configuration.Schema `json:"configuration"`
}

// Snapshot copies the creation-time view of the connector into a snapshot.
// The snapshot shares nothing mutable with the connector.
func (c *Connector) Snapshot() *ConnectorSnapshot {
	snap := &ConnectorSnapshot{
		ID:          c.ID,
		Filtering:   FirstActiveFilteringRules(c.Filtering),
		IndexName:   c.IndexName,
		Language:    c.Language,
		ServiceType: c.ServiceType,
	}
	if c.Pipeline != nil {
		pipeline := *c.Pipeline
		snap.Pipeline = &pipeline
	}
	if c.Configuration != nil {
		snap.Configuration = maps.Clone(c.Configuration)
	}
	return snap
}

// FirstActiveFilteringRules projects a connector's filtering list into the
// ruleset a sync job embeds: nil when the list is nil or empty, otherwise the
// first entry's active rules verbatim. Later entries are ignored.
func FirstActiveFilteringRules(filtering []ConnectorFiltering) json.RawMessage {
	if len(filtering) == 0 {
		return nil
	}
	return bytes.Clone(filtering[0].Active)
}
