// Package testutil provides testing utilities and helpers for the syncdock
// connector sync-job system.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/seatrove/syncdock/internal/domain/configuration"
	"github.com/seatrove/syncdock/internal/domain/model"
)

// ConnectorBuilder provides a fluent interface for building Connector documents for testing.
type ConnectorBuilder struct {
	c *model.Connector
}

// NewConnector creates a new ConnectorBuilder with sensible defaults.
func NewConnector(id string) *ConnectorBuilder {
	return &ConnectorBuilder{
		c: &model.Connector{
			ID:            id,
			IndexName:     "search-" + id,
			Language:      "en",
			ServiceType:   "mongodb",
			Status:        model.ConnectorStatusConfigured,
			Configuration: MinimalSchema("localhost"),
		},
	}
}

// WithIndexName sets the connector's target index name.
func (b *ConnectorBuilder) WithIndexName(name string) *ConnectorBuilder {
	b.c.IndexName = name
	return b
}

// WithLanguage sets the analyzer language.
func (b *ConnectorBuilder) WithLanguage(lang string) *ConnectorBuilder {
	b.c.Language = lang
	return b
}

// WithServiceType sets the connector service type.
func (b *ConnectorBuilder) WithServiceType(serviceType string) *ConnectorBuilder {
	b.c.ServiceType = serviceType
	return b
}

// WithStatus sets the connector lifecycle status.
func (b *ConnectorBuilder) WithStatus(status model.ConnectorStatus) *ConnectorBuilder {
	b.c.Status = status
	return b
}

// WithPipeline sets the ingest pipeline parameters.
func (b *ConnectorBuilder) WithPipeline(p *model.IngestPipeline) *ConnectorBuilder {
	b.c.Pipeline = p
	return b
}

// WithConfiguration replaces the configuration schema.
func (b *ConnectorBuilder) WithConfiguration(schema configuration.Schema) *ConnectorBuilder {
	b.c.Configuration = schema
	return b
}

// WithFiltering replaces the filtering list.
func (b *ConnectorBuilder) WithFiltering(entries ...model.ConnectorFiltering) *ConnectorBuilder {
	b.c.Filtering = entries
	return b
}

// WithActiveRules appends a filtering entry whose active ruleset is the given
// JSON string.
func (b *ConnectorBuilder) WithActiveRules(rules string) *ConnectorBuilder {
	b.c.Filtering = append(b.c.Filtering, model.ConnectorFiltering{
		Active: json.RawMessage(rules),
	})
	return b
}

// Build returns the constructed Connector.
func (b *ConnectorBuilder) Build() *model.Connector {
	return b.c
}

// MinimalSchema returns a one-field configuration schema that passes
// validation, with the host field set to the given value.
func MinimalSchema(host string) configuration.Schema {
	return configuration.Schema{
		"host": {
			Type:           configuration.FieldTypeString,
			Display:        configuration.DisplayTextbox,
			Label:          "Host",
			Order:          1,
			Required:       true,
			Sensitive:      false,
			UIRestrictions: []string{},
			Validations:    configuration.Validations{},
			Value:          host,
		},
	}
}

// Common sync-job request presets

// FullSyncJobRequest creates an on-demand full sync request for a connector.
func FullSyncJobRequest(connectorID string) *model.CreateSyncJobRequest {
	return &model.CreateSyncJobRequest{
		ConnectorID:   connectorID,
		JobType:       model.SyncJobTypeFull,
		TriggerMethod: model.TriggerMethodOnDemand,
	}
}

// IncrementalSyncJobRequest creates an on-demand incremental sync request.
func IncrementalSyncJobRequest(connectorID string) *model.CreateSyncJobRequest {
	return &model.CreateSyncJobRequest{
		ConnectorID:   connectorID,
		JobType:       model.SyncJobTypeIncremental,
		TriggerMethod: model.TriggerMethodOnDemand,
	}
}

// AccessControlSyncJobRequest creates an access-control sync request.
func AccessControlSyncJobRequest(connectorID string) *model.CreateSyncJobRequest {
	return &model.CreateSyncJobRequest{
		ConnectorID:   connectorID,
		JobType:       model.SyncJobTypeAccessControl,
		TriggerMethod: model.TriggerMethodOnDemand,
	}
}

// ScheduledSyncJobRequest creates a scheduler-triggered full sync request.
func ScheduledSyncJobRequest(connectorID string) *model.CreateSyncJobRequest {
	return &model.CreateSyncJobRequest{
		ConnectorID:   connectorID,
		JobType:       model.SyncJobTypeFull,
		TriggerMethod: model.TriggerMethodScheduled,
	}
}

// DefaultedSyncJobRequest creates a request that names only the connector,
// leaving job type and trigger method to creation-time defaults.
func DefaultedSyncJobRequest(connectorID string) *model.CreateSyncJobRequest {
	return &model.CreateSyncJobRequest{ConnectorID: connectorID}
}

// StatsRequestBuilder provides a fluent interface for building ingestion
// stats update requests for testing.
type StatsRequestBuilder struct {
	req *model.UpdateIngestionStatsRequest
}

// NewStatsRequest creates a new StatsRequestBuilder with non-zero counter
// defaults.
func NewStatsRequest(jobID string) *StatsRequestBuilder {
	return &StatsRequestBuilder{
		req: &model.UpdateIngestionStatsRequest{
			JobID:                 jobID,
			DeletedDocumentCount:  2,
			IndexedDocumentCount:  10,
			IndexedDocumentVolume: 4096,
		},
	}
}

// WithDeleted sets the deleted document count.
func (b *StatsRequestBuilder) WithDeleted(n int64) *StatsRequestBuilder {
	b.req.DeletedDocumentCount = n
	return b
}

// WithIndexed sets the indexed document count.
func (b *StatsRequestBuilder) WithIndexed(n int64) *StatsRequestBuilder {
	b.req.IndexedDocumentCount = n
	return b
}

// WithVolume sets the indexed document volume.
func (b *StatsRequestBuilder) WithVolume(n int64) *StatsRequestBuilder {
	b.req.IndexedDocumentVolume = n
	return b
}

// WithTotal sets the optional total document count.
func (b *StatsRequestBuilder) WithTotal(n int64) *StatsRequestBuilder {
	b.req.TotalDocumentCount = &n
	return b
}

// WithLastSeen sets the optional last-seen timestamp.
func (b *StatsRequestBuilder) WithLastSeen(t time.Time) *StatsRequestBuilder {
	b.req.LastSeen = &t
	return b
}

// Build returns the constructed UpdateIngestionStatsRequest.
func (b *StatsRequestBuilder) Build() *model.UpdateIngestionStatsRequest {
	return b.req
}
