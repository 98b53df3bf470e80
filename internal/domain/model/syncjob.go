package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SyncJobType represents the kind of ingestion run a sync job tracks.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type SyncJobType string

// TriggerMethod represents how a sync job was started.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type TriggerMethod string

// SyncStatus represents the sync-job state machine position.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type SyncStatus string

const (
	// SyncJobTypeFull represents a full re-ingestion of the data source.
	SyncJobTypeFull SyncJobType = "full"
	// SyncJobTypeIncremental represents an incremental ingestion run.
	SyncJobTypeIncremental SyncJobType = "incremental"
	// SyncJobTypeAccessControl represents an access-control metadata sync.
	SyncJobTypeAccessControl SyncJobType = "access_control"

	// TriggerMethodOnDemand indicates the job was requested explicitly.
	TriggerMethodOnDemand TriggerMethod = "on_demand"
	// TriggerMethodScheduled indicates the job was started by a schedule.
	TriggerMethodScheduled TriggerMethod = "scheduled"

	// SyncStatusPending indicates the job awaits pickup by an executor.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusInProgress indicates an executor is running the job.
	SyncStatusInProgress SyncStatus = "in_progress"
	// SyncStatusCanceling indicates cancellation was requested but not yet honored.
	SyncStatusCanceling SyncStatus = "canceling"
	// SyncStatusCanceled indicates the executor honored a cancellation.
	SyncStatusCanceled SyncStatus = "canceled"
	// SyncStatusSuspended indicates the executor parked the job.
	SyncStatusSuspended SyncStatus = "suspended"
	// SyncStatusCompleted indicates the job finished successfully.
	SyncStatusCompleted SyncStatus = "completed"
	// SyncStatusError indicates the job failed.
	SyncStatusError SyncStatus = "error"
)

// Creation-time defaults. These are fixed constants, not runtime
// configuration.
const (
	// DefaultJobType is used when a create request omits the job type.
	DefaultJobType = SyncJobTypeFull
	// DefaultTriggerMethod is used when a create request omits the trigger.
	DefaultTriggerMethod = TriggerMethodOnDemand
	// DefaultInitialStatus is the state every sync job starts in.
	DefaultInitialStatus = SyncStatusPending
)

// Valid returns true if the SyncJobType is one of the known values.
func (t SyncJobType) Valid() bool {
	return t == SyncJobTypeFull || t == SyncJobTypeIncremental || t == SyncJobTypeAccessControl
}

// UnmarshalText implements encoding.TextUnmarshaler for SyncJobType.
func (t *SyncJobType) UnmarshalText(text []byte) error {
	v := SyncJobType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid SyncJobType: %q", string(text))
	}
	*t = v
	return nil
}

// Valid returns true if the TriggerMethod is one of the known values.
func (m TriggerMethod) Valid() bool {
	return m == TriggerMethodOnDemand || m == TriggerMethodScheduled
}

// UnmarshalText implements encoding.TextUnmarshaler for TriggerMethod.
func (m *TriggerMethod) UnmarshalText(text []byte) error {
	v := TriggerMethod(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid TriggerMethod: %q", string(text))
	}
	*m = v
	return nil
}

// Valid returns true if the SyncStatus is one of the known values.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusPending, SyncStatusInProgress, SyncStatusCanceling,
		SyncStatusCanceled, SyncStatusSuspended, SyncStatusCompleted, SyncStatusError:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for SyncStatus.
func (s *SyncStatus) UnmarshalText(text []byte) error {
	v := SyncStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid SyncStatus: %q", string(text))
	}
	*s = v
	return nil
}

// SyncJob is one tracked ingestion run owned by a connector.
//
// The id is the document identity assigned by the store and is not part of
// the stored body. Error and CancelationRequestedAt serialize as explicit
// nulls while unset so that stored documents keep a stable field set.
type SyncJob struct {
	ID                     string             `json:"id,omitempty"`
	JobType                SyncJobType        `json:"job_type"`
	TriggerMethod          TriggerMethod      `json:"trigger_method"`
	Status                 SyncStatus         `json:"status"`
	Connector              *ConnectorSnapshot `json:"connector"`
	CreatedAt              time.Time          `json:"created_at"`
	LastSeen               time.Time          `json:"last_seen"`
	TotalDocumentCount     int64              `json:"total_document_count"`
	IndexedDocumentCount   int64              `json:"indexed_document_count"`
	IndexedDocumentVolume  int64              `json:"indexed_document_volume"`
	DeletedDocumentCount   int64              `json:"deleted_document_count"`
	Error                  *string            `json:"error"`
	CancelationRequestedAt *time.Time         `json:"cancelation_requested_at"`
}

// NewSyncJobParams groups the inputs of NewSyncJob.
type NewSyncJobParams struct {
	Connector     *ConnectorSnapshot
	JobType       SyncJobType
	TriggerMethod TriggerMethod
	Now           time.Time
}

// NewSyncJob constructs the creation-time record of a sync job: defaults
// applied, counters zeroed, status pending, created_at equal to last_seen.
// Required inputs are validated here; there is no partially-built state.
func NewSyncJob(params NewSyncJobParams) (*SyncJob, error) {
	if params.Connector == nil {
		return nil, errors.New("connector snapshot is required")
	}
	if params.Now.IsZero() {
		return nil, errors.New("creation time is required")
	}

	jobType := params.JobType
	if jobType == "" {
		jobType = DefaultJobType
	}
	if !jobType.Valid() {
		return nil, fmt.Errorf("invalid SyncJobType: %q", string(jobType))
	}

	trigger := params.TriggerMethod
	if trigger == "" {
		trigger = DefaultTriggerMethod
	}
	if !trigger.Valid() {
		return nil, fmt.Errorf("invalid TriggerMethod: %q", string(trigger))
	}

	now := params.Now.UTC()
	return &SyncJob{
		JobType:       jobType,
		TriggerMethod: trigger,
		Status:        DefaultInitialStatus,
		Connector:     params.Connector,
		CreatedAt:     now,
		LastSeen:      now,
	}, nil
}

// ParseSyncJob decodes a stored sync-job document and attaches its id.
func ParseSyncJob(id string, raw []byte) (*SyncJob, error) {
	var job SyncJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("parse sync job %s: %w", id, err)
	}
	job.ID = id
	return &job, nil
}

// SyncJobSearchResult pairs a hit's document id with both its parsed map and
// raw bytes, so callers that only need a field or two avoid a full decode.
type SyncJobSearchResult struct {
	ID     string          `json:"id"`
	Source map[string]any  `json:"source"`
	Raw    json.RawMessage `json:"-"`
}

// Job fully decodes the hit into a SyncJob.
func (r *SyncJobSearchResult) Job() (*SyncJob, error) {
	return ParseSyncJob(r.ID, r.Raw)
}

// SyncJobList is one page of sync-job search results plus the total match
// count across all pages.
type SyncJobList struct {
	Results []SyncJobSearchResult `json:"results"`
	Total   int64                 `json:"total"`
}

// CreateSyncJobRequest asks for a new sync job owned by a connector. JobType
// and TriggerMethod may be empty; creation fills in the defaults.
type CreateSyncJobRequest struct {
	ConnectorID   string        `json:"id"`
	JobType       SyncJobType   `json:"job_type,omitempty"`
	TriggerMethod TriggerMethod `json:"trigger_method,omitempty"`
}

// Validate validates the CreateSyncJobRequest fields.
func (r *CreateSyncJobRequest) Validate() error {
	if strings.TrimSpace(r.ConnectorID) == "" {
		return errors.New("connector id is required")
	}
	if r.JobType != "" && !r.JobType.Valid() {
		return fmt.Errorf("invalid SyncJobType: %q", string(r.JobType))
	}
	if r.TriggerMethod != "" && !r.TriggerMethod.Valid() {
		return fmt.Errorf("invalid TriggerMethod: %q", string(r.TriggerMethod))
	}
	return nil
}

// UpdateIngestionStatsRequest replaces a job's ingestion counters. The three
// unconditional counters are always written; TotalDocumentCount only when
// provided; LastSeen defaults to the service clock when nil.
type UpdateIngestionStatsRequest struct {
	JobID                 string     `json:"-"`
	DeletedDocumentCount  int64      `json:"deleted_document_count"`
	IndexedDocumentCount  int64      `json:"indexed_document_count"`
	IndexedDocumentVolume int64      `json:"indexed_document_volume"`
	TotalDocumentCount    *int64     `json:"total_document_count,omitempty"`
	LastSeen              *time.Time `json:"last_seen,omitempty"`
}

// Validate validates the UpdateIngestionStatsRequest fields.
func (r *UpdateIngestionStatsRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.New("sync job id is required")
	}
	if r.DeletedDocumentCount < 0 {
		return errors.New("deleted document count must be >= 0")
	}
	if r.IndexedDocumentCount < 0 {
		return errors.New("indexed document count must be >= 0")
	}
	if r.IndexedDocumentVolume < 0 {
		return errors.New("indexed document volume must be >= 0")
	}
	if r.TotalDocumentCount != nil && *r.TotalDocumentCount < 0 {
		return errors.New("total document count must be >= 0")
	}
	return nil
}

// ListSyncJobsRequest selects a page of sync jobs. ConnectorID and Status are
// optional exact-match filters; both empty means match all.
type ListSyncJobsRequest struct {
	From        int        `json:"from"`
	Size        int        `json:"size"`
	ConnectorID string     `json:"connector_id,omitempty"`
	Status      SyncStatus `json:"status,omitempty"`
}

// Validate validates the ListSyncJobsRequest fields.
func (r *ListSyncJobsRequest) Validate() error {
	if r.From < 0 {
		return errors.New("from must be >= 0")
	}
	if r.Size < 0 {
		return errors.New("size must be >= 0")
	}
	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("invalid SyncStatus: %q", string(r.Status))
	}
	return nil
}
