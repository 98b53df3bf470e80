package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *ConnectorSnapshot {
	return &ConnectorSnapshot{
		ID:          "connector-one",
		IndexName:   "search-content",
		Language:    "en",
		ServiceType: "mongodb",
	}
}

func TestSyncJobType_Valid(t *testing.T) {
	assert.True(t, SyncJobTypeFull.Valid())
	assert.True(t, SyncJobTypeIncremental.Valid())
	assert.True(t, SyncJobTypeAccessControl.Valid())
	assert.False(t, SyncJobType("partial").Valid())
}

func TestSyncStatus_UnmarshalText(t *testing.T) {
	var s SyncStatus
	require.NoError(t, s.UnmarshalText([]byte("canceling")))
	assert.Equal(t, SyncStatusCanceling, s)

	err := s.UnmarshalText([]byte("paused"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SyncStatus")
}

func TestNewSyncJob_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job, err := NewSyncJob(NewSyncJobParams{Connector: testSnapshot(), Now: now})
	require.NoError(t, err)

	assert.Equal(t, DefaultJobType, job.JobType)
	assert.Equal(t, DefaultTriggerMethod, job.TriggerMethod)
	assert.Equal(t, DefaultInitialStatus, job.Status)
	assert.Equal(t, now, job.CreatedAt)
	assert.Equal(t, job.CreatedAt, job.LastSeen)
	assert.Zero(t, job.TotalDocumentCount)
	assert.Zero(t, job.IndexedDocumentCount)
	assert.Zero(t, job.IndexedDocumentVolume)
	assert.Zero(t, job.DeletedDocumentCount)
	assert.Nil(t, job.Error)
	assert.Nil(t, job.CancelationRequestedAt)
	assert.Empty(t, job.ID)
}

func TestNewSyncJob_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewSyncJob(NewSyncJobParams{Now: now})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connector snapshot is required")

	_, err = NewSyncJob(NewSyncJobParams{Connector: testSnapshot()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creation time is required")

	_, err = NewSyncJob(NewSyncJobParams{Connector: testSnapshot(), JobType: "partial", Now: now})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SyncJobType")

	_, err = NewSyncJob(NewSyncJobParams{Connector: testSnapshot(), TriggerMethod: "cron", Now: now})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TriggerMethod")
}

func TestSyncJob_WireRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	job, err := NewSyncJob(NewSyncJobParams{
		Connector:     testSnapshot(),
		JobType:       SyncJobTypeIncremental,
		TriggerMethod: TriggerMethodScheduled,
		Now:           now,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(job)
	require.NoError(t, err)

	// Wire field names are stable identifiers; nullable fields serialize as
	// explicit nulls, the id never enters the body.
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{
		"job_type", "trigger_method", "status", "connector", "created_at", "last_seen",
		"total_document_count", "indexed_document_count", "indexed_document_volume",
		"deleted_document_count", "error", "cancelation_requested_at",
	} {
		_, ok := doc[key]
		assert.True(t, ok, "missing wire field %s", key)
	}
	_, hasID := doc["id"]
	assert.False(t, hasID)
	assert.JSONEq(t, `null`, string(doc["error"]))
	assert.JSONEq(t, `null`, string(doc["cancelation_requested_at"]))

	parsed, err := ParseSyncJob("job-1", raw)
	require.NoError(t, err)
	assert.Equal(t, "job-1", parsed.ID)
	assert.Equal(t, SyncJobTypeIncremental, parsed.JobType)
	assert.Equal(t, TriggerMethodScheduled, parsed.TriggerMethod)
	assert.True(t, parsed.CreatedAt.Equal(now))
	assert.True(t, parsed.LastSeen.Equal(now))
	assert.Equal(t, "connector-one", parsed.Connector.ID)
}

func TestSyncJobSearchResult_Job(t *testing.T) {
	raw := []byte(`{
		"job_type": "full",
		"trigger_method": "on_demand",
		"status": "pending",
		"connector": {"id": "c1", "filtering": null, "configuration": null},
		"created_at": "2025-06-01T12:00:00Z",
		"last_seen": "2025-06-01T12:00:00Z",
		"total_document_count": 0,
		"indexed_document_count": 0,
		"indexed_document_volume": 0,
		"deleted_document_count": 0,
		"error": null,
		"cancelation_requested_at": null
	}`)

	hit := SyncJobSearchResult{ID: "job-9", Raw: raw}
	job, err := hit.Job()
	require.NoError(t, err)
	assert.Equal(t, "job-9", job.ID)
	assert.Equal(t, SyncStatusPending, job.Status)
	assert.Nil(t, job.Error)
}

func TestCreateSyncJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		req         CreateSyncJobRequest
		expectError bool
		errorMsg    string
	}{
		{
			name: "connector id only",
			req:  CreateSyncJobRequest{ConnectorID: "c1"},
		},
		{
			name: "explicit type and trigger",
			req: CreateSyncJobRequest{
				ConnectorID:   "c1",
				JobType:       SyncJobTypeAccessControl,
				TriggerMethod: TriggerMethodScheduled,
			},
		},
		{
			name:        "missing connector id",
			req:         CreateSyncJobRequest{},
			expectError: true,
			errorMsg:    "connector id is required",
		},
		{
			name:        "bad job type",
			req:         CreateSyncJobRequest{ConnectorID: "c1", JobType: "partial"},
			expectError: true,
			errorMsg:    "invalid SyncJobType",
		},
		{
			name:        "bad trigger method",
			req:         CreateSyncJobRequest{ConnectorID: "c1", TriggerMethod: "cron"},
			expectError: true,
			errorMsg:    "invalid TriggerMethod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateIngestionStatsRequest_Validate(t *testing.T) {
	total := int64(10)
	valid := UpdateIngestionStatsRequest{
		JobID:                 "job-1",
		DeletedDocumentCount:  1,
		IndexedDocumentCount:  2,
		IndexedDocumentVolume: 3,
		TotalDocumentCount:    &total,
	}
	require.NoError(t, valid.Validate())

	missingID := valid
	missingID.JobID = " "
	assert.Error(t, missingID.Validate())

	negative := valid
	negative.IndexedDocumentVolume = -1
	assert.Error(t, negative.Validate())

	negativeTotal := int64(-1)
	badTotal := valid
	badTotal.TotalDocumentCount = &negativeTotal
	assert.Error(t, badTotal.Validate())
}

func TestListSyncJobsRequest_Validate(t *testing.T) {
	require.NoError(t, (&ListSyncJobsRequest{From: 0, Size: 20}).Validate())
	require.NoError(t, (&ListSyncJobsRequest{Status: SyncStatusPending}).Validate())
	assert.Error(t, (&ListSyncJobsRequest{From: -1}).Validate())
	assert.Error(t, (&ListSyncJobsRequest{Size: -1}).Validate())
	assert.Error(t, (&ListSyncJobsRequest{Status: "paused"}).Validate())
}
