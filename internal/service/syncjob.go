// Package service provides business logic services for the syncdock sync-job system.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/data"
	"github.com/seatrove/syncdock/internal/domain/model"
	apperrors "github.com/seatrove/syncdock/internal/errors"
)

// DefaultSyncJobIndex is the document index sync jobs are stored in.
const DefaultSyncJobIndex = "connector_sync_jobs"

// Listing page bounds. A zero size falls back to the default; anything above
// the cap is clamped rather than rejected.
const (
	defaultListSize = 100
	maxListSize     = 1000
)

// SyncJobServiceOptions groups dependencies for SyncJobService.
type SyncJobServiceOptions struct {
	Store        core.DocumentStore   // Required: document store holding sync jobs
	Connectors   core.ConnectorLookup // Required: connector resolution for job creation
	Index        string               // Optional: sync-job index name
	TimeProvider core.TimeProvider    // Optional: clock for lifecycle timestamps
	Logger       *slog.Logger         // Optional: structured logger
}

// SyncJobService provides business logic for the sync-job lifecycle.
//
// This service manages:
// - Creation of sync jobs from a connector's current state
// - Worker check-ins, cancelation requests and terminal error reporting
// - Wholesale replacement of ingestion stats during a running sync
// - Filtered, paginated listing of stored jobs.
//
// Every mutation is written with immediate refresh so a follow-up read or
// list sees it. Store-level not-found signals are translated here, where the
// job id is known, into API not-found errors naming that id.
type SyncJobService struct {
	store      core.DocumentStore
	connectors core.ConnectorLookup
	index      string
	clock      core.TimeProvider
	logger     *slog.Logger
}

// NewSyncJobService constructs a new SyncJobService.
func NewSyncJobService(opts SyncJobServiceOptions) (*SyncJobService, error) {
	if opts.Store == nil {
		return nil, errors.New("DocumentStore is required")
	}
	if opts.Connectors == nil {
		return nil, errors.New("ConnectorLookup is required")
	}

	index := opts.Index
	if index == "" {
		index = DefaultSyncJobIndex
	}

	clock := opts.TimeProvider
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sync_job_service")
	}

	return &SyncJobService{
		store:      opts.Store,
		connectors: opts.Connectors,
		index:      index,
		clock:      clock,
		logger:     logger,
	}, nil
}

// MustNewSyncJobService constructs a new SyncJobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewSyncJobService(opts SyncJobServiceOptions) *SyncJobService {
	svc, err := NewSyncJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SyncJobService: %v", err))
	}
	return svc
}

// Create resolves the owning connector, snapshots its current state into a
// new pending job, and stores it. The returned id is assigned by the store.
func (s *SyncJobService) Create(ctx context.Context, req *model.CreateSyncJobRequest) (string, error) {
	if req == nil {
		return "", apperrors.Validation("create sync job request is required")
	}
	if err := req.Validate(); err != nil {
		return "", apperrors.Validation(err.Error())
	}

	connector, err := s.connectors.GetConnector(ctx, req.ConnectorID)
	if err != nil {
		if core.IsNotFound(err) || apperrors.IsNotFound(err) {
			return "", apperrors.NotFoundFrom(err, "Connector with id '%s' does not exist.", req.ConnectorID)
		}
		return "", apperrors.MapStoreError(err)
	}

	job, err := model.NewSyncJob(model.NewSyncJobParams{
		Connector:     connector.Snapshot(),
		JobType:       req.JobType,
		TriggerMethod: req.TriggerMethod,
		Now:           s.clock.Now(),
	})
	if err != nil {
		return "", apperrors.Validation(err.Error())
	}

	body, err := json.Marshal(job)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode sync job")
	}

	id, err := s.store.Index(ctx, core.IndexParams{
		Index:   s.index,
		Body:    body,
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		if core.IsNotFound(err) {
			return "", apperrors.NotFoundFrom(err, "sync job index [%s] not found", s.index)
		}
		return "", apperrors.MapStoreError(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(
			ctx,
			"sync job created",
			"id",
			id,
			"connector_id",
			req.ConnectorID,
			"job_type",
			job.JobType,
			"trigger_method",
			job.TriggerMethod,
		)
	}

	return id, nil
}

// Get fetches a sync job by id.
func (s *SyncJobService) Get(ctx context.Context, jobID string) (*model.SyncJob, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, apperrors.Validation("sync job id is required")
	}

	doc, err := s.store.Get(ctx, s.index, jobID)
	if err != nil {
		return nil, s.jobStoreErr(err, jobID)
	}

	job, err := model.ParseSyncJob(doc.ID, doc.Raw)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode sync job")
	}
	return job, nil
}

// Delete removes a sync job by id.
func (s *SyncJobService) Delete(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.Validation("sync job id is required")
	}

	err := s.store.Delete(ctx, core.DeleteParams{
		Index:   s.index,
		ID:      jobID,
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		return s.jobStoreErr(err, jobID)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "sync job deleted", "id", jobID)
	}
	return nil
}

// CheckIn records a worker heartbeat by setting the job's last_seen to now.
// No other field is touched.
func (s *SyncJobService) CheckIn(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.Validation("sync job id is required")
	}

	err := s.store.Update(ctx, core.UpdateParams{
		Index: s.index,
		ID:    jobID,
		Fields: map[string]any{
			"last_seen": s.clock.Now().UTC(),
		},
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		return s.jobStoreErr(err, jobID)
	}
	return nil
}

// Cancel requests cancelation of a sync job: status moves to canceling and
// cancelation_requested_at is set to now. The actual stop is the executor's
// job. Repeating the call refreshes the request timestamp.
func (s *SyncJobService) Cancel(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.Validation("sync job id is required")
	}

	err := s.store.Update(ctx, core.UpdateParams{
		Index: s.index,
		ID:    jobID,
		Fields: map[string]any{
			"status":                   model.SyncStatusCanceling,
			"cancelation_requested_at": s.clock.Now().UTC(),
		},
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		return s.jobStoreErr(err, jobID)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "sync job cancelation requested", "id", jobID)
	}
	return nil
}

// ReportError marks a sync job failed: the error message is recorded and the
// status moves to error.
func (s *SyncJobService) ReportError(ctx context.Context, jobID, message string) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.Validation("sync job id is required")
	}
	if strings.TrimSpace(message) == "" {
		return apperrors.Validation("error message is required")
	}

	err := s.store.Update(ctx, core.UpdateParams{
		Index: s.index,
		ID:    jobID,
		Fields: map[string]any{
			"error":  message,
			"status": model.SyncStatusError,
		},
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		return s.jobStoreErr(err, jobID)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "sync job error reported", "id", jobID, "error", message)
	}
	return nil
}

// UpdateIngestionStats replaces a job's ingestion counters. Deleted, indexed
// and volume counts are always written; the total only when the request
// carries one. last_seen is taken from the request, or from the clock when
// the request leaves it out.
func (s *SyncJobService) UpdateIngestionStats(ctx context.Context, req *model.UpdateIngestionStatsRequest) error {
	if req == nil {
		return apperrors.Validation("update ingestion stats request is required")
	}
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	fields := map[string]any{
		"deleted_document_count":  req.DeletedDocumentCount,
		"indexed_document_count":  req.IndexedDocumentCount,
		"indexed_document_volume": req.IndexedDocumentVolume,
	}
	if req.TotalDocumentCount != nil {
		fields["total_document_count"] = *req.TotalDocumentCount
	}
	if req.LastSeen != nil {
		fields["last_seen"] = req.LastSeen.UTC()
	} else {
		fields["last_seen"] = s.clock.Now().UTC()
	}

	err := s.store.Update(ctx, core.UpdateParams{
		Index:   s.index,
		ID:      req.JobID,
		Fields:  fields,
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		return s.jobStoreErr(err, req.JobID)
	}

	if s.logger != nil {
		s.logger.DebugContext(
			ctx,
			"sync job ingestion stats updated",
			"id",
			req.JobID,
			"deleted",
			req.DeletedDocumentCount,
			"indexed",
			req.IndexedDocumentCount,
			"volume",
			req.IndexedDocumentVolume,
		)
	}
	return nil
}

// List returns one page of sync jobs ordered by creation time ascending.
// ConnectorID and Status narrow the result when set. A missing index means
// nothing was ever stored, which lists as an empty page rather than an error.
func (s *SyncJobService) List(ctx context.Context, req *model.ListSyncJobsRequest) (*model.SyncJobList, error) {
	if req == nil {
		req = &model.ListSyncJobsRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	size := req.Size
	if size == 0 {
		size = defaultListSize
	}
	if size > maxListSize {
		size = maxListSize
	}

	query := core.MatchAll()
	if req.ConnectorID != "" {
		query = query.Term("connector.id", req.ConnectorID)
	}
	if req.Status != "" {
		query = query.Term("status", string(req.Status))
	}

	result, err := s.store.Search(ctx, s.index, core.SearchRequest{
		Query: query,
		Sort: []core.SortClause{
			{Field: "created_at", Type: core.SortTime, Order: core.SortAsc},
		},
		From: req.From,
		Size: size,
	})
	if err != nil {
		if errors.Is(err, core.ErrIndexNotFound) {
			return &model.SyncJobList{Results: []model.SyncJobSearchResult{}}, nil
		}
		return nil, apperrors.MapStoreError(err)
	}

	results := make([]model.SyncJobSearchResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, model.SyncJobSearchResult{
			ID:     hit.ID,
			Source: hit.Fields,
			Raw:    hit.Raw,
		})
	}

	return &model.SyncJobList{Results: results, Total: result.Total}, nil
}

// jobStoreErr translates a store failure from a by-id sync-job operation.
// Both missing-document and missing-index collapse into one not-found naming
// the job id; anything else maps to the generic store error taxonomy.
func (s *SyncJobService) jobStoreErr(err error, jobID string) error {
	if core.IsNotFound(err) {
		return apperrors.NotFoundFrom(err, "connector sync job [%s] not found", jobID)
	}
	return apperrors.MapStoreError(err)
}
