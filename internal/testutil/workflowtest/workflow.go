// Package workflowtest provides end-to-end lifecycle testing utilities for
// the syncdock connector sync-job system. The harness wires the real services
// over a caller-chosen document store so tests can drive whole job lifecycles
// without any transport plumbing.
package workflowtest

import (
	"context"
	"time"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/domain/model"
	"github.com/seatrove/syncdock/internal/service"
	"github.com/seatrove/syncdock/internal/testutil"
)

// WorkflowTestHarness bundles the connector and sync-job services over a
// single provisioned store, plus a controllable clock for timestamp
// assertions.
//
//nolint:revive // WorkflowTestHarness is intentionally verbose for clarity in test code.
type WorkflowTestHarness struct {
	t testutil.TestingTB

	Store core.ManagedStore
	Clock *testutil.TestTimeProvider

	// Services
	Connectors *service.ConnectorService
	SyncJobs   *service.SyncJobService

	// Index names the harness provisioned
	ConnectorIndex string
	SyncJobIndex   string
}

// WorkflowTestOptions configures the workflow test harness.
//
//nolint:revive // WorkflowTestOptions is intentionally verbose for clarity in test code.
type WorkflowTestOptions struct {
	// Store is the backend under test. Nil selects an in-memory store.
	Store core.ManagedStore
	// ConnectorIndex overrides the connector index name
	ConnectorIndex string
	// SyncJobIndex overrides the sync-job index name
	SyncJobIndex string
	// StartTime seeds the harness clock
	StartTime time.Time
}

// DefaultWorkflowOptions returns options for an in-memory lifecycle run.
func DefaultWorkflowOptions() WorkflowTestOptions {
	return WorkflowTestOptions{
		ConnectorIndex: service.DefaultConnectorIndex,
		SyncJobIndex:   service.DefaultSyncJobIndex,
		StartTime:      testutil.TestTime(),
	}
}

// NewWorkflowTestHarness creates a workflow test harness with all components
// wired up. The store is provisioned here, so a fresh backend handle is all a
// caller needs to supply.
func NewWorkflowTestHarness(t testutil.TestingTB, opts WorkflowTestOptions) *WorkflowTestHarness {
	t.Helper()

	// Set defaults
	if opts.ConnectorIndex == "" {
		opts.ConnectorIndex = service.DefaultConnectorIndex
	}
	if opts.SyncJobIndex == "" {
		opts.SyncJobIndex = service.DefaultSyncJobIndex
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = testutil.TestTime()
	}

	store := opts.Store
	if store == nil {
		store = testutil.NewMemStore()
	}
	if err := store.Provision(context.Background(), opts.ConnectorIndex, opts.SyncJobIndex); err != nil {
		t.Fatalf("provision indices: %v", err)
	}

	h := &WorkflowTestHarness{
		t:              t,
		Store:          store,
		Clock:          testutil.NewTestTimeProvider(opts.StartTime),
		ConnectorIndex: opts.ConnectorIndex,
		SyncJobIndex:   opts.SyncJobIndex,
	}

	// Wire services
	h.Connectors = service.MustNewConnectorService(service.ConnectorServiceOptions{
		Store: store,
		Index: opts.ConnectorIndex,
	})
	h.SyncJobs = service.MustNewSyncJobService(service.SyncJobServiceOptions{
		Store:        store,
		Connectors:   h.Connectors,
		Index:        opts.SyncJobIndex,
		TimeProvider: h.Clock,
	})

	return h
}

// SeedConnector stores a configured connector under the given id and returns
// it. The connector carries a minimal valid schema so jobs created from it
// snapshot a realistic configuration.
func (h *WorkflowTestHarness) SeedConnector(id string) *model.Connector {
	h.t.Helper()

	connector := testutil.NewConnector(id).
		WithServiceType("mongodb").
		WithIndexName("search-" + id).
		WithConfiguration(testutil.MinimalSchema("db.internal")).
		WithStatus(model.ConnectorStatusConfigured).
		Build()

	if _, err := h.Connectors.PutConnector(context.Background(), connector); err != nil {
		h.t.Fatalf("seed connector %s: %v", id, err)
	}
	return connector
}

// StartJob creates a sync job from the given request and returns its id.
func (h *WorkflowTestHarness) StartJob(req *model.CreateSyncJobRequest) string {
	h.t.Helper()

	id, err := h.SyncJobs.Create(context.Background(), req)
	if err != nil {
		h.t.Fatalf("create sync job: %v", err)
	}
	return id
}

// Job fetches one sync job, failing the test when the read errors.
func (h *WorkflowTestHarness) Job(id string) *model.SyncJob {
	h.t.Helper()

	job, err := h.SyncJobs.Get(context.Background(), id)
	if err != nil {
		h.t.Fatalf("get sync job %s: %v", id, err)
	}
	return job
}

// CheckInAfter advances the clock by d and records a worker check-in, so the
// job's last_seen lands exactly d past the previous clock reading.
func (h *WorkflowTestHarness) CheckInAfter(id string, d time.Duration) {
	h.t.Helper()

	h.Clock.AddTime(d)
	if err := h.SyncJobs.CheckIn(context.Background(), id); err != nil {
		h.t.Fatalf("check in sync job %s: %v", id, err)
	}
}

// RequireStatus fails the test unless the stored job has the given status,
// and returns the job for further assertions.
func (h *WorkflowTestHarness) RequireStatus(id string, want model.SyncStatus) *model.SyncJob {
	h.t.Helper()

	job := h.Job(id)
	if job.Status != want {
		h.t.Fatalf("sync job %s status = %q, want %q", id, job.Status, want)
	}
	return job
}

// RunCancelWorkflow drives one on-demand full sync from creation through a
// check-in to a cancelation request, and returns the job in its canceling
// state.
func (h *WorkflowTestHarness) RunCancelWorkflow(connectorID string) *model.SyncJob {
	h.t.Helper()

	id := h.StartJob(testutil.FullSyncJobRequest(connectorID))
	h.CheckInAfter(id, time.Minute)

	h.Clock.AddTime(time.Minute)
	if err := h.SyncJobs.Cancel(context.Background(), id); err != nil {
		h.t.Fatalf("cancel sync job %s: %v", id, err)
	}
	return h.RequireStatus(id, model.SyncStatusCanceling)
}

// RunErrorWorkflow drives one on-demand full sync from creation through a
// check-in to a reported terminal error, and returns the errored job.
func (h *WorkflowTestHarness) RunErrorWorkflow(connectorID, message string) *model.SyncJob {
	h.t.Helper()

	id := h.StartJob(testutil.FullSyncJobRequest(connectorID))
	h.CheckInAfter(id, time.Minute)

	if err := h.SyncJobs.ReportError(context.Background(), id, message); err != nil {
		h.t.Fatalf("report sync job error %s: %v", id, err)
	}
	return h.RequireStatus(id, model.SyncStatusError)
}
