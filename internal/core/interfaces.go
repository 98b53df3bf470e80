package core

import (
	"context"
	"time"

	"github.com/seatrove/syncdock/internal/domain/model"
)

// This file contains the port definitions of the syncdock core (hexagonal
// architecture). Services depend on these interfaces; the adapters under
// internal/data and internal/testutil implement them.

// RefreshPolicy controls read-after-write visibility of a store mutation.
type RefreshPolicy string

const (
	// RefreshImmediate makes the write visible to searches before returning.
	RefreshImmediate RefreshPolicy = "immediate"
	// RefreshNone lets the store surface the write on its own schedule.
	RefreshNone RefreshPolicy = "none"
)

// Document is one stored document: its id, raw serialized bytes, and the
// parsed top-level field map. Carrying both representations lets callers that
// only inspect a field or two skip a full decode.
type Document struct {
	ID     string
	Raw    []byte
	Fields map[string]any
}

// IndexParams groups parameters for DocumentStore.Index to keep param count ≤3.
type IndexParams struct {
	Index   string
	ID      string // empty means the store assigns one
	Body    []byte
	Refresh RefreshPolicy
}

// UpdateParams groups parameters for DocumentStore.Update.
type UpdateParams struct {
	Index   string
	ID      string
	Fields  map[string]any
	Refresh RefreshPolicy
}

// DeleteParams groups parameters for DocumentStore.Delete.
type DeleteParams struct {
	Index   string
	ID      string
	Refresh RefreshPolicy
}

// DocumentStore is the generic key-addressed CRUD + term-query port the
// lifecycle core runs against.
//
// Implementations signal the two addressable failure modes with the sentinels
// in errors.go (ErrIndexNotFound, ErrDocumentMissing); anything else is a
// generic store failure and propagates unchanged.
type DocumentStore interface {
	// Get fetches one document by id.
	Get(ctx context.Context, index, id string) (*Document, error)
	// Index creates or fully replaces a document and returns its id.
	Index(ctx context.Context, params IndexParams) (string, error)
	// Update merges the given top-level fields into an existing document.
	// Named fields are replaced wholesale; unnamed fields are untouched.
	Update(ctx context.Context, params UpdateParams) error
	// Delete removes a document by id.
	Delete(ctx context.Context, params DeleteParams) error
	// Search runs a term-conjunction (or match-all) query with sort and
	// offset pagination.
	Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error)
}

// ConnectorLookup resolves connectors by id for sync-job creation.
type ConnectorLookup interface {
	GetConnector(ctx context.Context, connectorID string) (*model.Connector, error)
}

// Provisioner creates the backing structures for named indices. Provisioning
// is idempotent; startup runs it unconditionally when configured to.
type Provisioner interface {
	Provision(ctx context.Context, indices ...string) error
}

// ManagedStore is a DocumentStore whose indices the application provisions
// itself. Both real adapters and the in-memory test store satisfy it.
type ManagedStore interface {
	DocumentStore
	Provisioner
}

// TimeProvider abstracts the clock so lifecycle timestamps are testable.
type TimeProvider interface {
	Now() time.Time
}
