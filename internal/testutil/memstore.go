package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/data/docmatch"
)

// MemStore is an in-memory core.DocumentStore for service tests. It keeps the
// same contract as the real adapters: operations against an unprovisioned
// index return core.ErrIndexNotFound, lookups of absent documents return
// core.ErrDocumentMissing, and Update merges top-level fields wholesale.
type MemStore struct {
	mu      sync.RWMutex
	indices map[string]map[string]json.RawMessage
}

// NewMemStore creates a MemStore with the given indices already provisioned.
func NewMemStore(indices ...string) *MemStore {
	s := &MemStore{indices: make(map[string]map[string]json.RawMessage)}
	for _, index := range indices {
		s.indices[index] = make(map[string]json.RawMessage)
	}
	return s
}

// Provision marks the given indices as existing.
func (s *MemStore) Provision(_ context.Context, indices ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, index := range indices {
		if _, ok := s.indices[index]; !ok {
			s.indices[index] = make(map[string]json.RawMessage)
		}
	}
	return nil
}

// DropIndex removes an index and its documents, for not-found path tests.
func (s *MemStore) DropIndex(index string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indices, index)
}

// Len reports how many documents an index holds. Unknown indices count zero.
func (s *MemStore) Len(index string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indices[index])
}

// Get fetches one document by id.
func (s *MemStore) Get(_ context.Context, index, id string) (*core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.indices[index]
	if !ok {
		return nil, core.ErrIndexNotFound
	}
	raw, ok := docs[id]
	if !ok {
		return nil, core.ErrDocumentMissing
	}
	return decodeMemDoc(id, raw)
}

// Index creates or fully replaces a document and returns its id.
func (s *MemStore) Index(_ context.Context, params core.IndexParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.indices[params.Index]
	if !ok {
		return "", core.ErrIndexNotFound
	}
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	docs[id] = json.RawMessage(append([]byte(nil), params.Body...))
	return id, nil
}

// Update merges the given top-level fields into an existing document.
func (s *MemStore) Update(_ context.Context, params core.UpdateParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.indices[params.Index]
	if !ok {
		return core.ErrIndexNotFound
	}
	raw, ok := docs[params.ID]
	if !ok {
		return core.ErrDocumentMissing
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decode document %s: %w", params.ID, err)
	}
	for k, v := range params.Fields {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", params.ID, err)
	}
	docs[params.ID] = merged
	return nil
}

// Delete removes a document by id.
func (s *MemStore) Delete(_ context.Context, params core.DeleteParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.indices[params.Index]
	if !ok {
		return core.ErrIndexNotFound
	}
	if _, ok := docs[params.ID]; !ok {
		return core.ErrDocumentMissing
	}
	delete(docs, params.ID)
	return nil
}

// Search runs a term-conjunction query with sort and offset pagination.
func (s *MemStore) Search(_ context.Context, index string, req core.SearchRequest) (*core.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.indices[index]
	if !ok {
		return nil, core.ErrIndexNotFound
	}

	matches := make([]core.Document, 0, len(docs))
	for id, raw := range docs {
		doc, err := decodeMemDoc(id, raw)
		if err != nil {
			return nil, err
		}
		if !docmatch.Matches(doc.Fields, req.Query) {
			continue
		}
		matches = append(matches, *doc)
	}

	docmatch.SortHits(matches, req.Sort)
	page := docmatch.Page(matches, req.From, req.Size)

	return &core.SearchResult{Hits: page, Total: int64(len(matches))}, nil
}

func decodeMemDoc(id string, raw json.RawMessage) (*core.Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &core.Document{
		ID:     id,
		Raw:    append([]byte(nil), raw...),
		Fields: fields,
	}, nil
}
