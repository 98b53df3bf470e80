package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatrove/syncdock/internal/core"
)

func TestMemStore_UnprovisionedIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	_, err := store.Get(ctx, "ghost", "id-1")
	assert.ErrorIs(t, err, core.ErrIndexNotFound)

	_, err = store.Index(ctx, core.IndexParams{Index: "ghost", Body: []byte(`{}`)})
	assert.ErrorIs(t, err, core.ErrIndexNotFound)

	err = store.Update(ctx, core.UpdateParams{Index: "ghost", ID: "id-1"})
	assert.ErrorIs(t, err, core.ErrIndexNotFound)

	err = store.Delete(ctx, core.DeleteParams{Index: "ghost", ID: "id-1"})
	assert.ErrorIs(t, err, core.ErrIndexNotFound)

	_, err = store.Search(ctx, "ghost", core.SearchRequest{})
	assert.ErrorIs(t, err, core.ErrIndexNotFound)
}

func TestMemStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore("docs")

	id, err := store.Index(ctx, core.IndexParams{
		Index: "docs",
		Body:  []byte(`{"status":"pending","count":1}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.Get(ctx, "docs", id)
	require.NoError(t, err)
	assert.Equal(t, "pending", doc.Fields["status"])

	// Merge replaces named fields and leaves the rest untouched.
	err = store.Update(ctx, core.UpdateParams{
		Index:  "docs",
		ID:     id,
		Fields: map[string]any{"status": "in_progress"},
	})
	require.NoError(t, err)

	doc, err = store.Get(ctx, "docs", id)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", doc.Fields["status"])
	assert.Equal(t, float64(1), doc.Fields["count"])

	err = store.Delete(ctx, core.DeleteParams{Index: "docs", ID: id})
	require.NoError(t, err)

	_, err = store.Get(ctx, "docs", id)
	assert.ErrorIs(t, err, core.ErrDocumentMissing)

	err = store.Update(ctx, core.UpdateParams{Index: "docs", ID: id, Fields: map[string]any{"a": 1}})
	assert.ErrorIs(t, err, core.ErrDocumentMissing)

	err = store.Delete(ctx, core.DeleteParams{Index: "docs", ID: id})
	assert.ErrorIs(t, err, core.ErrDocumentMissing)
}

func TestMemStore_IndexKeepsCallerID(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore("docs")

	id, err := store.Index(ctx, core.IndexParams{Index: "docs", ID: "fixed", Body: []byte(`{"v":1}`)})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	// Re-indexing the same id fully replaces the body.
	_, err = store.Index(ctx, core.IndexParams{Index: "docs", ID: "fixed", Body: []byte(`{"w":2}`)})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "docs", "fixed")
	require.NoError(t, err)
	assert.NotContains(t, doc.Fields, "v")
	assert.Equal(t, float64(2), doc.Fields["w"])
}

func TestMemStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore("docs")

	seed := []struct {
		id   string
		body string
	}{
		{"a", `{"status":"pending","created_at":"2025-11-01T10:00:00Z","connector":{"id":"c1"}}`},
		{"b", `{"status":"error","created_at":"2025-11-01T11:00:00Z","connector":{"id":"c1"}}`},
		{"c", `{"status":"pending","created_at":"2025-11-01T09:00:00Z","connector":{"id":"c2"}}`},
	}
	for _, s := range seed {
		_, err := store.Index(ctx, core.IndexParams{Index: "docs", ID: s.id, Body: []byte(s.body)})
		require.NoError(t, err)
	}

	res, err := store.Search(ctx, "docs", core.SearchRequest{
		Query: core.MatchAll().Term("connector.id", "c1"),
		Sort: []core.SortClause{
			{Field: "created_at", Type: core.SortTime, Order: core.SortAsc},
		},
		Size: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "a", res.Hits[0].ID)
	assert.Equal(t, "b", res.Hits[1].ID)

	// Total counts all matches even when the page is smaller.
	res, err = store.Search(ctx, "docs", core.SearchRequest{
		Query: core.MatchAll(),
		Sort: []core.SortClause{
			{Field: "created_at", Type: core.SortTime, Order: core.SortAsc},
		},
		From: 1,
		Size: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a", res.Hits[0].ID)
}

func TestMemStore_DropIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore("docs")

	_, err := store.Index(ctx, core.IndexParams{Index: "docs", ID: "x", Body: []byte(`{}`)})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len("docs"))

	store.DropIndex("docs")

	_, err = store.Get(ctx, "docs", "x")
	assert.ErrorIs(t, err, core.ErrIndexNotFound)
	assert.Equal(t, 0, store.Len("docs"))
}
