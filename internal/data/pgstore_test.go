package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/data/database"
	"github.com/seatrove/syncdock/internal/testutil"
)

func TestNewPGStore_RequiresDB(t *testing.T) {
	_, err := NewPGStore(PGStoreOptions{})
	if err == nil {
		t.Fatal("expected error for missing database handle")
	}
}

func TestValidIndexName(t *testing.T) {
	valid := []string{"connectors", "connector_sync_jobs", "docs_2", "a"}
	for _, name := range valid {
		if err := validIndexName(name); err != nil {
			t.Errorf("validIndexName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "Docs", "docs-test", "1docs", `docs"; DROP TABLE x;--`, "docs.jobs"}
	for _, name := range invalid {
		if err := validIndexName(name); err == nil {
			t.Errorf("validIndexName(%q) = nil, want error", name)
		}
	}
}

func TestSortCast(t *testing.T) {
	if got := sortCast(core.SortTime); got != database.CastTimestamptz {
		t.Errorf("sortCast(SortTime) = %q", got)
	}
	if got := sortCast(core.SortNumeric); got != database.CastNumeric {
		t.Errorf("sortCast(SortNumeric) = %q", got)
	}
	if got := sortCast(core.SortText); got != database.CastNone {
		t.Errorf("sortCast(SortText) = %q", got)
	}
}

func TestSearchOptions_Page(t *testing.T) {
	req := core.SearchRequest{
		Query: core.MatchAll().Term("connector.id", "c-1").Term("status", "pending"),
		Sort: []core.SortClause{
			{Field: "created_at", Type: core.SortTime, Order: core.SortAsc},
		},
		From: 20,
		Size: 10,
	}

	opts := searchOptions("connector_sync_jobs", req, false)
	query, args := database.BuildDocQuery(opts)

	expected := `SELECT id, doc FROM "connector_sync_jobs"` +
		` WHERE doc->'connector'->>'id' = $1 AND doc->>'status' = $2` +
		` ORDER BY (doc->>'created_at')::timestamptz ASC, id ASC LIMIT $3 OFFSET $4`
	assert.Equal(t, expected, query)
	assert.Equal(t, []any{"c-1", "pending", 10, 20}, args)
}

func TestSearchOptions_Count(t *testing.T) {
	req := core.SearchRequest{
		Query: core.MatchAll().Term("status", "error"),
		Sort: []core.SortClause{
			{Field: "created_at", Type: core.SortTime, Order: core.SortAsc},
		},
		From: 5,
		Size: 5,
	}

	opts := searchOptions("connector_sync_jobs", req, true)
	query, args := database.BuildDocQuery(opts)

	assert.Equal(t, `SELECT COUNT(*) FROM "connector_sync_jobs" WHERE doc->>'status' = $1`, query)
	assert.Equal(t, []any{"error"}, args)
}

func TestMapPgErr(t *testing.T) {
	if got := mapPgErr(nil); got != nil {
		t.Errorf("mapPgErr(nil) = %v", got)
	}

	if got := mapPgErr(pgx.ErrNoRows); !errors.Is(got, core.ErrDocumentMissing) {
		t.Errorf("mapPgErr(ErrNoRows) = %v, want ErrDocumentMissing", got)
	}

	undefined := &pgconn.PgError{Code: pgerrcode.UndefinedTable}
	if got := mapPgErr(fmt.Errorf("query: %w", undefined)); !errors.Is(got, core.ErrIndexNotFound) {
		t.Errorf("mapPgErr(undefined table) = %v, want ErrIndexNotFound", got)
	}

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	if got := mapPgErr(unique); !errors.Is(got, unique) {
		t.Errorf("mapPgErr(unique violation) = %v, want passthrough", got)
	}

	plain := errors.New("connection reset")
	if got := mapPgErr(plain); !errors.Is(got, plain) {
		t.Errorf("mapPgErr(plain) = %v, want passthrough", got)
	}
}

func TestDecodeDocument(t *testing.T) {
	doc, err := decodeDocument("id-1", []byte(`{"status":"pending","connector":{"id":"c-1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "id-1", doc.ID)
	assert.Equal(t, "pending", doc.Fields["status"])

	_, err = decodeDocument("id-2", []byte(`{broken`))
	assert.Error(t, err)
}

func newTestPGStore(t *testing.T, db *sql.DB) *PGStore {
	t.Helper()
	store, err := NewPGStore(PGStoreOptions{DB: db})
	require.NoError(t, err)
	return store
}

func TestPGStore_CRUD(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		store := newTestPGStore(t, db)

		const index = "docs_crud"
		defer testutil.DropDocTables(t, db, index)
		require.NoError(t, store.Provision(ctx, index))
		// Provisioning is idempotent.
		require.NoError(t, store.Provision(ctx, index))

		// index with explicit id
		id, err := store.Index(ctx, core.IndexParams{
			Index:   index,
			ID:      "job-1",
			Body:    []byte(`{"status":"pending","total_document_count":0}`),
			Refresh: core.RefreshImmediate,
		})
		require.NoError(t, err)
		assert.Equal(t, "job-1", id)

		// get
		doc, err := store.Get(ctx, index, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "pending", doc.Fields["status"])

		// merge replaces named fields, keeps the rest
		err = store.Update(ctx, core.UpdateParams{
			Index:  index,
			ID:     "job-1",
			Fields: map[string]any{"status": "in_progress"},
		})
		require.NoError(t, err)

		doc, err = store.Get(ctx, index, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "in_progress", doc.Fields["status"])
		assert.Equal(t, float64(0), doc.Fields["total_document_count"])

		// full replace via re-index
		_, err = store.Index(ctx, core.IndexParams{
			Index: index,
			ID:    "job-1",
			Body:  []byte(`{"status":"completed"}`),
		})
		require.NoError(t, err)

		doc, err = store.Get(ctx, index, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "completed", doc.Fields["status"])
		assert.NotContains(t, doc.Fields, "total_document_count")

		// delete
		err = store.Delete(ctx, core.DeleteParams{Index: index, ID: "job-1"})
		require.NoError(t, err)

		// missing document sentinels
		_, err = store.Get(ctx, index, "job-1")
		assert.ErrorIs(t, err, core.ErrDocumentMissing)
		err = store.Update(ctx, core.UpdateParams{Index: index, ID: "job-1", Fields: map[string]any{"a": 1}})
		assert.ErrorIs(t, err, core.ErrDocumentMissing)
		err = store.Delete(ctx, core.DeleteParams{Index: index, ID: "job-1"})
		assert.ErrorIs(t, err, core.ErrDocumentMissing)
	})
}

func TestPGStore_IndexAssignsID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		store := newTestPGStore(t, db)

		const index = "docs_assign"
		defer testutil.DropDocTables(t, db, index)
		require.NoError(t, store.Provision(ctx, index))

		id, err := store.Index(ctx, core.IndexParams{Index: index, Body: []byte(`{"n":1}`)})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := store.Get(ctx, index, id)
		require.NoError(t, err)
		assert.Equal(t, float64(1), doc.Fields["n"])
	})
}

func TestPGStore_UnprovisionedIndex(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		store := newTestPGStore(t, db)

		const index = "docs_ghost"

		_, err := store.Get(ctx, index, "x")
		assert.ErrorIs(t, err, core.ErrIndexNotFound)

		_, err = store.Index(ctx, core.IndexParams{Index: index, Body: []byte(`{}`)})
		assert.ErrorIs(t, err, core.ErrIndexNotFound)

		err = store.Update(ctx, core.UpdateParams{Index: index, ID: "x", Fields: map[string]any{"a": 1}})
		assert.ErrorIs(t, err, core.ErrIndexNotFound)

		err = store.Delete(ctx, core.DeleteParams{Index: index, ID: "x"})
		assert.ErrorIs(t, err, core.ErrIndexNotFound)

		_, err = store.Search(ctx, index, core.SearchRequest{Query: core.MatchAll(), Size: 10})
		assert.ErrorIs(t, err, core.ErrIndexNotFound)
	})
}

func TestPGStore_Search(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		store := newTestPGStore(t, db)

		const index = "docs_search"
		defer testutil.DropDocTables(t, db, index)
		require.NoError(t, store.Provision(ctx, index))

		seed := []struct {
			id   string
			body string
		}{
			{"j1", `{"status":"pending","created_at":"2025-11-01T10:00:00Z","connector":{"id":"c1"}}`},
			{"j2", `{"status":"error","created_at":"2025-11-01T11:00:00Z","connector":{"id":"c1"}}`},
			{"j3", `{"status":"pending","created_at":"2025-11-01T09:00:00Z","connector":{"id":"c2"}}`},
			{"j4", `{"status":"pending","created_at":"2025-11-01T12:00:00Z","connector":{"id":"c1"}}`},
		}
		for _, s := range seed {
			_, err := store.Index(ctx, core.IndexParams{Index: index, ID: s.id, Body: []byte(s.body)})
			require.NoError(t, err)
		}

		createdAsc := []core.SortClause{
			{Field: "created_at", Type: core.SortTime, Order: core.SortAsc},
		}

		// term conjunction on a nested path
		res, err := store.Search(ctx, index, core.SearchRequest{
			Query: core.MatchAll().Term("connector.id", "c1").Term("status", "pending"),
			Sort:  createdAsc,
			Size:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)
		assert.Equal(t, []string{"j1", "j4"}, hitIDs(res.Hits))

		// match-all ordered by creation time
		res, err = store.Search(ctx, index, core.SearchRequest{
			Query: core.MatchAll(),
			Sort:  createdAsc,
			Size:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.Total)
		assert.Equal(t, []string{"j3", "j1", "j2", "j4"}, hitIDs(res.Hits))

		// paging keeps the full total
		res, err = store.Search(ctx, index, core.SearchRequest{
			Query: core.MatchAll(),
			Sort:  createdAsc,
			From:  1,
			Size:  2,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.Total)
		assert.Equal(t, []string{"j1", "j2"}, hitIDs(res.Hits))

		// descending order
		res, err = store.Search(ctx, index, core.SearchRequest{
			Query: core.MatchAll(),
			Sort: []core.SortClause{
				{Field: "created_at", Type: core.SortTime, Order: core.SortDesc},
			},
			Size: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"j4"}, hitIDs(res.Hits))

		// no match
		res, err = store.Search(ctx, index, core.SearchRequest{
			Query: core.MatchAll().Term("status", "suspended"),
			Sort:  createdAsc,
			Size:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Total)
		assert.Empty(t, res.Hits)
	})
}

func hitIDs(hits []core.Document) []string {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids
}
