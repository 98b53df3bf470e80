package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/data/database"
	"github.com/seatrove/syncdock/internal/data/pgxutil"
)

// reIndexName restricts index names to safe SQL identifiers. Index names come
// from configuration rather than user input, but they are interpolated into
// DDL, so both the regexp and pgx sanitization apply.
var reIndexName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PGStoreOptions groups dependencies for PGStore.
type PGStoreOptions struct {
	DB     *sql.DB      // Required: database handle
	Logger *slog.Logger // Optional: structured logger
}

// PGStore implements core.DocumentStore on PostgreSQL. Each index is one
// table of (id TEXT PRIMARY KEY, doc JSONB NOT NULL); term clauses extract
// JSON fields with ->/->> and sorts cast the extracted text to the right
// type. PostgreSQL reads its own writes, so every write behaves as
// core.RefreshImmediate and the refresh policy is accepted but ignored.
type PGStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPGStore constructs a new PGStore.
func NewPGStore(opts PGStoreOptions) (*PGStore, error) {
	if opts.DB == nil {
		return nil, errors.New("database handle is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "pg_store")
	}

	return &PGStore{db: opts.DB, logger: logger}, nil
}

// Provision creates the table and supporting index for each index name. The
// DDL is idempotent so startup can run it unconditionally.
func (s *PGStore) Provision(ctx context.Context, indices ...string) error {
	for _, index := range indices {
		if err := validIndexName(index); err != nil {
			return err
		}
	}

	err := pgxutil.WithPgxTx(ctx, s.db, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		for _, index := range indices {
			table := pgx.Identifier{index}.Sanitize()
			if _, err := tx.Exec(ctx, fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`, table,
			)); err != nil {
				return fmt.Errorf("create table %s: %w", index, err)
			}

			createdAtIdx := pgx.Identifier{index + "_created_at_idx"}.Sanitize()
			if _, err := tx.Exec(ctx, fmt.Sprintf(
				`CREATE INDEX IF NOT EXISTS %s ON %s (((doc->>'created_at')::timestamptz))`,
				createdAtIdx, table,
			)); err != nil {
				return fmt.Errorf("create index on %s: %w", index, err)
			}
		}
		return nil
	}})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "document store provisioned", "indices", indices)
	}
	return nil
}

// Get fetches one document by id.
func (s *PGStore) Get(ctx context.Context, index, id string) (*core.Document, error) {
	if err := validIndexName(index); err != nil {
		return nil, err
	}

	var raw []byte
	err := pgxutil.WithPgxConn(ctx, s.db, func(conn *pgx.Conn) error {
		query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, pgx.Identifier{index}.Sanitize())
		return conn.QueryRow(ctx, query, id).Scan(&raw)
	})
	if err != nil {
		return nil, mapPgErr(err)
	}

	return decodeDocument(id, raw)
}

// Index creates or fully replaces a document and returns its id. An empty id
// gets a store-assigned UUID.
func (s *PGStore) Index(ctx context.Context, params core.IndexParams) (string, error) {
	if err := validIndexName(params.Index); err != nil {
		return "", err
	}

	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}

	err := pgxutil.WithPgxConn(ctx, s.db, func(conn *pgx.Conn) error {
		query := fmt.Sprintf(
			`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)
			 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
			pgx.Identifier{params.Index}.Sanitize(),
		)
		_, execErr := conn.Exec(ctx, query, id, params.Body)
		return execErr
	})
	if err != nil {
		return "", mapPgErr(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "document indexed", "index", params.Index, "id", id)
	}
	return id, nil
}

// Update merges the given top-level fields into an existing document. Named
// fields are replaced wholesale via a shallow JSONB merge; unnamed fields are
// untouched.
func (s *PGStore) Update(ctx context.Context, params core.UpdateParams) error {
	if err := validIndexName(params.Index); err != nil {
		return err
	}

	patch, err := json.Marshal(params.Fields)
	if err != nil {
		return fmt.Errorf("marshal update fields: %w", err)
	}

	err = pgxutil.WithPgxConn(ctx, s.db, func(conn *pgx.Conn) error {
		query := fmt.Sprintf(
			`UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1`,
			pgx.Identifier{params.Index}.Sanitize(),
		)
		tag, execErr := conn.Exec(ctx, query, params.ID, patch)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return core.ErrDocumentMissing
		}
		return nil
	})
	if err != nil {
		return mapPgErr(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "document updated", "index", params.Index, "id", params.ID)
	}
	return nil
}

// Delete removes a document by id.
func (s *PGStore) Delete(ctx context.Context, params core.DeleteParams) error {
	if err := validIndexName(params.Index); err != nil {
		return err
	}

	err := pgxutil.WithPgxConn(ctx, s.db, func(conn *pgx.Conn) error {
		query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, pgx.Identifier{params.Index}.Sanitize())
		tag, execErr := conn.Exec(ctx, query, params.ID)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return core.ErrDocumentMissing
		}
		return nil
	})
	if err != nil {
		return mapPgErr(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "document deleted", "index", params.Index, "id", params.ID)
	}
	return nil
}

// Search runs a term-conjunction (or match-all) query with sort and offset
// pagination. The count and the page run in one repeatable-read transaction
// so the total matches the rows the page was cut from.
func (s *PGStore) Search(ctx context.Context, index string, req core.SearchRequest) (*core.SearchResult, error) {
	if err := validIndexName(index); err != nil {
		return nil, err
	}

	countQuery, countArgs := database.BuildDocQuery(searchOptions(index, req, true))
	pageQuery, pageArgs := database.BuildDocQuery(searchOptions(index, req, false))

	var (
		total int64
		rows  []docRow
	)
	txOpts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := pgxutil.WithPgxTx(ctx, s.db, pgxutil.TxConfig{Opts: txOpts, Fn: func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return err
		}

		pgRows, err := tx.Query(ctx, pageQuery, pageArgs...)
		if err != nil {
			return err
		}
		defer pgRows.Close()

		rows, err = pgx.CollectRows(pgRows, pgx.RowToStructByName[docRow])
		return err
	}})
	if err != nil {
		return nil, mapPgErr(err)
	}

	hits := make([]core.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeDocument(row.ID, row.Doc)
		if err != nil {
			return nil, err
		}
		hits = append(hits, *doc)
	}

	return &core.SearchResult{Hits: hits, Total: total}, nil
}

// docRow is the scan target for search pages.
type docRow struct {
	ID  string `db:"id"`
	Doc []byte `db:"doc"`
}

// searchOptions converts a core search request into doc query options.
func searchOptions(index string, req core.SearchRequest, countOnly bool) *database.DocQueryOptions {
	opts := []database.DocQueryOption{}
	for _, term := range req.Query.Terms {
		opts = append(opts, database.WithTerm(term.Field, term.Value))
	}

	if countOnly {
		opts = append(opts, database.WithCountOnly())
		return database.NewDocQueryOptions(index, opts...)
	}

	for _, clause := range req.Sort {
		opts = append(opts, database.WithSort(database.SortExpr{
			Path: clause.Field,
			Cast: sortCast(clause.Type),
			Desc: clause.Order == core.SortDesc,
		}))
	}
	opts = append(opts, database.WithLimit(req.Size), database.WithOffset(req.From))
	return database.NewDocQueryOptions(index, opts...)
}

func sortCast(t core.SortType) database.SortCast {
	switch t {
	case core.SortTime:
		return database.CastTimestamptz
	case core.SortNumeric:
		return database.CastNumeric
	default:
		return database.CastNone
	}
}

func decodeDocument(id string, raw []byte) (*core.Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &core.Document{ID: id, Raw: raw, Fields: fields}, nil
}

func validIndexName(index string) error {
	if !reIndexName.MatchString(index) {
		return fmt.Errorf("invalid index name %q", index)
	}
	return nil
}

// mapPgErr normalizes driver failures onto the store sentinels. A missing
// table means the index was never provisioned; a missing row means the
// document is gone.
func mapPgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrDocumentMissing
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return core.ErrIndexNotFound
	}
	return err
}
