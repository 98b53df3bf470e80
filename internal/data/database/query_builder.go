// Package database constructs parameterized SQL for JSONB document tables.
// Each table holds one document per row as (id TEXT PRIMARY KEY, doc JSONB).
// Identifiers and JSON path parts are sanitized; values always travel as bind
// parameters.
package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	defaultLimit  = -1
	defaultOffset = -1
)

// SortCast is the SQL cast applied to an extracted JSON field before
// comparison. Extracted fields are text, so timestamps and numbers need a
// cast to order correctly.
type SortCast string

const (
	CastNone        SortCast = ""
	CastTimestamptz SortCast = "::timestamptz"
	CastNumeric     SortCast = "::numeric"
)

// TermCondition matches one JSON field, addressed by a dotted path inside the
// doc column ("connector.id"), against a text value.
type TermCondition struct {
	Path  string
	Value string
}

// SortExpr orders results by a JSON field with an optional cast.
type SortExpr struct {
	Path string
	Cast SortCast
	Desc bool
}

// DocQueryOptions collects the parts of a document query.
type DocQueryOptions struct {
	Table     string
	CountOnly bool
	Terms     []TermCondition
	Sort      []SortExpr
	Limit     int
	Offset    int
}

type DocQueryOption func(*DocQueryOptions)

func NewDocQueryOptions(table string, opts ...DocQueryOption) *DocQueryOptions {
	options := &DocQueryOptions{
		Table:  table,
		Terms:  []TermCondition{},
		Sort:   []SortExpr{},
		Limit:  defaultLimit,
		Offset: defaultOffset,
	}

	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithTerm adds an exact-match condition on a JSON field.
func WithTerm(path, value string) DocQueryOption {
	return func(o *DocQueryOptions) {
		o.Terms = append(o.Terms, TermCondition{Path: path, Value: value})
	}
}

// WithSort appends a sort expression.
func WithSort(expr SortExpr) DocQueryOption {
	return func(o *DocQueryOptions) {
		o.Sort = append(o.Sort, expr)
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) DocQueryOption {
	return func(o *DocQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) DocQueryOption {
	return func(o *DocQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() DocQueryOption {
	return func(o *DocQueryOptions) {
		o.CountOnly = true
	}
}

// sanitizeIdentifier wraps a single string identifier for sanitization.
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// sanitizeJSONPath sanitizes JSON path components to prevent injection.
// It allows alphanumeric characters, underscores, and hyphens.
func sanitizeJSONPath(path string) string {
	// Remove any characters that aren't alphanumeric, underscore, or hyphen
	// This prevents JSON injection while allowing common field names
	var result strings.Builder
	for _, r := range path {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		}
		// Skip invalid characters (don't add them to result)
	}

	return result.String()
}

// docExpression renders a ->/->> chain over the doc column for a dotted path.
// Intermediate parts navigate with ->; the final part extracts text with ->>.
func docExpression(path string) string {
	parts := strings.Split(path, ".")

	var b strings.Builder
	b.WriteString("doc")
	for i, part := range parts {
		if i == len(parts)-1 {
			fmt.Fprintf(&b, "->>'%s'", sanitizeJSONPath(part))
		} else {
			fmt.Fprintf(&b, "->'%s'", sanitizeJSONPath(part))
		}
	}
	return b.String()
}

// sortExpression renders one ORDER BY element with its cast and direction.
func sortExpression(s SortExpr) string {
	expr := docExpression(s.Path)
	if s.Cast != CastNone {
		expr = "(" + expr + ")" + string(s.Cast)
	}
	if s.Desc {
		return expr + " DESC"
	}
	return expr + " ASC"
}

// BuildDocQuery constructs a SQL query string and arguments from options.
//
// Example usage:
//
//	options := NewDocQueryOptions("connector_sync_jobs",
//		WithTerm("connector.id", "c-1"),
//		WithTerm("status", "pending"),
//		WithSort(SortExpr{Path: "created_at", Cast: CastTimestamptz}),
//		WithLimit(20),
//		WithOffset(0),
//	)
//
//	query, args := BuildDocQuery(options)
func BuildDocQuery(options *DocQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder

	if options.CountOnly {
		query.WriteString("SELECT COUNT(*) ")
	} else {
		query.WriteString("SELECT id, doc ")
	}
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	args := []any{}
	paramCount := 1

	if len(options.Terms) > 0 {
		conditions := make([]string, 0, len(options.Terms))
		for _, term := range options.Terms {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", docExpression(term.Path), paramCount))
			args = append(args, term.Value)
			paramCount++
		}
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(conditions, " AND "))
	}

	// return early for CountOnly
	if options.CountOnly {
		return query.String(), args
	}

	// Always order, ending with the id tie-break so pagination is stable.
	orderings := make([]string, 0, len(options.Sort)+1)
	for _, s := range options.Sort {
		orderings = append(orderings, sortExpression(s))
	}
	orderings = append(orderings, "id ASC")
	query.WriteString(" ORDER BY ")
	query.WriteString(strings.Join(orderings, ", "))

	// Add LIMIT clause only if it was explicitly set (not the default sentinel)
	if options.Limit != defaultLimit {
		fmt.Fprintf(&query, " LIMIT $%d", paramCount)
		args = append(args, options.Limit)
		paramCount++
	}

	// Add OFFSET clause only if it was explicitly set (not the default sentinel)
	if options.Offset != defaultOffset {
		fmt.Fprintf(&query, " OFFSET $%d", paramCount)
		args = append(args, options.Offset)
	}

	return query.String(), args
}
