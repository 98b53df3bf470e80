// Package docmatch evaluates term queries, sorting, and pagination over
// decoded documents in process. Backends without native secondary indexes
// (redis, the in-memory test store) scan and filter with it.
package docmatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/seatrove/syncdock/internal/core"
)

// Field extracts a document field by dotted path ("connector.id") using
// JMESPath. Missing paths and evaluation failures yield nil.
func Field(fields map[string]any, path string) any {
	v, err := jmespath.Search(path, fields)
	if err != nil {
		return nil
	}
	return v
}

// Matches reports whether a decoded document satisfies every term clause of
// the query. Values are compared as text after normalization, mirroring the
// ->> extraction the SQL backend does.
func Matches(fields map[string]any, q core.Query) bool {
	for _, term := range q.Terms {
		v := Field(fields, term.Field)
		if v == nil {
			return false
		}
		if fieldString(v) != term.Value {
			return false
		}
	}
	return true
}

// SortHits orders hits in place by the sort clauses, breaking ties on
// document id ascending. Missing fields sort as zero values.
func SortHits(hits []core.Document, clauses []core.SortClause) {
	sort.SliceStable(hits, func(i, j int) bool {
		for _, clause := range clauses {
			c := compareClause(hits[i], hits[j], clause)
			if c != 0 {
				if clause.Order == core.SortDesc {
					return c > 0
				}
				return c < 0
			}
		}
		return hits[i].ID < hits[j].ID
	})
}

// Page slices one page out of the full ordered hit list. A size of zero
// returns no hits, which still lets callers read the total.
func Page(hits []core.Document, from, size int) []core.Document {
	if from < 0 {
		from = 0
	}
	if from >= len(hits) || size <= 0 {
		return []core.Document{}
	}
	end := from + size
	if end > len(hits) {
		end = len(hits)
	}
	return hits[from:end]
}

func compareClause(a, b core.Document, clause core.SortClause) int {
	av := Field(a.Fields, clause.Field)
	bv := Field(b.Fields, clause.Field)

	switch clause.Type {
	case core.SortTime:
		return parseTime(av).Compare(parseTime(bv))
	case core.SortNumeric:
		af, bf := toFloat(av), toFloat(bv)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(fieldString(av), fieldString(bv))
	}
}

// fieldString normalizes a decoded JSON value to the text form the SQL
// backend would extract with ->>.
func fieldString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toFloat(v any) float64 {
	switch tv := v.(type) {
	case float64:
		return tv
	case string:
		f, err := strconv.ParseFloat(tv, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
