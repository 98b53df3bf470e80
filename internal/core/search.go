package core

// TermClause is one exact-match condition on a document field. Field uses
// dotted-path notation for nested values ("connector.id").
type TermClause struct {
	Field string
	Value string
}

// Query is a conjunction of term clauses. An empty clause list matches all
// documents in the index.
type Query struct {
	Terms []TermClause
}

// MatchAll returns the query that selects every document.
func MatchAll() Query { return Query{} }

// Term appends an exact-match clause and returns the extended query.
func (q Query) Term(field, value string) Query {
	terms := make([]TermClause, len(q.Terms), len(q.Terms)+1)
	copy(terms, q.Terms)
	return Query{Terms: append(terms, TermClause{Field: field, Value: value})}
}

// IsMatchAll reports whether the query has no clauses.
func (q Query) IsMatchAll() bool { return len(q.Terms) == 0 }

// SortOrder is the direction of a sort clause.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortType tells the store how to compare the sort field. Timestamps in
// particular must not be compared as text once serialized.
type SortType string

const (
	SortText    SortType = "text"
	SortTime    SortType = "time"
	SortNumeric SortType = "numeric"
)

// SortClause orders results by one document field. Stores break ties on
// document id ascending so pagination is stable.
type SortClause struct {
	Field string
	Type  SortType
	Order SortOrder
}

// SearchRequest is a term query plus sort and offset pagination.
type SearchRequest struct {
	Query Query
	Sort  []SortClause
	From  int
	Size  int
}

// SearchResult carries one page of hits and the total match count across all
// pages.
type SearchResult struct {
	Hits  []Document
	Total int64
}
