package esmap

import "github.com/kailas-cloud/esmap/internal/query"

// Criteria is a composable boolean condition tree. Build leaves with
// Where, combine with And, Or and Not, then wrap in a Query.
type Criteria = query.Criteria

// Field starts criteria for one document field.
type Field = query.Field

// Query is a complete search request: a query node plus paging,
// sorting and projection options.
type Query = query.Query

// Sort orders results by one field.
type Sort = query.Sort

// Order is a sort direction.
type Order = query.Order

// Sort directions.
const (
	Asc  = query.Asc
	Desc = query.Desc
)

// Where starts a criteria chain for the named document field.
//
//	esmap.Where("author").Is("Ann").And(esmap.Where("year").Gte(2000))
func Where(name string) *Field { return query.Where(name) }

// NewQuery wraps a criteria tree in a query.
func NewQuery(c *Criteria) *Query { return query.NewCriteriaQuery(c) }

// NewStringQuery wraps a raw Elasticsearch query node, passed through
// to the server without interpretation.
func NewStringQuery(raw string) *Query { return query.NewStringQuery(raw) }

// MatchAll returns a query matching every document.
func MatchAll() *Query { return query.NewMatchAllQuery() }

// NewVectorQuery builds a cosine-similarity query over a dense vector
// field. criteria, when non-nil, restricts the scored document set.
func NewVectorQuery(field string, vector []float32, c *Criteria) *Query {
	return query.NewVectorQuery(field, vector, c)
}
