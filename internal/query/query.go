package query

import (
	"encoding/json"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is a single sort clause.
type Sort struct {
	Field string
	Order Order
}

type queryKind int

const (
	kindCriteria queryKind = iota
	kindString
	kindMatchAll
	kindVector
)

// Query describes a complete search request: the query proper plus
// pagination, sorting, source filtering and score cutoff.
type Query struct {
	kind     queryKind
	criteria *Criteria
	raw      json.RawMessage
	vector   []float32
	vecField string

	from     int
	size     int
	sorts    []Sort
	fields   []string
	minScore float64
}

// NewCriteriaQuery creates a query from a criteria tree.
func NewCriteriaQuery(c *Criteria) *Query {
	return &Query{kind: kindCriteria, criteria: c}
}

// NewStringQuery creates a query from a raw Elasticsearch query node,
// passed through unmodified.
func NewStringQuery(raw string) *Query {
	return &Query{kind: kindString, raw: json.RawMessage(raw)}
}

// NewMatchAllQuery creates a query matching every document.
func NewMatchAllQuery() *Query {
	return &Query{kind: kindMatchAll}
}

// NewVectorQuery creates a cosine-similarity query over a dense vector
// field. criteria, when non-nil, filters the scored document set.
func NewVectorQuery(field string, vector []float32, criteria *Criteria) *Query {
	return &Query{kind: kindVector, vecField: field, vector: vector, criteria: criteria}
}

// SetPage sets the result window (from/size). Zero size keeps the
// server default.
func (q *Query) SetPage(from, size int) *Query {
	q.from = from
	q.size = size
	return q
}

// AddSort appends a sort clause.
func (q *Query) AddSort(field string, order Order) *Query {
	q.sorts = append(q.sorts, Sort{Field: field, Order: order})
	return q
}

// SetFields restricts _source to the given document fields.
func (q *Query) SetFields(fields ...string) *Query {
	q.fields = fields
	return q
}

// SetMinScore drops hits scoring below the cutoff.
func (q *Query) SetMinScore(score float64) *Query {
	q.minScore = score
	return q
}

// Size returns the configured page size (0 = server default).
func (q *Query) Size() int { return q.size }

// Node builds just the query node, as used by count and delete-by-query.
func (q *Query) Node() (any, error) {
	switch q.kind {
	case kindCriteria:
		return Build(q.criteria)
	case kindString:
		if len(q.raw) == 0 {
			return nil, domain.NewQueryBuildError("", "string query is empty")
		}
		if !json.Valid(q.raw) {
			return nil, domain.NewQueryBuildError("", "string query is not valid JSON")
		}
		return q.raw, nil
	case kindMatchAll:
		return map[string]any{"match_all": map[string]any{}}, nil
	case kindVector:
		return BuildVector(q.vecField, q.vector, q.criteria)
	default:
		return nil, domain.NewQueryBuildError("", "unknown query kind %d", q.kind)
	}
}

// Body builds the full search request body.
func (q *Query) Body() ([]byte, error) {
	node, err := q.Node()
	if err != nil {
		return nil, err
	}

	body := map[string]any{"query": node}
	if q.from > 0 {
		body["from"] = q.from
	}
	if q.size > 0 {
		body["size"] = q.size
	}
	if len(q.sorts) > 0 {
		sorts := make([]any, len(q.sorts))
		for i, s := range q.sorts {
			sorts[i] = map[string]any{s.Field: map[string]any{"order": string(s.Order)}}
		}
		body["sort"] = sorts
	}
	if len(q.fields) > 0 {
		body["_source"] = q.fields
	}
	if q.minScore > 0 {
		body["min_score"] = q.minScore
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewQueryBuildError("", "marshal request body: %v", err)
	}
	return data, nil
}

// NodeBody builds a body containing only the query node, as accepted by
// the count and delete-by-query endpoints.
func (q *Query) NodeBody() ([]byte, error) {
	node, err := q.Node()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(map[string]any{"query": node})
	if err != nil {
		return nil, domain.NewQueryBuildError("", "marshal request body: %v", err)
	}
	return data, nil
}
