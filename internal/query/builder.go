package query

import (
	"strings"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// Build translates a criteria tree into an Elasticsearch query node.
// AND groups become bool.must, OR groups bool.should with
// minimum_should_match 1, negation bool.must_not.
func Build(c *Criteria) (map[string]any, error) {
	if c == nil {
		return nil, domain.NewQueryBuildError("", "criteria is nil")
	}

	switch c.kind {
	case kindLeaf:
		return buildLeaf(c.cond)
	case kindAnd:
		nodes, err := buildChildren(c.children)
		if err != nil {
			return nil, err
		}
		return map[string]any{"bool": map[string]any{"must": nodes}}, nil
	case kindOr:
		nodes, err := buildChildren(c.children)
		if err != nil {
			return nil, err
		}
		return map[string]any{"bool": map[string]any{
			"should":               nodes,
			"minimum_should_match": 1,
		}}, nil
	case kindNot:
		nodes, err := buildChildren(c.children)
		if err != nil {
			return nil, err
		}
		return map[string]any{"bool": map[string]any{"must_not": nodes}}, nil
	default:
		return nil, domain.NewQueryBuildError("", "unknown criteria node kind %d", c.kind)
	}
}

func buildChildren(children []*Criteria) ([]any, error) {
	if len(children) == 0 {
		return nil, domain.NewQueryBuildError("", "boolean group has no operands")
	}
	nodes := make([]any, len(children))
	for i, child := range children {
		node, err := Build(child)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
	}
	return nodes, nil
}

func buildLeaf(cond *Condition) (map[string]any, error) {
	if cond.Field == "" {
		return nil, domain.NewQueryBuildError("", "field name is required")
	}

	switch cond.Operator {
	case OpEquals:
		return term(cond.Field, cond.Value), nil
	case OpNotEquals:
		return mustNot(term(cond.Field, cond.Value)), nil
	case OpIn:
		if len(cond.Values) == 0 {
			return nil, domain.NewQueryBuildError(cond.Field, "in requires at least one value")
		}
		return terms(cond.Field, cond.Values), nil
	case OpNotIn:
		if len(cond.Values) == 0 {
			return nil, domain.NewQueryBuildError(cond.Field, "not_in requires at least one value")
		}
		return mustNot(terms(cond.Field, cond.Values)), nil
	case OpGt, OpGte, OpLt, OpLte:
		return map[string]any{"range": map[string]any{
			cond.Field: map[string]any{string(cond.Operator): cond.Value},
		}}, nil
	case OpBetween:
		if len(cond.Values) != 2 {
			return nil, domain.NewQueryBuildError(cond.Field, "between requires exactly two values, got %d", len(cond.Values))
		}
		return map[string]any{"range": map[string]any{
			cond.Field: map[string]any{"gte": cond.Values[0], "lte": cond.Values[1]},
		}}, nil
	case OpPrefix:
		return map[string]any{"prefix": map[string]any{
			cond.Field: map[string]any{"value": cond.Value},
		}}, nil
	case OpLike:
		pattern, ok := cond.Value.(string)
		if !ok {
			return nil, domain.NewQueryBuildError(cond.Field, "like requires a string pattern")
		}
		pattern = strings.ReplaceAll(pattern, "%", "*")
		pattern = strings.ReplaceAll(pattern, "_", "?")
		return map[string]any{"wildcard": map[string]any{
			cond.Field: map[string]any{"value": pattern},
		}}, nil
	case OpMatches:
		return map[string]any{"match": map[string]any{
			cond.Field: map[string]any{"query": cond.Value},
		}}, nil
	case OpExists:
		return map[string]any{"exists": map[string]any{"field": cond.Field}}, nil
	default:
		return nil, domain.NewQueryBuildError(cond.Field, "unsupported operator %q", cond.Operator)
	}
}

func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{
		field: map[string]any{"value": value},
	}}
}

func terms(field string, values []any) map[string]any {
	return map[string]any{"terms": map[string]any{field: values}}
}

func mustNot(node map[string]any) map[string]any {
	return map[string]any{"bool": map[string]any{"must_not": []any{node}}}
}

// BuildVector builds a script_score query computing cosine similarity
// between the stored dense vector and the query vector. An optional
// filter criteria restricts the scored document set.
func BuildVector(field string, vector []float32, filter *Criteria) (map[string]any, error) {
	if field == "" {
		return nil, domain.NewQueryBuildError("", "vector field name is required")
	}
	if len(vector) == 0 {
		return nil, domain.NewQueryBuildError(field, "query vector is empty")
	}

	inner := map[string]any{"match_all": map[string]any{}}
	if filter != nil {
		node, err := Build(filter)
		if err != nil {
			return nil, err
		}
		inner = map[string]any{"bool": map[string]any{"filter": []any{node}}}
	}

	return map[string]any{"script_score": map[string]any{
		"query": inner,
		"script": map[string]any{
			"source": "cosineSimilarity(params.query_vector, '" + field + "') + 1.0",
			"params": map[string]any{"query_vector": vector},
		},
	}}, nil
}
