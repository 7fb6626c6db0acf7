package chi

import (
	"testing"

	"github.com/kailas-cloud/esmap"
)

// nodeJSON renders the criteria as the query node JSON the cluster
// would receive.
func nodeJSON(t *testing.T, c *esmap.Criteria) string {
	t.Helper()
	body, err := esmap.NewQuery(c).NodeBody()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return string(body)
}

func TestCriteriaFromFilter_Leaves(t *testing.T) {
	tests := []struct {
		name string
		node FilterNode
		want string
	}{
		{
			name: "eq",
			node: FilterNode{Field: "author", Op: "eq", Value: "Ann"},
			want: `{"query":{"term":{"author":{"value":"Ann"}}}}`,
		},
		{
			name: "in",
			node: FilterNode{Field: "genre", Op: "in", Values: []any{"scifi", "fantasy"}},
			want: `{"query":{"terms":{"genre":["scifi","fantasy"]}}}`,
		},
		{
			name: "between",
			node: FilterNode{Field: "year", Op: "between", Values: []any{2000.0, 2010.0}},
			want: `{"query":{"range":{"year":{"gte":2000,"lte":2010}}}}`,
		},
		{
			name: "prefix",
			node: FilterNode{Field: "title", Op: "prefix", Value: "go"},
			want: `{"query":{"prefix":{"title":{"value":"go"}}}}`,
		},
		{
			name: "exists",
			node: FilterNode{Field: "isbn", Op: "exists"},
			want: `{"query":{"exists":{"field":"isbn"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := criteriaFromFilter(&tt.node)
			if err != nil {
				t.Fatalf("parse filter: %v", err)
			}
			if got := nodeJSON(t, c); got != tt.want {
				t.Errorf("query = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCriteriaFromFilter_Groups(t *testing.T) {
	node := FilterNode{
		Must: []FilterNode{
			{Field: "author", Op: "eq", Value: "Ann"},
			{Field: "year", Op: "gte", Value: 2000.0},
		},
		MustNot: []FilterNode{
			{Field: "draft", Op: "eq", Value: true},
		},
	}

	c, err := criteriaFromFilter(&node)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}

	want := `{"query":{"bool":{"must":[` +
		`{"term":{"author":{"value":"Ann"}}},` +
		`{"range":{"year":{"gte":2000}}},` +
		`{"bool":{"must_not":[{"term":{"draft":{"value":true}}}]}}]}}}`
	if got := nodeJSON(t, c); got != want {
		t.Errorf("query = %s, want %s", got, want)
	}
}

func TestCriteriaFromFilter_NestedGroup(t *testing.T) {
	node := FilterNode{
		Should: []FilterNode{
			{Field: "genre", Op: "eq", Value: "scifi"},
			{Must: []FilterNode{
				{Field: "genre", Op: "eq", Value: "fantasy"},
				{Field: "year", Op: "lt", Value: 1990.0},
			}},
		},
	}

	c, err := criteriaFromFilter(&node)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}

	want := `{"query":{"bool":{"minimum_should_match":1,"should":[` +
		`{"term":{"genre":{"value":"scifi"}}},` +
		`{"bool":{"must":[{"term":{"genre":{"value":"fantasy"}}},{"range":{"year":{"lt":1990}}}]}}]}}}`
	if got := nodeJSON(t, c); got != want {
		t.Errorf("query = %s, want %s", got, want)
	}
}

func TestCriteriaFromFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		node FilterNode
	}{
		{name: "unknown op", node: FilterNode{Field: "a", Op: "fuzzy", Value: "x"}},
		{name: "between needs two values", node: FilterNode{Field: "a", Op: "between", Values: []any{1.0}}},
		{name: "prefix needs string", node: FilterNode{Field: "a", Op: "prefix", Value: 3.0}},
		{name: "empty group", node: FilterNode{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := criteriaFromFilter(&tt.node); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestApplyOptions_InvalidSort(t *testing.T) {
	q := esmap.MatchAll()
	err := applyOptions(q, &SearchRequest{Sort: []SortClause{{Field: "year", Order: "sideways"}}})
	if err == nil {
		t.Error("expected sort order error")
	}
}
