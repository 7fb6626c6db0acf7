package chi

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esmap"
)

// FilterNode is one element of a filter expression. A node with Field
// set is a leaf condition; otherwise it is a nested boolean group.
type FilterNode struct {
	Field  string `json:"field,omitempty"`
	Op     string `json:"op,omitempty"`
	Value  any    `json:"value,omitempty"`
	Values []any  `json:"values,omitempty"`

	Must    []FilterNode `json:"must,omitempty"`
	Should  []FilterNode `json:"should,omitempty"`
	MustNot []FilterNode `json:"must_not,omitempty"`
}

// SortClause orders search results by one field.
type SortClause struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"` // asc (default) or desc
}

// SemanticClause requests vector similarity scoring on a dense vector
// field, with the text embedded server side.
type SemanticClause struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// SearchRequest is the gateway search body. Query, Raw and Semantic are
// mutually exclusive; with none set the request matches everything.
type SearchRequest struct {
	Query    *FilterNode     `json:"query,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
	Semantic *SemanticClause `json:"semantic,omitempty"`

	From     int          `json:"from,omitempty"`
	Size     int          `json:"size,omitempty"`
	Sort     []SortClause `json:"sort,omitempty"`
	Fields   []string     `json:"fields,omitempty"`
	MinScore float64      `json:"min_score,omitempty"`
}

// DocumentRequest carries one document body for writes.
type DocumentRequest struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

// BatchRequest carries several documents for one bulk write.
type BatchRequest struct {
	Documents []DocumentRequest `json:"documents"`
}

const maxBatchSize = 100

// criteriaFromFilter converts a filter expression tree into SDK criteria.
func criteriaFromFilter(n *FilterNode) (*esmap.Criteria, error) {
	if n == nil {
		return nil, nil
	}
	if n.Field != "" {
		return leafFromNode(n)
	}
	if len(n.Must) == 0 && len(n.Should) == 0 && len(n.MustNot) == 0 {
		return nil, fmt.Errorf("filter group must have must, should or must_not clauses")
	}

	var parts []*esmap.Criteria

	if c, err := combineAll(n.Must); err != nil {
		return nil, err
	} else if c != nil {
		parts = append(parts, c)
	}

	if len(n.Should) > 0 {
		children, err := childrenOf(n.Should)
		if err != nil {
			return nil, err
		}
		c := children[0]
		if len(children) > 1 {
			c = c.Or(children[1:]...)
		}
		parts = append(parts, c)
	}

	for _, child := range n.MustNot {
		c, err := criteriaFromFilter(&child)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c.Not())
	}

	out := parts[0]
	if len(parts) > 1 {
		out = out.And(parts[1:]...)
	}
	return out, nil
}

func childrenOf(nodes []FilterNode) ([]*esmap.Criteria, error) {
	out := make([]*esmap.Criteria, len(nodes))
	for i := range nodes {
		c, err := criteriaFromFilter(&nodes[i])
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func combineAll(nodes []FilterNode) (*esmap.Criteria, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	children, err := childrenOf(nodes)
	if err != nil {
		return nil, err
	}
	c := children[0]
	if len(children) > 1 {
		c = c.And(children[1:]...)
	}
	return c, nil
}

func leafFromNode(n *FilterNode) (*esmap.Criteria, error) {
	f := esmap.Where(n.Field)
	switch n.Op {
	case "eq":
		return f.Is(n.Value), nil
	case "ne":
		return f.Not(n.Value), nil
	case "in":
		return f.In(n.Values...), nil
	case "not_in":
		return f.NotIn(n.Values...), nil
	case "gt":
		return f.Gt(n.Value), nil
	case "gte":
		return f.Gte(n.Value), nil
	case "lt":
		return f.Lt(n.Value), nil
	case "lte":
		return f.Lte(n.Value), nil
	case "between":
		if len(n.Values) != 2 {
			return nil, fmt.Errorf("op between on %q needs exactly two values", n.Field)
		}
		return f.Between(n.Values[0], n.Values[1]), nil
	case "prefix":
		s, err := stringValue(n)
		if err != nil {
			return nil, err
		}
		return f.Prefix(s), nil
	case "like":
		s, err := stringValue(n)
		if err != nil {
			return nil, err
		}
		return f.Like(s), nil
	case "match":
		s, err := stringValue(n)
		if err != nil {
			return nil, err
		}
		return f.Matches(s), nil
	case "exists":
		return f.Exists(), nil
	default:
		return nil, fmt.Errorf("unknown op %q on field %q", n.Op, n.Field)
	}
}

func stringValue(n *FilterNode) (string, error) {
	s, ok := n.Value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("op %s on %q needs a string value", n.Op, n.Field)
	}
	return s, nil
}

func applyOptions(q *esmap.Query, req *SearchRequest) error {
	q.SetPage(req.From, req.Size)
	for _, s := range req.Sort {
		order := esmap.Asc
		switch s.Order {
		case "", "asc":
		case "desc":
			order = esmap.Desc
		default:
			return fmt.Errorf("sort order must be asc or desc, got %q", s.Order)
		}
		if s.Field == "" {
			return fmt.Errorf("sort clause needs a field")
		}
		q.AddSort(s.Field, order)
	}
	if len(req.Fields) > 0 {
		q.SetFields(req.Fields...)
	}
	if req.MinScore > 0 {
		q.SetMinScore(req.MinScore)
	}
	return nil
}
