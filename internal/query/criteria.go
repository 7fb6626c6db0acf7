package query

// Operator identifies a leaf comparison on a single field.
type Operator string

// Leaf operators.
const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpIn        Operator = "in"
	OpNotIn     Operator = "not_in"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpBetween   Operator = "between"
	OpPrefix    Operator = "prefix"
	OpLike      Operator = "like"
	OpMatches   Operator = "matches"
	OpExists    Operator = "exists"
)

type nodeKind int

const (
	kindLeaf nodeKind = iota
	kindAnd
	kindOr
	kindNot
)

// Condition is a single field predicate.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
	Values   []any // Between (exactly two) and In/NotIn
}

// Criteria is an immutable boolean expression tree over field conditions.
// Leaves are built via Where; trees are combined with And, Or and Not.
// Combination order is preserved by explicit nesting, so operator
// precedence is exactly what the caller composed.
type Criteria struct {
	kind     nodeKind
	cond     *Condition
	children []*Criteria
}

// Field is a fluent starting point for a leaf criteria.
type Field struct {
	name string
}

// Where starts a criteria for the given document field.
func Where(name string) *Field {
	return &Field{name: name}
}

func (f *Field) leaf(op Operator, value any, values []any) *Criteria {
	return &Criteria{
		kind: kindLeaf,
		cond: &Condition{Field: f.name, Operator: op, Value: value, Values: values},
	}
}

// Is matches documents whose field equals the value exactly.
func (f *Field) Is(value any) *Criteria { return f.leaf(OpEquals, value, nil) }

// Not matches documents whose field does not equal the value.
func (f *Field) Not(value any) *Criteria { return f.leaf(OpNotEquals, value, nil) }

// In matches documents whose field equals any of the values.
func (f *Field) In(values ...any) *Criteria { return f.leaf(OpIn, nil, values) }

// NotIn matches documents whose field equals none of the values.
func (f *Field) NotIn(values ...any) *Criteria { return f.leaf(OpNotIn, nil, values) }

// Gt matches field values strictly greater than value.
func (f *Field) Gt(value any) *Criteria { return f.leaf(OpGt, value, nil) }

// Gte matches field values greater than or equal to value.
func (f *Field) Gte(value any) *Criteria { return f.leaf(OpGte, value, nil) }

// Lt matches field values strictly less than value.
func (f *Field) Lt(value any) *Criteria { return f.leaf(OpLt, value, nil) }

// Lte matches field values less than or equal to value.
func (f *Field) Lte(value any) *Criteria { return f.leaf(OpLte, value, nil) }

// Between matches field values in the inclusive range [lo, hi].
func (f *Field) Between(lo, hi any) *Criteria { return f.leaf(OpBetween, nil, []any{lo, hi}) }

// Prefix matches keyword fields starting with the given prefix.
func (f *Field) Prefix(prefix string) *Criteria { return f.leaf(OpPrefix, prefix, nil) }

// Like matches with a wildcard pattern; % matches any run of characters
// and _ matches a single character.
func (f *Field) Like(pattern string) *Criteria { return f.leaf(OpLike, pattern, nil) }

// Matches runs a full-text match against an analyzed text field.
func (f *Field) Matches(text string) *Criteria { return f.leaf(OpMatches, text, nil) }

// Exists matches documents that have any value for the field.
func (f *Field) Exists() *Criteria { return f.leaf(OpExists, nil, nil) }

// And combines this criteria with others; all must match.
func (c *Criteria) And(others ...*Criteria) *Criteria {
	return combine(kindAnd, c, others)
}

// Or combines this criteria with others; at least one must match.
func (c *Criteria) Or(others ...*Criteria) *Criteria {
	return combine(kindOr, c, others)
}

// Not negates this criteria.
func (c *Criteria) Not() *Criteria {
	return &Criteria{kind: kindNot, children: []*Criteria{c}}
}

// combine builds a new boolean node. Same-kind left operands are
// flattened, which keeps associative chains shallow without changing
// their meaning.
func combine(kind nodeKind, c *Criteria, others []*Criteria) *Criteria {
	children := make([]*Criteria, 0, len(others)+1)
	if c.kind == kind {
		children = append(children, c.children...)
	} else {
		children = append(children, c)
	}
	children = append(children, others...)
	return &Criteria{kind: kind, children: children}
}
