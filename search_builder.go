package esmap

import (
	"context"
	"time"

	"github.com/kailas-cloud/esmap/internal/domain"
	"github.com/kailas-cloud/esmap/internal/query"
)

// SearchBuilder is a fluent builder for typed queries. Zero value is a
// match-all search; set exactly one of Query, Raw or Semantic.
type SearchBuilder[T any] struct {
	idx *TypedIndex[T]

	criteria *Criteria
	raw      string
	semantic string

	sorts    []Sort
	from     int
	size     int
	minScore float64
	fields   []string
}

// Query sets the criteria tree to search with.
func (b *SearchBuilder[T]) Query(c *Criteria) *SearchBuilder[T] {
	b.criteria = c
	return b
}

// Raw sets a raw Elasticsearch query node, passed through unmodified.
func (b *SearchBuilder[T]) Raw(node string) *SearchBuilder[T] {
	b.raw = node
	return b
}

// Semantic sets a natural language query. The text is embedded with the
// client's embedder and matched against T's dense vector field by
// cosine similarity. Combine with Query to filter the scored set.
func (b *SearchBuilder[T]) Semantic(text string) *SearchBuilder[T] {
	b.semantic = text
	return b
}

// Sort appends an ascending sort on a field.
func (b *SearchBuilder[T]) Sort(field string) *SearchBuilder[T] {
	b.sorts = append(b.sorts, Sort{Field: field, Order: Asc})
	return b
}

// SortDesc appends a descending sort on a field.
func (b *SearchBuilder[T]) SortDesc(field string) *SearchBuilder[T] {
	b.sorts = append(b.sorts, Sort{Field: field, Order: Desc})
	return b
}

// From sets the result offset.
func (b *SearchBuilder[T]) From(n int) *SearchBuilder[T] {
	b.from = n
	return b
}

// Size sets the page size.
func (b *SearchBuilder[T]) Size(n int) *SearchBuilder[T] {
	b.size = n
	return b
}

// MinScore drops hits scoring below the cutoff.
func (b *SearchBuilder[T]) MinScore(score float64) *SearchBuilder[T] {
	b.minScore = score
	return b
}

// Fields restricts the fetched source to the given document fields.
// Entity fields outside the projection come back as zero values.
func (b *SearchBuilder[T]) Fields(fields ...string) *SearchBuilder[T] {
	b.fields = fields
	return b
}

// Do executes the search and returns one page of typed results.
func (b *SearchBuilder[T]) Do(ctx context.Context) (page *Page[T], err error) {
	idx := b.idx
	defer func(start time.Time) { idx.client.observe("search", idx.name, start, err) }(time.Now())

	q, err := b.build(ctx)
	if err != nil {
		return nil, err
	}
	body, err := q.Body()
	if err != nil {
		return nil, err
	}
	resp, err := idx.client.es.Search(ctx, idx.name, body, 0)
	if err != nil {
		return nil, err
	}

	page = &Page[T]{
		Total:    resp.Total,
		MaxScore: resp.MaxScore,
		Hits:     make([]Hit[T], len(resp.Hits)),
	}
	for i, h := range resp.Hits {
		var item T
		if err := idx.client.mapper.Decode(idx.meta, h.ID, h.Source, &item); err != nil {
			return nil, err
		}
		page.Hits[i] = Hit[T]{ID: h.ID, Score: h.Score, Item: item}
	}
	return page, nil
}

// Stream executes the search as a deferred scroll. No request is sent
// until the first Next call on the returned stream.
func (b *SearchBuilder[T]) Stream(ctx context.Context) *Hits[T] {
	idx := b.idx
	scroll := &Scroll{
		ctx:       ctx,
		client:    idx.client,
		index:     idx.name,
		buildQ:    func() (*Query, error) { return b.build(ctx) },
		keepAlive: idx.client.keepAlive,
	}
	return &Hits[T]{scroll: scroll, idx: idx}
}

// Count returns the number of documents matching the builder's query.
func (b *SearchBuilder[T]) Count(ctx context.Context) (n int64, err error) {
	idx := b.idx
	defer func(start time.Time) { idx.client.observe("count", idx.name, start, err) }(time.Now())

	q, err := b.build(ctx)
	if err != nil {
		return 0, err
	}
	body, err := q.NodeBody()
	if err != nil {
		return 0, err
	}
	return idx.client.es.Count(ctx, idx.name, body)
}

// build assembles the Query from the builder state. Semantic queries
// embed the text here, so streams pay for embedding only when consumed.
func (b *SearchBuilder[T]) build(ctx context.Context) (*Query, error) {
	var q *Query
	switch {
	case b.semantic != "":
		vf, ok := b.idx.meta.VectorField()
		if !ok {
			return nil, domain.NewQueryBuildError("", "type %s has no vector field", b.idx.meta.Type())
		}
		vec, err := b.idx.client.embedder.Embed(ctx, b.semantic)
		if err != nil {
			return nil, err
		}
		q = query.NewVectorQuery(vf.Name, vec, b.criteria)
	case b.raw != "":
		q = NewStringQuery(b.raw)
	case b.criteria != nil:
		q = NewQuery(b.criteria)
	default:
		q = MatchAll()
	}

	q.SetPage(b.from, b.size)
	for _, s := range b.sorts {
		q.AddSort(s.Field, s.Order)
	}
	if len(b.fields) > 0 {
		q.SetFields(b.fields...)
	}
	if b.minScore > 0 {
		q.SetMinScore(b.minScore)
	}
	return q, nil
}
