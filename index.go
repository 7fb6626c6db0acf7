package esmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/esmap/internal/mapping"
)

// TypedIndex is a schema-first index handle for one entity type. The
// schema comes from T's struct tags, parsed once at construction.
type TypedIndex[T any] struct {
	name   string
	client *Client
	meta   *mapping.Metadata
}

// NewIndex creates a typed index handle bound to the given index name.
// T must be a struct with esmap tags.
func NewIndex[T any](client *Client, name string) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", name, err)
	}
	return &TypedIndex[T]{name: client.indexName(name), client: client, meta: meta}, nil
}

// NewIndexFor creates a typed index handle using T's derived index
// name: the IndexNamer result, or the snake_cased type name.
func NewIndexFor[T any](client *Client) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}
	return &TypedIndex[T]{name: client.indexName(meta.IndexName()), client: client, meta: meta}, nil
}

// Name returns the physical index name, prefix included.
func (idx *TypedIndex[T]) Name() string { return idx.name }

// Ensure creates the index with a mapping generated from T's schema,
// unless it already exists. Idempotent.
func (idx *TypedIndex[T]) Ensure(ctx context.Context) error {
	body, err := idx.meta.MappingJSON()
	if err != nil {
		return fmt.Errorf("ensure %q: %w", idx.name, err)
	}
	return idx.client.Indices().Ensure(ctx, idx.unprefixed(), body)
}

// Save writes one entity and returns its document identifier. With an
// empty id field the server assigns one.
func (idx *TypedIndex[T]) Save(ctx context.Context, item T) (id string, err error) {
	defer func(start time.Time) { idx.client.observe("save", idx.name, start, err) }(time.Now())

	id, src, err := idx.client.mapper.Encode(idx.meta, item)
	if err != nil {
		return "", err
	}
	return idx.client.es.IndexDoc(ctx, idx.name, id, src)
}

// SaveAll writes entities in one bulk request. Partial failures do not
// return an error; check BulkResult.Errors.
func (idx *TypedIndex[T]) SaveAll(ctx context.Context, items []T) (result *BulkResult, err error) {
	defer func(start time.Time) { idx.client.observe("save all", idx.name, start, err) }(time.Now())

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, item := range items {
		id, src, err := idx.client.mapper.Encode(idx.meta, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		action := map[string]any{"index": map[string]any{}}
		if id != "" {
			action["index"] = map[string]any{"_id": id}
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		buf.Write(src)
		buf.WriteByte('\n')
	}

	raw, err := idx.client.es.Bulk(ctx, idx.name, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return fromBulkResult(raw), nil
}

// Get fetches one entity by identifier.
func (idx *TypedIndex[T]) Get(ctx context.Context, id string) (item T, err error) {
	defer func(start time.Time) { idx.client.observe("get", idx.name, start, err) }(time.Now())

	src, err := idx.client.es.GetDoc(ctx, idx.name, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := idx.client.mapper.Decode(idx.meta, id, src, &item); err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

// Exists reports whether an entity exists.
func (idx *TypedIndex[T]) Exists(ctx context.Context, id string) (ok bool, err error) {
	defer func(start time.Time) { idx.client.observe("exists", idx.name, start, err) }(time.Now())
	return idx.client.es.ExistsDoc(ctx, idx.name, id)
}

// Delete removes an entity by identifier.
func (idx *TypedIndex[T]) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { idx.client.observe("delete", idx.name, start, err) }(time.Now())
	return idx.client.es.DeleteDoc(ctx, idx.name, id)
}

// DeleteByQuery removes every entity matching the criteria and returns
// the number deleted.
func (idx *TypedIndex[T]) DeleteByQuery(ctx context.Context, c *Criteria) (n int64, err error) {
	defer func(start time.Time) { idx.client.observe("delete by query", idx.name, start, err) }(time.Now())

	body, err := NewQuery(c).NodeBody()
	if err != nil {
		return 0, err
	}
	return idx.client.es.DeleteByQuery(ctx, idx.name, body)
}

// Count returns the number of entities in the index.
func (idx *TypedIndex[T]) Count(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { idx.client.observe("count", idx.name, start, err) }(time.Now())
	return idx.client.es.Count(ctx, idx.name, nil)
}

// Search returns a fluent builder for typed queries against this index.
func (idx *TypedIndex[T]) Search() *SearchBuilder[T] {
	return &SearchBuilder[T]{idx: idx}
}

// unprefixed strips the client prefix so index management calls do not
// apply it twice.
func (idx *TypedIndex[T]) unprefixed() string {
	return idx.name[len(idx.client.prefix):]
}
