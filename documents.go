package esmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/esmap/internal/es"
)

// DocumentService reads and writes untyped documents in one index.
// Typed access goes through TypedIndex.
type DocumentService struct {
	client *Client
	index  string
}

// Index writes a document and returns its identifier. An empty
// Document.ID lets the server assign one.
func (s *DocumentService) Index(ctx context.Context, doc Document) (id string, err error) {
	defer func(start time.Time) { s.client.observe("index", s.index, start, err) }(time.Now())

	body, merr := json.Marshal(doc.Fields)
	if merr != nil {
		return "", fmt.Errorf("index document: %w", merr)
	}
	return s.client.es.IndexDoc(ctx, s.index, doc.ID, body)
}

// Get fetches a document by identifier.
func (s *DocumentService) Get(ctx context.Context, id string) (doc Document, err error) {
	defer func(start time.Time) { s.client.observe("get", s.index, start, err) }(time.Now())

	src, err := s.client.es.GetDoc(ctx, s.index, id)
	if err != nil {
		return Document{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(src, &fields); err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return Document{ID: id, Fields: fields}, nil
}

// Exists reports whether a document exists.
func (s *DocumentService) Exists(ctx context.Context, id string) (ok bool, err error) {
	defer func(start time.Time) { s.client.observe("exists", s.index, start, err) }(time.Now())
	return s.client.es.ExistsDoc(ctx, s.index, id)
}

// Delete removes a document by identifier.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.client.observe("delete", s.index, start, err) }(time.Now())
	return s.client.es.DeleteDoc(ctx, s.index, id)
}

// Count returns the number of documents in the index.
func (s *DocumentService) Count(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { s.client.observe("count", s.index, start, err) }(time.Now())
	return s.client.es.Count(ctx, s.index, nil)
}

// Bulk writes several documents in one request. Partial failures do not
// return an error; check BulkResult.Errors.
func (s *DocumentService) Bulk(ctx context.Context, docs []Document) (result *BulkResult, err error) {
	defer func(start time.Time) { s.client.observe("bulk", s.index, start, err) }(time.Now())

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, doc := range docs {
		action := map[string]any{"index": map[string]any{}}
		if doc.ID != "" {
			action["index"] = map[string]any{"_id": doc.ID}
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("bulk item %d: %w", i, err)
		}
		if err := enc.Encode(doc.Fields); err != nil {
			return nil, fmt.Errorf("bulk item %d: %w", i, err)
		}
	}

	raw, err := s.client.es.Bulk(ctx, s.index, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return fromBulkResult(raw), nil
}

func fromBulkResult(raw *es.BulkResult) *BulkResult {
	out := &BulkResult{Errors: raw.Errors, Items: make([]BulkItem, len(raw.Items))}
	for i, item := range raw.Items {
		out.Items[i] = BulkItem{ID: item.ID, Status: item.Status, Reason: item.Reason}
	}
	return out
}
