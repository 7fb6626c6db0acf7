package esmap

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// IndexService manages indices.
type IndexService struct {
	client *Client
}

// Create creates an index. The mapping body may be nil for cluster
// defaults. Fails with ErrIndexExists when the index is already there.
func (s *IndexService) Create(ctx context.Context, name string, mapping []byte) (err error) {
	index := s.client.indexName(name)
	defer func(start time.Time) { s.client.observe("create index", index, start, err) }(time.Now())
	return s.client.es.CreateIndex(ctx, index, mapping)
}

// Ensure creates an index unless it already exists. Idempotent.
func (s *IndexService) Ensure(ctx context.Context, name string, mapping []byte) error {
	err := s.Create(ctx, name, mapping)
	if errors.Is(err, domain.ErrIndexExists) {
		return nil
	}
	return err
}

// Delete removes an index.
func (s *IndexService) Delete(ctx context.Context, name string) (err error) {
	index := s.client.indexName(name)
	defer func(start time.Time) { s.client.observe("delete index", index, start, err) }(time.Now())
	return s.client.es.DeleteIndex(ctx, index)
}

// Exists reports whether an index exists.
func (s *IndexService) Exists(ctx context.Context, name string) (ok bool, err error) {
	index := s.client.indexName(name)
	defer func(start time.Time) { s.client.observe("index exists", index, start, err) }(time.Now())
	return s.client.es.IndexExists(ctx, index)
}

// Refresh makes recent writes visible to search.
func (s *IndexService) Refresh(ctx context.Context, name string) (err error) {
	index := s.client.indexName(name)
	defer func(start time.Time) { s.client.observe("refresh", index, start, err) }(time.Now())
	return s.client.es.Refresh(ctx, index)
}
