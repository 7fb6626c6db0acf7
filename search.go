package esmap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/esmap/internal/es"
)

// SearchService executes queries against one index.
type SearchService struct {
	client *Client
	index  string
}

// Find executes a query and returns one page of untyped results.
func (s *SearchService) Find(ctx context.Context, q *Query) (page *SearchPage, err error) {
	defer func(start time.Time) { s.client.observe("search", s.index, start, err) }(time.Now())

	body, err := q.Body()
	if err != nil {
		return nil, err
	}
	resp, err := s.client.es.Search(ctx, s.index, body, 0)
	if err != nil {
		return nil, err
	}
	return fromSearchResponse(resp)
}

// Count returns the number of documents matching the query. Paging and
// sorting options on the query are ignored.
func (s *SearchService) Count(ctx context.Context, q *Query) (n int64, err error) {
	defer func(start time.Time) { s.client.observe("count", s.index, start, err) }(time.Now())

	body, err := q.NodeBody()
	if err != nil {
		return 0, err
	}
	return s.client.es.Count(ctx, s.index, body)
}

// DeleteByQuery removes every document matching the query and returns
// the number deleted.
func (s *SearchService) DeleteByQuery(ctx context.Context, q *Query) (n int64, err error) {
	defer func(start time.Time) { s.client.observe("delete by query", s.index, start, err) }(time.Now())

	body, err := q.NodeBody()
	if err != nil {
		return 0, err
	}
	return s.client.es.DeleteByQuery(ctx, s.index, body)
}

// Scroll returns a deferred result stream for the query. No request is
// sent until the first Next call.
func (s *SearchService) Scroll(ctx context.Context, q *Query) *Scroll {
	return &Scroll{
		ctx:       ctx,
		client:    s.client,
		index:     s.index,
		q:         q,
		keepAlive: s.client.keepAlive,
	}
}

func fromSearchResponse(resp *es.SearchResponse) (*SearchPage, error) {
	page := &SearchPage{
		Total:    resp.Total,
		MaxScore: resp.MaxScore,
		Hits:     make([]SearchHit, len(resp.Hits)),
	}
	for i, h := range resp.Hits {
		var fields map[string]any
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &fields); err != nil {
				return nil, fmt.Errorf("decode hit %q: %w", h.ID, err)
			}
		}
		page.Hits[i] = SearchHit{ID: h.ID, Score: h.Score, Fields: fields}
	}
	return page, nil
}
