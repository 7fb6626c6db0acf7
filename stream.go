package esmap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/esmap/internal/es"
)

// Scroll streams search results page by page. Construction is free; the
// first request goes out on the first Next call, so building a stream
// and never consuming it costs nothing.
//
// Usage follows bufio.Scanner:
//
//	sc := client.Search("books").Scroll(ctx, q)
//	defer sc.Close()
//	for sc.Next() {
//		hit := sc.Result()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
//
// Cancelling the context stops the stream at the next Next call.
type Scroll struct {
	ctx       context.Context
	client    *Client
	index     string
	q         *Query
	buildQ    func() (*Query, error) // deferred query assembly, ran on first fetch
	keepAlive time.Duration

	started  bool
	finished bool
	closed   bool
	scrollID string
	total    int64
	buf      []es.Hit
	pos      int
	cur      SearchHit
	err      error
}

// Next advances to the next hit. It returns false when the stream is
// exhausted, the context is cancelled, or a request fails; Err tells
// which.
func (s *Scroll) Next() bool {
	if s.err != nil || s.closed {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}

	if s.pos >= len(s.buf) {
		if !s.fetch() {
			return false
		}
	}

	hit := s.buf[s.pos]
	s.pos++

	var fields map[string]any
	if len(hit.Source) > 0 {
		if err := json.Unmarshal(hit.Source, &fields); err != nil {
			s.err = fmt.Errorf("decode hit %q: %w", hit.ID, err)
			return false
		}
	}
	s.cur = SearchHit{ID: hit.ID, Score: hit.Score, Fields: fields}
	return true
}

// fetch loads the next page into the buffer. Returns false when the
// stream is done or failed.
func (s *Scroll) fetch() bool {
	if s.finished {
		return false
	}

	var (
		resp *es.SearchResponse
		err  error
	)
	if !s.started {
		if s.q == nil && s.buildQ != nil {
			if s.q, err = s.buildQ(); err != nil {
				s.err = err
				return false
			}
		}
		var body []byte
		body, err = s.q.Body()
		if err != nil {
			s.err = err
			return false
		}
		start := time.Now()
		resp, err = s.client.es.Search(s.ctx, s.index, body, s.keepAlive)
		s.client.observe("scroll", s.index, start, err)
		s.started = true
	} else {
		start := time.Now()
		resp, err = s.client.es.Scroll(s.ctx, s.scrollID, s.keepAlive)
		s.client.observe("scroll", s.index, start, err)
	}
	if err != nil {
		s.err = err
		return false
	}

	s.scrollID = resp.ScrollID
	s.total = resp.Total
	s.buf = resp.Hits
	s.pos = 0
	if len(s.buf) == 0 {
		s.finished = true
		return false
	}
	return true
}

// Result returns the hit read by the last successful Next call.
func (s *Scroll) Result() SearchHit { return s.cur }

// Total returns the total match count, known after the first page.
func (s *Scroll) Total() int64 { return s.total }

// Err returns the first error hit by the stream, nil on clean
// exhaustion.
func (s *Scroll) Err() error { return s.err }

// Close releases the server-side scroll context. Safe to call at any
// point, including before the first Next and more than once. Uses its
// own deadline so cleanup still runs after the stream context is
// cancelled.
func (s *Scroll) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.scrollID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.es.ClearScroll(ctx, s.scrollID)
}

// Hits streams typed search results. Obtained from
// SearchBuilder.Stream; same contract as Scroll.
type Hits[T any] struct {
	scroll *Scroll
	idx    *TypedIndex[T]
	cur    Hit[T]
	err    error
}

// Next advances to the next typed hit.
func (h *Hits[T]) Next() bool {
	if h.err != nil {
		return false
	}
	if !h.scroll.Next() {
		return false
	}

	raw := h.scroll.buf[h.scroll.pos-1]
	var item T
	if err := h.idx.client.mapper.Decode(h.idx.meta, raw.ID, raw.Source, &item); err != nil {
		h.err = err
		return false
	}
	h.cur = Hit[T]{ID: raw.ID, Score: raw.Score, Item: item}
	return true
}

// Result returns the hit read by the last successful Next call.
func (h *Hits[T]) Result() Hit[T] { return h.cur }

// Total returns the total match count, known after the first page.
func (h *Hits[T]) Total() int64 { return h.scroll.Total() }

// Err returns the first error hit by the stream.
func (h *Hits[T]) Err() error {
	if h.err != nil {
		return h.err
	}
	return h.scroll.Err()
}

// Close releases the server-side scroll context.
func (h *Hits[T]) Close() error { return h.scroll.Close() }
