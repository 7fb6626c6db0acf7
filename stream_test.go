package esmap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

// scrollScript serves a fixed sequence of scroll pages and counts the
// requests it sees.
type scrollScript struct {
	pages [][]map[string]any
	total int

	searches atomic.Int32
	scrolls  atomic.Int32
	clears   atomic.Int32
}

func (s *scrollScript) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_search/scroll" && r.Method == http.MethodDelete:
			s.clears.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{"succeeded": true})
		case r.URL.Path == "/_search/scroll":
			s.scrolls.Add(1)
			s.servePage(w, int(s.scrolls.Load()))
		default:
			s.searches.Add(1)
			s.servePage(w, 0)
		}
	}
}

func (s *scrollScript) servePage(w http.ResponseWriter, n int) {
	var hits []map[string]any
	if n < len(s.pages) {
		hits = s.pages[n]
	}
	if hits == nil {
		hits = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_scroll_id": "scroll-1",
		"hits": map[string]any{
			"total":     map[string]any{"value": s.total},
			"max_score": 1.0,
			"hits":      hits,
		},
	})
}

func scriptedPages() *scrollScript {
	return &scrollScript{
		total: 3,
		pages: [][]map[string]any{
			{
				{"_id": "b-1", "_score": 1.0, "_source": map[string]any{"title": "one"}},
				{"_id": "b-2", "_score": 0.9, "_source": map[string]any{"title": "two"}},
			},
			{
				{"_id": "b-3", "_score": 0.8, "_source": map[string]any{"title": "three"}},
			},
		},
	}
}

func TestScroll_StreamsAllPages(t *testing.T) {
	script := scriptedPages()
	client := newTestClient(t, script.handler())

	sc := client.Search("books").Scroll(context.Background(), MatchAll())
	defer sc.Close()

	var ids []string
	for sc.Next() {
		ids = append(ids, sc.Result().ID)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}

	want := []string{"b-1", "b-2", "b-3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if sc.Total() != 3 {
		t.Errorf("total = %d, want 3", sc.Total())
	}

	if err := sc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if script.clears.Load() != 1 {
		t.Errorf("clear scroll calls = %d, want 1", script.clears.Load())
	}
}

func TestScroll_DeferredUntilFirstNext(t *testing.T) {
	script := scriptedPages()
	client := newTestClient(t, script.handler())

	sc := client.Search("books").Scroll(context.Background(), MatchAll())
	if err := sc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if n := script.searches.Load(); n != 0 {
		t.Errorf("search requests before Next = %d, want 0", n)
	}
	if sc.Next() {
		t.Error("Next after Close should return false")
	}
}

func TestScroll_ContextCancellation(t *testing.T) {
	script := scriptedPages()
	client := newTestClient(t, script.handler())

	ctx, cancel := context.WithCancel(context.Background())
	sc := client.Search("books").Scroll(ctx, MatchAll())
	defer sc.Close()

	if !sc.Next() {
		t.Fatalf("first Next failed: %v", sc.Err())
	}

	cancel()
	for sc.Next() {
	}
	if !errors.Is(sc.Err(), context.Canceled) {
		t.Errorf("error %v does not match context.Canceled", sc.Err())
	}

	// Close still releases the server-side context after cancellation.
	if err := sc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if script.clears.Load() != 1 {
		t.Errorf("clear scroll calls = %d, want 1", script.clears.Load())
	}
}

func TestHits_TypedStream(t *testing.T) {
	script := scriptedPages()
	client := newTestClient(t, script.handler())

	idx, err := NewIndex[testBook](client, "books")
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	stream := idx.Search().Query(Where("title").Exists()).Stream(context.Background())
	defer stream.Close()

	if n := script.searches.Load(); n != 0 {
		t.Fatalf("search requests before Next = %d, want 0", n)
	}

	var titles []string
	for stream.Next() {
		hit := stream.Result()
		if hit.Item.ID != hit.ID {
			t.Errorf("item id %q != hit id %q", hit.Item.ID, hit.ID)
		}
		titles = append(titles, hit.Item.Title)
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(titles) != 3 || titles[2] != "three" {
		t.Errorf("titles = %v", titles)
	}
	if stream.Total() != 3 {
		t.Errorf("total = %d, want 3", stream.Total())
	}
}

func TestScroll_InvalidQueryFailsOnFirstNext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	sc := client.Search("books").Scroll(context.Background(), NewStringQuery("{nope"))
	defer sc.Close()

	if sc.Next() {
		t.Fatal("Next should fail for an invalid query")
	}
	if !errors.Is(sc.Err(), ErrQueryBuild) {
		t.Errorf("error %v does not match ErrQueryBuild", sc.Err())
	}
}

func TestScroll_UntypedResultFields(t *testing.T) {
	script := scriptedPages()
	client := newTestClient(t, script.handler())

	sc := client.Search("books").Scroll(context.Background(), MatchAll())
	defer sc.Close()

	if !sc.Next() {
		t.Fatalf("first Next failed: %v", sc.Err())
	}
	hit := sc.Result()
	if hit.ID != "b-1" || hit.Fields["title"] != "one" {
		b, _ := json.Marshal(hit)
		t.Errorf("hit = %s", b)
	}
}
