package esmap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// newTestClient points a client at a handler posing as a cluster. Ping
// and the product verification header are served here so individual
// tests only deal with the requests they care about.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.Method == http.MethodHead && r.URL.Path == "/" {
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithAddresses(srv.URL),
		WithReadinessTimeout(2 * time.Second),
	}, opts...)
	client, err := New(opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

// fakeCluster is an in-memory document store speaking just enough of
// the REST API for roundtrip tests.
type fakeCluster struct {
	mu      sync.Mutex
	indices map[string]map[string]json.RawMessage
	nextID  int
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{indices: map[string]map[string]json.RawMessage{}}
}

func (f *fakeCluster) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 1:
			f.serveIndex(w, r, parts[0])
		case len(parts) >= 2 && parts[1] == "_doc":
			id := ""
			if len(parts) == 3 {
				id = parts[2]
			}
			f.serveDoc(w, r, parts[0], id)
		case len(parts) == 2 && parts[1] == "_bulk":
			f.serveBulk(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "_count":
			writeJSON(w, http.StatusOK, map[string]any{"count": len(f.indices[parts[0]])})
		case len(parts) == 2 && parts[1] == "_refresh":
			writeJSON(w, http.StatusOK, map[string]any{})
		case len(parts) == 2 && parts[1] == "_search":
			f.serveSearch(w, parts[0])
		case len(parts) == 2 && parts[1] == "_delete_by_query":
			n := len(f.indices[parts[0]])
			f.indices[parts[0]] = map[string]json.RawMessage{}
			writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
		default:
			http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotImplemented)
		}
	}
}

func (f *fakeCluster) serveIndex(w http.ResponseWriter, r *http.Request, index string) {
	switch r.Method {
	case http.MethodPut:
		if _, ok := f.indices[index]; ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  map[string]any{"type": "resource_already_exists_exception", "reason": "index already exists"},
				"status": http.StatusBadRequest,
			})
			return
		}
		f.indices[index] = map[string]json.RawMessage{}
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
	case http.MethodHead:
		if _, ok := f.indices[index]; !ok {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodDelete:
		if _, ok := f.indices[index]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":  map[string]any{"type": "index_not_found_exception", "reason": "no such index"},
				"status": http.StatusNotFound,
			})
			return
		}
		delete(f.indices, index)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func (f *fakeCluster) serveDoc(w http.ResponseWriter, r *http.Request, index, id string) {
	docs, ok := f.indices[index]
	if !ok {
		// Writes auto-create the index like the real thing.
		docs = map[string]json.RawMessage{}
		f.indices[index] = docs
	}

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		if id == "" {
			f.nextID++
			id = fmt.Sprintf("generated-%d", f.nextID)
		}
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		docs[id] = body
		writeJSON(w, http.StatusCreated, map[string]any{"_id": id, "result": "created"})
	case http.MethodGet:
		src, ok := docs[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"_id": id, "found": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"_id": id, "found": true, "_source": src})
	case http.MethodHead:
		if _, ok := docs[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodDelete:
		if _, ok := docs[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"result": "not_found"})
			return
		}
		delete(docs, id)
		writeJSON(w, http.StatusOK, map[string]any{"result": "deleted"})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func (f *fakeCluster) serveBulk(w http.ResponseWriter, r *http.Request, index string) {
	docs, ok := f.indices[index]
	if !ok {
		docs = map[string]json.RawMessage{}
		f.indices[index] = docs
	}

	var items []map[string]any
	sc := bufio.NewScanner(r.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var action struct {
			Index struct {
				ID string `json:"_id"`
			} `json:"index"`
		}
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !sc.Scan() {
			break
		}
		id := action.Index.ID
		if id == "" {
			f.nextID++
			id = fmt.Sprintf("generated-%d", f.nextID)
		}
		docs[id] = json.RawMessage(strings.TrimSpace(sc.Text()))
		items = append(items, map[string]any{"index": map[string]any{"_id": id, "status": http.StatusCreated}})
	}
	writeJSON(w, http.StatusOK, map[string]any{"errors": false, "items": items})
}

func (f *fakeCluster) serveSearch(w http.ResponseWriter, index string) {
	hits := make([]map[string]any, 0, len(f.indices[index]))
	for id, src := range f.indices[index] {
		hits = append(hits, map[string]any{"_id": id, "_score": 1.0, "_source": src})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hits": map[string]any{
			"total":     map[string]any{"value": len(hits)},
			"max_score": 1.0,
			"hits":      hits,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
