package esmap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_RequiresAddresses(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without addresses")
	}
}

func TestNew_ClusterNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(
		WithAddresses(srv.URL),
		WithReadinessTimeout(300*time.Millisecond),
	)
	if !errors.Is(err, ErrClient) {
		t.Errorf("error %v does not match ErrClient", err)
	}
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestClient_IndexPrefix(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"count":0}`))
	}, WithIndexPrefix("staging-"))

	if _, err := client.Documents("books").Count(context.Background()); err != nil {
		t.Fatalf("count: %v", err)
	}
	if gotPath != "/staging-books/_count" {
		t.Errorf("path = %q, want /staging-books/_count", gotPath)
	}
}
