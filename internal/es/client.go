// Package es adapts the official Elasticsearch HTTP client to the small
// surface the mapper and the service handles need. It owns response
// decoding and error classification; nothing above it reads esapi
// responses directly.
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// Config carries the connection settings for one cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	Transport http.RoundTripper
}

// Client wraps the official typed client. One request per call, no
// retries and no caching at this layer.
type Client struct {
	es *elasticsearch.Client
}

// NewClient builds a client from the config.
func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, domain.NewTransportError("new client", err)
	}
	return &Client{es: es}, nil
}

// Hit is one search result row.
type Hit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// SearchResponse is the decoded body of a search or scroll request.
type SearchResponse struct {
	ScrollID string  `json:"_scroll_id"`
	MaxScore float64 `json:"max_score"`
	Total    int64
	Hits     []Hit
}

// BulkItem reports the outcome of one action in a bulk request.
type BulkItem struct {
	ID     string
	Status int
	Reason string
}

// BulkResult is the decoded body of a bulk request.
type BulkResult struct {
	Errors bool
	Items  []BulkItem
}

// Ping checks cluster availability.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return domain.NewTransportError("ping", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError("ping", res)
	}
	return nil
}

// CreateIndex creates an index with the given settings and mappings body.
// A nil body creates the index with cluster defaults.
func (c *Client) CreateIndex(ctx context.Context, index string, body []byte) error {
	opts := []func(*esapi.IndicesCreateRequest){
		c.es.Indices.Create.WithContext(ctx),
	}
	if body != nil {
		opts = append(opts, c.es.Indices.Create.WithBody(bytes.NewReader(body)))
	}
	res, err := c.es.Indices.Create(index, opts...)
	if err != nil {
		return domain.NewTransportError("create index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError("create index", res)
	}
	return nil
}

// DeleteIndex removes an index.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Delete(
		[]string{index},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return domain.NewTransportError("delete index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError("delete index", res)
	}
	return nil
}

// IndexExists reports whether the index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := c.es.Indices.Exists(
		[]string{index},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, domain.NewTransportError("index exists", err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, decodeError("index exists", res)
	}
}

// Refresh makes recent writes visible to search.
func (c *Client) Refresh(ctx context.Context, index string) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(index),
	)
	if err != nil {
		return domain.NewTransportError("refresh", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError("refresh", res)
	}
	return nil
}

// IndexDoc writes a document and returns its identifier. With an empty
// id the server assigns one.
func (c *Client) IndexDoc(ctx context.Context, index, id string, body []byte) (string, error) {
	opts := []func(*esapi.IndexRequest){
		c.es.Index.WithContext(ctx),
	}
	if id != "" {
		opts = append(opts, c.es.Index.WithDocumentID(id))
	}
	res, err := c.es.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return "", domain.NewTransportError("index document", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", decodeError("index document", res)
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", domain.NewTransportError("index document", err)
	}
	return out.ID, nil
}

// GetDoc fetches a document source by identifier.
func (c *Client) GetDoc(ctx context.Context, index, id string) (json.RawMessage, error) {
	res, err := c.es.Get(index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, domain.NewTransportError("get document", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError("get document", res)
	}

	var out struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, domain.NewTransportError("get document", err)
	}
	if !out.Found {
		return nil, domain.NewStatusError("get document", http.StatusNotFound, "", "document not found", domain.ErrDocumentNotFound)
	}
	return out.Source, nil
}

// ExistsDoc reports whether a document exists.
func (c *Client) ExistsDoc(ctx context.Context, index, id string) (bool, error) {
	res, err := c.es.Exists(index, id, c.es.Exists.WithContext(ctx))
	if err != nil {
		return false, domain.NewTransportError("document exists", err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, decodeError("document exists", res)
	}
}

// DeleteDoc removes a document by identifier.
func (c *Client) DeleteDoc(ctx context.Context, index, id string) error {
	res, err := c.es.Delete(index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return domain.NewTransportError("delete document", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError("delete document", res)
	}
	return nil
}

// Bulk sends an NDJSON action stream against one index.
func (c *Client) Bulk(ctx context.Context, index string, body []byte) (*BulkResult, error) {
	res, err := c.es.Bulk(
		bytes.NewReader(body),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(index),
	)
	if err != nil {
		return nil, domain.NewTransportError("bulk", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError("bulk", res)
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, domain.NewTransportError("bulk", err)
	}

	result := &BulkResult{Errors: out.Errors, Items: make([]BulkItem, 0, len(out.Items))}
	for _, item := range out.Items {
		// Each item holds exactly one action key (index, create, ...).
		for _, v := range item {
			result.Items = append(result.Items, BulkItem{ID: v.ID, Status: v.Status, Reason: v.Error.Reason})
		}
	}
	return result, nil
}

// Search runs a query body against an index. A non-zero keepAlive opens
// a scroll context and the response carries its identifier.
func (c *Client) Search(ctx context.Context, index string, body []byte, keepAlive time.Duration) (*SearchResponse, error) {
	opts := []func(*esapi.SearchRequest){
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	}
	if keepAlive > 0 {
		opts = append(opts, c.es.Search.WithScroll(keepAlive))
	}
	res, err := c.es.Search(opts...)
	if err != nil {
		return nil, domain.NewTransportError("search", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError("search", res)
	}
	return decodeSearch("search", res)
}

// Scroll fetches the next page of an open scroll context.
func (c *Client) Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*SearchResponse, error) {
	res, err := c.es.Scroll(
		c.es.Scroll.WithContext(ctx),
		c.es.Scroll.WithScrollID(scrollID),
		c.es.Scroll.WithScroll(keepAlive),
	)
	if err != nil {
		return nil, domain.NewTransportError("scroll", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError("scroll", res)
	}
	return decodeSearch("scroll", res)
}

// ClearScroll releases a scroll context early.
func (c *Client) ClearScroll(ctx context.Context, scrollID string) error {
	res, err := c.es.ClearScroll(
		c.es.ClearScroll.WithContext(ctx),
		c.es.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		return domain.NewTransportError("clear scroll", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError("clear scroll", res)
	}
	return nil
}

// Count returns the number of documents matching a query body. A nil
// body counts everything.
func (c *Client) Count(ctx context.Context, index string, body []byte) (int64, error) {
	opts := []func(*esapi.CountRequest){
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(index),
	}
	if body != nil {
		opts = append(opts, c.es.Count.WithBody(bytes.NewReader(body)))
	}
	res, err := c.es.Count(opts...)
	if err != nil {
		return 0, domain.NewTransportError("count", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, decodeError("count", res)
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, domain.NewTransportError("count", err)
	}
	return out.Count, nil
}

// DeleteByQuery removes all documents matching a query body and returns
// the number deleted.
func (c *Client) DeleteByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	res, err := c.es.DeleteByQuery(
		[]string{index},
		bytes.NewReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return 0, domain.NewTransportError("delete by query", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, decodeError("delete by query", res)
	}

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, domain.NewTransportError("delete by query", err)
	}
	return out.Deleted, nil
}

func decodeSearch(op string, res *esapi.Response) (*SearchResponse, error) {
	var out struct {
		ScrollID string `json:"_scroll_id"`
		Hits     struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			MaxScore float64 `json:"max_score"`
			Hits     []Hit   `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, domain.NewTransportError(op, err)
	}
	return &SearchResponse{
		ScrollID: out.ScrollID,
		MaxScore: out.Hits.MaxScore,
		Total:    out.Hits.Total.Value,
		Hits:     out.Hits.Hits,
	}, nil
}
