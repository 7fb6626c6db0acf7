// Package chi implements the esmapd HTTP gateway: a JSON REST surface
// over the esmap client with auth, metrics and a search result cache.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/cache"
)

// Error codes returned to API clients.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeDocumentNotFound = "document_not_found"
	codeIndexNotFound    = "index_not_found"
	codeIndexExists      = "index_already_exists"
	codeConflict         = "conflict"
	codeQueryInvalid     = "query_invalid"
	codeMappingInvalid   = "mapping_invalid"
	codeNoEmbedder       = "semantic_search_not_configured"
	codeEmbeddingFailed  = "embedding_provider_error"
	codeUnavailable      = "cluster_unavailable"
	codeUpstreamError    = "upstream_error"
	codeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DocumentResponse is one document with its identifier.
type DocumentResponse struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// HitResponse is one scored search result.
type HitResponse struct {
	ID     string         `json:"id"`
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Total    int64         `json:"total"`
	MaxScore float64       `json:"max_score"`
	Hits     []HitResponse `json:"hits"`
}

// BatchItemResponse reports the outcome of one document in a batch.
type BatchItemResponse struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// BatchResponse reports a batch write.
type BatchResponse struct {
	Errors bool                `json:"errors"`
	Items  []BatchItemResponse `json:"items"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the esmap client over HTTP. The cache is optional;
// with nil every search goes to the cluster.
type Server struct {
	client        *esmap.Client
	cache         *cache.SearchCache
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the gateway HTTP server.
func NewServer(client *esmap.Client, searchCache *cache.SearchCache, logger *zap.Logger) *Server {
	s := &Server{
		client: client,
		cache:  searchCache,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(esmap.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(esmap.ErrIndexNotFound, http.StatusNotFound, codeIndexNotFound),
		sentinelHandler(esmap.ErrIndexExists, http.StatusConflict, codeIndexExists),
		sentinelHandler(esmap.ErrConflict, http.StatusConflict, codeConflict),
		sentinelHandler(esmap.ErrQueryBuild, http.StatusBadRequest, codeQueryInvalid),
		sentinelHandler(esmap.ErrMapping, http.StatusBadRequest, codeMappingInvalid),
		sentinelHandler(esmap.ErrEmbedderNotConfigured, http.StatusNotImplemented, codeNoEmbedder),
		sentinelHandler(esmap.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingFailed),
		sentinelHandler(esmap.ErrUnavailable, http.StatusServiceUnavailable, codeUnavailable),
		sentinelHandler(esmap.ErrClient, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// Mount registers the gateway routes on a chi router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/indices/{index}", func(r chi.Router) {
		r.Put("/", s.CreateIndex)
		r.Head("/", s.IndexExists)
		r.Delete("/", s.DeleteIndex)
		r.Post("/refresh", s.RefreshIndex)

		r.Post("/documents", s.IndexDocument)
		r.Put("/documents/{id}", s.PutDocument)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/documents/batch", s.BatchIndex)

		r.Post("/search", s.Search)
		r.Post("/count", s.Count)
		r.Post("/delete-by-query", s.DeleteByQuery)
	})
}

// CreateIndex handles PUT /api/v1/indices/{index}. The body, when
// present, is passed through as the index mapping.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	mapping, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "read request body: "+err.Error())
		return
	}
	if len(mapping) > 0 && !json.Valid(mapping) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "mapping body must be valid JSON")
		return
	}

	if err := s.client.Indices().Create(r.Context(), index, mapping); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"index": index})
}

// IndexExists handles HEAD /api/v1/indices/{index}.
func (s *Server) IndexExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.client.Indices().Exists(r.Context(), chi.URLParam(r, "index"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteIndex handles DELETE /api/v1/indices/{index}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	if err := s.client.Indices().Delete(r.Context(), index); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.invalidate(r, index)
	w.WriteHeader(http.StatusNoContent)
}

// RefreshIndex handles POST /api/v1/indices/{index}/refresh.
func (s *Server) RefreshIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Indices().Refresh(r.Context(), chi.URLParam(r, "index")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IndexDocument handles POST /api/v1/indices/{index}/documents. The
// cluster assigns an identifier unless the body carries one.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	s.writeDocument(w, r, "")
}

// PutDocument handles PUT /api/v1/indices/{index}/documents/{id}.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	s.writeDocument(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, id string) {
	index := chi.URLParam(r, "index")

	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "fields is required")
		return
	}
	if id == "" {
		id = req.ID
	}

	docID, err := s.client.Documents(index).Index(r.Context(), esmap.Document{ID: id, Fields: req.Fields})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.invalidate(r, index)

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("/api/v1/indices/%s/documents/%s", index, docID))
	}
	writeJSON(w, status, DocumentResponse{ID: docID, Fields: req.Fields})
}

// GetDocument handles GET /api/v1/indices/{index}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	id := chi.URLParam(r, "id")

	doc, err := s.client.Documents(index).Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentResponse{ID: doc.ID, Fields: doc.Fields})
}

// DeleteDocument handles DELETE /api/v1/indices/{index}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	if err := s.client.Documents(index).Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.invalidate(r, index)
	w.WriteHeader(http.StatusNoContent)
}

// BatchIndex handles POST /api/v1/indices/{index}/documents/batch.
func (s *Server) BatchIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 || len(req.Documents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxBatchSize))
		return
	}

	docs := make([]esmap.Document, len(req.Documents))
	for i, d := range req.Documents {
		if len(d.Fields) == 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("document %d: fields is required", i))
			return
		}
		docs[i] = esmap.Document{ID: d.ID, Fields: d.Fields}
	}

	result, err := s.client.Documents(index).Bulk(r.Context(), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.invalidate(r, index)

	resp := BatchResponse{Errors: result.Errors, Items: make([]BatchItemResponse, len(result.Items))}
	for i, item := range result.Items {
		resp.Items[i] = BatchItemResponse{ID: item.ID, Status: item.Status, Reason: item.Reason}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles POST /api/v1/indices/{index}/search. Responses are
// cached per index and request body until the next write.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "read request body: "+err.Error())
		return
	}

	if s.cache != nil {
		if data, ok := s.cache.Get(r.Context(), index, body); ok {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}
	}

	q, handled := s.queryFromBody(w, r, body)
	if handled {
		return
	}

	page, err := s.client.Search(index).Find(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := SearchResponse{Total: page.Total, MaxScore: page.MaxScore, Hits: make([]HitResponse, len(page.Hits))}
	for i, h := range page.Hits {
		resp.Hits[i] = HitResponse{ID: h.ID, Score: h.Score, Fields: h.Fields}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if s.cache != nil {
		s.cache.Set(r.Context(), index, body, data)
		w.Header().Set("X-Cache", "MISS")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Count handles POST /api/v1/indices/{index}/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "read request body: "+err.Error())
		return
	}

	q, handled := s.queryFromBody(w, r, body)
	if handled {
		return
	}

	n, err := s.client.Search(index).Count(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// DeleteByQuery handles POST /api/v1/indices/{index}/delete-by-query.
func (s *Server) DeleteByQuery(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "read request body: "+err.Error())
		return
	}

	q, handled := s.queryFromBody(w, r, body)
	if handled {
		return
	}

	n, err := s.client.Search(index).DeleteByQuery(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.invalidate(r, index)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// queryFromBody parses a search body into a query. On failure the error
// response has already been written and handled is true.
func (s *Server) queryFromBody(w http.ResponseWriter, r *http.Request, body []byte) (q *esmap.Query, handled bool) {
	var req SearchRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
			return nil, true
		}
	}

	set := 0
	for _, present := range []bool{req.Query != nil, len(req.Raw) > 0, req.Semantic != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query, raw and semantic are mutually exclusive")
		return nil, true
	}

	switch {
	case req.Semantic != nil:
		if req.Semantic.Field == "" || req.Semantic.Text == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "semantic needs field and text")
			return nil, true
		}
		vec, err := s.client.Embed(r.Context(), req.Semantic.Text)
		if err != nil {
			s.handleDomainError(w, err)
			return nil, true
		}
		q = esmap.NewVectorQuery(req.Semantic.Field, vec, nil)
	case len(req.Raw) > 0:
		q = esmap.NewStringQuery(string(req.Raw))
	case req.Query != nil:
		c, err := criteriaFromFilter(req.Query)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return nil, true
		}
		q = esmap.NewQuery(c)
	default:
		q = esmap.MatchAll()
	}

	if err := applyOptions(q, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return nil, true
	}
	return q, false
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"elasticsearch": "ok"}
	status := "healthy"
	httpStatus := http.StatusOK

	if err := s.client.Ping(r.Context()); err != nil {
		checks["elasticsearch"] = "failed"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// invalidate drops cached search pages for an index after a write.
func (s *Server) invalidate(r *http.Request, index string) {
	if s.cache != nil {
		s.cache.Invalidate(r.Context(), index)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		esmap.ErrDocumentNotFound,
		esmap.ErrIndexNotFound,
		esmap.ErrIndexExists,
		esmap.ErrConflict,
		esmap.ErrQueryBuild,
		esmap.ErrMapping,
		esmap.ErrEmbedderNotConfigured,
		esmap.ErrEmbeddingProvider,
		esmap.ErrUnavailable,
		esmap.ErrClient,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
