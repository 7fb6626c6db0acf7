package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMapping signals an entity <-> document conversion failure.
	ErrMapping = errors.New("mapping failed")
	// ErrQueryBuild signals an invalid criteria composition.
	ErrQueryBuild = errors.New("query build failed")
	// ErrClient signals a failed request against Elasticsearch.
	ErrClient = errors.New("client request failed")
	// ErrUnavailable signals a transport-level connectivity failure.
	ErrUnavailable = errors.New("elasticsearch unavailable")

	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexExists signals a duplicate index.
	ErrIndexExists = errors.New("index already exists")
	// ErrConflict signals a document version conflict.
	ErrConflict = errors.New("version conflict")

	// ErrEmbedderNotConfigured signals a semantic query without an embedder.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)

// MappingError describes why an entity could not be converted to or from
// its document form. Matches ErrMapping via errors.Is.
type MappingError struct {
	Type   string // Go type being mapped
	Field  string // document field name, empty for type-level failures
	Reason string
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("map %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("map %s field %q: %s", e.Type, e.Field, e.Reason)
}

func (e *MappingError) Unwrap() error { return ErrMapping }

// NewMappingError creates a MappingError.
func NewMappingError(typ, field, format string, args ...any) error {
	return &MappingError{Type: typ, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// QueryBuildError describes an invalid criteria composition.
// Matches ErrQueryBuild via errors.Is.
type QueryBuildError struct {
	Field  string // criteria field, empty for tree-level failures
	Reason string
}

func (e *QueryBuildError) Error() string {
	if e.Field == "" {
		return "build query: " + e.Reason
	}
	return fmt.Sprintf("build query for field %q: %s", e.Field, e.Reason)
}

func (e *QueryBuildError) Unwrap() error { return ErrQueryBuild }

// NewQueryBuildError creates a QueryBuildError.
func NewQueryBuildError(field, format string, args ...any) error {
	return &QueryBuildError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ClientError describes a failed Elasticsearch request: either a transport
// failure (StatusCode == 0, cause ErrUnavailable) or a non-2xx response.
// Always matches ErrClient via errors.Is, plus the more specific cause
// (ErrDocumentNotFound, ErrIndexNotFound, ErrIndexExists, ErrConflict,
// ErrUnavailable) when one applies.
type ClientError struct {
	Op         string // adapter operation, e.g. "search"
	StatusCode int    // HTTP status, 0 for transport failures
	ESType     string // Elasticsearch error type, e.g. "index_not_found_exception"
	Reason     string
	cause      error
}

func (e *ClientError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	if e.ESType != "" {
		return fmt.Sprintf("%s: status %d (%s): %s", e.Op, e.StatusCode, e.ESType, e.Reason)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Reason)
}

func (e *ClientError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrClient}
	}
	return []error{ErrClient, e.cause}
}

// NewTransportError creates a ClientError for a connectivity failure.
func NewTransportError(op string, err error) error {
	return &ClientError{Op: op, Reason: err.Error(), cause: ErrUnavailable}
}

// NewStatusError creates a ClientError for a non-2xx response.
// cause may be nil when no specific sentinel applies.
func NewStatusError(op string, status int, esType, reason string, cause error) error {
	return &ClientError{Op: op, StatusCode: status, ESType: esType, Reason: reason, cause: cause}
}
