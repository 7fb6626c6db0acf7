package esmap

import "github.com/kailas-cloud/esmap/internal/domain"

// Sentinel errors for matching with errors.Is. Every error returned by
// this package wraps exactly one of the three top-level sentinels
// (ErrMapping, ErrQueryBuild, ErrClient); client errors additionally
// wrap a more specific cause when one applies.
var (
	ErrMapping    = domain.ErrMapping
	ErrQueryBuild = domain.ErrQueryBuild
	ErrClient     = domain.ErrClient

	ErrUnavailable      = domain.ErrUnavailable
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrIndexNotFound    = domain.ErrIndexNotFound
	ErrIndexExists      = domain.ErrIndexExists
	ErrConflict         = domain.ErrConflict

	ErrEmbedderNotConfigured = domain.ErrEmbedderNotConfigured
	ErrEmbeddingProvider     = domain.ErrEmbeddingProvider
)

// Structured error types, for use with errors.As.
type (
	// MappingError reports an entity <-> document conversion failure.
	MappingError = domain.MappingError
	// QueryBuildError reports an invalid criteria composition.
	QueryBuildError = domain.QueryBuildError
	// ClientError reports a failed request against the cluster.
	ClientError = domain.ClientError
)
