package esmap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/domain"
	"github.com/kailas-cloud/esmap/internal/es"
	"github.com/kailas-cloud/esmap/internal/mapping"
	"github.com/kailas-cloud/esmap/internal/metrics"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultScrollKeepAlive  = time.Minute
)

// Client is the esmap SDK entry point: an Elasticsearch connection plus
// the converter registry and the entity mapper built on top of it.
type Client struct {
	es       *es.Client
	mapper   *mapping.Mapper
	embedder domain.Embedder

	log       *zap.Logger
	metrics   *metrics.ClientMetrics
	prefix    string
	keepAlive time.Duration
}

// New creates a Client and verifies cluster connectivity before
// returning it.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		scrollKeepAlive:  defaultScrollKeepAlive,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addresses) == 0 {
		return nil, errors.New("esmap: cluster address required (use WithAddresses)")
	}

	esClient, err := es.NewClient(es.Config{
		Addresses: cfg.addresses,
		Username:  cfg.username,
		Password:  cfg.password,
		APIKey:    cfg.apiKey,
		Transport: cfg.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("esmap: %w", err)
	}

	if err := waitForReady(esClient, cfg.readinessTimeout); err != nil {
		return nil, fmt.Errorf("esmap: cluster not ready: %w", err)
	}

	return wireClient(esClient, cfg), nil
}

// waitForReady pings until the cluster answers or the timeout expires.
func waitForReady(c *es.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var lastErr error
	for {
		if lastErr = c.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func wireClient(esClient *es.Client, cfg *clientConfig) *Client {
	var emb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}

	log := cfg.log
	if log == nil {
		log = zap.NewNop()
	}

	var m *metrics.ClientMetrics
	if cfg.registerer != nil {
		m = metrics.NewClientMetrics(cfg.registerer)
	}

	return &Client{
		es:        esClient,
		mapper:    mapping.NewMapper(cfg.registry),
		embedder:  emb,
		log:       log,
		metrics:   m,
		prefix:    cfg.indexPrefix,
		keepAlive: cfg.scrollKeepAlive,
	}
}

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.es.Ping(ctx)
}

// Embed turns text into a dense vector with the configured embedder.
// Fails with ErrEmbedderNotConfigured when no embedder was wired in.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.Embed(ctx, text)
}

// Indices returns the index management service.
func (c *Client) Indices() *IndexService {
	return &IndexService{client: c}
}

// Documents returns the untyped document service for an index.
func (c *Client) Documents(index string) *DocumentService {
	return &DocumentService{client: c, index: c.indexName(index)}
}

// Search returns the untyped search service for an index.
func (c *Client) Search(index string) *SearchService {
	return &SearchService{client: c, index: c.indexName(index)}
}

func (c *Client) indexName(name string) string {
	return c.prefix + name
}

// observe records one completed operation in the log and the metrics.
func (c *Client) observe(op, index string, start time.Time, err error) {
	c.metrics.Observe(op, index, start, err)
	if err != nil {
		c.log.Debug("operation failed",
			zap.String("operation", op),
			zap.String("index", index),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	c.log.Debug("operation completed",
		zap.String("operation", op),
		zap.String("index", index),
		zap.Duration("elapsed", time.Since(start)),
	)
}
