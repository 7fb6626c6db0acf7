package esmap

import (
	"net/http"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/mapping"
)

type clientConfig struct {
	addresses []string
	username  string
	password  string
	apiKey    string
	transport http.RoundTripper

	indexPrefix      string
	scrollKeepAlive  time.Duration
	readinessTimeout time.Duration

	registry   *mapping.Registry
	embedder   Embedder
	log        *zap.Logger
	registerer prometheus.Registerer
}

// Option configures the Client.
type Option func(*clientConfig)

// WithAddresses sets the cluster node addresses. Required.
func WithAddresses(addrs ...string) Option {
	return func(c *clientConfig) { c.addresses = addrs }
}

// WithBasicAuth enables HTTP basic authentication.
func WithBasicAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithAPIKey enables API key authentication.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithTransport replaces the HTTP transport. Useful for tests and for
// callers that need custom TLS or proxy settings.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) { c.transport = rt }
}

// WithIndexPrefix prepends a prefix to every index name the client
// touches. Lets several environments share one cluster.
func WithIndexPrefix(prefix string) Option {
	return func(c *clientConfig) { c.indexPrefix = prefix }
}

// WithScrollKeepAlive sets how long the server keeps a streaming search
// context alive between pages. Default 1 minute.
func WithScrollKeepAlive(d time.Duration) Option {
	return func(c *clientConfig) { c.scrollKeepAlive = d }
}

// WithReadinessTimeout bounds how long New waits for the cluster to
// answer the first ping. Default 10 seconds.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.readinessTimeout = d }
}

// WithConverterFor registers a custom document converter for the Go
// type T. The converter applies to every mapped field of that type.
func WithConverterFor[T any](conv Converter) Option {
	return func(c *clientConfig) {
		if c.registry == nil {
			c.registry = mapping.NewRegistry()
		}
		c.registry.Register(reflect.TypeOf((*T)(nil)).Elem(), conv)
	}
}

// WithEmbedder enables semantic search by supplying a text embedder.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithLogger attaches a logger for request-level debug logging.
func WithLogger(log *zap.Logger) Option {
	return func(c *clientConfig) { c.log = log }
}

// WithPrometheus records per-operation counters and latency histograms
// in the given registerer.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) { c.registerer = reg }
}
