// Package cache provides a short-lived search result cache for the
// gateway. The SDK never caches; this sits strictly at the HTTP edge.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// Config holds connection parameters for the cache backend.
type Config struct {
	Addrs    []string
	Password string
	TTL      time.Duration
}

// SearchCache stores serialized search responses keyed by index and
// request body hash.
type SearchCache struct {
	client rueidis.Client
	ttl    time.Duration
}

// New connects to the cache backend.
func New(cfg Config) (*SearchCache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &SearchCache{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached response for a search body, if present.
// Backend errors read as cache misses.
func (c *SearchCache) Get(ctx context.Context, index string, body []byte) ([]byte, bool) {
	cmd := c.client.B().Get().Key(key(index, body)).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a search response under the body hash with the configured
// TTL. Errors are dropped; the cache is best effort.
func (c *SearchCache) Set(ctx context.Context, index string, body, response []byte) {
	cmd := c.client.B().Set().Key(key(index, body)).Value(string(response)).Ex(c.ttl).Build()
	_ = c.client.Do(ctx, cmd).Error()
}

// Invalidate drops every cached response for an index. Called on
// writes so stale pages never outlive a mutation by more than the TTL.
func (c *SearchCache) Invalidate(ctx context.Context, index string) {
	pattern := "esmap:search:" + index + ":*"
	var cursor uint64
	for {
		resp, err := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()).AsScanEntry()
		if err != nil {
			return
		}
		if len(resp.Elements) > 0 {
			_ = c.client.Do(ctx, c.client.B().Del().Key(resp.Elements...).Build()).Error()
		}
		cursor = resp.Cursor
		if cursor == 0 {
			return
		}
	}
}

// Close shuts down the client.
func (c *SearchCache) Close() {
	c.client.Close()
}

func key(index string, body []byte) string {
	sum := sha256.Sum256(body)
	return "esmap:search:" + index + ":" + hex.EncodeToString(sum[:])
}
