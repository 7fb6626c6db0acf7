package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/cache"
	"github.com/kailas-cloud/esmap/internal/config"
	openaiEmb "github.com/kailas-cloud/esmap/internal/embed/openai"
	logpkg "github.com/kailas-cloud/esmap/internal/logger"
	"github.com/kailas-cloud/esmap/internal/metrics"
	chiTransport "github.com/kailas-cloud/esmap/internal/transport/chi"
	"github.com/kailas-cloud/esmap/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esmapd gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("es_addresses", cfg.Elasticsearch.Addresses),
		zap.String("index_prefix", cfg.Elasticsearch.IndexPrefix),
	)

	opts := []esmap.Option{
		esmap.WithAddresses(cfg.Elasticsearch.Addresses...),
		esmap.WithIndexPrefix(cfg.Elasticsearch.IndexPrefix),
		esmap.WithReadinessTimeout(time.Duration(cfg.Elasticsearch.ReadinessTimeout) * time.Second),
		esmap.WithLogger(logger),
		esmap.WithPrometheus(prometheus.DefaultRegisterer),
	}
	switch {
	case cfg.Elasticsearch.APIKey != "":
		opts = append(opts, esmap.WithAPIKey(cfg.Elasticsearch.APIKey))
	case cfg.Elasticsearch.Username != "":
		opts = append(opts, esmap.WithBasicAuth(cfg.Elasticsearch.Username, cfg.Elasticsearch.Password))
	}

	if cfg.Embedding.APIKey != "" {
		embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
		opts = append(opts, esmap.WithEmbedder(embedder))
		logger.Info("Embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	client, err := esmap.New(opts...)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}
	logger.Info("Connected to Elasticsearch")

	var searchCache *cache.SearchCache
	if len(cfg.Cache.Addrs) > 0 {
		searchCache, err = cache.New(cache.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			TTL:      time.Duration(cfg.Cache.TTLSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create search cache", zap.Error(err))
		}
		defer searchCache.Close()
		logger.Info("Search cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	server := chiTransport.NewServer(client, searchCache, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware(prometheus.DefaultRegisterer))
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
