package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("ES_PASSWORD", "s3cret")
	writeConfig(t, `
http:
  port: 8080
elasticsearch:
  addresses: ["http://localhost:9200"]
  username: elastic
  password: ${ES_PASSWORD}
  index_prefix: ${ES_PREFIX:-dev-}
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Elasticsearch.Password != "s3cret" {
		t.Errorf("password = %q, want expanded env value", cfg.Elasticsearch.Password)
	}
	if cfg.Elasticsearch.IndexPrefix != "dev-" {
		t.Errorf("index_prefix = %q, want default dev-", cfg.Elasticsearch.IndexPrefix)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.Elasticsearch.ReadinessTimeout != 10 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Cache.TTLSec != 30 {
		t.Errorf("cache ttl default = %d, want 30", cfg.Cache.TTLSec)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing port",
			content: `
elasticsearch:
  addresses: ["http://localhost:9200"]
`,
		},
		{
			name: "missing addresses",
			content: `
http:
  port: 8080
`,
		},
		{
			name: "conflicting auth",
			content: `
http:
  port: 8080
elasticsearch:
  addresses: ["http://localhost:9200"]
  username: elastic
  api_key: abc
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.content)
			if _, err := Load("test"); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
