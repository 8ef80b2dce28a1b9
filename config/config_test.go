package config

import (
	"os"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `darkseer:
  name: "TestApp"
  version: "1.0"
stratz:
  batch_size: 5
  rate_limit:
    hour_tokens: 300
    hour_tokens_authed: 500
storage:
  path: "test.db"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("STRATZ_TOKEN", "")
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Darkseer.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Darkseer.Name)
	}
	if cfg.Stratz.BatchSize != 5 {
		t.Errorf("unexpected batch size: %d", cfg.Stratz.BatchSize)
	}
	if cfg.Stratz.URL != "https://api.stratz.com/graphql" {
		t.Errorf("default url not applied: %s", cfg.Stratz.URL)
	}
	if cfg.Stratz.RateLimit.RequestsPerSecond != 20 {
		t.Errorf("default requests_per_second not applied: %d", cfg.Stratz.RateLimit.RequestsPerSecond)
	}
	if cfg.Stratz.Retry.BaseDelay != time.Second {
		t.Errorf("default base_delay not applied: %v", cfg.Stratz.Retry.BaseDelay)
	}
}

func TestLoadConfigTokenFromEnv(t *testing.T) {
	t.Setenv("STRATZ_TOKEN", "sekrit")
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Stratz.BearerToken != "sekrit" {
		t.Errorf("bearer token not read from environment: %q", cfg.Stratz.BearerToken)
	}
}

func TestLoadConfigMissingName(t *testing.T) {
	content := `darkseer:
  version: "1.0"
storage:
  path: "test.db"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f.Close()
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
}
