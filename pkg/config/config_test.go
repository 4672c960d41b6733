package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saturn.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected default config to be valid, got: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected cache TTL 5m, got %v", cfg.Cache.TTL)
	}
	if len(cfg.Budgets.DefaultThresholds) != 3 || cfg.Budgets.DefaultThresholds[2] != 100 {
		t.Errorf("expected default thresholds [50 80 100], got %v", cfg.Budgets.DefaultThresholds)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be enabled by default")
	}
	if cfg.Shares.CleanupSchedule != "@every 10m" {
		t.Errorf("expected cleanup schedule @every 10m, got %q", cfg.Shares.CleanupSchedule)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "10s"

provider:
  type: "aws"
  region: "eu-west-1"
  tag_keys: ["team", "env"]

budgets:
  backend: "sqlite"
  sqlite_path: "./budgets.db"
  default_thresholds: [60, 90, 100]

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Provider.Type != ProviderAWS || cfg.Provider.Region != "eu-west-1" {
		t.Errorf("unexpected provider config: %+v", cfg.Provider)
	}
	if len(cfg.Provider.TagKeys) != 2 {
		t.Errorf("expected 2 tag keys, got %v", cfg.Provider.TagKeys)
	}
	if cfg.Budgets.DefaultThresholds[0] != 60 {
		t.Errorf("expected first threshold 60, got %v", cfg.Budgets.DefaultThresholds[0])
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected explicit metrics.enabled=false to be kept")
	}
	if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
		t.Errorf("expected default metrics path, got %q", cfg.Telemetry.Metrics.Path)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  invalid yaml here: [
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
provider:
  type: "gcp"
budgets:
  default_thresholds: [80, 50]
telemetry:
  logging:
    level: "verbose"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(validationErr.Errors), validationErr)
	}
	if !strings.Contains(err.Error(), "validation failed with 3 errors") {
		t.Errorf("error message should mention multiple errors: %s", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	t.Setenv("SATURN_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("SATURN_CACHE_TTL", "1m")
	t.Setenv("SATURN_PROVIDER_TAG_KEYS", "team, env ,")
	t.Setenv("SATURN_BUDGETS_DEFAULT_THRESHOLDS", "40,70,95")
	t.Setenv("SATURN_IMPORT_ENABLED", "true")
	t.Setenv("SATURN_IMPORT_WATCH_DIR", "/tmp/drop")
	t.Setenv("SATURN_TELEMETRY_METRICS_ENABLED", "not-a-bool")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("expected cache TTL 1m, got %v", cfg.Cache.TTL)
	}
	if len(cfg.Provider.TagKeys) != 2 || cfg.Provider.TagKeys[1] != "env" {
		t.Errorf("expected tag keys [team env], got %v", cfg.Provider.TagKeys)
	}
	if cfg.Budgets.DefaultThresholds[2] != 95 {
		t.Errorf("expected thresholds from env, got %v", cfg.Budgets.DefaultThresholds)
	}
	if !cfg.Import.Enabled || cfg.Import.WatchDir != "/tmp/drop" {
		t.Errorf("unexpected import config: %+v", cfg.Import)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected unparsable bool override to be ignored")
	}
}

func TestLoadConfigWithEnvOverrides_RevalidatesAfterOverride(t *testing.T) {
	path := writeConfig(t, "{}\n")
	t.Setenv("SATURN_BUDGETS_BACKEND", "postgres")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil || !strings.Contains(err.Error(), "budgets.backend") {
		t.Errorf("expected budgets.backend validation error, got %v", err)
	}
}
