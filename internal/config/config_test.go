package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECEIPT_SCANNER_BASE_URL", "")
	t.Setenv("RECEIPT_SCANNER_REQUEST_TIMEOUT", "")
	t.Setenv("RECEIPT_SCANNER_PAGE_SIZE", "")
	t.Setenv("RECEIPT_SCANNER_DEFAULT_CURRENCY", "")
	t.Setenv("RECEIPT_SCANNER_RETRY_ATTEMPTS", "")
	t.Setenv("RECEIPT_SCANNER_BREAKER_ENABLED", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:8001" {
		t.Fatalf("expected default base URL, got %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.DefaultCurrency != "IDR" {
		t.Fatalf("expected default currency IDR, got %q", cfg.DefaultCurrency)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("expected page size 10, got %d", cfg.PageSize)
	}
	if cfg.RetryAttempts != 1 {
		t.Fatalf("expected single attempt by default, got %d", cfg.RetryAttempts)
	}
	if !cfg.BreakerEnabled {
		t.Fatal("expected breaker enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RECEIPT_SCANNER_BASE_URL", "http://receipts.internal:9000")
	t.Setenv("RECEIPT_SCANNER_REQUEST_TIMEOUT", "5s")
	t.Setenv("RECEIPT_SCANNER_PAGE_SIZE", "25")
	t.Setenv("RECEIPT_SCANNER_DEFAULT_CURRENCY", "USD")
	t.Setenv("RECEIPT_SCANNER_RETRY_ATTEMPTS", "3")
	t.Setenv("RECEIPT_SCANNER_BREAKER_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://receipts.internal:9000" {
		t.Fatalf("expected env base URL, got %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("expected page size 25, got %d", cfg.PageSize)
	}
	if cfg.DefaultCurrency != "USD" {
		t.Fatalf("expected currency USD, got %q", cfg.DefaultCurrency)
	}
	if cfg.RetryAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.RetryAttempts)
	}
	if cfg.BreakerEnabled {
		t.Fatal("expected breaker disabled via env")
	}
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
base_url: http://file.example:8001
page_size: 50
log_level: debug
nats_url: nats://localhost:4222
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("RECEIPT_SCANNER_BASE_URL", "http://env.example:8001")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://env.example:8001" {
		t.Fatalf("expected env to win over file, got %q", cfg.BaseURL)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("expected file page size, got %d", cfg.PageSize)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected file log level, got %q", cfg.LogLevel)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("expected file nats url, got %q", cfg.NATSURL)
	}
	if cfg.DefaultCurrency != "IDR" {
		t.Fatalf("expected untouched default, got %q", cfg.DefaultCurrency)
	}
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected missing file to fall back to defaults, got %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:8001" {
		t.Fatalf("expected defaults, got %q", cfg.BaseURL)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("base_url: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
