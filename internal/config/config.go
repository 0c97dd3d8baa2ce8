// Package config loads client configuration from the environment with an
// optional YAML file underneath. Environment variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration

	DefaultCurrency string
	PageSize        int

	LogLevel  string
	LogFormat string

	StateDBPath string

	NATSURL     string
	NATSSubject string

	MetricsAddr string

	RateLimitRPS   float64
	RateLimitBurst int

	RetryAttempts  int
	BreakerEnabled bool
}

// fileConfig mirrors Config with YAML tags. Pointer fields distinguish a
// value the file sets from one it leaves to the defaults.
type fileConfig struct {
	BaseURL        *string `yaml:"base_url"`
	RequestTimeout *string `yaml:"request_timeout"`

	DefaultCurrency *string `yaml:"default_currency"`
	PageSize        *int    `yaml:"page_size"`

	LogLevel  *string `yaml:"log_level"`
	LogFormat *string `yaml:"log_format"`

	StateDBPath *string `yaml:"state_db_path"`

	NATSURL     *string `yaml:"nats_url"`
	NATSSubject *string `yaml:"nats_subject"`

	MetricsAddr *string `yaml:"metrics_addr"`

	RateLimitRPS   *float64 `yaml:"rate_limit_rps"`
	RateLimitBurst *int     `yaml:"rate_limit_burst"`

	RetryAttempts  *int  `yaml:"retry_attempts"`
	BreakerEnabled *bool `yaml:"breaker_enabled"`
}

// Load builds the configuration: built-in defaults, then the YAML file at
// path (skipped when path is empty or the file does not exist), then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		BaseURL:         "http://127.0.0.1:8001",
		RequestTimeout:  30 * time.Second,
		DefaultCurrency: "IDR",
		PageSize:        10,
		LogLevel:        "info",
		LogFormat:       "text",
		StateDBPath:     "./data/receipt-scanner.db",
		NATSURL:         "",
		NATSSubject:     "receipts.events",
		MetricsAddr:     "",
		RateLimitRPS:    0,
		RateLimitBurst:  1,
		RetryAttempts:   1,
		BreakerEnabled:  true,
	}
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.BaseURL, fc.BaseURL)
	if fc.RequestTimeout != nil {
		d, err := time.ParseDuration(*fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout in %s: %w", path, err)
		}
		cfg.RequestTimeout = d
	}
	setString(&cfg.DefaultCurrency, fc.DefaultCurrency)
	setInt(&cfg.PageSize, fc.PageSize)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.StateDBPath, fc.StateDBPath)
	setString(&cfg.NATSURL, fc.NATSURL)
	setString(&cfg.NATSSubject, fc.NATSSubject)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	if fc.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.RateLimitRPS
	}
	setInt(&cfg.RateLimitBurst, fc.RateLimitBurst)
	setInt(&cfg.RetryAttempts, fc.RetryAttempts)
	if fc.BreakerEnabled != nil {
		cfg.BreakerEnabled = *fc.BreakerEnabled
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.BaseURL = mustEnv("RECEIPT_SCANNER_BASE_URL", cfg.BaseURL)
	cfg.RequestTimeout = mustEnvDuration("RECEIPT_SCANNER_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.DefaultCurrency = mustEnv("RECEIPT_SCANNER_DEFAULT_CURRENCY", cfg.DefaultCurrency)
	cfg.PageSize = mustEnvInt("RECEIPT_SCANNER_PAGE_SIZE", cfg.PageSize)
	cfg.LogLevel = mustEnv("RECEIPT_SCANNER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = mustEnv("RECEIPT_SCANNER_LOG_FORMAT", cfg.LogFormat)
	cfg.StateDBPath = mustEnv("RECEIPT_SCANNER_STATE_DB", cfg.StateDBPath)
	cfg.NATSURL = mustEnv("RECEIPT_SCANNER_NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = mustEnv("RECEIPT_SCANNER_NATS_SUBJECT", cfg.NATSSubject)
	cfg.MetricsAddr = mustEnv("RECEIPT_SCANNER_METRICS_ADDR", cfg.MetricsAddr)
	cfg.RateLimitRPS = mustEnvFloat("RECEIPT_SCANNER_RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = mustEnvInt("RECEIPT_SCANNER_RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.RetryAttempts = mustEnvInt("RECEIPT_SCANNER_RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.BreakerEnabled = mustEnvBool("RECEIPT_SCANNER_BREAKER_ENABLED", cfg.BreakerEnabled)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
