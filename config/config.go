// Package config loads and validates the service configuration from
// environment variables.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Gateway and auth modes. "live" talks to the external service, "static"
// serves the bundled reference data.
const (
	ModeLive   = "live"
	ModeStatic = "static"

	AuthModeJWT = "jwt"
	AuthModeDev = "dev"
)

// Config holds all application configuration.
type Config struct {
	Port              string
	Address           string
	Env               string
	LogDir            string
	LogRetentionWeeks int
	MaxRequestBody    int64 // bytes

	TerminologyBaseURL string
	TerminologyMode    string
	SimplifierMode     string
	SimplifierBaseURL  string
	SimplifierAPIKey   string
	GatewayTimeout     time.Duration
	EvidenceTimeout    time.Duration

	AuthMode  string
	JWTSecret string

	// DatabaseURL enables the Postgres record store when set. Empty keeps
	// the in-memory store.
	DatabaseURL string

	RefreshInterval time.Duration
}

// Load reads the environment and validates every value before the server
// starts. Invalid configuration fails fast.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envOr("PORT", "8000"),
		Address:           envOr("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(envOr("ENV", "dev")),
		LogDir:            envOr("LOG_DIR", "logs"),
		LogRetentionWeeks: intEnvOr("LOG_RETENTION_WEEKS", 4),
		MaxRequestBody:    int64EnvOr("MAX_REQUEST_BODY", 1<<20),

		TerminologyBaseURL: envOr("RXNAV_BASE_URL", "https://rxnav.nlm.nih.gov/REST"),
		TerminologyMode:    strings.ToLower(envOr("RXNAV_MODE", ModeStatic)),
		SimplifierMode:     strings.ToLower(envOr("SIMPLIFIER_MODE", ModeStatic)),
		SimplifierBaseURL:  envOr("SIMPLIFIER_BASE_URL", "https://api.openai.com/v1"),
		SimplifierAPIKey:   os.Getenv("SIMPLIFIER_API_KEY"),
		GatewayTimeout:     durationEnvOr("GATEWAY_TIMEOUT_SECONDS", 15*time.Second),
		EvidenceTimeout:    durationEnvOr("EVIDENCE_TIMEOUT_SECONDS", 10*time.Second),

		AuthMode:  strings.ToLower(envOr("AUTH_MODE", AuthModeDev)),
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RefreshInterval: durationEnvOr("REFRESH_INTERVAL_SECONDS", 24*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}
	if err := oneOf("ENV", cfg.Env, "dev", "staging", "prod", "test"); err != nil {
		return err
	}
	if cfg.LogRetentionWeeks < 1 || cfg.LogRetentionWeeks > 52 {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: must be between 1 and 52, got %d", cfg.LogRetentionWeeks)
	}
	if cfg.MaxRequestBody <= 0 || cfg.MaxRequestBody > 100<<20 {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: must be between 1 byte and 100MB, got %d", cfg.MaxRequestBody)
	}
	if err := oneOf("RXNAV_MODE", cfg.TerminologyMode, ModeLive, ModeStatic); err != nil {
		return err
	}
	if err := validateBaseURL(cfg.TerminologyBaseURL); err != nil {
		return fmt.Errorf("invalid RXNAV_BASE_URL: %w", err)
	}
	if err := oneOf("SIMPLIFIER_MODE", cfg.SimplifierMode, ModeLive, ModeStatic); err != nil {
		return err
	}
	if err := validateBaseURL(cfg.SimplifierBaseURL); err != nil {
		return fmt.Errorf("invalid SIMPLIFIER_BASE_URL: %w", err)
	}
	if cfg.SimplifierMode == ModeLive && cfg.SimplifierAPIKey == "" {
		return fmt.Errorf("SIMPLIFIER_API_KEY is required when SIMPLIFIER_MODE=live")
	}
	if err := oneOf("AUTH_MODE", cfg.AuthMode, AuthModeJWT, AuthModeDev); err != nil {
		return err
	}
	if cfg.AuthMode == AuthModeJWT && len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes when AUTH_MODE=jwt")
	}
	if cfg.GatewayTimeout < time.Second || cfg.GatewayTimeout > time.Minute {
		return fmt.Errorf("invalid GATEWAY_TIMEOUT_SECONDS: must be between 1 and 60, got %s", cfg.GatewayTimeout)
	}
	if cfg.EvidenceTimeout < time.Second || cfg.EvidenceTimeout > time.Minute {
		return fmt.Errorf("invalid EVIDENCE_TIMEOUT_SECONDS: must be between 1 and 60, got %s", cfg.EvidenceTimeout)
	}
	if cfg.RefreshInterval < time.Minute {
		return fmt.Errorf("invalid REFRESH_INTERVAL_SECONDS: must be at least 60, got %s", cfg.RefreshInterval)
	}
	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}
	if n < 1024 || n > 65535 {
		return fmt.Errorf("PORT must be between 1024 and 65535, got %d", n)
	}
	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}
	if address == "localhost" {
		return nil
	}
	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL, got: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in URL: %s", raw)
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, v := range allowed {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: must be one of %v, got: %s", name, allowed, value)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func int64EnvOr(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func durationEnvOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
