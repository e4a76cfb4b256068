// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Payment providers.
const (
	ProviderRemote = "remote" // checkout and subscriptions through the backend
	ProviderStripe = "stripe" // direct Stripe API
	ProviderNone   = "none"   // payments disabled
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Payments PaymentsConfig `yaml:"payments"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Sessions SessionsConfig `yaml:"sessions"`
	Geo      GeoConfig      `yaml:"geo"`
	Portal   PortalConfig   `yaml:"portal"`
	TLS      TLSConfig      `yaml:"tls"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig configures the payments backend that serves catalogs and
// transactions.
type BackendConfig struct {
	URL     string            `yaml:"url"`
	APIKey  string            `yaml:"api_key,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// PaymentsConfig selects who creates checkout sessions.
type PaymentsConfig struct {
	Provider string       `yaml:"provider"` // "remote", "stripe" or "none"
	Stripe   StripeConfig `yaml:"stripe,omitempty"`
}

// StripeConfig configures the direct Stripe provider.
type StripeConfig struct {
	SecretKey      string `yaml:"secret_key,omitempty"`
	PublishableKey string `yaml:"publishable_key,omitempty"`
	UIMode         string `yaml:"ui_mode,omitempty"` // "embedded" or "hosted"
	ReturnURL      string `yaml:"return_url,omitempty"`
	SuccessURL     string `yaml:"success_url,omitempty"`
	CancelURL      string `yaml:"cancel_url,omitempty"`
	DaysUntilDue   int64  `yaml:"days_until_due,omitempty"`
}

// CatalogConfig holds the defaults of the catalog key.
type CatalogConfig struct {
	DefaultCountry  string `yaml:"default_country"`
	DefaultDuration int    `yaml:"default_duration"` // months
	IncludeTrials   bool   `yaml:"include_trials"`
}

// SessionsConfig configures visitor sessions.
type SessionsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	Shards          int           `yaml:"shards"`
	CookieName      string        `yaml:"cookie_name"`
	CookieSecure    bool          `yaml:"cookie_secure"`
}

// GeoConfig configures IP country detection.
type GeoConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PortalConfig configures the customer portal.
type PortalConfig struct {
	ReturnURL string `yaml:"return_url"`
}

// TLSConfig configures automatic certificates.
type TLSConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Domains  []string `yaml:"domains"`
	Email    string   `yaml:"email"`
	CacheDir string   `yaml:"cache_dir"`
	Staging  bool     `yaml:"staging"`
	HTTPPort int      `yaml:"http_port"` // ACME challenge + redirect listener
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadDotEnv loads variables from .env files into the environment. Missing
// files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML bytes, applying ${VAR} expansion,
// PLANCART_* overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	PLANCART_BACKEND_URL           - Payments backend URL (required)
//	PLANCART_BACKEND_API_KEY       - Bearer token for the backend
//	PLANCART_SERVER_HOST           - Server host (default: 0.0.0.0)
//	PLANCART_SERVER_PORT           - Server port (default: 8080)
//	PLANCART_PAYMENTS_PROVIDER     - remote, stripe or none (default: remote)
//	PLANCART_STRIPE_SECRET_KEY     - Stripe secret key
//	PLANCART_STRIPE_UI_MODE        - embedded or hosted (default: embedded)
//	PLANCART_STRIPE_RETURN_URL     - Return URL for embedded checkout
//	PLANCART_DEFAULT_COUNTRY       - Fallback country (default: US)
//	PLANCART_DEFAULT_DURATION      - Default billing duration in months (default: 1)
//	PLANCART_SESSION_TTL           - Visitor session idle timeout (default: 30m)
//	PLANCART_GEO_ENABLED           - Detect country from client IP (default: false)
//	PLANCART_LOG_LEVEL             - Log level: debug, info, warn, error (default: info)
//	PLANCART_LOG_FORMAT            - Log format: json or console (default: json)
//	PLANCART_METRICS_ENABLED       - Enable /metrics endpoint
//	PLANCART_OPENAPI_ENABLED       - Enable Swagger UI
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set PLANCART_BACKEND_URL")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("PLANCART_BACKEND_URL") != ""
}

// applyEnvOverrides applies PLANCART_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "PLANCART_SERVER_HOST")
	setInt(&cfg.Server.Port, "PLANCART_SERVER_PORT")
	setDuration(&cfg.Server.ReadTimeout, "PLANCART_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "PLANCART_SERVER_WRITE_TIMEOUT")

	setString(&cfg.Backend.URL, "PLANCART_BACKEND_URL")
	setString(&cfg.Backend.APIKey, "PLANCART_BACKEND_API_KEY")
	setDuration(&cfg.Backend.Timeout, "PLANCART_BACKEND_TIMEOUT")

	setString(&cfg.Payments.Provider, "PLANCART_PAYMENTS_PROVIDER")
	setString(&cfg.Payments.Stripe.SecretKey, "PLANCART_STRIPE_SECRET_KEY")
	setString(&cfg.Payments.Stripe.PublishableKey, "PLANCART_STRIPE_PUBLISHABLE_KEY")
	setString(&cfg.Payments.Stripe.UIMode, "PLANCART_STRIPE_UI_MODE")
	setString(&cfg.Payments.Stripe.ReturnURL, "PLANCART_STRIPE_RETURN_URL")
	setString(&cfg.Payments.Stripe.SuccessURL, "PLANCART_STRIPE_SUCCESS_URL")
	setString(&cfg.Payments.Stripe.CancelURL, "PLANCART_STRIPE_CANCEL_URL")

	setString(&cfg.Catalog.DefaultCountry, "PLANCART_DEFAULT_COUNTRY")
	setInt(&cfg.Catalog.DefaultDuration, "PLANCART_DEFAULT_DURATION")
	setBool(&cfg.Catalog.IncludeTrials, "PLANCART_INCLUDE_TRIALS")

	setDuration(&cfg.Sessions.TTL, "PLANCART_SESSION_TTL")
	setBool(&cfg.Sessions.CookieSecure, "PLANCART_SESSION_COOKIE_SECURE")

	setBool(&cfg.Geo.Enabled, "PLANCART_GEO_ENABLED")
	setString(&cfg.Geo.URL, "PLANCART_GEO_URL")

	setString(&cfg.Portal.ReturnURL, "PLANCART_PORTAL_RETURN_URL")

	setBool(&cfg.TLS.Enabled, "PLANCART_TLS_ENABLED")
	if v := os.Getenv("PLANCART_TLS_DOMAINS"); v != "" {
		cfg.TLS.Domains = splitList(v)
	}
	setString(&cfg.TLS.Email, "PLANCART_TLS_EMAIL")

	setString(&cfg.Logging.Level, "PLANCART_LOG_LEVEL")
	setString(&cfg.Logging.Format, "PLANCART_LOG_FORMAT")
	setBool(&cfg.Metrics.Enabled, "PLANCART_METRICS_ENABLED")
	setBool(&cfg.OpenAPI.Enabled, "PLANCART_OPENAPI_ENABLED")
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, name string) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setBool(dst *bool, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}

	if cfg.Payments.Provider == "" {
		cfg.Payments.Provider = ProviderRemote
	}
	if cfg.Payments.Stripe.UIMode == "" {
		cfg.Payments.Stripe.UIMode = "embedded"
	}
	if cfg.Payments.Stripe.DaysUntilDue == 0 {
		cfg.Payments.Stripe.DaysUntilDue = 7
	}

	if cfg.Catalog.DefaultCountry == "" {
		cfg.Catalog.DefaultCountry = "US"
	}
	cfg.Catalog.DefaultCountry = strings.ToUpper(cfg.Catalog.DefaultCountry)
	if cfg.Catalog.DefaultDuration == 0 {
		cfg.Catalog.DefaultDuration = 1
	}

	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = 30 * time.Minute
	}
	if cfg.Sessions.CleanupInterval == 0 {
		cfg.Sessions.CleanupInterval = time.Minute
	}
	if cfg.Sessions.Shards == 0 {
		cfg.Sessions.Shards = 16
	}
	if cfg.Sessions.CookieName == "" {
		cfg.Sessions.CookieName = "plancart_session"
	}

	if cfg.Geo.URL == "" {
		cfg.Geo.URL = "https://ipapi.co"
	}
	if cfg.Geo.Timeout == 0 {
		cfg.Geo.Timeout = 3 * time.Second
	}

	if cfg.TLS.CacheDir == "" {
		cfg.TLS.CacheDir = "certs"
	}
	if cfg.TLS.HTTPPort == 0 {
		cfg.TLS.HTTPPort = 80
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks a configuration with defaults applied.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required"))
	} else if !strings.HasPrefix(cfg.Backend.URL, "http://") && !strings.HasPrefix(cfg.Backend.URL, "https://") {
		errs = append(errs, fmt.Errorf("backend.url must be an http(s) URL, got %q", cfg.Backend.URL))
	}

	switch cfg.Payments.Provider {
	case ProviderRemote, ProviderNone:
	case ProviderStripe:
		s := cfg.Payments.Stripe
		if s.SecretKey == "" {
			errs = append(errs, errors.New("payments.stripe.secret_key is required when payments.provider is 'stripe'"))
		}
		switch s.UIMode {
		case "embedded":
			if s.ReturnURL == "" {
				errs = append(errs, errors.New("payments.stripe.return_url is required for embedded checkout"))
			}
		case "hosted":
			if s.SuccessURL == "" || s.CancelURL == "" {
				errs = append(errs, errors.New("payments.stripe.success_url and cancel_url are required for hosted checkout"))
			}
		default:
			errs = append(errs, fmt.Errorf("payments.stripe.ui_mode must be 'embedded' or 'hosted', got %q", s.UIMode))
		}
	default:
		errs = append(errs, fmt.Errorf("payments.provider must be one of: remote, stripe, none, got %q", cfg.Payments.Provider))
	}

	if len(cfg.Catalog.DefaultCountry) != 2 {
		errs = append(errs, fmt.Errorf("catalog.default_country must be a 2-letter code, got %q", cfg.Catalog.DefaultCountry))
	}
	if cfg.Catalog.DefaultDuration < 0 {
		errs = append(errs, errors.New("catalog.default_duration must not be negative"))
	}

	if cfg.Sessions.TTL < time.Minute {
		errs = append(errs, fmt.Errorf("sessions.ttl must be at least 1m, got %s", cfg.Sessions.TTL))
	}

	if cfg.TLS.Enabled && len(cfg.TLS.Domains) == 0 {
		errs = append(errs, errors.New("tls.domains is required when tls is enabled"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
