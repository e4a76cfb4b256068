package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/plancart/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

backend:
  url: "http://localhost:3000"
  api_key: "secret"
  timeout: 15s
  headers:
    X-Tenant: acme

payments:
  provider: stripe
  stripe:
    secret_key: sk_test_123
    ui_mode: hosted
    success_url: https://app.example/success
    cancel_url: https://app.example/pricing

catalog:
  default_country: gb
  default_duration: 3
  include_trials: true

sessions:
  ttl: 45m
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Backend.URL != "http://localhost:3000" {
		t.Errorf("Backend.URL = %s", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("Backend.Timeout = %v, want 15s", cfg.Backend.Timeout)
	}
	if cfg.Backend.Headers["X-Tenant"] != "acme" {
		t.Errorf("Backend.Headers = %v", cfg.Backend.Headers)
	}
	if cfg.Payments.Provider != config.ProviderStripe || cfg.Payments.Stripe.UIMode != "hosted" {
		t.Errorf("Payments = %+v", cfg.Payments)
	}
	if cfg.Catalog.DefaultCountry != "GB" {
		t.Errorf("DefaultCountry = %s, want GB", cfg.Catalog.DefaultCountry)
	}
	if cfg.Catalog.DefaultDuration != 3 || !cfg.Catalog.IncludeTrials {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Sessions.TTL != 45*time.Minute {
		t.Errorf("Sessions.TTL = %v, want 45m", cfg.Sessions.TTL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, `
backend:
  url: "http://localhost:3000"
`)

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Payments.Provider != config.ProviderRemote {
		t.Errorf("Provider = %s, want remote", cfg.Payments.Provider)
	}
	if cfg.Catalog.DefaultCountry != "US" || cfg.Catalog.DefaultDuration != 1 {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Sessions.TTL != 30*time.Minute || cfg.Sessions.CookieName != "plancart_session" {
		t.Errorf("Sessions = %+v", cfg.Sessions)
	}
	if cfg.Geo.URL != "https://ipapi.co" {
		t.Errorf("Geo.URL = %s", cfg.Geo.URL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BACKEND_HOST", "backend.internal")
	t.Setenv("TEST_STRIPE_KEY", "sk_live_abc")

	cfg := writeAndLoad(t, `
backend:
  url: "https://${TEST_BACKEND_HOST}"
payments:
  provider: stripe
  stripe:
    secret_key: "${TEST_STRIPE_KEY}"
    return_url: https://app.example/return
`)

	if cfg.Backend.URL != "https://backend.internal" {
		t.Errorf("Backend.URL = %s", cfg.Backend.URL)
	}
	if cfg.Payments.Stripe.SecretKey != "sk_live_abc" {
		t.Errorf("SecretKey = %s", cfg.Payments.Stripe.SecretKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PLANCART_SERVER_PORT", "9999")
	t.Setenv("PLANCART_BACKEND_URL", "http://override:3000")
	t.Setenv("PLANCART_DEFAULT_COUNTRY", "de")
	t.Setenv("PLANCART_INCLUDE_TRIALS", "yes")
	t.Setenv("PLANCART_SESSION_TTL", "2h")
	t.Setenv("PLANCART_TLS_DOMAINS", "a.example, b.example")
	t.Setenv("PLANCART_LOG_LEVEL", "debug")

	cfg := writeAndLoad(t, `
backend:
  url: "http://localhost:3000"
`)

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Backend.URL != "http://override:3000" {
		t.Errorf("Backend.URL = %s", cfg.Backend.URL)
	}
	if cfg.Catalog.DefaultCountry != "DE" || !cfg.Catalog.IncludeTrials {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Sessions.TTL != 2*time.Hour {
		t.Errorf("TTL = %v", cfg.Sessions.TTL)
	}
	if len(cfg.TLS.Domains) != 2 || cfg.TLS.Domains[1] != "b.example" {
		t.Errorf("Domains = %v", cfg.TLS.Domains)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing backend",
			content: `server: {port: 8080}`,
			wantErr: "backend.url is required",
		},
		{
			name:    "backend not http",
			content: "backend: {url: 'ftp://x'}",
			wantErr: "http(s) URL",
		},
		{
			name: "unknown provider",
			content: `
backend: {url: "http://x"}
payments: {provider: paypal}`,
			wantErr: "payments.provider",
		},
		{
			name: "stripe without key",
			content: `
backend: {url: "http://x"}
payments: {provider: stripe, stripe: {return_url: "https://r"}}`,
			wantErr: "secret_key is required",
		},
		{
			name: "embedded without return url",
			content: `
backend: {url: "http://x"}
payments: {provider: stripe, stripe: {secret_key: sk}}`,
			wantErr: "return_url is required",
		},
		{
			name: "hosted without cancel url",
			content: `
backend: {url: "http://x"}
payments: {provider: stripe, stripe: {secret_key: sk, ui_mode: hosted, success_url: "https://s"}}`,
			wantErr: "cancel_url",
		},
		{
			name: "bad country",
			content: `
backend: {url: "http://x"}
catalog: {default_country: USA}`,
			wantErr: "default_country",
		},
		{
			name: "short ttl",
			content: `
backend: {url: "http://x"}
sessions: {ttl: 10s}`,
			wantErr: "sessions.ttl",
		},
		{
			name: "tls without domains",
			content: `
backend: {url: "http://x"}
tls: {enabled: true}`,
			wantErr: "tls.domains",
		},
		{
			name: "bad log level",
			content: `
backend: {url: "http://x"}
logging: {level: verbose}`,
			wantErr: "logging.level",
		},
		{
			name:    "bad yaml",
			content: "backend: [",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	_, err := config.Parse([]byte(`
payments: {provider: paypal}
logging: {format: xml}`))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"backend.url", "payments.provider", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %s", err, want)
		}
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/plancart.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PLANCART_BACKEND_URL", "http://env-backend:3000")
	t.Setenv("PLANCART_PAYMENTS_PROVIDER", "none")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Backend.URL != "http://env-backend:3000" || cfg.Payments.Provider != config.ProviderNone {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("PLANCART_BACKEND_URL", "")
	if _, err := config.LoadWithFallback(""); err == nil {
		t.Error("expected error with no file and no env")
	}

	path := writeConfig(t, "backend: {url: 'http://file:3000'}")
	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Backend.URL != "http://file:3000" {
		t.Errorf("Backend.URL = %s", cfg.Backend.URL)
	}

	t.Setenv("PLANCART_BACKEND_URL", "http://env:3000")
	cfg, err = config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback env error: %v", err)
	}
	if cfg.Backend.URL != "http://env:3000" {
		t.Errorf("Backend.URL = %s", cfg.Backend.URL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PLANCART_TEST_DOTENV=from-file\nPLANCART_TEST_PRESET=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLANCART_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("PLANCART_TEST_DOTENV") })

	if err := config.LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}
	if got := os.Getenv("PLANCART_TEST_DOTENV"); got != "from-file" {
		t.Errorf("PLANCART_TEST_DOTENV = %q", got)
	}
	if got := os.Getenv("PLANCART_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := config.Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plancart.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
