package config

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const baseConfig = `
backend:
  url: "http://localhost:3000"
catalog:
  default_country: US
logging:
  level: info
`

func writeHolderConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plancart.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewHolder(t *testing.T) {
	path := writeHolderConfig(t, t.TempDir(), baseConfig)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if h.Get().Backend.URL != "http://localhost:3000" {
		t.Errorf("Backend.URL = %s", h.Get().Backend.URL)
	}
	if !filepath.IsAbs(h.Path()) {
		t.Errorf("Path = %s, want absolute", h.Path())
	}
}

func TestNewHolder_InvalidFile(t *testing.T) {
	if _, err := NewHolder(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop()); err == nil {
		t.Error("expected error")
	}
}

func TestHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeHolderConfig(t, dir, baseConfig)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Stop()

	var got *Config
	h.OnChange(func(cfg *Config) { got = cfg })

	writeHolderConfig(t, dir, `
backend:
  url: "http://localhost:3000"
catalog:
  default_country: ca
  default_duration: 12
`)
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if h.Get().Catalog.DefaultCountry != "CA" || h.Get().Catalog.DefaultDuration != 12 {
		t.Errorf("Catalog = %+v", h.Get().Catalog)
	}
	if got != h.Get() {
		t.Error("OnChange not called with the new config")
	}
}

func TestHolder_ReloadInvalidKeepsOld(t *testing.T) {
	dir := t.TempDir()
	path := writeHolderConfig(t, dir, baseConfig)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Stop()

	var changed, failed int
	h.OnChange(func(*Config) { changed++ })
	h.OnError(func(error) { failed++ })

	old := h.Get()
	writeHolderConfig(t, dir, "backend: {url: ''}")
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error")
	}

	if h.Get() != old {
		t.Error("config replaced after failed reload")
	}
	if changed != 0 || failed != 1 {
		t.Errorf("changed=%d failed=%d, want 0/1", changed, failed)
	}
}

func TestStaticHolder(t *testing.T) {
	cfg := &Config{}
	h := NewStaticHolder(cfg, zerolog.Nop())
	defer h.Stop()

	if h.Get() != cfg {
		t.Error("Get did not return the wrapped config")
	}
	if h.Path() != "" {
		t.Errorf("Path = %q", h.Path())
	}
	if err := h.Reload(); err == nil {
		t.Error("expected error reloading a static holder")
	}
	if err := h.WatchFile(); err == nil {
		t.Error("expected error watching a static holder")
	}
}

func TestHolder_WatchFile(t *testing.T) {
	dir := t.TempDir()
	path := writeHolderConfig(t, dir, baseConfig)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Stop()

	reloaded := make(chan string, 4)
	h.OnChange(func(cfg *Config) { reloaded <- cfg.Logging.Level })

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	writeHolderConfig(t, dir, `
backend:
  url: "http://localhost:3000"
logging:
  level: debug
`)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case level := <-reloaded:
			if level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	path := writeHolderConfig(t, dir, baseConfig)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Stop()

	var reads atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get().Backend.URL == "" {
					t.Error("empty backend url")
				}
				reads.Add(1)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		if err := h.Reload(); err != nil {
			t.Errorf("Reload error: %v", err)
		}
	}
	wg.Wait()

	if reads.Load() != 800 {
		t.Errorf("reads = %d", reads.Load())
	}
}

func TestHolder_StopIdempotent(t *testing.T) {
	h := NewStaticHolder(&Config{}, zerolog.Nop())
	h.Stop()
	h.Stop()
}

func TestChangedRestartFields(t *testing.T) {
	old := &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Backend: BackendConfig{URL: "http://a"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}

	same := *old
	same.Logging.Level = "debug"
	same.Catalog.DefaultCountry = "FR"
	if got := changedRestartFields(old, &same); len(got) != 0 {
		t.Errorf("reloadable changes flagged: %v", got)
	}

	moved := *old
	moved.Server.Port = 9090
	moved.Backend.URL = "http://b"
	moved.Payments.Provider = ProviderStripe
	got := changedRestartFields(old, &moved)
	want := []string{"server.port", "backend.url", "payments.provider"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestReloadableFieldsDisjoint(t *testing.T) {
	restart := map[string]bool{}
	for _, f := range NonReloadableFields() {
		restart[f] = true
	}
	for _, f := range ReloadableFields() {
		if restart[f] {
			t.Errorf("%s listed as both reloadable and non-reloadable", f)
		}
	}
}
