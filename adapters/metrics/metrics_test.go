package metrics_test

import (
	"strings"
	"testing"

	"github.com/artpar/plancart/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsTotal.WithLabelValues("GET", "/api/cart", "200").Inc()
	m.CartOperations.WithLabelValues("toggle", "ok").Inc()
	m.CatalogFetches.WithLabelValues("ok").Inc()
	m.CheckoutSessions.WithLabelValues("stripe", "ok").Inc()
	m.BackendErrors.WithLabelValues("catalog").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "plancart_") {
			t.Errorf("metric %s missing namespace", f.GetName())
		}
	}
	if len(families) < 5 {
		t.Errorf("gathered %d families, want at least 5", len(families))
	}
}

func TestCounters(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.CartOperations.WithLabelValues("toggle", "ok").Inc()
	m.CartOperations.WithLabelValues("toggle", "ok").Inc()
	m.CartOperations.WithLabelValues("toggle", "conflict").Inc()
	m.CatalogStaleDiscards.Inc()

	if got := testutil.ToFloat64(m.CartOperations.WithLabelValues("toggle", "ok")); got != 2 {
		t.Errorf("toggle ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CartOperations.WithLabelValues("toggle", "conflict")); got != 1 {
		t.Errorf("toggle conflict = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CatalogStaleDiscards); got != 1 {
		t.Errorf("stale discards = %v, want 1", got)
	}
}

func TestNewWithRegistry_Twice(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	reg := prometheus.NewRegistry()
	metrics.NewWithRegistry(reg)
	metrics.NewWithRegistry(reg)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unmatched"},
		{"/api/cart", "/api/cart"},
		{"/" + strings.Repeat("x", 60), "/" + strings.Repeat("x", 49) + "..."},
	}
	for _, tt := range tests {
		if got := metrics.NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
