package billing_test

import (
	"testing"
	"time"

	"github.com/artpar/plancart/domain/billing"
	"github.com/shopspring/decimal"
)

func TestSubscription_IsActive(t *testing.T) {
	tests := []struct {
		status billing.SubscriptionStatus
		want   bool
	}{
		{billing.SubscriptionStatusActive, true},
		{billing.SubscriptionStatusTrialing, true},
		{billing.SubscriptionStatusPastDue, false},
		{billing.SubscriptionStatusCancelled, false},
		{billing.SubscriptionStatusUnpaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			s := billing.Subscription{Status: tt.status}
			if got := s.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscription_IsCancelling(t *testing.T) {
	s := billing.Subscription{Status: billing.SubscriptionStatusActive, CancelAtPeriodEnd: true}
	if !s.IsCancelling() {
		t.Error("expected active subscription with cancel_at_period_end to be cancelling")
	}
	s.Status = billing.SubscriptionStatusCancelled
	if s.IsCancelling() {
		t.Error("cancelled subscription should not report cancelling")
	}
}

func TestSession_Validate(t *testing.T) {
	if err := (billing.Session{}).Validate(); err != billing.ErrNoSessionHandle {
		t.Errorf("Validate() = %v, want ErrNoSessionHandle", err)
	}

	embedded := billing.Session{ClientSecret: "cs_test_secret"}
	if err := embedded.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if !embedded.Embedded() {
		t.Error("expected embedded session")
	}

	hosted := billing.Session{RedirectURL: "https://checkout.example.com/s/1"}
	if hosted.Embedded() {
		t.Error("hosted session reported embedded")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"0", "usd", "USD 0.00"},
		{"10", "USD", "USD 10.00"},
		{"1234.5", "eur", "EUR 1,234.50"},
		{"1234567.891", "GBP", "GBP 1,234,567.89"},
		{"-42.1", "", "-42.10"},
		{"999", "", "999.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := billing.FormatAmount(decimal.RequireFromString(tt.amount), tt.currency)
			if got != tt.want {
				t.Errorf("FormatAmount(%s, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestRenewalDate(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		interval string
		count    int64
		want     time.Time
	}{
		{"month", 3, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)},
		{"month", 0, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"year", 1, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"week", 2, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)},
		{"day", 10, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			if got := billing.RenewalDate(start, tt.interval, tt.count); !got.Equal(tt.want) {
				t.Errorf("RenewalDate() = %v, want %v", got, tt.want)
			}
		})
	}
}
