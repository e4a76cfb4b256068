package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "stripe embedded",
			cfg:      Config{Provider: "stripe", Stripe: StripeConfig{SecretKey: "sk_test_123", ReturnURL: "https://app/return"}},
			wantName: "stripe",
		},
		{
			name: "stripe hosted",
			cfg: Config{Provider: "stripe", Stripe: StripeConfig{
				SecretKey: "sk_test_123", UIMode: UIModeHosted, SuccessURL: "https://app/ok", CancelURL: "https://app/plans",
			}},
			wantName: "stripe",
		},
		{
			name:    "stripe missing secret",
			cfg:     Config{Provider: "stripe", Stripe: StripeConfig{ReturnURL: "https://app/return"}},
			wantErr: true,
		},
		{
			name:    "stripe embedded without return url",
			cfg:     Config{Provider: "stripe", Stripe: StripeConfig{SecretKey: "sk_test_123"}},
			wantErr: true,
		},
		{
			name:    "stripe hosted without cancel url",
			cfg:     Config{Provider: "stripe", Stripe: StripeConfig{SecretKey: "sk_test_123", UIMode: UIModeHosted, SuccessURL: "https://app/ok"}},
			wantErr: true,
		},
		{
			name:    "stripe unknown ui mode",
			cfg:     Config{Provider: "stripe", Stripe: StripeConfig{SecretKey: "sk_test_123", UIMode: "popup"}},
			wantErr: true,
		},
		{name: "none", cfg: Config{Provider: "none"}, wantName: "none"},
		{name: "empty", cfg: Config{}, wantName: "none"},
		{name: "unknown", cfg: Config{Provider: "paypal"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNoopProvider(t *testing.T) {
	p := NewNoopProvider()
	ctx := context.Background()

	if _, err := p.CreateCheckoutSession(ctx, cart.CheckoutRequest{}); !errors.Is(err, ErrPaymentsDisabled) {
		t.Errorf("CreateCheckoutSession error = %v", err)
	}
	if _, err := p.CreateSubscriptionInvoice(ctx, billing.InvoiceRequest{}); !errors.Is(err, ErrPaymentsDisabled) {
		t.Errorf("CreateSubscriptionInvoice error = %v", err)
	}
	if _, err := p.CreatePortalSession(ctx, "a@b.co", ""); !errors.Is(err, ErrPaymentsDisabled) {
		t.Errorf("CreatePortalSession error = %v", err)
	}
	if sub, err := p.GetSubscription(ctx, "a@b.co"); sub != nil || err != nil {
		t.Errorf("GetSubscription = %v, %v; want nil, nil", sub, err)
	}
}
