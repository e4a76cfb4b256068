package payment

import (
	"context"
	"errors"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
)

var (
	// ErrPaymentsDisabled is returned when payments are not configured.
	ErrPaymentsDisabled = errors.New("payments are not configured")
)

// NoopProvider is a no-op payment provider for when payments are disabled.
// The cart still works; only the handoff fails.
type NoopProvider struct{}

// NewNoopProvider creates a new no-op payment provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// Name returns the provider name.
func (p *NoopProvider) Name() string {
	return "none"
}

// CreateCheckoutSession returns an error as payments are disabled.
func (p *NoopProvider) CreateCheckoutSession(ctx context.Context, req cart.CheckoutRequest) (billing.Session, error) {
	return billing.Session{}, ErrPaymentsDisabled
}

// CreateSubscriptionInvoice returns an error as payments are disabled.
func (p *NoopProvider) CreateSubscriptionInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.SubscriptionInvoice, error) {
	return billing.SubscriptionInvoice{}, ErrPaymentsDisabled
}

// GetSubscription reports no subscription.
func (p *NoopProvider) GetSubscription(ctx context.Context, email string) (*billing.Subscription, error) {
	return nil, nil
}

// CreatePortalSession returns an error as payments are disabled.
func (p *NoopProvider) CreatePortalSession(ctx context.Context, email, returnURL string) (billing.PortalSession, error) {
	return billing.PortalSession{}, ErrPaymentsDisabled
}
