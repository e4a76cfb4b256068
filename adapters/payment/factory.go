package payment

import (
	"fmt"

	"github.com/artpar/plancart/ports"
)

// Provider is a payment provider serving both checkout and subscriptions.
type Provider interface {
	ports.SessionInitiator
	ports.SubscriptionService
}

// Config selects and configures a direct payment provider.
type Config struct {
	Provider string // "stripe", "none"
	Stripe   StripeConfig
}

// NewProvider creates a payment provider based on config.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "stripe":
		if cfg.Stripe.SecretKey == "" {
			return nil, fmt.Errorf("stripe secret key is required")
		}
		switch cfg.Stripe.UIMode {
		case "", UIModeEmbedded:
			if cfg.Stripe.ReturnURL == "" {
				return nil, fmt.Errorf("stripe return url is required for embedded checkout")
			}
		case UIModeHosted:
			if cfg.Stripe.SuccessURL == "" || cfg.Stripe.CancelURL == "" {
				return nil, fmt.Errorf("stripe success and cancel urls are required for hosted checkout")
			}
		default:
			return nil, fmt.Errorf("unknown stripe ui mode: %s", cfg.Stripe.UIMode)
		}
		return NewStripeProvider(cfg.Stripe), nil

	case "none", "":
		return NewNoopProvider(), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.Provider)
	}
}

// Ensure interface compliance.
var (
	_ Provider = (*StripeProvider)(nil)
	_ Provider = (*NoopProvider)(nil)
)
