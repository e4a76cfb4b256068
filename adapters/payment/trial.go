package payment

import (
	"context"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/ports"
)

// TrialRouter sends trial-only carts to the backend, which grants trials
// without a payment, and everything else to the payment processor.
type TrialRouter struct {
	paid   ports.SessionInitiator
	trials ports.SessionInitiator
}

// NewTrialRouter creates a router. A nil trials initiator leaves every
// request with paid.
func NewTrialRouter(paid, trials ports.SessionInitiator) *TrialRouter {
	return &TrialRouter{paid: paid, trials: trials}
}

// Name returns the name of the payment processor.
func (r *TrialRouter) Name() string {
	return r.paid.Name()
}

// CreateCheckoutSession routes the request by its lines.
func (r *TrialRouter) CreateCheckoutSession(ctx context.Context, req cart.CheckoutRequest) (billing.Session, error) {
	if r.trials != nil && trialOnly(req) {
		return r.trials.CreateCheckoutSession(ctx, req)
	}
	return r.paid.CreateCheckoutSession(ctx, req)
}

func trialOnly(req cart.CheckoutRequest) bool {
	if len(req.Items) == 0 {
		return false
	}
	for _, item := range req.Items {
		if !item.Trial {
			return false
		}
	}
	return true
}

var _ ports.SessionInitiator = (*TrialRouter)(nil)
