package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/ports"
)

// SessionInitiator creates checkout sessions through the backend.
//
// API Contract:
//
//	POST /api/create-checkout-session
//	Request:  {"email": "...", "countryCode": "US", "isSubscription": true,
//	           "items": [{"priceId": "price_1", "credits": 500}]}
//	Response: {"clientSecret": "cs_..."} or {"url": "https://..."}
type SessionInitiator struct {
	client *Client
}

// NewSessionInitiator creates a remote session initiator.
func NewSessionInitiator(client *Client) *SessionInitiator {
	return &SessionInitiator{client: client}
}

// Name returns the provider name.
func (s *SessionInitiator) Name() string {
	return "remote"
}

// CreateCheckoutSession posts the checkout request as-is.
func (s *SessionInitiator) CreateCheckoutSession(ctx context.Context, req cart.CheckoutRequest) (billing.Session, error) {
	var resp struct {
		ID           string `json:"id"`
		ClientSecret string `json:"clientSecret"`
		URL          string `json:"url"`
	}

	if err := s.client.Request(ctx, http.MethodPost, "/api/create-checkout-session", nil, req, &resp); err != nil {
		return billing.Session{}, fmt.Errorf("create checkout session: %w", err)
	}

	sess := billing.Session{ID: resp.ID, ClientSecret: resp.ClientSecret}
	if sess.ClientSecret == "" {
		sess.RedirectURL = resp.URL
	}
	if err := sess.Validate(); err != nil {
		return billing.Session{}, err
	}
	return sess, nil
}

// Ensure interface compliance.
var _ ports.SessionInitiator = (*SessionInitiator)(nil)
