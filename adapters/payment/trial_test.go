package payment

import (
	"context"
	"testing"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/domain/catalog"
)

type recordingInitiator struct {
	name  string
	calls int
}

func (r *recordingInitiator) Name() string { return r.name }

func (r *recordingInitiator) CreateCheckoutSession(ctx context.Context, req cart.CheckoutRequest) (billing.Session, error) {
	r.calls++
	return billing.Session{ID: r.name, ClientSecret: r.name + "_secret"}, nil
}

func TestTrialRouter(t *testing.T) {
	trial := cart.CheckoutRequest{Items: []cart.CheckoutItem{{PriceID: "trial", Credits: catalog.Bundle(5, 2), Trial: true}}}
	paid := cart.CheckoutRequest{Items: []cart.CheckoutItem{{PriceID: "price_basic", Credits: catalog.Scalar(500)}}}

	tests := []struct {
		name    string
		req     cart.CheckoutRequest
		wantID  string
		noTrial bool
	}{
		{name: "trial goes to backend", req: trial, wantID: "backend"},
		{name: "paid goes to processor", req: paid, wantID: "stripe"},
		{name: "no trial initiator", req: trial, wantID: "stripe", noTrial: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &recordingInitiator{name: "stripe"}
			var r *TrialRouter
			if tt.noTrial {
				r = NewTrialRouter(processor, nil)
			} else {
				r = NewTrialRouter(processor, &recordingInitiator{name: "backend"})
			}

			sess, err := r.CreateCheckoutSession(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("CreateCheckoutSession failed: %v", err)
			}
			if sess.ID != tt.wantID {
				t.Errorf("routed to %s, want %s", sess.ID, tt.wantID)
			}
			if r.Name() != "stripe" {
				t.Errorf("Name() = %s", r.Name())
			}
		})
	}
}
