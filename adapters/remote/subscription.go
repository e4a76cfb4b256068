package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/ports"
	"github.com/shopspring/decimal"
)

// SubscriptionService delegates subscription operations to the backend.
//
// API Contract:
//
//	POST /api/create-subscription-invoice
//	Request:  {"email": "...", "priceId": "...", "countryCode": "US"}
//	Response: {"amount_due": 49.5, "due_date": 1735689600, "invoice_url": "...", "pdf_url": "..."}
//
//	GET /api/subscription?email=...
//	Response: {"subscription": {...}} or {"subscription": null}
//
//	POST /api/create-portal-session
//	Request:  {"email": "...", "return_url": "..."}
//	Response: {"url": "..."}
type SubscriptionService struct {
	client *Client
}

// NewSubscriptionService creates a remote subscription service.
func NewSubscriptionService(client *Client) *SubscriptionService {
	return &SubscriptionService{client: client}
}

// RemoteSubscription is the wire format for subscriptions.
type RemoteSubscription struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	Price              RemotePlan `json:"price"`
	CurrentPeriodStart Timestamp  `json:"current_period_start"`
	CurrentPeriodEnd   Timestamp  `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

// RemotePlan is the wire format for a subscription's price.
type RemotePlan struct {
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Interval      string          `json:"interval"`
	IntervalCount int64           `json:"interval_count"`
}

// RemoteInvoice is the wire format for a subscription invoice.
type RemoteInvoice struct {
	AmountDue  decimal.Decimal `json:"amount_due"`
	Currency   string          `json:"currency"`
	DueDate    Timestamp       `json:"due_date"`
	InvoiceURL string          `json:"invoice_url"`
	PDFURL     string          `json:"pdf_url"`
}

// CreateSubscriptionInvoice subscribes the customer and returns the invoice.
func (s *SubscriptionService) CreateSubscriptionInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.SubscriptionInvoice, error) {
	var resp RemoteInvoice
	if err := s.client.Request(ctx, http.MethodPost, "/api/create-subscription-invoice", nil, req, &resp); err != nil {
		return billing.SubscriptionInvoice{}, fmt.Errorf("create subscription invoice: %w", err)
	}

	return billing.SubscriptionInvoice{
		AmountDue:  resp.AmountDue,
		Currency:   strings.ToUpper(resp.Currency),
		DueDate:    resp.DueDate.Ptr(),
		InvoiceURL: resp.InvoiceURL,
		PDFURL:     resp.PDFURL,
	}, nil
}

// GetSubscription returns the customer's subscription, or nil if the backend
// reports none.
func (s *SubscriptionService) GetSubscription(ctx context.Context, email string) (*billing.Subscription, error) {
	var resp struct {
		Subscription *RemoteSubscription `json:"subscription"`
	}

	q := url.Values{"email": {email}}
	err := s.client.Request(ctx, http.MethodGet, "/api/subscription", q, nil, &resp)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if resp.Subscription == nil {
		return nil, nil
	}

	sub := toSubscription(*resp.Subscription)
	return &sub, nil
}

// CreatePortalSession returns a customer portal link.
func (s *SubscriptionService) CreatePortalSession(ctx context.Context, email, returnURL string) (billing.PortalSession, error) {
	req := map[string]string{"email": email}
	if returnURL != "" {
		req["return_url"] = returnURL
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := s.client.Request(ctx, http.MethodPost, "/api/create-portal-session", nil, req, &resp); err != nil {
		return billing.PortalSession{}, fmt.Errorf("create portal session: %w", err)
	}
	if resp.URL == "" {
		return billing.PortalSession{}, fmt.Errorf("create portal session: empty url")
	}

	return billing.PortalSession{URL: resp.URL}, nil
}

func toSubscription(rs RemoteSubscription) billing.Subscription {
	return billing.Subscription{
		ID:     rs.ID,
		Status: billing.SubscriptionStatus(rs.Status),
		Price: billing.Price{
			Amount:        rs.Price.Amount,
			Currency:      strings.ToUpper(rs.Price.Currency),
			Interval:      rs.Price.Interval,
			IntervalCount: rs.Price.IntervalCount,
		},
		CurrentPeriodStart: rs.CurrentPeriodStart.Time,
		CurrentPeriodEnd:   rs.CurrentPeriodEnd.Time,
		CancelAtPeriodEnd:  rs.CancelAtPeriodEnd,
	}
}

// Ensure interface compliance.
var _ ports.SubscriptionService = (*SubscriptionService)(nil)
