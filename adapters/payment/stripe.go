// Package payment provides payment provider adapters.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/subscription"
)

// Checkout UI modes.
const (
	UIModeEmbedded = "embedded"
	UIModeHosted   = "hosted"
)

// ErrTrialCheckout is returned for trial lines. Trials carry no Stripe price
// and are granted by the backend.
var ErrTrialCheckout = errors.New("trial plans cannot be checked out through stripe")

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	SecretKey string

	// PublishableKey is handed to clients mounting the embedded form.
	PublishableKey string

	// UIMode is "embedded" (client secret) or "hosted" (redirect URL).
	UIMode string

	// ReturnURL is used by embedded sessions and the customer portal.
	// SuccessURL and CancelURL are used by hosted sessions.
	ReturnURL  string
	SuccessURL string
	CancelURL  string

	// DaysUntilDue is the payment term of subscription invoices.
	DaysUntilDue int64
}

// StripeProvider creates checkout sessions and manages subscriptions
// directly against Stripe.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe payment provider.
func NewStripeProvider(config StripeConfig) *StripeProvider {
	stripe.Key = config.SecretKey
	if config.UIMode == "" {
		config.UIMode = UIModeEmbedded
	}
	if config.DaysUntilDue <= 0 {
		config.DaysUntilDue = 7
	}
	return &StripeProvider{config: config}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// CreateCheckoutSession creates a Stripe Checkout session for the cart.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req cart.CheckoutRequest) (billing.Session, error) {
	params, err := p.checkoutParams(req)
	if err != nil {
		return billing.Session{}, err
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return billing.Session{}, fmt.Errorf("stripe checkout session: %w", err)
	}

	sess := billing.Session{ID: s.ID}
	if s.UIMode == stripe.CheckoutSessionUIModeEmbedded {
		sess.ClientSecret = s.ClientSecret
		sess.PublishableKey = p.config.PublishableKey
	} else {
		sess.RedirectURL = s.URL
	}
	if err := sess.Validate(); err != nil {
		return billing.Session{}, err
	}
	return sess, nil
}

// checkoutParams maps a checkout request to session parameters.
// This is a PURE function.
func (p *StripeProvider) checkoutParams(req cart.CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	if len(req.Items) == 0 {
		return nil, cart.ErrEmptyCart
	}

	mode := stripe.CheckoutSessionModePayment
	if req.IsSubscription {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(mode)),
		CustomerEmail: stripe.String(req.Email),
		UIMode:        stripe.String(p.config.UIMode),
	}

	if p.config.UIMode == UIModeEmbedded {
		params.ReturnURL = stripe.String(withSessionID(p.config.ReturnURL))
	} else {
		params.SuccessURL = stripe.String(withSessionID(p.config.SuccessURL))
		params.CancelURL = stripe.String(p.config.CancelURL)
	}

	credits := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Trial {
			return nil, fmt.Errorf("%s: %w", item.PriceID, ErrTrialCheckout)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(1),
		})
		b, err := json.Marshal(item.Credits)
		if err != nil {
			return nil, fmt.Errorf("encode credits of %s: %w", item.PriceID, err)
		}
		credits[i] = item.PriceID + "=" + string(b)
	}

	params.AddMetadata("country_code", req.CountryCode)
	params.AddMetadata("credits", strings.Join(credits, ";"))
	return params, nil
}

func withSessionID(u string) string {
	if u == "" || strings.Contains(u, "{CHECKOUT_SESSION_ID}") {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "session_id={CHECKOUT_SESSION_ID}"
}

// CreateSubscriptionInvoice subscribes the customer (created on demand) to
// the price with invoice collection and returns the first invoice.
func (p *StripeProvider) CreateSubscriptionInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.SubscriptionInvoice, error) {
	customerID, err := p.findCustomer(ctx, req.Email)
	if err != nil {
		return billing.SubscriptionInvoice{}, err
	}
	if customerID == "" {
		params := &stripe.CustomerParams{Email: stripe.String(req.Email)}
		params.Context = ctx
		params.AddMetadata("country_code", req.CountryCode)
		c, err := customer.New(params)
		if err != nil {
			return billing.SubscriptionInvoice{}, fmt.Errorf("stripe create customer: %w", err)
		}
		customerID = c.ID
	}

	params := &stripe.SubscriptionParams{
		Customer:         stripe.String(customerID),
		CollectionMethod: stripe.String(string(stripe.SubscriptionCollectionMethodSendInvoice)),
		DaysUntilDue:     stripe.Int64(p.config.DaysUntilDue),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(req.PriceID)},
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice")

	s, err := subscription.New(params)
	if err != nil {
		return billing.SubscriptionInvoice{}, fmt.Errorf("stripe create subscription: %w", err)
	}
	if s.LatestInvoice == nil {
		return billing.SubscriptionInvoice{}, fmt.Errorf("stripe subscription %s has no invoice", s.ID)
	}

	inv := s.LatestInvoice
	out := billing.SubscriptionInvoice{
		AmountDue:  fromMinorUnits(inv.AmountDue, string(inv.Currency)),
		Currency:   strings.ToUpper(string(inv.Currency)),
		InvoiceURL: inv.HostedInvoiceURL,
		PDFURL:     inv.InvoicePDF,
	}
	if inv.DueDate > 0 {
		due := time.Unix(inv.DueDate, 0).UTC()
		out.DueDate = &due
	}
	return out, nil
}

// GetSubscription returns the most recent subscription of the customer with
// the given email, or nil if there is none.
func (p *StripeProvider) GetSubscription(ctx context.Context, email string) (*billing.Subscription, error) {
	customerID, err := p.findCustomer(ctx, email)
	if err != nil || customerID == "" {
		return nil, err
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := subscription.List(params)
	if !it.Next() {
		if err := it.Err(); err != nil {
			return nil, fmt.Errorf("stripe list subscriptions: %w", err)
		}
		return nil, nil
	}

	sub := toSubscription(it.Subscription())
	return &sub, nil
}

// CreatePortalSession creates a customer portal session.
func (p *StripeProvider) CreatePortalSession(ctx context.Context, email, returnURL string) (billing.PortalSession, error) {
	customerID, err := p.findCustomer(ctx, email)
	if err != nil {
		return billing.PortalSession{}, err
	}
	if customerID == "" {
		return billing.PortalSession{}, ErrCustomerNotFound
	}
	if returnURL == "" {
		returnURL = p.config.ReturnURL
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return billing.PortalSession{}, fmt.Errorf("stripe portal session: %w", err)
	}
	return billing.PortalSession{URL: s.URL}, nil
}

// ErrCustomerNotFound is returned when no Stripe customer has the email.
var ErrCustomerNotFound = errors.New("no customer with this email")

// findCustomer returns the ID of the first customer with email, or "".
func (p *StripeProvider) findCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := customer.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("stripe find customer: %w", err)
	}
	return "", nil
}

func toSubscription(s *stripe.Subscription) billing.Subscription {
	out := billing.Subscription{
		ID:                 s.ID,
		Status:             mapStripeStatus(s.Status),
		CurrentPeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		price := s.Items.Data[0].Price
		out.Price = billing.Price{
			Amount:   fromMinorUnits(price.UnitAmount, string(price.Currency)),
			Currency: strings.ToUpper(string(price.Currency)),
		}
		if price.Recurring != nil {
			out.Price.Interval = string(price.Recurring.Interval)
			out.Price.IntervalCount = price.Recurring.IntervalCount
		}
	}
	return out
}

func mapStripeStatus(status stripe.SubscriptionStatus) billing.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return billing.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue:
		return billing.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return billing.SubscriptionStatusCancelled
	case stripe.SubscriptionStatusUnpaid:
		return billing.SubscriptionStatusUnpaid
	case stripe.SubscriptionStatusTrialing:
		return billing.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPaused:
		return billing.SubscriptionStatusPaused
	default:
		return billing.SubscriptionStatusIncomplete
	}
}

// zeroDecimal lists currencies Stripe bills in whole units.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// fromMinorUnits converts a Stripe integer amount to a decimal.
// This is a PURE function.
func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	if zeroDecimal[strings.ToLower(currency)] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}
