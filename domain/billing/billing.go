// Package billing provides payment session, subscription and invoice value
// types and pure functions.
package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents subscription state as reported by the processor.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled  SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
)

// Price is the recurring price a subscription bills at (value type).
type Price struct {
	Amount        decimal.Decimal
	Currency      string
	Interval      string
	IntervalCount int64
}

// Subscription is a customer's subscription (value type).
type Subscription struct {
	ID                 string
	Status             SubscriptionStatus
	Price              Price
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// IsActive returns true if the subscription is in an active state.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}

// IsCancelling returns true if subscription will cancel at period end.
func (s Subscription) IsCancelling() bool {
	return s.IsActive() && s.CancelAtPeriodEnd
}

// Session is the handle returned when a checkout session is created.
// Exactly one of the fields is set: a client secret for an embedded payment
// element, or a URL for a hosted checkout page.
type Session struct {
	ID           string
	ClientSecret string
	RedirectURL  string

	// PublishableKey is set with ClientSecret when the client needs a key
	// to mount the embedded form.
	PublishableKey string
}

// ErrNoSessionHandle is returned for a session carrying neither a client
// secret nor a redirect URL.
var ErrNoSessionHandle = errors.New("checkout session has neither client secret nor redirect url")

// Embedded returns true if the session is completed in an embedded element.
func (s Session) Embedded() bool {
	return s.ClientSecret != ""
}

// Validate checks that the session carries a usable handle.
func (s Session) Validate() error {
	if s.ClientSecret == "" && s.RedirectURL == "" {
		return ErrNoSessionHandle
	}
	return nil
}

// SubscriptionInvoice is the first invoice generated for a subscription that
// is paid by invoice rather than at checkout.
type SubscriptionInvoice struct {
	AmountDue  decimal.Decimal
	Currency   string
	DueDate    *time.Time
	InvoiceURL string // hosted page to view and pay
	PDFURL     string
}

// PortalSession is a customer self-service portal link.
type PortalSession struct {
	URL string
}

// FormatAmount formats an amount with its currency and thousands separators,
// e.g. "USD 1,234.50".
// This is a PURE function.
func FormatAmount(amount decimal.Decimal, currency string) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	out := groupThousands(whole) + "." + frac
	if neg {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return strings.ToUpper(currency) + " " + out
}

// groupThousands adds comma separators to a string of digits.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	return groupThousands(digits[:len(digits)-3]) + "," + digits[len(digits)-3:]
}

// RenewalDate returns when a subscription starting at start renews.
// This is a PURE function.
func RenewalDate(start time.Time, interval string, count int64) time.Time {
	if count <= 0 {
		count = 1
	}
	n := int(count)
	switch interval {
	case "day":
		return start.AddDate(0, 0, n)
	case "week":
		return start.AddDate(0, 0, 7*n)
	case "year":
		return start.AddDate(n, 0, 0)
	default:
		return start.AddDate(0, n, 0)
	}
}

// InvoiceRequest asks for a subscription paid by invoice.
type InvoiceRequest struct {
	Email       string `json:"email" validate:"required,email"`
	PriceID     string `json:"priceId" validate:"required"`
	CountryCode string `json:"countryCode" validate:"required,len=2,alpha"`
}
