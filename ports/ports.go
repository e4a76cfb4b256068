// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/artpar/plancart/domain/ledger"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// SessionStore keeps per-visitor state in memory, keyed by session ID.
// Entries not touched for the store's TTL are evicted.
type SessionStore[T any] interface {
	// Get returns the value and refreshes its expiry.
	Get(id string) (T, bool)

	// Put stores or replaces a value.
	Put(id string, v T)

	// Delete removes a value.
	Delete(id string)

	// Len returns the number of live entries.
	Len() int

	// Close stops background cleanup.
	Close() error
}

// -----------------------------------------------------------------------------
// Backend Ports
// -----------------------------------------------------------------------------

// CatalogProvider supplies the product catalog for a catalog key.
// Every call returns a full replacement, never a diff.
type CatalogProvider interface {
	FetchCatalog(ctx context.Context, key catalog.Key) (catalog.Catalog, error)
}

// SessionInitiator creates payment sessions from checkout requests.
type SessionInitiator interface {
	// Name returns the provider name (e.g., "remote", "stripe").
	Name() string

	// CreateCheckoutSession returns a client secret or a redirect URL.
	CreateCheckoutSession(ctx context.Context, req cart.CheckoutRequest) (billing.Session, error)
}

// SubscriptionService manages subscriptions outside the cart flow.
type SubscriptionService interface {
	// CreateSubscriptionInvoice subscribes the customer to a price and
	// returns the first invoice to be paid.
	CreateSubscriptionInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.SubscriptionInvoice, error)

	// GetSubscription returns the customer's subscription, or nil if none.
	GetSubscription(ctx context.Context, email string) (*billing.Subscription, error)

	// CreatePortalSession returns a self-service portal link.
	CreatePortalSession(ctx context.Context, email, returnURL string) (billing.PortalSession, error)
}

// TransactionSource lists credit and scan transactions.
type TransactionSource interface {
	ListTransactions(ctx context.Context, f ledger.Filter) ([]ledger.Transaction, ledger.Summary, error)
}

// CountryLocator resolves a client IP to an ISO 3166 alpha-2 country code.
type CountryLocator interface {
	Country(ctx context.Context, ip string) (string, error)
}
