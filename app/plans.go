// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/artpar/plancart/domain/ledger"
	"github.com/artpar/plancart/ports"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Visitor is the plan-selection state of one visitor session.
// All fields are guarded by mu.
type Visitor struct {
	mu       sync.Mutex
	selector *cart.Selector // nil until the first catalog is applied

	// loads is bumped by every LoadCatalog call; a response is applied only
	// if no newer load was issued while it was in flight.
	loads uint64

	// edits is bumped by every successful cart mutation.
	edits uint64
}

// PlansDeps contains dependencies for PlansService.
type PlansDeps struct {
	Catalog       ports.CatalogProvider
	Payments      ports.SessionInitiator
	Subscriptions ports.SubscriptionService
	Transactions  ports.TransactionSource
	Locator       ports.CountryLocator // optional
	Sessions      ports.SessionStore[*Visitor]
	IDGen         ports.IDGenerator
	Clock         ports.Clock
	Logger        zerolog.Logger
}

// PlansConfig contains hot-reloadable configuration for PlansService.
type PlansConfig struct {
	DefaultCountry  string
	DefaultDuration int
	IncludeTrials   bool
	PortalReturnURL string
}

// PlansService owns one cart selector per visitor session and relays
// checkout, subscription and transaction calls to the payments backend.
type PlansService struct {
	deps     PlansDeps
	validate *validator.Validate
	fetches  singleflight.Group

	dynamicCfg atomic.Pointer[PlansConfig]
}

// LoadResult is the outcome of LoadCatalog.
type LoadResult struct {
	View View

	// Stale is set when a newer load for the same session was issued while
	// this one was in flight; its response was discarded.
	Stale bool

	// Dropped is set when applying the catalog removed selections.
	Dropped bool

	Duration time.Duration
}

// NewPlansService creates a new plans service.
func NewPlansService(deps PlansDeps, cfg PlansConfig) *PlansService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	s := &PlansService{deps: deps, validate: v}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig updates the hot-reloadable configuration.
// This is thread-safe and can be called while handling requests.
func (s *PlansService) UpdateConfig(cfg PlansConfig) {
	cfg.DefaultCountry = strings.ToUpper(cfg.DefaultCountry)
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "US"
	}
	s.dynamicCfg.Store(&cfg)
}

// Config returns the current dynamic configuration.
func (s *PlansService) Config() PlansConfig {
	return *s.dynamicCfg.Load()
}

// ProviderName names the payment provider checkout sessions are created with.
func (s *PlansService) ProviderName() string {
	return s.deps.Payments.Name()
}

// Open returns the session ID to use for a visitor. An unknown or empty ID
// starts a fresh session with a new ID.
func (s *PlansService) Open(sessionID string) string {
	if sessionID != "" {
		if _, ok := s.deps.Sessions.Get(sessionID); ok {
			return sessionID
		}
	}
	id := s.deps.IDGen.New()
	s.deps.Sessions.Put(id, &Visitor{})
	s.deps.Logger.Debug().Str("session", id).Msg("visitor session started")
	return id
}

// End discards a visitor session.
func (s *PlansService) End(sessionID string) {
	s.deps.Sessions.Delete(sessionID)
}

func (s *PlansService) visitor(sessionID string) *Visitor {
	if v, ok := s.deps.Sessions.Get(sessionID); ok {
		return v
	}
	v := &Visitor{}
	s.deps.Sessions.Put(sessionID, v)
	return v
}

// ResolveKey fills unset key fields from the configured defaults.
func (s *PlansService) ResolveKey(key catalog.Key, includeTrialsSet bool) catalog.Key {
	cfg := s.Config()
	if key.Country == "" {
		key.Country = cfg.DefaultCountry
	}
	if key.Duration == 0 {
		key.Duration = cfg.DefaultDuration
	}
	if !includeTrialsSet {
		key.IncludeTrials = cfg.IncludeTrials
	}
	return key.Normalize()
}

// LoadCatalog fetches the catalog for key and applies it to the session.
// Concurrent fetches of the same key across sessions share one backend
// call. Within a session the last issued load wins.
func (s *PlansService) LoadCatalog(ctx context.Context, sessionID string, key catalog.Key) (LoadResult, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return LoadResult{}, &cart.ValidationError{Field: "catalog", Value: key.String(), Reason: err.Error()}
	}

	v := s.visitor(sessionID)
	v.mu.Lock()
	v.loads++
	ticket := v.loads
	v.mu.Unlock()

	start := s.now()
	res, err, shared := s.fetches.Do(key.String(), func() (any, error) {
		return s.deps.Catalog.FetchCatalog(context.WithoutCancel(ctx), key)
	})
	elapsed := s.now().Sub(start)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loads != ticket {
		s.deps.Logger.Debug().
			Str("session", sessionID).
			Str("catalog", key.String()).
			Msg("discarding stale catalog response")
		return LoadResult{View: newView(v.selector), Stale: true, Duration: elapsed}, nil
	}

	if err != nil {
		dropped := false
		if v.selector != nil && v.selector.Catalog().Key != key {
			// Prices of the old catalog are void once another one is asked for.
			dropped = v.selector.Len() > 0
			v.selector.Clear()
			v.edits++
		}
		s.deps.Logger.Warn().Err(err).
			Str("catalog", key.String()).
			Bool("dropped", dropped).
			Msg("catalog fetch failed")
		return LoadResult{Dropped: dropped, Duration: elapsed}, upstream("fetch catalog", err)
	}

	c := res.(catalog.Catalog)
	dropped := false
	if v.selector == nil {
		v.selector = cart.NewSelector(c)
	} else {
		dropped = v.selector.Reset(c)
		if dropped {
			v.edits++
		}
	}

	s.deps.Logger.Debug().
		Str("session", sessionID).
		Str("catalog", key.String()).
		Int("products", c.Len()).
		Bool("shared", shared).
		Bool("dropped", dropped).
		Msg("catalog applied")

	return LoadResult{View: newView(v.selector), Dropped: dropped, Duration: elapsed}, nil
}

// View returns the session's current view.
func (s *PlansService) View(sessionID string) View {
	v := s.visitor(sessionID)
	v.mu.Lock()
	defer v.mu.Unlock()
	return newView(v.selector)
}

// ChooseTier records the tier for a product.
func (s *PlansService) ChooseTier(sessionID, productID, priceID string) (View, error) {
	return s.mutate(sessionID, func(sel *cart.Selector) error {
		return sel.ChoosePendingTier(productID, priceID)
	})
}

// Toggle adds or removes a product.
func (s *PlansService) Toggle(sessionID, productID string) (View, error) {
	return s.mutate(sessionID, func(sel *cart.Selector) error {
		return sel.ToggleSelect(productID)
	})
}

// Clear empties the session's cart.
func (s *PlansService) Clear(sessionID string) View {
	v := s.visitor(sessionID)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selector != nil {
		v.selector.Clear()
		v.edits++
	}
	return newView(v.selector)
}

func (s *PlansService) mutate(sessionID string, fn func(*cart.Selector) error) (View, error) {
	v := s.visitor(sessionID)
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.selector == nil {
		return newView(nil), ErrNoCatalog
	}
	if err := fn(v.selector); err != nil {
		return newView(v.selector), err
	}
	v.edits++
	return newView(v.selector), nil
}

// Checkout hands the cart to the payment provider. On success the cart is
// cleared unless it was edited while the session was being created; on
// failure it is kept so the visitor can retry.
func (s *PlansService) Checkout(ctx context.Context, sessionID string, contact cart.Contact) (billing.Session, error) {
	contact.Email = strings.TrimSpace(contact.Email)
	contact.CountryCode = strings.ToUpper(strings.TrimSpace(contact.CountryCode))
	if err := s.validate.Struct(contact); err != nil {
		return billing.Session{}, validationError(err)
	}

	v := s.visitor(sessionID)
	v.mu.Lock()
	if v.selector == nil {
		v.mu.Unlock()
		return billing.Session{}, cart.ErrEmptyCart
	}
	if country := v.selector.Catalog().Key.Country; contact.CountryCode != country {
		v.mu.Unlock()
		return billing.Session{}, &cart.ValidationError{
			Field:  "country_code",
			Value:  contact.CountryCode,
			Reason: "cart is priced for " + country,
		}
	}
	req, err := v.selector.ToCheckoutRequest(contact)
	edits := v.edits
	v.mu.Unlock()
	if err != nil {
		return billing.Session{}, err
	}

	sess, err := s.deps.Payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.deps.Logger.Error().Err(err).
			Str("provider", s.deps.Payments.Name()).
			Int("items", len(req.Items)).
			Msg("checkout session failed")
		return billing.Session{}, upstream("create checkout session", err)
	}

	v.mu.Lock()
	if v.edits == edits {
		v.selector.Clear()
		v.edits++
	}
	v.mu.Unlock()

	s.deps.Logger.Info().
		Str("provider", s.deps.Payments.Name()).
		Int("items", len(req.Items)).
		Bool("subscription", req.IsSubscription).
		Bool("embedded", sess.Embedded()).
		Msg("checkout session created")
	return sess, nil
}

// SubscriptionInvoice subscribes a customer paying by invoice.
func (s *PlansService) SubscriptionInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.SubscriptionInvoice, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.CountryCode = strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if err := s.validate.Struct(req); err != nil {
		return billing.SubscriptionInvoice{}, validationError(err)
	}

	inv, err := s.deps.Subscriptions.CreateSubscriptionInvoice(ctx, req)
	if err != nil {
		return billing.SubscriptionInvoice{}, upstream("create subscription invoice", err)
	}
	return inv, nil
}

// Subscription returns the subscription of email, or nil if none.
func (s *PlansService) Subscription(ctx context.Context, email string) (*billing.Subscription, error) {
	email = strings.TrimSpace(email)
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}

	sub, err := s.deps.Subscriptions.GetSubscription(ctx, email)
	if err != nil {
		return nil, upstream("get subscription", err)
	}
	return sub, nil
}

// PortalSession returns a customer portal link. An empty returnURL uses the
// configured default.
func (s *PlansService) PortalSession(ctx context.Context, email, returnURL string) (billing.PortalSession, error) {
	email = strings.TrimSpace(email)
	if err := s.checkEmail(email); err != nil {
		return billing.PortalSession{}, err
	}
	if returnURL == "" {
		returnURL = s.Config().PortalReturnURL
	}

	ps, err := s.deps.Subscriptions.CreatePortalSession(ctx, email, returnURL)
	if err != nil {
		return billing.PortalSession{}, upstream("create portal session", err)
	}
	return ps, nil
}

// TransactionList is a filtered transaction history.
type TransactionList struct {
	Transactions []ledger.Transaction
	Summary      ledger.Summary
}

// Transactions lists transactions matching f.
func (s *PlansService) Transactions(ctx context.Context, f ledger.Filter) (TransactionList, error) {
	if err := f.Validate(); err != nil {
		return TransactionList{}, &cart.ValidationError{Field: "filter", Value: f.UserID, Reason: err.Error()}
	}

	txs, summary, err := s.deps.Transactions.ListTransactions(ctx, f)
	if err != nil {
		return TransactionList{}, upstream("list transactions", err)
	}
	return TransactionList{Transactions: ledger.Apply(f, txs), Summary: summary}, nil
}

// DetectCountry resolves the visitor's country, falling back to the
// configured default when no locator is set or the lookup fails.
func (s *PlansService) DetectCountry(ctx context.Context, ip string) string {
	fallback := s.Config().DefaultCountry
	if s.deps.Locator == nil {
		return fallback
	}

	country, err := s.deps.Locator.Country(ctx, ip)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Str("ip", ip).Msg("country lookup failed, using default")
		return fallback
	}
	return country
}

func (s *PlansService) checkEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &cart.ValidationError{Field: "email", Value: email, Reason: reason(fieldErrs[0])}
		}
		return err
	}
	return nil
}

func (s *PlansService) now() time.Time {
	if s.deps.Clock == nil {
		return time.Now()
	}
	return s.deps.Clock.Now()
}
