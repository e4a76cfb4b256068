// Package http provides the JSON API for plan selection and checkout.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/plancart/adapters/metrics"
	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/artpar/plancart/domain/ledger"
	"github.com/rs/zerolog"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// ErrorResponseBody represents an error response body for swagger docs.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details for swagger docs.
type ErrorDetail struct {
	Code    string `json:"code" example:"category_conflict"`
	Message string `json:"message" example:"clear the current selection first"`
}

// TierRequest selects a price tier for a product.
type TierRequest struct {
	ProductID string `json:"product_id" example:"prod_starter"`
	PriceID   string `json:"price_id" example:"price_1Q0monthly"`
}

// ToggleRequest adds or removes a product.
type ToggleRequest struct {
	ProductID string `json:"product_id" example:"prod_starter"`
}

// CheckoutResponse carries exactly one of the session handles.
type CheckoutResponse struct {
	ClientSecret   string `json:"client_secret,omitempty"`
	PublishableKey string `json:"publishable_key,omitempty"`
	RedirectURL    string `json:"redirect_url,omitempty"`
}

// InvoiceResponse is a subscription invoice.
type InvoiceResponse struct {
	AmountDue  string     `json:"amount_due" example:"49.00"`
	Currency   string     `json:"currency" example:"USD"`
	Display    string     `json:"display" example:"USD 49.00"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	InvoiceURL string     `json:"invoice_url"`
	PDFURL     string     `json:"pdf_url,omitempty"`
}

// SubscriptionResponse wraps a possibly absent subscription.
type SubscriptionResponse struct {
	Subscription *SubscriptionBody `json:"subscription"`
}

// SubscriptionBody is a subscription as rendered to clients.
type SubscriptionBody struct {
	ID                 string    `json:"id"`
	Status             string    `json:"status" example:"active"`
	Amount             string    `json:"amount" example:"49.00"`
	Currency           string    `json:"currency" example:"USD"`
	Interval           string    `json:"interval,omitempty" example:"month"`
	IntervalCount      int64     `json:"interval_count,omitempty"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	RenewsAt           time.Time `json:"renews_at"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end"`
	Active             bool      `json:"active"`
}

// PortalRequest asks for a customer portal link.
type PortalRequest struct {
	Email     string `json:"email" example:"jane@example.com"`
	ReturnURL string `json:"return_url,omitempty"`
}

// PortalResponse is a customer portal link.
type PortalResponse struct {
	URL string `json:"url"`
}

// TransactionBody is one transaction as rendered to clients.
type TransactionBody struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Type        string    `json:"type" example:"received"`
	Source      string    `json:"source" example:"top_up"`
	Primary     string    `json:"primary" example:"credit"`
	Value       int64     `json:"value"`
	Description string    `json:"description,omitempty"`
	Reference   string    `json:"reference"`
}

// TotalsBody is a received/used/reset triple.
type TotalsBody struct {
	Received int64 `json:"received"`
	Used     int64 `json:"used"`
	Reset    int64 `json:"reset"`
}

// TransactionsResponse is a filtered transaction history.
type TransactionsResponse struct {
	Transactions []TransactionBody `json:"transactions"`
	Summary      struct {
		Credits TotalsBody `json:"credits"`
		Scans   TotalsBody `json:"scans"`
	} `json:"summary"`
}

// PlansHandler serves the plan selection API.
type PlansHandler struct {
	service *app.PlansService
	logger  zerolog.Logger
	metrics *metrics.Collector
	cookie  CookieConfig
}

// CookieConfig configures the visitor session cookie.
type CookieConfig struct {
	Name   string // default "plancart_session"
	Secure bool
	MaxAge time.Duration // 0 = browser session
}

// NewPlansHandler creates a new plans handler. m may be nil.
func NewPlansHandler(service *app.PlansService, logger zerolog.Logger, m *metrics.Collector, cookie CookieConfig) *PlansHandler {
	if cookie.Name == "" {
		cookie.Name = "plancart_session"
	}
	return &PlansHandler{service: service, logger: logger, metrics: m, cookie: cookie}
}

type sessionKey struct{}

// Session resolves the visitor session from the cookie, starting a new one
// when needed, and stores its ID in the request context.
func (h *PlansHandler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var current string
		if c, err := r.Cookie(h.cookie.Name); err == nil {
			current = c.Value
		}

		id := h.service.Open(current)
		if id != current {
			c := &http.Cookie{
				Name:     h.cookie.Name,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if h.cookie.MaxAge > 0 {
				c.MaxAge = int(h.cookie.MaxAge.Seconds())
			}
			http.SetCookie(w, c)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

// Plans loads the catalog for the requested key and returns the view.
//
//	@Summary		Load plans
//	@Description	Fetches the catalog for the country, duration and trial flag. Changing any of them clears the cart.
//	@Tags			Plans
//	@Produce		json
//	@Param			country			query		string	false	"ISO 3166 alpha-2 country (detected from the client IP when omitted)"
//	@Param			duration		query		int		false	"Billing duration in months"
//	@Param			include_trials	query		bool	false	"Include trial products"
//	@Success		200				{object}	app.View
//	@Failure		400				{object}	ErrorResponseBody	"Invalid query"
//	@Failure		502				{object}	ErrorResponseBody	"Backend error"
//	@Router			/api/plans [get]
func (h *PlansHandler) Plans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var key catalog.Key
	key.Country = q.Get("country")
	if key.Country == "" {
		key.Country = h.service.DetectCountry(r.Context(), clientIP(r))
	}
	if s := q.Get("duration"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.writeServiceError(w, &cart.ValidationError{Field: "duration", Value: s, Reason: "must be an integer"})
			return
		}
		key.Duration = n
	}
	trialsSet := false
	if s := q.Get("include_trials"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			h.writeServiceError(w, &cart.ValidationError{Field: "include_trials", Value: s, Reason: "must be a boolean"})
			return
		}
		key.IncludeTrials, trialsSet = b, true
	}

	res, err := h.service.LoadCatalog(r.Context(), sessionID(r), h.service.ResolveKey(key, trialsSet))
	h.recordLoad(res, err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if res.Stale {
		w.Header().Set("X-Catalog-Stale", "true")
	}
	writeJSON(w, http.StatusOK, res.View)
}

func (h *PlansHandler) recordLoad(res app.LoadResult, err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err != nil && app.IsUpstream(err):
		h.metrics.CatalogFetches.WithLabelValues("error").Inc()
		h.metrics.BackendErrors.WithLabelValues("catalog").Inc()
	case err != nil:
		return
	case res.Stale:
		h.metrics.CatalogFetches.WithLabelValues("stale").Inc()
		h.metrics.CatalogStaleDiscards.Inc()
	default:
		h.metrics.CatalogFetches.WithLabelValues("ok").Inc()
	}
	h.metrics.CatalogFetchDuration.Observe(res.Duration.Seconds())
	if res.Dropped {
		h.metrics.CatalogCartResets.Inc()
	}
}

// Cart returns the current view.
//
//	@Summary		Get cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	app.View
//	@Router			/api/cart [get]
func (h *PlansHandler) Cart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.View(sessionID(r)))
}

// ChooseTier records the tier for a product.
//
//	@Summary		Choose tier
//	@Description	Records the price tier for a product. A selected product switches to the tier in place.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TierRequest	true	"Product and price"
//	@Success		200		{object}	app.View
//	@Failure		400		{object}	ErrorResponseBody	"Unknown product or price"
//	@Failure		409		{object}	ErrorResponseBody	"No catalog loaded"
//	@Router			/api/cart/tier [post]
func (h *PlansHandler) ChooseTier(w http.ResponseWriter, r *http.Request) {
	var req TierRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, err)
		return
	}

	view, err := h.service.ChooseTier(sessionID(r), req.ProductID, req.PriceID)
	h.recordCartOp("tier", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Toggle adds or removes a product.
//
//	@Summary		Toggle product
//	@Description	Adds the product to the cart or removes it if already selected. Trials and paid products cannot be mixed.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ToggleRequest	true	"Product"
//	@Success		200		{object}	app.View
//	@Failure		400		{object}	ErrorResponseBody	"Unknown product"
//	@Failure		409		{object}	ErrorResponseBody	"Category conflict or no catalog loaded"
//	@Router			/api/cart/toggle [post]
func (h *PlansHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, err)
		return
	}

	view, err := h.service.Toggle(sessionID(r), req.ProductID)
	h.recordCartOp("toggle", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Clear empties the cart.
//
//	@Summary		Clear cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	app.View
//	@Router			/api/cart [delete]
func (h *PlansHandler) Clear(w http.ResponseWriter, r *http.Request) {
	view := h.service.Clear(sessionID(r))
	h.recordCartOp("clear", nil)
	writeJSON(w, http.StatusOK, view)
}

func (h *PlansHandler) recordCartOp(op string, err error) {
	if h.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case cart.IsCategoryConflict(err):
		result = "conflict"
	case cart.IsValidation(err):
		result = "invalid"
	default:
		result = "error"
	}
	h.metrics.CartOperations.WithLabelValues(op, result).Inc()
}

// Checkout hands the cart to the payment provider.
//
//	@Summary		Start checkout
//	@Description	Creates a payment session for the cart. Returns a client secret for an embedded form or a URL to redirect to. The cart is cleared on success.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		cart.Contact	true	"Contact details"
//	@Success		200		{object}	CheckoutResponse
//	@Failure		400		{object}	ErrorResponseBody	"Invalid contact"
//	@Failure		422		{object}	ErrorResponseBody	"Empty cart or trial not payable here"
//	@Failure		502		{object}	ErrorResponseBody	"Payment provider error"
//	@Router			/api/checkout [post]
func (h *PlansHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var contact cart.Contact
	if err := decodeJSON(r, &contact); err != nil {
		h.writeServiceError(w, err)
		return
	}

	sess, err := h.service.Checkout(r.Context(), sessionID(r), contact)
	if h.metrics != nil {
		provider := h.service.ProviderName()
		switch {
		case err == nil:
			h.metrics.CheckoutSessions.WithLabelValues(provider, "ok").Inc()
		case app.IsUpstream(err):
			h.metrics.CheckoutSessions.WithLabelValues(provider, "error").Inc()
			h.metrics.BackendErrors.WithLabelValues("checkout").Inc()
		default:
			h.metrics.CheckoutSessions.WithLabelValues(provider, "rejected").Inc()
		}
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if sess.Embedded() {
		writeJSON(w, http.StatusOK, CheckoutResponse{ClientSecret: sess.ClientSecret, PublishableKey: sess.PublishableKey})
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{RedirectURL: sess.RedirectURL})
}

// SubscriptionInvoice subscribes a customer paying by invoice.
//
//	@Summary		Create subscription invoice
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		billing.InvoiceRequest	true	"Customer and price"
//	@Success		200		{object}	InvoiceResponse
//	@Failure		400		{object}	ErrorResponseBody	"Invalid request"
//	@Failure		502		{object}	ErrorResponseBody	"Backend error"
//	@Router			/api/subscription-invoice [post]
func (h *PlansHandler) SubscriptionInvoice(w http.ResponseWriter, r *http.Request) {
	var req billing.InvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, err)
		return
	}

	inv, err := h.service.SubscriptionInvoice(r.Context(), req)
	if err != nil {
		h.recordBackend("subscription_invoice", err)
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InvoiceResponse{
		AmountDue:  inv.AmountDue.StringFixed(2),
		Currency:   inv.Currency,
		Display:    billing.FormatAmount(inv.AmountDue, inv.Currency),
		DueDate:    inv.DueDate,
		InvoiceURL: inv.InvoiceURL,
		PDFURL:     inv.PDFURL,
	})
}

// Subscription returns the subscription of a customer.
//
//	@Summary		Get subscription
//	@Tags			Subscriptions
//	@Produce		json
//	@Param			email	query		string	true	"Customer email"
//	@Success		200		{object}	SubscriptionResponse	"subscription is null when the customer has none"
//	@Failure		400		{object}	ErrorResponseBody		"Invalid email"
//	@Failure		502		{object}	ErrorResponseBody		"Backend error"
//	@Router			/api/subscription [get]
func (h *PlansHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Subscription(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.recordBackend("subscription", err)
		h.writeServiceError(w, err)
		return
	}

	resp := SubscriptionResponse{}
	if sub != nil {
		resp.Subscription = &SubscriptionBody{
			ID:                 sub.ID,
			Status:             string(sub.Status),
			Amount:             sub.Price.Amount.StringFixed(2),
			Currency:           sub.Price.Currency,
			Interval:           sub.Price.Interval,
			IntervalCount:      sub.Price.IntervalCount,
			CurrentPeriodStart: sub.CurrentPeriodStart,
			CurrentPeriodEnd:   sub.CurrentPeriodEnd,
			RenewsAt:           billing.RenewalDate(sub.CurrentPeriodStart, sub.Price.Interval, sub.Price.IntervalCount),
			CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
			Active:             sub.IsActive(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Portal returns a customer portal link.
//
//	@Summary		Create portal session
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PortalRequest	true	"Customer email and optional return URL"
//	@Success		200		{object}	PortalResponse
//	@Failure		400		{object}	ErrorResponseBody	"Invalid email"
//	@Failure		404		{object}	ErrorResponseBody	"Unknown customer"
//	@Failure		502		{object}	ErrorResponseBody	"Backend error"
//	@Router			/api/portal [post]
func (h *PlansHandler) Portal(w http.ResponseWriter, r *http.Request) {
	var req PortalRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, err)
		return
	}

	ps, err := h.service.PortalSession(r.Context(), req.Email, req.ReturnURL)
	if err != nil {
		h.recordBackend("portal", err)
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PortalResponse{URL: ps.URL})
}

// Transactions lists credit and scan transactions.
//
//	@Summary		List transactions
//	@Tags			Transactions
//	@Produce		json
//	@Param			user_id	query		string	true	"User ID"
//	@Param			type	query		string	false	"received, used or reset"
//	@Param			source	query		string	false	"subscription, top_up, trial or cancel_subscription"
//	@Param			primary	query		string	false	"credit or scan"
//	@Success		200		{object}	TransactionsResponse
//	@Failure		400		{object}	ErrorResponseBody	"Invalid filter"
//	@Failure		502		{object}	ErrorResponseBody	"Backend error"
//	@Router			/api/transactions [get]
func (h *PlansHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.Transactions(r.Context(), ledger.Filter{
		UserID:  q.Get("user_id"),
		Type:    ledger.Type(q.Get("type")),
		Source:  ledger.Source(q.Get("source")),
		Primary: ledger.Primary(q.Get("primary")),
	})
	if err != nil {
		h.recordBackend("transactions", err)
		h.writeServiceError(w, err)
		return
	}

	var resp TransactionsResponse
	resp.Transactions = make([]TransactionBody, len(list.Transactions))
	for i, tx := range list.Transactions {
		resp.Transactions[i] = TransactionBody{
			ID:          tx.ID,
			CreatedAt:   tx.CreatedAt,
			Type:        string(tx.Type),
			Source:      string(tx.Source),
			Primary:     string(tx.Primary),
			Value:       tx.Value,
			Description: tx.Description,
			Reference:   ledger.Reference(tx),
		}
	}
	resp.Summary.Credits = TotalsBody(list.Summary.Credits)
	resp.Summary.Scans = TotalsBody(list.Summary.Scans)
	writeJSON(w, http.StatusOK, resp)
}

func (h *PlansHandler) recordBackend(op string, err error) {
	if h.metrics != nil && app.IsUpstream(err) {
		h.metrics.BackendErrors.WithLabelValues(op).Inc()
	}
}

// writeServiceError maps service errors to status codes. Only unexpected
// failures are logged; input errors are the caller's business.
func (h *PlansHandler) writeServiceError(w http.ResponseWriter, err error) {
	status, code, message := classify(err)
	if status >= 500 {
		h.logger.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeError(w, status, code, message)
}

// errBadBody wraps request decoding failures.
type errBadBody struct{ err error }

func (e errBadBody) Error() string { return "invalid request body: " + e.err.Error() }

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errBadBody{err: errors.New("empty body")}
		}
		return errBadBody{err: err}
	}
	return nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}
