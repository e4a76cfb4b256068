package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/artpar/plancart/domain/catalog"
	"github.com/artpar/plancart/ports"
	"github.com/shopspring/decimal"
)

// CatalogProvider fetches product catalogs from the backend.
//
// API Contract:
//
//	GET /api/products/{country}?duration=3&include_trials=true
//	Response: {"products": [{"id": "...", "type": "subscription", "prices": [...]}]}
type CatalogProvider struct {
	client *Client
}

// NewCatalogProvider creates a remote catalog provider.
func NewCatalogProvider(client *Client) *CatalogProvider {
	return &CatalogProvider{client: client}
}

// RemoteProduct is the wire format for products.
type RemoteProduct struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        string           `json:"type"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Credits     *catalog.Credits `json:"credits,omitempty"` // trials without prices
	Prices      []RemotePrice    `json:"prices"`
}

// RemotePrice is the wire format for a price option.
type RemotePrice struct {
	PriceID       string          `json:"price_id"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Interval      string          `json:"interval,omitempty"`
	IntervalCount int64           `json:"interval_count,omitempty"`
	Credits       catalog.Credits `json:"credits"`
}

// FetchCatalog fetches and validates the catalog for key.
func (p *CatalogProvider) FetchCatalog(ctx context.Context, key catalog.Key) (catalog.Catalog, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return catalog.Catalog{}, err
	}

	q := url.Values{}
	if key.Duration > 0 {
		q.Set("duration", strconv.Itoa(key.Duration))
	}
	q.Set("include_trials", strconv.FormatBool(key.IncludeTrials))

	var resp struct {
		Products []RemoteProduct `json:"products"`
	}
	path := "/api/products/" + url.PathEscape(key.Country)
	if err := p.client.Request(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return catalog.Catalog{}, fmt.Errorf("fetch catalog %s: %w", key, err)
	}

	products := make([]catalog.Product, 0, len(resp.Products))
	for _, rp := range resp.Products {
		products = append(products, toProduct(rp, key.IncludeTrials))
	}

	c, err := catalog.New(key, products)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("ingest catalog %s: %w", key, err)
	}
	return c, nil
}

// toProduct maps a wire product. A missing type is inferred from the prices:
// recurring prices make a subscription, one-time prices a top-up.
func toProduct(rp RemoteProduct, trialsRequested bool) catalog.Product {
	kind := catalog.Kind(strings.ToLower(rp.Type))
	if kind == "" {
		kind = inferKind(rp, trialsRequested)
	}

	opts := make([]catalog.PriceOption, len(rp.Prices))
	for i, price := range rp.Prices {
		opts[i] = catalog.PriceOption{
			PriceID:       price.PriceID,
			Amount:        price.Amount,
			Currency:      strings.ToUpper(price.Currency),
			Interval:      catalog.Interval(strings.ToLower(price.Interval)),
			IntervalCount: price.IntervalCount,
			Credits:       price.Credits,
		}
	}
	if kind == catalog.KindTrial && len(opts) == 0 && rp.Credits != nil {
		opts = []catalog.PriceOption{{PriceID: rp.ID, Credits: *rp.Credits}}
	}

	return catalog.Product{
		ID:          rp.ID,
		Name:        rp.Name,
		Description: rp.Description,
		Kind:        kind,
		Options:     opts,
		Metadata:    rp.Metadata,
	}
}

func inferKind(rp RemoteProduct, trialsRequested bool) catalog.Kind {
	if trialsRequested && len(rp.Prices) == 0 {
		return catalog.KindTrial
	}
	for _, price := range rp.Prices {
		if price.Interval != "" {
			return catalog.KindSubscription
		}
	}
	return catalog.KindTopUp
}

// Ensure interface compliance.
var _ ports.CatalogProvider = (*CatalogProvider)(nil)
