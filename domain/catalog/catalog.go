// Package catalog provides product catalog value types and pure functions.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the purchasable category of a product.
type Kind string

const (
	KindTrial        Kind = "trial"
	KindSubscription Kind = "subscription"
	KindTopUp        Kind = "top_up"
)

// Valid reports whether k is a known product kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTrial, KindSubscription, KindTopUp:
		return true
	}
	return false
}

// Category returns the selection-compatibility group of the kind.
// Subscriptions and top-ups share a cart; trials never mix with them.
func (k Kind) Category() Category {
	if k == KindTrial {
		return CategoryTrial
	}
	return CategoryRegular
}

// Category groups kinds that may share a cart.
type Category string

const (
	CategoryTrial   Category = "trial"
	CategoryRegular Category = "regular"
)

// Interval is the billing period unit of a recurring price.
type Interval string

const (
	IntervalNone  Interval = ""
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// PriceOption is one purchasable tier of a product (value type).
type PriceOption struct {
	PriceID       string
	Amount        decimal.Decimal
	Currency      string
	Interval      Interval // empty for one-time (top-up) prices
	IntervalCount int64
	Credits       Credits
}

// Recurring returns true if the option bills on an interval.
func (o PriceOption) Recurring() bool {
	return o.Interval != IntervalNone
}

// Product is a purchasable offering (value type).
type Product struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	Options     []PriceOption
	Metadata    map[string]any // validity window, team members, feature flags
}

// Option finds a price option by its price ID.
// This is a PURE function.
func (p Product) Option(priceID string) (PriceOption, bool) {
	for _, o := range p.Options {
		if o.PriceID == priceID {
			return o, true
		}
	}
	return PriceOption{}, false
}

// DefaultOption returns the first listed option.
// Products built through New always have at least one.
func (p Product) DefaultOption() PriceOption {
	if len(p.Options) == 0 {
		return PriceOption{}
	}
	return p.Options[0]
}

// Key identifies a catalog. Any change of key invalidates every price ID
// obtained under the previous key.
type Key struct {
	Country       string // ISO 3166 alpha-2; decides the currency on the backend
	Duration      int    // billing duration in months, 0 = backend default
	IncludeTrials bool
}

// Normalize returns the key with an upper-case country code.
func (k Key) Normalize() Key {
	k.Country = strings.ToUpper(strings.TrimSpace(k.Country))
	return k
}

// Validate checks the key fields.
func (k Key) Validate() error {
	if len(k.Country) != 2 {
		return fmt.Errorf("country must be a 2-letter code, got %q", k.Country)
	}
	if k.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %d", k.Duration)
	}
	return nil
}

// String renders the key, e.g. "US/3m/trials".
func (k Key) String() string {
	s := fmt.Sprintf("%s/%dm", k.Country, k.Duration)
	if k.IncludeTrials {
		s += "/trials"
	}
	return s
}

// Catalog is an immutable, validated list of products fetched under a Key.
type Catalog struct {
	Key      Key
	Products []Product
	index    map[string]int
}

// New validates products and builds a catalog.
//
// Trial products are normalized to exactly one zero-cost option: the first
// option the backend sent, or a synthesized one keyed by the product ID.
func New(key Key, products []Product) (Catalog, error) {
	c := Catalog{
		Key:      key.Normalize(),
		Products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}

	for i, p := range products {
		if p.ID == "" {
			return Catalog{}, fmt.Errorf("products[%d].id is required", i)
		}
		if _, dup := c.index[p.ID]; dup {
			return Catalog{}, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if !p.Kind.Valid() {
			return Catalog{}, fmt.Errorf("product %q: unknown kind %q", p.ID, p.Kind)
		}

		if p.Kind == KindTrial {
			p.Options = []PriceOption{trialOption(p)}
		}
		if len(p.Options) == 0 {
			return Catalog{}, fmt.Errorf("product %q has no price options", p.ID)
		}

		seen := make(map[string]bool, len(p.Options))
		for j, o := range p.Options {
			if o.PriceID == "" {
				return Catalog{}, fmt.Errorf("product %q: options[%d].price_id is required", p.ID, j)
			}
			if seen[o.PriceID] {
				return Catalog{}, fmt.Errorf("product %q: duplicate price id %q", p.ID, o.PriceID)
			}
			if o.Amount.IsNegative() {
				return Catalog{}, fmt.Errorf("product %q: price %q has negative amount", p.ID, o.PriceID)
			}
			seen[o.PriceID] = true
		}

		c.index[p.ID] = len(c.Products)
		c.Products = append(c.Products, p)
	}

	return c, nil
}

func trialOption(p Product) PriceOption {
	if len(p.Options) > 0 {
		o := p.Options[0]
		o.Amount = decimal.Zero
		return o
	}
	return PriceOption{
		PriceID: p.ID,
		Amount:  decimal.Zero,
	}
}

// Product finds a product by ID.
func (c Catalog) Product(id string) (Product, bool) {
	if c.index == nil {
		for _, p := range c.Products {
			if p.ID == id {
				return p, true
			}
		}
		return Product{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.Products[i], true
}

// Currency returns the currency of the first priced option, or "" if the
// catalog only holds trials.
func (c Catalog) Currency() string {
	for _, p := range c.Products {
		for _, o := range p.Options {
			if o.Currency != "" {
				return o.Currency
			}
		}
	}
	return ""
}

// Len returns the number of products.
func (c Catalog) Len() int {
	return len(c.Products)
}
