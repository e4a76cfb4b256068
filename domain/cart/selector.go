// Package cart implements the product selection and cart pricing state machine.
//
// A Selector is owned by exactly one caller and is not safe for concurrent
// use. Every operation either succeeds or leaves the selector unchanged.
package cart

import (
	"strings"

	"github.com/artpar/plancart/domain/catalog"
	"github.com/shopspring/decimal"
)

// Selection is a product together with its chosen price option.
type Selection struct {
	Product catalog.Product
	Option  catalog.PriceOption
}

// Contact is the caller-supplied checkout identity.
type Contact struct {
	Email       string `json:"email" validate:"required,email"`
	CountryCode string `json:"country_code" validate:"required,len=2,alpha"`
}

// CheckoutItem is one line of a checkout request.
type CheckoutItem struct {
	PriceID string          `json:"priceId"`
	Credits catalog.Credits `json:"credits"`

	// Trial marks a free trial line. Its PriceID may be a product ID that
	// only the backend understands.
	Trial bool `json:"-"`
}

// CheckoutRequest is handed to the payment session initiator.
type CheckoutRequest struct {
	Email          string         `json:"email"`
	CountryCode    string         `json:"countryCode"`
	IsSubscription bool           `json:"isSubscription"`
	Items          []CheckoutItem `json:"items"`
}

// Selector holds a cart over one catalog.
type Selector struct {
	catalog catalog.Catalog
	cart    []Selection
	pending map[string]string // product ID -> price ID

	// removed remembers where the last removed product sat so that
	// toggling it straight back restores the cart exactly.
	removed struct {
		id string
		at int
	}
}

// NewSelector creates an empty selector over c.
func NewSelector(c catalog.Catalog) *Selector {
	return &Selector{
		catalog: c,
		pending: make(map[string]string),
	}
}

// Catalog returns the catalog the selector works on.
func (s *Selector) Catalog() catalog.Catalog {
	return s.catalog
}

// ChoosePendingTier records the tier the user wants for a product. If the
// product is already in the cart its option is replaced in place.
func (s *Selector) ChoosePendingTier(productID, optionKey string) error {
	p, err := s.product(productID)
	if err != nil {
		return err
	}
	opt, ok := p.Option(optionKey)
	if !ok {
		return &ValidationError{Field: "price_id", Value: optionKey, Reason: "not an option of product " + productID}
	}

	s.pending[productID] = optionKey
	if i := s.indexOf(productID); i >= 0 {
		s.cart[i].Option = opt
	}
	return nil
}

// PendingTier returns the tier chosen for a product, if any.
func (s *Selector) PendingTier(productID string) (string, bool) {
	k, ok := s.pending[productID]
	return k, ok
}

// ToggleSelect removes the product if selected, otherwise adds it.
// Adding fails with *CategoryConflictError when the cart holds products of
// the other category. A product toggled back right after its removal returns
// to its old position.
func (s *Selector) ToggleSelect(productID string) error {
	p, err := s.product(productID)
	if err != nil {
		return err
	}

	if i := s.indexOf(productID); i >= 0 {
		s.cart = append(s.cart[:i:i], s.cart[i+1:]...)
		s.removed.id, s.removed.at = productID, i
		return nil
	}

	if have, ok := s.category(); ok && have != p.Kind.Category() {
		return &CategoryConflictError{ProductID: productID, Want: p.Kind.Category(), Have: have}
	}

	sel := Selection{Product: p, Option: s.insertOption(p)}
	at := len(s.cart)
	if s.removed.id == productID && s.removed.at < at {
		at = s.removed.at
	}
	s.cart = append(s.cart[:at:at], append([]Selection{sel}, s.cart[at:]...)...)
	s.removed.id = ""
	return nil
}

func (s *Selector) insertOption(p catalog.Product) catalog.PriceOption {
	if p.Kind == catalog.KindTrial {
		return p.DefaultOption()
	}
	if key, ok := s.pending[p.ID]; ok {
		if opt, ok := p.Option(key); ok {
			return opt
		}
	}
	return p.DefaultOption()
}

// Total sums the chosen option amounts. Trial options count as zero.
func (s *Selector) Total() decimal.Decimal {
	total := decimal.Zero
	for _, sel := range s.cart {
		if sel.Product.Kind == catalog.KindTrial {
			continue
		}
		total = total.Add(sel.Option.Amount)
	}
	return total
}

// ToCheckoutRequest maps the cart to a checkout request in insertion order.
func (s *Selector) ToCheckoutRequest(c Contact) (CheckoutRequest, error) {
	if len(s.cart) == 0 {
		return CheckoutRequest{}, ErrEmptyCart
	}

	req := CheckoutRequest{
		Email:       strings.TrimSpace(c.Email),
		CountryCode: strings.ToUpper(strings.TrimSpace(c.CountryCode)),
		Items:       make([]CheckoutItem, len(s.cart)),
	}
	for i, sel := range s.cart {
		if sel.Product.Kind == catalog.KindSubscription {
			req.IsSubscription = true
		}
		req.Items[i] = CheckoutItem{
			PriceID: sel.Option.PriceID,
			Credits: sel.Option.Credits,
			Trial:   sel.Product.Kind == catalog.KindTrial,
		}
	}
	return req, nil
}

// IsSelected reports whether the product is in the cart.
func (s *Selector) IsSelected(productID string) bool {
	return s.indexOf(productID) >= 0
}

// IsDisabled reports whether selecting the product would conflict with the
// current cart. Selected products are never disabled.
func (s *Selector) IsDisabled(productID string) bool {
	if s.IsSelected(productID) {
		return false
	}
	p, ok := s.catalog.Product(productID)
	if !ok {
		return true
	}
	have, ok := s.category()
	return ok && have != p.Kind.Category()
}

// Selections returns a copy of the cart in insertion order.
func (s *Selector) Selections() []Selection {
	out := make([]Selection, len(s.cart))
	copy(out, s.cart)
	return out
}

// Len returns the number of selections.
func (s *Selector) Len() int {
	return len(s.cart)
}

// Clear empties the cart and forgets pending tiers.
func (s *Selector) Clear() {
	s.cart = nil
	s.pending = make(map[string]string)
	s.removed.id = ""
}

// Reset swaps in a freshly fetched catalog. A different key clears the cart
// unconditionally since price IDs are not stable across catalogs. The same
// key keeps selections whose product and option still exist.
// Returns true if anything was dropped.
func (s *Selector) Reset(c catalog.Catalog) bool {
	prev := s.catalog.Key
	s.catalog = c
	s.removed.id = ""

	if prev != c.Key {
		dropped := len(s.cart) > 0 || len(s.pending) > 0
		s.Clear()
		return dropped
	}

	dropped := false
	kept := s.cart[:0:0]
	for _, sel := range s.cart {
		p, ok := c.Product(sel.Product.ID)
		if !ok || p.Kind != sel.Product.Kind {
			dropped = true
			continue
		}
		opt, ok := p.Option(sel.Option.PriceID)
		if !ok {
			dropped = true
			continue
		}
		kept = append(kept, Selection{Product: p, Option: opt})
	}
	s.cart = kept

	for id, key := range s.pending {
		p, ok := c.Product(id)
		if !ok {
			delete(s.pending, id)
			continue
		}
		if _, ok := p.Option(key); !ok {
			delete(s.pending, id)
		}
	}
	return dropped
}

func (s *Selector) product(id string) (catalog.Product, error) {
	p, ok := s.catalog.Product(id)
	if !ok {
		return catalog.Product{}, &ValidationError{Field: "product_id", Value: id, Reason: "not in catalog"}
	}
	return p, nil
}

func (s *Selector) indexOf(productID string) int {
	for i, sel := range s.cart {
		if sel.Product.ID == productID {
			return i
		}
	}
	return -1
}

// category returns the category shared by every selection in the cart.
func (s *Selector) category() (catalog.Category, bool) {
	if len(s.cart) == 0 {
		return "", false
	}
	return s.cart[0].Product.Kind.Category(), true
}
